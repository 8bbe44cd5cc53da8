package domain

import "context"

// AssetRegistry resolves asset ids to stored files by exact match.
type AssetRegistry interface {
	Resolve(ctx context.Context, role AssetRole, id string) (Asset, error)
}

// AssetRecorder is implemented by registries that accept new assets from the
// upload subsystem.
type AssetRecorder interface {
	Record(ctx context.Context, asset Asset) error
}
