package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"qrbatch/internal/domain"
	"qrbatch/internal/sqlinline"
)

// querier is the subset of infra.SQLExecutor the registry needs.
type querier interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
}

// AssetRegistryPG resolves assets recorded by the upload subsystem in the
// uploaded_assets table.
type AssetRegistryPG struct {
	db querier
}

// NewAssetRegistryPG constructs a registry over db.
func NewAssetRegistryPG(db querier) *AssetRegistryPG {
	return &AssetRegistryPG{db: db}
}

// EnsureSchema creates the uploaded_assets table when missing.
func (r *AssetRegistryPG) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, sqlinline.QCreateUploadedAssets); err != nil {
		return fmt.Errorf("repo: ensure schema: %w", err)
	}
	return nil
}

// Resolve looks up an asset by role and exact id.
func (r *AssetRegistryPG) Resolve(ctx context.Context, role domain.AssetRole, id string) (domain.Asset, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Asset{}, fmt.Errorf("repo: empty %s id: %w", role, domain.ErrNotFound)
	}
	var (
		asset   domain.Asset
		roleStr string
	)
	err := r.db.QueryRow(ctx, sqlinline.QSelectUploadedAsset, string(role), id).
		Scan(&asset.ID, &roleStr, &asset.Filename, &asset.Path, &asset.Width, &asset.Height)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Asset{}, fmt.Errorf("repo: %s %q: %w", role, id, domain.ErrNotFound)
		}
		return domain.Asset{}, fmt.Errorf("repo: resolve %s %q: %w", role, id, err)
	}
	asset.Role = domain.AssetRole(roleStr)
	return asset, nil
}

// Record upserts an asset row.
func (r *AssetRegistryPG) Record(ctx context.Context, asset domain.Asset) error {
	if strings.TrimSpace(asset.ID) == "" || asset.Role == "" {
		return fmt.Errorf("repo: record asset: %w", domain.ErrInvalidRequest)
	}
	_, err := r.db.Exec(ctx, sqlinline.QInsertUploadedAsset,
		asset.ID, string(asset.Role), asset.Filename, asset.Path, asset.Width, asset.Height)
	if err != nil {
		return fmt.Errorf("repo: record asset %q: %w", asset.ID, err)
	}
	return nil
}

var (
	_ domain.AssetRegistry = (*AssetRegistryPG)(nil)
	_ domain.AssetRecorder = (*AssetRegistryPG)(nil)
)
