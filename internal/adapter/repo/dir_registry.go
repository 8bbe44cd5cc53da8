package repo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"qrbatch/internal/domain"
)

// DirRegistry resolves assets from the upload directories. An id is the role
// prefix followed by the stored basename without extension; matching is
// exact.
type DirRegistry struct {
	dirs map[domain.AssetRole]string
}

// NewDirRegistry maps each role to the directory holding its uploads.
func NewDirRegistry(backgroundDir, qrDir string) *DirRegistry {
	return &DirRegistry{dirs: map[domain.AssetRole]string{
		domain.AssetRoleBackground: backgroundDir,
		domain.AssetRoleQRCode:     qrDir,
	}}
}

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// Resolve returns the single stored file whose basename equals the id with
// its role prefix removed. Two files differing only by extension are
// reported as ErrAmbiguousAsset.
func (r *DirRegistry) Resolve(ctx context.Context, role domain.AssetRole, id string) (domain.Asset, error) {
	if err := ctx.Err(); err != nil {
		return domain.Asset{}, err
	}
	dir, ok := r.dirs[role]
	if !ok || strings.TrimSpace(dir) == "" {
		return domain.Asset{}, fmt.Errorf("repo: no directory for role %q: %w", role, domain.ErrNotFound)
	}
	key := domain.StripIDPrefix(id, role)
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return domain.Asset{}, fmt.Errorf("repo: %s %q: %w", role, id, domain.ErrNotFound)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Asset{}, fmt.Errorf("repo: %s %q: %w", role, id, domain.ErrNotFound)
		}
		return domain.Asset{}, fmt.Errorf("repo: read %s dir: %w", role, err)
	}

	var matches []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if !imageExts[strings.ToLower(ext)] {
			continue
		}
		if strings.TrimSuffix(name, ext) == key {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 0:
		return domain.Asset{}, fmt.Errorf("repo: %s %q: %w", role, id, domain.ErrNotFound)
	case 1:
	default:
		return domain.Asset{}, fmt.Errorf("repo: %s %q matches %s: %w", role, id, strings.Join(matches, ", "), domain.ErrAmbiguousAsset)
	}
	return domain.Asset{
		ID:       role.IDPrefix() + key,
		Role:     role,
		Filename: matches[0],
		Path:     filepath.Join(dir, matches[0]),
	}, nil
}

// List returns every image stored for role, sorted by filename. Files that
// share a basename are all returned; Resolve rejects them later.
func (r *DirRegistry) List(ctx context.Context, role domain.AssetRole) ([]domain.Asset, error) {
	dir, ok := r.dirs[role]
	if !ok || strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("repo: no directory for role %q: %w", role, domain.ErrNotFound)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("repo: read %s dir: %w", role, err)
	}
	assets := make([]domain.Asset, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if !entry.Type().IsRegular() || !imageExts[strings.ToLower(ext)] {
			continue
		}
		assets = append(assets, domain.Asset{
			ID:       role.IDPrefix() + strings.TrimSuffix(name, ext),
			Role:     role,
			Filename: name,
			Path:     filepath.Join(dir, name),
		})
	}
	return assets, nil
}

var _ domain.AssetRegistry = (*DirRegistry)(nil)
