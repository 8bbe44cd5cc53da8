package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileStore persists files under a single root directory. Keys are relative
// slash-separated paths and can never escape the root.
type FileStore struct {
	basePath string
}

// FileInfo describes a stored file.
type FileInfo struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// NewFileStore initializes a FileStore rooted at basePath.
func NewFileStore(basePath string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// Path resolves a key to its location on disk.
func (s *FileStore) Path(key string) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, filepath.FromSlash(cleanKey)), nil
}

// Write persists data at key and returns the canonical key. The bytes land in
// a temporary sibling first and are renamed into place, so readers never
// observe a partial file.
func (s *FileStore) Write(ctx context.Context, key string, data []byte) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(cleanKey))
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("storage: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("storage: close file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("storage: chmod file: %w", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("storage: rename file: %w", err)
	}
	return cleanKey, nil
}

// Open returns a reader for key. Missing keys wrap fs.ErrNotExist.
func (s *FileStore) Open(key string) (*os.File, FileInfo, error) {
	fullPath, err := s.Path(key)
	if err != nil {
		return nil, FileInfo{}, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		return nil, FileInfo{}, fmt.Errorf("storage: open %s: %w", key, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, FileInfo{}, fmt.Errorf("storage: stat %s: %w", key, err)
	}
	if !st.Mode().IsRegular() {
		_ = f.Close()
		return nil, FileInfo{}, fmt.Errorf("storage: %s: %w", key, fs.ErrNotExist)
	}
	clean, _ := sanitizeKey(key)
	return f, FileInfo{Key: clean, Size: st.Size(), ModTime: st.ModTime()}, nil
}

// Stat reports metadata for key. Missing keys wrap fs.ErrNotExist.
func (s *FileStore) Stat(key string) (FileInfo, error) {
	fullPath, err := s.Path(key)
	if err != nil {
		return FileInfo{}, err
	}
	st, err := os.Stat(fullPath)
	if err != nil {
		return FileInfo{}, fmt.Errorf("storage: stat %s: %w", key, err)
	}
	if !st.Mode().IsRegular() {
		return FileInfo{}, fmt.Errorf("storage: %s: %w", key, fs.ErrNotExist)
	}
	clean, _ := sanitizeKey(key)
	return FileInfo{Key: clean, Size: st.Size(), ModTime: st.ModTime()}, nil
}

// List returns the regular files directly under the root, newest first.
// Temporary and hidden files are skipped.
func (s *FileStore) List(ctx context.Context) ([]FileInfo, error) {
	if s == nil {
		return nil, errors.New("storage: no store configured")
	}
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("storage: read dir: %w", err)
	}
	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{Key: entry.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Key < files[j].Key
		}
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}
