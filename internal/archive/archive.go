// Package archive lists composite outputs and packages selections of them
// into zip downloads.
package archive

import (
	"compress/flate"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"qrbatch/internal/domain"
	"qrbatch/internal/metrics"
	"qrbatch/internal/storage"
	zipstream "qrbatch/pkg/zip"
)

const defaultDownloadBase = "/api/download"

var outputExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// Options configures an Archiver.
type Options struct {
	DownloadBase string
	Logger       zerolog.Logger
	Metrics      *metrics.Metrics
}

// Archiver reads from the output store.
type Archiver struct {
	store        *storage.FileStore
	downloadBase string
	logger       zerolog.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

func New(store *storage.FileStore, opts Options) *Archiver {
	base := strings.TrimRight(strings.TrimSpace(opts.DownloadBase), "/")
	if base == "" {
		base = defaultDownloadBase
	}
	return &Archiver{
		store:        store,
		downloadBase: base,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
		now:          time.Now,
	}
}

// Archive is a prepared zip download. Nothing is opened until Stream.
type Archive struct {
	name    string
	files   []storage.FileInfo
	store   *storage.FileStore
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// Prepare keeps the requested names that exist in the output store, in
// request order without duplicates. It returns ErrNotFound when none exist.
func (a *Archiver) Prepare(filenames []string) (*Archive, error) {
	if len(filenames) == 0 {
		return nil, fmt.Errorf("archive: no filenames: %w", domain.ErrInvalidRequest)
	}
	seen := make(map[string]bool, len(filenames))
	files := make([]storage.FileInfo, 0, len(filenames))
	for _, name := range filenames {
		name = strings.TrimSpace(name)
		if !isPlainName(name) || seen[name] {
			continue
		}
		seen[name] = true
		info, err := a.store.Stat(name)
		if err != nil {
			continue
		}
		files = append(files, info)
	}
	if len(files) == 0 {
		a.metrics.ObserveArchive("not_found", 0)
		return nil, fmt.Errorf("archive: none of %d files exist: %w", len(filenames), domain.ErrNotFound)
	}
	return &Archive{
		name:    fmt.Sprintf("processed_images_%d.zip", a.now().UnixMilli()),
		files:   files,
		store:   a.store,
		logger:  a.logger,
		metrics: a.metrics,
	}, nil
}

// Name is the suggested download filename.
func (ar *Archive) Name() string {
	return ar.name
}

// Files returns the entry names in archive order.
func (ar *Archive) Files() []string {
	names := make([]string, len(ar.files))
	for i, f := range ar.files {
		names[i] = f.Key
	}
	return names
}

// Stream writes the archive into w one file at a time and returns the
// number of entries written. Files that vanished since Prepare are skipped.
func (ar *Archive) Stream(ctx context.Context, w io.Writer) (int, error) {
	sw := zipstream.NewStreamWriter(w, flate.BestCompression)
	for _, info := range ar.files {
		if err := ctx.Err(); err != nil {
			_ = sw.Close()
			ar.metrics.ObserveArchive("canceled", sw.Count())
			return sw.Count(), err
		}
		f, st, err := ar.store.Open(info.Key)
		if err != nil {
			ar.logger.Warn().Err(err).Str("file", info.Key).Msg("archive: entry skipped")
			continue
		}
		err = sw.Add(info.Key, st.ModTime, f)
		_ = f.Close()
		if err != nil {
			ar.metrics.ObserveArchive("failed", sw.Count())
			return sw.Count(), fmt.Errorf("archive: write %s: %w", info.Key, err)
		}
	}
	if err := sw.Close(); err != nil {
		ar.metrics.ObserveArchive("failed", sw.Count())
		return sw.Count(), fmt.Errorf("archive: finish: %w", err)
	}
	ar.metrics.ObserveArchive("ok", sw.Count())
	return sw.Count(), nil
}

// List returns every image in the output store, newest first.
func (a *Archiver) List(ctx context.Context) ([]domain.OutputFile, error) {
	infos, err := a.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	out := make([]domain.OutputFile, 0, len(infos))
	for _, info := range infos {
		if !outputExts[strings.ToLower(filepath.Ext(info.Key))] {
			continue
		}
		out = append(out, domain.OutputFile{
			Filename:    info.Key,
			DownloadRef: a.DownloadRef(info.Key),
			Size:        info.Size,
			CreatedAt:   info.ModTime,
		})
	}
	return out, nil
}

// Open returns a single output for download.
func (a *Archiver) Open(filename string) (*os.File, storage.FileInfo, error) {
	filename = strings.TrimSpace(filename)
	if !isPlainName(filename) {
		return nil, storage.FileInfo{}, fmt.Errorf("archive: %q: %w", filename, domain.ErrNotFound)
	}
	f, info, err := a.store.Open(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.FileInfo{}, fmt.Errorf("archive: %q: %w", filename, domain.ErrNotFound)
		}
		return nil, storage.FileInfo{}, fmt.Errorf("archive: open %q: %w", filename, err)
	}
	return f, info, nil
}

// DownloadRef returns the public path of an output.
func (a *Archiver) DownloadRef(filename string) string {
	return a.downloadBase + "/" + url.PathEscape(filename)
}

// isPlainName accepts a single visible path segment.
func isPlainName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}
