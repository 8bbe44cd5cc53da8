// Package compositor merges a background, a QR code and a text layer into a
// single JPEG written to the output store.
package compositor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"qrbatch/internal/domain"
	"qrbatch/internal/layout"
	"qrbatch/internal/storage"
)

const (
	DefaultJPEGQuality  = 90
	DefaultBoxSize      = 700
	DefaultDownloadBase = "/api/download"

	// maxLabelBytes keeps job_<uuid>_<label>_<hex>.jpg under the 255 byte
	// NAME_MAX of common filesystems.
	maxLabelBytes = 150
)

// Options tunes the encoder and the overlay box.
type Options struct {
	JPEGQuality  int
	BoxSize      int
	DownloadBase string
}

func (o Options) withDefaults() Options {
	if o.JPEGQuality <= 0 || o.JPEGQuality > 100 {
		o.JPEGQuality = DefaultJPEGQuality
	}
	if o.BoxSize <= 0 {
		o.BoxSize = DefaultBoxSize
	}
	o.DownloadBase = strings.TrimRight(strings.TrimSpace(o.DownloadBase), "/")
	if o.DownloadBase == "" {
		o.DownloadBase = DefaultDownloadBase
	}
	return o
}

// Compositor writes composites into a FileStore.
type Compositor struct {
	store       *storage.FileStore
	layout      layout.Engine
	opts        Options
	backgrounds *BackgroundCache
	suffix      func() string
}

// New builds a compositor. Each compositor starts with its own background
// cache; use WithBackgrounds to scope one to a batch.
func New(store *storage.FileStore, engine layout.Engine, opts Options) *Compositor {
	return &Compositor{
		store:       store,
		layout:      engine,
		opts:        opts.withDefaults(),
		backgrounds: NewBackgroundCache(),
		suffix:      randomSuffix,
	}
}

// WithBackgrounds returns a shallow copy that decodes backgrounds through
// cache.
func (c *Compositor) WithBackgrounds(cache *BackgroundCache) *Compositor {
	cp := *c
	if cache == nil {
		cache = NewBackgroundCache()
	}
	cp.backgrounds = cache
	return &cp
}

// Background decodes (or returns the cached) background image.
func (c *Compositor) Background(asset domain.Asset) (image.Image, error) {
	return c.backgrounds.Load(asset)
}

// DownloadRef returns the public download path for an output filename.
func (c *Compositor) DownloadRef(filename string) string {
	return c.opts.DownloadBase + "/" + url.PathEscape(filename)
}

// Compose renders one job and persists the JPEG. textLayer must match the
// background size and may be nil.
func (c *Compositor) Compose(ctx context.Context, job domain.CompositeJob, textLayer image.Image) (domain.CompositeResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.CompositeResult{}, err
	}
	bg, err := c.backgrounds.Load(job.Background)
	if err != nil {
		return domain.CompositeResult{}, err
	}
	qr, err := imaging.Open(job.QRCode.Path, imaging.AutoOrientation(true))
	if err != nil {
		return domain.CompositeResult{}, fmt.Errorf("compositor: decode qr %s: %w: %v", job.QRCode.ID, domain.ErrDecode, err)
	}

	box := Contain(qr, c.opts.BoxSize)
	bounds := bg.Bounds()
	pos := c.layout.ComputePlacement(bounds.Dx(), bounds.Dy(), box.Bounds().Dx(), box.Bounds().Dy())

	out := imaging.Overlay(bg, box, pos, 1.0)
	if textLayer != nil {
		out = imaging.Overlay(out, textLayer, image.Pt(0, 0), 1.0)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(c.opts.JPEGQuality)); err != nil {
		return domain.CompositeResult{}, fmt.Errorf("compositor: encode: %w: %v", domain.ErrEncode, err)
	}

	filename := OutputFilename(job.BatchID, job.Label.Chinese, c.suffix())
	key, err := c.store.Write(ctx, filename, buf.Bytes())
	if err != nil {
		return domain.CompositeResult{}, fmt.Errorf("compositor: write %s: %w: %v", filename, domain.ErrWrite, err)
	}
	fullPath, _ := c.store.Path(key)

	return domain.CompositeResult{
		ID:             uuid.NewString(),
		SourceAssetID:  job.QRCode.ID,
		OriginalName:   job.Identifier,
		EnglishName:    job.Label.English,
		OutputFilename: key,
		OutputPath:     fullPath,
		DownloadRef:    c.DownloadRef(key),
		ByteSize:       int64(buf.Len()),
	}, nil
}

// Contain scales img to fit a size x size box, preserving aspect ratio, and
// centers it on a transparent canvas of exactly that size.
func Contain(img image.Image, size int) *image.NRGBA {
	canvas := imaging.New(size, size, color.NRGBA{})
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return canvas
	}
	scale := math.Min(float64(size)/float64(b.Dx()), float64(size)/float64(b.Dy()))
	w := int(math.Round(float64(b.Dx()) * scale))
	h := int(math.Round(float64(b.Dy()) * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	resized := imaging.Resize(img, w, h, imaging.Lanczos)
	return imaging.PasteCenter(canvas, resized)
}

// OutputFilename builds job_<batch>_<label>_<suffix>.jpg with the label made
// safe for a single path segment.
func OutputFilename(batchID, label, suffix string) string {
	return fmt.Sprintf("job_%s_%s_%s.jpg", batchID, sanitizeSegment(label), suffix)
}

func sanitizeSegment(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsControl(r) || unicode.IsSpace(r) || r == utf8.RuneError || strings.ContainsRune(`/\:*?"<>|`, r) {
			r = '_'
		}
		if b.Len()+utf8.RuneLen(r) > maxLabelBytes {
			break
		}
		b.WriteRune(r)
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "label"
	}
	return out
}

func randomSuffix() string {
	id := uuid.New()
	return fmt.Sprintf("%x", id[:4])
}
