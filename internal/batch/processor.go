// Package batch runs the compositing pipeline over a list of QR codes with
// per-item failure isolation.
package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"qrbatch/internal/compositor"
	"qrbatch/internal/domain"
	"qrbatch/internal/domain/jsoncfg"
	"qrbatch/internal/label"
	"qrbatch/internal/metrics"
)

// TextRenderer produces the transparent text layer for one label.
type TextRenderer interface {
	Render(bgWidth, bgHeight int, lbl domain.Label, style jsoncfg.TextConfig) (image.Image, error)
}

// Request is one batch submission.
type Request struct {
	BatchID      string
	BackgroundID string
	QRCodeIDs    []string
	Style        jsoncfg.TextConfig
}

// Options configures a Processor.
type Options struct {
	Workers int
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// Processor turns a Request into a BatchManifest.
type Processor struct {
	registry   domain.AssetRegistry
	formatter  *label.Formatter
	renderer   TextRenderer
	compositor *compositor.Compositor
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	workers    int
}

func NewProcessor(registry domain.AssetRegistry, formatter *label.Formatter, renderer TextRenderer, comp *compositor.Compositor, opts Options) *Processor {
	if formatter == nil {
		formatter = label.NewFormatter(nil)
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Processor{
		registry:   registry,
		formatter:  formatter,
		renderer:   renderer,
		compositor: comp,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		workers:    workers,
	}
}

// batchRun is the state shared by the items of one Run call. Slots are
// indexed by request position and each is written by exactly one goroutine.
type batchRun struct {
	id         string
	background domain.Asset
	style      jsoncfg.TextConfig
	comp       *compositor.Compositor
	logger     zerolog.Logger
	results    []*domain.CompositeResult
	skipped    []*domain.SkippedItem
}

// Run processes every QR id of req. It fails as a whole only for an invalid
// request or an unresolvable background; item failures end up in
// BatchManifest.Skipped. A manifest with zero results is still a success.
func (p *Processor) Run(ctx context.Context, req Request) (domain.BatchManifest, error) {
	bgID := strings.TrimSpace(req.BackgroundID)
	if bgID == "" || len(req.QRCodeIDs) == 0 {
		return domain.BatchManifest{}, fmt.Errorf("batch: background and qr codes are required: %w", domain.ErrInvalidRequest)
	}
	batchID := strings.TrimSpace(req.BatchID)
	if batchID == "" {
		batchID = uuid.NewString()
	}
	logger := p.logger.With().Str("batch_id", batchID).Logger()
	start := time.Now()

	background, err := p.registry.Resolve(ctx, domain.AssetRoleBackground, bgID)
	if err != nil {
		logger.Warn().Err(err).Str("background_id", bgID).Msg("batch: background unresolved")
		p.metrics.ObserveBatch("failed", time.Since(start))
		return domain.BatchManifest{}, fmt.Errorf("batch: resolve background: %w", err)
	}

	n := len(req.QRCodeIDs)
	run := &batchRun{
		id:         batchID,
		background: background,
		style:      req.Style.Normalized(),
		comp:       p.compositor.WithBackgrounds(compositor.NewBackgroundCache()),
		logger:     logger,
		results:    make([]*domain.CompositeResult, n),
		skipped:    make([]*domain.SkippedItem, n),
	}
	logger.Info().Str("background", background.Filename).Int("items", n).Int("workers", p.workers).Msg("batch: started")

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, id := range req.QRCodeIDs {
		if ctx.Err() != nil {
			run.skip(i, id, domain.SkipStageCanceled, ctx.Err())
			continue
		}
		g.Go(func() error {
			p.runItem(ctx, run, i, id)
			return nil
		})
	}
	_ = g.Wait()

	manifest := domain.BatchManifest{
		BatchID:   batchID,
		Requested: n,
		Results:   make([]domain.CompositeResult, 0, n),
		Skipped:   make([]domain.SkippedItem, 0),
	}
	for i := 0; i < n; i++ {
		if r := run.results[i]; r != nil {
			manifest.Results = append(manifest.Results, *r)
		}
		if s := run.skipped[i]; s != nil {
			manifest.Skipped = append(manifest.Skipped, *s)
		}
	}
	manifest.ProcessedCount = len(manifest.Results)

	result := "ok"
	if manifest.Partial() {
		result = "partial"
	}
	took := time.Since(start)
	p.metrics.ObserveBatch(result, took)
	logger.Info().
		Int("processed", manifest.ProcessedCount).
		Int("skipped", len(manifest.Skipped)).
		Dur("took", took).
		Msg("batch: finished")
	return manifest, nil
}

func (p *Processor) runItem(ctx context.Context, run *batchRun, index int, id string) {
	start := time.Now()
	itemLogger := run.logger.With().Int("item", index).Str("qr_id", id).Logger()
	defer func() {
		if rec := recover(); rec != nil {
			itemLogger.Error().Interface("panic", rec).Msg("batch: item panicked")
			run.skipped[index] = &domain.SkippedItem{
				Index:   index,
				AssetID: id,
				Stage:   domain.SkipStageCompose,
				Reason:  "internal error",
			}
			run.results[index] = nil
			p.metrics.ObserveItem(metrics.OutcomeSkipped, time.Since(start), 0)
		}
	}()

	if err := ctx.Err(); err != nil {
		run.skip(index, id, domain.SkipStageCanceled, err)
		p.metrics.ObserveItem(metrics.OutcomeCanceled, 0, 0)
		return
	}

	qr, err := p.registry.Resolve(ctx, domain.AssetRoleQRCode, id)
	if err != nil {
		itemLogger.Warn().Err(err).Msg("batch: qr code unresolved")
		run.skip(index, id, stageFor(ctx, domain.SkipStageResolve), err)
		p.metrics.ObserveItem(outcomeFor(ctx), 0, 0)
		return
	}

	identifier := domain.RawIdentifier(qr.Filename)
	lbl := p.formatter.Format(identifier)
	res, err := p.compose(ctx, run, domain.CompositeJob{
		BatchID:    run.id,
		Index:      index,
		Background: run.background,
		QRCode:     qr,
		Identifier: identifier,
		Label:      lbl,
		Style:      run.style,
	})
	if err != nil {
		itemLogger.Error().Err(err).Str("label", lbl.Chinese).Msg("batch: composite failed")
		run.skip(index, id, stageFor(ctx, domain.SkipStageCompose), err)
		p.metrics.ObserveItem(outcomeFor(ctx), time.Since(start), 0)
		return
	}
	run.results[index] = &res
	p.metrics.ObserveItem(metrics.OutcomeComposed, time.Since(start), res.ByteSize)
	itemLogger.Debug().Str("filename", res.OutputFilename).Int64("bytes", res.ByteSize).Msg("batch: item composed")
}

func (p *Processor) compose(ctx context.Context, run *batchRun, job domain.CompositeJob) (domain.CompositeResult, error) {
	bg, err := run.comp.Background(job.Background)
	if err != nil {
		return domain.CompositeResult{}, err
	}
	b := bg.Bounds()
	job.Background.Width, job.Background.Height = b.Dx(), b.Dy()
	layer, err := p.renderer.Render(b.Dx(), b.Dy(), job.Label, job.Style)
	if err != nil {
		return domain.CompositeResult{}, fmt.Errorf("batch: render text: %w", err)
	}
	return run.comp.Compose(ctx, job, layer)
}

func (r *batchRun) skip(index int, id string, stage domain.SkipStage, err error) {
	r.skipped[index] = &domain.SkippedItem{
		Index:   index,
		AssetID: id,
		Stage:   stage,
		Reason:  reasonFor(err),
	}
}

func stageFor(ctx context.Context, stage domain.SkipStage) domain.SkipStage {
	if ctx.Err() != nil {
		return domain.SkipStageCanceled
	}
	return stage
}

func outcomeFor(ctx context.Context) string {
	if ctx.Err() != nil {
		return metrics.OutcomeCanceled
	}
	return metrics.OutcomeSkipped
}

// reasonFor maps an item error to a client-safe message. Full errors are
// logged separately.
func reasonFor(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "batch canceled"
	case errors.Is(err, domain.ErrNotFound):
		return "asset not found"
	case errors.Is(err, domain.ErrAmbiguousAsset):
		return "asset id is ambiguous"
	case errors.Is(err, domain.ErrDecode):
		return "image could not be decoded"
	case errors.Is(err, domain.ErrEncode):
		return "image could not be encoded"
	case errors.Is(err, domain.ErrWrite):
		return "output could not be written"
	default:
		return "composite failed"
	}
}
