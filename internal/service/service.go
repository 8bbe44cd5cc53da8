// Package service wires the compositing pipeline from configuration. Both
// the HTTP server and the compose CLI build on it.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"qrbatch/internal/adapter/repo"
	"qrbatch/internal/archive"
	"qrbatch/internal/batch"
	"qrbatch/internal/compositor"
	"qrbatch/internal/domain"
	"qrbatch/internal/domain/jsoncfg"
	"qrbatch/internal/infra"
	"qrbatch/internal/infra/geoip"
	"qrbatch/internal/label"
	"qrbatch/internal/layout"
	"qrbatch/internal/metrics"
	"qrbatch/internal/storage"
	"qrbatch/internal/textlayer"
)

// Service holds the long-lived pipeline components.
type Service struct {
	Config    *infra.Config
	Logger    zerolog.Logger
	Fonts     *textlayer.FontLibrary
	Dirs      *repo.DirRegistry
	Registry  domain.AssetRegistry
	Assets    *repo.AssetRegistryPG
	Store     *storage.FileStore
	Processor *batch.Processor
	Archiver  *archive.Archiver
	Metrics   *metrics.Metrics
	GeoIP     *geoip.Resolver

	pool *pgxpool.Pool
}

// Build assembles the pipeline. When DATABASE_URL is set assets resolve
// through the uploaded_assets table, otherwise straight from the upload
// directories.
func Build(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("service: config is required")
	}
	s := &Service{Config: cfg, Logger: logger, Metrics: metrics.New()}

	fonts, err := loadFonts(cfg, logger)
	if err != nil {
		return nil, err
	}
	s.Fonts = fonts

	s.Dirs = repo.NewDirRegistry(cfg.BackgroundDir, cfg.QRDir)
	s.Registry = s.Dirs
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s.pool = pool
		s.Assets = repo.NewAssetRegistryPG(infra.NewSQLRunner(pool, logger))
		if err := s.Assets.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, err
		}
		s.Registry = s.Assets
		logger.Info().Msg("service: resolving assets from database")
	}

	store, err := storage.NewFileStore(cfg.OutputDir)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Store = store

	engine := layout.NewEngine(cfg.QROffsetY)
	renderer, err := textlayer.NewRenderer(fonts, engine)
	if err != nil {
		s.Close()
		return nil, err
	}
	comp := compositor.New(store, engine, compositor.Options{
		JPEGQuality:  cfg.JPEGQuality,
		BoxSize:      cfg.QRBoxSize,
		DownloadBase: cfg.DownloadBasePath,
	})
	s.Processor = batch.NewProcessor(s.Registry, label.NewFormatter(nil), renderer, comp, batch.Options{
		Workers: cfg.BatchWorkers,
		Logger:  logger,
		Metrics: s.Metrics,
	})
	s.Archiver = archive.New(store, archive.Options{
		DownloadBase: cfg.DownloadBasePath,
		Logger:       logger,
		Metrics:      s.Metrics,
	})

	geo, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		// Locale falls back to headers only.
		logger.Warn().Err(err).Msg("service: geoip disabled")
	}
	s.GeoIP = geo

	return s, nil
}

// ErrFontRequired is returned outside development when no font provides
// the default family. The built-in Go fonts carry no CJK glyphs.
var ErrFontRequired = errors.New("service: FONT_PATH or a CustomFont file in FONT_DIR is required")

func loadFonts(cfg *infra.Config, logger zerolog.Logger) (*textlayer.FontLibrary, error) {
	fonts, err := textlayer.NewFontLibrary()
	if err != nil {
		return nil, fmt.Errorf("service: fonts: %w", err)
	}
	if cfg.FontPath != "" {
		if err := fonts.LoadFile(jsoncfg.DefaultFontFamily, cfg.FontPath, cfg.FontBoldPath); err != nil {
			return nil, fmt.Errorf("service: load FONT_PATH: %w", err)
		}
	}
	if cfg.FontDir != "" {
		n, err := fonts.LoadDir(cfg.FontDir)
		if err != nil {
			return nil, fmt.Errorf("service: load FONT_DIR: %w", err)
		}
		logger.Info().Int("families", n).Str("dir", cfg.FontDir).Msg("service: fonts loaded")
	}
	if !fonts.Has(jsoncfg.DefaultFontFamily) {
		if !cfg.IsDevelopment() {
			return nil, ErrFontRequired
		}
		logger.Warn().Msg("service: no CustomFont configured, Chinese glyphs will fall back to the built-in face")
	}
	return fonts, nil
}

// SyncAssets records every file in the upload directories into the database
// registry. It returns the number of rows written.
func (s *Service) SyncAssets(ctx context.Context) (int, error) {
	if s.Assets == nil {
		return 0, infra.ErrNoDatabase
	}
	total := 0
	for _, role := range []domain.AssetRole{domain.AssetRoleBackground, domain.AssetRoleQRCode} {
		assets, err := s.Dirs.List(ctx, role)
		if err != nil {
			return total, err
		}
		for _, asset := range assets {
			if err := s.Assets.Record(ctx, asset); err != nil {
				return total, err
			}
			total++
		}
	}
	return total, nil
}

// Close releases the database pool and the GeoIP reader.
func (s *Service) Close() {
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
	if s.GeoIP != nil {
		_ = s.GeoIP.Close()
		s.GeoIP = nil
	}
}
