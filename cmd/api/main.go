package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpapi "qrbatch/internal/http"
	"qrbatch/internal/http/handlers"
	"qrbatch/internal/infra"
	"qrbatch/internal/middleware"
	"qrbatch/internal/service"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := service.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to build pipeline")
	}
	defer svc.Close()

	var lookup middleware.CountryLookup
	if fn := svc.GeoIP.Lookup(); fn != nil {
		lookup = fn
	}

	app := handlers.NewApp(svc.Processor, svc.Archiver, logger, cfg.IsDevelopment())
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		CORSOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   lookup,
		Metrics:         svc.Metrics.Handler(),
	})

	server := infra.NewHTTPServer(cfg, router)
	logger.Info().
		Str("backgrounds", cfg.BackgroundDir).
		Str("qrcodes", cfg.QRDir).
		Str("output", cfg.OutputDir).
		Int("workers", cfg.BatchWorkers).
		Msg("api: starting")
	if err := server.Run(ctx, cfg.HTTPIdleTimeout, logger); err != nil {
		logger.Fatal().Err(err).Msg("api: server failed")
	}
}
