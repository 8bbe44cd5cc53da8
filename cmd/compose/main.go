// Command compose runs one batch from the command line and prints the
// manifest as JSON.
//
//	compose -bg bg_1700000000000_template qr_1700000000001_一住1F1床 qr_...
//	compose -sync
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"qrbatch/internal/batch"
	"qrbatch/internal/domain/jsoncfg"
	"qrbatch/internal/infra"
	"qrbatch/internal/service"
)

func main() {
	_ = godotenv.Load()

	var (
		backgroundID = flag.String("bg", "", "background asset id")
		stylePath    = flag.String("style", "", "JSON file with the text style")
		workers      = flag.Int("workers", 0, "override BATCH_WORKERS")
		syncAssets   = flag.Bool("sync", false, "record the upload directories into the database registry and exit")
	)
	flag.Parse()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *workers > 0 {
		cfg.BatchWorkers = *workers
	}
	logger := infra.NewLoggerTo(os.Stderr, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := service.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("compose: failed to build pipeline")
	}
	defer svc.Close()

	if *syncAssets {
		n, err := svc.SyncAssets(ctx)
		if err != nil {
			logger.Fatal().Err(err).Int("recorded", n).Msg("compose: sync failed")
		}
		logger.Info().Int("recorded", n).Msg("compose: assets synced")
		return
	}

	style, err := readStyle(*stylePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("compose: read style")
	}

	manifest, err := svc.Processor.Run(ctx, batch.Request{
		BackgroundID: *backgroundID,
		QRCodeIDs:    flag.Args(),
		Style:        style,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("compose: batch failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manifest); err != nil {
		logger.Fatal().Err(err).Msg("compose: write manifest")
	}
	if manifest.ProcessedCount == 0 {
		os.Exit(1)
	}
}

func readStyle(path string) (jsoncfg.TextConfig, error) {
	var style jsoncfg.TextConfig
	if path == "" {
		return style, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return style, err
	}
	if err := json.Unmarshal(data, &style); err != nil {
		return style, fmt.Errorf("parse %s: %w", path, err)
	}
	return style, nil
}
