package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/use-agent/harvest/api"
	"github.com/use-agent/harvest/cache"
	"github.com/use-agent/harvest/classify"
	"github.com/use-agent/harvest/cleaner"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/detect"
	"github.com/use-agent/harvest/download"
	"github.com/use-agent/harvest/orchestrator"
	"github.com/use-agent/harvest/scraper"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("harvest starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxPages", cfg.Browser.MaxPages,
	)

	// ── 3. Initialise scraper (launches browser) ────────────────────
	sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper, detect.LoginWall)
	if err != nil {
		slog.Error("failed to initialise scraper", "error", err)
		os.Exit(1)
	}
	defer sc.Close()

	// ── 4. Initialise classifier with its cache ─────────────────────
	cc := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	clf := classify.New(cfg.Classify, classify.NewHeadProber(), cc)

	// ── 5. Initialise downloader ────────────────────────────────────
	dl, err := newDownloader(cfg.Download)
	if err != nil {
		slog.Error("failed to initialise downloader", "error", err)
		os.Exit(1)
	}

	// ── 6. Wire the orchestrator ────────────────────────────────────
	o := orchestrator.New(clf, sc, dl, cleaner.NewCleaner(), cfg.Batch.Concurrency)

	// ── 7. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(o, sc, cfg, startTime)

	// ── 8. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 9. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// sc.Close() runs via defer: drains the page pool and kills Chrome.
	slog.Info("harvest stopped")
}

// newDownloader builds the file downloader with a local or S3 store
// depending on configuration.
func newDownloader(cfg config.DownloadConfig) (*download.Downloader, error) {
	if cfg.UseS3 {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.S3Region))
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		slog.Info("download store: s3", "bucket", cfg.S3Bucket, "region", cfg.S3Region)
		return download.New(download.NewS3Store(awsCfg, cfg.S3Bucket, cfg.S3Region, cfg.S3Prefix), cfg.MaxBytes), nil
	}
	slog.Info("download store: local", "dir", cfg.Dir)
	return download.New(download.NewLocalStore(cfg.Dir), cfg.MaxBytes), nil
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
