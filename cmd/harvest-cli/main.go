// Command harvest-cli processes URLs from the command line and prints
// a report per URL, without running the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/use-agent/harvest/cache"
	"github.com/use-agent/harvest/classify"
	"github.com/use-agent/harvest/cleaner"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/detect"
	"github.com/use-agent/harvest/download"
	"github.com/use-agent/harvest/orchestrator"
	"github.com/use-agent/harvest/report"
	"github.com/use-agent/harvest/scraper"
)

var (
	saveArtifact = flag.Bool("save-artifact", false, "Write a markdown or file artifact per successful URL")
	saveResults  = flag.Bool("save-results", false, "Write a JSON summary per URL")
	outputDir    = flag.String("output-dir", ".", "Directory for JSON summaries")
	logLevel     = flag.String("log-level", "warn", "Log level: debug, info, warn, error")
)

func main() {
	flag.Parse()
	urls := flag.Args()
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "usage: harvest-cli [flags] URL [URL...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.Load()
	cfg.Log.Level = *logLevel
	cfg.Log.Format = "text"
	cfg.Report.SaveResults = *saveResults
	cfg.Report.OutputDir = *outputDir
	initLogger(cfg.Log)

	sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper, detect.LoginWall)
	if err != nil {
		fmt.Fprintf(os.Stderr, "browser startup failed: %v\n", err)
		os.Exit(1)
	}
	defer sc.Close()

	cc := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	clf := classify.New(cfg.Classify, classify.NewHeadProber(), cc)

	dl, err := newDownloader(cfg.Download)
	if err != nil {
		fmt.Fprintf(os.Stderr, "downloader setup failed: %v\n", err)
		os.Exit(1)
	}

	o := orchestrator.New(clf, sc, dl, cleaner.NewCleaner(), cfg.Batch.Concurrency)

	results := o.ProcessAll(context.Background(), urls, *saveArtifact, nil)

	failed := 0
	for _, rawURL := range urls {
		result, ok := results[rawURL]
		if !ok {
			continue
		}
		report.Write(os.Stdout, rawURL, result)
		if !result.OK() {
			failed++
		}
		if path, err := report.SaveResult(cfg.Report, rawURL, result); err != nil {
			slog.Warn("summary not saved", "url", rawURL, "error", err)
		} else if path != "" {
			fmt.Printf("Result saved to: %s\n", path)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func newDownloader(cfg config.DownloadConfig) (*download.Downloader, error) {
	if cfg.UseS3 {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.S3Region))
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		return download.New(download.NewS3Store(awsCfg, cfg.S3Bucket, cfg.S3Region, cfg.S3Prefix), cfg.MaxBytes), nil
	}
	return download.New(download.NewLocalStore(cfg.Dir), cfg.MaxBytes), nil
}

func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
