// Command satdata builds the satellite data files from public TLE catalogs.
//
// Usage:
//
//	satdata [rebuild|add-amsat|convert]
//
// rebuild (the default) fetches every catalog group, writes the individual
// .sat records and labeled .cat files and rebuilds the aggregate file.
// add-amsat appends satellites from the AMSAT file that have no record yet.
// convert converts the TLE files already in the input directory.
//
// Configuration is read from SATDATA_* environment variables and an
// optional .env file. Only one satdata process may use a set of
// directories at a time.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/csete/gpredict/internal/catalog"
	"github.com/csete/gpredict/internal/config"
	"github.com/csete/gpredict/internal/logging"
	"github.com/csete/gpredict/internal/metrics"
	"github.com/csete/gpredict/internal/pipeline"
	"github.com/csete/gpredict/internal/tle"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	dotenvErr := config.LoadDotenv()

	logger := logging.New(os.Stdout, os.Getenv("SATDATA_LOG_FORMAT"), os.Getenv("SATDATA_LOG_LEVEL")).
		With("run_id", uuid.NewString())
	if dotenvErr != nil {
		logger.Warn("ignoring .env file", "error", dotenvErr)
	}

	mode := "rebuild"
	if len(args) > 0 {
		mode = args[0]
	}
	if len(args) > 1 {
		fmt.Fprintln(os.Stderr, "usage: satdata [rebuild|add-amsat|convert]")
		return 2
	}

	cfg := config.Load(logger)

	cat, err := loadCatalog(cfg.CatalogFile, logger)
	if err != nil {
		logger.Error("invalid catalog", "error", err)
		return 1
	}

	fetcher := tle.NewFetcher(cfg.URLPrefix, cfg.FetchTimeout, logger)
	p := pipeline.New(pipeline.Config{
		InDir:         cfg.InDir,
		TmpDir:        cfg.TmpDir,
		OutDir:        cfg.OutDir,
		AggregateName: cfg.AggregateName,
		AmsatURL:      cfg.AmsatURL,
		AmsatGroup:    cfg.AmsatGroup,
		SkipFetch:     cfg.SkipFetch,
	}, cat, fetcher, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	logger.Info("starting run", "mode", mode)

	var sum pipeline.Summary
	switch mode {
	case "rebuild":
		sum, err = p.Rebuild(ctx)
	case "add-amsat":
		sum, err = p.AddAmsat(ctx)
	case "convert":
		sum, err = p.ConvertDir(ctx)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\nusage: satdata [rebuild|add-amsat|convert]\n", mode)
		return 2
	}

	elapsed := time.Since(start)
	metrics.SetRunDuration(elapsed)
	if err == nil {
		metrics.SetLastSuccess(time.Now())
	}
	if cfg.MetricsFile != "" {
		if mErr := metrics.WriteTextfile(cfg.MetricsFile); mErr != nil {
			logger.Warn("failed to write metrics", "path", cfg.MetricsFile, "error", mErr)
		}
	}

	logger.Info("run finished",
		"mode", mode,
		"groups", sum.Groups,
		"failed_groups", sum.Failed,
		"records", sum.Records,
		"skipped", sum.Skipped,
		"sections", sum.Sections,
		"duration_ms", elapsed.Milliseconds(),
	)

	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("run interrupted")
		} else {
			logger.Error("run completed with errors", "error", err)
		}
		return 1
	}
	return 0
}

func loadCatalog(path string, logger *slog.Logger) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded catalog", "path", path, "groups", len(cat.Groups()), "nicknames", cat.Nicknames())
	return cat, nil
}
