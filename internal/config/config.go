// Package config loads run configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/csete/gpredict/internal/tle"
)

// Config holds the settings for one run.
type Config struct {
	InDir         string
	TmpDir        string
	OutDir        string
	AggregateName string

	URLPrefix    string
	AmsatURL     string
	AmsatGroup   string
	FetchTimeout time.Duration
	SkipFetch    bool

	CatalogFile string
	MetricsFile string
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		InDir:         "./in",
		TmpDir:        "./tmp",
		OutDir:        "./out",
		AggregateName: "satellites.dat",
		URLPrefix:     tle.DefaultURLPrefix,
		AmsatURL:      tle.DefaultAmsatURL,
		AmsatGroup:    "amateur",
		FetchTimeout:  30 * time.Second,
	}
}

// LoadDotenv loads the named files, or .env in the working directory when
// none are given. Variables already set in the environment take precedence.
// A missing file is not an error.
func LoadDotenv(filenames ...string) error {
	err := godotenv.Load(filenames...)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading dotenv: %w", err)
}

// Load reads SATDATA_* variables over the defaults. Invalid values are
// logged and the default is kept.
func Load(logger *slog.Logger) Config {
	cfg := Defaults()

	stringVar(&cfg.InDir, "SATDATA_IN_DIR")
	stringVar(&cfg.TmpDir, "SATDATA_TMP_DIR")
	stringVar(&cfg.OutDir, "SATDATA_OUT_DIR")
	stringVar(&cfg.AggregateName, "SATDATA_AGGREGATE_NAME")
	stringVar(&cfg.URLPrefix, "SATDATA_URL_PREFIX")
	stringVar(&cfg.AmsatURL, "SATDATA_AMSAT_URL")
	stringVar(&cfg.AmsatGroup, "SATDATA_AMSAT_GROUP")
	stringVar(&cfg.CatalogFile, "SATDATA_CATALOG_FILE")
	stringVar(&cfg.MetricsFile, "SATDATA_METRICS_FILE")

	if v := os.Getenv("SATDATA_FETCH_TIMEOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SATDATA_FETCH_TIMEOUT value, using default", "value", v, "default", 30)
		} else {
			cfg.FetchTimeout = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("SATDATA_SKIP_FETCH"); v != "" {
		skip, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid SATDATA_SKIP_FETCH value, defaulting to false", "value", v)
		} else {
			cfg.SkipFetch = skip
		}
	}

	logger.Info("satdata config",
		"in_dir", cfg.InDir,
		"tmp_dir", cfg.TmpDir,
		"out_dir", cfg.OutDir,
		"aggregate", cfg.AggregateName,
		"url_prefix", cfg.URLPrefix,
		"amsat_url", cfg.AmsatURL,
		"fetch_timeout_seconds", cfg.FetchTimeout.Seconds(),
		"skip_fetch", cfg.SkipFetch,
		"catalog_file", cfg.CatalogFile,
	)

	return cfg
}

func stringVar(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
