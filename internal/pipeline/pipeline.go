// Package pipeline runs the conversion passes: fetch every group, convert
// each group's TLE file into individual records and a category file, then
// merge the records into the aggregate file.
//
// A pipeline must not run concurrently with another pipeline using the
// same directories.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/csete/gpredict/internal/catalog"
	"github.com/csete/gpredict/internal/category"
	"github.com/csete/gpredict/internal/metrics"
	"github.com/csete/gpredict/internal/satfile"
	"github.com/csete/gpredict/internal/tle"
)

// AmsatInput is the input file key for the AMSAT composite file.
const AmsatInput = "amsat"

// Config holds the directories and sources a pipeline works with.
type Config struct {
	InDir         string
	TmpDir        string
	OutDir        string
	AggregateName string

	AmsatURL   string
	AmsatGroup string

	// SkipFetch converts the files already present in InDir.
	SkipFetch bool
}

// Pipeline converts TLE files into satellite records.
type Pipeline struct {
	cfg     Config
	catalog *catalog.Catalog
	fetcher *tle.Fetcher
	inputs  *tle.Inputs
	records *satfile.Dir
	logger  *slog.Logger
}

// New creates a Pipeline.
func New(cfg Config, cat *catalog.Catalog, fetcher *tle.Fetcher, logger *slog.Logger) *Pipeline {
	if cfg.AggregateName == "" {
		cfg.AggregateName = "satellites.dat"
	}
	if cfg.AmsatURL == "" {
		cfg.AmsatURL = tle.DefaultAmsatURL
	}
	if cfg.AmsatGroup == "" {
		cfg.AmsatGroup = "amateur"
	}
	return &Pipeline{
		cfg:     cfg,
		catalog: cat,
		fetcher: fetcher,
		inputs:  tle.NewInputs(cfg.InDir),
		records: satfile.NewDir(cfg.TmpDir),
		logger:  logger.With("component", "pipeline"),
	}
}

// GroupError marks a failure confined to one group.
type GroupError struct {
	Group string
	Stage string
	Err   error
}

func (e *GroupError) Error() string {
	return fmt.Sprintf("group %s: %s: %v", e.Group, e.Stage, e.Err)
}

func (e *GroupError) Unwrap() error {
	return e.Err
}

// GroupStats counts the outcome of converting one group.
type GroupStats struct {
	Records int
	Skipped int
}

// Summary describes a completed run.
type Summary struct {
	Groups   int
	Failed   []string
	Records  int
	Skipped  int
	Sections int
}

// AggregatePath returns the path of the aggregate file.
func (p *Pipeline) AggregatePath() string {
	return filepath.Join(p.cfg.OutDir, p.cfg.AggregateName)
}

// Rebuild fetches and converts every catalog group, writing labeled
// category files, then rebuilds the aggregate file.
//
// Fetch and conversion failures are confined to their group: the group is
// skipped and the returned error joins every *GroupError. An aggregation
// failure is returned as well, wrapped.
func (p *Pipeline) Rebuild(ctx context.Context) (Summary, error) {
	groups := p.catalog.Groups()
	sum := Summary{Groups: len(groups)}
	var errs []error

	failed := make(map[string]bool)
	if !p.cfg.SkipFetch {
		for _, g := range groups {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			if err := p.fetchGroup(ctx, g); err != nil {
				failed[g.Key] = true
				sum.Failed = append(sum.Failed, g.Key)
				errs = append(errs, err)
			}
		}
	}

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if failed[g.Key] {
			continue
		}
		stats, err := p.ConvertGroup(g.Key, g.Label)
		sum.Records += stats.Records
		sum.Skipped += stats.Skipped
		if err != nil {
			p.logger.Error("group conversion failed, skipping", "group", g.Key, "error", err)
			sum.Failed = append(sum.Failed, g.Key)
			errs = append(errs, &GroupError{Group: g.Key, Stage: "convert", Err: err})
		}
	}

	sections, err := p.Aggregate()
	sum.Sections = sections
	if err != nil {
		errs = append(errs, fmt.Errorf("aggregating: %w", err))
	}

	return sum, errors.Join(errs...)
}

// ConvertDir converts every TLE file already present in the input
// directory, naming each category after the file, then rebuilds the
// aggregate file. Category files get no label line.
func (p *Pipeline) ConvertDir(ctx context.Context) (Summary, error) {
	groups, err := p.inputs.Groups()
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Groups: len(groups)}
	var errs []error
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		stats, err := p.ConvertGroup(group, "")
		sum.Records += stats.Records
		sum.Skipped += stats.Skipped
		if err != nil {
			p.logger.Error("group conversion failed, skipping", "group", group, "error", err)
			sum.Failed = append(sum.Failed, group)
			errs = append(errs, &GroupError{Group: group, Stage: "convert", Err: err})
		}
	}

	sections, err := p.Aggregate()
	sum.Sections = sections
	if err != nil {
		errs = append(errs, fmt.Errorf("aggregating: %w", err))
	}

	return sum, errors.Join(errs...)
}

func (p *Pipeline) fetchGroup(ctx context.Context, g catalog.Group) error {
	url := g.URL
	if url == "" {
		url = p.fetcher.GroupURL(g.Key)
	}

	_, err := p.fetcher.Download(ctx, g.Key, url, p.inputs)
	metrics.RecordFetch(g.Key, err)
	if err != nil {
		p.logger.Error("fetch failed, skipping group", "group", g.Key, "url", url, "error", err)
		return &GroupError{Group: g.Key, Stage: "fetch", Err: err}
	}
	return nil
}

// ConvertGroup converts the group's input file: one individual record per
// satellite, overwriting earlier ones, and a new category file listing the
// satellites in input order. A non-empty label heads the category file.
// The category file is only replaced when the whole group converts.
func (p *Pipeline) ConvertGroup(group, label string) (GroupStats, error) {
	var stats GroupStats

	in, err := p.inputs.Open(group)
	if err != nil {
		return stats, err
	}
	defer in.Close()

	catw, err := category.Create(category.Path(p.cfg.OutDir, group), label)
	if err != nil {
		return stats, err
	}

	err = p.eachEntry(group, in, &stats, func(e tle.TLEEntry) error {
		if err := catw.Add(e.CatalogNumber); err != nil {
			return err
		}
		rec := satfile.NewRecord(e, p.catalog.Resolve(e.CatalogNumber, e.Name))
		if err := p.records.Write(rec); err != nil {
			return err
		}
		stats.Records++
		return nil
	})
	if err != nil {
		// Keep the previous category file rather than a partial one.
		catw.Abort()
	} else {
		err = catw.Close()
	}

	metrics.AddRecords(group, stats.Records)
	p.logger.Info("converted group", "group", group, "label", label, "records", stats.Records, "skipped", stats.Skipped)
	return stats, err
}

// AddAmsat fetches the AMSAT composite file and adds the satellites that
// have no individual record yet: their individual records are written so a
// later run skips them, their sections are appended to the aggregate file
// and their catalog numbers to the AMSAT category file.
func (p *Pipeline) AddAmsat(ctx context.Context) (Summary, error) {
	sum := Summary{Groups: 1}
	group := p.cfg.AmsatGroup

	if !p.cfg.SkipFetch {
		_, err := p.fetcher.Download(ctx, AmsatInput, p.cfg.AmsatURL, p.inputs)
		metrics.RecordFetch(AmsatInput, err)
		if err != nil {
			sum.Failed = []string{AmsatInput}
			return sum, &GroupError{Group: AmsatInput, Stage: "fetch", Err: err}
		}
	}

	in, err := p.inputs.Open(AmsatInput)
	if err != nil {
		return sum, err
	}
	defer in.Close()

	catw, err := category.OpenIncremental(category.Path(p.cfg.OutDir, group), p.records)
	if err != nil {
		return sum, err
	}
	app, err := satfile.OpenAppender(p.AggregatePath())
	if err != nil {
		catw.Close()
		return sum, err
	}

	var stats GroupStats
	err = p.eachEntry(AmsatInput, in, &stats, func(e tle.TLEEntry) error {
		known, err := catw.Known(e.CatalogNumber)
		if err != nil {
			return err
		}
		if known {
			stats.Skipped++
			metrics.RecordSkipped(AmsatInput, metrics.ReasonExists)
			return nil
		}

		// The category line goes last so it never lists a satellite
		// without a record.
		p.logger.Info("adding satellite", "catalog_number", e.CatalogNumber, "name", e.Name)
		rec := satfile.NewRecord(e, p.catalog.Resolve(e.CatalogNumber, e.Name))
		if err := p.records.Write(rec); err != nil {
			return err
		}
		if err := app.Append(rec); err != nil {
			return err
		}
		if err := catw.Add(e.CatalogNumber); err != nil {
			return err
		}
		stats.Records++
		return nil
	})
	if closeErr := app.Close(); err == nil {
		err = closeErr
	}
	if closeErr := catw.Close(); err == nil {
		err = closeErr
	}

	metrics.AddRecords(AmsatInput, stats.Records)
	sum.Records = stats.Records
	sum.Skipped = stats.Skipped
	sum.Sections = app.Count()
	p.logger.Info("added AMSAT satellites", "category", group, "added", stats.Records, "skipped", stats.Skipped)

	if err != nil {
		sum.Failed = []string{AmsatInput}
		return sum, &GroupError{Group: AmsatInput, Stage: "convert", Err: err}
	}
	return sum, nil
}

// Aggregate rebuilds the aggregate file from the individual records.
func (p *Pipeline) Aggregate() (int, error) {
	n, err := satfile.Aggregate(p.records, p.AggregatePath())
	if err != nil {
		return 0, err
	}
	metrics.SetAggregateSections(n)
	p.logger.Info("wrote aggregate", "path", p.AggregatePath(), "sections", n)
	return n, nil
}

// eachEntry calls fn for every well-formed record in r. Malformed and
// truncated records are logged, counted in stats and skipped.
func (p *Pipeline) eachEntry(group string, r io.Reader, stats *GroupStats, fn func(tle.TLEEntry) error) error {
	reader := tle.NewReader(r)
	for {
		e, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		var mre *tle.MalformedRecordError
		if errors.As(err, &mre) {
			reason := metrics.ReasonMalformed
			if mre.Truncated {
				reason = metrics.ReasonTruncated
			}
			p.logger.Warn("skipping TLE record", "group", group, "reason", reason, "error", err)
			metrics.RecordSkipped(group, reason)
			stats.Skipped++
			continue
		}
		if err != nil {
			return err
		}

		p.logger.Debug("converting", "group", group, "catalog_number", e.CatalogNumber)
		if err := fn(e); err != nil {
			return err
		}
	}
}
