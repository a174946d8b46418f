// Package metrics records per-run conversion metrics. The run is a batch
// job, so metrics are written to a file for the node exporter textfile
// collector instead of being served.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Skip reasons used with RecordSkipped.
const (
	ReasonMalformed = "malformed"
	ReasonTruncated = "truncated"
	ReasonExists    = "exists"
)

var (
	registry = prometheus.NewRegistry()

	fetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "satdata_fetch_total",
			Help: "Total number of group fetches by result.",
		},
		[]string{"group", "result"},
	)

	recordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "satdata_records_total",
			Help: "Total number of satellite records written per group.",
		},
		[]string{"group"},
	)

	recordsSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "satdata_records_skipped_total",
			Help: "Total number of input records not written, by reason.",
		},
		[]string{"group", "reason"},
	)

	aggregateSections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "satdata_aggregate_sections",
			Help: "Number of sections written to the aggregate file by the last run.",
		},
	)

	runDurationSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "satdata_run_duration_seconds",
			Help: "Duration of the last run in seconds.",
		},
	)

	lastSuccessTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "satdata_last_success_timestamp_seconds",
			Help: "Unix time of the last run that completed without group failures.",
		},
	)
)

func init() {
	registry.MustRegister(fetchTotal)
	registry.MustRegister(recordsTotal)
	registry.MustRegister(recordsSkippedTotal)
	registry.MustRegister(aggregateSections)
	registry.MustRegister(runDurationSeconds)
	registry.MustRegister(lastSuccessTimestamp)
}

// RecordFetch counts one fetch attempt for group.
func RecordFetch(group string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	fetchTotal.WithLabelValues(group, result).Inc()
}

// AddRecords counts n records written for group.
func AddRecords(group string, n int) {
	recordsTotal.WithLabelValues(group).Add(float64(n))
}

// RecordSkipped counts one input record not written for group.
func RecordSkipped(group, reason string) {
	recordsSkippedTotal.WithLabelValues(group, reason).Inc()
}

// SetAggregateSections sets the section count of the aggregate file.
func SetAggregateSections(n int) {
	aggregateSections.Set(float64(n))
}

// SetRunDuration sets the duration of the run.
func SetRunDuration(d time.Duration) {
	runDurationSeconds.Set(d.Seconds())
}

// SetLastSuccess records the completion time of a clean run.
func SetLastSuccess(t time.Time) {
	lastSuccessTimestamp.Set(float64(t.Unix()))
}

// WriteTextfile writes all metrics in the text exposition format to path.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("writing metrics file: %w", err)
	}
	return nil
}
