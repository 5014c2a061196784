package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run metrics
var (
	ImportRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spimport_runs_total",
			Help: "Total number of import runs by source and outcome",
		},
		[]string{"source", "status"},
	)

	ImportRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spimport_run_duration_seconds",
			Help:    "Import run duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"source"},
	)

	ExtractionFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spimport_extraction_failures_total",
			Help: "Total number of source entries that produced no query",
		},
		[]string{"source"},
	)
)

// Search metrics
var (
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spimport_searches_total",
			Help: "Total number of track searches by status",
		},
		[]string{"status"},
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "spimport_search_duration_seconds",
			Help:    "Track search duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	MatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spimport_matches_total",
			Help: "Total number of searched queries by match result",
		},
		[]string{"result"},
	)
)

// Submission metrics
var (
	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spimport_batches_total",
			Help: "Total number of playlist batches by status",
		},
		[]string{"status"},
	)

	TracksAddedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spimport_tracks_added_total",
			Help: "Total number of tracks added to playlists",
		},
	)
)

// Source metrics
var (
	PageFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spimport_page_fetches_total",
			Help: "Total number of web playlist page requests by kind and status",
		},
		[]string{"kind", "status"},
	)
)

// Label values shared by callers.
const (
	StatusOK        = "ok"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)

// Status returns [StatusOK] for a nil error and [StatusError] otherwise.
func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}

// WriteTextfile writes every registered metric to path in the text exposition format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
