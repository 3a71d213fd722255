// File: internal/infra/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	redemptionAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemption_attempts_total",
			Help: "Submissions per terminal outcome.",
		},
		[]string{"outcome"},
	)

	codesScraped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codes_scraped_total",
			Help: "Candidate codes returned per source, before dedup.",
		},
		[]string{"source"},
	)

	scrapeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_errors_total",
			Help: "Failed scrape invocations per source.",
		},
		[]string{"source"},
	)

	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemption_runs_total",
			Help: "Completed runs per result (completed|halted|error).",
		},
		[]string{"result"},
	)

	runDurationSec = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "redemption_run_duration_seconds",
			Help:    "Wall time of one redemption run including pacing delays.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
	)
)

func IncAttempt(outcome string) { redemptionAttempts.WithLabelValues(outcome).Inc() }

func AddScraped(source string, n int) { codesScraped.WithLabelValues(source).Add(float64(n)) }

func IncScrapeError(source string) { scrapeErrors.WithLabelValues(source).Inc() }

func IncRun(result string) { runsTotal.WithLabelValues(result).Inc() }

func ObserveRunDuration(sec float64) { runDurationSec.Observe(sec) }
