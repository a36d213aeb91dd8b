// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline: parse volume, classification outcomes by rule, and import timing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/streamcat/stream-catalog/internal/catalog"
)

var (
	// EntriesParsed counts playlist entries successfully parsed.
	EntriesParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamcat_playlist_entries_parsed_total",
		Help: "Total playlist entries parsed across all imports",
	})

	// ItemsClassified counts classified items by content type and matched rule.
	ItemsClassified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamcat_items_classified_total",
		Help: "Total items classified, by content type and matching rule",
	}, []string{"type", "rule"})

	// EntriesSkipped counts entries dropped during classification.
	EntriesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamcat_entries_skipped_total",
		Help: "Total entries skipped during classification, by reason",
	}, []string{"reason"})

	// ImportDuration observes wall time of full playlist imports.
	ImportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "streamcat_import_duration_seconds",
		Help:    "Duration of full playlist import runs",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	// SeriesGroups tracks the number of series groups in the current catalog.
	SeriesGroups = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "streamcat_series_groups",
		Help: "Number of series groups in the current catalog",
	})

	// CatalogItems tracks the catalog size by content type.
	CatalogItems = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "streamcat_catalog_items",
		Help: "Items in the current catalog, by content type",
	}, []string{"type"})

	// StaleServes counts refreshes that fell back to a cached playlist copy.
	StaleServes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamcat_playlist_stale_serves_total",
		Help: "Refreshes that served a cached playlist after a fetch failure",
	})
)

// ObserveImport records one import run.
func ObserveImport(start time.Time, entries int) {
	ImportDuration.Observe(time.Since(start).Seconds())
	EntriesParsed.Add(float64(entries))
}

// SetCatalogSize updates the catalog gauges from a snapshot.
func SetCatalogSize(movies, series, live, groups int) {
	CatalogItems.WithLabelValues(string(catalog.TypeMovie)).Set(float64(movies))
	CatalogItems.WithLabelValues(string(catalog.TypeSeries)).Set(float64(series))
	CatalogItems.WithLabelValues(string(catalog.TypeLive)).Set(float64(live))
	SeriesGroups.Set(float64(groups))
}

// Recorder feeds classification diagnostics into the counters above. It
// satisfies catalog.Observer.
type Recorder struct{}

func (Recorder) ItemClassified(item catalog.Item, rule string) {
	ItemsClassified.WithLabelValues(string(item.Type), rule).Inc()
}

func (Recorder) EntrySkipped(name, reason string) {
	EntriesSkipped.WithLabelValues(reason).Inc()
}
