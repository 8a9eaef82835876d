// Package metrics records the outcome of one conversion run with Prometheus
// collectors and exports them as a textfile for node_exporter's textfile
// collector, which suits a job that exits after every run.
//
// Metrics:
//
//	stremio2m3u_channels_written            gauge: entries in the written playlist
//	stremio2m3u_catalogs_fetched            gauge: catalogs listed successfully
//	stremio2m3u_catalogs_failed             gauge: catalogs that failed and were skipped
//	stremio2m3u_items_skipped               gauge: items without a usable stream URL
//	stremio2m3u_last_run_success            gauge: 1 if the run wrote a playlist
//	stremio2m3u_last_run_timestamp_seconds  gauge: unix time the run finished
//	stremio2m3u_run_duration_seconds        gauge: wall time of the run
//	stremio2m3u_run_failures                gauge: 1 for the stage that failed
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"stremio2m3u/pkg/apperr"
)

// Run holds the collectors for a single run on a private registry.
type Run struct {
	registry *prometheus.Registry
	started  time.Time

	ChannelsWritten prometheus.Gauge
	CatalogsFetched prometheus.Gauge
	CatalogsFailed  prometheus.Gauge
	ItemsSkipped    prometheus.Gauge
	success         prometheus.Gauge
	timestamp       prometheus.Gauge
	duration        prometheus.Gauge
	failures        *prometheus.GaugeVec
}

// NewRun registers the run collectors and starts the clock.
func NewRun() *Run {
	r := &Run{
		registry: prometheus.NewRegistry(),
		started:  time.Now(),
		ChannelsWritten: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stremio2m3u_channels_written",
			Help: "Entries in the last written playlist.",
		}),
		CatalogsFetched: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stremio2m3u_catalogs_fetched",
			Help: "Catalogs listed successfully in the last run.",
		}),
		CatalogsFailed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stremio2m3u_catalogs_failed",
			Help: "Catalogs that failed and were skipped in the last run.",
		}),
		ItemsSkipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stremio2m3u_items_skipped",
			Help: "Catalog items without a usable stream URL in the last run.",
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stremio2m3u_last_run_success",
			Help: "1 if the last run wrote a playlist, 0 otherwise.",
		}),
		timestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stremio2m3u_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stremio2m3u_run_duration_seconds",
			Help: "Wall time of the last run in seconds.",
		}),
		failures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stremio2m3u_run_failures",
			Help: "1 for the stage the last run failed in.",
		}, []string{"stage"}),
	}

	r.registry.MustRegister(
		r.ChannelsWritten,
		r.CatalogsFetched,
		r.CatalogsFailed,
		r.ItemsSkipped,
		r.success,
		r.timestamp,
		r.duration,
		r.failures,
	)
	for _, s := range []apperr.Stage{apperr.StageConfig, apperr.StageNetwork, apperr.StageParse, apperr.StageWrite} {
		r.failures.WithLabelValues(string(s)).Set(0)
	}
	return r
}

// Finish records the outcome. err is the run error, nil on success.
func (r *Run) Finish(err error) {
	now := time.Now()
	r.timestamp.Set(float64(now.Unix()))
	r.duration.Set(now.Sub(r.started).Seconds())
	if err == nil {
		r.success.Set(1)
		return
	}
	r.success.Set(0)
	stage, ok := apperr.StageOf(err)
	if !ok {
		stage = "unknown"
	}
	r.failures.WithLabelValues(string(stage)).Set(1)
}

// WriteFile exports the registry in the Prometheus text format.
func (r *Run) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

// Gatherer exposes the registry, e.g. for tests or a push client.
func (r *Run) Gatherer() prometheus.Gatherer {
	return r.registry
}
