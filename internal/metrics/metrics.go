// Package metrics records analysis runs in a Prometheus registry and exports them
// in the text exposition format for node-exporter's textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/KaramelBytes/aerofit-cli/internal/analysis"
)

// Recorder holds the metrics of one CLI invocation.
type Recorder struct {
	reg      *prometheus.Registry
	records  *prometheus.GaugeVec
	outliers *prometheus.GaugeVec
	runs     *prometheus.CounterVec
	latency  prometheus.Histogram
	lastRun  prometheus.Gauge
}

// New creates a recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aerofit_records",
			Help: "Records in the last analyzed dataset, by product.",
		}, []string{"dataset", "product"}),
		outliers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aerofit_outliers_flagged",
			Help: "Records flagged by the IQR rule, by product and column.",
		}, []string{"dataset", "product", "column"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aerofit_analyses_total",
			Help: "Datasets analyzed, by result.",
		}, []string{"result"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "aerofit_analysis_duration_seconds",
			Help:    "Time to load and analyze one dataset.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aerofit_last_run_timestamp_seconds",
			Help: "Unix time of the last completed analysis.",
		}),
	}
	r.reg.MustRegister(r.records, r.outliers, r.runs, r.latency, r.lastRun)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Observe records a successful analysis.
func (r *Recorder) Observe(rep *analysis.Report, elapsed time.Duration) {
	for _, g := range rep.Profile.Groups {
		r.records.WithLabelValues(rep.Name, string(g.Product)).Set(float64(g.Count))
	}
	if rep.Outliers != nil {
		for _, s := range rep.Outliers.Sets {
			r.outliers.WithLabelValues(rep.Name, string(s.Product), string(s.Column)).Set(float64(s.Flagged.GetCardinality()))
		}
	}
	r.runs.WithLabelValues("ok").Inc()
	r.latency.Observe(elapsed.Seconds())
	r.lastRun.SetToCurrentTime()
}

// Failed counts an analysis that did not complete.
func (r *Recorder) Failed() {
	r.runs.WithLabelValues("error").Inc()
}

// WriteFile writes the registry to path atomically.
func (r *Recorder) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
