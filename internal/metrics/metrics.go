// Package metrics records per-run pipeline metrics and writes them in the
// node-exporter textfile format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors for one run. Each run gets its own registry
// so a written textfile only describes that run.
type Metrics struct {
	registry *prometheus.Registry

	StepDuration *prometheus.HistogramVec
	StepTotal    *prometheus.CounterVec
	Chunks       prometheus.Gauge
	VariantTotal *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		StepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bookpipe_step_duration_seconds",
				Help:    "Duration of pipeline steps.",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"step"},
		),
		StepTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookpipe_step_total",
				Help: "Pipeline steps by outcome.",
			},
			[]string{"step", "status"}, // status: ok, skipped, failed
		),
		Chunks: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bookpipe_chunks",
				Help: "Number of chunks written by the last run.",
			},
		),
		VariantTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookpipe_resolve_variant_total",
				Help: "Download candidates located, by page variant and format.",
			},
			[]string{"variant", "format"},
		),
	}
}

func (m *Metrics) ObserveStep(step, status string, d time.Duration) {
	m.StepTotal.WithLabelValues(step, status).Inc()
	if status != "skipped" {
		m.StepDuration.WithLabelValues(step).Observe(d.Seconds())
	}
}

func (m *Metrics) SetChunks(n int) {
	m.Chunks.Set(float64(n))
}

func (m *Metrics) IncVariant(variant, format string) {
	m.VariantTotal.WithLabelValues(variant, format).Inc()
}

// WriteFile writes the registry to path. An empty path is a no-op.
func (m *Metrics) WriteFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
