// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package. Import runs are short-lived batch jobs, so metrics are
// pushed once at the end of a run instead of being scraped.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"beautywiz/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" grouping key
	reg        *prometheus.Registry

	phaseCounter  *prometheus.CounterVec // beautywiz_phase_total
	phaseDuration *prometheus.SummaryVec // beautywiz_phase_duration_seconds
	rowCounter    *prometheus.CounterVec // beautywiz_rows_total
}

// NewBackend constructs a Pushgateway backend. jobName defaults to
// "beautywiz".
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "beautywiz"
	}

	reg := prometheus.NewRegistry()

	// job is carried by the Pushgateway grouping key, not as a label.
	phaseCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.PhaseTotal,
			Help: "Import phase executions, partitioned by phase and status.",
		},
		[]string{"phase", "status"},
	)
	phaseDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.PhaseDurationSeconds,
			Help:       "Duration of import phases in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"phase", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Rows per phase and kind (read, written, skipped).",
		},
		[]string{"phase", "kind"},
	)

	for name, c := range map[string]prometheus.Collector{
		"phase counter": phaseCounter,
		"phase summary": phaseDuration,
		"row counter":   rowCounter,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}

	return &Backend{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		reg:           reg,
		phaseCounter:  phaseCounter,
		phaseDuration: phaseDuration,
		rowCounter:    rowCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.PhaseTotal:
		if b.phaseCounter == nil {
			return
		}
		b.phaseCounter.WithLabelValues(labels["phase"], labels["status"]).Add(delta)
	case metrics.RowsTotal:
		if b.rowCounter == nil {
			return
		}
		b.rowCounter.WithLabelValues(labels["phase"], labels["kind"]).Add(delta)
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.PhaseDurationSeconds || b.phaseDuration == nil {
		return
	}
	b.phaseDuration.WithLabelValues(labels["phase"], labels["status"]).Observe(value)
}

// Flush pushes the registry to the Pushgateway, replacing the job's group.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
