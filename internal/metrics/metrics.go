// Package metrics records operational metrics for import runs behind a
// small pluggable Backend.
//
// The global backend defaults to a no-op, so instrumentation is always safe
// to call. Concrete systems live in subpackages (prompush, datadog) and are
// installed with SetBackend by the command wiring.
package metrics

import (
	"sync"
	"time"
)

// Metric names emitted by the helpers below.
const (
	PhaseTotal           = "beautywiz_phase_total"
	PhaseDurationSeconds = "beautywiz_phase_duration_seconds"
	RowsTotal            = "beautywiz_rows_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a duration-style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b. Passing nil keeps the current backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordPhase counts one execution of an import phase and observes its
// duration. A phase skipped for missing input reports status "skipped".
func RecordPhase(job, phase string, skipped bool, err error, d time.Duration) {
	status := "success"
	switch {
	case err != nil:
		status = "failure"
	case skipped:
		status = "skipped"
	}

	lbls := Labels{"job": job, "phase": phase, "status": status}
	b := current()
	b.IncCounter(PhaseTotal, 1, lbls)
	b.ObserveHistogram(PhaseDurationSeconds, d.Seconds(), lbls)
}

// RecordRows adds delta to the row counter for a phase. Kinds mirror the
// phase summary: "read", "written", "skipped".
func RecordRows(job, phase, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(delta), Labels{
		"job":   job,
		"phase": phase,
		"kind":  kind,
	})
}
