package datadog

import (
	"reflect"
	"testing"

	"beautywiz/internal/metrics"
)

type call struct {
	kind  string
	name  string
	value float64
	tags  []string
}

type fakeClient struct {
	calls   []call
	flushed bool
	closed  bool
}

func (f *fakeClient) Count(name string, value int64, tags []string, _ float64) error {
	f.calls = append(f.calls, call{"count", name, float64(value), tags})
	return nil
}

func (f *fakeClient) Histogram(name string, value float64, tags []string, _ float64) error {
	f.calls = append(f.calls, call{"histogram", name, value, tags})
	return nil
}

func (f *fakeClient) Flush() error { f.flushed = true; return nil }
func (f *fakeClient) Close() error { f.closed = true; return nil }

func TestNewBackend_RequiresAddr(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend(Config{}); err == nil {
		t.Fatalf("expected error for empty Addr")
	}
}

func TestNewBackend_UDP(t *testing.T) {
	t.Parallel()

	b, err := NewBackend(Config{Addr: "127.0.0.1:8125", Namespace: "beautywiz.", GlobalTags: []string{"env:test"}})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestBackendForwardsWithTags(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	b := &Backend{client: fc}

	lbls := metrics.Labels{"phase": "link", "job": "beautywiz", "status": "success"}
	b.IncCounter(metrics.PhaseTotal, 1, lbls)
	b.ObserveHistogram(metrics.PhaseDurationSeconds, 0.25, lbls)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	wantTags := []string{"job:beautywiz", "phase:link", "status:success"}
	want := []call{
		{"count", metrics.PhaseTotal, 1, wantTags},
		{"histogram", metrics.PhaseDurationSeconds, 0.25, wantTags},
	}
	if !reflect.DeepEqual(fc.calls, want) {
		t.Fatalf("calls = %+v, want %+v", fc.calls, want)
	}
	if !fc.flushed || !fc.closed {
		t.Fatalf("Flush should flush and close the client")
	}
}

func TestNilClient(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter("x", 1, nil)
	b.ObserveHistogram("x", 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}
