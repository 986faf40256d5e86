package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"beautywiz/internal/metrics"
)

// readCounterValue reads the current value of a Counter.
func readCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Counter.Write() error = %v", err)
	}
	if m.GetCounter() == nil {
		t.Fatalf("metric did not contain Counter value")
	}
	return m.GetCounter().GetValue()
}

// readSummaryCountSum reads sample count and sum from a SummaryVec.
func readSummaryCountSum(t *testing.T, v *prometheus.SummaryVec, labels ...string) (uint64, float64) {
	t.Helper()

	m := &dto.Metric{}
	metric, ok := v.WithLabelValues(labels...).(prometheus.Metric)
	if !ok {
		t.Fatalf("SummaryVec.WithLabelValues(...) does not implement prometheus.Metric")
	}
	if err := metric.Write(m); err != nil {
		t.Fatalf("Summary.Write() error = %v", err)
	}
	s := m.GetSummary()
	if s == nil {
		t.Fatalf("metric did not contain Summary value")
	}
	return s.GetSampleCount(), s.GetSampleSum()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		jobName     string
		gatewayURL  string
		wantErr     bool
		wantJobName string
	}{
		{name: "missing gateway URL returns error", jobName: "nightly", wantErr: true},
		{name: "empty job name uses default", gatewayURL: "http://pushgateway:9091", wantJobName: "beautywiz"},
		{name: "explicit job name is preserved", jobName: "nightly", gatewayURL: "http://pushgateway:9091", wantJobName: "nightly"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := NewBackend(tt.jobName, tt.gatewayURL)
			if tt.wantErr {
				if err == nil || b != nil {
					t.Fatalf("NewBackend(%q, %q) = %v, %v; want nil, error", tt.jobName, tt.gatewayURL, b, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend(%q, %q) error = %v", tt.jobName, tt.gatewayURL, err)
			}
			if b.jobName != tt.wantJobName {
				t.Fatalf("jobName = %q, want %q", b.jobName, tt.wantJobName)
			}
			if b.phaseCounter == nil || b.phaseDuration == nil || b.rowCounter == nil {
				t.Fatalf("collectors not initialized: %+v", b)
			}
		})
	}
}

func TestRoutesThroughMetricsHelpers(t *testing.T) {
	// Installs a global backend; not parallel.
	b, err := NewBackend("beautywiz", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	metrics.SetBackend(b)

	metrics.RecordPhase("beautywiz", "hazards", false, nil, 1500*time.Millisecond)
	metrics.RecordRows("beautywiz", "hazards", "written", 4)
	b.IncCounter("unknown_metric", 10, metrics.Labels{"phase": "hazards", "kind": "written"})

	if got := readCounterValue(t, b.phaseCounter.WithLabelValues("hazards", "success")); got != 1 {
		t.Fatalf("phase counter = %v, want 1", got)
	}
	if got := readCounterValue(t, b.rowCounter.WithLabelValues("hazards", "written")); got != 4 {
		t.Fatalf("row counter = %v, want 4", got)
	}
	count, sum := readSummaryCountSum(t, b.phaseDuration, "hazards", "success")
	if count != 1 || sum != 1.5 {
		t.Fatalf("summary = %d samples, sum %v; want 1, 1.5", count, sum)
	}
}

// TestNilCollectors ensures a zero-value backend ignores updates.
func TestNilCollectors(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.PhaseTotal, 1, metrics.Labels{"phase": "p", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 1, metrics.Labels{"phase": "p", "kind": "read"})
	b.ObserveHistogram(metrics.PhaseDurationSeconds, 1, metrics.Labels{})
}

// TestFlush verifies Flush pushes to the Pushgateway job group.
func TestFlush(t *testing.T) {
	t.Parallel()

	type pushRequest struct {
		method  string
		path    string
		bodyLen int
	}
	reqCh := make(chan pushRequest, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, _ := io.ReadAll(r.Body)
		reqCh <- pushRequest{method: r.Method, path: r.URL.Path, bodyLen: len(body)}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	b, err := NewBackend("nightly", server.URL)
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	b.IncCounter(metrics.PhaseTotal, 1, metrics.Labels{"phase": "products", "status": "success"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	var got pushRequest
	select {
	case got = <-reqCh:
	default:
		t.Fatalf("Flush() did not send a request to the Pushgateway")
	}
	if got.method != http.MethodPut {
		t.Fatalf("method = %q, want PUT", got.method)
	}
	if !strings.Contains(got.path, "/job/nightly") {
		t.Fatalf("path = %q, want job grouping key", got.path)
	}
	if got.bodyLen == 0 {
		t.Fatalf("push body is empty")
	}
}
