package prompush

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"tastetrend/internal/metrics"
)

// readCounterValue reads the current value of a Counter for assertions.
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

func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		jobName     string
		gatewayURL  string
		wantErr     bool
		wantJobName string
	}{
		{
			name:       "missing gateway URL returns error",
			jobName:    "reviews",
			gatewayURL: "",
			wantErr:    true,
		},
		{
			name:        "empty job name uses default",
			jobName:     "",
			gatewayURL:  "http://pushgateway:9091",
			wantJobName: "tastetrend",
		},
		{
			name:        "explicit job name is preserved",
			jobName:     "reviews_nightly",
			gatewayURL:  "http://pushgateway:9091",
			wantJobName: "reviews_nightly",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := NewBackend(tt.jobName, tt.gatewayURL)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewBackend(%q, %q) error = nil, want non-nil", tt.jobName, tt.gatewayURL)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend error: %v", err)
			}
			if b.jobName != tt.wantJobName {
				t.Errorf("jobName = %q, want %q", b.jobName, tt.wantJobName)
			}
			if b.gatewayURL != tt.gatewayURL {
				t.Errorf("gatewayURL = %q, want %q", b.gatewayURL, tt.gatewayURL)
			}

			// Label cardinality sanity: these must not panic.
			b.stageCounter.WithLabelValues("dedup", "success").Add(1)
			b.stageDuration.WithLabelValues("normalize", "failure").Observe(0.5)
			b.rowCounter.WithLabelValues("read").Add(1)
		})
	}
}

func TestIncCounter_Routing(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("job", "http://pushgateway:9091")
	if err != nil {
		t.Fatalf("NewBackend error: %v", err)
	}

	b.IncCounter("reviews_stage_total", 3, metrics.Labels{"stage": "dedup", "status": "success"})
	if got := readCounterValue(t, b.stageCounter.WithLabelValues("dedup", "success")); got != 3 {
		t.Errorf("stage counter = %v, want 3", got)
	}

	b.IncCounter("reviews_rows_total", 5, metrics.Labels{"kind": "written"})
	if got := readCounterValue(t, b.rowCounter.WithLabelValues("written")); got != 5 {
		t.Errorf("row counter = %v, want 5", got)
	}

	// Unknown names are ignored.
	b.IncCounter("unknown_metric", 1, nil)
	b.ObserveDuration("unknown_metric", 1, nil)
}

func TestFlush_PushesToGateway(t *testing.T) {
	t.Parallel()

	var pushed int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pushed++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("job", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend error: %v", err)
	}
	b.IncCounter("reviews_rows_total", 1, metrics.Labels{"kind": "read"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if pushed == 0 {
		t.Errorf("no push request reached the gateway")
	}
}
