package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/makolaconnect/makola"
)

type fakeSource struct {
	snapshot makola.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() makola.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                    { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewFromSource(fakeSource{
		snapshot: makola.NewMetrics(makola.MetricsConfig{}).Snapshot(),
	})
	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderIncludesCountersAndHistogram(t *testing.T) {
	exp := NewFromSource(fakeSource{
		snapshot: makola.MetricsSnapshot{
			Counters: map[makola.MetricID]uint64{
				makola.MetricLoginSuccess:       7,
				makola.MetricGuardRedirectLogin: 3,
			},
			Histograms: map[makola.MetricID][]uint64{
				makola.MetricPersistLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
			HistogramSums: map[makola.MetricID]time.Duration{
				makola.MetricPersistLatency: 1500 * time.Millisecond,
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	for _, want := range []string{
		"# TYPE makola_login_success_total counter",
		"makola_login_success_total 7",
		"makola_guard_redirect_login_total 3",
		"makola_logout_total 0",
		`makola_session_persist_latency_seconds_bucket{le="0.001"} 1`,
		`makola_session_persist_latency_seconds_bucket{le="+Inf"} 36`,
		"makola_session_persist_latency_seconds_count 36",
		"makola_session_persist_latency_seconds_sum 1.5",
		"makola_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewFromSource(fakeSource{
		snapshot: makola.MetricsSnapshot{
			Counters:   map[makola.MetricID]uint64{makola.MetricLogout: 1},
			Histograms: map[makola.MetricID][]uint64{},
		},
	})

	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

type liveFakeSource struct {
	fakeSource
	live int
}

func (f liveFakeSource) LiveSessions() int { return f.live }

func TestRenderLiveClientsGaugeWhenSourceTracksSessions(t *testing.T) {
	snapshot := makola.MetricsSnapshot{
		Counters:   map[makola.MetricID]uint64{makola.MetricLogout: 1},
		Histograms: map[makola.MetricID][]uint64{},
	}

	out := NewFromSource(liveFakeSource{fakeSource: fakeSource{snapshot: snapshot}, live: 4}).Render()
	if !strings.Contains(out, "# TYPE makola_session_live_clients gauge\nmakola_session_live_clients 4\n") {
		t.Fatalf("expected live clients gauge, got:\n%s", out)
	}

	out = NewFromSource(fakeSource{snapshot: snapshot}).Render()
	if strings.Contains(out, "makola_session_live_clients") {
		t.Fatalf("plain sources must not emit the gauge, got:\n%s", out)
	}
}

func TestRenderLatencySumFromRecordedObservations(t *testing.T) {
	m := makola.NewMetrics(makola.MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Observe(makola.MetricPersistLatency, 2*time.Millisecond)
	m.Observe(makola.MetricPersistLatency, 250*time.Millisecond)

	out := NewFromSource(fakeSource{snapshot: m.Snapshot()}).Render()
	for _, want := range []string{
		`makola_session_persist_latency_seconds_bucket{le="0.0025"} 1`,
		"makola_session_persist_latency_seconds_sum 0.252",
		"makola_session_persist_latency_seconds_count 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}
