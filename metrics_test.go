package makola

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 16
	const perG = 2000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricGuardRender)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricGuardRender); got != goroutines*perG {
		t.Fatalf("expected %d, got %d", goroutines*perG, got)
	}
}

func TestMetricsLatencyBuckets(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	for _, d := range []time.Duration{
		500 * time.Microsecond,
		2 * time.Millisecond,
		4 * time.Millisecond,
		8 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
		80 * time.Millisecond,
		time.Second,
	} {
		m.Observe(MetricPersistLatency, d)
	}
	m.Observe(MetricLoginSuccess, time.Millisecond)

	buckets := m.Snapshot().Histograms[MetricPersistLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(buckets))
	}
	for i, n := range buckets {
		if n != 1 {
			t.Fatalf("bucket %d: expected 1, got %d", i, n)
		}
	}
	if _, ok := m.Snapshot().Counters[MetricPersistLatency]; ok {
		t.Fatal("histogram must not appear as a counter")
	}
	want := 1154500 * time.Microsecond
	if got := m.Snapshot().HistogramSums[MetricPersistLatency]; got != want {
		t.Fatalf("expected latency sum %v, got %v", want, got)
	}
}

func TestMetricsLatencyDisabled(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Observe(MetricPersistLatency, time.Millisecond)
	if _, ok := m.Snapshot().Histograms[MetricPersistLatency]; ok {
		t.Fatal("expected no histogram when latency is disabled")
	}
}
