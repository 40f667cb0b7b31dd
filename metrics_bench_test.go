package makola

import (
	"testing"
	"time"
)

var guardHotMetricIDs = [...]MetricID{
	MetricGuardRender,
	MetricGuardRender,
	MetricGuardRender,
	MetricGuardRedirectLogin,
	MetricGuardRedirectRole,
	MetricHydrateRestored,
	MetricHydrateEmpty,
	MetricLoginSuccess,
}

func BenchmarkMetricsInc(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		m.Inc(MetricGuardRender)
	}
}

func BenchmarkMetricsIncDisabled(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		m.Inc(MetricGuardRender)
	}
}

func BenchmarkMetricsIncGuardMixParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		idx := 0
		for pb.Next() {
			m.Inc(guardHotMetricIDs[idx])
			idx = (idx + 1) % len(guardHotMetricIDs)
		}
	})
}

func BenchmarkMetricsObservePersistLatencyParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	d := 3 * time.Millisecond
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Observe(MetricPersistLatency, d)
		}
	})
}

func BenchmarkMetricsSnapshot(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	for _, id := range guardHotMetricIDs {
		m.Inc(id)
	}
	m.Observe(MetricPersistLatency, time.Millisecond)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = m.Snapshot()
	}
}
