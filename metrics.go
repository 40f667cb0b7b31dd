package makola

import (
	"sync/atomic"
	"time"
)

// MetricID names one engine counter or histogram.
type MetricID uint16

const (
	MetricHydrateRestored MetricID = iota
	MetricHydrateEmpty
	MetricHydratePurged
	MetricLoginSuccess
	MetricLoginFailure
	MetricLoginThrottled
	MetricLogout
	MetricPersistFailure
	MetricGuardRender
	MetricGuardRedirectLogin
	MetricGuardRedirectRole
	MetricUploadSuccess
	MetricUploadFailure
	MetricMediaDeleted
	// MetricPersistLatency is the only histogram: latency of every
	// persistence read, write and remove.
	MetricPersistLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets  [histBucketCount]uint64
	sumNanos uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters and one latency histogram. A nil or
// disabled Metrics ignores every call.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all metrics. Histogram buckets
// are non-cumulative; HistogramSums holds the total observed duration.
type MetricsSnapshot struct {
	Counters      map[MetricID]uint64
	Histograms    map[MetricID][]uint64
	HistogramSums map[MetricID]time.Duration
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the persistence latency histogram. Other ids are
// ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricPersistLatency {
		return
	}
	h := &m.histograms[id]
	atomic.AddUint64(&h.buckets[bucketIndex(d)], 1)
	atomic.AddUint64(&h.sumNanos, uint64(max(d, 0)))
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:      map[MetricID]uint64{},
			Histograms:    map[MetricID][]uint64{},
			HistogramSums: map[MetricID]time.Duration{},
		}
	}

	s := MetricsSnapshot{
		Counters:      make(map[MetricID]uint64, int(metricIDCount)),
		Histograms:    make(map[MetricID][]uint64, 1),
		HistogramSums: make(map[MetricID]time.Duration, 1),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricPersistLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := range buckets {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricPersistLatency].buckets[i])
		}
		s.Histograms[MetricPersistLatency] = buckets
		s.HistogramSums[MetricPersistLatency] = time.Duration(atomic.LoadUint64(&m.histograms[MetricPersistLatency].sumNanos))
	}
	return s
}

// bucketIndex maps d onto the upper bounds 1, 2.5, 5, 10, 25, 50, 100 ms and
// +Inf. Redis round trips sit in the low buckets.
func bucketIndex(d time.Duration) int {
	switch {
	case d <= time.Millisecond:
		return 0
	case d <= 2500*time.Microsecond:
		return 1
	case d <= 5*time.Millisecond:
		return 2
	case d <= 10*time.Millisecond:
		return 3
	case d <= 25*time.Millisecond:
		return 4
	case d <= 50*time.Millisecond:
		return 5
	case d <= 100*time.Millisecond:
		return 6
	default:
		return 7
	}
}
