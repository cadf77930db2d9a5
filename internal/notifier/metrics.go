package notifier

import (
	"sync/atomic"
	"time"
)

type serviceMetrics struct {
	dispatched      atomic.Int64
	failed          atomic.Int64
	totalDurationNs atomic.Int64
	startedNs       atomic.Int64
}

func newServiceMetrics() *serviceMetrics {
	m := &serviceMetrics{}
	m.startedNs.Store(time.Now().UnixNano())
	return m
}

func (m *serviceMetrics) recordSuccess(d time.Duration) {
	m.dispatched.Add(1)
	m.totalDurationNs.Add(int64(d))
}

func (m *serviceMetrics) recordFailure() {
	m.failed.Add(1)
}

func (m *serviceMetrics) snapshot() map[string]interface{} {
	dispatched := m.dispatched.Load()
	elapsed := time.Since(time.Unix(0, m.startedNs.Load())).Seconds()

	rate := 0.0
	if elapsed > 0 {
		rate = float64(dispatched) / elapsed
	}
	avg := time.Duration(0)
	if dispatched > 0 {
		avg = time.Duration(m.totalDurationNs.Load() / dispatched)
	}

	return map[string]interface{}{
		"dispatched":      dispatched,
		"failed":          m.failed.Load(),
		"rate_per_second": rate,
		"avg_duration_ms": avg.Milliseconds(),
		"uptime_seconds":  elapsed,
	}
}
