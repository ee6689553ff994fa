package server

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

const latencyWindow = 100

// Metrics tracks request and error counts plus a rolling latency window
// for the running server.
type Metrics struct {
	mu        sync.Mutex
	requests  int64
	errors    int64
	latencies []float64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// Record adds one request observation.
func (m *Metrics) Record(latencyMs float64, isError bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests++
	if isError {
		m.errors++
	}
	m.latencies = append(m.latencies, latencyMs)
	if len(m.latencies) > latencyWindow {
		m.latencies = m.latencies[len(m.latencies)-latencyWindow:]
	}
}

// snapshot returns the current counters and p95 latency, resetting the
// delta counters.
func (m *Metrics) snapshot() (requests, errors int64, p95 float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	requests = m.requests
	errors = m.errors

	if len(m.latencies) > 0 {
		sorted := make([]float64, len(m.latencies))
		copy(sorted, m.latencies)
		sort.Float64s(sorted)
		idx := int(float64(len(sorted)) * 0.95)
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		p95 = sorted[idx]
	}

	m.requests = 0
	m.errors = 0
	m.latencies = m.latencies[:0]
	return requests, errors, p95
}

// Report logs a metrics snapshot every interval until ctx is cancelled.
// Idle intervals are skipped.
func (m *Metrics) Report(ctx context.Context, logger *zap.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			requests, errors, p95 := m.snapshot()
			if requests == 0 && errors == 0 {
				continue
			}
			logger.Info("request metrics",
				zap.Int64("requests", requests),
				zap.Int64("errors", errors),
				zap.Float64("p95_latency_ms", p95))
		}
	}
}
