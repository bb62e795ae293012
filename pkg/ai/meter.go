package ai

import "sync"

// Meter accumulates ModelMetrics across concurrent requests. Clients embed
// it to provide ResetMetrics and GetMetrics.
type Meter struct {
	mu      sync.Mutex
	metrics ModelMetrics
}

// ResetMetrics clears the accumulated metrics.
func (m *Meter) ResetMetrics() {
	m.mu.Lock()
	m.metrics = ModelMetrics{}
	m.mu.Unlock()
}

// GetMetrics returns the metrics accumulated since the last reset.
func (m *Meter) GetMetrics() ModelMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.metrics
}

// Record adds one request's usage.
func (m *Meter) Record(usage ModelMetrics) {
	m.mu.Lock()
	m.metrics.Add(usage)
	m.mu.Unlock()
}
