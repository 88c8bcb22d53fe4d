package logging

import "sync"

// Metrics keeps named telemetry counters and gauges for the diagnostics
// surface. Writers are simulation goroutines, readers are HTTP handlers.
type Metrics struct {
	mu       sync.RWMutex
	counters map[string]uint64
	gauges   map[string]uint64
}

func NewMetrics() *Metrics {
	return &Metrics{
		counters: make(map[string]uint64),
		gauges:   make(map[string]uint64),
	}
}

// TelemetryAdd increments a named counter.
func (m *Metrics) TelemetryAdd(key string, delta uint64) {
	if m == nil || key == "" {
		return
	}
	m.mu.Lock()
	m.counters[key] += delta
	m.mu.Unlock()
}

// TelemetryStore overwrites a named gauge.
func (m *Metrics) TelemetryStore(key string, value uint64) {
	if m == nil || key == "" {
		return
	}
	m.mu.Lock()
	m.gauges[key] = value
	m.mu.Unlock()
}

// MetricsSnapshot is a point-in-time copy of every counter and gauge.
type MetricsSnapshot struct {
	Counters map[string]uint64 `json:"counters"`
	Gauges   map[string]uint64 `json:"gauges"`
}

// Snapshot copies the current values for serialization.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snapshot := MetricsSnapshot{
		Counters: make(map[string]uint64),
		Gauges:   make(map[string]uint64),
	}
	if m == nil {
		return snapshot
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for k, v := range m.counters {
		snapshot.Counters[k] = v
	}
	for k, v := range m.gauges {
		snapshot.Gauges[k] = v
	}
	return snapshot
}
