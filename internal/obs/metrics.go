package obs

import "sync"

// Label is a key/value pair attached to measurements.
type Label struct {
	Key   string
	Value string
}

// Meter is a very small interface for emitting counters/histograms.
// Implementations may no-op or bridge to a metrics system.
type Meter interface {
	Counter(name string, value float64, labels ...Label)
	Histogram(name string, value float64, labels ...Label)
}

// NopMeter is a Meter that discards all measurements.
type NopMeter struct{}

func (NopMeter) Counter(name string, value float64, labels ...Label)   {}
func (NopMeter) Histogram(name string, value float64, labels ...Label) {}

// CountMeter accumulates counter totals in memory, keyed by name only.
// Useful for tests and for end-of-run summaries in CLI tools.
type CountMeter struct {
	mu     sync.Mutex
	counts map[string]float64
}

func NewCountMeter() *CountMeter {
	return &CountMeter{counts: make(map[string]float64)}
}

func (m *CountMeter) Counter(name string, value float64, labels ...Label) {
	m.mu.Lock()
	m.counts[name] += value
	m.mu.Unlock()
}

func (m *CountMeter) Histogram(name string, value float64, labels ...Label) {}

// Count returns the accumulated total for name.
func (m *CountMeter) Count(name string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}
