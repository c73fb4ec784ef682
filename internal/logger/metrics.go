package logger

import (
	"sync"
	"time"
)

// Metrics tracks counters and timings for a run. Safe for concurrent use.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
	timings  map[string][]time.Duration
}

var defaultMetrics = NewMetrics()

// NewMetrics creates an empty tracker
func NewMetrics() *Metrics {
	return &Metrics{
		counters: make(map[string]int64),
		timings:  make(map[string][]time.Duration),
	}
}

// IncrCounter adds 1 to a counter
func (m *Metrics) IncrCounter(name string) {
	m.AddCounter(name, 1)
}

// AddCounter adds n to a counter
func (m *Metrics) AddCounter(name string, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] += n
}

// Counter returns the current value of a counter
func (m *Metrics) Counter(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

// RecordTiming records one duration sample
func (m *Metrics) RecordTiming(name string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timings[name] = append(m.timings[name], d)
}

// Summary returns counters and per-timing count/total/average/min/max as log fields
func (m *Metrics) Summary() Fields {
	m.mu.Lock()
	defer m.mu.Unlock()

	counters := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		counters[k] = v
	}

	timings := make(map[string]map[string]interface{}, len(m.timings))
	for name, samples := range m.timings {
		if len(samples) == 0 {
			continue
		}
		var total time.Duration
		lo, hi := samples[0], samples[0]
		for _, d := range samples {
			total += d
			if d < lo {
				lo = d
			}
			if d > hi {
				hi = d
			}
		}
		timings[name] = map[string]interface{}{
			"count":   len(samples),
			"total":   total.String(),
			"average": (total / time.Duration(len(samples))).String(),
			"min":     lo.String(),
			"max":     hi.String(),
		}
	}

	return Fields{"counters": counters, "timings": timings}
}

// Reset clears all counters and timings
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = make(map[string]int64)
	m.timings = make(map[string][]time.Duration)
}

// IncrCounter increments a counter on the default tracker
func IncrCounter(name string) {
	defaultMetrics.IncrCounter(name)
}

// AddCounter adds n to a counter on the default tracker
func AddCounter(name string, n int64) {
	defaultMetrics.AddCounter(name, n)
}

// RecordTiming records a timing on the default tracker
func RecordTiming(name string, d time.Duration) {
	defaultMetrics.RecordTiming(name, d)
}

// DefaultMetrics returns the package-level tracker
func DefaultMetrics() *Metrics {
	return defaultMetrics
}
