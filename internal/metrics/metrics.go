package metrics

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

type timing struct {
	count int64
	total time.Duration
}

type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
	timings  map[string]*timing
}

func NewMetrics() *Metrics {
	return &Metrics{
		counters: make(map[string]int64),
		timings:  make(map[string]*timing),
	}
}

// NoMetrics returns a Metrics that discards everything.
func NoMetrics() *Metrics {
	return &Metrics{}
}

func (x *Metrics) enabled() bool {
	return x != nil && x.counters != nil
}

func (x *Metrics) Record(metricName string) func() error {
	if !x.enabled() {
		return func() error { return nil }
	}

	start := time.Now()
	return func() error {
		elapsed := time.Since(start)

		x.mu.Lock()
		defer x.mu.Unlock()

		t, ok := x.timings[metricName]
		if !ok {
			t = &timing{}
			x.timings[metricName] = t
		}
		t.count++
		t.total += elapsed

		return nil
	}
}

func (x *Metrics) Increment(metricName string) error {
	if !x.enabled() {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.counters[metricName]++

	return nil
}

func (x *Metrics) Count(metricName string) int64 {
	if !x.enabled() {
		return 0
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	return x.counters[metricName]
}

// Log writes every counter and timing to logger.
func (x *Metrics) Log(logger *zap.Logger) {
	if !x.enabled() {
		return
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	names := make([]string, 0, len(x.counters))
	for k := range x.counters {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		logger.Info("Counter", zap.String("name", k), zap.Int64("value", x.counters[k]))
	}

	names = names[:0]
	for k := range x.timings {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		t := x.timings[k]
		logger.Info("Timing",
			zap.String("name", k),
			zap.Int64("count", t.count),
			zap.Duration("total", t.total),
			zap.Duration("mean", t.total/time.Duration(t.count)),
		)
	}
}
