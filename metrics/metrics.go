// Package metrics tracks counters and operation timings for the media
// workflows. The tracker is synchronous: callers record observations inline
// and read an aggregated snapshot when the run finishes.
package metrics

import (
	"sync"
	"time"
)

// Tracker aggregates counters and timing statistics. Safe for concurrent
// use, though the batch workflows feeding it are sequential.
type Tracker struct {
	mu       sync.Mutex
	counters map[string]int64
	timings  map[string]*timing
}

// timing accumulates duration statistics for one named operation.
type timing struct {
	count int64
	total time.Duration
	min   time.Duration
	max   time.Duration
}

// TimingStats is the aggregated view of one operation's durations.
type TimingStats struct {
	Count int64
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
	Mean  time.Duration
}

// Snapshot is a point-in-time copy of everything the tracker has seen.
type Snapshot struct {
	Counters map[string]int64
	Timings  map[string]TimingStats
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		counters: make(map[string]int64),
		timings:  make(map[string]*timing),
	}
}

// Add increments a named counter by n.
func (t *Tracker) Add(name string, n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counters[name] += n
}

// Observe records one duration for a named operation.
func (t *Tracker) Observe(name string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stat, ok := t.timings[name]
	if !ok {
		stat = &timing{min: d, max: d}
		t.timings[name] = stat
	}
	stat.count++
	stat.total += d
	if d < stat.min {
		stat.min = d
	}
	if d > stat.max {
		stat.max = d
	}
}

// Snapshot copies the tracker state. The returned maps are owned by the
// caller.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		Counters: make(map[string]int64, len(t.counters)),
		Timings:  make(map[string]TimingStats, len(t.timings)),
	}
	for name, v := range t.counters {
		snap.Counters[name] = v
	}
	for name, stat := range t.timings {
		stats := TimingStats{
			Count: stat.count,
			Total: stat.total,
			Min:   stat.min,
			Max:   stat.max,
		}
		if stat.count > 0 {
			stats.Mean = stat.total / time.Duration(stat.count)
		}
		snap.Timings[name] = stats
	}
	return snap
}
