package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	tracker := NewTracker()
	tracker.Add("items.migrated", 1)
	tracker.Add("items.migrated", 1)
	tracker.Add("items.failed", 3)

	snap := tracker.Snapshot()
	assert.Equal(t, int64(2), snap.Counters["items.migrated"])
	assert.Equal(t, int64(3), snap.Counters["items.failed"])
	assert.NotContains(t, snap.Counters, "items.skipped", "untouched counters stay absent")
}

func TestObserve(t *testing.T) {
	tracker := NewTracker()
	tracker.Observe("encode", 10*time.Millisecond)
	tracker.Observe("encode", 30*time.Millisecond)
	tracker.Observe("encode", 20*time.Millisecond)

	stats := tracker.Snapshot().Timings["encode"]
	assert.Equal(t, int64(3), stats.Count)
	assert.Equal(t, 60*time.Millisecond, stats.Total)
	assert.Equal(t, 10*time.Millisecond, stats.Min)
	assert.Equal(t, 30*time.Millisecond, stats.Max)
	assert.Equal(t, 20*time.Millisecond, stats.Mean)
}

func TestSnapshotIsolation(t *testing.T) {
	tracker := NewTracker()
	tracker.Add("n", 1)

	snap := tracker.Snapshot()
	snap.Counters["n"] = 99

	assert.Equal(t, int64(1), tracker.Snapshot().Counters["n"], "snapshots must not alias tracker state")
}
