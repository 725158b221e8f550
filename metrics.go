package gc

import (
	"sync"
	"time"
)

// Metrics tracks the last completion timestamp and pause-duration
// percentiles (spec 3 "Epoch", spec 6 time source); the epoch counter
// itself is held by GC (see GC.Epoch). Grounded on
// the teacher eventloop package's Metrics/LatencyMetrics pair, here
// tracking stop-the-world pause durations instead of task latency.
type Metrics struct {
	mu              sync.Mutex
	psquare         *pSquareMultiQuantile
	lastCompletion  time.Time
	completionValid bool
}

// pauseQuantiles are the percentiles tracked for each full GC's pause
// duration: P50, P90, P95, P99.
var pauseQuantiles = []float64{0.50, 0.90, 0.95, 0.99}

func newMetrics() *Metrics {
	return &Metrics{psquare: newPSquareMultiQuantile(pauseQuantiles...)}
}

// record is called once per completed cycle (spec 4.4 step 13).
func (m *Metrics) record(pause time.Duration, completedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.psquare.Update(float64(pause))
	m.lastCompletion = completedAt
	m.completionValid = true
}

// PauseP50/P90/P95/P99 return the estimated pause-duration percentiles
// observed so far.
func (m *Metrics) PauseP50() time.Duration { return m.quantile(0) }
func (m *Metrics) PauseP90() time.Duration { return m.quantile(1) }
func (m *Metrics) PauseP95() time.Duration { return m.quantile(2) }
func (m *Metrics) PauseP99() time.Duration { return m.quantile(3) }

func (m *Metrics) quantile(i int) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Duration(m.psquare.Quantile(i))
}

// Cycles returns the number of completed collections recorded.
func (m *Metrics) Cycles() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.psquare.Count()
}

// LastCompletion returns the timestamp of the most recently completed
// collection, and whether any collection has completed yet.
func (m *Metrics) LastCompletion() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCompletion, m.completionValid
}
