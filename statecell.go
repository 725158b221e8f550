package gc

import (
	"sync"
	"sync/atomic"
)

// StateCell is the GC state machine cell (spec C1): an atomic phase
// plus a mutex/condition pair for blocking waits, and a derived
// hot-path "needSlowPath" flag. Modeled on the CAS-driven state word in
// the teacher eventloop package's FastState, generalized with the
// blocking waitUntil the collector loop and destructor require.
type StateCell struct {
	// cache-line padding, same rationale as the teacher's FastState:
	// avoid false sharing with whatever the caller embeds this next to.
	_ [64]byte

	phase        atomic.Uint32
	needSlowPath atomic.Bool

	_ [56]byte

	mu   sync.Mutex
	cond *sync.Cond

	// hasThreads is false on a no-threads platform: waitUntil degrades
	// to returning the current phase immediately (spec 4.1, 5).
	hasThreads bool
}

// NewStateCell constructs a cell in PhaseNone. hasThreads selects the
// blocking behavior of WaitUntil; pass false for the degraded
// single-threaded mode of spec 5.
func NewStateCell(hasThreads bool) *StateCell {
	c := &StateCell{hasThreads: hasThreads}
	c.cond = sync.NewCond(&c.mu)
	c.phase.Store(uint32(PhaseNone))
	return c
}

// Get returns the current phase. Wait-free; safe to call from any
// goroutine, including from inside a safepoint.
func (c *StateCell) Get() Phase {
	return Phase(c.phase.Load())
}

// NeedsSlowPath is the single relaxed atomic load every mutator
// performs on its hot path.
func (c *StateCell) NeedsSlowPath() bool {
	return c.needSlowPath.Load()
}

// CompareAndSwap transitions the cell from expected to desired. On
// success it recomputes needSlowPath under the mutex and broadcasts to
// every waiter, establishing a happens-before edge to any goroutine
// that subsequently observes the new phase. On failure observed is the
// actual, unchanged phase.
func (c *StateCell) CompareAndSwap(expected, desired Phase) (ok bool, observed Phase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := Phase(c.phase.Load())
	if cur != expected {
		return false, cur
	}
	c.phase.Store(uint32(desired))
	c.needSlowPath.Store(needsSlowPath(desired))
	c.cond.Broadcast()
	return true, desired
}

// transitionToShutdownLocked unconditionally moves the cell to
// PhaseShutdown and broadcasts. Caller must hold the mutex; this is
// meant to be passed as WaitUntil's afterFn.
func (c *StateCell) transitionToShutdownLocked() {
	c.phase.Store(uint32(PhaseShutdown))
	c.needSlowPath.Store(needsSlowPath(PhaseShutdown))
	c.cond.Broadcast()
}

// transitionToShutdown takes the mutex itself before transitioning.
// Used in the no-threads degraded mode, where WaitUntil never takes
// the lock and so cannot run an afterFn.
func (c *StateCell) transitionToShutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transitionToShutdownLocked()
}

// WaitUntil blocks until predicate holds for the current phase,
// evaluated under the mutex, then optionally runs afterFn under the
// same mutex before unlocking, and returns the phase at release. On a
// no-threads platform this is a no-op returning the current phase.
func (c *StateCell) WaitUntil(predicate func(Phase) bool, afterFn func()) Phase {
	if !c.hasThreads {
		return c.Get()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for !predicate(Phase(c.phase.Load())) {
		c.cond.Wait()
	}
	if afterFn != nil {
		afterFn()
	}
	return Phase(c.phase.Load())
}
