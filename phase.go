package gc

// Phase is a value of the GC state machine (StateCell, spec C1).
type Phase uint32

const (
	// PhaseNone is idle: no GC in progress, mutators run freely.
	PhaseNone Phase = iota
	// PhaseNeedsGC has been requested; the collector is expected to pick it up.
	PhaseNeedsGC
	// PhaseNeedsSuspend: the collector has begun and is waiting for every
	// mutator to reach its safepoint and suspend.
	PhaseNeedsSuspend
	// PhaseWorldIsStopped is reserved: representable but not entered by
	// this collector variant. Kept for extensibility toward collectors
	// that separate "all threads paused" from "mark/sweep running".
	PhaseWorldIsStopped
	// PhaseGCRunning: all mutators are suspended, mark and sweep execute.
	PhaseGCRunning
	// PhaseNeedsFinalizersRun: the cycle is complete and mutators are
	// resuming, but a nonempty finalizer queue is pending.
	PhaseNeedsFinalizersRun
	// PhaseShutdown is terminal: the collector goroutine must exit.
	PhaseShutdown
)

func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhaseNeedsGC:
		return "needs_gc"
	case PhaseNeedsSuspend:
		return "needs_suspend"
	case PhaseWorldIsStopped:
		return "world_is_stopped"
	case PhaseGCRunning:
		return "gc_running"
	case PhaseNeedsFinalizersRun:
		return "needs_finalizers_run"
	case PhaseShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// needsSlowPath reports whether mutators must take the safepoint slow
// path while the cell holds phase p. True exactly for kNeedsSuspend and
// kNeedsFinalizersRun (spec 3, "Derived slow-path flag").
func needsSlowPath(p Phase) bool {
	return p == PhaseNeedsSuspend || p == PhaseNeedsFinalizersRun
}
