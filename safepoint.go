package gc

// Prologue is the safepoint entry point emitted on function entry
// (spec C2, weight W_prologue).
func (g *GC) Prologue() {
	g.cfg.scheduler.OnSafepointRegular(WeightPrologue)
	g.safepointFast()
}

// LoopBody is the safepoint entry point emitted on each loop
// back-edge (spec C2, weight W_loop).
func (g *GC) LoopBody() {
	g.cfg.scheduler.OnSafepointRegular(WeightLoop)
	g.safepointFast()
}

// Allocation is the safepoint entry point invoked after every heap
// allocation (spec C2).
func (g *GC) Allocation(size uintptr) {
	g.cfg.scheduler.OnSafepointAllocation(size)
	g.safepointFast()
}

// SafepointAllocation is an alias for Allocation and behaves
// identically.
func (g *GC) SafepointAllocation(size uintptr) {
	g.Allocation(size)
}

// safepointFast is the inlinable fast path shared by every entry
// point: a single relaxed atomic load of needSlowPath. If true, jump to
// the non-inlined slow path (spec 4.2).
func (g *GC) safepointFast() {
	if g.cell.NeedsSlowPath() {
		g.safepointSlow()
	}
}

// safepointSlow is the non-inlined safepoint slow path (spec 4.2).
func (g *GC) safepointSlow() {
	phase := g.cell.Get()

	switch phase {
	case PhaseNone:
		// spurious wake (spec 8, S6): observably a no-op.
		return

	case PhaseNeedsFinalizersRun:
		if ok, _ := g.cell.CompareAndSwap(PhaseNeedsFinalizersRun, PhaseNone); ok {
			// winner: exclusive ownership of the queue (invariant 4).
			g.drainFinalizers(g.cfg.finalizer)
		}
		// losers fall through to re-read below; winner re-reads too,
		// per spec ("the winner re-reads the phase after finalizing").
		phase = g.cell.Get()
	}

	if g.cfg.synchronous {
		// No-threads platform (spec 4.2, 5): instead of suspending,
		// invoke the collector inline if a GC is pending.
		if phase == PhaseNeedsGC {
			g.log.Debug().Log(`gc: attempting GC at safepoint`)
			g.performFullGC()
		}
		return
	}

	g.cfg.threads.SuspendIfRequested()
}

// ScheduleAndWaitFullGC is the explicit "collect now" entry point used
// for out-of-memory handling (spec 4.2, "scheduleAndWaitFullGC").
func (g *GC) ScheduleAndWaitFullGC() {
	// Step 1: loop until the phase is kNeedsGC or kNeedsSuspend.
	for {
		phase := g.cell.Get()
		if phase == PhaseNeedsGC || phase == PhaseNeedsSuspend {
			break
		}
		if phase == PhaseNone || phase == PhaseGCRunning {
			if ok, _ := g.cell.CompareAndSwap(phase, PhaseNeedsGC); ok {
				break
			}
			// lost the race; re-read and retry.
			continue
		}
		// a finalizer-pending phase: take one safepoint to drain prior
		// work, then retry (spec 4.2 step 1).
		g.safepointSlow()
	}

	if g.cfg.synchronous {
		// scheduleAndWaitFullGC is synchronous by construction here:
		// there is no collector goroutine, so a pending kNeedsGC (from
		// the CAS above or from the scheduleGC callback) is driven
		// directly on this goroutine, then one safepoint drains any
		// finalizers the cycle produced.
		if g.cell.Get() == PhaseNeedsGC {
			g.performFullGC()
		}
		g.safepointSlow()
		return
	}

	// Step 2: wait until the phase is no longer kNeedsGC. The only
	// legal next phase is kNeedsSuspend; anything else is a bug.
	observed := g.cell.WaitUntil(func(p Phase) bool { return p != PhaseNeedsGC }, nil)
	if observed != PhaseNeedsSuspend {
		g.fatal("scheduleAndWaitFullGC/wait-needs-suspend", &ProtocolError{
			Op:       "scheduleAndWaitFullGC",
			Expected: PhaseNeedsSuspend,
			Observed: observed,
		})
		return
	}

	// Step 3: this mutator becomes part of the stopped world.
	g.cfg.threads.SuspendIfRequested()

	// Step 4: wait until the phase is no longer kGCRunning, then take
	// one regular safepoint to drain finalizers if the GC produced any.
	g.cell.WaitUntil(func(p Phase) bool { return p != PhaseGCRunning }, nil)
	g.safepointSlow()
}
