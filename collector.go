package gc

// collectorLoop is the dedicated collector goroutine (spec C4). Absent
// in synchronous mode (spec 5); see safepointSlow and
// ScheduleAndWaitFullGC for the no-threads inline equivalent.
func (g *GC) collectorLoop() {
	defer close(g.collectorDone)
	for {
		phase := g.cell.WaitUntil(func(p Phase) bool {
			return p == PhaseNeedsGC || p == PhaseShutdown
		}, nil)

		switch phase {
		case PhaseShutdown:
			return
		case PhaseNeedsGC:
			g.performFullGC()
		default:
			// "wake up in strange state" (spec 7): the predicate only
			// ever admits kNeedsGC or kShutdown, so anything else here
			// means the state machine was corrupted by something other
			// than the collector.
			g.fatal("collectorLoop/wake", &ProtocolError{
				Op:       "collectorLoop",
				Expected: PhaseNeedsGC,
				Observed: phase,
			})
		}
	}
}

// performFullGC runs one collection cycle end to end (spec 4.4). It
// returns false if suspension was denied by the thread registry (an
// expected denial, spec 7) — which should never happen with a single
// collector goroutine, but the check is retained for composability
// with future concurrent-collector variants.
//
// The per-step diagnostic logging below (timing breakdown, root-set
// counts, end-of-cycle summary) follows SameThreadMarkAndSweep.cpp's
// PerformFullGC, which emits one RuntimeLogDebug/RuntimeLogInfo call at
// each of these points; the counts are aggregated per thread/globally
// rather than split by stack/TLS/global/stable-ref source, since
// MutatorThread.Roots and RootIterator.Roots (capabilities.go) don't
// carry a root-source tag the way the original's ThreadRootSet/
// GlobalRootSet do.
func (g *GC) performFullGC() bool {
	start := g.cfg.clock.Now()

	g.log.Debug().Log(`gc: attempting to suspend threads`)

	// Step 1: request suspension of all mutator threads.
	if !g.cfg.threads.RequestSuspension() {
		g.log.Info().Err(errSuspensionDenied).Log(`gc: skipping collection`)
		return false
	}

	// Step 2: kNeedsGC -> kNeedsSuspend. Failure here is a protocol
	// violation: the state was mutated by something other than the
	// collector.
	if ok, observed := g.cell.CompareAndSwap(PhaseNeedsGC, PhaseNeedsSuspend); !ok {
		g.fatal("performFullGC/enter-suspend", &ProtocolError{
			Op:       "performFullGC:kNeedsGC->kNeedsSuspend",
			Expected: PhaseNeedsGC,
			Observed: observed,
		})
		return false
	}
	g.log.Debug().Log(`gc: requested thread suspension`)

	// Step 3: the collector is not itself a mutator in the suspension
	// census; nothing to do here beyond not calling SuspendIfRequested
	// on itself.

	// Step 4: wait for all mutators to reach their safepoints.
	g.cfg.threads.WaitForSuspension()
	timeSuspend := g.cfg.clock.Now()
	g.log.Debug().Dur(`took`, timeSuspend.Sub(start)).Log(`gc: suspended all threads`)

	epoch := g.epoch.Load()
	g.log.Info().Uint64(`epoch`, epoch).Log(`gc: started GC cycle`)

	// Step 5: for each registered thread, publish TLABs, notify the
	// scheduler, and collect thread roots onto the gray work list.
	var gray []Node
	var threadCount, threadRoots int
	g.cfg.threads.Threads(func(t MutatorThread) bool {
		t.PublishTLAB()
		t.OnStoppedForGC()
		before := len(gray)
		t.Roots(func(n Node) bool {
			if n != nil {
				gray = append(gray, n)
			}
			return true
		})
		threadCount++
		threadRoots += len(gray) - before
		return true
	})
	g.cfg.scheduler.OnStoppedForGC()
	g.log.Debug().
		Int(`threads`, threadCount).
		Int(`threadRoots`, threadRoots).
		Log(`gc: collected thread root sets`)

	// Step 6: process pending stable-ref deletions, then enumerate the
	// global root set.
	if g.cfg.stableRefs != nil {
		g.cfg.stableRefs.ProcessDeletions()
	}
	globalRootsBefore := len(gray)
	if g.cfg.roots != nil {
		g.cfg.roots.Roots(func(n Node) bool {
			if n != nil {
				gray = append(gray, n)
			}
			return true
		})
	}
	globalRoots := len(gray) - globalRootsBefore
	timeRootSet := g.cfg.clock.Now()
	g.log.Debug().Int(`globalRoots`, globalRoots).Log(`gc: collected global root set`)
	g.log.Info().
		Int(`rootSetSize`, len(gray)).
		Dur(`took`, timeRootSet.Sub(timeSuspend)).
		Log(`gc: collected root set`)

	// Step 7: mark. Pop from the gray list, flip white->black (skip if
	// already black), push every referent.
	objects := g.cfg.objects
	for len(gray) > 0 {
		n := gray[len(gray)-1]
		gray = gray[:len(gray)-1]
		if !objects.TryMark(n) {
			continue
		}
		objects.Referents(n, func(ref Node) bool {
			if ref != nil {
				gray = append(gray, ref)
			}
			return true
		})
	}
	timeMark := g.cfg.clock.Now()
	g.log.Debug().Dur(`took`, timeMark.Sub(timeRootSet)).Log(`gc: marked`)

	// Step 8: sweep extra objects.
	var extraCount, extraDestroyed int
	if g.cfg.extra != nil {
		g.cfg.extra.Entries(func(e ExtraObjectEntry) bool {
			extraCount++
			if !e.IsMarkedByExtraObject() {
				e.Destroy()
				extraDestroyed++
			}
			return true
		})
	}
	timeSweepExtra := g.cfg.clock.Now()
	g.log.Debug().Dur(`took`, timeSweepExtra.Sub(timeMark)).Log(`gc: swept extra objects`)

	// Step 9: sweep the main heap into a freshly allocated finalizer
	// queue. White nodes transfer out; black nodes reset to white.
	queue := newFinalizerQueue()
	var objectsCountBefore, sweptCount int
	objects.Nodes(func(n Node) bool {
		objectsCountBefore++
		switch objects.Color(n) {
		case ColorWhite:
			objects.Sweep(n, queue)
			sweptCount++
		case ColorBlack:
			objects.TryResetMark(n)
		}
		return true
	})
	timeSweep := g.cfg.clock.Now()
	g.log.Debug().Dur(`took`, timeSweep.Sub(timeSweepExtra)).Log(`gc: swept`)

	g.finalizerMu.Lock()
	g.finalizers = queue
	g.finalizerMu.Unlock()

	// Step 10: kNeedsSuspend -> kGCRunning. Failure here is fatal.
	if ok, observed := g.cell.CompareAndSwap(PhaseNeedsSuspend, PhaseGCRunning); !ok {
		g.fatal("performFullGC/enter-running", &ProtocolError{
			Op:       "performFullGC:kNeedsSuspend->kGCRunning",
			Expected: PhaseNeedsSuspend,
			Observed: observed,
		})
		return false
	}

	// Step 11: compute the next phase and transition. A failed CAS here
	// is an expected race (spec 7, spec 4.1): a new kNeedsGC has
	// already been scheduled in the interim; the next cycle picks it
	// up, so this is tolerated, not fatal.
	next := PhaseNone
	if !queue.Empty() {
		next = PhaseNeedsFinalizersRun
	}
	if ok, observed := g.cell.CompareAndSwap(PhaseGCRunning, next); !ok {
		g.log.Debug().Str(`observed`, observed.String()).Log(`gc: lost the race to a newly scheduled collection`)
	}

	// Step 12: resume all mutators.
	g.cfg.threads.ResumeThreads()
	timeResume := g.cfg.clock.Now()
	g.log.Debug().Dur(`took`, timeResume.Sub(timeSweep)).Log(`gc: resumed threads`)

	// Step 13: increment epoch, record completion.
	g.epoch.Add(1)
	now := g.cfg.clock.Now()
	pause := now.Sub(start)
	g.metrics.record(pause, now)
	g.cfg.scheduler.OnPerformFullGC()

	objectsCountAfter := objectsCountBefore - sweptCount
	finalizersCount := queue.Len()
	collectedCount := sweptCount - finalizersCount
	extraObjectsCountAfter := extraCount - extraDestroyed
	g.log.Info().
		Uint64(`epoch`, epoch).
		Int(`collected`, collectedCount).
		Int(`finalizers`, finalizersCount).
		Int(`objectsRemaining`, objectsCountAfter).
		Int(`extraObjectsRemaining`, extraObjectsCountAfter).
		Dur(`pause`, pause).
		Log(`gc: finished GC cycle`)

	return true
}
