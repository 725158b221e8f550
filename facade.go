package gc

import (
	"sync"
	"sync/atomic"

	"github.com/joeycumines/logiface"
	"go.uber.org/automaxprocs/maxprocs"
)

// GC is the facade (spec C5): it owns the StateCell, the finalizer
// queue slot, and the collector goroutine (absent in synchronous
// mode), and exposes the safepoint entry points and lifecycle
// operations. Modeled on the teacher eventloop package's Loop
// aggregate, which spreads its methods across many concern-files the
// same way this type's methods are spread across
// statecell.go/safepoint.go/collector.go/finalizer.go/facade.go.
type GC struct {
	cell *StateCell
	cfg  *config
	log  *logiface.Logger[logiface.Event]

	finalizerMu sync.Mutex
	finalizers  *FinalizerQueue

	epoch   atomic.Uint64
	metrics *Metrics

	collectorDone chan struct{}
	shutdownOnce  sync.Once
}

// New constructs a GC: registers the scheduleGC callback with the
// configured Scheduler, then spawns the collector goroutine (spec C5),
// unless WithSynchronous was set, in which case no goroutine is
// spawned and scheduleAndWaitFullGC / the safepoint slow path drive
// collection inline (spec 5).
func New(opts ...Option) (*GC, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	if cfg.setGOMAXPROCS {
		// best-effort: mirrors automaxprocs.Set's own contract, logging
		// is all that's warranted on failure (e.g. not running in a
		// cgroup-limited container).
		if _, err := maxprocs.Set(maxprocs.Logger(func(string, ...any) {})); err != nil {
			cfg.log.Debug().Err(err).Log(`gc: automaxprocs.Set failed`)
		}
	}

	g := &GC{
		cell:       NewStateCell(!cfg.synchronous),
		cfg:        cfg,
		log:        cfg.log,
		finalizers: newFinalizerQueue(),
		metrics:    newMetrics(),
	}

	cfg.scheduler.SetScheduleGC(g.scheduleGC)

	if !cfg.synchronous {
		g.collectorDone = make(chan struct{})
		go g.collectorLoop()
	}

	return g, nil
}

// scheduleGC is the callback registered with the external Scheduler
// (spec C5, spec 4.2 step 1): CAS(kNone -> kNeedsGC). A failed CAS here
// is an expected race (spec 7): it means a GC is already pending or
// running.
func (g *GC) scheduleGC() {
	if ok, observed := g.cell.CompareAndSwap(PhaseNone, PhaseNeedsGC); ok {
		g.log.Debug().Log(`gc: scheduled`)
	} else {
		g.log.Debug().Str(`observed`, observed.String()).Log(`gc: schedule request raced with an in-progress collection`)
	}
}

// Close performs orderly shutdown (spec C5 "On destruction"): waits for
// the phase to reach a quiescent state (kNone or kNeedsFinalizersRun,
// the explicit resolution of spec 9's destructor-predicate open
// question, never the tautological original), then transitions to
// kShutdown under the mutex and joins the collector goroutine. In
// synchronous mode both steps degrade to a direct, immediate
// transition since there is no goroutine to join.
func (g *GC) Close() error {
	var closeErr error
	g.shutdownOnce.Do(func() {
		quiescent := func(p Phase) bool {
			return p == PhaseNone || p == PhaseNeedsFinalizersRun
		}

		if g.cfg.synchronous {
			// WaitUntil is a no-op in this mode (spec 5): the caller is
			// already running synchronously, so there is nothing to
			// block on but the phase is still checked before the
			// transition for a sane diagnostic if it somehow isn't
			// quiescent yet.
			if p := g.cell.Get(); !quiescent(p) {
				g.log.Info().Str(`observed`, p.String()).Log(`gc: shutting down from a non-quiescent phase`)
			}
			g.cell.transitionToShutdown()
		} else {
			g.cell.WaitUntil(quiescent, g.cell.transitionToShutdownLocked)
		}

		if g.collectorDone != nil {
			<-g.collectorDone
		}
	})
	return closeErr
}

// Epoch returns the number of completed collections.
func (g *GC) Epoch() uint64 {
	return g.epoch.Load()
}

// Metrics returns the GC's pause-duration percentile tracker.
func (g *GC) Metrics() *Metrics {
	return g.metrics
}

// Phase returns the current StateCell phase, for diagnostics and
// tests.
func (g *GC) Phase() Phase {
	return g.cell.Get()
}
