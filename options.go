package gc

import (
	"fmt"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// config is the resolved set of GC construction options, built from the
// defaults plus every applied Option. Modeled on the teacher
// eventloop package's loopOptions/resolveLoopOptions pattern.
type config struct {
	log           *logiface.Logger[logiface.Event]
	threads       ThreadRegistry
	roots         RootIterator
	stableRefs    StableRefRegistry
	objects       ObjectFactory
	extra         ExtraObjectDataFactory
	scheduler     Scheduler
	clock         Clock
	finalizer     Finalizer
	synchronous   bool
	setGOMAXPROCS bool
}

// Option configures a GC at construction time.
type Option interface {
	apply(*config) error
}

type optionFunc func(*config) error

func (f optionFunc) apply(c *config) error { return f(c) }

func resolveOptions(opts []Option) (*config, error) {
	c := &config{
		clock:         realClock{},
		finalizer:     func(Node) {},
		setGOMAXPROCS: true,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(c); err != nil {
			return nil, err
		}
	}
	if c.objects == nil {
		return nil, fmt.Errorf("gc: WithObjectFactory is required")
	}
	if c.threads == nil {
		return nil, fmt.Errorf("gc: WithThreadRegistry is required")
	}
	if c.scheduler == nil {
		return nil, fmt.Errorf("gc: WithScheduler is required")
	}
	if c.log == nil {
		c.log = stumpy.L.New(stumpy.L.WithStumpy()).Logger()
	}
	return c, nil
}

// WithLogger sets the structured logger used for expected races,
// expected denials, and fatal diagnostics (spec 7). Accepts any
// logiface backend via its generified Logger() method; defaults to a
// stumpy-backed JSON logger if not set.
func WithLogger(log *logiface.Logger[logiface.Event]) Option {
	return optionFunc(func(c *config) error {
		c.log = log
		return nil
	})
}

// WithThreadRegistry supplies the cooperative stop-the-world primitive
// (spec 6). Required.
func WithThreadRegistry(r ThreadRegistry) Option {
	return optionFunc(func(c *config) error {
		c.threads = r
		return nil
	})
}

// WithRootIterator supplies the global root set (globals + stable
// refs, spec 4.4 step 6).
func WithRootIterator(r RootIterator) Option {
	return optionFunc(func(c *config) error {
		c.roots = r
		return nil
	})
}

// WithStableRefRegistry supplies the stable-ref registry whose pending
// deletions are processed before the global root set is walked.
func WithStableRefRegistry(r StableRefRegistry) Option {
	return optionFunc(func(c *config) error {
		c.stableRefs = r
		return nil
	})
}

// WithObjectFactory supplies the heap: iterate nodes, read/mutate
// color, sweep. Required.
func WithObjectFactory(f ObjectFactory) Option {
	return optionFunc(func(c *config) error {
		c.objects = f
		return nil
	})
}

// WithExtraObjectDataFactory supplies the side-table swept ahead of the
// main heap (spec 4.4 step 8).
func WithExtraObjectDataFactory(f ExtraObjectDataFactory) Option {
	return optionFunc(func(c *config) error {
		c.extra = f
		return nil
	})
}

// WithScheduler supplies the external GC scheduler and is where the
// facade will register its scheduleGC callback (spec C5). Required.
func WithScheduler(s Scheduler) Option {
	return optionFunc(func(c *config) error {
		c.scheduler = s
		return nil
	})
}

// WithClock overrides the time source used for epoch completion
// timestamps, for deterministic tests.
func WithClock(clock Clock) Option {
	return optionFunc(func(c *config) error {
		c.clock = clock
		return nil
	})
}

// WithFinalizer sets the function invoked once per swept node found in
// the finalizer queue (spec C3). Defaults to a no-op.
func WithFinalizer(fn Finalizer) Option {
	return optionFunc(func(c *config) error {
		c.finalizer = fn
		return nil
	})
}

// WithSynchronous selects the no-threads degraded mode (spec 5): no
// collector goroutine is spawned, and scheduleAndWaitFullGC / the
// safepoint slow path drive collection inline on the calling mutator.
func WithSynchronous(enabled bool) Option {
	return optionFunc(func(c *config) error {
		c.synchronous = enabled
		return nil
	})
}

// WithGOMAXPROCS controls whether New calls automaxprocs.Set before
// spawning the collector goroutine, so the collector and mutators are
// scheduled against the container's real CPU quota rather than the
// host's. Enabled by default.
func WithGOMAXPROCS(enabled bool) Option {
	return optionFunc(func(c *config) error {
		c.setGOMAXPROCS = enabled
		return nil
	})
}
