package gc

import "time"

// Node is an opaque heap object handle, owned by the external object
// factory. The core never dereferences it; it only carries color state
// and is passed to finalizers.
type Node any

// Color is the per-object mark state (spec 3). No gray is stored; the
// gray set is a transient work list held only by the marker.
type Color uint8

const (
	ColorWhite Color = iota
	ColorBlack
)

// ThreadRegistry is the external cooperative stop-the-world primitive
// (spec 6). RequestSuspension reports false if a peer collector has
// already requested suspension (an expected denial, spec 7).
type ThreadRegistry interface {
	RequestSuspension() bool
	WaitForSuspension()
	ResumeThreads()
	// SuspendIfRequested is the per-mutator cooperative pause called
	// from the safepoint slow path.
	SuspendIfRequested()
	// Threads yields one MutatorThread per registered mutator, to be
	// visited while suspended (spec 4.4 step 5). The iterator returns
	// false to stop early.
	Threads(yield func(MutatorThread) bool)
}

// MutatorThread is one registered mutator, visited by the collector
// while the world is stopped (spec 4.4 step 5).
type MutatorThread interface {
	// PublishTLAB publishes any thread-local allocation buffer into the
	// global heap.
	PublishTLAB()
	// OnStoppedForGC notifies the scheduler this thread is stopped.
	OnStoppedForGC()
	// Roots enumerates this thread's root set (stack + TLS sources).
	Roots(yield func(Node) bool)
}

// RootIterator enumerates the global root set (globals + stable refs,
// spec 4.4 step 6).
type RootIterator interface {
	Roots(yield func(Node) bool)
}

// StableRefRegistry processes pending deletions before the global root
// set is enumerated (spec 4.4 step 6).
type StableRefRegistry interface {
	ProcessDeletions()
}

// ObjectFactory is the external heap: iterate nodes, read/mutate color,
// transfer a node into a finalizer queue, measure size (spec 6).
type ObjectFactory interface {
	// Nodes iterates every live node in the heap.
	Nodes(yield func(Node) bool)
	// Color returns the current color of n.
	Color(n Node) Color
	// TryMark flips white to black, reporting whether this call made
	// the change (false if already black). Used by the marker.
	TryMark(n Node) bool
	// TryResetMark flips black back to white for the next cycle.
	TryResetMark(n Node) bool
	// Referents pushes n's outgoing references onto the gray work list
	// during mark.
	Referents(n Node, yield func(Node) bool)
	// Sweep transfers n (found white at sweep time) into queue,
	// removing it from the live set.
	Sweep(n Node, queue *FinalizerQueue)
}

// ExtraObjectDataFactory is the side-table of extra per-object data
// swept ahead of the main heap (spec 4.4 step 8).
type ExtraObjectDataFactory interface {
	// Entries iterates side-table entries.
	Entries(yield func(ExtraObjectEntry) bool)
}

// ExtraObjectEntry is one side-table entry.
type ExtraObjectEntry interface {
	// IsMarkedByExtraObject reports whether the entry's base object is
	// marked, or true if the base object does not reside on the heap
	// (e.g. a permanent object, spec 4.4 step 8).
	IsMarkedByExtraObject() bool
	// Destroy releases the entry; called only when unmarked.
	Destroy()
}

// Scheduler decides when to ask for a GC based on allocation pressure
// (deliberately out of scope per spec 1; the core only calls it and
// accepts its scheduleGC registration, spec 6).
type Scheduler interface {
	OnSafepointAllocation(size uintptr)
	OnSafepointRegular(weight int)
	OnPerformFullGC()
	OnStoppedForGC()
	SetScheduleGC(callback func())
}

// Clock is the time source used for epoch completion timestamps
// (spec 6, "time source (microsecond monotonic clock)").
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Recognized weight constants for safepoint entry points (spec 6);
// opaque to the core, passed through to the scheduler.
const (
	WeightPrologue = 1
	WeightLoop     = 1
)
