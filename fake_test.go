package gc

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

var fakeCtx = context.Background()

// fakeObject is a toy heap node used by the tests: a name plus outgoing
// references, with a mutable color and a finalized flag.
type fakeObject struct {
	name       string
	refs       []*fakeObject
	color      Color
	hasFin     bool
	finalized  bool
	sweptCount int
}

// fakeHeap is a minimal ObjectFactory over a flat slice of live
// objects, grounded on spec 6's requirement to iterate nodes, read/
// mutate color, and transfer swept nodes into a queue.
type fakeHeap struct {
	mu    sync.Mutex
	nodes []*fakeObject
}

func newFakeHeap() *fakeHeap {
	return &fakeHeap{}
}

func (h *fakeHeap) alloc(name string, refs ...*fakeObject) *fakeObject {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := &fakeObject{name: name, refs: refs, color: ColorWhite}
	h.nodes = append(h.nodes, n)
	return n
}

func (h *fakeHeap) live() []*fakeObject {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*fakeObject, len(h.nodes))
	copy(out, h.nodes)
	return out
}

func (h *fakeHeap) Nodes(yield func(Node) bool) {
	for _, n := range h.live() {
		if !yield(n) {
			return
		}
	}
}

func (h *fakeHeap) Color(n Node) Color {
	return n.(*fakeObject).color
}

func (h *fakeHeap) TryMark(n Node) bool {
	o := n.(*fakeObject)
	if o.color == ColorBlack {
		return false
	}
	o.color = ColorBlack
	return true
}

func (h *fakeHeap) TryResetMark(n Node) bool {
	o := n.(*fakeObject)
	if o.color != ColorBlack {
		return false
	}
	o.color = ColorWhite
	return true
}

func (h *fakeHeap) Referents(n Node, yield func(Node) bool) {
	for _, ref := range n.(*fakeObject).refs {
		if !yield(ref) {
			return
		}
	}
}

func (h *fakeHeap) Sweep(n Node, queue *FinalizerQueue) {
	o := n.(*fakeObject)
	h.mu.Lock()
	for i, live := range h.nodes {
		if live == o {
			h.nodes = append(h.nodes[:i], h.nodes[i+1:]...)
			break
		}
	}
	h.mu.Unlock()
	o.sweptCount++
	if o.hasFin {
		queue.push(o)
	}
}

// fakeRoots is a RootIterator over an explicit, mutable root set.
type fakeRoots struct {
	mu    sync.Mutex
	roots []*fakeObject
}

func (r *fakeRoots) set(roots ...*fakeObject) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roots = roots
}

func (r *fakeRoots) Roots(yield func(Node) bool) {
	r.mu.Lock()
	roots := make([]*fakeObject, len(r.roots))
	copy(roots, r.roots)
	r.mu.Unlock()
	for _, n := range roots {
		if !yield(n) {
			return
		}
	}
}

// fakeMutatorThread is a minimal MutatorThread: a thread-local root set
// plus flags recording whether the collector visited it during a cycle
// (spec 4.4 step 5).
type fakeMutatorThread struct {
	mu        sync.Mutex
	roots     []*fakeObject
	published bool
	stopped   bool
}

func (t *fakeMutatorThread) setRoots(roots ...*fakeObject) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.roots = roots
}

func (t *fakeMutatorThread) PublishTLAB() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.published = true
}

func (t *fakeMutatorThread) OnStoppedForGC() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *fakeMutatorThread) Roots(yield func(Node) bool) {
	t.mu.Lock()
	roots := make([]*fakeObject, len(t.roots))
	copy(roots, t.roots)
	t.mu.Unlock()
	for _, n := range roots {
		if !yield(n) {
			return
		}
	}
}

// fakeThreadRegistry models the cooperative stop-the-world primitive
// (spec 6) with a weighted semaphore barrier, the way SPEC_FULL.md's
// domain stack wires golang.org/x/sync/semaphore into the test fakes.
type fakeThreadRegistry struct {
	mu        sync.Mutex
	requested bool
	sem       *semaphore.Weighted
	capacity  int64
	threads   []*fakeMutatorThread
}

func newFakeThreadRegistry() *fakeThreadRegistry {
	return &fakeThreadRegistry{sem: semaphore.NewWeighted(1), capacity: 1}
}

func (r *fakeThreadRegistry) RequestSuspension() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.requested {
		return false
	}
	r.requested = true
	// acquire the full barrier weight; with no registered mutator
	// goroutines holding any of it, this returns immediately and models
	// "zero mutators registered" (spec 8, boundary behavior).
	_ = r.sem.Acquire(fakeCtx, r.capacity)
	return true
}

func (r *fakeThreadRegistry) WaitForSuspension() {
	// the barrier was already acquired to capacity in RequestSuspension;
	// every registered mutator has implicitly reached its safepoint.
}

func (r *fakeThreadRegistry) ResumeThreads() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requested = false
	r.sem.Release(r.capacity)
}

func (r *fakeThreadRegistry) SuspendIfRequested() {}

// register adds a mutator thread to be visited by the collector during
// the next cycle's root enumeration (spec 4.4 step 5). Used only by
// tests exercising threaded mode; synchronous-mode tests never call
// this, so Threads stays empty for them.
func (r *fakeThreadRegistry) register(t *fakeMutatorThread) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.threads = append(r.threads, t)
}

func (r *fakeThreadRegistry) Threads(yield func(MutatorThread) bool) {
	r.mu.Lock()
	threads := make([]*fakeMutatorThread, len(r.threads))
	copy(threads, r.threads)
	r.mu.Unlock()
	for _, t := range threads {
		if !yield(t) {
			return
		}
	}
}

// fakeScheduler is a no-op Scheduler that records calls and lets tests
// invoke the registered scheduleGC callback directly.
type fakeScheduler struct {
	mu          sync.Mutex
	scheduleGC  func()
	fullGCCount int
}

func (s *fakeScheduler) OnSafepointAllocation(size uintptr) {}
func (s *fakeScheduler) OnSafepointRegular(weight int)      {}
func (s *fakeScheduler) OnPerformFullGC() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fullGCCount++
}
func (s *fakeScheduler) OnStoppedForGC() {}
func (s *fakeScheduler) SetScheduleGC(callback func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduleGC = callback
}

func (s *fakeScheduler) trigger() {
	s.mu.Lock()
	cb := s.scheduleGC
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func newFakeGC(t interface{ Helper() }, opts ...Option) (*GC, *fakeHeap, *fakeRoots, *fakeThreadRegistry, *fakeScheduler) {
	t.Helper()
	heap := newFakeHeap()
	roots := &fakeRoots{}
	threads := newFakeThreadRegistry()
	sched := &fakeScheduler{}

	base := []Option{
		WithObjectFactory(heap),
		WithRootIterator(roots),
		WithThreadRegistry(threads),
		WithScheduler(sched),
		WithSynchronous(true),
		WithGOMAXPROCS(false),
	}
	g, err := New(append(base, opts...)...)
	if err != nil {
		panic(err)
	}
	return g, heap, roots, threads, sched
}
