package gc

// FinalizerQueue holds swept nodes awaiting finalization (spec C3).
// Ownership transfers from the collector (producer, once per cycle,
// while the world is stopped) to whichever mutator next executes the
// finalizer slow path (consumer, which swaps the whole queue onto its
// own stack under GC.finalizerMu before invoking any finalizer). The
// slot is guarded by finalizerMu, a mutex separate from the
// StateCell's; the StateCell mutex is not held during the swap.
type FinalizerQueue struct {
	nodes []Node
}

// newFinalizerQueue returns an empty queue, ready to receive swept
// nodes during the next cycle's sweep step.
func newFinalizerQueue() *FinalizerQueue {
	return &FinalizerQueue{}
}

// push appends a swept node. Called only by the sweeper, which runs
// while the world is stopped (spec 4.4 step 9); no synchronization is
// required here.
func (q *FinalizerQueue) push(n Node) {
	q.nodes = append(q.nodes, n)
}

// Empty reports whether the queue holds no pending nodes.
func (q *FinalizerQueue) Empty() bool {
	return q == nil || len(q.nodes) == 0
}

// Len reports the number of pending nodes.
func (q *FinalizerQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.nodes)
}

// Nodes returns the pending nodes. The caller owns the slice once it
// has swapped the queue out of the slot (see GC.drainFinalizers).
func (q *FinalizerQueue) Nodes() []Node {
	if q == nil {
		return nil
	}
	return q.nodes
}

// Finalizer runs user finalization logic for a single swept node.
// Finalizer exceptions are the finalizer's problem (spec 7): the
// queue-draining mutator does not attempt to recover them.
type Finalizer func(Node)

// drainFinalizers swaps the global finalizer queue slot with an empty
// container under g.finalizerMu, giving the calling mutator
// exclusive ownership of whatever had accumulated, then runs fn over
// every node outside the lock. Invariant 4 (spec 8): only one mutator
// can ever observe a nonempty result for a given queue, because the
// swap happens exactly once under the mutex.
func (g *GC) drainFinalizers(fn Finalizer) {
	g.finalizerMu.Lock()
	q := g.finalizers
	g.finalizers = newFinalizerQueue()
	g.finalizerMu.Unlock()

	if q.Empty() {
		return
	}
	start := g.cfg.clock.Now()
	for _, n := range q.Nodes() {
		fn(n)
	}
	g.log.Debug().
		Int(`count`, q.Len()).
		Dur(`took`, g.cfg.clock.Now().Sub(start)).
		Log(`gc: finalized queued objects`)
}
