// Package gc implements the coordination core of a stop-the-world,
// non-moving, precise mark-and-sweep collector: the phase state machine
// shared between mutators and the collector goroutine, the safepoint
// protocol that suspends and resumes mutators, the collection cycle
// itself, and the finalizer hand-off queue.
//
// Deliberately out of scope: object/heap layout, root-set enumeration,
// the thread registry's low-level suspend/resume primitive, and the
// policy that decides when to ask for a GC. Those are modeled as the
// capability interfaces in capabilities.go and supplied by the host.
//
// The collector works with or without native threads: construct a GC
// with WithSynchronous to run every cycle inline on the calling mutator
// instead of a dedicated collector goroutine.
//
// Concurrency model: one StateCell, one optional collector goroutine,
// any number of mutators. The StateCell's mutex is held briefly around
// phase transitions and wait predicates; mutators read the hot-path
// needSlowPath flag without it. Two further mutexes exist: GC's
// finalizerMu guards the finalizer queue slot, and Metrics has its own.
package gc
