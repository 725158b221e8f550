package gc

import "fmt"

// ProtocolError marks a condition that can only arise if the phase
// state machine has been corrupted by something other than the
// collector (spec 7, "Protocol violations"). It is always fatal: the
// caller is expected to pass it to fatal(), never to recover from it.
type ProtocolError struct {
	Op       string
	Expected Phase
	Observed Phase
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("gc: protocol violation in %s: expected %s, observed %s", e.Op, e.Expected, e.Observed)
}

// errSuspensionDenied is logged by performFullGC, which then returns
// false, when RequestSuspension reports a peer collector is already
// running (spec 4.4 step 1, an expected denial rather than a protocol
// violation).
var errSuspensionDenied = fmt.Errorf("gc: suspension request denied, a collector is already running")
