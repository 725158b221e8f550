package gc

import "github.com/joeycumines/logiface"

// fatal logs err at the Critical level, if a logger is configured, then
// terminates the process. Protocol violations (spec 7) and the "wake up
// in strange state" branch of the collector loop both route here; there
// is no recovery path for a corrupted state machine.
//
// The exit primitive is logiface.OsExit (an alias for os.Exit overridable
// in tests), reused rather than hand-rolled so the one fatal-error
// primitive the package imports is already part of its logging
// dependency.
func (g *GC) fatal(op string, err error) {
	if g.log != nil {
		g.log.Crit().Err(err).Str(`op`, op).Log(`gc: fatal protocol violation`)
	}
	logiface.OsExit(1)
}
