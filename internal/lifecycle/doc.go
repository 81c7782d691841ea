// Package lifecycle hosts a blocking task inside the logging subsystem's
// asynchronous start/stop protocol.
//
// The Coordinator moves through an explicit state sequence:
//
//	Created -> Activating -> Ready -> TaskRunning -> Deactivating -> Stopped -> Released
//
// Activation and deactivation hand back a *Completion. A facility that is
// already done returns a completed value; one that finishes later completes
// it from its own goroutine. The coordinator waits on both the same way, so
// each transition happens exactly once regardless of timing.
package lifecycle
