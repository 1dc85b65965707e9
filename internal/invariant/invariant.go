// Package invariant is the debug-assertion layer for internal invariants.
//
// Checks panic only when assertions are enabled: in builds tagged with
// probeview_debug, or after Enable is called. Otherwise a failed check is
// reported to the registered handler and execution continues.
package invariant

import (
	"fmt"
	"sync/atomic"
)

var (
	enabled atomic.Bool
	handler atomic.Value // func(string)
)

func init() {
	enabled.Store(debugBuild)
}

// Enable turns failed checks into panics.
func Enable() { enabled.Store(true) }

// Disable restores release behaviour.
func Disable() { enabled.Store(false) }

// Enabled reports if failed checks panic.
func Enabled() bool { return enabled.Load() }

// OnViolation registers a function that receives messages of failed checks
// when assertions are disabled.
func OnViolation(fn func(msg string)) {
	handler.Store(fn)
}

// Check asserts the condition.
func Check(cond bool, format string, args ...interface{}) {
	if cond {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if enabled.Load() {
		panic("invariant violated: " + msg)
	}
	if fn, ok := handler.Load().(func(string)); ok && fn != nil {
		fn(msg)
	}
}
