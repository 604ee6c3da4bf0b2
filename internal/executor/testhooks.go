package executor

import (
	"context"
	"os/exec"
	"sync/atomic"
)

// forceKillDelay is how many seconds a cancelled child gets between SIGTERM
// and SIGKILL.
var forceKillDelay atomic.Int32

func init() { forceKillDelay.Store(5) }

var commandContext = exec.CommandContext

var hostCapacityFn = hostTaskCapacity

func SetForceKillDelay(seconds int32) (restore func()) {
	prev := forceKillDelay.Load()
	forceKillDelay.Store(seconds)
	return func() { forceKillDelay.Store(prev) }
}

func SetCommandContextFn(fn func(context.Context, string, ...string) *exec.Cmd) (restore func()) {
	prev := commandContext
	if fn != nil {
		commandContext = fn
	} else {
		commandContext = exec.CommandContext
	}
	return func() { commandContext = prev }
}

// SetHostCapacityFn replaces the host capacity lookup EffectiveLimit uses to size the pool.
func SetHostCapacityFn(fn func() (int, bool)) (restore func()) {
	prev := hostCapacityFn
	if fn != nil {
		hostCapacityFn = fn
	} else {
		hostCapacityFn = hostTaskCapacity
	}
	return func() { hostCapacityFn = prev }
}
