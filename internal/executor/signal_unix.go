//go:build unix

package executor

import (
	"os"
	"syscall"
)

// sendTermSignal asks the child to stop; os/exec escalates to SIGKILL once
// cmd.WaitDelay has passed.
func sendTermSignal(proc *os.Process) error {
	if proc == nil {
		return nil
	}
	return proc.Signal(syscall.SIGTERM)
}

// exitCodeOf reports 128+signal for children killed by a signal, matching
// what a shell would print.
func exitCodeOf(state *os.ProcessState) int {
	if state == nil {
		return ExitLaunchFailed
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}
