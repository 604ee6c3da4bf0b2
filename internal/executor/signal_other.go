//go:build !unix

package executor

import "os"

// sendTermSignal kills the child; there is no portable SIGTERM outside unix
// so the child is stopped outright.
func sendTermSignal(proc *os.Process) error {
	if proc == nil {
		return nil
	}
	return proc.Kill()
}

func exitCodeOf(state *os.ProcessState) int {
	if state == nil {
		return ExitLaunchFailed
	}
	return state.ExitCode()
}
