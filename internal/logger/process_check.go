package logger

import (
	"errors"
	"math"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

func toPID32(pid int) (int32, bool) {
	if pid <= 0 || pid > math.MaxInt32 {
		return 0, false
	}
	return int32(pid), true
}

// isProcessRunning errs on the side of "running": a log is only removed
// once gopsutil positively reports the PID as gone.
func isProcessRunning(pid int) bool {
	pid32, ok := toPID32(pid)
	if !ok {
		return false
	}
	exists, err := process.PidExists(pid32)
	switch {
	case err == nil:
		return exists
	case errors.Is(err, process.ErrorProcessNotRunning):
		return false
	default:
		return true
	}
}

// getProcessStartTime returns the zero time when the start time is unknown.
func getProcessStartTime(pid int) time.Time {
	pid32, ok := toPID32(pid)
	if !ok {
		return time.Time{}
	}
	proc, err := process.NewProcess(pid32)
	if err != nil {
		return time.Time{}
	}
	ms, err := proc.CreateTime()
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
