//go:build unix

package executor

import (
	"math"

	"golang.org/x/sys/unix"
)

const (
	// fdsPerTask covers the output pipe, /dev/null stdin, the pidfd and the
	// log file a running task may hold at once.
	fdsPerTask = 4
	// reservedFDs is left for stdio, the wrapper log and the runtime.
	reservedFDs = 64
)

// hostTaskCapacity derives the concurrent task capacity from RLIMIT_NOFILE.
// ok is false when the limit is unknown or effectively unlimited.
func hostTaskCapacity() (int, bool) {
	var rl unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return 0, false
	}
	cur := uint64(rl.Cur)
	if cur >= math.MaxInt32 {
		return 0, false
	}
	if cur <= reservedFDs {
		return 1, true
	}
	return int((cur - reservedFDs) / fdsPerTask), true
}
