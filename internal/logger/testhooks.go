package logger

import (
	"os"
	"path/filepath"
	"time"
)

// swapHook installs fn (or def when fn is nil) into *slot and returns a
// restore func suitable for t.Cleanup.
func swapHook[T any](slot *T, fn T, isNil bool, def T) (restore func()) {
	prev := *slot
	if isNil {
		*slot = def
	} else {
		*slot = fn
	}
	return func() { *slot = prev }
}

func SetProcessRunningCheck(fn func(int) bool) (restore func()) {
	return swapHook(&processRunningCheck, fn, fn == nil, isProcessRunning)
}

func SetProcessStartTimeFn(fn func(int) time.Time) (restore func()) {
	return swapHook(&processStartTimeFn, fn, fn == nil, getProcessStartTime)
}

func SetRemoveLogFileFn(fn func(string) error) (restore func()) {
	return swapHook(&removeLogFileFn, fn, fn == nil, os.Remove)
}

func SetGlobLogFilesFn(fn func(string) ([]string, error)) (restore func()) {
	return swapHook(&globLogFiles, fn, fn == nil, filepath.Glob)
}

func SetFileStatFn(fn func(string) (os.FileInfo, error)) (restore func()) {
	return swapHook(&fileStatFn, fn, fn == nil, os.Lstat)
}

func SetEvalSymlinksFn(fn func(string) (string, error)) (restore func()) {
	return swapHook(&evalSymlinksFn, fn, fn == nil, filepath.EvalSymlinks)
}
