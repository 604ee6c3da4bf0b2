package logger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// staleLogAge is how old a log must be before it is removed when the owning
// process start time cannot be determined.
const staleLogAge = 7 * 24 * time.Hour

var (
	processRunningCheck = isProcessRunning
	processStartTimeFn  = getProcessStartTime
	removeLogFileFn     = os.Remove
	globLogFiles        = filepath.Glob
	fileStatFn          = os.Lstat
	evalSymlinksFn      = filepath.EvalSymlinks
)

// CleanupStats summarizes a CleanupOldLogs pass.
type CleanupStats struct {
	Scanned      int
	Deleted      int
	Kept         int
	Errors       int
	DeletedFiles []string
	KeptFiles    []string
}

// CleanupOldLogs removes wrapper logs in os.TempDir() whose owning process is
// gone. Logs of live processes, unparseable names and anything that is not a
// regular file inside the temp dir are kept.
func CleanupOldLogs() (CleanupStats, error) {
	var stats CleanupStats
	tempDir := os.TempDir()

	var matches []string
	for _, prefix := range LogPrefixes() {
		found, err := globLogFiles(filepath.Join(tempDir, prefix+"-*.log"))
		if err != nil {
			logWarnf("cleanupOldLogs: glob failed: %v", err)
			return stats, fmt.Errorf("cleanupOldLogs: %w", err)
		}
		matches = append(matches, found...)
	}

	var removeErrs []error
	for _, path := range matches {
		stats.Scanned++

		pid, ok := parsePIDFromLog(path)
		if !ok {
			stats.keep(path)
			continue
		}
		if unsafe, reason := isUnsafeFile(path, tempDir); unsafe {
			logWarnf("cleanupOldLogs: skipping %s: %s", path, reason)
			stats.keep(path)
			continue
		}
		if processRunningCheck(pid) && !isPIDReused(path, pid) {
			stats.keep(path)
			continue
		}

		if err := removeLogFileFn(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				stats.Deleted++
				stats.DeletedFiles = append(stats.DeletedFiles, path)
				continue
			}
			stats.Errors++
			removeErrs = append(removeErrs, fmt.Errorf("remove %s: %w", path, err))
			continue
		}
		stats.Deleted++
		stats.DeletedFiles = append(stats.DeletedFiles, path)
	}

	if len(removeErrs) > 0 {
		return stats, fmt.Errorf("cleanupOldLogs: %w", errors.Join(removeErrs...))
	}
	return stats, nil
}

func (s *CleanupStats) keep(path string) {
	s.Kept++
	s.KeptFiles = append(s.KeptFiles, path)
}

// isPIDReused reports whether the log predates the process that currently
// owns its PID. With no start time available, only logs older than
// staleLogAge count as reused.
func isPIDReused(logPath string, pid int) bool {
	info, err := fileStatFn(logPath)
	if err != nil {
		return false
	}
	start := processStartTimeFn(pid)
	if start.IsZero() {
		return time.Since(info.ModTime()) > staleLogAge
	}
	return info.ModTime().Before(start)
}

func isUnsafeFile(path string, tempDir string) (bool, string) {
	info, err := fileStatFn(path)
	if err != nil {
		return true, fmt.Sprintf("stat failed: %v", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return true, "refusing to delete symlink"
	}

	resolved, err := evalSymlinksFn(path)
	if err != nil {
		return true, fmt.Sprintf("resolve failed: %v", err)
	}
	resolved, err = filepath.Abs(resolved)
	if err != nil {
		return true, fmt.Sprintf("resolve failed: %v", err)
	}

	base, err := filepath.Abs(tempDir)
	if err != nil {
		return true, fmt.Sprintf("resolve tempDir failed: %v", err)
	}
	if real, err := filepath.EvalSymlinks(base); err == nil {
		base = real
	}

	rel, err := filepath.Rel(base, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return true, "file is outside tempDir"
	}
	return false, ""
}

// parsePIDFromLog extracts the PID from "<prefix>-<pid>[-suffix].log".
func parsePIDFromLog(path string) (int, bool) {
	name := filepath.Base(path)
	if !strings.HasSuffix(name, ".log") {
		return 0, false
	}
	for _, prefix := range LogPrefixes() {
		rest, ok := strings.CutPrefix(name, prefix+"-")
		if !ok {
			continue
		}
		end := 0
		for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
			end++
		}
		if end == 0 {
			return 0, false
		}
		if next := rest[end]; next != '-' && next != '.' {
			return 0, false
		}
		pid, err := strconv.Atoi(rest[:end])
		if err != nil || pid <= 0 {
			return 0, false
		}
		return pid, true
	}
	return 0, false
}
