package app

import (
	"fmt"
	"sync"
)

var (
	cleanupWG   sync.WaitGroup
	cleanupOnce sync.Once
)

// scheduleStartupCleanup removes stale wrapper logs in the background while
// the batch runs. It runs at most once per process.
func scheduleStartupCleanup() {
	cleanupOnce.Do(func() {
		cleanupWG.Add(1)
		go func() {
			defer cleanupWG.Done()
			stats, err := cleanupFn()
			if err != nil {
				logWarn("Startup log cleanup: " + err.Error())
				return
			}
			if stats.Deleted > 0 {
				logInfo(formatCleanupStats(stats))
			}
		}()
	})
}

// runCleanupHook waits for the startup cleanup so it never outlives the
// logger.
func runCleanupHook() { cleanupWG.Wait() }

func runCleanupMode() int {
	stats, err := cleanupFn()
	fmt.Fprintln(stdout, formatCleanupStats(stats))
	for _, f := range stats.DeletedFiles {
		fmt.Fprintf(stdout, "  deleted %s\n", f)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: log cleanup: %v\n", err)
		return 1
	}
	return 0
}

func formatCleanupStats(s CleanupStats) string {
	return fmt.Sprintf("Log cleanup: scanned=%d deleted=%d kept=%d errors=%d", s.Scanned, s.Deleted, s.Kept, s.Errors)
}
