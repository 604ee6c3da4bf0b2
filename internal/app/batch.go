package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	config "btor2run/internal/config"
	"btor2run/internal/executor"
	"btor2run/internal/report"

	"github.com/spf13/afero"
)

// appFs backs discovery, log files and the JSON summary.
var appFs = afero.NewOsFs()

// runBatch discovers inputs, runs them through the worker pool and reports.
// It returns exitFatal when discovery or log directory setup fails, in which
// case no task runs.
func runBatch(ctx context.Context, cfg config.Config) int {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	items, err := executor.Discover(appFs, cfg.RootDir, cfg.Extension)
	if err != nil {
		var de *executor.DiscoveryError
		if errors.As(err, &de) {
			fmt.Fprintf(stderr, "ERROR: root directory %s: %v\n", de.Root, de.Err)
		} else {
			fmt.Fprintf(stderr, "ERROR: %v\n", err)
		}
		logErrorf("Discovery failed: %v", err)
		return exitFatal
	}

	if err := appFs.MkdirAll(cfg.LogDir, 0o755); err != nil {
		fmt.Fprintf(stderr, "ERROR: create log directory %s: %v\n", cfg.LogDir, err)
		logErrorf("Create log directory: %v", err)
		return exitFatal
	}

	limit := executor.EffectiveLimit(cfg.ConcurrencyLimit)
	logInfof("Running %d task(s) with %s, concurrency %d", len(items), cfg.Command, limit)

	ex := &executor.Executor{
		Command: cfg.Command,
		LogDir:  cfg.LogDir,
		Fs:      appFs,
		Timeout: cfg.Timeout,
		Stream:  cfg.Stream,
	}

	var active, peak atomic.Int32
	outcomes := executor.RunAll(ctx, items, limit, ex.Execute,
		executor.WithLogDir(cfg.LogDir),
		executor.WithOnStart(func(executor.WorkItem) {
			cur := active.Add(1)
			for {
				p := peak.Load()
				if cur <= p || peak.CompareAndSwap(p, cur) {
					return
				}
			}
		}),
		executor.WithOnFinish(func(o executor.TaskOutcome) {
			active.Add(-1)
			if !o.Succeeded() {
				logWarnf("Task %s failed: reason=%s exit=%d %s", o.Item.Path, o.Reason, o.ExitCode, o.Error)
			}
		}),
	)
	if ctx.Err() != nil {
		logWarn("Batch interrupted; remaining tasks were cancelled")
	}

	reporter := &report.Reporter{
		Out:      stdout,
		Excerpts: cfg.Excerpts,
		Command:  cfg.Command,
		Root:     cfg.RootDir,
		Started:  started,
	}
	summary := reporter.Report(outcomes)
	summary.Concurrency = limit
	summary.PeakActive = int(peak.Load())
	logInfo(summary.Totals())

	exitCode := summary.ExitCode()
	if cfg.SummaryJSON != "" {
		if err := report.WriteJSONFile(appFs, cfg.SummaryJSON, summary); err != nil {
			fmt.Fprintf(stderr, "ERROR: %v\n", err)
			logErrorf("Write summary: %v", err)
			exitCode = exitFailed
		}
	}
	if cfg.MetricsFile != "" {
		if err := report.WriteMetricsFile(cfg.MetricsFile, summary); err != nil {
			fmt.Fprintf(stderr, "ERROR: %v\n", err)
			logErrorf("Write metrics: %v", err)
			exitCode = exitFailed
		}
	}
	return exitCode
}
