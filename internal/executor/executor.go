package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"btor2run/internal/parser"

	"github.com/spf13/afero"
)

const (
	defaultTailBytes = 4 * 1024
	logFileMode      = 0o644
)

// Executor runs the verification command for one WorkItem at a time and
// persists its merged output. It holds no per-run state and is safe to share
// between goroutines.
type Executor struct {
	// Command is the executable; the input path is its only argument.
	Command string
	LogDir  string
	// Fs receives the log files. Nil means the OS filesystem.
	Fs afero.Fs
	// Timeout bounds a single run. Zero means no limit.
	Timeout time.Duration
	// Stream mirrors every output line into the wrapper log at debug level.
	Stream bool
	// TailBytes is how much trailing output is kept on the outcome.
	TailBytes int
}

func (e *Executor) fs() afero.Fs {
	if e.Fs == nil {
		return afero.NewOsFs()
	}
	return e.Fs
}

func (e *Executor) tailBytes() int {
	if e.TailBytes <= 0 {
		return defaultTailBytes
	}
	return e.TailBytes
}

// Execute launches Command with item.Path, waits for it, and writes the
// captured stdout+stderr to LogPathFor(LogDir, item), replacing any previous
// log. Every failure is reported on the returned outcome; Execute never
// panics or returns an error.
func (e *Executor) Execute(ctx context.Context, item WorkItem) (out TaskOutcome) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return cancelledOutcome(item, e.LogDir, err)
	}

	out = TaskOutcome{
		Item:    item,
		LogPath: LogPathFor(e.LogDir, item),
		Started: time.Now(),
	}
	defer func() { out.Duration = time.Since(out.Started) }()

	runCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	var captured bytes.Buffer
	tail := &tailBuffer{limit: e.tailBytes()}
	writers := []io.Writer{&captured, tail}
	var stream *logWriter
	if e.Stream {
		stream = newLogWriter(fmt.Sprintf("[%s] ", item.Name), 0)
		writers = append(writers, stream)
	}
	// A single comparable writer for both streams makes os/exec copy them
	// through one pipe, preserving interleaving.
	merged := io.MultiWriter(writers...)

	cmd := commandContext(runCtx, e.Command, item.Path)
	cmd.Stdout = merged
	cmd.Stderr = merged
	cmd.Cancel = func() error { return sendTermSignal(cmd.Process) }
	cmd.WaitDelay = time.Duration(forceKillDelay.Load()) * time.Second

	logDebugf("Starting %s %s", e.Command, item.Path)
	runErr := cmd.Run()
	stream.Flush()

	out.ExitCode, out.Reason, out.Error = classifyRun(cmd, runErr)
	// A child that traps SIGTERM can exit 0; Run still reports the context
	// error, and the run must not count as a success.
	if runErr != nil && (out.Reason == ReasonNone || out.Reason == ReasonNonZeroExit) {
		switch {
		case ctx.Err() != nil:
			out.Reason = ReasonCancelled
		case runCtx.Err() != nil:
			out.Reason = ReasonTimeout
			out.Error = fmt.Sprintf("timed out after %s", e.Timeout)
		}
	}

	if out.Reason != ReasonLaunchError {
		out.Verdicts = parser.ParseVerdicts(bytes.NewReader(captured.Bytes()), logWarn)
		out.Tail = tail.String()
	}

	if err := e.writeLog(out.LogPath, captured.Bytes()); err != nil {
		msg := fmt.Sprintf("write log %s: %v", out.LogPath, err)
		if out.Reason == ReasonLaunchError {
			out.Error += "; " + msg
		} else {
			out.Reason = ReasonLogWriteError
			out.Error = msg
		}
		logWarn(msg)
	} else {
		out.LogWritten = true
	}

	logDebugf("Finished %s: exit=%d reason=%q", item.Path, out.ExitCode, out.Reason)
	return out
}

// classifyRun maps the result of cmd.Run onto an exit code and reason.
func classifyRun(cmd *exec.Cmd, err error) (int, FailureReason, string) {
	if err == nil {
		return 0, ReasonNone, ""
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitCodeOf(exitErr.ProcessState), ReasonNonZeroExit, ""
	}

	if cmd.ProcessState != nil {
		// The child ran; the error came from I/O teardown (e.g. WaitDelay).
		code := exitCodeOf(cmd.ProcessState)
		if code == 0 {
			return 0, ReasonNone, ""
		}
		return code, ReasonNonZeroExit, err.Error()
	}

	return ExitLaunchFailed, ReasonLaunchError, err.Error()
}

func (e *Executor) writeLog(path string, data []byte) error {
	return afero.WriteFile(e.fs(), path, data, logFileMode)
}
