package executor

import (
	"path/filepath"
	"strings"
	"time"

	"btor2run/internal/parser"
)

// ExitLaunchFailed is the exit code recorded when the command never started.
const ExitLaunchFailed = -1

// FailureReason classifies a failed outcome. The zero value means success.
type FailureReason string

const (
	ReasonNone          FailureReason = ""
	ReasonNonZeroExit   FailureReason = "non_zero_exit"
	ReasonLaunchError   FailureReason = "launch_error"
	ReasonLogWriteError FailureReason = "log_write_error"
	ReasonCancelled     FailureReason = "cancelled"
	ReasonTimeout       FailureReason = "timeout"
)

// WorkItem is one discovered input file.
type WorkItem struct {
	Path string `json:"path"`
	// Name is the base file name; discovery deduplicates on it.
	Name string `json:"name"`
}

// NewWorkItem builds a WorkItem for path.
func NewWorkItem(path string) WorkItem {
	return WorkItem{Path: path, Name: filepath.Base(path)}
}

// Stem is the base name without its final extension. A name that is nothing
// but an extension (".btor2") is its own stem.
func (w WorkItem) Stem() string {
	name := w.Name
	if name == "" {
		name = filepath.Base(w.Path)
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if stem == "" {
		return name
	}
	return stem
}

// LogPathFor returns <logDir>/<stem>.log for item.
func LogPathFor(logDir string, item WorkItem) string {
	return filepath.Join(logDir, item.Stem()+".log")
}

// TaskOutcome is the result of executing one WorkItem.
type TaskOutcome struct {
	Item     WorkItem `json:"item"`
	ExitCode int      `json:"exit_code"`
	LogPath  string   `json:"log_path"`
	// LogWritten is false when no log exists at LogPath, e.g. for items
	// cancelled before they started.
	LogWritten bool             `json:"log_written"`
	Reason     FailureReason    `json:"reason,omitempty"`
	Error      string           `json:"error,omitempty"`
	Verdicts   []parser.Verdict `json:"verdicts,omitempty"`
	// Tail holds the last bytes of captured output, used for failure excerpts.
	Tail     string        `json:"-"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration_ns"`
}

// Succeeded reports whether the command exited 0 and its output was saved.
func (o TaskOutcome) Succeeded() bool {
	return o.ExitCode == 0 && o.Reason == ReasonNone
}

func cancelledOutcome(item WorkItem, logDir string, err error) TaskOutcome {
	out := TaskOutcome{
		Item:     item,
		ExitCode: ExitLaunchFailed,
		Reason:   ReasonCancelled,
		Started:  time.Now(),
	}
	if logDir != "" {
		out.LogPath = LogPathFor(logDir, item)
	}
	if err != nil {
		out.Error = err.Error()
	}
	return out
}
