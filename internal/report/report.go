// Package report turns task outcomes into console lines, a JSON summary and
// Prometheus textfile metrics.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"btor2run/internal/executor"
	"btor2run/internal/parser"

	"github.com/google/uuid"
)

// Summary aggregates one batch.
type Summary struct {
	RunID     string        `json:"run_id"`
	Command   string        `json:"command,omitempty"`
	Root      string        `json:"root,omitempty"`
	Started   time.Time     `json:"started"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	// Concurrency is the pool limit actually used; PeakActive the highest
	// number of tasks observed running at once.
	Concurrency int                    `json:"concurrency,omitempty"`
	PeakActive  int                    `json:"peak_active,omitempty"`
	ByReason    map[string]int         `json:"by_reason,omitempty"`
	Verdicts    map[parser.Status]int  `json:"verdicts,omitempty"`
	Outcomes    []executor.TaskOutcome `json:"outcomes"`
}

// ExitCode is 0 when every task succeeded and 1 otherwise.
func (s Summary) ExitCode() int {
	if s.Failed > 0 {
		return 1
	}
	return 0
}

// Reporter writes one status line per outcome to Out.
type Reporter struct {
	Out io.Writer
	// Excerpts appends a short error excerpt from the output tail to
	// failure lines.
	Excerpts bool
	Command  string
	Root     string
	Started  time.Time
}

// Report sorts outcomes by input path, prints them and returns the summary.
// The outcomes slice is sorted in place.
func (r *Reporter) Report(outcomes []executor.TaskOutcome) Summary {
	sort.SliceStable(outcomes, func(i, j int) bool {
		return outcomes[i].Item.Path < outcomes[j].Item.Path
	})

	s := Summary{
		RunID:    uuid.NewString(),
		Command:  r.Command,
		Root:     r.Root,
		Started:  r.Started,
		Total:    len(outcomes),
		Outcomes: outcomes,
	}
	if !r.Started.IsZero() {
		s.Elapsed = time.Since(r.Started)
	}

	for _, o := range outcomes {
		if o.Succeeded() {
			s.Succeeded++
		} else {
			s.Failed++
			if s.ByReason == nil {
				s.ByReason = make(map[string]int)
			}
			s.ByReason[string(o.Reason)]++
		}
		for st, n := range parser.CountByStatus(o.Verdicts) {
			if s.Verdicts == nil {
				s.Verdicts = make(map[parser.Status]int)
			}
			s.Verdicts[st] += n
		}
		if r.Out != nil {
			fmt.Fprintln(r.Out, r.line(o))
		}
	}
	return s
}

func (r *Reporter) line(o executor.TaskOutcome) string {
	path := o.Item.Path
	if o.Succeeded() {
		line := fmt.Sprintf("Command for %s completed successfully. Output saved to %s.", path, o.LogPath)
		if counts := parser.FormatCounts(parser.CountByStatus(o.Verdicts)); counts != "" {
			line += " [" + counts + "]"
		}
		return line
	}

	var line string
	switch o.Reason {
	case executor.ReasonNonZeroExit:
		line = fmt.Sprintf("Command for %s failed with return code %d. Check %s for details.", path, o.ExitCode, o.LogPath)
	case executor.ReasonTimeout:
		line = fmt.Sprintf("Command for %s failed: timeout (return code %d). Check %s for details.", path, o.ExitCode, o.LogPath)
	default:
		line = fmt.Sprintf("Command for %s failed: %s", path, o.Reason)
		if o.Error != "" {
			line += " (" + o.Error + ")"
		}
		line += "."
		if o.LogWritten {
			line += fmt.Sprintf(" Check %s for details.", o.LogPath)
		}
	}
	if r.Excerpts {
		if ex := errorExcerpt(o.Tail, excerptMaxLen); ex != "" {
			line += "\n    " + ex
		}
	}
	return line
}

// Totals renders the closing summary line.
func (s Summary) Totals() string {
	line := fmt.Sprintf("%d task(s): %d succeeded, %d failed.", s.Total, s.Succeeded, s.Failed)
	if counts := parser.FormatCounts(s.Verdicts); counts != "" {
		line += " Verdicts: " + counts + "."
	}
	return line
}
