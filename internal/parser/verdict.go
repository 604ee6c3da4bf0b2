package parser

import (
	"fmt"
	"sort"
	"strings"
)

// Status is the checker's answer for one property.
type Status string

const (
	StatusSAT   Status = "SAT"
	StatusUNSAT Status = "UNSAT"
)

// earlyStopPrefix marks a bounded run that stopped before finding a witness;
// it is reported as UNSAT.
const earlyStopPrefix = "EARLY_STOP_K_"

// Verdict is one "{STATUS, INDEX}" line of checker output.
type Verdict struct {
	Index  int    `json:"index"`
	Status Status `json:"status"`
}

func normalizeStatus(raw string) Status {
	if strings.HasPrefix(raw, earlyStopPrefix) {
		return StatusUNSAT
	}
	return Status(raw)
}

// CountByStatus tallies verdicts per status.
func CountByStatus(verdicts []Verdict) map[Status]int {
	if len(verdicts) == 0 {
		return nil
	}
	counts := make(map[Status]int)
	for _, v := range verdicts {
		counts[v.Status]++
	}
	return counts
}

// FormatCounts renders counts as "sat=1 unsat=2", statuses sorted by name.
func FormatCounts(counts map[Status]int) string {
	if len(counts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(counts))
	for st := range counts {
		keys = append(keys, string(st))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", strings.ToLower(k), counts[Status(k)]))
	}
	return strings.Join(parts, " ")
}
