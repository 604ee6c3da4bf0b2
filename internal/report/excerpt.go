package report

import (
	"strings"

	"btor2run/internal/utils"
)

const (
	excerptMaxLen   = 200
	excerptTailLine = 3
)

// errorExcerpt picks the lines of failing tool output most likely to explain
// the failure. When no line looks like an error, the last few lines are used.
func errorExcerpt(output string, maxLen int) string {
	output = utils.SanitizeOutput(output)
	if strings.TrimSpace(output) == "" || maxLen <= 0 {
		return ""
	}

	var picked []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if looksLikeError(line) {
			picked = append(picked, line)
		}
	}
	if len(picked) == 0 {
		picked = strings.Split(utils.LastLines(output, excerptTailLine), "\n")
		for i := range picked {
			picked[i] = strings.TrimSpace(picked[i])
		}
	}
	return utils.SafeTruncate(strings.Join(picked, " | "), maxLen)
}

func looksLikeError(line string) bool {
	lower := strings.ToLower(line)
	for _, marker := range []string{"error", "fail", "panic", "abort", "exception", "cannot", "not found", "unsupported", "timeout"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
