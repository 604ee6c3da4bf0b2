package parser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
)

const (
	lineReaderSize   = 64 * 1024
	lineMaxBytes     = 1024 * 1024
	linePreviewBytes = 256
)

type lineScratch struct {
	buf     []byte
	preview []byte
}

const maxPooledLineScratchCap = 1 << 20 // 1 MiB

var lineScratchPool = sync.Pool{
	New: func() any {
		return &lineScratch{
			buf:     make([]byte, 0, lineReaderSize),
			preview: make([]byte, 0, linePreviewBytes),
		}
	},
}

// ParseVerdicts scans checker output for "{STATUS, INDEX}" lines. Lines that
// do not look like verdicts are ignored; overlong lines are reported through
// warnFn and skipped. A property reported SAT stays SAT even if a later line
// reports it otherwise.
func ParseVerdicts(r io.Reader, warnFn func(string)) []Verdict {
	if r == nil {
		return nil
	}
	if warnFn == nil {
		warnFn = func(string) {}
	}

	reader := bufio.NewReaderSize(r, lineReaderSize)
	scratch := lineScratchPool.Get().(*lineScratch)
	defer func() {
		if cap(scratch.buf) > maxPooledLineScratchCap {
			scratch.buf = nil
		} else if scratch.buf != nil {
			scratch.buf = scratch.buf[:0]
		}
		scratch.preview = scratch.preview[:0]
		lineScratchPool.Put(scratch)
	}()

	byIndex := make(map[int]Status)
	for {
		line, tooLong, err := readLineWithLimit(reader, lineMaxBytes, linePreviewBytes, scratch)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				warnFn("Read output error: " + err.Error())
			}
			break
		}
		if tooLong {
			warnFn(fmt.Sprintf("Skipped overlong output line (> %d bytes): %s", lineMaxBytes, TruncateBytes(line, 100)))
			continue
		}

		v, ok := ParseVerdictLine(line)
		if !ok {
			continue
		}
		if prev, seen := byIndex[v.Index]; seen && prev == StatusSAT {
			continue
		}
		byIndex[v.Index] = v.Status
	}

	if len(byIndex) == 0 {
		return nil
	}
	out := make([]Verdict, 0, len(byIndex))
	for idx, st := range byIndex {
		out = append(out, Verdict{Index: idx, Status: st})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// ParseVerdictLine parses a single "{STATUS, INDEX}" line.
func ParseVerdictLine(line []byte) (Verdict, bool) {
	line = bytes.TrimSpace(line)
	if len(line) < 5 || line[0] != '{' || line[len(line)-1] != '}' {
		return Verdict{}, false
	}
	status, index, ok := strings.Cut(string(line[1:len(line)-1]), ",")
	if !ok {
		return Verdict{}, false
	}
	status = strings.TrimSpace(status)
	if status == "" || strings.IndexFunc(status, notStatusRune) >= 0 {
		return Verdict{}, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(index))
	if err != nil || n < 0 {
		return Verdict{}, false
	}
	return Verdict{Index: n, Status: normalizeStatus(status)}, true
}

func notStatusRune(r rune) bool {
	return !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_')
}

func readLineWithLimit(r *bufio.Reader, maxBytes int, previewBytes int, scratch *lineScratch) (line []byte, tooLong bool, err error) {
	if r == nil {
		return nil, false, errors.New("reader is nil")
	}
	if maxBytes <= 0 {
		return nil, false, errors.New("maxBytes must be > 0")
	}
	if previewBytes < 0 {
		previewBytes = 0
	}

	part, isPrefix, err := r.ReadLine()
	if err != nil {
		return nil, false, err
	}
	if !isPrefix {
		if len(part) > maxBytes {
			return part[:min(len(part), previewBytes)], true, nil
		}
		return part, false, nil
	}

	if scratch == nil {
		scratch = &lineScratch{}
	}
	preview := append(scratch.preview[:0], part[:min(previewBytes, len(part))]...)
	buf := scratch.buf[:0]
	if len(part) > maxBytes {
		tooLong = true
	} else {
		buf = append(buf, part...)
	}

	for isPrefix {
		part, isPrefix, err = r.ReadLine()
		if err != nil {
			return nil, tooLong, err
		}
		if len(preview) < previewBytes {
			preview = append(preview, part[:min(previewBytes-len(preview), len(part))]...)
		}
		if tooLong {
			continue
		}
		if len(buf)+len(part) > maxBytes {
			tooLong = true
			continue
		}
		buf = append(buf, part...)
	}

	scratch.preview = preview
	scratch.buf = buf
	if tooLong {
		return preview, true, nil
	}
	return buf, false, nil
}

func TruncateBytes(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	if maxLen < 0 {
		return ""
	}
	return string(b[:maxLen]) + "..."
}
