package executor

import "bytes"

// streamLineLimit caps a single mirrored output line in the wrapper log.
const streamLineLimit = 1000

// logWriter splits child output into lines and mirrors each one into the
// wrapper log with a per-task prefix. Lines longer than maxLen are cut and
// marked with "...".
type logWriter struct {
	prefix  string
	maxLen  int
	buf     bytes.Buffer
	dropped bool
}

func newLogWriter(prefix string, maxLen int) *logWriter {
	if maxLen <= 0 {
		maxLen = streamLineLimit
	}
	return &logWriter{prefix: prefix, maxLen: maxLen}
}

func (lw *logWriter) Write(p []byte) (int, error) {
	if lw == nil {
		return len(p), nil
	}
	total := len(p)
	for len(p) > 0 {
		idx := bytes.IndexByte(p, '\n')
		if idx < 0 {
			lw.writeLimited(p)
			break
		}
		lw.writeLimited(p[:idx])
		lw.emit(true)
		p = p[idx+1:]
	}
	return total, nil
}

// Flush emits a trailing partial line, if any.
func (lw *logWriter) Flush() {
	if lw == nil || lw.buf.Len() == 0 {
		return
	}
	lw.emit(false)
}

func (lw *logWriter) emit(force bool) {
	line := string(bytes.TrimRight(lw.buf.Bytes(), "\r"))
	truncated := lw.dropped
	lw.dropped = false
	lw.buf.Reset()
	if line == "" && !force {
		return
	}
	if truncated {
		if lw.maxLen > 3 {
			line = line[:min(len(line), lw.maxLen-3)] + "..."
		} else {
			line = line[:min(len(line), lw.maxLen)]
		}
	}
	logDebug(lw.prefix + line)
}

func (lw *logWriter) writeLimited(p []byte) {
	if len(p) == 0 {
		return
	}
	remaining := lw.maxLen - lw.buf.Len()
	if remaining <= 0 {
		lw.dropped = true
		return
	}
	if len(p) <= remaining {
		lw.buf.Write(p)
		return
	}
	lw.buf.Write(p[:remaining])
	lw.dropped = true
}

// tailBuffer keeps only the last limit bytes written to it.
type tailBuffer struct {
	limit int
	data  []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	if b.limit <= 0 {
		return len(p), nil
	}
	if len(p) >= b.limit {
		b.data = append(b.data[:0], p[len(p)-b.limit:]...)
		return len(p), nil
	}
	if overflow := len(b.data) + len(p) - b.limit; overflow > 0 {
		b.data = append(b.data[:0], b.data[overflow:]...)
	}
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *tailBuffer) String() string {
	return string(b.data)
}
