package logger

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// maxErrorEntries bounds the in-memory ring of warn/error messages that is
// echoed to stderr when a run fails.
const maxErrorEntries = 100

// Logger writes JSON lines to a per-process file under os.TempDir().
// All methods are safe for concurrent use and tolerate a nil receiver.
type Logger struct {
	path string
	file *os.File

	mu     sync.Mutex
	buf    *bufio.Writer
	closed bool

	zl        zerolog.Logger
	closeOnce sync.Once
	closeErr  error

	errMu      sync.Mutex
	errEntries []string
}

// NewLogger creates $TMPDIR/btor2run-<pid>.log.
func NewLogger() (*Logger, error) {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("%s-%d.log", PrimaryLogPrefix(), os.Getpid()))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create log file %s: %w", path, err)
	}

	l := &Logger{
		path: path,
		file: f,
		buf:  bufio.NewWriterSize(f, 32*1024),
	}
	l.zl = zerolog.New(lockedWriter{l}).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Int("pid", os.Getpid()).
		Logger()
	return l, nil
}

// lockedWriter serializes zerolog events onto the buffered file writer.
// zerolog emits one Write per event, so each event stays on its own line.
type lockedWriter struct{ l *Logger }

func (w lockedWriter) Write(p []byte) (int, error) {
	w.l.mu.Lock()
	defer w.l.mu.Unlock()
	if w.l.closed {
		return len(p), nil
	}
	return w.l.buf.Write(p)
}

// Path returns the log file path, or "" for a nil logger.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

func (l *Logger) Debug(msg string) { l.log(zerolog.DebugLevel, msg) }

func (l *Logger) Info(msg string) { l.log(zerolog.InfoLevel, msg) }

func (l *Logger) Warn(msg string) { l.log(zerolog.WarnLevel, msg) }

func (l *Logger) Error(msg string) { l.log(zerolog.ErrorLevel, msg) }

func (l *Logger) log(level zerolog.Level, msg string) {
	if l == nil || l.file == nil {
		return
	}
	l.zl.WithLevel(level).Msg(msg)
	if level >= zerolog.WarnLevel {
		l.recordError(msg)
	}
}

func (l *Logger) recordError(msg string) {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	l.errEntries = append(l.errEntries, msg)
	if over := len(l.errEntries) - maxErrorEntries; over > 0 {
		l.errEntries = append(l.errEntries[:0], l.errEntries[over:]...)
	}
}

// Flush writes buffered entries to disk.
func (l *Logger) Flush() {
	if l == nil || l.file == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	_ = l.buf.Flush()
}

// Close flushes and closes the file. The file itself is kept on disk;
// callers decide whether to RemoveLogFile.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	l.closeOnce.Do(func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		flushErr := l.buf.Flush()
		closeErr := l.file.Close()
		l.closed = true
		l.closeErr = errors.Join(flushErr, closeErr)
	})
	return l.closeErr
}

// RemoveLogFile deletes the log file. A missing file is not an error.
func (l *Logger) RemoveLogFile() error {
	if l == nil || l.path == "" {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ExtractRecentErrors returns up to maxEntries of the most recent warn and
// error messages, oldest first.
func (l *Logger) ExtractRecentErrors(maxEntries int) []string {
	if l == nil || maxEntries <= 0 {
		return nil
	}
	l.errMu.Lock()
	defer l.errMu.Unlock()
	if len(l.errEntries) == 0 {
		return nil
	}
	start := len(l.errEntries) - maxEntries
	if start < 0 {
		start = 0
	}
	out := make([]string, len(l.errEntries)-start)
	copy(out, l.errEntries[start:])
	return out
}
