package logger

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

// useTempDir points os.TempDir() at a fresh directory.
func useTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TMPDIR", dir)
	t.Setenv("TMP", dir)
	t.Setenv("TEMP", dir)
	return dir
}

type logLine struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	PID     int    `json:"pid"`
	Time    string `json:"time"`
}

func readLogLines(t *testing.T, path string) []logLine {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var lines []logLine
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var l logLine
		if err := json.Unmarshal(sc.Bytes(), &l); err != nil {
			t.Fatalf("line %q is not JSON: %v", sc.Text(), err)
		}
		lines = append(lines, l)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan %s: %v", path, err)
	}
	return lines
}

func TestNewLoggerWritesJSONLinesPerLevel(t *testing.T) {
	dir := useTempDir(t)
	l, err := NewLogger()
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	wantPath := filepath.Join(dir, fmt.Sprintf("btor2run-%d.log", os.Getpid()))
	if l.Path() != wantPath {
		t.Fatalf("Path() = %q, want %q", l.Path(), wantPath)
	}

	l.Debug("discovered 3 inputs")
	l.Info("running x.btor2")
	l.Warn("duplicate name m.btor2")
	l.Error("write log failed")
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	lines := readLogLines(t, l.Path())
	want := []logLine{
		{Level: "debug", Message: "discovered 3 inputs"},
		{Level: "info", Message: "running x.btor2"},
		{Level: "warn", Message: "duplicate name m.btor2"},
		{Level: "error", Message: "write log failed"},
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %+v", len(lines), len(want), lines)
	}
	for i, w := range want {
		got := lines[i]
		if got.Level != w.Level || got.Message != w.Message {
			t.Errorf("line %d = %s/%q, want %s/%q", i, got.Level, got.Message, w.Level, w.Message)
		}
		if got.PID != os.Getpid() || got.Time == "" {
			t.Errorf("line %d missing pid/time: %+v", i, got)
		}
	}
}

func TestLoggerRecentErrorRing(t *testing.T) {
	useTempDir(t)
	l, err := NewLogger()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = l.Close() })

	if got := l.ExtractRecentErrors(5); got != nil {
		t.Fatalf("fresh logger recent errors = %v", got)
	}

	for i := 0; i < maxErrorEntries+30; i++ {
		l.Info(fmt.Sprintf("progress %d", i))
		if i%2 == 0 {
			l.Warn(fmt.Sprintf("task %d failed", i))
		} else {
			l.Error(fmt.Sprintf("task %d crashed", i))
		}
	}

	last := l.ExtractRecentErrors(3)
	want := []string{"task 127 crashed", "task 128 failed", "task 129 crashed"}
	if strings.Join(last, "|") != strings.Join(want, "|") {
		t.Fatalf("ExtractRecentErrors(3) = %v, want %v", last, want)
	}

	all := l.ExtractRecentErrors(10 * maxErrorEntries)
	if len(all) != maxErrorEntries {
		t.Fatalf("ring holds %d entries, want %d", len(all), maxErrorEntries)
	}
	if all[0] != "task 30 failed" {
		t.Fatalf("oldest kept entry = %q, want task 30 failed", all[0])
	}
	for _, e := range all {
		if strings.HasPrefix(e, "progress") {
			t.Fatalf("info entry %q leaked into the error ring", e)
		}
	}

	if got := l.ExtractRecentErrors(0); got != nil {
		t.Fatalf("ExtractRecentErrors(0) = %v", got)
	}
	all[0] = "mutated"
	if l.ExtractRecentErrors(maxErrorEntries)[0] == "mutated" {
		t.Fatalf("ExtractRecentErrors returned the internal slice")
	}
}

func TestLoggerCloseIsIdempotentAndKeepsFile(t *testing.T) {
	useTempDir(t)
	l, err := NewLogger()
	if err != nil {
		t.Fatal(err)
	}
	l.Info("before close")
	for i := 0; i < 3; i++ {
		if err := l.Close(); err != nil {
			t.Fatalf("Close() #%d error = %v", i+1, err)
		}
	}
	l.Info("after close")
	l.Flush()

	lines := readLogLines(t, l.Path())
	if len(lines) != 1 || lines[0].Message != "before close" {
		t.Fatalf("lines = %+v, want only the entry written before Close", lines)
	}

	if err := l.RemoveLogFile(); err != nil {
		t.Fatalf("RemoveLogFile() error = %v", err)
	}
	if _, err := os.Stat(l.Path()); !os.IsNotExist(err) {
		t.Fatalf("log still present after RemoveLogFile: %v", err)
	}
	if err := l.RemoveLogFile(); err != nil {
		t.Fatalf("second RemoveLogFile() error = %v", err)
	}
}

func TestNilLoggerIsNoop(t *testing.T) {
	var l *Logger
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x")
	l.Flush()
	if err := l.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if err := l.RemoveLogFile(); err != nil {
		t.Fatalf("RemoveLogFile() = %v", err)
	}
	if l.Path() != "" || l.ExtractRecentErrors(10) != nil {
		t.Fatalf("nil logger returned data")
	}
}

func TestLoggerConcurrentWorkers(t *testing.T) {
	useTempDir(t)
	l, err := NewLogger()
	if err != nil {
		t.Fatal(err)
	}

	const workers, perWorker = 16, 150
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if i%10 == 0 {
					l.Warn(fmt.Sprintf("worker %d item %d failed", w, i))
				} else {
					l.Debug(fmt.Sprintf("worker %d item %d", w, i))
				}
			}
		}()
	}
	wg.Wait()
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	lines := readLogLines(t, l.Path())
	if len(lines) != workers*perWorker {
		t.Fatalf("got %d lines, want %d", len(lines), workers*perWorker)
	}
	if got := len(l.ExtractRecentErrors(maxErrorEntries)); got != maxErrorEntries {
		t.Fatalf("recent errors = %d, want %d", got, maxErrorEntries)
	}
}

func TestActiveLoggerHelpers(t *testing.T) {
	useTempDir(t)
	if err := CloseLogger(); err != nil {
		t.Fatalf("CloseLogger() without logger = %v", err)
	}
	LogInfof("dropped %d", 1)

	l, err := NewLogger()
	if err != nil {
		t.Fatal(err)
	}
	SetLogger(l)
	if ActiveLogger() != l {
		t.Fatalf("ActiveLogger() did not return the installed logger")
	}
	LogDebug("plain debug")
	LogInfo("plain info")
	LogWarn("plain warn")
	LogDebugf("stream [%s] %s", "x.btor2", "{SAT, 0}")
	LogInfof("running %d task(s)", 2)
	LogWarnf("lowering concurrency from %d to %d", 64, 8)
	LogErrorf("discovery failed: %v", os.ErrNotExist)

	if err := CloseLogger(); err != nil {
		t.Fatalf("CloseLogger() = %v", err)
	}
	if ActiveLogger() != nil {
		t.Fatalf("logger still installed after CloseLogger")
	}

	var msgs []string
	for _, line := range readLogLines(t, l.Path()) {
		msgs = append(msgs, line.Level+":"+line.Message)
	}
	want := []string{
		"debug:plain debug",
		"info:plain info",
		"warn:plain warn",
		"debug:stream [x.btor2] {SAT, 0}",
		"info:running 2 task(s)",
		"warn:lowering concurrency from 64 to 8",
		"error:discovery failed: file does not exist",
	}
	if strings.Join(msgs, "\n") != strings.Join(want, "\n") {
		t.Fatalf("log =\n%s\nwant\n%s", strings.Join(msgs, "\n"), strings.Join(want, "\n"))
	}
}

func writeStaleLog(t *testing.T, dir, name string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(`{"level":"info"}`+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if !mtime.IsZero() {
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestCleanupOldLogsRemovesOnlyDeadOwners(t *testing.T) {
	dir := useTempDir(t)
	now := time.Now()

	const (
		deadPID    = 910001
		livePID    = 910002
		reusedPID  = 910003
		unknownPID = 910004
		oldPID     = 910005
	)
	dead := writeStaleLog(t, dir, fmt.Sprintf("btor2run-%d.log", deadPID), time.Time{})
	live := writeStaleLog(t, dir, fmt.Sprintf("btor2run-%d.log", livePID), time.Time{})
	reused := writeStaleLog(t, dir, fmt.Sprintf("btor2run-%d.log", reusedPID), now.Add(-time.Hour))
	recent := writeStaleLog(t, dir, fmt.Sprintf("btor2run-%d.log", unknownPID), now.Add(-time.Hour))
	ancient := writeStaleLog(t, dir, fmt.Sprintf("btor2run-%d.log", oldPID), now.Add(-staleLogAge-time.Hour))
	junk := writeStaleLog(t, dir, "btor2run-notapid.log", time.Time{})
	other := writeStaleLog(t, dir, "othertool-910001.log", time.Time{})

	t.Cleanup(SetProcessRunningCheck(func(pid int) bool {
		return pid != deadPID
	}))
	t.Cleanup(SetProcessStartTimeFn(func(pid int) time.Time {
		switch pid {
		case livePID:
			return now.Add(-24 * time.Hour)
		case reusedPID:
			return now.Add(-time.Minute)
		}
		return time.Time{}
	}))

	stats, err := CleanupOldLogs()
	if err != nil {
		t.Fatalf("CleanupOldLogs() error = %v", err)
	}

	sort.Strings(stats.DeletedFiles)
	wantDeleted := []string{dead, reused, ancient}
	sort.Strings(wantDeleted)
	if strings.Join(stats.DeletedFiles, ",") != strings.Join(wantDeleted, ",") {
		t.Fatalf("deleted = %v, want %v", stats.DeletedFiles, wantDeleted)
	}
	if stats.Scanned != 6 || stats.Deleted != 3 || stats.Kept != 3 || stats.Errors != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	for _, p := range []string{live, recent, junk, other} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("%s should be kept: %v", p, err)
		}
	}
	for _, p := range wantDeleted {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("%s should be removed: %v", p, err)
		}
	}
}

func TestCleanupOldLogsRefusesSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir := useTempDir(t)
	outside := filepath.Join(t.TempDir(), "precious.txt")
	if err := os.WriteFile(outside, []byte("keep me"), 0o600); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "btor2run-910010.log")
	if err := os.Symlink(outside, link); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(SetProcessRunningCheck(func(int) bool { return false }))

	stats, err := CleanupOldLogs()
	if err != nil {
		t.Fatalf("CleanupOldLogs() error = %v", err)
	}
	if stats.Deleted != 0 || stats.Kept != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if _, err := os.Lstat(link); err != nil {
		t.Fatalf("symlink removed: %v", err)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Fatalf("symlink target removed: %v", err)
	}
}

func TestCleanupOldLogsReportsRemoveFailures(t *testing.T) {
	dir := useTempDir(t)
	denied := writeStaleLog(t, dir, "btor2run-910020.log", time.Time{})
	vanished := writeStaleLog(t, dir, "btor2run-910021.log", time.Time{})

	t.Cleanup(SetProcessRunningCheck(func(int) bool { return false }))
	t.Cleanup(SetRemoveLogFileFn(func(path string) error {
		if path == denied {
			return os.ErrPermission
		}
		return os.ErrNotExist
	}))

	stats, err := CleanupOldLogs()
	if err == nil || !errors.Is(err, os.ErrPermission) {
		t.Fatalf("CleanupOldLogs() error = %v, want permission error", err)
	}
	if stats.Errors != 1 || stats.Deleted != 1 || len(stats.DeletedFiles) != 1 || stats.DeletedFiles[0] != vanished {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestCleanupOldLogsGlobFailure(t *testing.T) {
	useTempDir(t)
	t.Cleanup(SetGlobLogFilesFn(func(string) ([]string, error) {
		return nil, filepath.ErrBadPattern
	}))
	stats, err := CleanupOldLogs()
	if !errors.Is(err, filepath.ErrBadPattern) {
		t.Fatalf("CleanupOldLogs() error = %v", err)
	}
	if stats.Scanned != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestCleanupOldLogsUnstatableFileIsKept(t *testing.T) {
	dir := useTempDir(t)
	path := writeStaleLog(t, dir, "btor2run-910030.log", time.Time{})
	t.Cleanup(SetProcessRunningCheck(func(int) bool { return false }))
	t.Cleanup(SetFileStatFn(func(string) (os.FileInfo, error) { return nil, os.ErrPermission }))

	stats, err := CleanupOldLogs()
	if err != nil || stats.Kept != 1 || stats.Deleted != 0 {
		t.Fatalf("CleanupOldLogs() = %+v, %v", stats, err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file removed: %v", err)
	}
}

func TestIsUnsafeFileOutsideTempDir(t *testing.T) {
	dir := useTempDir(t)
	inside := writeStaleLog(t, dir, "btor2run-1.log", time.Time{})
	outsideDir := t.TempDir()
	outside := writeStaleLog(t, outsideDir, "btor2run-2.log", time.Time{})

	if unsafe, reason := isUnsafeFile(inside, dir); unsafe {
		t.Fatalf("inside file flagged unsafe: %s", reason)
	}
	if unsafe, reason := isUnsafeFile(outside, dir); !unsafe || reason != "file is outside tempDir" {
		t.Fatalf("isUnsafeFile(outside) = %v, %q", unsafe, reason)
	}

	t.Cleanup(SetEvalSymlinksFn(func(string) (string, error) { return outside, nil }))
	if unsafe, _ := isUnsafeFile(inside, dir); !unsafe {
		t.Fatalf("file resolving outside the temp dir should be unsafe")
	}
}

func TestParsePIDFromLog(t *testing.T) {
	tests := []struct {
		name string
		pid  int
		ok   bool
	}{
		{"btor2run-4242.log", 4242, true},
		{"/tmp/btor2run-17.log", 17, true},
		{"btor2run-17-extra.log", 17, true},
		{"btor2run-.log", 0, false},
		{"btor2run-0.log", 0, false},
		{"btor2run-12a.log", 0, false},
		{"btor2run-12.txt", 0, false},
		{"mc-12.log", 0, false},
		{"btor2run-99999999999999999999.log", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pid, ok := parsePIDFromLog(tt.name)
			if pid != tt.pid || ok != tt.ok {
				t.Fatalf("parsePIDFromLog(%q) = %d, %v; want %d, %v", tt.name, pid, ok, tt.pid, tt.ok)
			}
		})
	}
}

func TestIsPIDReused(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	tests := []struct {
		name  string
		mtime time.Time
		start time.Time
		want  bool
	}{
		{"log newer than process", now.Add(-time.Minute), now.Add(-time.Hour), false},
		{"log older than process", now.Add(-time.Hour), now.Add(-time.Minute), true},
		{"unknown start, fresh log", now.Add(-time.Hour), time.Time{}, false},
		{"unknown start, week old log", now.Add(-staleLogAge - time.Minute), time.Time{}, true},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeStaleLog(t, dir, fmt.Sprintf("btor2run-%d.log", 920000+i), tt.mtime)
			t.Cleanup(SetProcessStartTimeFn(func(int) time.Time { return tt.start }))
			if got := isPIDReused(path, 920000+i); got != tt.want {
				t.Fatalf("isPIDReused() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("missing log", func(t *testing.T) {
		if isPIDReused(filepath.Join(dir, "btor2run-1.log"), 1) {
			t.Fatalf("missing log reported as reused")
		}
	})
}
