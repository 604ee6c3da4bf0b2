package logger

import (
	"fmt"
	"sync/atomic"
)

var loggerPtr atomic.Pointer[Logger]

// SetLogger installs l as the process-wide logger used by the Log* helpers.
func SetLogger(l *Logger) { loggerPtr.Store(l) }

// ActiveLogger returns the installed logger or nil.
func ActiveLogger() *Logger { return loggerPtr.Load() }

// CloseLogger uninstalls and closes the active logger.
func CloseLogger() error {
	l := loggerPtr.Swap(nil)
	if l == nil {
		return nil
	}
	return l.Close()
}

func logDebug(msg string) { ActiveLogger().Debug(msg) }
func logInfo(msg string)  { ActiveLogger().Info(msg) }
func logWarn(msg string)  { ActiveLogger().Warn(msg) }
func logError(msg string) { ActiveLogger().Error(msg) }

func LogDebug(msg string) { logDebug(msg) }
func LogInfo(msg string)  { logInfo(msg) }
func LogWarn(msg string)  { logWarn(msg) }

func logWarnf(format string, args ...any) { logWarn(fmt.Sprintf(format, args...)) }

func LogDebugf(format string, args ...any) { logDebug(fmt.Sprintf(format, args...)) }
func LogInfof(format string, args ...any)  { logInfo(fmt.Sprintf(format, args...)) }
func LogWarnf(format string, args ...any)  { logWarnf(format, args...) }
func LogErrorf(format string, args ...any) { logError(fmt.Sprintf(format, args...)) }
