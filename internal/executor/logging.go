package executor

import ilogger "btor2run/internal/logger"

func logDebug(msg string) { ilogger.LogDebug(msg) }

func logWarn(msg string) { ilogger.LogWarn(msg) }

func logDebugf(format string, args ...any) { ilogger.LogDebugf(format, args...) }

func logInfof(format string, args ...any) { ilogger.LogInfof(format, args...) }

func logWarnf(format string, args ...any) { ilogger.LogWarnf(format, args...) }
