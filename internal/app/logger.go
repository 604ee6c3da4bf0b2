package app

import ilogger "btor2run/internal/logger"

type Logger = ilogger.Logger
type CleanupStats = ilogger.CleanupStats

func NewLogger() (*Logger, error) { return ilogger.NewLogger() }

func setLogger(l *Logger) { ilogger.SetLogger(l) }

func closeLogger() error { return ilogger.CloseLogger() }

func activeLogger() *Logger { return ilogger.ActiveLogger() }

func logInfo(msg string) { ilogger.LogInfo(msg) }

func logWarn(msg string) { ilogger.LogWarn(msg) }

func logInfof(format string, args ...any) { ilogger.LogInfof(format, args...) }

func logWarnf(format string, args ...any) { ilogger.LogWarnf(format, args...) }

func logErrorf(format string, args ...any) { ilogger.LogErrorf(format, args...) }

func cleanupOldLogs() (CleanupStats, error) { return ilogger.CleanupOldLogs() }
