package logger

// ToolName is the program name used for the wrapper log file prefix.
const ToolName = "btor2run"

// LogPrefixes returns the file name prefixes CleanupOldLogs recognizes.
func LogPrefixes() []string { return []string{ToolName} }

// PrimaryLogPrefix returns the prefix used when creating new log files.
func PrimaryLogPrefix() string { return ToolName }
