package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"btor2run/internal/utils"
)

const (
	DefaultRootDir          = "."
	DefaultLogDir           = "./log"
	DefaultCommand          = "./mc"
	DefaultExtension        = ".btor2"
	DefaultConcurrencyLimit = 64

	// MaxConcurrencyLimit caps user-supplied limits; the pool may still
	// degrade below this when the host cannot sustain it.
	MaxConcurrencyLimit = 1024
)

// Config holds the options of one batch run.
type Config struct {
	RootDir          string
	LogDir           string
	Command          string
	Extension        string
	Tool             string
	ConcurrencyLimit int
	Timeout          time.Duration
	SummaryJSON      string
	MetricsFile      string
	Stream           bool
	// Excerpts prints a short error excerpt under each failure line.
	Excerpts bool
}

// Default returns a Config populated with the built-in defaults.
func Default() Config {
	return Config{
		RootDir:          DefaultRootDir,
		LogDir:           DefaultLogDir,
		Command:          DefaultCommand,
		Extension:        DefaultExtension,
		ConcurrencyLimit: DefaultConcurrencyLimit,
	}
}

// Validate checks that the config describes a runnable batch.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("nil config")
	}
	if strings.TrimSpace(c.RootDir) == "" {
		return fmt.Errorf("root directory is empty")
	}
	if strings.TrimSpace(c.LogDir) == "" {
		return fmt.Errorf("log directory is empty")
	}
	if strings.TrimSpace(c.Command) == "" {
		return fmt.Errorf("command is empty")
	}
	if !strings.HasPrefix(c.Extension, ".") || len(c.Extension) < 2 {
		return fmt.Errorf("extension %q must start with '.'", c.Extension)
	}
	if c.ConcurrencyLimit < 1 {
		return fmt.Errorf("concurrency limit must be >= 1, got %d", c.ConcurrencyLimit)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

// EnvFlagEnabled returns true when the environment variable exists and is not
// explicitly set to a falsey value ("0/false/no/off").
func EnvFlagEnabled(key string) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return false
	}
	val = strings.TrimSpace(strings.ToLower(val))
	switch val {
	case "", "0", "false", "no", "off":
		return false
	default:
		return true
	}
}

func ParseBoolFlag(val string, defaultValue bool) bool {
	val = strings.TrimSpace(strings.ToLower(val))
	switch val {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// ParseConcurrencyLimit parses a user-supplied limit. Empty or invalid values
// fall back to DefaultConcurrencyLimit; values above MaxConcurrencyLimit are
// clamped.
func ParseConcurrencyLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultConcurrencyLimit
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return DefaultConcurrencyLimit
	}
	return ClampConcurrencyLimit(value)
}

// ClampConcurrencyLimit bounds n to [1, MaxConcurrencyLimit].
func ClampConcurrencyLimit(n int) int {
	return utils.Clamp(n, 1, MaxConcurrencyLimit)
}

// ValidateToolName restricts profile names to [A-Za-z0-9_-].
func ValidateToolName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("tool name is empty")
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-', r == '_':
		default:
			return fmt.Errorf("tool name %q contains invalid character %q", name, r)
		}
	}
	return nil
}
