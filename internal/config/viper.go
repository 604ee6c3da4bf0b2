package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. BTOR2RUN_LOG_DIR.
const EnvPrefix = "BTOR2RUN"

// EnvKeepLog keeps the wrapper log on exit instead of deleting it. The next
// cleanup pass still removes it once the process is gone.
const EnvKeepLog = EnvPrefix + "_KEEP_LOG"

// NewViper returns a viper instance configured for BTOR2RUN_* environment
// variables and an optional config file.
//
// Search order when configFile is empty:
//   - $HOME/.btor2run/config.(yaml|yml|json|toml|...)
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(configFile) != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
		return v, nil
	}

	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return v, nil
	}

	v.SetConfigName("config")
	v.AddConfigPath(filepath.Join(home, ".btor2run"))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, err
	}

	return v, nil
}

// Keys shared by flags, config files and BTOR2RUN_* variables. Dashes map to
// underscores in the environment, so "log-dir" is read from BTOR2RUN_LOG_DIR.
const (
	KeyRoot        = "root"
	KeyLogDir      = "log-dir"
	KeyCommand     = "command"
	KeyExtension   = "ext"
	KeyTool        = "tool"
	KeyConcurrency = "concurrency"
	KeyTimeout     = "timeout"
	KeySummaryJSON = "summary-json"
	KeyMetricsFile = "metrics-file"
	KeyStream      = "stream"
	KeyExcerpts    = "excerpts"
	KeyToolsFile   = "tools-file"
)

// LookupString returns the trimmed value for key when viper has it from the
// environment or a config file.
func LookupString(v *viper.Viper, key string) (string, bool) {
	if v == nil || !v.IsSet(key) {
		return "", false
	}
	val := strings.TrimSpace(v.GetString(key))
	return val, val != ""
}
