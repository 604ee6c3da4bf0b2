package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	ilogger "btor2run/internal/logger"

	"github.com/goccy/go-json"
)

// ToolProfile names a verification tool and the input files it consumes.
type ToolProfile struct {
	Command     string `json:"command"`
	Extension   string `json:"ext,omitempty"`
	Description string `json:"description,omitempty"`
}

// ToolsConfig is the on-disk shape of ~/.btor2run/tools.json.
type ToolsConfig struct {
	DefaultTool string                 `json:"default_tool"`
	Tools       map[string]ToolProfile `json:"tools"`
}

var defaultToolsConfig = ToolsConfig{
	DefaultTool: "mc",
	Tools: map[string]ToolProfile{
		"mc":      {Command: DefaultCommand, Extension: DefaultExtension, Description: "Model checker front end"},
		"bmc":     {Command: "./bmc", Extension: DefaultExtension, Description: "Bounded model checker"},
		"cheetah": {Command: "./cheetah", Extension: DefaultExtension, Description: "Model checker with early stop"},
	},
}

var (
	toolsConfigMu     sync.Mutex
	toolsConfigCached *ToolsConfig
	toolsConfigPath   string
)

// DefaultToolsFile returns ~/.btor2run/tools.json, or "" when the home
// directory cannot be resolved.
func DefaultToolsFile() string {
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return ""
	}
	return filepath.Join(home, ".btor2run", "tools.json")
}

func toolsConfig(path string) *ToolsConfig {
	toolsConfigMu.Lock()
	defer toolsConfigMu.Unlock()
	if toolsConfigCached != nil && toolsConfigPath == path {
		return toolsConfigCached
	}
	toolsConfigCached = loadToolsConfig(path)
	toolsConfigPath = path
	return toolsConfigCached
}

// loadToolsConfig reads path and merges it over the built-in profiles.
// Read or parse problems are logged and fall back to the defaults.
func loadToolsConfig(path string) *ToolsConfig {
	if strings.TrimSpace(path) == "" {
		return &defaultToolsConfig
	}

	data, err := os.ReadFile(path) // #nosec G304 -- user-selected config file
	if err != nil {
		if !os.IsNotExist(err) {
			ilogger.LogWarn(fmt.Sprintf("Failed to read tools config %s: %v; using defaults", path, err))
		}
		return &defaultToolsConfig
	}

	var cfg ToolsConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		ilogger.LogWarn(fmt.Sprintf("Failed to parse tools config %s: %v; using defaults", path, err))
		return &defaultToolsConfig
	}

	cfg.DefaultTool = strings.TrimSpace(cfg.DefaultTool)
	if cfg.DefaultTool == "" {
		cfg.DefaultTool = defaultToolsConfig.DefaultTool
	}

	merged := make(map[string]ToolProfile, len(defaultToolsConfig.Tools)+len(cfg.Tools))
	for name, profile := range defaultToolsConfig.Tools {
		merged[name] = profile
	}
	for name, profile := range cfg.Tools {
		if err := ValidateToolName(name); err != nil {
			ilogger.LogWarn(fmt.Sprintf("Ignoring tool profile in %s: %v", path, err))
			continue
		}
		profile.Command = strings.TrimSpace(profile.Command)
		profile.Extension = strings.TrimSpace(profile.Extension)
		if profile.Command == "" {
			ilogger.LogWarn(fmt.Sprintf("Ignoring tool profile %q in %s: empty command", name, path))
			continue
		}
		if profile.Extension == "" {
			profile.Extension = DefaultExtension
		}
		merged[name] = profile
	}
	cfg.Tools = merged
	return &cfg
}

// ResolveTool looks up a profile by name in the tools file at path. An empty
// name selects the file's default tool.
func ResolveTool(path, name string) (ToolProfile, error) {
	cfg := toolsConfig(path)
	key := strings.TrimSpace(name)
	if key == "" {
		key = cfg.DefaultTool
	}
	if err := ValidateToolName(key); err != nil {
		return ToolProfile{}, err
	}
	profile, ok := cfg.Tools[key]
	if !ok {
		return ToolProfile{}, fmt.Errorf("unknown tool %q (known: %s)", key, strings.Join(ToolNames(path), ", "))
	}
	return profile, nil
}

// ToolNames lists the known profile names in sorted order.
func ToolNames(path string) []string {
	cfg := toolsConfig(path)
	names := make([]string, 0, len(cfg.Tools))
	for name := range cfg.Tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ResetToolsConfigCacheForTest() {
	toolsConfigMu.Lock()
	defer toolsConfigMu.Unlock()
	toolsConfigCached = nil
	toolsConfigPath = ""
}
