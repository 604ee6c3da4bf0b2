package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	config "btor2run/internal/config"
	ilogger "btor2run/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Process exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitFatal  = 2
)

type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit %d", e.code)
}

type cliOptions struct {
	ConfigFile  string
	Root        string
	LogDir      string
	Command     string
	Extension   string
	Tool        string
	Concurrency int
	Timeout     time.Duration
	SummaryJSON string
	MetricsFile string
	Stream      bool
	Excerpts    bool
}

// Run is the program entrypoint for cmd/btor2run/main.go.
func Run() {
	exitFn(run(os.Args[1:]))
}

func run(argv []string) int {
	cmd := newRootCommand()
	cmd.SetArgs(argv)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		var ee exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return exitFatal
	}
	return exitOK
}

func newRootCommand() *cobra.Command {
	cmd, _ := newRootCommandWithOptions()
	return cmd
}

func newRootCommandWithOptions() (*cobra.Command, *cliOptions) {
	name := ilogger.ToolName
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:           fmt.Sprintf("%s [flags] [root_dir]", name),
		Short:         "Run a verification tool over every model file in a directory tree",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exitCode := runWithLoggerAndCleanup(func() int {
				v, err := config.NewViper(opts.ConfigFile)
				if err != nil {
					fmt.Fprintf(stderr, "ERROR: load config: %v\n", err)
					logErrorf("Load config: %v", err)
					return exitFatal
				}

				cfg, err := buildConfig(cmd, args, opts, v)
				if err != nil {
					fmt.Fprintf(stderr, "ERROR: %v\n", err)
					logErrorf("Invalid configuration: %v", err)
					return exitFatal
				}
				logInfof("Parsed config: root=%s log_dir=%s command=%s ext=%s concurrency=%d timeout=%s",
					cfg.RootDir, cfg.LogDir, cfg.Command, cfg.Extension, cfg.ConcurrencyLimit, cfg.Timeout)
				return runBatch(cmd.Context(), cfg)
			})

			if exitCode == exitOK {
				return nil
			}
			return exitError{code: exitCode}
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	addRootFlags(cmd.Flags(), opts)
	cmd.AddCommand(newVersionCommand(name), newCleanupCommand())

	return cmd, opts
}

func addRootFlags(fs *pflag.FlagSet, opts *cliOptions) {
	fs.StringVar(&opts.ConfigFile, "config", "", "Config file path (default: $HOME/.btor2run/config.*)")
	fs.StringVar(&opts.Root, config.KeyRoot, config.DefaultRootDir, "Root directory to scan (the positional argument wins)")
	fs.StringVar(&opts.LogDir, config.KeyLogDir, config.DefaultLogDir, "Directory for per-input logs")
	fs.StringVar(&opts.Command, config.KeyCommand, config.DefaultCommand, "Verification tool to run on each input")
	fs.StringVar(&opts.Extension, config.KeyExtension, config.DefaultExtension, "Input file extension")
	fs.StringVar(&opts.Tool, config.KeyTool, "", "Named tool profile (from ~/.btor2run/tools.json)")
	fs.IntVarP(&opts.Concurrency, config.KeyConcurrency, "j", config.DefaultConcurrencyLimit, "Maximum tasks running at once")
	fs.DurationVar(&opts.Timeout, config.KeyTimeout, 0, "Per-task timeout (0 = none)")
	fs.StringVar(&opts.SummaryJSON, config.KeySummaryJSON, "", "Write a JSON summary to this file")
	fs.StringVar(&opts.MetricsFile, config.KeyMetricsFile, "", "Write Prometheus textfile metrics to this file")
	fs.BoolVar(&opts.Stream, config.KeyStream, false, "Mirror tool output lines into the wrapper log")
	fs.BoolVar(&opts.Excerpts, config.KeyExcerpts, false, "Print an error excerpt under each failure line")
}

func newVersionCommand(name string) *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print version and exit",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(stdout, "%s version %s\n", name, version)
			return nil
		},
	}
}

func newCleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "cleanup",
		Short:         "Remove wrapper logs left behind by dead processes",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			code := runCleanupMode()
			if code == 0 {
				return nil
			}
			return exitError{code: code}
		},
	}
}

func runWithLoggerAndCleanup(fn func() int) (exitCode int) {
	logger, err := NewLogger()
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: failed to initialize logger: %v\n", err)
		return exitFatal
	}
	setLogger(logger)

	defer func() {
		logger := activeLogger()
		if logger != nil {
			logger.Flush()
		}
		if err := closeLogger(); err != nil {
			fmt.Fprintf(stderr, "ERROR: failed to close logger: %v\n", err)
		}
		if logger == nil {
			return
		}

		keep := config.EnvFlagEnabled(config.EnvKeepLog)
		if exitCode != exitOK {
			if entries := logger.ExtractRecentErrors(10); len(entries) > 0 {
				fmt.Fprintln(stderr, "\n=== Recent Errors ===")
				for _, entry := range entries {
					fmt.Fprintln(stderr, entry)
				}
				if keep {
					fmt.Fprintf(stderr, "Log file: %s\n", logger.Path())
				} else {
					fmt.Fprintf(stderr, "Log file: %s (deleted)\n", logger.Path())
				}
			}
		}
		if keep {
			return
		}
		_ = logger.RemoveLogFile()
	}()
	defer runCleanupHook()

	// Clean up stale logs from previous runs.
	scheduleStartupCleanup()

	return fn()
}

// buildConfig layers flags over BTOR2RUN_* variables, the config file, the
// selected tool profile and the built-in defaults, in that order.
func buildConfig(cmd *cobra.Command, args []string, opts *cliOptions, v *viper.Viper) (config.Config, error) {
	cfg := config.Default()
	flags := cmd.Flags()

	toolsFile := config.DefaultToolsFile()
	if val, ok := config.LookupString(v, config.KeyToolsFile); ok {
		toolsFile = val
	}

	toolName, err := stringOption(flags, v, config.KeyTool, opts.Tool)
	if err != nil {
		return cfg, err
	}
	profile, err := config.ResolveTool(toolsFile, toolName)
	if err != nil {
		return cfg, fmt.Errorf("tool profile: %w", err)
	}
	cfg.Tool = toolName
	if profile.Command != "" {
		cfg.Command = profile.Command
	}
	if profile.Extension != "" {
		cfg.Extension = profile.Extension
	}

	for _, f := range []struct {
		key  string
		flag string
		dst  *string
	}{
		{config.KeyRoot, opts.Root, &cfg.RootDir},
		{config.KeyLogDir, opts.LogDir, &cfg.LogDir},
		{config.KeyCommand, opts.Command, &cfg.Command},
		{config.KeyExtension, opts.Extension, &cfg.Extension},
		{config.KeySummaryJSON, opts.SummaryJSON, &cfg.SummaryJSON},
		{config.KeyMetricsFile, opts.MetricsFile, &cfg.MetricsFile},
	} {
		val, err := stringOption(flags, v, f.key, f.flag)
		if err != nil {
			return cfg, err
		}
		if val != "" {
			*f.dst = val
		}
	}
	if len(args) > 0 {
		root := strings.TrimSpace(args[0])
		if root == "" {
			return cfg, fmt.Errorf("root directory argument is empty")
		}
		cfg.RootDir = root
	}

	switch {
	case flags.Changed(config.KeyConcurrency):
		if opts.Concurrency < 1 {
			return cfg, fmt.Errorf("--%s must be >= 1, got %d", config.KeyConcurrency, opts.Concurrency)
		}
		cfg.ConcurrencyLimit = config.ClampConcurrencyLimit(opts.Concurrency)
	case v.IsSet(config.KeyConcurrency):
		cfg.ConcurrencyLimit = config.ParseConcurrencyLimit(v.GetString(config.KeyConcurrency))
	}

	switch {
	case flags.Changed(config.KeyTimeout):
		cfg.Timeout = opts.Timeout
	case v.IsSet(config.KeyTimeout):
		d, err := time.ParseDuration(strings.TrimSpace(v.GetString(config.KeyTimeout)))
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", config.KeyTimeout, err)
		}
		cfg.Timeout = d
	}

	cfg.Stream = boolOption(flags, v, config.KeyStream, opts.Stream)
	cfg.Excerpts = boolOption(flags, v, config.KeyExcerpts, opts.Excerpts)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// stringOption returns the flag value when the flag was given, otherwise the
// value viper found in the environment or config file, otherwise "".
func stringOption(flags *pflag.FlagSet, v *viper.Viper, key, flagVal string) (string, error) {
	if flags.Changed(key) {
		val := strings.TrimSpace(flagVal)
		if val == "" {
			return "", fmt.Errorf("--%s flag requires a value", key)
		}
		return val, nil
	}
	val, _ := config.LookupString(v, key)
	return val, nil
}

func boolOption(flags *pflag.FlagSet, v *viper.Viper, key string, flagVal bool) bool {
	if flags.Changed(key) {
		return flagVal
	}
	if v.IsSet(key) {
		return config.ParseBoolFlag(v.GetString(key), false)
	}
	return false
}
