package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"tsfix/internal/addtool"
	"tsfix/internal/annotate"
	"tsfix/internal/config"
	"tsfix/internal/fixer"
	"tsfix/internal/rules"

	"github.com/spf13/cobra"
)

var (
	version  = "0.1.0"
	logger   *slog.Logger
	logLevel = new(slog.LevelVar)

	configPath string // overridable via --config flag
	levelFlag  string
	dryRun     bool
	noJournal  bool
	metricsOut string
)

// exitError ends the process with a non-zero status without printing anything
// further; the command has already told the user what went wrong.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	root := &cobra.Command{
		Use:           "tsfix",
		Short:         "tsfix: mechanical rewrites for TypeScript tool servers",
		Long:          "tsfix migrates addTool registrations to registerTool and back-fills createToolHandler type parameters.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if levelFlag != "" {
				return setLogLevel(levelFlag)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.tsfix/config.json)")
	root.PersistentFlags().StringVar(&levelFlag, "log-level", "", "log level: debug, info, warn, error (overrides general.logLevel)")
	root.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "report changes without writing files")
	root.PersistentFlags().BoolVar(&noJournal, "no-journal", false, "do not record original content for undo")
	root.PersistentFlags().StringVar(&metricsOut, "metrics-out", "", "write Prometheus text metrics to this file after the run")

	root.AddCommand(addToolCmd())
	root.AddCommand(typesCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(undoCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(configCmd())

	if err := root.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "", "info":
		logLevel.Set(slog.LevelInfo)
	case "warn":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level %q", level)
	}
	return nil
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

// loadConfig loads the config file, falling back to defaults when it is
// missing, or when the default location cannot be read at all. An invalid
// file, or an unreadable --config file, is still an error.
func loadConfig() (*config.Config, error) {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	var pathErr *fs.PathError
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		if configPath != "" {
			logger.Warn("config not found, using defaults", "path", cfgPath)
		} else {
			logger.Debug("config not found, using defaults", "path", cfgPath)
		}
		cfg = defaultConfig()
	case configPath == "" && errors.As(err, &pathErr):
		logger.Warn("config unreadable, using defaults", "path", cfgPath, "err", pathErr.Err)
		cfg = defaultConfig()
	default:
		return nil, err
	}
	if levelFlag == "" {
		if err := setLogLevel(cfg.General.LogLevel); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func defaultConfig() *config.Config {
	cfg := config.Defaults()
	config.ExpandPaths(cfg)
	return cfg
}

// typeMap layers the configured overrides and any rule packs over the
// built-in Zod constructor mapping.
func typeMap(cfg *config.Config) map[string]string {
	tm := annotate.DefaultTypeMap()
	for k, v := range cfg.Types.TypeMap {
		tm[k] = v
	}
	packs, err := rules.LoadFromDirectory(cfg.General.RulesDir, logger)
	if err != nil {
		logger.Warn("cannot load rule packs", "dir", cfg.General.RulesDir, "err", err)
		return tm
	}
	return rules.Merge(tm, packs...)
}

// buildRegistry registers every fixer, configured from cfg.
func buildRegistry(cfg *config.Config) *fixer.Registry {
	reg := fixer.NewRegistry(logger)
	reg.Register(addtool.New(addtool.Options{
		Receiver:  cfg.AddTool.Receiver,
		OldMethod: cfg.AddTool.OldMethod,
		NewMethod: cfg.AddTool.NewMethod,
		Wrapper:   cfg.AddTool.Wrapper,
		Indent:    cfg.AddTool.Indent,
	}))
	reg.Register(annotate.New(annotate.Options{
		Receiver:        cfg.Types.Receiver,
		Method:          cfg.Types.Method,
		Wrapper:         cfg.Types.Wrapper,
		SchemaSuffix:    cfg.Types.SchemaSuffix,
		Placement:       cfg.Types.Placement,
		AnnotatedWindow: cfg.Types.AnnotatedWindow,
		HandlerWindow:   cfg.Types.HandlerWindow,
		TypeMap:         typeMap(cfg),
	}))
	return reg
}
