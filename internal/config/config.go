package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for tsfix.
type Config struct {
	General GeneralConfig `json:"general"`
	AddTool AddToolConfig `json:"addtool"`
	Types   TypesConfig   `json:"types"`
	Scan    ScanConfig    `json:"scan"`
	Journal JournalConfig `json:"journal"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel"`
	RulesDir string `json:"rulesDir,omitempty"` // directory of YAML type-map rule packs
}

// AddToolConfig configures the addTool → registerTool rewrite.
type AddToolConfig struct {
	Receiver  string `json:"receiver"`
	OldMethod string `json:"oldMethod"`
	NewMethod string `json:"newMethod"`
	Wrapper   string `json:"wrapper"`
	Indent    string `json:"indent"`
}

// TypesConfig configures the createToolHandler type annotator.
type TypesConfig struct {
	Receiver        string            `json:"receiver"`
	Method          string            `json:"method"`
	Wrapper         string            `json:"wrapper"`
	SchemaSuffix    string            `json:"schemaSuffix"`
	Placement       string            `json:"placement"`       // "wrapper" | "argument"
	AnnotatedWindow int               `json:"annotatedWindow"` // chars searched for an existing '<'
	HandlerWindow   int               `json:"handlerWindow"`   // chars searched for the handler's destructuring list
	TypeMap         map[string]string `json:"typeMap,omitempty"`
}

type ScanConfig struct {
	Extensions []string `json:"extensions"`
	Ignore     []string `json:"ignore,omitempty"` // gitignore-style patterns
}

type JournalConfig struct {
	Enabled       bool   `json:"enabled"`
	DBPath        string `json:"dbPath"`
	RetentionDays int    `json:"retentionDays"`
}

// DefaultConfigDir returns the default config directory (~/.tsfix).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tsfix"
	}
	return filepath.Join(home, ".tsfix")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	ExpandPaths(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

var identPattern = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	switch strings.ToLower(cfg.General.LogLevel) {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}

	for _, f := range []struct{ path, value string }{
		{"addtool.receiver", cfg.AddTool.Receiver},
		{"addtool.oldMethod", cfg.AddTool.OldMethod},
		{"addtool.newMethod", cfg.AddTool.NewMethod},
		{"addtool.wrapper", cfg.AddTool.Wrapper},
		{"types.receiver", cfg.Types.Receiver},
		{"types.method", cfg.Types.Method},
		{"types.wrapper", cfg.Types.Wrapper},
		{"types.schemaSuffix", cfg.Types.SchemaSuffix},
	} {
		if !identPattern.MatchString(f.value) {
			errs = append(errs, fmt.Sprintf("%s must be an identifier, got %q", f.path, f.value))
		}
	}
	if strings.TrimSpace(cfg.AddTool.Indent) != "" {
		errs = append(errs, "addtool.indent must contain only whitespace")
	}

	switch cfg.Types.Placement {
	case "wrapper", "argument":
		// valid
	default:
		errs = append(errs, "types.placement must be one of: wrapper, argument")
	}
	if cfg.Types.AnnotatedWindow < 1 || cfg.Types.AnnotatedWindow > 1000 {
		errs = append(errs, "types.annotatedWindow must be between 1 and 1000")
	}
	if cfg.Types.HandlerWindow < 1 || cfg.Types.HandlerWindow > 100000 {
		errs = append(errs, "types.handlerWindow must be between 1 and 100000")
	}

	if len(cfg.Scan.Extensions) == 0 {
		errs = append(errs, "scan.extensions must not be empty")
	}
	for _, ext := range cfg.Scan.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Sprintf("scan.extensions: %q must start with '.'", ext))
		}
	}

	if cfg.Journal.Enabled && cfg.Journal.DBPath == "" {
		errs = append(errs, "journal.dbPath is required when the journal is enabled")
	}
	if cfg.Journal.RetentionDays < 0 {
		errs = append(errs, "journal.retentionDays must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPaths resolves ~/ in every path-valued field of cfg.
func ExpandPaths(cfg *Config) {
	cfg.Journal.DBPath = ExpandPath(cfg.Journal.DBPath)
	cfg.General.RulesDir = ExpandPath(cfg.General.RulesDir)
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// IsIdentifier reports whether s is a valid JavaScript identifier.
func IsIdentifier(s string) bool {
	return identPattern.MatchString(s)
}
