// Package config loads and validates CLI configuration from defaults, an
// optional config file, PAREX_* environment variables, and command-line
// flags, in ascending priority order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xeipuuv/gojsonschema"
)

const (
	// EnvPrefix is the prefix for environment variable overrides, e.g.
	// PAREX_THREADS=8.
	EnvPrefix = "PAREX"

	// DefaultConfigName is the base name of the config file searched for in
	// the working directory and ~/.config/parex/.
	DefaultConfigName = "parex"
)

// ErrConfigValidation wraps any configuration problem detected during
// loading, so callers can distinguish config mistakes from runtime failures.
var ErrConfigValidation = errors.New("configuration validation failed")

// settingsSchema validates the merged configuration before it is trusted.
// Viper lowercases keys, so the schema does too.
const settingsSchema = `{
	"type": "object",
	"properties": {
		"pattern":       {"type": "string"},
		"regex":         {"type": "string"},
		"language":      {"type": "string"},
		"limit":         {"type": "integer", "minimum": -1},
		"threads":       {"type": "integer", "minimum": 0},
		"maxdepth":      {"type": "integer", "minimum": -1},
		"paths":         {"type": "boolean"},
		"errors":        {"type": "boolean"},
		"ignore":        {"type": "array", "items": {"type": "string"}},
		"git":           {"type": "boolean"},
		"outputformat":  {"type": "string", "enum": ["text", "json", "yaml"]},
		"tui":           {"type": "boolean"},
		"verbose":       {"type": "boolean"}
	}
}`

// Settings is the fully resolved CLI configuration.
type Settings struct {
	// Root is the search root, taken from the positional argument rather
	// than config sources.
	Root string `mapstructure:"-"`

	// Pattern is the case-insensitive substring to match entry names
	// against. Regex and Language take precedence when set.
	Pattern string `mapstructure:"pattern"`

	// Regex matches entry names against a regular expression.
	Regex string `mapstructure:"regex"`

	// Language matches files by programming language, detected from the
	// filename.
	Language string `mapstructure:"language"`

	// Limit stops the search after this many matches; -1 means unlimited.
	Limit int `mapstructure:"limit"`

	// Threads is the worker count; 0 auto-detects.
	Threads int `mapstructure:"threads"`

	// MaxDepth bounds traversal depth; -1 means unbounded.
	MaxDepth int `mapstructure:"maxDepth"`

	// CollectPaths prints matched paths in the report. On by default.
	CollectPaths bool `mapstructure:"paths"`

	// CollectErrors includes recoverable errors in the report.
	CollectErrors bool `mapstructure:"errors"`

	// Ignore holds gitignore-style patterns excluded from the walk.
	Ignore []string `mapstructure:"ignore"`

	// Git searches the files tracked at HEAD instead of walking the
	// filesystem.
	Git bool `mapstructure:"git"`

	// OutputFormat selects the report rendering: text, json, or yaml.
	OutputFormat string `mapstructure:"outputFormat"`

	// TUIEnabled allows the interactive progress view. The final decision
	// also requires a TTY and non-verbose mode.
	TUIEnabled bool `mapstructure:"tui"`

	// Verbose enables debug logging and disables the TUI.
	Verbose bool `mapstructure:"verbose"`

	// ConfigFilePath records which config file was loaded, if any.
	ConfigFilePath string `mapstructure:"-"`

	// LogHandler is the logging backend derived during loading. Passed
	// through to the engine and the CLI components.
	LogHandler slog.Handler `mapstructure:"-"`
}

// flagBindings maps viper keys to the flag names defined on the root command.
var flagBindings = map[string]string{
	"pattern":      "pattern",
	"regex":        "regex",
	"language":     "language",
	"limit":        "limit",
	"threads":      "threads",
	"maxDepth":     "max-depth",
	"paths":        "paths",
	"errors":       "errors",
	"ignore":       "ignore",
	"git":          "git",
	"outputFormat": "output-format",
	"verbose":      "verbose",
}

// LoadAndValidate merges all configuration sources, validates the result
// against the settings schema, and constructs the CLI logger.
func LoadAndValidate(cfgFile string, flags *pflag.FlagSet) (Settings, *slog.Logger, error) {
	var settings Settings
	v := viper.New()

	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", DefaultConfigName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			tempLogger.Debug("no configuration file found, using defaults/env/flags")
		} else {
			return settings, tempLogger, fmt.Errorf("%w: reading config file: %w", ErrConfigValidation, err)
		}
	} else {
		settings.ConfigFilePath = v.ConfigFileUsed()
	}

	// Schema-check the defaults+file layer before the string-typed env and
	// flag layers merge in; those are type-checked by pflag instead.
	if err := validateSchema(v.AllSettings()); err != nil {
		return settings, tempLogger, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, flagName := range flagBindings {
		flag := flags.Lookup(flagName)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return settings, tempLogger, fmt.Errorf("%w: binding flag --%s: %w", ErrConfigValidation, flagName, err)
		}
	}

	if err := v.Unmarshal(&settings); err != nil {
		return settings, tempLogger, fmt.Errorf("%w: unmarshalling configuration: %w", ErrConfigValidation, err)
	}

	// Boolean flags must win even when a config file disagrees.
	if flags.Changed("verbose") {
		settings.Verbose, _ = flags.GetBool("verbose")
	}
	if flags.Changed("no-tui") {
		if noTUI, _ := flags.GetBool("no-tui"); noTUI {
			settings.TUIEnabled = false
		}
	}
	if settings.Verbose {
		settings.TUIEnabled = false
	}

	if err := validateSettings(&settings); err != nil {
		return settings, tempLogger, err
	}

	logLevel := slog.LevelInfo
	if settings.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	settings.LogHandler = handler
	logger := slog.New(handler)

	logger.Debug("configuration loaded",
		slog.String("configFile", settings.ConfigFilePath),
		slog.String("outputFormat", settings.OutputFormat),
		slog.Bool("verbose", settings.Verbose),
	)
	return settings, logger, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pattern", "")
	v.SetDefault("regex", "")
	v.SetDefault("language", "")
	v.SetDefault("limit", -1)
	v.SetDefault("threads", 0)
	v.SetDefault("maxDepth", -1)
	v.SetDefault("paths", true)
	v.SetDefault("errors", false)
	v.SetDefault("ignore", []string{})
	v.SetDefault("git", false)
	v.SetDefault("outputFormat", "text")
	v.SetDefault("tui", true)
	v.SetDefault("verbose", false)
}

// validateSchema checks the merged key/value view before unmarshalling, so
// type mistakes in config files fail with a pointed message instead of a
// mapstructure decode error.
func validateSchema(merged map[string]any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(settingsSchema),
		gojsonschema.NewGoLoader(merged),
	)
	if err != nil {
		return fmt.Errorf("%w: schema check: %w", ErrConfigValidation, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrConfigValidation, strings.Join(details, "; "))
	}
	return nil
}

// validateSettings applies the semantic checks the schema cannot express.
func validateSettings(s *Settings) error {
	if s.Threads < 0 {
		return fmt.Errorf("%w: threads must be non-negative, got %d", ErrConfigValidation, s.Threads)
	}
	if s.Limit < -1 {
		return fmt.Errorf("%w: limit must be -1 (unlimited) or non-negative, got %d", ErrConfigValidation, s.Limit)
	}
	if s.MaxDepth < -1 {
		return fmt.Errorf("%w: max-depth must be -1 (unbounded) or non-negative, got %d", ErrConfigValidation, s.MaxDepth)
	}
	if s.Regex != "" && s.Pattern != "" {
		return fmt.Errorf("%w: --pattern and --regex are mutually exclusive", ErrConfigValidation)
	}
	if s.Git && len(s.Ignore) > 0 {
		return fmt.Errorf("%w: --ignore has no effect with --git; the repository's own tracking rules apply", ErrConfigValidation)
	}
	switch s.OutputFormat {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("%w: unknown output format %q", ErrConfigValidation, s.OutputFormat)
	}
	return nil
}
