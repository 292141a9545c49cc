package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/lush/internal/jobctl"
	"github.com/dshills/lush/internal/lineedit"
	"github.com/dshills/lush/internal/logging"
)

// DefaultPrompt is the prompt used when none is configured.
const DefaultPrompt = "lush> "

// Config is the complete shell configuration.
type Config struct {
	Shell   ShellConfig   `toml:"shell" yaml:"shell"`
	History HistoryConfig `toml:"history" yaml:"history"`
	Jobs    JobsConfig    `toml:"jobs" yaml:"jobs"`
	Log     LogConfig     `toml:"log" yaml:"log"`
}

// ShellConfig configures the interactive shell.
type ShellConfig struct {
	// Prompt is shown before each line read.
	Prompt string `toml:"prompt" yaml:"prompt"`
	// Init is a Lua script run at startup. Empty selects the built-in REPL.
	Init string `toml:"init" yaml:"init"`
}

// HistoryConfig configures line history.
type HistoryConfig struct {
	// File is where history is persisted. Empty disables persistence.
	File  string `toml:"file" yaml:"file"`
	Limit int    `toml:"limit" yaml:"limit"`
}

// JobsConfig configures child tracking.
type JobsConfig struct {
	RegistryCapacity int `toml:"registry_capacity" yaml:"registry_capacity"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
	// File receives log output. Empty means stderr.
	File string `toml:"file" yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		Shell: ShellConfig{Prompt: DefaultPrompt},
		History: HistoryConfig{
			Limit: lineedit.DefaultHistoryLimit,
		},
		Jobs: JobsConfig{RegistryCapacity: jobctl.DefaultRegistryCapacity},
		Log:  LogConfig{Level: "warn"},
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.History.File = filepath.Join(home, ".lush_history")
	}
	return cfg
}

// DefaultPath returns $XDG_CONFIG_HOME/lush/config.toml, falling back to
// ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "lush", "config.toml")
}

// Load reads the file at path over the defaults. A missing file yields the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = decodeTOML(path, data, cfg)
	case ".yaml", ".yml":
		err = decodeYAML(path, data, cfg)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeTOML(path string, data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	err := dec.Decode(cfg)
	if err == nil {
		return nil
	}

	perr := &ParseError{Path: path, Message: err.Error(), Err: err}
	var derr *toml.DecodeError
	var serr *toml.StrictMissingError
	switch {
	case errors.As(err, &derr):
		perr.Line, perr.Column = derr.Position()
	case errors.As(err, &serr) && len(serr.Errors) > 0:
		perr.Line, perr.Column = serr.Errors[0].Position()
		perr.Message = "unknown key " + strings.Join(serr.Errors[0].Key(), ".")
	}
	return perr
}

func decodeYAML(path string, data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err := dec.Decode(cfg)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	perr := &ParseError{Path: path, Message: err.Error(), Err: err}
	var line int
	if _, scanErr := fmt.Sscanf(err.Error(), "yaml: line %d:", &line); scanErr == nil {
		perr.Line = line
	}
	return perr
}

// ApplyEnv overrides settings from LUSH_* variables found through lookup.
// Pass os.LookupEnv for the process environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("LUSH_PROMPT"); ok {
		c.Shell.Prompt = v
	}
	if v, ok := lookup("LUSH_INIT"); ok {
		c.Shell.Init = v
	}
	if v, ok := lookup("LUSH_HISTORY_FILE"); ok {
		c.History.File = v
	}
	if v, ok := lookup("LUSH_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := lookup("LUSH_LOG_FILE"); ok {
		c.Log.File = v
	}

	ints := []struct {
		env string
		key string
		dst *int
	}{
		{"LUSH_HISTORY_LIMIT", "history.limit", &c.History.Limit},
		{"LUSH_REGISTRY_CAPACITY", "jobs.registry_capacity", &c.Jobs.RegistryCapacity},
	}
	for _, it := range ints {
		v, ok := lookup(it.env)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &ValidationError{Key: it.key, Value: v, Message: it.env + " is not an integer"}
		}
		*it.dst = n
	}
	return nil
}

// Validate checks every setting and expands ~ in paths.
func (c *Config) Validate() error {
	if c.History.Limit <= 0 {
		return &ValidationError{Key: "history.limit", Value: c.History.Limit, Message: "must be positive"}
	}
	if c.Jobs.RegistryCapacity <= 0 {
		return &ValidationError{Key: "jobs.registry_capacity", Value: c.Jobs.RegistryCapacity, Message: "must be positive"}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return &ValidationError{Key: "log.level", Value: c.Log.Level, Message: err.Error()}
	}

	c.Shell.Init = expandHome(c.Shell.Init)
	c.History.File = expandHome(c.History.File)
	c.Log.File = expandHome(c.Log.File)
	return nil
}

// LogLevel returns the parsed log level. Call after Validate.
func (c *Config) LogLevel() logging.Level {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return logging.LevelWarn
	}
	return level
}

// Resolve loads path, applies environment overrides and validates the result.
func Resolve(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if lookup != nil {
		if err := cfg.ApplyEnv(lookup); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
