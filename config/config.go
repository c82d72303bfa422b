package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/poiesic/esmanager/highlight"
)

// Storage backends.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Config is the in-memory representation of ~/.esmanager/config.yaml.
type Config struct {
	// DataDir holds the database files. A leading ~ is expanded.
	// Default: ~/.esmanager/data
	DataDir string `yaml:"data_dir"`

	// Backend is the storage engine: "badger" or "sqlite".
	// Default: badger
	Backend string `yaml:"backend"`

	// LogLevel is one of debug, info, warn, error.
	// Default: info
	LogLevel string `yaml:"log_level"`

	// Lint selects the checks applied when highlighting answers.
	Lint LintSettings `yaml:"lint"`
}

// LintSettings mirrors highlight.Config in file form.
type LintSettings struct {
	// Register is none, keigo or joutai.
	Register string `yaml:"register"`

	// CheckDisallowed flags phrases such as 御社 or なので.
	CheckDisallowed bool `yaml:"check_disallowed"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithDataDir sets the data directory.
func WithDataDir(dir string) ConfigOption {
	return func(c *Config) {
		c.DataDir = dir
	}
}

// WithBackend sets the storage backend.
func WithBackend(backend string) ConfigOption {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) ConfigOption {
	return func(c *Config) {
		c.LogLevel = level
	}
}

// WithRegister sets the writing register check.
func WithRegister(register highlight.Register) ConfigOption {
	return func(c *Config) {
		c.Lint.Register = string(register)
	}
}

// WithDisallowedCheck turns the disallowed-phrase check on or off.
func WithDisallowedCheck(on bool) ConfigOption {
	return func(c *Config) {
		c.Lint.CheckDisallowed = on
	}
}

// Dir returns the absolute path to ~/.esmanager/.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".esmanager"), nil
}

// DefaultPath returns the absolute path to ~/.esmanager/config.yaml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns a Config with the default values.
// The disallowed-phrase check is on and no register is enforced.
func DefaultConfig() *Config {
	return &Config{
		DataDir:  "~/.esmanager/data",
		Backend:  BackendBadger,
		LogLevel: "info",
		Lint: LintSettings{
			Register:        string(highlight.RegisterNone),
			CheckDisallowed: true,
		},
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithBackend(BackendSQLite),
//	    WithRegister(highlight.RegisterKeigo),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize puts the configuration in canonical form: names are lowercased
// and blank fields take their defaults.
func (c *Config) Normalize() {
	def := DefaultConfig()
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = def.Backend
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = def.DataDir
	}
	c.Lint.Register = strings.ToLower(strings.TrimSpace(c.Lint.Register))
	if c.Lint.Register == "" {
		c.Lint.Register = string(highlight.RegisterNone)
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Backend != BackendBadger && c.Backend != BackendSQLite {
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("config: invalid log level %q", c.LogLevel)
	}
	if _, err := highlight.ParseRegister(c.Lint.Register); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := ExpandPath(c.DataDir); err != nil {
		return errors.New("config: data_dir cannot be resolved")
	}
	return nil
}

// Highlight returns the lint settings as a highlight.Config.
func (c *Config) Highlight() (highlight.Config, error) {
	register, err := highlight.ParseRegister(c.Lint.Register)
	if err != nil {
		return highlight.Config{}, err
	}
	return highlight.Config{Register: register, CheckDisallowed: c.Lint.CheckDisallowed}, nil
}

// StorePath returns where the configured backend keeps its data:
// a directory for badger, a file for sqlite.
func (c *Config) StorePath() (string, error) {
	dir, err := ExpandPath(c.DataDir)
	if err != nil {
		return "", err
	}
	if c.Backend == BackendSQLite {
		return filepath.Join(dir, "esmanager.db"), nil
	}
	return filepath.Join(dir, "badger"), nil
}
