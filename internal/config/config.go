package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the client reads
const EnvPrefix = "SECRET_SERVICE_CLIENT_"

// Config holds the configuration for secret-service-client
type Config struct {
	// Algorithm is the transport encryption: "plain" or "dh"
	Algorithm string `yaml:"algorithm"`

	// Collection is the alias of the collection commands work on
	Collection string `yaml:"collection"`

	// ContentType is stored with new secrets
	ContentType string `yaml:"content_type"`

	// WindowID is passed to prompts so they can be parented
	WindowID string `yaml:"window_id"`

	// PromptTimeout bounds how long a command waits on a prompt (0 waits forever)
	PromptTimeout time.Duration `yaml:"prompt_timeout"`

	// LogLevel is the logging level (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogFile is the path to the log file (empty for stderr)
	LogFile string `yaml:"log_file"`

	// GopassPrefix is where gopass-secret-service keeps entries, for import
	GopassPrefix string `yaml:"gopass_prefix"`

	// ConfigPath is the path to the config file
	ConfigPath string `yaml:"-"`
}

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	return &Config{
		Algorithm:     "dh",
		Collection:    "default",
		ContentType:   "text/plain",
		PromptTimeout: 2 * time.Minute,
		LogLevel:      "info",
		GopassPrefix:  "secret-service",
	}
}

// Flags holds command line overrides. Only flags set on the command line
// take effect.
type Flags struct {
	fs *pflag.FlagSet

	ConfigPath    string
	Algorithm     string
	Collection    string
	ContentType   string
	WindowID      string
	PromptTimeout time.Duration
	LogFile       string
	GopassPrefix  string
	Debug         bool
}

// AddFlags registers the configuration flags on fs
func AddFlags(fs *pflag.FlagSet) *Flags {
	def := DefaultConfig()
	f := &Flags{fs: fs}
	fs.StringVarP(&f.ConfigPath, "config", "c", "", "Path to config file (default: ~/.config/secret-service-client/config.yaml)")
	fs.StringVarP(&f.Algorithm, "algorithm", "a", def.Algorithm, "Transport encryption: plain or dh")
	fs.StringVar(&f.Collection, "collection", def.Collection, "Alias of the collection to use")
	fs.StringVar(&f.ContentType, "content-type", def.ContentType, "Content type stored with new secrets")
	fs.StringVar(&f.WindowID, "window-id", "", "Parent window for prompts")
	fs.DurationVar(&f.PromptTimeout, "prompt-timeout", def.PromptTimeout, "How long to wait for a prompt (0 waits forever)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path (default: stderr)")
	fs.StringVar(&f.GopassPrefix, "gopass-prefix", def.GopassPrefix, "Prefix of gopass-secret-service entries in gopass")
	fs.BoolVarP(&f.Debug, "debug", "d", false, "Enable debug logging")
	return f
}

// Load builds the configuration: defaults, then the config file, then
// environment variables, then command line flags. f may be nil.
func Load(f *Flags) (*Config, error) {
	cfg := DefaultConfig()

	// Determine config file path
	switch {
	case f != nil && f.ConfigPath != "":
		cfg.ConfigPath = f.ConfigPath
	case os.Getenv(EnvPrefix+"CONFIG") != "":
		cfg.ConfigPath = os.Getenv(EnvPrefix + "CONFIG")
	default:
		homeDir, _ := os.UserHomeDir()
		cfg.ConfigPath = filepath.Join(homeDir, ".config/secret-service-client/config.yaml")
	}
	cfg.ConfigPath = expandPath(cfg.ConfigPath)

	// Load config file if it exists
	if err := cfg.loadFromFile(); err != nil {
		// Only error if the file exists but can't be read
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Apply environment variables (override config file)
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	// Apply CLI flags (override everything)
	if f != nil {
		cfg.applyFlags(f)
	}

	cfg.LogFile = expandPath(cfg.LogFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have a fixed set of choices
func (c *Config) Validate() error {
	switch c.Algorithm {
	case "plain", "dh", "dh-ietf1024-sha256-aes128-cbc-pkcs7":
	default:
		return fmt.Errorf("invalid algorithm %q: expected plain or dh", c.Algorithm)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.Collection == "" {
		return fmt.Errorf("collection alias must not be empty")
	}
	if c.PromptTimeout < 0 {
		return fmt.Errorf("prompt timeout must not be negative")
	}
	return nil
}

// Debug reports whether debug logging is enabled
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

func (c *Config) loadFromFile() error {
	data, err := os.ReadFile(c.ConfigPath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvPrefix + "ALGORITHM"); v != "" {
		c.Algorithm = v
	}
	if v := os.Getenv(EnvPrefix + "COLLECTION"); v != "" {
		c.Collection = v
	}
	if v := os.Getenv(EnvPrefix + "CONTENT_TYPE"); v != "" {
		c.ContentType = v
	}
	if v := os.Getenv(EnvPrefix + "WINDOW_ID"); v != "" {
		c.WindowID = v
	}
	if v := os.Getenv(EnvPrefix + "PROMPT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sPROMPT_TIMEOUT: %w", EnvPrefix, err)
		}
		c.PromptTimeout = d
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv(EnvPrefix + "LOG_FILE"); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv(EnvPrefix + "GOPASS_PREFIX"); v != "" {
		c.GopassPrefix = v
	}
	return nil
}

func (c *Config) applyFlags(f *Flags) {
	changed := func(name string) bool {
		return f.fs != nil && f.fs.Changed(name)
	}
	if changed("algorithm") {
		c.Algorithm = f.Algorithm
	}
	if changed("collection") {
		c.Collection = f.Collection
	}
	if changed("content-type") {
		c.ContentType = f.ContentType
	}
	if changed("window-id") {
		c.WindowID = f.WindowID
	}
	if changed("prompt-timeout") {
		c.PromptTimeout = f.PromptTimeout
	}
	if changed("log-file") {
		c.LogFile = f.LogFile
	}
	if changed("gopass-prefix") {
		c.GopassPrefix = f.GopassPrefix
	}
	if f.Debug {
		c.LogLevel = "debug"
	}
}

func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
