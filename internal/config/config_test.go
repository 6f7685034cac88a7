package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func parseFlags(t *testing.T, args ...string) *Flags {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f := AddFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return f
}

func TestDefaults(t *testing.T) {
	t.Setenv(EnvPrefix+"CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Algorithm != "dh" || cfg.Collection != "default" || cfg.ContentType != "text/plain" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.PromptTimeout != 2*time.Minute {
		t.Errorf("PromptTimeout = %v", cfg.PromptTimeout)
	}
	if cfg.Debug() {
		t.Error("debug should be off by default")
	}
}

func TestLayering(t *testing.T) {
	path := writeConfig(t, `
algorithm: plain
collection: work
content_type: application/json
prompt_timeout: 30s
log_level: warn
gopass_prefix: ss
`)

	t.Run("file", func(t *testing.T) {
		cfg, err := Load(parseFlags(t, "--config", path))
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Algorithm != "plain" || cfg.Collection != "work" || cfg.GopassPrefix != "ss" {
			t.Errorf("file values not applied: %+v", cfg)
		}
		if cfg.PromptTimeout != 30*time.Second {
			t.Errorf("PromptTimeout = %v", cfg.PromptTimeout)
		}
		if cfg.ConfigPath != path {
			t.Errorf("ConfigPath = %q", cfg.ConfigPath)
		}
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv(EnvPrefix+"COLLECTION", "session")
		t.Setenv(EnvPrefix+"LOG_LEVEL", "DEBUG")
		cfg, err := Load(parseFlags(t, "--config", path))
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Collection != "session" {
			t.Errorf("Collection = %q, expected session", cfg.Collection)
		}
		if !cfg.Debug() {
			t.Error("LOG_LEVEL=DEBUG should enable debug")
		}
		if cfg.Algorithm != "plain" {
			t.Errorf("Algorithm = %q, expected the file value", cfg.Algorithm)
		}
	})

	t.Run("flags override env", func(t *testing.T) {
		t.Setenv(EnvPrefix+"ALGORITHM", "plain")
		cfg, err := Load(parseFlags(t, "--config", path, "--algorithm", "dh", "--prompt-timeout", "0"))
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Algorithm != "dh" {
			t.Errorf("Algorithm = %q, expected dh", cfg.Algorithm)
		}
		if cfg.PromptTimeout != 0 {
			t.Errorf("PromptTimeout = %v, expected 0", cfg.PromptTimeout)
		}
		// Unset flags keep their file values
		if cfg.Collection != "work" {
			t.Errorf("Collection = %q, expected work", cfg.Collection)
		}
	})

	t.Run("debug flag", func(t *testing.T) {
		cfg, err := Load(parseFlags(t, "--config", path, "-d"))
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %q", cfg.LogLevel)
		}
	})
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{"bad algorithm", "algorithm: rot13\n", nil},
		{"bad log level", "log_level: loud\n", nil},
		{"empty collection", "collection: \"\"\n", nil},
		{"malformed yaml", "algorithm: [\n", nil},
		{"bad env duration", "", map[string]string{EnvPrefix + "PROMPT_TIMEOUT": "soon"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			path := writeConfig(t, tc.yaml)
			if _, err := Load(parseFlags(t, "--config", path)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/var/log/x.log", "/var/log/x.log"},
		{"~/x.log", filepath.Join(home, "x.log")},
	}
	for _, tc := range tests {
		if got := expandPath(tc.in); got != tc.want {
			t.Errorf("expandPath(%q) = %q, expected %q", tc.in, got, tc.want)
		}
	}
}
