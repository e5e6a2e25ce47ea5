package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTP.Port)
	}
	if cfg.WebSocket.SweepInterval != 15*time.Second {
		t.Errorf("expected 15s sweep interval, got %v", cfg.WebSocket.SweepInterval)
	}
	if cfg.WebSocket.StaleTimeout != 30*time.Second {
		t.Errorf("expected 30s stale timeout, got %v", cfg.WebSocket.StaleTimeout)
	}
	if cfg.OpenAI.Model != "gpt-4o" {
		t.Errorf("expected default model gpt-4o, got %s", cfg.OpenAI.Model)
	}
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("EDUMANAGE_HTTP_PORT", "9090")
	t.Setenv("EDUMANAGE_DATABASE_PATH", "/tmp/test.db")
	t.Setenv("EDUMANAGE_OPENAI_MODEL", "gpt-4o-mini")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port 9090 from env, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("expected database path from env, got %s", cfg.Database.Path)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("expected model from env, got %s", cfg.OpenAI.Model)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("http:\n  port: 3000\nwebsocket:\n  sweep_interval: 5s\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTP.Port != 3000 {
		t.Errorf("expected port 3000 from file, got %d", cfg.HTTP.Port)
	}
	if cfg.WebSocket.SweepInterval != 5*time.Second {
		t.Errorf("expected 5s sweep interval from file, got %v", cfg.WebSocket.SweepInterval)
	}
	// Untouched values keep defaults.
	if cfg.Database.Timeout != 30*time.Second {
		t.Errorf("expected default database timeout, got %v", cfg.Database.Timeout)
	}
}

func TestLoad_MissingFileFallsBack(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected missing file to fall back to defaults, got %v", err)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected default port, got %d", cfg.HTTP.Port)
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.HTTP.Port = 0 }},
		{"port too large", func(c *Config) { c.HTTP.Port = 70000 }},
		{"empty host", func(c *Config) { c.HTTP.Host = "" }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"zero sweep interval", func(c *Config) { c.WebSocket.SweepInterval = 0 }},
		{"zero stale timeout", func(c *Config) { c.WebSocket.StaleTimeout = 0 }},
		{"zero buffer size", func(c *Config) { c.WebSocket.BufferSize = 0 }},
		{"empty openai url", func(c *Config) { c.OpenAI.BaseURL = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
