package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"edumanage/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		HTTP: config.HTTPConfig{
			Host:         "127.0.0.1",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: config.DatabaseConfig{
			Path:    filepath.Join(t.TempDir(), "edumanage.db"),
			Timeout: 30 * time.Second,
		},
		WebSocket: config.WebSocketConfig{
			SweepInterval: 15 * time.Second,
			StaleTimeout:  30 * time.Second,
			WriteTimeout:  5 * time.Second,
			BufferSize:    16,
		},
		OpenAI: config.OpenAIConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o",
		},
		WhatsApp: config.WhatsAppConfig{
			BaseURL: "https://graph.facebook.com/v17.0",
		},
	}
}

func TestNewApplicationWiresAllComponents(t *testing.T) {
	application, err := NewApplication(testConfig(t))
	if err != nil {
		t.Fatalf("failed to build application: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = application.Stop(ctx)
	}()

	if application.dbManager == nil || application.realtime == nil ||
		application.assistant == nil || application.messenger == nil ||
		application.apiServer == nil {
		t.Error("all components must be initialized")
	}
}

func TestNewApplicationRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name   string
		modify func(*config.Config)
	}{
		{"invalid port", func(c *config.Config) { c.HTTP.Port = 0 }},
		{"empty db path", func(c *config.Config) { c.Database.Path = "" }},
		{"zero sweep interval", func(c *config.Config) { c.WebSocket.SweepInterval = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t)
			tc.modify(cfg)

			application, err := NewApplication(cfg)
			if err == nil {
				t.Error("expected a configuration error")
			}
			if application != nil {
				t.Error("no application should be returned for an invalid config")
			}
		})
	}
}

func TestApplicationStopIsGraceful(t *testing.T) {
	application, err := NewApplication(testConfig(t))
	if err != nil {
		t.Fatalf("failed to build application: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := application.Stop(ctx); err != nil {
		t.Errorf("stop failed: %v", err)
	}
}
