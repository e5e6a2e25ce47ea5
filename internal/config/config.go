package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the system-wide configuration, resolved with precedence
// file > environment > defaults.
type Config struct {
	HTTP      HTTPConfig
	Database  DatabaseConfig
	WebSocket WebSocketConfig
	OpenAI    OpenAIConfig
	WhatsApp  WhatsAppConfig
}

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Path    string
	Timeout time.Duration
}

// WebSocketConfig controls the realtime layer. SweepInterval is how often the
// liveness monitor runs; StaleTimeout is the inactivity threshold before a
// connection is probed or pruned.
type WebSocketConfig struct {
	SweepInterval time.Duration
	StaleTimeout  time.Duration
	WriteTimeout  time.Duration
	BufferSize    int
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type WhatsAppConfig struct {
	APIKey         string
	BusinessNumber string
	BaseURL        string
	VerifyToken    string
}

// Addr returns the HTTP listen address.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)

	v.SetDefault("database.path", "./data/edumanage.db")
	v.SetDefault("database.timeout", 30*time.Second)

	v.SetDefault("websocket.sweep_interval", 15*time.Second)
	v.SetDefault("websocket.stale_timeout", 30*time.Second)
	v.SetDefault("websocket.write_timeout", 5*time.Second)
	v.SetDefault("websocket.buffer_size", 100)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o")

	v.SetDefault("whatsapp.api_key", "")
	v.SetDefault("whatsapp.business_number", "")
	v.SetDefault("whatsapp.base_url", "https://graph.facebook.com/v17.0")
	v.SetDefault("whatsapp.verify_token", "")
}

// Load resolves configuration. A .env file next to the binary is loaded if
// present; environment variables use the EDUMANAGE_ prefix with underscores
// for section separators (EDUMANAGE_HTTP_PORT, EDUMANAGE_OPENAI_API_KEY).
// filePath optionally names a config file (yaml/json); a missing file is not
// an error so environment and defaults still apply.
func Load(filePath string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("EDUMANAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if filePath != "" {
		v.SetConfigFile(filePath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
			}
		}
	}

	cfg := &Config{
		HTTP: HTTPConfig{
			Host:         v.GetString("http.host"),
			Port:         v.GetInt("http.port"),
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
		},
		Database: DatabaseConfig{
			Path:    v.GetString("database.path"),
			Timeout: v.GetDuration("database.timeout"),
		},
		WebSocket: WebSocketConfig{
			SweepInterval: v.GetDuration("websocket.sweep_interval"),
			StaleTimeout:  v.GetDuration("websocket.stale_timeout"),
			WriteTimeout:  v.GetDuration("websocket.write_timeout"),
			BufferSize:    v.GetInt("websocket.buffer_size"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  v.GetString("openai.api_key"),
			BaseURL: v.GetString("openai.base_url"),
			Model:   v.GetString("openai.model"),
		},
		WhatsApp: WhatsAppConfig{
			APIKey:         v.GetString("whatsapp.api_key"),
			BusinessNumber: v.GetString("whatsapp.business_number"),
			BaseURL:        v.GetString("whatsapp.base_url"),
			VerifyToken:    v.GetString("whatsapp.verify_token"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that would fail at runtime.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http port must be between 1 and 65535")
	}
	if c.HTTP.Host == "" {
		return fmt.Errorf("http host cannot be empty")
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("http timeouts must be positive")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.Database.Timeout <= 0 {
		return fmt.Errorf("database timeout must be positive")
	}
	if c.WebSocket.SweepInterval <= 0 {
		return fmt.Errorf("websocket sweep interval must be positive")
	}
	if c.WebSocket.StaleTimeout <= 0 {
		return fmt.Errorf("websocket stale timeout must be positive")
	}
	if c.WebSocket.WriteTimeout <= 0 {
		return fmt.Errorf("websocket write timeout must be positive")
	}
	if c.WebSocket.BufferSize <= 0 {
		return fmt.Errorf("websocket buffer size must be positive")
	}
	if c.OpenAI.BaseURL == "" {
		return fmt.Errorf("openai base url cannot be empty")
	}
	if c.OpenAI.Model == "" {
		return fmt.Errorf("openai model cannot be empty")
	}
	if c.WhatsApp.BaseURL == "" {
		return fmt.Errorf("whatsapp base url cannot be empty")
	}
	return nil
}
