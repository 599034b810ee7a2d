/*
Package configs is responsible for loading and parsing the application's configuration settings.

Settings come from operating system environment variables, optionally seeded from a
.env file for local runs. They cover the Discord credentials and link channel, the
WebSocket listener, the registry storage backend, logging, and presence timing.
*/
package configs

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Registry storage backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Server Settings
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	HostName    string `env:"HOST_NAME" envDefault:"0.0.0.0"`
	Port        int    `env:"PORT" envDefault:"8080"`

	// Discord Settings
	DiscordToken  string `env:"DISCORD_TOKEN"`
	LinkChannelID string `env:"LINK_CHANNEL_ID"`
	GuildID       string `env:"GUILD_ID"`
	WebhookURL    string `env:"WEBHOOK_URL"`
	WebhookName   string `env:"WEBHOOK_NAME" envDefault:"NeosVR Link"`

	// Relay Settings
	HistoryLimit         int           `env:"HISTORY_LIMIT" envDefault:"15"`
	PresenceInterval     time.Duration `env:"PRESENCE_INTERVAL" envDefault:"60s"`
	PresenceStartupDelay time.Duration `env:"PRESENCE_STARTUP_DELAY" envDefault:"360s"`

	// Security Settings
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// Logging Settings
	LogDir   string `env:"LOG_DIR"`
	LogLevel string `env:"LOG_LEVEL"`

	// Registry Storage Settings
	RegistryBackend string `env:"REGISTRY_BACKEND" envDefault:"file"`
	FileDir         string `env:"FILE_DIR" envDefault:"."`
	DatabaseDSN     string `env:"DATABASE_URL"`

	S3BucketName      string `env:"S3_BUCKET_NAME"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3Key             string `env:"S3_KEY" envDefault:"registered_users.json"`
}

// IsDevelopment reports whether the process runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// ListenAddr is the host:port the WebSocket listener binds to.
func (c *AppConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.HostName, c.Port)
}

// LoadConfig reads an optional .env file and then parses the environment.
// Variables already present in the environment win over the file.
func LoadConfig(envFiles ...string) (*AppConfig, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	// A missing .env file is the normal production case.
	_ = godotenv.Load(envFiles...)

	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks required settings and value ranges.
func (c *AppConfig) validate() error {
	if c.Port < 1024 || c.Port > 65535 {
		return fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", c.Port, 1024, 65535)
	}

	if c.DiscordToken == "" {
		return errors.New("DISCORD_TOKEN environment variable is required")
	}
	if c.LinkChannelID == "" {
		return errors.New("LINK_CHANNEL_ID environment variable is required")
	}
	if c.GuildID == "" {
		return errors.New("GUILD_ID environment variable is required for command registration")
	}

	if c.HistoryLimit < 0 || c.HistoryLimit > 100 {
		return fmt.Errorf("HISTORY_LIMIT %d must be between 0 and 100", c.HistoryLimit)
	}
	if c.PresenceInterval <= 0 {
		return fmt.Errorf("PRESENCE_INTERVAL must be positive, got %s", c.PresenceInterval)
	}

	trimmed := c.AllowedOrigins[:0]
	for _, origin := range c.AllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			trimmed = append(trimmed, origin)
		}
	}
	c.AllowedOrigins = trimmed

	c.RegistryBackend = strings.ToLower(strings.TrimSpace(c.RegistryBackend))
	switch c.RegistryBackend {
	case BackendFile:
	case BackendPostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required for the %s registry backend", BackendPostgres)
		}
	case BackendS3:
		if c.S3BucketName == "" || c.S3Endpoint == "" || c.S3AccessKeyID == "" || c.S3SecretAccessKey == "" {
			return fmt.Errorf("S3_BUCKET_NAME, S3_ENDPOINT, S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required for the %s registry backend", BackendS3)
		}
	default:
		return fmt.Errorf("unknown REGISTRY_BACKEND %q", c.RegistryBackend)
	}

	return nil
}
