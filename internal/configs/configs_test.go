package configs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("LINK_CHANNEL_ID", "111")
	t.Setenv("GUILD_ID", "222")
}

// noEnvFile points LoadConfig at a path that does not exist so a developer's .env never leaks in.
func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig(noEnvFile(t))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.HistoryLimit != 15 {
		t.Errorf("HistoryLimit = %d, want 15", cfg.HistoryLimit)
	}
	if cfg.PresenceInterval != 60*time.Second {
		t.Errorf("PresenceInterval = %s, want 60s", cfg.PresenceInterval)
	}
	if cfg.PresenceStartupDelay != 360*time.Second {
		t.Errorf("PresenceStartupDelay = %s, want 360s", cfg.PresenceStartupDelay)
	}
	if cfg.RegistryBackend != BackendFile {
		t.Errorf("RegistryBackend = %q, want %q", cfg.RegistryBackend, BackendFile)
	}
	if cfg.WebhookName != "NeosVR Link" {
		t.Errorf("WebhookName = %q", cfg.WebhookName)
	}
	if !cfg.IsDevelopment() {
		t.Error("default environment should be development")
	}
	if cfg.ListenAddr() != "0.0.0.0:8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr())
	}
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"token", "DISCORD_TOKEN"},
		{"channel", "LINK_CHANNEL_ID"},
		{"guild", "GUILD_ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.unset, "")

			_, err := LoadConfig(noEnvFile(t))
			if err == nil || !strings.Contains(err.Error(), tt.unset) {
				t.Errorf("LoadConfig error = %v, want mention of %s", err, tt.unset)
			}
		})
	}
}

func TestLoadConfig_PortRange(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "80")

	if _, err := LoadConfig(noEnvFile(t)); err == nil {
		t.Error("expected privileged port to be rejected")
	}
}

func TestLoadConfig_Backends(t *testing.T) {
	t.Run("postgres needs dsn", func(t *testing.T) {
		setRequired(t)
		t.Setenv("REGISTRY_BACKEND", "Postgres")

		if _, err := LoadConfig(noEnvFile(t)); err == nil {
			t.Error("expected missing DATABASE_URL to fail")
		}

		t.Setenv("DATABASE_URL", "postgres://localhost/neoslink")
		cfg, err := LoadConfig(noEnvFile(t))
		if err != nil {
			t.Fatalf("LoadConfig: %v", err)
		}
		if cfg.RegistryBackend != BackendPostgres {
			t.Errorf("RegistryBackend = %q, want normalized %q", cfg.RegistryBackend, BackendPostgres)
		}
	})

	t.Run("s3 needs credentials", func(t *testing.T) {
		setRequired(t)
		t.Setenv("REGISTRY_BACKEND", "s3")
		t.Setenv("S3_BUCKET_NAME", "bucket")

		if _, err := LoadConfig(noEnvFile(t)); err == nil {
			t.Error("expected incomplete S3 settings to fail")
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		setRequired(t)
		t.Setenv("REGISTRY_BACKEND", "redis")

		if _, err := LoadConfig(noEnvFile(t)); err == nil {
			t.Error("expected unknown backend to fail")
		}
	})
}

func TestLoadConfig_AllowedOriginsTrimmed(t *testing.T) {
	setRequired(t)
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := LoadConfig(noEnvFile(t))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
	for i := range want {
		if cfg.AllowedOrigins[i] != want[i] {
			t.Errorf("AllowedOrigins[%d] = %q, want %q", i, cfg.AllowedOrigins[i], want[i])
		}
	}
}

func TestLoadConfig_DotEnvFile(t *testing.T) {
	setRequired(t)
	t.Setenv("HISTORY_LIMIT", "")
	os.Unsetenv("HISTORY_LIMIT")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("HISTORY_LIMIT=7\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("HISTORY_LIMIT") })

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HistoryLimit != 7 {
		t.Errorf("HistoryLimit = %d, want 7 from .env", cfg.HistoryLimit)
	}
}
