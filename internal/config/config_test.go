package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poctrail/assistant/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("expected default read timeout 30s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("expected default database port 5432, got %d", cfg.Database.Port)
	}
	if cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Errorf("expected default access token TTL 15m, got %v", cfg.Auth.AccessTokenTTL)
	}
	if cfg.Assistant.IdleTimeout != 10*time.Minute {
		t.Errorf("expected default idle timeout 10m, got %v", cfg.Assistant.IdleTimeout)
	}
	if cfg.Assistant.MaxToolRounds != 4 {
		t.Errorf("expected default max tool rounds 4, got %d", cfg.Assistant.MaxToolRounds)
	}
	if !cfg.Assistant.RateLimit.Enabled {
		t.Error("expected rate limiting enabled by default")
	}
	if !cfg.Metrics.Enabled {
		t.Error("expected metrics enabled by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("POSTGRES_PASSWORD", "wordpass")
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("LLM_PROVIDER", "openai")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Database.Password != "wordpass" {
		t.Errorf("database password = %q, want wordpass", cfg.Database.Password)
	}
	if cfg.Redis.Host != "cache.internal" {
		t.Errorf("redis host = %q, want cache.internal", cfg.Redis.Host)
	}
	if cfg.Auth.JWTSecret != "from-env" {
		t.Errorf("jwt secret = %q, want from-env", cfg.Auth.JWTSecret)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("llm provider = %q, want openai", cfg.LLM.Provider)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
app:
  env: staging
server:
  port: 9191
assistant:
  idle_timeout: 5m
  rate_limit:
    turns_per_minute: 7
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("APP_ENV", "production")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 9191 {
		t.Errorf("server port = %d, want 9191", cfg.Server.Port)
	}
	if cfg.Assistant.IdleTimeout != 5*time.Minute {
		t.Errorf("idle timeout = %v, want 5m", cfg.Assistant.IdleTimeout)
	}
	if cfg.Assistant.RateLimit.TurnsPerMinute != 7 {
		t.Errorf("turns per minute = %d, want 7", cfg.Assistant.RateLimit.TurnsPerMinute)
	}

	// Environment wins over the file.
	if cfg.App.Env != "production" {
		t.Errorf("app env = %q, want production", cfg.App.Env)
	}

	// Keys absent from the file keep their defaults.
	if cfg.Assistant.MaxMessages != 200 {
		t.Errorf("max messages = %d, want 200", cfg.Assistant.MaxMessages)
	}
}

func TestConnectionStrings(t *testing.T) {
	db := config.DatabaseConfig{
		Host: "db.internal", Port: 5433,
		User: "app", Password: "pw",
		Database: "assistant", SSLMode: "require",
	}
	if got, want := db.DSN(), "postgres://app:pw@db.internal:5433/assistant?sslmode=require"; got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}

	rd := config.RedisConfig{Host: "cache.internal", Port: 6380}
	if got, want := rd.Addr(), "cache.internal:6380"; got != want {
		t.Errorf("Addr() = %q, want %q", got, want)
	}
}
