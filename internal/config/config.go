package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Security  SecurityConfig  `mapstructure:"security"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// LLMConfig selects the upstream model service. The API credential is never
// configured here; it is stored per tenant.
type LLMConfig struct {
	Provider string       `mapstructure:"provider"`
	Gemini   GeminiConfig `mapstructure:"gemini"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
}

type GeminiConfig struct {
	Model string `mapstructure:"model"`
}

type OpenAIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type SecurityConfig struct {
	// EncryptionKey protects tenant credentials at rest; base64, 32 bytes.
	EncryptionKey string `mapstructure:"encryption_key"`
}

// AssistantConfig tunes session lifecycle and turn execution
type AssistantConfig struct {
	IdleTimeout     time.Duration   `mapstructure:"idle_timeout"`
	SweepInterval   time.Duration   `mapstructure:"sweep_interval"`
	MaxToolRounds   int             `mapstructure:"max_tool_rounds"`
	MaxMessages     int             `mapstructure:"max_messages"`
	MaxMessageChars int             `mapstructure:"max_message_chars"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	TurnsPerMinute int  `mapstructure:"turns_per_minute"`
}

type LoggingConfig struct {
	Level  string        `mapstructure:"level"`
	Format string        `mapstructure:"format"`
	File   LogFileConfig `mapstructure:"file"`
}

type LogFileConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Path         string        `mapstructure:"path"`
	MaxAge       time.Duration `mapstructure:"max_age"`
	RotationTime time.Duration `mapstructure:"rotation_time"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

var defaults = map[string]any{
	"app.env": "development",

	"server.host":             "0.0.0.0",
	"server.port":             8080,
	"server.read_timeout":     "30s",
	"server.write_timeout":    "120s",
	"server.shutdown_timeout": "15s",

	"database.host":      "localhost",
	"database.port":      5432,
	"database.user":      "poctrail",
	"database.database":  "poctrail",
	"database.ssl_mode":  "disable",
	"database.max_conns": 20,
	"database.min_conns": 5,

	"redis.host": "localhost",
	"redis.port": 6379,
	"redis.db":   0,

	"auth.access_token_ttl":  "15m",
	"auth.refresh_token_ttl": "168h",

	"llm.provider":        "gemini",
	"llm.gemini.model":    "gemini-1.5-flash",
	"llm.openai.base_url": "https://api.openai.com/v1",
	"llm.openai.model":    "gpt-4o-mini",

	"assistant.idle_timeout":      "10m",
	"assistant.sweep_interval":    "1m",
	"assistant.max_tool_rounds":   4,
	"assistant.max_messages":      200,
	"assistant.max_message_chars": 8192,

	"assistant.rate_limit.enabled":          true,
	"assistant.rate_limit.turns_per_minute": 30,

	"logging.level":              "info",
	"logging.format":             "json",
	"logging.file.enabled":       false,
	"logging.file.path":          "logs/assistant.log",
	"logging.file.max_age":       "168h",
	"logging.file.rotation_time": "24h",

	"metrics.enabled": true,
	"metrics.path":    "/metrics",
}

// envOverrides binds the secrets and deployment knobs that arrive through
// the environment rather than the YAML file.
var envOverrides = map[string]string{
	"app.env":                 "APP_ENV",
	"database.host":           "POSTGRES_HOST",
	"database.password":       "POSTGRES_PASSWORD",
	"redis.host":              "REDIS_HOST",
	"redis.password":          "REDIS_PASSWORD",
	"auth.jwt_secret":         "JWT_SECRET",
	"security.encryption_key": "ENCRYPTION_KEY",
	"llm.provider":            "LLM_PROVIDER",
	"llm.openai.base_url":     "OPENAI_BASE_URL",
}

// Load reads the YAML config file named by CONFIG_PATH, layers environment
// overrides on top, and fills the rest from defaults. A missing file is not
// an error; running on defaults and environment alone is supported.
func Load() (*Config, error) {
	v := viper.New()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./configs/config.yaml"
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.AutomaticEnv()
	for key, env := range envOverrides {
		v.BindEnv(key, env)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}
	return &cfg, nil
}
