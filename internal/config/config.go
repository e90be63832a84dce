package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me"

// Config holds application level configuration loaded from .env and the environment.
type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	Env         string `mapstructure:"APP_ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	DBDriver    string `mapstructure:"DB_DRIVER"`
	DBDSN       string `mapstructure:"DB_DSN"`
	RedisAddr   string `mapstructure:"REDIS_ADDR"`
	RedisDB     int    `mapstructure:"REDIS_DB"`
	RedisPass   string `mapstructure:"REDIS_PASSWORD"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	SwaggerHost string `mapstructure:"SWAGGER_HOST"`

	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`
	StorageRoot   string `mapstructure:"STORAGE_ROOT"`
	// StorageSweepInterval of zero disables the background sweep.
	StorageSweepInterval time.Duration `mapstructure:"STORAGE_SWEEP_INTERVAL"`

	SMTPHost         string        `mapstructure:"SMTP_HOST"`
	SMTPPort         int           `mapstructure:"SMTP_PORT"`
	SMTPUsername     string        `mapstructure:"SMTP_USERNAME"`
	SMTPPassword     string        `mapstructure:"SMTP_PASSWORD"`
	MailFrom         string        `mapstructure:"MAIL_FROM"`
	MailFromName     string        `mapstructure:"MAIL_FROM_NAME"`
	MailMaxAttempts  int           `mapstructure:"MAIL_MAX_ATTEMPTS"`
	MailPollInterval time.Duration `mapstructure:"MAIL_POLL_INTERVAL"`

	CORSOrigins []string `mapstructure:"-"`
}

var keys = []string{
	"SERVER_PORT", "APP_ENV", "LOG_LEVEL", "DB_DRIVER", "DB_DSN",
	"REDIS_ADDR", "REDIS_DB", "REDIS_PASSWORD", "JWT_SECRET", "SWAGGER_HOST",
	"PUBLIC_BASE_URL", "STORAGE_ROOT", "STORAGE_SWEEP_INTERVAL",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD",
	"MAIL_FROM", "MAIL_FROM_NAME", "MAIL_MAX_ATTEMPTS", "MAIL_POLL_INTERVAL",
	"CORS_ORIGINS",
}

// Load builds Config from .env (when present) and the environment with sensible defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_DSN", "user:password@tcp(localhost:3306)/acemc?charset=utf8mb4&parseTime=True&loc=UTC")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("STORAGE_ROOT", "./storage/public")
	v.SetDefault("STORAGE_SWEEP_INTERVAL", time.Hour)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MAIL_FROM", "no-reply@acemc.local")
	v.SetDefault("MAIL_FROM_NAME", "ACEMC Billing System")
	v.SetDefault("MAIL_MAX_ATTEMPTS", 5)
	v.SetDefault("MAIL_POLL_INTERVAL", 5*time.Second)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// A missing .env is fine; the environment still applies.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	for _, o := range strings.Split(v.GetString("CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	return cfg, nil
}

// IsDev reports whether the server runs in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate refuses configurations that are unsafe outside development.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be mysql, postgres or sqlite, got %q", c.DBDriver)
	}
	if !c.IsDev() && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		return fmt.Errorf("JWT_SECRET must be set when APP_ENV is %q", c.Env)
	}
	if c.MailMaxAttempts < 1 {
		return fmt.Errorf("MAIL_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}
