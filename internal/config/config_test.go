package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("PUBLIC_BASE_URL", "https://billing.example.com/")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "https://billing.example.com", cfg.PublicBaseURL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 5, cfg.MailMaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.MailPollInterval)
	assert.True(t, cfg.IsDev())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"dev with default secret", Config{Env: "development", DBDriver: "mysql", JWTSecret: defaultJWTSecret, MailMaxAttempts: 1}, false},
		{"production with default secret", Config{Env: "production", DBDriver: "mysql", JWTSecret: defaultJWTSecret, MailMaxAttempts: 1}, true},
		{"production with secret", Config{Env: "production", DBDriver: "postgres", JWTSecret: "s3cret", MailMaxAttempts: 3}, false},
		{"unknown driver", Config{Env: "development", DBDriver: "oracle", MailMaxAttempts: 1}, true},
		{"zero mail attempts", Config{Env: "development", DBDriver: "sqlite"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
