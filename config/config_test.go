package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("DATABASE_URL", "sqlite::memory:")
	t.Setenv("PORT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("SESSION_COOKIE_NAME", "")
	t.Setenv("SMTP_HOST", "")
	t.Setenv("AWS_S3_BUCKET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite::memory:", cfg.DatabaseURL)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "session", cfg.SessionCookieName)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.True(t, cfg.IsTest())
	assert.False(t, cfg.S3Enabled())
	assert.False(t, cfg.SMTPEnabled())
	assert.Same(t, cfg, GetConfig(), "Load should store the loaded config")
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("DATABASE_URL", "postgresql://db/wine")
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("AWS_S3_BUCKET", "rfq-attachments")
	t.Setenv("REDIS_URL", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("SMTP_FROM", "noreply@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.S3Enabled())
	assert.Equal(t, 2, cfg.RedisDB)
	assert.True(t, cfg.SMTPEnabled())
	assert.Equal(t, 2525, cfg.SMTPPort)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid minimal config",
			cfg:  Config{DatabaseURL: "sqlite::memory:"},
		},
		{
			name:    "missing database url",
			cfg:     Config{},
			wantErr: "DATABASE_URL is required",
		},
		{
			name:    "smtp host without sender",
			cfg:     Config{DatabaseURL: "sqlite::memory:", SMTPHost: "smtp.example.com"},
			wantErr: "SMTP_FROM is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestEnvironmentHelpers(t *testing.T) {
	assert.True(t, (&Config{GoEnv: "development"}).IsDevelopment())
	assert.False(t, (&Config{GoEnv: "development"}).IsProduction())
	assert.True(t, (&Config{GoEnv: "test"}).IsTest())
}
