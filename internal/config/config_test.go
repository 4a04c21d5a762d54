package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("JWT_ACCESS_EXPIRY", "")
		t.Setenv("ANON_TRIAL_LIMIT", "")
		cfg := Load()

		assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
		assert.Equal(t, 3, cfg.AnonTrialLimit)
		assert.Equal(t, "plans.yaml", cfg.PlansConfigPath)
		assert.Equal(t, "https://www.googleapis.com/youtube/v3", cfg.YouTubeAPIURL)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("JWT_ACCESS_EXPIRY", "5m")
		t.Setenv("ANON_TRIAL_LIMIT", "7")
		t.Setenv("S3_BUCKET", "exports")
		t.Setenv("S3_ACCESS_KEY", "ak")
		t.Setenv("S3_SECRET_KEY", "sk")
		cfg := Load()

		assert.Equal(t, 5*time.Minute, cfg.JWTAccessExpiry)
		assert.Equal(t, 7, cfg.AnonTrialLimit)
		assert.True(t, cfg.StorageEnabled())
	})

	t.Run("bad values fall back", func(t *testing.T) {
		t.Setenv("JWT_REFRESH_EXPIRY", "soon")
		t.Setenv("YOUTUBE_RPS", "fast")
		cfg := Load()

		assert.Equal(t, 168*time.Hour, cfg.JWTRefreshExpiry)
		assert.Equal(t, 5, cfg.YouTubeRPS)
	})
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "DB_PASSWORD")

	cfg.JWTSecret = "s"
	cfg.DBPassword = "p"
	require.NoError(t, cfg.Validate())
}

func TestURL(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", cfg.URL())
}
