package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:5000", cfg.Server.Addr())
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, 168*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "token", cfg.Auth.CookieName)
	assert.Equal(t, "None", cfg.Auth.CookieSameSite)
	assert.Equal(t, int64(5<<20), cfg.Storage.MaxFileSize)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Zero(t, cfg.Ticketmaster.SyncInterval)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.GitHub.Enabled())
	assert.False(t, cfg.SecureCookie())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("TICKETMASTER_SYNC_INTERVAL", "6h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Server.IsProduction())
	assert.True(t, cfg.SecureCookie())
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 6*time.Hour, cfg.Ticketmaster.SyncInterval)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestValidate(t *testing.T) {
	valid := Config{
		Auth:     AuthConfig{JWTSecret: "s", TokenTTL: time.Hour, CookieSameSite: "Lax"},
		Database: DatabaseConfig{Driver: DriverMongo},
	}
	assert.NoError(t, valid.Validate())

	badDriver := valid
	badDriver.Database.Driver = "sqlite"
	assert.ErrorContains(t, badDriver.Validate(), "DB_DRIVER")

	badSameSite := valid
	badSameSite.Auth.CookieSameSite = "sometimes"
	assert.ErrorContains(t, badSameSite.Validate(), "AUTH_COOKIE_SAMESITE")

	badTTL := valid
	badTTL.Auth.TokenTTL = 0
	assert.ErrorContains(t, badTTL.Validate(), "JWT_TTL")
}
