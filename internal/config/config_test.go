package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("SELF_REGISTER_ROLES", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.DemoLogin)
	assert.Equal(t, []string{"customer", "staff", "chef", "rider"}, cfg.SelfRegisterRoles)
	assert.Equal(t, "Admin", cfg.AdminUsername)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("DEMO_LOGIN", "false")
	t.Setenv("SELF_REGISTER_ROLES", " Customer, rider ,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("COOKIE_SECURE", "not-a-bool")

	cfg := Load()
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.False(t, cfg.DemoLogin)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, []string{"customer", "rider"}, cfg.SelfRegisterRoles)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOriginList())
	assert.Contains(t, cfg.Warnings, `COOKIE_SECURE="not-a-bool" is not a boolean, using false`)
	assert.NotContains(t, cfg.Warnings, "CORS_ALLOWED_ORIGINS is using the default value")
}

func TestDevelopmentSecretFallback(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg := Load()
	assert.True(t, cfg.IsDevelopment())
	assert.GreaterOrEqual(t, len(cfg.JWTSecret), 32)
	assert.Contains(t, cfg.Warnings, "JWT_SECRET not set, using the development secret")
}
