package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv       string
	HTTPPort     string
	DBDriver     string // postgres | sqlite
	DatabaseDSN  string
	JWTSecret    string
	SessionTTL   time.Duration
	CookieName   string
	CookieSecure bool
	CORSOrigins  string
	LogLevel     string

	DemoLogin         bool
	SelfRegisterRoles []string

	AdminUsername string
	AdminPassword string
	AdminEmail    string

	// Warnings collects insecure defaults and unparsable values found by
	// Load, for the caller to log once its logger is up.
	Warnings []string
}

const (
	defaultDSN         = "host=localhost user=postgres password=postgres dbname=restoran port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:5173"
)

func Load() *Config {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	env := &loader{}
	cfg := &Config{
		AppEnv:       getEnv("APP_ENV", "production"),
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		DBDriver:     strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DatabaseDSN:  getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		SessionTTL:   env.duration("SESSION_TTL", 24*time.Hour),
		CookieName:   getEnv("SESSION_COOKIE", "restoran_session"),
		CookieSecure: env.boolean("COOKIE_SECURE", false),
		CORSOrigins:  getEnv("CORS_ALLOWED_ORIGINS", defaultCORSOrigins),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		DemoLogin:         env.boolean("DEMO_LOGIN", true),
		SelfRegisterRoles: getList("SELF_REGISTER_ROLES", []string{"customer", "staff", "chef", "rider"}),

		AdminUsername: getEnv("ADMIN_USERNAME", "Admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@example.com"),
	}

	if cfg.IsDevelopment() && cfg.JWTSecret == "" {
		cfg.JWTSecret = "development-only-secret-change-me-please"
		env.warn("JWT_SECRET not set, using the development secret")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters")
	}
	if cfg.DBDriver == "postgres" && cfg.DatabaseDSN == defaultDSN {
		env.warn("DATABASE_DSN is using the default value")
	}
	if cfg.AdminPassword == "admin123" && !cfg.IsDevelopment() {
		env.warn("ADMIN_PASSWORD is using the demo credential")
	}
	if cfg.CORSOrigins == defaultCORSOrigins {
		env.warn("CORS_ALLOWED_ORIGINS is using the default value")
	}

	cfg.Warnings = env.warnings
	return cfg
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development" || c.AppEnv == "dev"
}

func (c *Config) CORSOriginList() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

type loader struct {
	warnings []string
}

func (l *loader) warn(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func (l *loader) boolean(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		l.warn("%s=%q is not a boolean, using %t", key, v, def)
		return def
	}
	return b
}

func (l *loader) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		l.warn("%s=%q is not a valid duration, using %s", key, v, def)
		return def
	}
	return d
}

func getList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(strings.ToLower(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
