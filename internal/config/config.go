package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Env            string
	Port           string
	DatabaseDriver string
	DatabaseURL    string
	SQLitePath     string
	RedisAddr      string
	RedisDB        int
	JWTSecret      string
	JWTIssuer      string
	JWTTTL         time.Duration
	SessionSecret  string
	CORSOrigins    []string
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Env:            fallback(os.Getenv("ENV"), "local"),
		Port:           fallback(os.Getenv("PORT"), "8080"),
		DatabaseDriver: strings.ToLower(fallback(os.Getenv("DATABASE_DRIVER"), "postgres")),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:     fallback(os.Getenv("SQLITE_PATH"), "storage/students.db"),
		RedisAddr:      strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		JWTSecret:      strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:      fallback(os.Getenv("JWT_ISSUER"), "student-api-backend"),
		CORSOrigins:    parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
	}

	minutes := fallback(os.Getenv("JWT_TTL_MINUTES"), "60")
	if ttlMinutes, err := strconv.Atoi(minutes); err == nil && ttlMinutes > 0 {
		cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute
	} else {
		cfg.JWTTTL = 60 * time.Minute
	}

	if db, err := strconv.Atoi(fallback(os.Getenv("REDIS_DB"), "0")); err == nil && db >= 0 {
		cfg.RedisDB = db
	}

	switch cfg.DatabaseDriver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required when DATABASE_DRIVER=postgres")
		}
	case "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	// The session secret guards only the convenience cookie route; reusing
	// the JWT secret when unset keeps single-var deployments working.
	cfg.SessionSecret = fallback(os.Getenv("SESSION_SECRET"), cfg.JWTSecret)

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
