package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrMissingDatabaseURL = errors.New("DATABASE_URL is not set")

type Config struct {
	DatabaseURL     string
	Port            string
	Environment     string
	ConnectTimeout  time.Duration
	IdleTimeout     time.Duration
	RetryDelay      time.Duration
	MaxOpenConns    int
	StaticDir       string
	AllowedOrigins  []string
	AllowedDomain   string
	ShutdownTimeout time.Duration
}

// Load reads an optional .env file and then the process environment.
// A missing DATABASE_URL is the only fatal condition.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded, using process environment")
	}

	cfg := &Config{
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		Port:            getEnv("PORT", "5000"),
		Environment:     getEnv("APP_ENV", "development"),
		ConnectTimeout:  getEnvDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		IdleTimeout:     getEnvDuration("DB_IDLE_TIMEOUT", 45*time.Second),
		RetryDelay:      getEnvDuration("DB_RETRY_DELAY", 5*time.Second),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
		StaticDir:       getEnv("STATIC_DIR", "public"),
		AllowedOrigins:  splitList(getEnv("CORS_ORIGINS", "*")),
		AllowedDomain:   "nitj.ac.in",
		ShutdownTimeout: 10 * time.Second,
	}
	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("5s") or bare milliseconds ("5000").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
