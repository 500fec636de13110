package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort          string
	ServerReadTimeout   time.Duration
	ServerWriteTimeout  time.Duration
	ServerIdleTimeout   time.Duration
	RequestTimeout      time.Duration
	APIBaseURL          string
	APITimeout          time.Duration
	DatabaseURL         string
	DBMaxConns          int32
	DBMinConns          int32
	SessionCookieName   string
	SessionCookieSecure bool
	SessionIdleTTL      time.Duration
	CSRFKey             []byte
	CORSOrigins         []string
	RateLimitRPM        int
	AuthRateLimitRPM    int
	LogLevel            string
	LogFormat           string
	RedirectDelay       time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		ServerReadTimeout:   getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		ServerWriteTimeout:  getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:   getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:      getDuration("REQUEST_TIMEOUT", 30*time.Second),
		APIBaseURL:          strings.TrimRight(getEnv("API_BASE_URL", ""), "/"),
		APITimeout:          getDuration("API_TIMEOUT", 0),
		DatabaseURL:         strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:          int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:          int32(getInt("DB_MIN_CONNS", 1)),
		SessionCookieName:   getEnv("SESSION_COOKIE_NAME", "pet_session"),
		SessionCookieSecure: getBool("SESSION_COOKIE_SECURE", false),
		SessionIdleTTL:      getDuration("SESSION_IDLE_TTL", 7*24*time.Hour),
		CSRFKey:             []byte(strings.TrimSpace(os.Getenv("CSRF_KEY"))),
		CORSOrigins:         splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:        getInt("RATE_LIMIT_RPM", 100),
		AuthRateLimitRPM:    getInt("AUTH_RATE_LIMIT_RPM", 10),
		LogLevel:            strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:           strings.ToLower(getEnv("LOG_FORMAT", "pretty")),
		RedirectDelay:       getDuration("REDIRECT_DELAY", 3*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if _, err := url.ParseRequestURI(c.APIBaseURL); err != nil {
		return fmt.Errorf("API_BASE_URL is invalid: %w", err)
	}

	if c.APITimeout < 0 {
		return fmt.Errorf("API_TIMEOUT cannot be negative")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if len(c.CSRFKey) != 32 {
		return fmt.Errorf("CSRF_KEY must be exactly 32 bytes")
	}

	if strings.TrimSpace(c.SessionCookieName) == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME cannot be empty")
	}

	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be positive")
	}

	if c.DBMinConns < 0 || c.DBMaxConns < c.DBMinConns {
		return fmt.Errorf("DB_MAX_CONNS must be at least DB_MIN_CONNS")
	}

	if c.RateLimitRPM <= 0 || c.AuthRateLimitRPM <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}

	if c.RedirectDelay < 0 {
		return fmt.Errorf("REDIRECT_DELAY cannot be negative")
	}

	switch c.LogFormat {
	case "pretty", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be pretty or json")
	}

	return nil
}

// CLIConfig is what petctl needs; it has no server settings.
type CLIConfig struct {
	APIBaseURL string
	APITimeout time.Duration
	TokenDB    string
	LogLevel   string
}

func LoadCLI() (*CLIConfig, error) {
	_ = godotenv.Load()

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	cfg := &CLIConfig{
		APIBaseURL: strings.TrimRight(getEnv("PETCTL_API_URL", getEnv("API_BASE_URL", "")), "/"),
		APITimeout: getDuration("API_TIMEOUT", 30*time.Second),
		TokenDB:    getEnv("PETCTL_DB", filepath.Join(home, ".petctl", "tokens.db")),
		LogLevel:   strings.ToLower(getEnv("LOG_LEVEL", "warn")),
	}

	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("PETCTL_API_URL is required")
	}

	return cfg, nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
