package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env          string
	Addr         string
	PublicURL    *url.URL
	DBDSN        string
	CookieSecret string
	SessionTTL   time.Duration
	LogLevel     string

	// Memory backend knobs (used when DBDSN is empty).
	SimLatency time.Duration
	SeedDemo   bool

	// Text-insight collaborator.
	GeminiAPIKey   string
	GeminiModel    string
	InsightTimeout time.Duration

	// Password reset delivery.
	ResetTokenTTL time.Duration
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPTLSMode   string
	SMTPFromName  string
	SMTPFromEmail string
}

// Load reads a .env file if present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return LoadFromEnv(os.Getenv)
}

func LoadFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Env:           getenv("APP_ENV"),
		Addr:          getenv("APP_ADDR"),
		DBDSN:         getenv("APP_DB_DSN"),
		LogLevel:      getenv("APP_LOG_LEVEL"),
		CookieSecret:  getenv("APP_COOKIE_SECRET"),
		GeminiAPIKey:  getenv("APP_GEMINI_API_KEY"),
		GeminiModel:   getenv("APP_GEMINI_MODEL"),
		SMTPHost:      getenv("APP_SMTP_HOST"),
		SMTPUsername:  getenv("APP_SMTP_USERNAME"),
		SMTPPassword:  getenv("APP_SMTP_PASSWORD"),
		SMTPTLSMode:   getenv("APP_SMTP_TLS_MODE"),
		SMTPFromName:  getenv("APP_SMTP_FROM_NAME"),
		SMTPFromEmail: getenv("APP_SMTP_FROM_EMAIL"),
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}
	switch cfg.Env {
	case "dev", "prod", "test":
	default:
		return Config{}, errors.New("APP_ENV: must be one of dev, test, prod")
	}

	publicURLRaw := getenv("APP_PUBLIC_URL")
	if publicURLRaw != "" {
		parsed, err := url.Parse(publicURLRaw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_PUBLIC_URL: %w", err)
		}
		if !parsed.IsAbs() || parsed.Host == "" {
			return Config{}, errors.New("APP_PUBLIC_URL: must be an absolute URL")
		}
		switch parsed.Scheme {
		case "http", "https":
		default:
			return Config{}, errors.New("APP_PUBLIC_URL: scheme must be http or https")
		}
		cfg.PublicURL = parsed
	}

	var err error
	if cfg.SessionTTL, err = parseDuration(getenv("APP_SESSION_TTL"), 30*24*time.Hour, "APP_SESSION_TTL"); err != nil {
		return Config{}, err
	}
	if cfg.SimLatency, err = parseDuration(getenv("APP_SIM_LATENCY"), 0, "APP_SIM_LATENCY"); err != nil {
		return Config{}, err
	}
	if cfg.InsightTimeout, err = parseDuration(getenv("APP_INSIGHT_TIMEOUT"), 5*time.Second, "APP_INSIGHT_TIMEOUT"); err != nil {
		return Config{}, err
	}
	if cfg.ResetTokenTTL, err = parseDuration(getenv("APP_RESET_TOKEN_TTL"), 2*time.Hour, "APP_RESET_TOKEN_TTL"); err != nil {
		return Config{}, err
	}

	if raw := getenv("APP_SMTP_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, errors.New("APP_SMTP_PORT: must be a valid port number")
		}
		cfg.SMTPPort = port
	} else if cfg.SMTPHost != "" {
		cfg.SMTPPort = 587
	}

	cfg.SeedDemo = parseBool(getenv("APP_SEED_DEMO"))

	if cfg.IsProd() {
		if cfg.PublicURL == nil {
			return Config{}, errors.New("APP_PUBLIC_URL: required in prod")
		}
		if cfg.DBDSN == "" {
			return Config{}, errors.New("APP_DB_DSN: required in prod")
		}
		if len(cfg.CookieSecret) < 32 {
			return Config{}, errors.New("APP_COOKIE_SECRET: must be at least 32 bytes in prod")
		}
	}

	return cfg, nil
}

func (c Config) IsProd() bool { return c.Env == "prod" }

func (c Config) CookieSecure() bool {
	if c.PublicURL != nil {
		return c.PublicURL.Scheme == "https"
	}
	return c.IsProd()
}

func parseDuration(raw string, fallback time.Duration, name string) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative", name)
	}
	return d, nil
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
