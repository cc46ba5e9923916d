package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port         int
	AdminSecret  string
	GinMode      string
	SessionsDir  string
	DatabaseURL  string
	DefaultProxy string
	MediaTimeout time.Duration
	TokenExpiry  time.Duration
	TLSCertFile  string
	TLSKeyFile   string
}

type Env interface {
	Getenv(key string) string
}

type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }

func LoadConfig() (Config, error) {
	return LoadConfigFromEnv(osEnv{})
}

func LoadConfigFromEnv(env Env) (Config, error) {
	cfg := Config{
		Port:         3000,
		GinMode:      "release",
		SessionsDir:  "sessions",
		MediaTimeout: 15 * time.Second,
		TokenExpiry:  24 * time.Hour,
	}

	if raw := env.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid PORT")
		}
		cfg.Port = port
	}

	cfg.AdminSecret = env.Getenv("ADMIN_SECRET")
	if cfg.AdminSecret == "" {
		return Config{}, fmt.Errorf("ADMIN_SECRET is required")
	}

	if raw := env.Getenv("GIN_MODE"); raw != "" {
		cfg.GinMode = raw
	}
	if raw := env.Getenv("SESSIONS_DIR"); raw != "" {
		cfg.SessionsDir = raw
	}
	cfg.DatabaseURL = env.Getenv("DATABASE_URL")
	cfg.DefaultProxy = env.Getenv("IG_PROXY")

	if raw := env.Getenv("MEDIA_TIMEOUT_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("invalid MEDIA_TIMEOUT_SECONDS")
		}
		cfg.MediaTimeout = time.Duration(seconds) * time.Second
	}

	if raw := env.Getenv("TOKEN_EXPIRY_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("invalid TOKEN_EXPIRY_SECONDS")
		}
		cfg.TokenExpiry = time.Duration(seconds) * time.Second
	}

	cfg.TLSCertFile = env.Getenv("TLS_CERT_FILE")
	cfg.TLSKeyFile = env.Getenv("TLS_KEY_FILE")

	return cfg, nil
}
