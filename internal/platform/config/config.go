package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	CarrierBearer = "bearer"
	CarrierCookie = "cookie"

	// DefaultTokenTTL is the fixed 30 day session lifetime.
	DefaultTokenTTL = 30 * 24 * time.Hour

	devSigningKey = "dev-secret-key-change-in-production"
)

// Server captures process level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string

	JWTSecret    string
	TokenTTL     time.Duration
	Carrier      string
	CookieSecure bool
	BcryptCost   int

	DatabaseURL     string
	Redis           RedisConfig
	CleanupInterval time.Duration

	Google GoogleConfig
	Admin  AdminConfig
}

// RedisConfig configures the optional Redis session store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// GoogleConfig enables federated sign-in when every field is set.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.RedirectURL != ""
}

// AdminConfig describes the administrator created at startup.
type AdminConfig struct {
	Email    string
	Password string
}

func (a AdminConfig) Enabled() bool {
	return a.Email != "" && a.Password != ""
}

// IsLocal reports whether the process runs on a developer machine.
func (s Server) IsLocal() bool {
	return s.Environment == "local"
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:        getenv("GRACE_ADDR", ":8080"),
		Environment: getenv("ENVIRONMENT", "local"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		Carrier:     getenv("TOKEN_CARRIER", CarrierBearer),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Google: GoogleConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		},
		Admin: AdminConfig{
			Email:    os.Getenv("ADMIN_EMAIL"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
	}

	var err error
	if cfg.TokenTTL, err = durationEnv("TOKEN_TTL", DefaultTokenTTL); err != nil {
		return Server{}, err
	}
	if cfg.CleanupInterval, err = durationEnv("SESSION_CLEANUP_INTERVAL", time.Hour); err != nil {
		return Server{}, err
	}
	if cfg.BcryptCost, err = intEnv("BCRYPT_COST", 10); err != nil {
		return Server{}, err
	}
	if cfg.CookieSecure, err = boolEnv("COOKIE_SECURE", !cfg.IsLocal()); err != nil {
		return Server{}, err
	}

	if cfg.Carrier != CarrierBearer && cfg.Carrier != CarrierCookie {
		return Server{}, fmt.Errorf("TOKEN_CARRIER must be %q or %q, got %q", CarrierBearer, CarrierCookie, cfg.Carrier)
	}
	if cfg.JWTSecret == "" {
		if cfg.Environment == "production" {
			return Server{}, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = devSigningKey
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration: %q", key, v)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}
