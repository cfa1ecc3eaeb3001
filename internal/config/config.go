package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName       = "CrackedAPI"
	defaultAppEnv        = "development"
	defaultPort          = "8080"
	defaultLogLevel      = "info"
	defaultShutdownDelay = 10 * time.Second
	defaultSessionTTL    = time.Hour
	defaultVerifyTTL     = 15 * time.Minute
	defaultCurrency      = "INR"

	sessionTTLSecondsEnvVar = "SESSION_TTL_SECONDS"
	verifyTTLSecondsEnvVar  = "VERIFY_TTL_SECONDS"
	shutdownSecondsEnvVar   = "SHUTDOWN_TIMEOUT_SECONDS"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	JWTSecret      string
	GatewayKeyID   string
	GatewaySecret  string
	ResendAPIKey   string
	EmailFrom      string
	Currency       string
	AllowedOrigins []string
	SessionTTL     time.Duration
	VerifyTTL      time.Duration
	ShutdownPeriod time.Duration
}

// Load reads configuration values from the environment and populates a Config
// instance. A .env file in the working directory is applied first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		GatewayKeyID:   os.Getenv("GATEWAY_KEY_ID"),
		GatewaySecret:  os.Getenv("GATEWAY_KEY_SECRET"),
		ResendAPIKey:   os.Getenv("RESEND_API_KEY"),
		EmailFrom:      os.Getenv("EMAIL_FROM"),
		Currency:       getEnv("CURRENCY", defaultCurrency),
		SessionTTL:     defaultSessionTTL,
		VerifyTTL:      defaultVerifyTTL,
		ShutdownPeriod: defaultShutdownDelay,
	}

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}

	var err error
	if cfg.SessionTTL, err = durationEnv(sessionTTLSecondsEnvVar, cfg.SessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.VerifyTTL, err = durationEnv(verifyTTLSecondsEnvVar, cfg.VerifyTTL); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownPeriod, err = durationEnv(shutdownSecondsEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}
	if cfg.GatewaySecret == "" {
		return Config{}, fmt.Errorf("GATEWAY_KEY_SECRET must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	seconds, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return time.Duration(seconds) * time.Second, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
