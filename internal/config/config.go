package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full runtime configuration of the API and the CLI.
type Config struct {
	ServerPort         string
	GinMode            string
	LogLevel           slog.Level
	JWTSecret          string
	JWTExpirationHours int64
	InitialAdminEmail  string
	DB                 *DBConfig
	Twilio             TwilioConfig
	Redis              RedisConfig
	ReminderLockTTL    time.Duration
	ShutdownTimeout    time.Duration
}

// TwilioConfig holds SMS gateway credentials. Reminders are disabled when
// AccountSID or AuthToken is empty.
type TwilioConfig struct {
	AccountSID    string
	AuthToken     string
	FromNumber    string
	RatePerSecond float64
}

// Enabled reports whether the gateway can be constructed.
func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != ""
}

// RedisConfig is optional; an empty Addr means a process-local lock.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads the configuration from the environment. Call godotenv.Load
// beforehand to pick up a .env file.
func Load() (*Config, error) {
	dbCfg, err := LoadDBConfig()
	if err != nil {
		return nil, err
	}

	jwtSecret := os.Getenv("JWT_SECRET_KEY")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY not set in environment")
	}

	jwtExpHours := int64(getenvInt("JWT_EXPIRATION_HOURS", 7*24))
	if jwtExpHours <= 0 {
		slog.Warn("invalid JWT_EXPIRATION_HOURS, defaulting to 7 days", "value", jwtExpHours)
		jwtExpHours = 7 * 24
	}

	return &Config{
		ServerPort:         getenv("SERVER_PORT", "5000"),
		GinMode:            getenv("GIN_MODE", "debug"),
		LogLevel:           parseLevel(os.Getenv("LOG_LEVEL")),
		JWTSecret:          jwtSecret,
		JWTExpirationHours: jwtExpHours,
		InitialAdminEmail:  strings.ToLower(strings.TrimSpace(os.Getenv("INITIAL_ADMIN_EMAIL"))),
		DB:                 dbCfg,
		Twilio: TwilioConfig{
			AccountSID:    os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:     os.Getenv("TWILIO_AUTH_TOKEN"),
			FromNumber:    os.Getenv("TWILIO_PHONE_NUMBER"),
			RatePerSecond: getenvFloat("TWILIO_RATE_PER_SECOND", 1),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getenvInt("REDIS_DB", 0),
		},
		ReminderLockTTL: getenvDuration("REMINDER_LOCK_TTL", 5*time.Minute),
		ShutdownTimeout: getenvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
	}, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
		slog.Warn("ignoring invalid integer env value", "key", key, "value", v)
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
		slog.Warn("ignoring invalid float env value", "key", key, "value", v)
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
		slog.Warn("ignoring invalid duration env value", "key", key, "value", v)
	}
	return fallback
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
