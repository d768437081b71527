package app

import (
	"os"
	"strconv"
	"time"

	"github.com/lanternworks/gatehouse/pkg/jwtx"

	"github.com/lanternworks/gatehouse/internal/auth/service"
)

type Config struct {
	Issuer string // Issuer claim for tokens (default: gatehouse)

	NumKeys      int           // Number of signing keys to generate (default: 3, min: 1, max: 10)
	DatabaseFile string        // Path to the SQLite database file (default: ./gatehouse.db)
	PepperFile   string        // Path to the password hashing pepper file (default: ./pepper)
	AccessTTL    time.Duration // Access token lifetime (default: 30m)
	RefreshTTL   time.Duration // Refresh token lifetime (default: 14d)

	LockoutThreshold int           // Failures inside the window that trigger a lock (default: 5)
	FailureWindow    time.Duration // Window failures accumulate in (default: 15m)
	LockDuration     time.Duration // How long a lock lasts (default: 30m)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired session sweep interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:       getEnvOrDefault("GATEHOUSE_ISSUER", "gatehouse"),
		NumKeys:      getEnvIntOrDefault("GATEHOUSE_NUM_KEYS", 0),
		DatabaseFile: getEnvOrDefault("GATEHOUSE_DATABASE_FILE", "gatehouse.db"),
		PepperFile:   getEnvOrDefault("GATEHOUSE_PEPPER_FILE", "pepper"),
		AccessTTL:    getEnvDurationOrDefault("GATEHOUSE_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:   getEnvDurationOrDefault("GATEHOUSE_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),

		LockoutThreshold: getEnvIntOrDefault("GATEHOUSE_LOCKOUT_THRESHOLD", service.DefaultLockoutThreshold),
		FailureWindow:    getEnvDurationOrDefault("GATEHOUSE_FAILURE_WINDOW", service.DefaultFailureWindow),
		LockDuration:     getEnvDurationOrDefault("GATEHOUSE_LOCKOUT_DURATION", service.DefaultLockDuration),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", service.DefaultHousekeepingInterval),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Duration strings first ("30m", "24h"), bare integers read as minutes.
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
