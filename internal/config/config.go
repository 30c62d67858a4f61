package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the service settings read from the environment.
type Config struct {
	Port     string
	LogLevel string
	LogJSON  bool

	DBDriver    string // "pgx" or "sqlite"
	DatabaseURL string
	DBPath      string
	SeedPath    string

	RedisAddr    string
	PoolCacheTTL time.Duration
	RabbitMQURL  string
	JWTSecret    string

	MaxBatchOrders         int
	MaxDistanceKm          float64
	MaxDeliveryTimeMinutes int
}

// Get returns the environment value for key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Load reads the configuration from the environment. The caller is expected
// to have loaded any .env file first.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        Get("PORT", "8080"),
		LogLevel:    Get("LOG_LEVEL", "info"),
		DBDriver:    strings.ToLower(Get("DB_DRIVER", "sqlite")),
		DatabaseURL: Get("DATABASE_URL", ""),
		DBPath:      Get("DB_PATH", "data/app.db"),
		SeedPath:    Get("SEED_PATH", ""),
		RedisAddr:   Get("REDIS_ADDR", ""),
		RabbitMQURL: Get("RABBITMQ_URL", ""),
		JWTSecret:   Get("JWT_SECRET", ""),
	}

	var err error
	if cfg.LogJSON, err = getBool("LOG_JSON", true); err != nil {
		return nil, err
	}
	if cfg.MaxBatchOrders, err = getPositiveInt("MAX_BATCH_ORDERS", 3); err != nil {
		return nil, err
	}
	if cfg.MaxDeliveryTimeMinutes, err = getPositiveInt("MAX_DELIVERY_TIME_MINUTES", 45); err != nil {
		return nil, err
	}
	if cfg.MaxDistanceKm, err = getPositiveFloat("MAX_DISTANCE_KM", 2.0); err != nil {
		return nil, err
	}
	if cfg.PoolCacheTTL, err = getPositiveDuration("POOL_CACHE_TTL", 3*time.Second); err != nil {
		return nil, err
	}

	switch cfg.DBDriver {
	case "pgx":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("load config: DATABASE_URL is required when DB_DRIVER=pgx")
		}
	case "sqlite":
	default:
		return nil, fmt.Errorf("load config: DB_DRIVER must be pgx or sqlite, got %q", cfg.DBDriver)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("load config: JWT_SECRET is required")
	}

	return cfg, nil
}

func getBool(key string, fallback bool) (bool, error) {
	raw := Get(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("load config: %s: %w", key, err)
	}
	return v, nil
}

func getPositiveInt(key string, fallback int) (int, error) {
	raw := Get(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("load config: %s: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("load config: %s must be positive, got %d", key, v)
	}
	return v, nil
}

func getPositiveFloat(key string, fallback float64) (float64, error) {
	raw := Get(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("load config: %s: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("load config: %s must be positive, got %v", key, v)
	}
	return v, nil
}

func getPositiveDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := Get(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("load config: %s: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("load config: %s must be positive, got %s", key, v)
	}
	return v, nil
}
