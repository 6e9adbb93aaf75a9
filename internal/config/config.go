package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisAddr   string

	ORSAPIKey     string
	SMSGatewayURL string
	SMSToken      string

	// Departure point for route optimization (the shop).
	DepotLat float64
	DepotLon float64

	SeedPath string
	LogLevel string
}

func Load() (Config, error) {
	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		ORSAPIKey:     getEnv("ORS_API_KEY", ""),
		SMSGatewayURL: getEnv("SMS_GATEWAY_URL", ""),
		SMSToken:      getEnv("SMS_GATEWAY_TOKEN", ""),
		SeedPath:      getEnv("SEED_PATH", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	var err error
	cfg.DepotLat, err = getEnvFloat("DEPOT_LAT", 20.6736)
	if err != nil {
		return Config{}, err
	}
	cfg.DepotLon, err = getEnvFloat("DEPOT_LON", -103.3444)
	if err != nil {
		return Config{}, err
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("config: DATABASE_URL is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s: %w", key, err)
	}
	return f, nil
}
