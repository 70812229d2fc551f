package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	DBPath       string
	Throttle     time.Duration
	LookbackDays int
}

func Load() Config {
	// A missing .env file is fine; env vars and defaults still apply.
	_ = godotenv.Load()

	return Config{
		Port:         getEnv("PORT", "8080"),
		DBPath:       getEnv("DB_PATH", "investment_data.db"),
		Throttle:     time.Duration(getEnvInt("THROTTLE_MS", 1000)) * time.Millisecond,
		LookbackDays: getEnvInt("LOOKBACK_DAYS", 7),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
