package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	DBPath   string
	SeedDemo bool
}

func Load() Config {
	// Load .env file if present
	_ = godotenv.Load()

	return Config{
		Port:     getEnv("PORT", "8080"),
		DBPath:   getEnv("DB_PATH", "fizpay.db"),
		SeedDemo: getEnv("SEED_DEMO", "1") == "1",
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
