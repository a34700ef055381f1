// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the CLI needs to wire the engine.
type Config struct {
	DBPath string
	Env    string
}

// Load reads .env if present, then the process environment. Missing values
// fall back to defaults suitable for local use.
func Load() Config {
	// Not an error when absent; real deployments set the environment directly.
	_ = godotenv.Load()

	return Config{
		DBPath: getEnv("HINLIBS_DB_PATH", "hinlibs.db"),
		Env:    getEnv("HINLIBS_ENV", "development"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
