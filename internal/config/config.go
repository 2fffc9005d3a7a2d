// Package config reads runtime settings from the environment. A .env file in
// the working directory is loaded first when present.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	DefaultPort         = 8080
	DefaultTodosBaseURL = "https://jsonplaceholder.typicode.com"
	DefaultTodosLimit   = 20
	DefaultTodosDelay   = 3 * time.Second
)

// DB holds the Postgres connection settings.
type DB struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Schema   string
}

// Config holds everything cmd/api needs to wire the application.
type Config struct {
	Port    int
	Storage string
	Debug   bool
	DB      DB

	TodosBaseURL string
	TodosLimit   int
	TodosDelay   time.Duration
}

// Load builds a Config from the environment. Malformed values are reported
// and replaced by their defaults.
func Load() *Config {
	cfg := &Config{
		Port:         intEnv("PORT", DefaultPort),
		Storage:      stringEnv("TASKBOARD_STORAGE", StorageMemory),
		Debug:        boolEnv("TASKBOARD_DEBUG", false),
		TodosBaseURL: stringEnv("TODOS_BASE_URL", DefaultTodosBaseURL),
		TodosLimit:   intEnv("TODOS_LIMIT", DefaultTodosLimit),
		TodosDelay:   durationEnv("TODOS_DELAY", DefaultTodosDelay),
		DB: DB{
			Host:     os.Getenv("BLUEPRINT_DB_HOST"),
			Port:     os.Getenv("BLUEPRINT_DB_PORT"),
			Username: os.Getenv("BLUEPRINT_DB_USERNAME"),
			Password: os.Getenv("BLUEPRINT_DB_PASSWORD"),
			Database: os.Getenv("BLUEPRINT_DB_DATABASE"),
			Schema:   os.Getenv("BLUEPRINT_DB_SCHEMA"),
		},
	}

	if cfg.Storage != StorageMemory && cfg.Storage != StoragePostgres {
		log.Printf("Warning: unknown TASKBOARD_STORAGE %q. Using %s.", cfg.Storage, StorageMemory)
		cfg.Storage = StorageMemory
	}
	if cfg.TodosLimit <= 0 {
		log.Printf("Warning: TODOS_LIMIT must be positive. Using %d.", DefaultTodosLimit)
		cfg.TodosLimit = DefaultTodosLimit
	}
	return cfg
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: Invalid %s environment variable '%s'. Using default %d. Error: %v", key, v, def, err)
		return def
	}
	return n
}

func boolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Warning: Invalid %s environment variable '%s'. Using default %t. Error: %v", key, v, def, err)
		return def
	}
	return b
}

func durationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		log.Printf("Warning: Invalid %s environment variable '%s'. Using default %s.", key, v, def)
		return def
	}
	return d
}
