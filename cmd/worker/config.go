package main

import (
	"log"
	"os"
	"strconv"
)

// Config holds worker-specific configuration
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
}

// loadConfig loads configuration from environment variables
func loadConfig() *Config {
	cfg := &Config{
		RedisAddr:     envOr("REDIS_HOST", "localhost:6379"),
		RedisPassword: envOr("REDIS_PASSWORD", ""),
		RedisDB:       envIntOr("REDIS_DB", 0),
		Concurrency:   envIntOr("WORKER_CONCURRENCY", 10),
	}

	log.Printf("[Config] Redis: %s, Concurrency: %d", cfg.RedisAddr, cfg.Concurrency)

	return cfg
}

func envOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envIntOr(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}
