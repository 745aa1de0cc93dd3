// Package config loads viewer configuration from the environment.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL string

	RabbitHost string
	RabbitPort int
	RabbitUser string
	RabbitPass string

	RedisAddr string
	RedisPass string
	RedisDB   int

	// Token is the opaque bearer credential attached to staff requests.
	// The customer viewer leaves it empty.
	Token string
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func Load() Config {
	_ = godotenv.Load() // .env is optional
	return Config{
		APIBaseURL: getenv("QRMENU_API_URL", "http://localhost:8080"),
		RabbitHost: getenv("RABBITMQ_HOST", "localhost"),
		RabbitPort: getenvInt("RABBITMQ_PORT", 5672),
		RabbitUser: getenv("RABBITMQ_USER", "guest"),
		RabbitPass: getenv("RABBITMQ_PASSWORD", "guest"),
		RedisAddr:  getenv("REDIS_ADDR", "localhost:6379"),
		RedisPass:  getenv("REDIS_PASSWORD", ""),
		RedisDB:    getenvInt("REDIS_DB", 0),
		Token:      getenv("QRMENU_TOKEN", ""),
	}
}
