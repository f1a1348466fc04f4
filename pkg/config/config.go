package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	FirebaseProject string
	Environment     string

	// Realtime core tuning
	AuthTimeout     time.Duration // window to authenticate after connecting
	StoreTimeout    time.Duration // bound on durable-store writes
	ClientQueueSize int           // per-connection outbound queue
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		FirebaseProject: getEnv("FIREBASE_PROJECT_ID", ""),
		Environment:     getEnv("ENVIRONMENT", "development"),
		AuthTimeout:     time.Duration(getEnvAsInt64("AUTH_TIMEOUT_SECONDS", 15)) * time.Second,
		StoreTimeout:    time.Duration(getEnvAsInt64("STORE_TIMEOUT_SECONDS", 5)) * time.Second,
		ClientQueueSize: int(getEnvAsInt64("CLIENT_QUEUE_SIZE", 256)),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
