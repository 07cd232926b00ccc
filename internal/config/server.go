package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type ServerConfig struct {
	Port       string
	QueueMode  string // "redis", "http", or "memory"
	RedisAddr  string
	ConsumerID string // stable stream consumer name; empty derives from hostname
	// HTTP fallback feed (QueueMode "http")
	PlayByPlayURL     string
	PlayByPlayRate    int
	PlayByPlayTimeout time.Duration
	// WebSocket push
	WSEnabled        bool
	WSStreamInterval time.Duration
	LogLevel         string
}

func LoadServerConfig() (*ServerConfig, error) {
	wsIntervalStr := getEnvOrDefault("WS_STREAM_INTERVAL", "1s")
	wsInterval, err := time.ParseDuration(wsIntervalStr)
	if err != nil {
		wsInterval = time.Second // Default to 1s on parse error
	}

	pbpTimeoutStr := getEnvOrDefault("PBP_TIMEOUT", "10s")
	pbpTimeout, err := time.ParseDuration(pbpTimeoutStr)
	if err != nil {
		pbpTimeout = 10 * time.Second
	}

	pbpRate, err := strconv.Atoi(getEnvOrDefault("PBP_RATE", "2"))
	if err != nil || pbpRate <= 0 {
		pbpRate = 2
	}

	wsEnabled, err := strconv.ParseBool(getEnvOrDefault("WS_ENABLED", "true"))
	if err != nil {
		wsEnabled = true
	}

	cfg := &ServerConfig{
		Port:              getEnvOrDefault("PORT", "8080"),
		QueueMode:         getEnvOrDefault("QUEUE_MODE", "redis"),
		RedisAddr:         getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		ConsumerID:        getEnvOrDefault("CONSUMER_ID", ""),
		PlayByPlayURL:     getEnvOrDefault("PBP_BASE_URL", ""),
		PlayByPlayRate:    pbpRate,
		PlayByPlayTimeout: pbpTimeout,
		WSEnabled:         wsEnabled,
		WSStreamInterval:  wsInterval,
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
	}

	switch cfg.QueueMode {
	case "redis", "memory":
	case "http":
		if cfg.PlayByPlayURL == "" {
			return nil, fmt.Errorf("PBP_BASE_URL is required when QUEUE_MODE=http")
		}
	default:
		return nil, fmt.Errorf("invalid QUEUE_MODE: %s (must be 'redis', 'http', or 'memory')", cfg.QueueMode)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
