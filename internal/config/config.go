// Package config loads the service configuration from the environment.
// Endpoint shape problems are surfaced at startup as FatalError — a worker
// pointed at a malformed queue URL should never reach its first poll.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// FatalError is a startup configuration failure. Not recoverable per-request.
type FatalError struct {
	Key    string
	Reason string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Key, e.Reason)
}

// Config is the full service configuration.
type Config struct {
	Port        string
	DatabaseURL string

	QueueURL     string
	TopicARN     string
	EventBusName string
	Region       string

	RedisAddr string
	CacheTTL  time.Duration

	WorkerCount int

	ServiceName string
}

// Load reads and validates the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		QueueURL:     os.Getenv("ORDER_QUEUE_URL"),
		TopicARN:     os.Getenv("ORDER_TOPIC_ARN"),
		EventBusName: getEnv("EVENT_BUS_NAME", "CustomEventBus"),
		Region:       getEnv("AWS_REGION", "eu-north-1"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		CacheTTL:     5 * time.Minute,
		ServiceName:  getEnv("OTEL_SERVICE_NAME", "order-service"),
	}

	if cfg.DatabaseURL == "" {
		return nil, &FatalError{Key: "DATABASE_URL", Reason: "is required"}
	}
	if cfg.QueueURL == "" {
		return nil, &FatalError{Key: "ORDER_QUEUE_URL", Reason: "is required"}
	}
	// Queue URLs are https endpoints; anything else is a copy-paste mistake.
	if !strings.HasPrefix(cfg.QueueURL, "https://") {
		return nil, &FatalError{Key: "ORDER_QUEUE_URL", Reason: "must start with https://"}
	}
	if cfg.TopicARN == "" {
		return nil, &FatalError{Key: "ORDER_TOPIC_ARN", Reason: "is required"}
	}
	if !strings.HasPrefix(cfg.TopicARN, "arn:aws") {
		return nil, &FatalError{Key: "ORDER_TOPIC_ARN", Reason: "must start with arn:aws"}
	}
	if cfg.EventBusName == "" {
		return nil, &FatalError{Key: "EVENT_BUS_NAME", Reason: "must not be empty"}
	}

	workers := getEnv("WORKER_COUNT", "1")
	n, err := strconv.Atoi(workers)
	if err != nil || n < 0 {
		return nil, &FatalError{Key: "WORKER_COUNT", Reason: "must be a non-negative integer"}
	}
	cfg.WorkerCount = n

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
