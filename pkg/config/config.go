package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

const (
	// DefaultTypingDebounce is the client-side quiet period after the
	// last keystroke before a typing_stop is emitted.
	DefaultTypingDebounce = 2000 * time.Millisecond

	// DefaultTypingTTL is the server-side auto-expiry for a typing
	// signal with no stop event. Twice the client debounce so a stop
	// that is merely late does not race the expiry.
	DefaultTypingTTL = 2 * DefaultTypingDebounce

	// DefaultSendBuffer is the per-connection outbound event buffer.
	// A full buffer drops events for that connection only.
	DefaultSendBuffer = 256
)

type Config struct {
	GatewayPort string
	APIPort     string

	ScyllaHosts []string
	Keyspace    string

	RedisAddr string

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	JWTSecret string

	TypingTTL  time.Duration
	SendBuffer int
}

func Load() (*Config, error) {
	cfg := &Config{
		GatewayPort:  getEnv("GATEWAY_PORT", "8080"),
		APIPort:      getEnv("API_PORT", "8081"),
		ScyllaHosts:  strings.Split(getEnv("SCYLLA_HOSTS", "localhost:9042"), ","),
		Keyspace:     getEnv("SCYLLA_KEYSPACE", "realtime"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:19092"), ","),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "domain-events"),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", "realtime-gateway"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		TypingTTL:    DefaultTypingTTL,
		SendBuffer:   DefaultSendBuffer,
	}

	if ttlStr := os.Getenv("TYPING_TTL"); ttlStr != "" {
		ttl, err := time.ParseDuration(ttlStr)
		if err != nil {
			return nil, errors.New("invalid TYPING_TTL format")
		}
		cfg.TypingTTL = ttl
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// Helper: get env with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
