package config

import "strings"

// EventBusConfig holds the domain event publisher's Kafka settings.
type EventBusConfig struct {
	Brokers []string
}

func LoadEventBusConfig() EventBusConfig {
	raw := getEnv("KAFKA_BOOTSTRAP_SERVERS", "localhost:9092")
	return EventBusConfig{Brokers: strings.Split(raw, ",")}
}
