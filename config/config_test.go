package config

import (
	"testing"
	"time"
)

func TestLoadEnv_Defaults(t *testing.T) {
	cfg := LoadEnv()

	if cfg.Extractor.MaxAttempts != 3 {
		t.Fatalf("MaxAttempts = %d, want 3", cfg.Extractor.MaxAttempts)
	}
	if cfg.Extractor.BaseDelay != 1500*time.Millisecond {
		t.Fatalf("BaseDelay = %s", cfg.Extractor.BaseDelay)
	}
	if cfg.Kafka.EventTopic == "" || cfg.Kafka.ReplyTopic == "" {
		t.Fatalf("kafka topics must have defaults: %+v", cfg.Kafka)
	}
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "a:1,b:2")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("INTAKE_WORKERS", "not-a-number")

	cfg := LoadEnv()

	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b:2" {
		t.Fatalf("Brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Session.TTL != 90*time.Minute {
		t.Fatalf("TTL = %s", cfg.Session.TTL)
	}
	if cfg.Server.Workers != 8 {
		t.Fatalf("invalid int must fall back, got %d", cfg.Server.Workers)
	}
}
