package config

import (
	"testing"
	"time"
)

func clearServerEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "QUEUE_MODE", "REDIS_ADDR", "CONSUMER_ID",
		"PBP_BASE_URL", "PBP_RATE", "PBP_TIMEOUT",
		"WS_ENABLED", "WS_STREAM_INTERVAL", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadServerConfig_Defaults(t *testing.T) {
	clearServerEnv(t)

	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("unexpected port: %s", cfg.Port)
	}
	if cfg.QueueMode != "redis" {
		t.Errorf("unexpected queue mode: %s", cfg.QueueMode)
	}
	if cfg.ConsumerID != "" {
		t.Errorf("expected empty consumer id, got %s", cfg.ConsumerID)
	}
	if !cfg.WSEnabled {
		t.Error("expected ws enabled by default")
	}
	if cfg.WSStreamInterval != time.Second {
		t.Errorf("unexpected stream interval: %v", cfg.WSStreamInterval)
	}
	if cfg.PlayByPlayRate != 2 {
		t.Errorf("unexpected play-by-play rate: %d", cfg.PlayByPlayRate)
	}
	if cfg.PlayByPlayTimeout != 10*time.Second {
		t.Errorf("unexpected play-by-play timeout: %v", cfg.PlayByPlayTimeout)
	}
}

func TestLoadServerConfig_WSEnabledForms(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{value: "true", want: true},
		{value: "TRUE", want: true},
		{value: "1", want: true},
		{value: "t", want: true},
		{value: "false", want: false},
		{value: "FALSE", want: false},
		{value: "0", want: false},
		{value: "nonsense", want: true}, // unparseable keeps the default
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			clearServerEnv(t)
			t.Setenv("WS_ENABLED", tt.value)

			cfg, err := LoadServerConfig()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.WSEnabled != tt.want {
				t.Errorf("WS_ENABLED=%q: got %v, want %v", tt.value, cfg.WSEnabled, tt.want)
			}
		})
	}
}

func TestLoadServerConfig_InvalidQueueMode(t *testing.T) {
	clearServerEnv(t)
	t.Setenv("QUEUE_MODE", "kafka")

	if _, err := LoadServerConfig(); err == nil {
		t.Error("expected error for unknown queue mode")
	}
}

func TestLoadServerConfig_HTTPModeRequiresBaseURL(t *testing.T) {
	clearServerEnv(t)
	t.Setenv("QUEUE_MODE", "http")

	if _, err := LoadServerConfig(); err == nil {
		t.Error("expected error when http mode has no base url")
	}

	t.Setenv("PBP_BASE_URL", "http://feeds.example.com")
	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.QueueMode != "http" || cfg.PlayByPlayURL != "http://feeds.example.com" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadServerConfig_ConsumerID(t *testing.T) {
	clearServerEnv(t)
	t.Setenv("CONSUMER_ID", "livefeed-prod-1")

	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ConsumerID != "livefeed-prod-1" {
		t.Errorf("unexpected consumer id: %s", cfg.ConsumerID)
	}
}
