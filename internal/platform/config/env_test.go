package config

import (
	"strings"
	"testing"
	"time"
)

type envTestConfig struct {
	Port int `env:"BROADSIDE_TEST_PORT" envDefault:"5000"`
}

type prefixedTestConfig struct {
	Timeout time.Duration `env:"TEST_TIMEOUT" envDefault:"60s"`
	Host    string        `env:"TEST_HOST" envDefault:"localhost"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 5000 {
		t.Fatalf("expected default port 5000, got %d", cfg.Port)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("BROADSIDE_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestParseEnvWithPrefix(t *testing.T) {
	t.Setenv("BROADSIDE_TEST_TIMEOUT", "2s")
	t.Setenv("TEST_HOST", "unprefixed.example")

	var cfg prefixedTestConfig
	if err := ParseEnvWithPrefix(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Timeout != 2*time.Second {
		t.Fatalf("expected prefixed timeout 2s, got %v", cfg.Timeout)
	}
	if cfg.Host != "localhost" {
		t.Fatalf("expected unprefixed variable to be ignored, got %q", cfg.Host)
	}
}
