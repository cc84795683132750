package config

import (
	"reflect"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "SECURITY_LEVEL", "KEYSTORE", "MAX_MESSAGE_BYTES", "GENERATE_PARAMS_ON_START", "POLICY_ALLOWED_LEVELS"} {
		t.Setenv(key, "")
	}
	cfg := FromEnv()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.SecurityLevel != "1024" || cfg.ChallengeHash != "sha512" {
		t.Fatalf("unexpected crypto defaults: %s %s", cfg.SecurityLevel, cfg.ChallengeHash)
	}
	if cfg.KeyStore != "auto" || cfg.MaxMessageBytes != 64<<20 || !cfg.GenerateOnStart {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.AllowedLevels(), []string{"1024", "2048", "3072"}) {
		t.Fatalf("unexpected allowed levels: %v", cfg.AllowedLevels())
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("KEYSTORE", "Redis")
	t.Setenv("GENERATION_ATTEMPTS", "7")
	t.Setenv("GENERATION_TIMEOUT_SECONDS", "12")
	t.Setenv("GENERATE_PARAMS_ON_START", "no")
	t.Setenv("PRIME_CERTAINTY", "-4")
	t.Setenv("POLICY_ALLOWED_LEVELS", " 2048, ,3072 ")

	cfg := FromEnv()
	if cfg.KeyStore != "redis" {
		t.Fatalf("expected lowercased keystore, got %s", cfg.KeyStore)
	}
	if cfg.GenerationAttempts != 7 {
		t.Fatalf("expected 7 attempts, got %d", cfg.GenerationAttempts)
	}
	if cfg.GenerationTimeout() != 12*time.Second {
		t.Fatalf("expected 12s, got %s", cfg.GenerationTimeout())
	}
	if cfg.GenerateOnStart {
		t.Fatal("expected generation on start disabled")
	}
	if cfg.PrimeCertainty != 10 {
		t.Fatalf("invalid certainty should fall back to 10, got %d", cfg.PrimeCertainty)
	}
	if !reflect.DeepEqual(cfg.AllowedLevels(), []string{"2048", "3072"}) {
		t.Fatalf("unexpected allowed levels: %v", cfg.AllowedLevels())
	}
}
