package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr    string
	HealthAddr  string
	AdminAPIKey string
	LogLevel    string
	LogFormat   string

	SecurityLevel         string
	PrimeCertainty        int
	GenerationMaxSteps    int
	GenerationAttempts    int
	GenerationConcurrency int
	GenerationTimeoutSecs int
	ChallengeHash         string
	ParamsFile            string
	GenerateOnStart       bool

	KeyStore    string
	PostgresDSN string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	PolicyBundlePath    string
	PolicyAllowedLevels string
	MaxMessageBytes     int

	TemporalAddress   string
	TemporalNamespace string
	TemporalTaskQueue string
	ServerURL         string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:              addr,
		HealthAddr:            envDefault("HEALTH_ADDR", ":8081"),
		AdminAPIKey:           os.Getenv("ADMIN_API_KEY"),
		LogLevel:              envDefault("LOG_LEVEL", "info"),
		LogFormat:             envDefault("LOG_FORMAT", "json"),
		SecurityLevel:         envDefault("SECURITY_LEVEL", "1024"),
		PrimeCertainty:        envIntDefault("PRIME_CERTAINTY", 10),
		GenerationMaxSteps:    envIntDefault("GENERATION_MAX_STEPS", 4096),
		GenerationAttempts:    envIntDefault("GENERATION_ATTEMPTS", 3),
		GenerationConcurrency: envIntDefault("GENERATION_CONCURRENCY", 1),
		GenerationTimeoutSecs: envIntDefault("GENERATION_TIMEOUT_SECONDS", 300),
		ChallengeHash:         envDefault("CHALLENGE_HASH", "sha512"),
		ParamsFile:            envDefault("PARAMS_FILE", "schnorr.properties"),
		GenerateOnStart:       envBoolDefault("GENERATE_PARAMS_ON_START", true),
		KeyStore:              strings.ToLower(envDefault("KEYSTORE", "auto")),
		PostgresDSN:           os.Getenv("POSTGRES_DSN"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               envIntDefault("REDIS_DB", 0),
		RedisKeyPrefix:        envDefault("REDIS_KEY_PREFIX", "schnorr:key:"),
		PolicyBundlePath:      os.Getenv("POLICY_BUNDLE_PATH"),
		PolicyAllowedLevels:   envDefault("POLICY_ALLOWED_LEVELS", "1024,2048,3072"),
		MaxMessageBytes:       envIntDefault("MAX_MESSAGE_BYTES", 64<<20),
		TemporalAddress:       envDefault("TEMPORAL_ADDRESS", "localhost:7233"),
		TemporalNamespace:     envDefault("TEMPORAL_NAMESPACE", "default"),
		TemporalTaskQueue:     envDefault("TEMPORAL_TASK_QUEUE", "schnorr-params"),
		ServerURL:             envDefault("SCHNORRD_URL", "http://localhost:8080"),
	}
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func envBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "Yes":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "No":
		return false
	default:
		return def
	}
}

func (c Config) GenerationTimeout() time.Duration {
	if c.GenerationTimeoutSecs <= 0 {
		return 0
	}
	return time.Duration(c.GenerationTimeoutSecs) * time.Second
}

// AllowedLevels splits POLICY_ALLOWED_LEVELS on commas.
func (c Config) AllowedLevels() []string {
	parts := strings.Split(c.PolicyAllowedLevels, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
