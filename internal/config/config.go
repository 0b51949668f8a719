// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported values for PASSWORD_HASH_ALGORITHM.
const (
	HashAlgorithmBcrypt   = "bcrypt"
	HashAlgorithmArgon2id = "argon2id"
)

// Supported values for AUTH_EDITION. The edition selects the post-auth hook pipeline.
const (
	EditionCommunity = "community"
	EditionPlatform  = "platform"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// SignUpEnabled allows self-service sign-up once the first account exists. Read once at startup.
	SignUpEnabled bool `mapstructure:"SIGN_UP_ENABLED"`
	// Edition is "community" or "platform"; it picks the hooks run after sign-up and sign-in.
	Edition string `mapstructure:"AUTH_EDITION"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// PasswordHashAlgorithm is the algorithm used for new password hashes (bcrypt or argon2id).
	// Existing hashes of either format always verify.
	PasswordHashAlgorithm string `mapstructure:"PASSWORD_HASH_ALGORITHM"`
	// BcryptCost is the bcrypt cost factor (4-31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// JWTPrivateKey is the PEM-encoded private key (RSA, ECDSA or Ed25519) or path to file.
	// Empty means an ephemeral key is generated at startup, which is refused when Env is production.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim of issued session tokens.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim of issued session tokens.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the session token lifetime (e.g. "168h").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// RedisURL enables the platform flag cache when set (e.g. redis://localhost:6379/0).
	RedisURL string `mapstructure:"REDIS_URL"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext connection to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is reported as service.name on traces, metrics and logs.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// Telemetry (optional). When Kafka brokers are set, product telemetry goes to Kafka instead of OTel logs.
	// TelemetryKafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	TelemetryKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// TelemetryKafkaTopic is the Kafka topic for telemetry events.
	TelemetryKafkaTopic string `mapstructure:"TELEMETRY_KAFKA_TOPIC"`

	// Worker-only: Loki URL for the telemetry worker to push events (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the telemetry worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	// MetricsAddr is where the worker serves Prometheus metrics.
	MetricsAddr string `mapstructure:"METRICS_ADDR"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogFormat is text or json.
	LogFormat string `mapstructure:"LOG_FORMAT"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("SIGN_UP_ENABLED", false)
	v.SetDefault("AUTH_EDITION", EditionCommunity)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("PASSWORD_HASH_ALGORITHM", HashAlgorithmBcrypt)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "authcore")
	v.SetDefault("JWT_AUDIENCE", "authcore-api")
	v.SetDefault("JWT_ACCESS_TTL", "168h") // 7d
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "authcore")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("TELEMETRY_KAFKA_TOPIC", "authcore-telemetry")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "authcore-telemetry-worker")
	v.SetDefault("METRICS_ADDR", ":9102")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.Edition = strings.ToLower(strings.TrimSpace(c.Edition))
	if c.Edition != EditionCommunity && c.Edition != EditionPlatform {
		return fmt.Errorf("config: AUTH_EDITION must be %q or %q, got %q", EditionCommunity, EditionPlatform, c.Edition)
	}

	c.PasswordHashAlgorithm = strings.ToLower(strings.TrimSpace(c.PasswordHashAlgorithm))
	if c.PasswordHashAlgorithm != HashAlgorithmBcrypt && c.PasswordHashAlgorithm != HashAlgorithmArgon2id {
		return fmt.Errorf("config: PASSWORD_HASH_ALGORITHM must be %q or %q", HashAlgorithmBcrypt, HashAlgorithmArgon2id)
	}

	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if (c.JWTPrivateKey == "") != (c.JWTPublicKey == "") {
		return errors.New("config: JWT_PRIVATE_KEY and JWT_PUBLIC_KEY must be set together")
	}
	if c.JWTPrivateKey == "" && c.IsProduction() {
		return errors.New("config: JWT_PRIVATE_KEY must be set when APP_ENV=production")
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return errors.New("config: LOG_FORMAT must be text or json")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}

// SlogLevel returns the configured log level. Load has already validated it.
func (c *Config) SlogLevel() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

// TelemetryKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if Kafka telemetry is enabled (non-empty list) and to create the producer.
func (c *Config) TelemetryKafkaBrokersList() []string {
	if c == nil || c.TelemetryKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.TelemetryKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: LOG_LEVEL %q is invalid", s)
	}
	return l, nil
}
