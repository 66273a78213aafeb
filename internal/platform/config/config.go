package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration, read once at startup.
type Config struct {
	OpsAddr     string
	OpsToken    string
	DatabaseURL string
	LogLevel    string
	LogFormat   string

	Redis       RedisConfig
	Kafka       KafkaConfig
	Gateway     GatewayConfig
	Worker      WorkerConfig
	Certificate CertificateConfig
}

// RedisConfig configures the lock backend. An empty URL selects in-process locks.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LockTTL      time.Duration
}

// KafkaConfig configures the audit sink. No brokers disables it.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
	Partitions int32
}

// GatewayConfig configures the registry gateway. An empty URL selects the
// simulated gateway.
type GatewayConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type WorkerConfig struct {
	TickInterval time.Duration
	KickDelay    time.Duration
	RetryBackoff time.Duration
	MaxBackoff   time.Duration
	MaxRetries   int
}

type CertificateConfig struct {
	SigningKey string
}

// Load reads an optional .env file and then the environment.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds the config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	r := &reader{}
	cfg := Config{
		OpsAddr:     r.str("SWIFTPOLICY_OPS_ADDR", ":9090"),
		OpsToken:    r.str("SWIFTPOLICY_OPS_TOKEN", ""),
		DatabaseURL: r.str("DATABASE_URL", ""),
		LogLevel:    r.str("LOG_LEVEL", "info"),
		LogFormat:   r.str("LOG_FORMAT", "json"),
		Redis: RedisConfig{
			URL:          r.str("REDIS_URL", ""),
			PoolSize:     r.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: r.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  r.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  r.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: r.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			LockTTL:      r.duration("MID_LOCK_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:    r.list("KAFKA_BROKERS"),
			AuditTopic: r.str("KAFKA_AUDIT_TOPIC", "swiftpolicy.audit"),
			Partitions: int32(r.int("KAFKA_AUDIT_PARTITIONS", 3)),
		},
		Gateway: GatewayConfig{
			URL:     r.str("MID_GATEWAY_URL", ""),
			APIKey:  r.str("MID_GATEWAY_API_KEY", ""),
			Timeout: r.duration("MID_GATEWAY_TIMEOUT", 10*time.Second),
		},
		Worker: WorkerConfig{
			TickInterval: r.duration("MID_TICK_INTERVAL", 10*time.Second),
			KickDelay:    r.duration("MID_KICK_DELAY", time.Second),
			RetryBackoff: r.duration("MID_RETRY_BACKOFF", 0),
			MaxBackoff:   r.duration("MID_MAX_BACKOFF", 0),
			MaxRetries:   r.int("MID_MAX_RETRIES", 0),
		},
		Certificate: CertificateConfig{
			SigningKey: r.str("CERTIFICATE_SIGNING_KEY", ""),
		},
	}
	if r.err != nil {
		return Config{}, r.err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if len(c.Certificate.SigningKey) < 32 {
		return fmt.Errorf("CERTIFICATE_SIGNING_KEY must be at least 32 bytes")
	}
	if c.Gateway.URL != "" && c.Gateway.APIKey == "" {
		return fmt.Errorf("MID_GATEWAY_API_KEY is required when MID_GATEWAY_URL is set")
	}
	if c.Worker.TickInterval <= 0 {
		return fmt.Errorf("MID_TICK_INTERVAL must be positive")
	}
	return nil
}

// reader keeps the first parse error so FromEnv reads every key in one pass.
type reader struct {
	err error
}

func (r *reader) str(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}

func (r *reader) int(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%s: %w", key, err)
	}
	return n
}

func (r *reader) duration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%s: %w", key, err)
	}
	return d
}

func (r *reader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
