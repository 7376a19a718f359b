package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration. Every value has a development
// default so `server serve` runs with no environment at all (memory stores,
// log channel, no Kafka).
type Server struct {
	Addr           string
	LogLevel       string
	JWTSigningKey  string
	JWTIssuer      string
	JWTAudience    string
	AdminToken     string
	ClaimTxTimeout time.Duration

	Database     DatabaseConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Fraud        FraudConfig
	Notification NotificationConfig
	Events       EventsConfig
	RateLimit    RateLimitConfig
}

// DatabaseConfig selects Postgres-backed stores when URL is set.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig enables the analytics snapshot cache when URL is set.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	SnapshotTTL  time.Duration
}

// KafkaConfig enables the ClaimTransitioned relay when Brokers is non-empty.
type KafkaConfig struct {
	Brokers           []string
	Topic             string
	Partitions        int32
	ReplicationFactor int16
}

// FraudConfig holds triage rule thresholds.
type FraudConfig struct {
	VelocityWindow    time.Duration
	VelocityMaxClaims int
	OutlierStdDevs    float64
	OutlierMinSamples int
	// HardCaps maps claim type to an absolute ceiling in minor units.
	HardCaps map[string]int64
}

// NotificationConfig configures the delivery channel.
type NotificationConfig struct {
	WebhookURL       string
	AttemptTimeout   time.Duration
	FailureThreshold int
	SuccessThreshold int
}

// RateLimitConfig sets per-actor allowances per minute. The bucket store is
// Redis when configured, otherwise in-process.
type RateLimitConfig struct {
	Disabled        bool
	WritesPerMinute int
	ReadsPerMinute  int
}

// EventsConfig sizes the in-process ClaimTransitioned bus.
type EventsConfig struct {
	BufferSize int
	Workers    int
}

// FromEnv builds a Server config from CLAIMS_* environment variables.
func FromEnv() (Server, error) {
	var errs []string
	dur := func(key string, def time.Duration) time.Duration {
		raw := os.Getenv(key)
		if raw == "" {
			return def
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid duration %q", key, raw))
			return def
		}
		return d
	}
	num := func(key string, def int) int {
		raw := os.Getenv(key)
		if raw == "" {
			return def
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid integer %q", key, raw))
			return def
		}
		return n
	}

	outlierK := 3.0
	if raw := os.Getenv("CLAIMS_FRAUD_OUTLIER_STDDEVS"); raw != "" {
		k, err := strconv.ParseFloat(raw, 64)
		if err != nil || k <= 0 {
			errs = append(errs, fmt.Sprintf("CLAIMS_FRAUD_OUTLIER_STDDEVS: invalid float %q", raw))
		} else {
			outlierK = k
		}
	}

	hardCaps, err := parseHardCaps(os.Getenv("CLAIMS_FRAUD_HARD_CAPS"))
	if err != nil {
		errs = append(errs, err.Error())
	}

	cfg := Server{
		Addr:           envOr("CLAIMS_ADDR", ":8080"),
		LogLevel:       envOr("CLAIMS_LOG_LEVEL", "info"),
		JWTSigningKey:  envOr("CLAIMS_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:      envOr("CLAIMS_JWT_ISSUER", "claimtriage"),
		JWTAudience:    envOr("CLAIMS_JWT_AUDIENCE", "claimtriage-api"),
		AdminToken:     os.Getenv("CLAIMS_ADMIN_TOKEN"),
		ClaimTxTimeout: dur("CLAIMS_TX_TIMEOUT", 5*time.Second),
		Database: DatabaseConfig{
			URL:             os.Getenv("CLAIMS_DATABASE_URL"),
			MaxOpenConns:    num("CLAIMS_DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    num("CLAIMS_DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: dur("CLAIMS_DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("CLAIMS_REDIS_URL"),
			PoolSize:     num("CLAIMS_REDIS_POOL_SIZE", 10),
			MinIdleConns: num("CLAIMS_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  dur("CLAIMS_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  dur("CLAIMS_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: dur("CLAIMS_REDIS_WRITE_TIMEOUT", 3*time.Second),
			SnapshotTTL:  dur("CLAIMS_REDIS_SNAPSHOT_TTL", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:           splitList(os.Getenv("CLAIMS_KAFKA_BROKERS")),
			Topic:             envOr("CLAIMS_KAFKA_TOPIC", "claims.transitioned"),
			Partitions:        int32(num("CLAIMS_KAFKA_PARTITIONS", 3)),
			ReplicationFactor: int16(num("CLAIMS_KAFKA_REPLICATION_FACTOR", 1)),
		},
		Fraud: FraudConfig{
			VelocityWindow:    dur("CLAIMS_FRAUD_VELOCITY_WINDOW", 30*24*time.Hour),
			VelocityMaxClaims: num("CLAIMS_FRAUD_VELOCITY_MAX_CLAIMS", 3),
			OutlierStdDevs:    outlierK,
			OutlierMinSamples: num("CLAIMS_FRAUD_OUTLIER_MIN_SAMPLES", 5),
			HardCaps:          hardCaps,
		},
		Notification: NotificationConfig{
			WebhookURL:       os.Getenv("CLAIMS_NOTIFY_WEBHOOK_URL"),
			AttemptTimeout:   dur("CLAIMS_NOTIFY_TIMEOUT", 3*time.Second),
			FailureThreshold: num("CLAIMS_NOTIFY_FAILURE_THRESHOLD", 5),
			SuccessThreshold: num("CLAIMS_NOTIFY_SUCCESS_THRESHOLD", 2),
		},
		Events: EventsConfig{
			BufferSize: num("CLAIMS_EVENTS_BUFFER", 1024),
			Workers:    num("CLAIMS_EVENTS_WORKERS", 4),
		},
		RateLimit: RateLimitConfig{
			Disabled:        os.Getenv("CLAIMS_RATELIMIT_DISABLED") == "true",
			WritesPerMinute: num("CLAIMS_RATELIMIT_WRITES_PER_MINUTE", 30),
			ReadsPerMinute:  num("CLAIMS_RATELIMIT_READS_PER_MINUTE", 300),
		},
	}

	if len(errs) > 0 {
		return Server{}, fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseHardCaps reads "medical=2500000,theft=1000000" into minor units.
func parseHardCaps(raw string) (map[string]int64, error) {
	caps := map[string]int64{}
	for _, pair := range splitList(raw) {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("CLAIMS_FRAUD_HARD_CAPS: malformed pair %q", pair)
		}
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("CLAIMS_FRAUD_HARD_CAPS: invalid cap %q", pair)
		}
		caps[strings.TrimSpace(k)] = n
	}
	return caps, nil
}
