package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Submission sinks.
const (
	SinkSimulated = "simulated"
	SinkKafka     = "kafka"
	SinkMongo     = "mongo"
)

const defaultJWTSecret = "shore-dev-secret"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// Session settings.
	JWTSecret  string
	SessionTTL time.Duration
	LoginDelay time.Duration

	// Key-value store for identities and preferences.
	StoreBackend  string
	StorePath     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Submission settings.
	SubmitSink           string
	SubmitTimeout        time.Duration
	SubmitMaxAttempts    int
	SubmitSimulatedDelay time.Duration
	ProgressInterval     time.Duration
	WizardMaxPerOwner    int
	WizardIdleTimeout    time.Duration
	LedgerSize           int
	LedgerSeedPath       string

	KafkaBrokers      []string
	KafkaReportsTopic string

	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// Media policy.
	MediaPolicyEnabled bool
	MediaMaxBytes      int64

	// Mapbox reverse geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
	MapboxLanguage  string
}

// UsesDefaultSecret reports whether tokens are signed with the built-in
// development secret.
func (c *Config) UsesDefaultSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	sessionTTL, err := parseDuration("SESSION_TTL", "72h", false)
	if err != nil {
		return nil, err
	}
	loginDelay, err := parseDuration("LOGIN_DELAY", "1s", true)
	if err != nil {
		return nil, err
	}
	submitTimeout, err := parseDuration("SUBMIT_TIMEOUT", "10s", false)
	if err != nil {
		return nil, err
	}
	simulatedDelay, err := parseDuration("SUBMIT_SIMULATED_DELAY", "2500ms", true)
	if err != nil {
		return nil, err
	}
	progressInterval, err := parseDuration("PROGRESS_INTERVAL", "200ms", false)
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s", false)
	if err != nil {
		return nil, err
	}
	wizardIdle, err := parseDuration("WIZARD_IDLE_TIMEOUT", "30m", true)
	if err != nil {
		return nil, err
	}

	maxAttempts, err := parsePositiveInt("SUBMIT_MAX_ATTEMPTS", 3, 10)
	if err != nil {
		return nil, err
	}
	ledgerSize, err := parsePositiveInt("LEDGER_SIZE", 500, 100000)
	if err != nil {
		return nil, err
	}
	wizardMax, err := parsePositiveInt("WIZARD_MAX_PER_OWNER", 5, 100)
	if err != nil {
		return nil, err
	}
	redisDB, err := strconv.Atoi(sharedcfg.EnvOrDefault("REDIS_DB", "0"))
	if err != nil || redisDB < 0 {
		return nil, errors.New("invalid REDIS_DB")
	}
	mediaMax, err := strconv.ParseInt(sharedcfg.EnvOrDefault("MEDIA_MAX_BYTES", "10485760"), 10, 64)
	if err != nil || mediaMax <= 0 {
		return nil, errors.New("invalid MEDIA_MAX_BYTES")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		CORSOrigins:     splitList(sharedcfg.EnvOrDefault("CORS_ORIGINS", "http://localhost:3000")),

		JWTSecret:  sharedcfg.EnvOrDefault("JWT_SECRET", defaultJWTSecret),
		SessionTTL: sessionTTL,
		LoginDelay: loginDelay,

		StoreBackend:  sharedcfg.EnvOrDefault("STORE_BACKEND", StoreMemory),
		StorePath:     sharedcfg.EnvOrDefault("STORE_PATH", ".shore/state.json"),
		RedisAddr:     sharedcfg.EnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		SubmitSink:           sharedcfg.EnvOrDefault("SUBMIT_SINK", SinkSimulated),
		SubmitTimeout:        submitTimeout,
		SubmitMaxAttempts:    maxAttempts,
		SubmitSimulatedDelay: simulatedDelay,
		ProgressInterval:     progressInterval,
		WizardMaxPerOwner:    wizardMax,
		WizardIdleTimeout:    wizardIdle,
		LedgerSize:           ledgerSize,
		LedgerSeedPath:       os.Getenv("LEDGER_SEED_PATH"),

		KafkaBrokers:      sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportsTopic: sharedcfg.EnvOrDefault("KAFKA_REPORTS_TOPIC", "hazard-reports"),

		MongoURI:        sharedcfg.EnvOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:   sharedcfg.EnvOrDefault("MONGODB_DATABASE", "shore"),
		MongoCollection: sharedcfg.EnvOrDefault("MONGODB_COLLECTION", "reports"),

		MediaPolicyEnabled: sharedcfg.EnvOrDefault("MEDIA_POLICY_ENABLED", "true") == "true",
		MediaMaxBytes:      mediaMax,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
		MapboxLanguage:  os.Getenv("MAPBOX_LANGUAGE"),
	}

	switch cfg.StoreBackend {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q", cfg.StoreBackend)
	}
	switch cfg.SubmitSink {
	case SinkSimulated, SinkMongo:
	case SinkKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaReportsTopic == "" {
			return nil, errors.New("KAFKA_REPORTS_TOPIC is required")
		}
	default:
		return nil, fmt.Errorf("invalid SUBMIT_SINK %q", cfg.SubmitSink)
	}
	if cfg.StoreBackend == StoreFile && cfg.StorePath == "" {
		return nil, errors.New("STORE_PATH is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must not be empty")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def, limit int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > limit {
		return 0, fmt.Errorf("invalid %s: must be between 1 and %d", key, limit)
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
