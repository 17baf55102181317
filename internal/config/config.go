package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	GinMode   string
	LogLevel  string
	LogFormat string

	EnableDB    bool
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ModelDir          string
	ModelKeyPrefix    string
	SyntheticPatients int
	SymptomPatients   int
	SyntheticSeed     uint64
	TrainingEpochs    int
	WarmModels        bool

	YoungAgeThreshold int
	YoungAgeFactor    float64

	LedgerNetwork      string
	LedgerFailureRate  float64
	LedgerSubmitDelay  time.Duration
	LedgerConfirmDelay time.Duration
	LedgerTimeout      time.Duration

	RateLimitRPS  float64
	EnableMetrics bool
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	p := &parser{}
	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		GinMode:   getEnv("GIN_MODE", "release"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		EnableDB:    p.bool("ENABLE_DB", false),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       p.int("REDIS_DB", 0),

		ModelDir:          getEnv("MODEL_DIR", "./models"),
		ModelKeyPrefix:    getEnv("MODEL_KEY_PREFIX", "drug-dosage-model-"),
		SyntheticPatients: p.int("SYNTHETIC_PATIENTS", 1000),
		SymptomPatients:   p.int("SYMPTOM_PATIENTS", 5000),
		SyntheticSeed:     p.uint("SYNTHETIC_SEED", 0),
		TrainingEpochs:    p.int("TRAINING_EPOCHS", 50),
		WarmModels:        p.bool("WARM_MODELS", false),

		YoungAgeThreshold: p.int("YOUNG_AGE_THRESHOLD", 25),
		YoungAgeFactor:    p.float("YOUNG_AGE_FACTOR", 0.9),

		LedgerNetwork:      getEnv("LEDGER_NETWORK", "mumbai"),
		LedgerFailureRate:  p.float("LEDGER_FAILURE_RATE", 0.1),
		LedgerSubmitDelay:  p.duration("LEDGER_SUBMIT_DELAY", time.Second),
		LedgerConfirmDelay: p.duration("LEDGER_CONFIRM_DELAY", 2*time.Second),
		LedgerTimeout:      p.duration("LEDGER_TIMEOUT", 10*time.Second),

		RateLimitRPS:  p.float("RATE_LIMIT_RPS", 30),
		EnableMetrics: p.bool("ENABLE_METRICS", true),
	}
	if p.err != nil {
		return nil, p.err
	}

	if cfg.EnableDB && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when ENABLE_DB=true")
	}
	if cfg.LedgerFailureRate < 0 || cfg.LedgerFailureRate > 1 {
		return nil, fmt.Errorf("LEDGER_FAILURE_RATE must be within [0, 1], got %v", cfg.LedgerFailureRate)
	}
	if cfg.TrainingEpochs <= 0 {
		return nil, fmt.Errorf("TRAINING_EPOCHS must be positive, got %d", cfg.TrainingEpochs)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// parser keeps the first conversion error so Load can report it once.
type parser struct {
	err error
}

func (p *parser) fail(key, val string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
}

func (p *parser) bool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return strings.EqualFold(val, "true") || val == "1"
}

func (p *parser) int(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		p.fail(key, val, err)
		return fallback
	}
	return n
}

func (p *parser) uint(key string, fallback uint64) uint64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		p.fail(key, val, err)
		return fallback
	}
	return n
}

func (p *parser) float(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		p.fail(key, val, err)
		return fallback
	}
	return f
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		p.fail(key, val, err)
		return fallback
	}
	return d
}
