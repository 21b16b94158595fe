package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/errs"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Directory sources and ledger backends selectable through the environment.
const (
	DirectorySourceSeed     = "seed"
	DirectorySourcePostgres = "postgres"
	DirectorySourceMongo    = "mongo"

	LedgerBackendMemory = "memory"
	LedgerBackendRedis  = "redis"
)

type Config struct {
	HTTPPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	DirectorySource          string
	DirectorySeedPath        string
	DirectoryRefreshSchedule string

	MongoURI      string
	MongoDatabase string

	LedgerBackend string
	LedgerTTL     time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaHost             string
	KafkaStageEventsTopic string

	Planner                 services.PlannerConfig
	StatusUnknownAsNotFound bool
	LogLevel                slog.Level
}

// PostgresDSN builds the connection string for the directory database.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// KafkaBrokers splits KAFKA_HOST on commas. Empty means publishing is disabled.
func (c Config) KafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaHost, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// LoadConfig reads .env when present, then the process environment. Variables
// already set in the environment win over .env.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}
	return configFromEnv()
}

func configFromEnv() (Config, error) {
	r := envReader{}

	cfg := Config{
		HTTPPort: r.str("HTTP_PORT", "8080"),

		DBHost:     r.str("DB_HOST", "localhost"),
		DBPort:     r.str("DB_PORT", "5432"),
		DBUser:     r.str("DB_USER", ""),
		DBPassword: r.str("DB_PASSWORD", ""),
		DBName:     r.str("DB_NAME", ""),
		DBSslMode:  r.str("DB_SSLMODE", "disable"),

		DirectorySource:          strings.ToLower(r.str("DIRECTORY_SOURCE", DirectorySourceSeed)),
		DirectorySeedPath:        r.str("DIRECTORY_SEED_PATH", "configs/sites.yaml"),
		DirectoryRefreshSchedule: r.str("DIRECTORY_REFRESH_SCHEDULE", ""),

		MongoURI:      r.str("MONGO_URI", ""),
		MongoDatabase: r.str("MONGO_DATABASE", "logistics"),

		LedgerBackend: strings.ToLower(r.str("LEDGER_BACKEND", LedgerBackendMemory)),
		LedgerTTL:     r.duration("LEDGER_TTL", 24*time.Hour),
		RedisAddr:     r.str("REDIS_ADDR", ""),
		RedisPassword: r.str("REDIS_PASSWORD", ""),
		RedisDB:       r.integer("REDIS_DB", 0),

		KafkaHost:             r.str("KAFKA_HOST", ""),
		KafkaStageEventsTopic: r.str("KAFKA_STAGE_EVENTS_TOPIC", "fulfillment.stage-events"),

		Planner: services.PlannerConfig{
			PerItemPickDuration: r.duration("PICK_DURATION_PER_ITEM", services.DefaultPerItemPickDuration),
			SpeedFactor:         r.duration("SPEED_FACTOR", services.DefaultSpeedFactor),
			PickingStartDelay:   r.duration("PICKING_START_DELAY", services.DefaultPickingStartDelay),
			DeliveredGrace:      r.duration("DELIVERED_GRACE", services.DefaultDeliveredGrace),
		},
		StatusUnknownAsNotFound: r.boolean("STATUS_UNKNOWN_AS_NOT_FOUND", false),
		LogLevel:                r.level("LOG_LEVEL", slog.LevelInfo),
	}

	if err := errors.Join(r.err, cfg.Validate()); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the combinations a running service depends on.
func (c Config) Validate() error {
	var problems []error

	if port, err := strconv.Atoi(c.HTTPPort); err != nil || port < 1 || port > 65535 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("HTTP_PORT", c.HTTPPort, 1, 65535))
	}

	switch c.DirectorySource {
	case DirectorySourceSeed:
		if c.DirectorySeedPath == "" {
			problems = append(problems, errs.NewValueIsRequiredError("DIRECTORY_SEED_PATH"))
		}
	case DirectorySourcePostgres:
		if c.DBName == "" || c.DBUser == "" {
			problems = append(problems, errs.NewValueIsRequiredError("DB_NAME, DB_USER"))
		}
	case DirectorySourceMongo:
		if c.MongoURI == "" {
			problems = append(problems, errs.NewValueIsRequiredError("MONGO_URI"))
		}
	default:
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause("DIRECTORY_SOURCE",
			fmt.Errorf("%q is not one of seed, postgres, mongo", c.DirectorySource)))
	}

	switch c.LedgerBackend {
	case LedgerBackendMemory:
	case LedgerBackendRedis:
		if c.RedisAddr == "" {
			problems = append(problems, errs.NewValueIsRequiredError("REDIS_ADDR"))
		}
	default:
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause("LEDGER_BACKEND",
			fmt.Errorf("%q is not one of memory, redis", c.LedgerBackend)))
	}

	if c.DirectoryRefreshSchedule != "" {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.DirectoryRefreshSchedule); err != nil {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause("DIRECTORY_REFRESH_SCHEDULE", err))
		}
	}

	if len(c.KafkaBrokers()) > 0 && c.KafkaStageEventsTopic == "" {
		problems = append(problems, errs.NewValueIsRequiredError("KAFKA_STAGE_EVENTS_TOPIC"))
	}

	problems = append(problems, c.Planner.Validate())
	return errors.Join(problems...)
}

// envReader collects parse errors so every bad variable is reported at once.
type envReader struct {
	err error
}

func (r *envReader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *envReader) integer(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.err = errors.Join(r.err, errs.NewValueIsInvalidErrorWithCause(key, err))
		return def
	}
	return n
}

func (r *envReader) boolean(key string, def bool) bool {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.err = errors.Join(r.err, errs.NewValueIsInvalidErrorWithCause(key, err))
		return def
	}
	return b
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.err = errors.Join(r.err, errs.NewValueIsInvalidErrorWithCause(key, err))
		return def
	}
	return d
}

func (r *envReader) level(key string, def slog.Level) slog.Level {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		r.err = errors.Join(r.err, errs.NewValueIsInvalidErrorWithCause(key, err))
		return def
	}
	return l
}
