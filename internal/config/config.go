// Package config loads the service configuration. Sources are applied in
// order: built-in defaults, an optional YAML file, RIDESHARE_* environment
// variables, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/mateusmacedo/go-rideshare/pkg/infrastructure/pubsub"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	envPrefix = "RIDESHARE_"
)

type Config struct {
	App     AppConfig     `yaml:"app"`
	HTTP    HTTPConfig    `yaml:"http"`
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
	Events  EventsConfig  `yaml:"events"`
	Booking BookingConfig `yaml:"booking"`
	Audit   AuditConfig   `yaml:"audit"`
}

type AppConfig struct {
	Name string `yaml:"name"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type EventsConfig struct {
	pubsub.Config `yaml:",inline"`
	TopicPrefix   string `yaml:"topic_prefix"`
}

type BookingConfig struct {
	MaxRetries   uint          `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

type AuditConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

func Default() Config {
	return Config{
		App: AppConfig{Name: "rideshare"},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Log:     LogConfig{Level: "info"},
		Storage: StorageConfig{Driver: StorageMemory},
		Events: EventsConfig{
			Config: pubsub.Config{
				Driver:        pubsub.DriverNone,
				ChannelBuffer: 64,
			},
			TopicPrefix: "rideshare.",
		},
		Booking: BookingConfig{MaxRetries: 3, RetryBackoff: 20 * time.Millisecond},
		Audit:   AuditConfig{Enabled: true, Interval: 5 * time.Minute},
	}
}

// Load builds the configuration for the given command-line arguments
// (without the program name).
func Load(name string, args []string) (Config, error) {
	return load(name, args, os.LookupEnv)
}

type flagValues struct {
	configPath    string
	httpAddr      string
	logLevel      string
	storageDriver string
	storageDSN    string
	eventsDriver  string
	kafkaBrokers  []string
	redisAddr     string
	auditEnabled  bool
	auditInterval time.Duration
}

func load(name string, args []string, lookupEnv func(string) (string, bool)) (Config, error) {
	cfg := Default()

	var fv flagValues
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.StringVar(&fv.configPath, "config", "", "path to a YAML configuration file")
	flagSet.StringVar(&fv.httpAddr, "http-addr", cfg.HTTP.Addr, "HTTP listen address")
	flagSet.StringVar(&fv.logLevel, "log-level", cfg.Log.Level, "log level (debug, info, warn, error)")
	flagSet.StringVar(&fv.storageDriver, "storage-driver", cfg.Storage.Driver, "storage backend (memory, postgres)")
	flagSet.StringVar(&fv.storageDSN, "storage-dsn", "", "postgres connection string")
	flagSet.StringVar(&fv.eventsDriver, "events-driver", cfg.Events.Driver, "event transport (none, kafka, redis, gochannel)")
	flagSet.StringSliceVar(&fv.kafkaBrokers, "kafka-brokers", nil, "kafka broker addresses")
	flagSet.StringVar(&fv.redisAddr, "redis-addr", "", "redis address")
	flagSet.BoolVar(&fv.auditEnabled, "audit", cfg.Audit.Enabled, "run the periodic inventory audit")
	flagSet.DurationVar(&fv.auditInterval, "audit-interval", cfg.Audit.Interval, "inventory audit period")
	if err := flagSet.Parse(args); err != nil {
		return cfg, err
	}

	if path, ok := lookupEnv(envPrefix + "CONFIG"); ok && fv.configPath == "" {
		fv.configPath = path
	}
	if fv.configPath != "" {
		if err := loadFile(fv.configPath, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := applyEnv(&cfg, lookupEnv); err != nil {
		return cfg, err
	}
	applyFlags(&cfg, flagSet, fv)

	return cfg, cfg.Validate()
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, lookupEnv func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}
	str("APP_NAME", &cfg.App.Name)
	str("HTTP_ADDR", &cfg.HTTP.Addr)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("STORAGE_DRIVER", &cfg.Storage.Driver)
	str("STORAGE_DSN", &cfg.Storage.DSN)
	str("EVENTS_DRIVER", &cfg.Events.Driver)
	str("EVENTS_TOPIC_PREFIX", &cfg.Events.TopicPrefix)
	str("KAFKA_CLIENT_ID", &cfg.Events.Kafka.ClientID)
	str("KAFKA_CONSUMER_GROUP", &cfg.Events.Kafka.ConsumerGroup)
	str("REDIS_ADDR", &cfg.Events.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Events.Redis.Password)
	str("REDIS_CONSUMER_GROUP", &cfg.Events.Redis.ConsumerGroup)

	if v, ok := lookupEnv(envPrefix + "KAFKA_BROKERS"); ok {
		cfg.Events.Kafka.Brokers = strings.Split(v, ",")
	}

	var errs []error
	if v, ok := lookupEnv(envPrefix + "BOOKING_MAX_RETRIES"); ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sBOOKING_MAX_RETRIES: %w", envPrefix, err))
		}
		cfg.Booking.MaxRetries = uint(n)
	}
	durations := map[string]*time.Duration{
		"HTTP_REQUEST_TIMEOUT":  &cfg.HTTP.RequestTimeout,
		"HTTP_SHUTDOWN_TIMEOUT": &cfg.HTTP.ShutdownTimeout,
		"BOOKING_RETRY_BACKOFF": &cfg.Booking.RetryBackoff,
		"AUDIT_INTERVAL":        &cfg.Audit.Interval,
	}
	for key, dst := range durations {
		if v, ok := lookupEnv(envPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				continue
			}
			*dst = d
		}
	}
	if v, ok := lookupEnv(envPrefix + "AUDIT_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sAUDIT_ENABLED: %w", envPrefix, err))
		}
		cfg.Audit.Enabled = b
	}
	return errors.Join(errs...)
}

// applyFlags copies only the flags set explicitly so flag defaults never
// clobber values from the file or the environment.
func applyFlags(cfg *Config, flagSet *pflag.FlagSet, fv flagValues) {
	if flagSet.Changed("http-addr") {
		cfg.HTTP.Addr = fv.httpAddr
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = fv.logLevel
	}
	if flagSet.Changed("storage-driver") {
		cfg.Storage.Driver = fv.storageDriver
	}
	if flagSet.Changed("storage-dsn") {
		cfg.Storage.DSN = fv.storageDSN
	}
	if flagSet.Changed("events-driver") {
		cfg.Events.Driver = fv.eventsDriver
	}
	if flagSet.Changed("kafka-brokers") {
		cfg.Events.Kafka.Brokers = fv.kafkaBrokers
	}
	if flagSet.Changed("redis-addr") {
		cfg.Events.Redis.Addr = fv.redisAddr
	}
	if flagSet.Changed("audit") {
		cfg.Audit.Enabled = fv.auditEnabled
	}
	if flagSet.Changed("audit-interval") {
		cfg.Audit.Interval = fv.auditInterval
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if c.HTTP.RequestTimeout <= 0 {
		errs = append(errs, errors.New("http.request_timeout must be positive"))
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}

	switch c.Events.Driver {
	case pubsub.DriverGoChannel, pubsub.DriverNone:
	case pubsub.DriverKafka:
		if len(c.Events.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("events.kafka.brokers is required for the kafka driver"))
		}
	case pubsub.DriverRedis:
		if c.Events.Redis.Addr == "" {
			errs = append(errs, errors.New("events.redis.addr is required for the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown event driver %q", c.Events.Driver))
	}

	if c.Audit.Enabled && c.Audit.Interval <= 0 {
		errs = append(errs, errors.New("audit.interval must be positive when the audit is enabled"))
	}
	return errors.Join(errs...)
}
