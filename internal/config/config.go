// Package config loads the relay and responder configuration from defaults, an optional YAML
// file, a .env file and the environment, in increasing order of precedence.
package config

import (
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fpt/ping-relay/internal/gateway"
	"github.com/fpt/ping-relay/pkg/logger"
)

const (
	DefaultInboundQueue      = "ping-inbound-queue"
	DefaultBusQueue          = "pingqueue"
	DefaultStorageConnection = "sqlite://data/queues.db"
)

// Config holds every setting either process reads.
type Config struct {
	BotToken string `mapstructure:"bot_token" yaml:"bot_token"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file,omitempty"`

	StorageConnectionString string `mapstructure:"storage_queue_connection_string" yaml:"storage_queue_connection_string"`
	BusConnectionString     string `mapstructure:"service_bus_connection_string" yaml:"service_bus_connection_string"`
	InboundQueue            string `mapstructure:"inbound_queue" yaml:"inbound_queue"`
	BusQueue                string `mapstructure:"bus_queue" yaml:"bus_queue"`

	DeliveryPolicy     string        `mapstructure:"delivery_policy" yaml:"delivery_policy"`
	MaxConcurrentCalls int           `mapstructure:"max_concurrent_calls" yaml:"max_concurrent_calls"`
	BatchSize          int           `mapstructure:"batch_size" yaml:"batch_size"`
	MaxDequeueCount    int           `mapstructure:"max_dequeue_count" yaml:"max_dequeue_count"`
	PollInterval       time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	VisibilityTimeout  time.Duration `mapstructure:"visibility_timeout" yaml:"visibility_timeout"`
	IgnoreBots         bool          `mapstructure:"ignore_bots" yaml:"ignore_bots"`

	HTTPAddr string `mapstructure:"http_addr" yaml:"http_addr,omitempty"`
	LockDir  string `mapstructure:"lock_dir" yaml:"lock_dir,omitempty"`
}

// LoadOptions points Load at optional files. Missing files are skipped.
type LoadOptions struct {
	ConfigFile string
	EnvFile    string
}

// environment variable names per key; the first one set wins
var envBindings = map[string][]string{
	"bot_token":                       {"BOT_TOKEN", "BEAN_BOT_TOKEN"},
	"log_level":                       {"LOGLEVEL", "LOG_LEVEL"},
	"log_file":                        {"LOG_FILE"},
	"storage_queue_connection_string": {"STORAGE_QUEUE_CONNECTION_STRING", "StorageQueueConnectionString"},
	"service_bus_connection_string":   {"SERVICE_BUS_CONNECTION_STRING", "AzureWebJobsServiceBus"},
	"inbound_queue":                   {"INBOUND_QUEUE"},
	"bus_queue":                       {"BUS_QUEUE"},
	"delivery_policy":                 {"DELIVERY_POLICY"},
	"max_concurrent_calls":            {"MAX_CONCURRENT_CALLS"},
	"batch_size":                      {"BATCH_SIZE"},
	"max_dequeue_count":               {"MAX_DEQUEUE_COUNT"},
	"poll_interval":                   {"POLL_INTERVAL"},
	"visibility_timeout":              {"VISIBILITY_TIMEOUT"},
	"ignore_bots":                     {"IGNORE_BOTS"},
	"http_addr":                       {"HTTP_ADDR"},
	"lock_dir":                        {"LOCK_DIR"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", string(logger.LogLevelInfo))
	v.SetDefault("storage_queue_connection_string", DefaultStorageConnection)
	v.SetDefault("inbound_queue", DefaultInboundQueue)
	v.SetDefault("bus_queue", DefaultBusQueue)
	v.SetDefault("delivery_policy", string(gateway.AtMostOnce))
	v.SetDefault("max_concurrent_calls", gateway.DefaultMaxConcurrentCalls)
	v.SetDefault("batch_size", 16)
	v.SetDefault("max_dequeue_count", 5)
	v.SetDefault("poll_interval", time.Second)
	v.SetDefault("visibility_timeout", 30*time.Second)
	v.SetDefault("ignore_bots", false)
}

// Load builds the effective configuration.
func Load(opts LoadOptions) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "failed to load env file %s", envFile)
	}

	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", opts.ConfigFile)
		}
	}

	for key, names := range envBindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, errors.Wrapf(err, "failed to bind %s", key)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a component.
func (c *Config) Validate() error {
	if _, err := gateway.ParseDeliveryPolicy(c.DeliveryPolicy); err != nil {
		return err
	}
	if c.MaxConcurrentCalls < 1 {
		return errors.Errorf("max_concurrent_calls must be at least 1, got %d", c.MaxConcurrentCalls)
	}
	if c.BatchSize < 1 {
		return errors.Errorf("batch_size must be at least 1, got %d", c.BatchSize)
	}
	if c.MaxDequeueCount < 1 {
		return errors.Errorf("max_dequeue_count must be at least 1, got %d", c.MaxDequeueCount)
	}
	if c.StorageConnectionString == "" {
		return errors.New("storage_queue_connection_string is required")
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() logger.LogLevel {
	return logger.ParseLogLevel(c.LogLevel)
}

// BusConnection is the store holding the bus queue. It falls back to the storage store, so a
// single database can carry both queues.
func (c *Config) BusConnection() string {
	if c.BusConnectionString != "" {
		return c.BusConnectionString
	}
	return c.StorageConnectionString
}

// GatewayOptions maps the relay settings onto gateway.Options.
func (c *Config) GatewayOptions() gateway.Options {
	policy, _ := gateway.ParseDeliveryPolicy(c.DeliveryPolicy)
	return gateway.Options{
		IgnoreBots:         c.IgnoreBots,
		DeliveryPolicy:     policy,
		MaxConcurrentCalls: c.MaxConcurrentCalls,
		PollInterval:       c.PollInterval,
	}
}

// Redacted renders the configuration as YAML with secrets masked.
func (c *Config) Redacted() (string, error) {
	out := *c
	if out.BotToken != "" {
		out.BotToken = "********"
	}
	out.StorageConnectionString = redactConnection(out.StorageConnectionString)
	out.BusConnectionString = redactConnection(out.BusConnectionString)

	data, err := yaml.Marshal(&out)
	if err != nil {
		return "", errors.Wrap(err, "failed to render configuration")
	}
	return string(data), nil
}

func redactConnection(s string) string {
	if !strings.Contains(s, "://") {
		return s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "********"
	}
	return u.Redacted()
}
