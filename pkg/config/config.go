package config

import (
	"fmt"
	"os"
	"time"

	"TradeForge/pkg/util"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Log         struct {
		Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format     string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output     string `yaml:"output" default:"stdout"`
		TimeFormat string `yaml:"time_format"`
	} `yaml:"log"`
	Store struct {
		Driver      string        `yaml:"driver" default:"memory" validate:"oneof=memory sqlite"`
		DSN         string        `yaml:"dsn" default:":memory:"`
		BusyTimeout time.Duration `yaml:"busy_timeout" default:"5s"`
		WAL         bool          `yaml:"wal"`
	} `yaml:"store"`
	Sectors struct {
		Path string `yaml:"path" default:"config/sectors.json" validate:"required"`
	} `yaml:"sectors"`
	Onboarding struct {
		Mode           string        `yaml:"mode" default:"fixed" validate:"oneof=fixed random"`
		Count          int           `yaml:"count" default:"5" validate:"gte=0,lte=100000"`
		NamePrefix     string        `yaml:"name_prefix" default:"Agent"`
		Suffix         string        `yaml:"suffix" default:"S/A"`
		InitialBalance string        `yaml:"initial_balance" default:"1000000"`
		Bonus          string        `yaml:"bonus" default:"50000"`
		Seed           int64         `yaml:"seed"`
		Reset          bool          `yaml:"reset" default:"true"`
		LockKey        string        `yaml:"lock_key" default:"onboarding:lock" validate:"required"`
		LockTTL        time.Duration `yaml:"lock_ttl" default:"5m"`
	} `yaml:"onboarding"`
	Server struct {
		Enabled         bool          `yaml:"enabled"`
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowRequest     time.Duration `yaml:"slow_request" default:"1s"`
		TradeBurst      float64       `yaml:"trade_burst" default:"20"`
		TradeRate       float64       `yaml:"trade_rate" default:"5"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool `yaml:"enabled" default:"true"`
	} `yaml:"metrics"`
	Kafka struct {
		Enabled         bool          `yaml:"enabled"`
		Brokers         []string      `yaml:"brokers"`
		EventsTopic     string        `yaml:"events_topic" default:"market.events"`
		LogTopic        string        `yaml:"log_topic" default:"tradeforge.logs"`
		RequiredAcks    int           `yaml:"required_acks" default:"-1"`
		Compression     string        `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
		MaxAttempts     int           `yaml:"max_attempts" default:"5"`
		BatchTimeout    time.Duration `yaml:"batch_timeout" default:"50ms"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		TradesTopic     string        `yaml:"trades_topic"`
		ConsumerGroup   string        `yaml:"consumer_group" default:"tradeforge"`
		ConsumerWorkers int           `yaml:"consumer_workers" default:"2" validate:"gte=1,lte=64"`
		RetryMax        int           `yaml:"retry_max" default:"3" validate:"gte=0"`
		DLQTopic        string        `yaml:"dlq_topic" default:"market.trades.dlq"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"default"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		Table            string        `yaml:"table" default:"trade_history"`
		UseHTTP          bool          `yaml:"use_http"`
		Compress         bool          `yaml:"compress"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled   bool          `yaml:"enabled"`
		Addr      string        `yaml:"addr"`
		Password  string        `yaml:"password"`
		DB        int           `yaml:"db"`
		Prefix    string        `yaml:"prefix" default:"tradeforge"`
		ReportTTL time.Duration `yaml:"report_ttl" default:"30s"`
		MemoryTTL time.Duration `yaml:"memory_ttl" default:"5s"`
	} `yaml:"redis"`
}

var validate = validator.New()

// Load reads a YAML file, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse applies defaults, decodes YAML content over them and validates
// the result. Defaults go first so explicit zero values in the file win.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides it with environment
// variables before validating again.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("TF_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("TF_STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := getenv("TF_STORE_DSN"); v != "" {
		c.Store.DSN = v
	}
	if v := getenv("TF_SECTORS_PATH"); v != "" {
		c.Sectors.Path = v
	}
	if v := getenv("TF_AGENT_COUNT"); v != "" {
		c.Onboarding.Count = util.ParseIntDefault(v, c.Onboarding.Count)
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v)
		c.Kafka.Enabled = true
	}
	if v := getenv("KAFKA_TRADES_TOPIC"); v != "" {
		c.Kafka.TradesTopic = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
}

// Validate runs tag validation plus the checks tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := decimal.NewFromString(c.Onboarding.InitialBalance); err != nil {
		return fmt.Errorf("onboarding.initial_balance: %w", err)
	}
	if c.Onboarding.Bonus != "" {
		if _, err := decimal.NewFromString(c.Onboarding.Bonus); err != nil {
			return fmt.Errorf("onboarding.bonus: %w", err)
		}
	}
	if c.Store.Driver == DriverSQLite && c.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required for the sqlite driver")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Kafka.TradesTopic != "" && c.Kafka.TradesTopic == c.Kafka.DLQTopic {
		return fmt.Errorf("kafka.dlq_topic must differ from kafka.trades_topic")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	return nil
}

// InitialBalance returns the parsed onboarding balance.
func (c *Config) InitialBalance() decimal.Decimal {
	return decimal.RequireFromString(c.Onboarding.InitialBalance)
}

// Bonus returns the parsed post-funding credit; zero when unset.
func (c *Config) Bonus() decimal.Decimal {
	if c.Onboarding.Bonus == "" {
		return decimal.Zero
	}
	return decimal.RequireFromString(c.Onboarding.Bonus)
}
