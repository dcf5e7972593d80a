package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// Config describes the trade journal's ClickHouse connection.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string

	HTTP        bool // HTTP protocol instead of native
	LZ4         bool
	AsyncInsert bool
	WaitAsync   bool
	MaxExecTime time.Duration

	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

type Option func(*Config)

func WithAddr(host string, port int) Option {
	return func(c *Config) {
		c.Host = host
		if port > 0 {
			c.Port = port
		}
	}
}

func WithDatabase(name string) Option {
	return func(c *Config) {
		if name != "" {
			c.Database = name
		}
	}
}

func WithCredentials(user, password string) Option {
	return func(c *Config) {
		c.User = user
		c.Password = password
	}
}

// WithTransport picks the protocol and block compression.
func WithTransport(http, lz4 bool) Option {
	return func(c *Config) {
		c.HTTP = http
		c.LZ4 = lz4
	}
}

// WithAsyncInsert lets the server buffer inserts; wait makes the
// insert return only once the buffer was flushed.
func WithAsyncInsert(enabled, wait bool) Option {
	return func(c *Config) {
		c.AsyncInsert = enabled
		c.WaitAsync = wait
	}
}

func WithTimeouts(dial, read, maxExec time.Duration) Option {
	return func(c *Config) {
		c.DialTimeout = dial
		c.ReadTimeout = read
		c.MaxExecTime = maxExec
	}
}

func WithPool(maxOpen, maxIdle int, lifetime time.Duration) Option {
	return func(c *Config) {
		c.MaxOpen = maxOpen
		c.MaxIdle = maxIdle
		c.MaxLifetime = lifetime
	}
}

// Client is a pinged database/sql pool over clickhouse-go.
type Client struct {
	db       *sql.DB
	database string
}

func NewClient(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &Config{
		Port:        9000,
		Database:    "default",
		User:        "default",
		MaxOpen:     8,
		MaxIdle:     4,
		MaxLifetime: 10 * time.Minute,
		DialTimeout: 5 * time.Second,
		ReadTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Host == "" {
		return nil, errors.New("clickhouse: host is required")
	}

	db := clickhouse.OpenDB(cfg.options())
	db.SetMaxOpenConns(cfg.MaxOpen)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	pctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("clickhouse ping %s: %w", cfg.Host, err)
	}
	return &Client{db: db, database: cfg.Database}, nil
}

func (c *Client) DB() *sql.DB { return c.db }

func (c *Client) Database() string { return c.database }

// Table qualifies name with the client's database.
func (c *Client) Table(name string) string { return c.database + "." + name }

// Migrate runs idempotent DDL in order and stops at the first failure.
func (c *Client) Migrate(ctx context.Context, ddl []string) error {
	for i, stmt := range ddl {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clickhouse migrate step %d: %w", i+1, err)
		}
	}
	return nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (cfg *Config) options() *clickhouse.Options {
	settings := clickhouse.Settings{}
	if cfg.MaxExecTime > 0 {
		settings["max_execution_time"] = int(cfg.MaxExecTime / time.Second)
	}
	if cfg.AsyncInsert {
		settings["async_insert"] = 1
		if cfg.WaitAsync {
			settings["wait_for_async_insert"] = 1
		}
	}

	opt := &clickhouse.Options{
		Addr: []string{net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Protocol:    clickhouse.Native,
		DialTimeout: cfg.DialTimeout,
		ReadTimeout: cfg.ReadTimeout,
		Settings:    settings,
	}
	if cfg.HTTP {
		opt.Protocol = clickhouse.HTTP
	}
	if cfg.LZ4 {
		opt.Compression = &clickhouse.Compression{Method: clickhouse.CompressionLZ4}
	}
	return opt
}
