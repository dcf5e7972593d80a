package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigOptions(t *testing.T) {
	cfg := &Config{Port: 9000, Database: "default"}
	for _, opt := range []Option{
		WithAddr("ch.local", 8123),
		WithDatabase("market"),
		WithCredentials("tf", "secret"),
		WithTransport(true, true),
		WithAsyncInsert(true, false),
		WithTimeouts(time.Second, 2*time.Second, 30*time.Second),
	} {
		opt(cfg)
	}

	opt := cfg.options()
	assert.Equal(t, []string{"ch.local:8123"}, opt.Addr)
	assert.Equal(t, "market", opt.Auth.Database)
	assert.Equal(t, "tf", opt.Auth.Username)
	assert.Equal(t, clickhouse.HTTP, opt.Protocol)
	require.NotNil(t, opt.Compression)
	assert.Equal(t, clickhouse.CompressionLZ4, opt.Compression.Method)
	assert.Equal(t, 30, opt.Settings["max_execution_time"])
	assert.Equal(t, 1, opt.Settings["async_insert"])
	_, wait := opt.Settings["wait_for_async_insert"]
	assert.False(t, wait)
}

func TestConfigOptions_Defaults(t *testing.T) {
	cfg := &Config{Port: 9000, Database: "default"}
	WithAddr("ch.local", 0)(cfg)
	WithDatabase("")(cfg)

	opt := cfg.options()
	assert.Equal(t, []string{"ch.local:9000"}, opt.Addr)
	assert.Equal(t, "default", opt.Auth.Database)
	assert.Equal(t, clickhouse.Native, opt.Protocol)
	assert.Nil(t, opt.Compression)
	assert.Empty(t, opt.Settings)
}

func TestNewClient_RequiresHost(t *testing.T) {
	_, err := NewClient(context.Background())
	assert.Error(t, err)
}
