package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "test", c.Environment)
	assert.Equal(t, DriverMemory, c.Store.Driver)
	assert.Equal(t, "fixed", c.Onboarding.Mode)
	assert.Equal(t, 5, c.Onboarding.Count)
	assert.True(t, c.Onboarding.Reset)
	assert.Equal(t, 5*time.Minute, c.Onboarding.LockTTL)
	assert.True(t, c.InitialBalance().Equal(decimal.NewFromInt(1_000_000)))
	assert.True(t, c.Bonus().Equal(decimal.NewFromInt(50_000)))
	assert.Equal(t, -1, c.Kafka.RequiredAcks)
	assert.Empty(t, c.Kafka.TradesTopic)
	assert.Equal(t, 2, c.Kafka.ConsumerWorkers)
}

func TestParse_ExplicitZeroValuesWin(t *testing.T) {
	c, err := Parse([]byte(`
environment: test
onboarding:
  count: 0
  reset: false
  bonus: ""
metrics:
  enabled: false
`))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Onboarding.Count)
	assert.False(t, c.Onboarding.Reset)
	assert.False(t, c.Metrics.Enabled)
	assert.True(t, c.Bonus().IsZero())
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad driver":         "store:\n  driver: postgres\n",
		"bad mode":           "onboarding:\n  mode: chaos\n",
		"bad balance":        "onboarding:\n  initial_balance: lots\n",
		"kafka no brokers":   "kafka:\n  enabled: true\n",
		"clickhouse no host": "clickhouse:\n  enabled: true\n",
		"redis no addr":      "redis:\n  enabled: true\n",
		"dlq is trades":      "kafka:\n  trades_topic: t\n  dlq_topic: t\n",
		"no workers":         "kafka:\n  consumer_workers: 0\n",
		"malformed":          "environment: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)

	env := map[string]string{
		"TF_ENV":          "prod",
		"TF_STORE_DRIVER": "sqlite",
		"TF_STORE_DSN":    "/tmp/market.db",
		"KAFKA_BROKERS":   "k1:9092, k2:9092",
		"REDIS_ADDR":      "redis:6379",
	}
	c.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "prod", c.Environment)
	assert.Equal(t, DriverSQLite, c.Store.Driver)
	assert.Equal(t, "/tmp/market.db", c.Store.DSN)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Kafka.Enabled)
	assert.True(t, c.Redis.Enabled)
	assert.False(t, c.ClickHouse.Enabled)
	assert.NoError(t, c.Validate())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: test\nonboarding:\n  count: 3\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Onboarding.Count)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
