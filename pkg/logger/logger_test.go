package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]DigestEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.([]DigestEntry))
	return nil
}

func TestNewWriter_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "info").With(String("component", "onboarding"))

	l.Info("agent funded",
		Decimal("balance", decimal.RequireFromString("1000.50")),
		Int("plan", 2),
		Error(errors.New("boom")),
	)
	l.Debug("hidden")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "agent funded", entry["message"])
	assert.Equal(t, "onboarding", entry["component"])
	assert.Equal(t, "1000.5", entry["balance"])
	assert.Equal(t, float64(2), entry["plan"])
	assert.Equal(t, "boom", entry["error"])
}

func TestDigest_AggregatesErrors(t *testing.T) {
	pub := &capturePublisher{}
	l := NewWriter(&bytes.Buffer{}, "info")
	l.EnableDigest(DigestConfig{Topic: "tradeforge.logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		l.Error("commit failed", String("step", "fund_agent"))
	}
	l.Warn("not collected")
	l.CloseDigest()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, "tradeforge.logs", pub.topic)
	require.Len(t, pub.batches, 1)
	require.Len(t, pub.batches[0], 1)
	got := pub.batches[0][0]
	assert.Equal(t, "error", got.Level)
	assert.Equal(t, "commit failed", got.Message)
	assert.Equal(t, 3, got.Count)
	assert.Equal(t, "fund_agent", got.Fields["step"])
}
