package kafka

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducer(t *testing.T) {
	_, err := NewProducer(WithRegisterer(prometheus.NewRegistry()))
	assert.Error(t, err)

	_, err = NewProducer(
		WithBrokers([]string{"localhost:9092"}),
		WithCompression("brotli"),
		WithRegisterer(prometheus.NewRegistry()),
	)
	assert.Error(t, err)

	p, err := NewProducer(
		WithBrokers([]string{"localhost:9092"}),
		WithCompression("none"),
		WithHashByKey(true),
		WithRegisterer(prometheus.NewRegistry()),
	)
	require.NoError(t, err)
	assert.IsType(t, &kafka.Hash{}, p.writer.Balancer)
	assert.Equal(t, kafka.Compression(0), p.writer.Compression)
	require.NoError(t, p.Close())
}

func TestCompressionCodec(t *testing.T) {
	for name, want := range map[string]kafka.Compression{
		"":       0,
		"none":   0,
		"gzip":   kafka.Gzip,
		"snappy": kafka.Snappy,
		"lz4":    kafka.Lz4,
		"zstd":   kafka.Zstd,
	} {
		got, err := compressionCodec(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestEncode(t *testing.T) {
	b, err := encode([]byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, "raw", string(b))

	b, err = encode("text")
	require.NoError(t, err)
	assert.Equal(t, "text", string(b))

	b, err = encode(map[string]int{"qty": 5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"qty":5}`, string(b))
}
