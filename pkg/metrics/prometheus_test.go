package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCountsSteps(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordStep("fund_agent", "ok")
	r.RecordStep("fund_agent", "ok")
	r.RecordStep("fund_agent", "failed")
	r.RecordDecline("debit")
	r.RecordSectors(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.steps.WithLabelValues("fund_agent", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.steps.WithLabelValues("fund_agent", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.declines.WithLabelValues("debit")))
	assert.Equal(t, 7.0, testutil.ToFloat64(r.sectors))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "tradeforge_pipeline_steps_total")
	assert.Contains(t, names, "tradeforge_sectors_registered")
}

func TestRecorderOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
