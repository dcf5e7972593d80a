package server

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"TradeForge/internal/domain/models"
	drepo "TradeForge/internal/domain/repository"
	"TradeForge/internal/repository"
	"TradeForge/internal/usecase"
	"TradeForge/pkg/config"
	applogger "TradeForge/pkg/logger"
	"TradeForge/pkg/metrics"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenSource struct{}

func (brokenSource) LoadSectorDescriptors(context.Context) ([]models.SectorDescriptor, error) {
	return nil, models.SourceUnavailable("sectors.load", errors.New("no such file"))
}

func newApp(t *testing.T, source drepo.SectorSource, reset bool) (*App, *repository.MemoryStore, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l := applogger.NewWriter(&buf, "info")
	store := repository.NewMemoryStore()
	pub := repository.NopPublisher{}
	m := metrics.Nop{}

	cfg := &config.Config{}
	cfg.Onboarding.Mode = usecase.ModeFixed
	cfg.Onboarding.Count = 2
	cfg.Onboarding.Reset = reset

	registry := usecase.NewSectorRegistry(store, source, pub, m, l)
	assembler := usecase.NewAssembler(store, pub, m, l, rand.New(rand.NewSource(3)))
	pipeline := usecase.NewPipeline(registry, assembler, store, nil, "lock", time.Minute, l)
	generator := usecase.NewMarketGenerator(usecase.GeneratorConfig{
		Mode:           usecase.ModeFixed,
		Count:          2,
		NamePrefix:     "Agent",
		Suffix:         "Corp",
		InitialBalance: decimal.NewFromInt(1000),
		Bonus:          decimal.NewFromInt(500),
	}, rand.New(rand.NewSource(3)))
	report := usecase.NewMarketReport(store, nil, time.Minute, l)

	return New(cfg, l, pipeline, generator, report, nil, nil), store, &buf
}

func TestApp_RunWithoutAPI(t *testing.T) {
	app, store, buf := newApp(t, repository.StaticSectorSource{
		{Name: "Tech", Category: "Technology", BaseValuation: 1.2},
	}, false)

	require.NoError(t, app.Run(context.Background()))

	sectors, agents, ledgers, stocks := store.Counts()
	assert.Equal(t, 1, sectors)
	assert.Equal(t, 2, agents)
	assert.Equal(t, 2, ledgers)
	assert.Zero(t, stocks)

	out := buf.String()
	assert.Contains(t, out, "Agent 1 Corp")
	assert.Contains(t, out, "Agent 2 Corp")
	assert.Contains(t, out, "1500.00")
}

func TestApp_RunTwiceIsIdempotentForSectors(t *testing.T) {
	app, store, _ := newApp(t, repository.StaticSectorSource{
		{Name: "Tech", Category: "Technology", BaseValuation: 1.2},
	}, false)

	require.NoError(t, app.Run(context.Background()))
	require.NoError(t, app.Run(context.Background()))

	sectors, agents, _, _ := store.Counts()
	assert.Equal(t, 1, sectors)
	assert.Equal(t, 4, agents)
}

func TestApp_ResetBeforeRun(t *testing.T) {
	app, store, _ := newApp(t, repository.StaticSectorSource{
		{Name: "Tech", Category: "Technology", BaseValuation: 1.2},
	}, true)

	require.NoError(t, app.Run(context.Background()))
	require.NoError(t, app.Run(context.Background()))

	_, agents, _, _ := store.Counts()
	assert.Equal(t, 2, agents)
}

func TestApp_SourceUnavailable(t *testing.T) {
	app, store, _ := newApp(t, brokenSource{}, false)

	err := app.Run(context.Background())
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)

	_, agents, _, _ := store.Counts()
	assert.Zero(t, agents)
}
