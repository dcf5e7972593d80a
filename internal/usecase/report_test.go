package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"TradeForge/internal/domain/models"
	"TradeForge/pkg/cache"
	applogger "TradeForge/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func onboardAcme(t *testing.T, h *harness) *models.Agent {
	t.Helper()
	ctx := context.Background()
	agent, err := h.assembler.BuildIdentity(ctx, "Acme", "Inc")
	require.NoError(t, err)
	_, err = h.assembler.FundAgent(ctx, agent.ID(), dec(1000))
	require.NoError(t, err)
	_, err = h.assembler.StockAgent(ctx, agent.ID(), "GOLD", 7)
	require.NoError(t, err)
	return agent
}

func TestMarketReport_AgentsAndLines(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, tech)
	acme := onboardAcme(t, h)
	bare, err := h.assembler.BuildIdentity(ctx, "Initech", "LLC")
	require.NoError(t, err)

	r := NewMarketReport(h.store, nil, time.Minute, applogger.Nop())

	views, err := r.Agents(ctx, uuid.Nil, 0)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, acme.ID().String(), views[0].ID)
	assert.Equal(t, "Tech", views[0].Sector)
	assert.Equal(t, string(models.AgentStocked), views[0].State)
	require.NotNil(t, views[0].Balance)
	assert.True(t, views[0].Balance.Equal(dec(1000)))
	require.Len(t, views[0].Stocks, 1)
	assert.Equal(t, int64(7), views[0].Stocks[0].Quantity)
	assert.Nil(t, views[1].Balance)
	assert.Empty(t, views[1].Stocks)

	limited, err := r.Agents(ctx, uuid.Nil, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	other, err := r.Agents(ctx, uuid.New(), 0)
	require.NoError(t, err)
	assert.Empty(t, other)

	one, err := r.Agent(ctx, bare.ID())
	require.NoError(t, err)
	assert.Equal(t, "Initech", one.Name)
	_, err = r.Agent(ctx, uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)

	lines, err := r.Lines(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "AGENT"))
	assert.Contains(t, lines[1], "Acme Inc")
	assert.Contains(t, lines[1], "Tech")
	assert.Contains(t, lines[1], "1000.00")
	assert.True(t, strings.HasSuffix(lines[2], "| -"))
}

func TestMarketReport_CachesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, tech)
	c := cache.NewMemoryCache()
	defer c.Close()
	r := NewMarketReport(h.store, c, time.Minute, applogger.Nop())

	sectors, err := r.Sectors(ctx)
	require.NoError(t, err)
	require.Len(t, sectors, 1)

	_, err = h.registry.Seed(ctx, []models.SectorDescriptor{{Name: "Energy", Category: "Energy", BaseValuation: 1}})
	require.NoError(t, err)

	sectors, err = r.Sectors(ctx)
	require.NoError(t, err)
	assert.Len(t, sectors, 1, "served from cache")

	r.Invalidate(ctx)
	sectors, err = r.Sectors(ctx)
	require.NoError(t, err)
	assert.Len(t, sectors, 2)
	assert.Equal(t, "Tech", sectors[0].Name)
	assert.InDelta(t, 1.5, sectors[0].ValuationGrade, 1e-9)
}
