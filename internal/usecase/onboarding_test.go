package usecase

import (
	"context"
	"testing"
	"time"

	"TradeForge/internal/domain/models"
	"TradeForge/internal/repository"
	"TradeForge/pkg/cache"
	applogger "TradeForge/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLockKey = "tradeforge:onboarding"

func newPipeline(h *harness, locker *cache.MemoryCache) *Pipeline {
	p := NewPipeline(h.registry, h.assembler, h.store, nil, testLockKey, time.Minute, applogger.Nop())
	if locker != nil {
		p.locker = locker
	}
	return p
}

func TestPipeline_RunOnboardsEveryPlan(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.registry.source = repository.StaticSectorSource{tech}
	p := newPipeline(h, nil)

	plans := []AgentPlan{
		{
			Name: "Acme", Suffix: "Inc", InitialBalance: dec(1000),
			Stocks: []StockPlan{{Symbol: "GOLD", Quantity: 10}},
			Adjustments: []LedgerAdjustment{
				{Op: AdjustDebit, Amount: dec(1500)},
				{Op: AdjustCredit, Amount: dec(500)},
				{Op: AdjustDebit, Amount: dec(1500)},
			},
		},
		{Name: "Globex", Suffix: "LLC", InitialBalance: dec(20)},
	}
	res, err := p.Run(ctx, plans)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SectorsAdded)
	require.Len(t, res.Agents, 2)
	assert.Zero(t, res.Failed())

	acme := res.Agents[0]
	assert.NoError(t, acme.Err)
	assert.Equal(t, models.AgentStocked, acme.State)
	assert.Equal(t, 1, acme.Declined)
	assert.True(t, acme.Balance.IsZero())

	globex := res.Agents[1]
	assert.Equal(t, models.AgentFunded, globex.State)
	assert.True(t, globex.Balance.Equal(dec(20)))

	sectors, agents, ledgers, stocks := h.store.Counts()
	assert.Equal(t, []int{1, 2, 2, 1}, []int{sectors, agents, ledgers, stocks})
	assert.False(t, res.Finished.Before(res.Started))
}

func TestPipeline_FailingPlanStopsOnlyThatAgent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.registry.source = repository.StaticSectorSource{tech}
	p := newPipeline(h, nil)

	res, err := p.Run(ctx, []AgentPlan{
		{Name: "Acme", Suffix: "Inc", InitialBalance: dec(-5), Stocks: []StockPlan{{Symbol: "GOLD", Quantity: 1}}},
		{Name: "", Suffix: "Inc", InitialBalance: dec(5)},
		{Name: "Globex", Suffix: "LLC", InitialBalance: dec(5)},
	})
	require.NoError(t, err)
	require.Len(t, res.Agents, 3)
	assert.Equal(t, 2, res.Failed())

	assert.ErrorIs(t, res.Agents[0].Err, models.ErrInvalidArgument)
	assert.Equal(t, models.AgentIdentified, res.Agents[0].State, "identity stays committed")
	assert.ErrorIs(t, res.Agents[1].Err, models.ErrInvalidArgument)
	assert.NoError(t, res.Agents[2].Err)

	_, agents, ledgers, stocks := h.store.Counts()
	assert.Equal(t, 2, agents)
	assert.Equal(t, 1, ledgers)
	assert.Zero(t, stocks)
}

func TestPipeline_UnknownAdjustment(t *testing.T) {
	h := newHarness(t)
	h.registry.source = repository.StaticSectorSource{tech}

	res, err := newPipeline(h, nil).Run(context.Background(), []AgentPlan{
		{Name: "Acme", Suffix: "Inc", InitialBalance: dec(5), Adjustments: []LedgerAdjustment{{Op: "burn", Amount: dec(1)}}},
	})
	require.NoError(t, err)
	assert.ErrorIs(t, res.Agents[0].Err, models.ErrInvalidArgument)
}

func TestPipeline_NoSectorsFailsEveryPlan(t *testing.T) {
	h := newHarness(t)
	h.registry.source = repository.StaticSectorSource{}

	res, err := newPipeline(h, nil).Run(context.Background(), []AgentPlan{
		{Name: "Acme", Suffix: "Inc", InitialBalance: dec(5)},
	})
	require.NoError(t, err)
	assert.ErrorIs(t, res.Agents[0].Err, models.ErrPreconditionFailed)
}

func TestPipeline_UnavailableStoreAbortsBatch(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemoryStore()
	flaky := &flakyStore{Store: mem, failOn: 3}
	h := newHarnessOn(t, mem, flaky)
	h.registry.source = repository.StaticSectorSource{tech}

	// commits: seed, identity of Acme, then funding fails
	res, err := newPipeline(h, nil).Run(ctx, []AgentPlan{
		{Name: "Acme", Suffix: "Inc", InitialBalance: dec(5)},
		{Name: "Globex", Suffix: "LLC", InitialBalance: dec(5)},
	})
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)
	require.NotNil(t, res)
	require.Len(t, res.Agents, 1)
	assert.Equal(t, models.AgentIdentified, res.Agents[0].State)

	_, agents, ledgers, _ := mem.Counts()
	assert.Equal(t, 1, agents)
	assert.Zero(t, ledgers)
}

func TestPipeline_SourceFailureAbortsBeforeAgents(t *testing.T) {
	h := newHarness(t)
	h.registry.source = failingSource{err: models.SourceUnavailable("sectors.load", errDiskGone)}

	res, err := newPipeline(h, nil).Run(context.Background(), []AgentPlan{{Name: "Acme", Suffix: "Inc"}})
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)
	assert.Nil(t, res)
}

func TestPipeline_LockHeld(t *testing.T) {
	ctx := context.Background()
	locker := cache.NewMemoryCache()
	defer locker.Close()

	h := newHarness(t)
	h.registry.source = repository.StaticSectorSource{tech}
	p := newPipeline(h, locker)

	ok, err := locker.TryLock(ctx, testLockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = p.Run(ctx, nil)
	assert.ErrorIs(t, err, models.ErrPreconditionFailed)

	require.NoError(t, locker.Unlock(ctx, testLockKey))
	_, err = p.Run(ctx, nil)
	require.NoError(t, err)

	ok, err = locker.TryLock(ctx, testLockKey, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "lock released after run")
}

func TestPipeline_Reset(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.registry.source = repository.StaticSectorSource{tech}
	p := newPipeline(h, nil)

	res, err := p.Run(ctx, []AgentPlan{{Name: "Acme", Suffix: "Inc", InitialBalance: dec(5)}})
	require.NoError(t, err)
	id := res.Agents[0].AgentID

	require.NoError(t, p.Reset(ctx))
	sectors, agents, _, _ := h.store.Counts()
	assert.Zero(t, sectors)
	assert.Zero(t, agents)

	_, err = h.assembler.Agent(ctx, id)
	assert.ErrorIs(t, err, models.ErrPreconditionFailed)
}
