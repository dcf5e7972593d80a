package usecase

import (
	"context"
	"testing"

	"TradeForge/internal/domain/models"
	"TradeForge/internal/repository"
	applogger "TradeForge/pkg/logger"
	"TradeForge/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectorRegistry_SeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	descs := []models.SectorDescriptor{
		tech,
		{Name: "Energy", Category: "Energy", BaseValuation: 0.9},
	}

	added, err := h.registry.Seed(ctx, descs)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = h.registry.Seed(ctx, descs)
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	sectors, err := h.registry.Sectors(ctx)
	require.NoError(t, err)
	assert.Len(t, sectors, 2)
	assert.Equal(t, []string{models.EventSectorsSeeded}, h.pub.types(), "no event when nothing changed")
}

func TestSectorRegistry_SkipsDuplicateNamesInBatch(t *testing.T) {
	h := newHarness(t)
	added, err := h.registry.Seed(context.Background(), []models.SectorDescriptor{
		tech,
		{Name: "Tech", Category: "Other", BaseValuation: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, []string{"Tech"}, h.store.SectorNames())
}

func TestSectorRegistry_InvalidDescriptorWritesNothing(t *testing.T) {
	h := newHarness(t)
	_, err := h.registry.Seed(context.Background(), []models.SectorDescriptor{
		tech,
		{Name: "", Category: "Energy"},
	})
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
	assert.Empty(t, h.store.SectorNames())
}

func TestSectorRegistry_SkipsKnownNameBeforeValidating(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, tech)

	added, err := h.registry.Seed(ctx, []models.SectorDescriptor{
		{Name: " Tech "},
		{Name: "Energy", Category: "Utilities"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, []string{"Energy", "Tech"}, h.store.SectorNames())
}

func TestSectorRegistry_EmptyInput(t *testing.T) {
	h := newHarness(t)
	added, err := h.registry.Seed(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, added)
}

func TestSectorRegistry_SourceUnavailable(t *testing.T) {
	store := repository.NewMemoryStore()
	reg := NewSectorRegistry(store, failingSource{err: models.SourceUnavailable("sectors.load", errDiskGone)},
		&recordingPublisher{}, metrics.Nop{}, applogger.Nop())

	_, err := reg.Bootstrap(context.Background())
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)
	assert.ErrorIs(t, err, errDiskGone)
}

func TestSectorRegistry_CommitFailure(t *testing.T) {
	mem := repository.NewMemoryStore()
	h := newHarnessOn(t, mem, &flakyStore{Store: mem, failOn: 1})

	_, err := h.registry.Seed(context.Background(), []models.SectorDescriptor{tech})
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)
	assert.Empty(t, mem.SectorNames())
	assert.Empty(t, h.pub.types())
}
