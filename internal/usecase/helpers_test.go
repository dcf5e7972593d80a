package usecase

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"TradeForge/internal/domain/models"
	drepo "TradeForge/internal/domain/repository"
	"TradeForge/internal/repository"
	applogger "TradeForge/pkg/logger"
	"TradeForge/pkg/metrics"

	"github.com/stretchr/testify/require"
)

var errDiskGone = errors.New("disk gone")

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.MarketEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e models.MarketEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// flakyStore fails the failOn-th commit (1-based) and every one after it
// with a SourceUnavailable error.
type flakyStore struct {
	drepo.Store
	mu      sync.Mutex
	commits int
	failOn  int
}

func (s *flakyStore) Begin(ctx context.Context) (drepo.UnitOfWork, error) {
	u, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &flakyUnit{UnitOfWork: u, store: s}, nil
}

type flakyUnit struct {
	drepo.UnitOfWork
	store *flakyStore
}

func (u *flakyUnit) Commit(ctx context.Context) error {
	s := u.store
	s.mu.Lock()
	s.commits++
	fail := s.failOn > 0 && s.commits >= s.failOn
	s.mu.Unlock()
	if fail {
		u.Rollback()
		return models.SourceUnavailable("store.commit", errDiskGone)
	}
	return u.UnitOfWork.Commit(ctx)
}

type failingSource struct{ err error }

func (s failingSource) LoadSectorDescriptors(context.Context) ([]models.SectorDescriptor, error) {
	return nil, s.err
}

type harness struct {
	store     *repository.MemoryStore
	pub       *recordingPublisher
	registry  *SectorRegistry
	assembler *Assembler
}

func newHarness(t *testing.T, descs ...models.SectorDescriptor) *harness {
	t.Helper()
	store := repository.NewMemoryStore()
	return newHarnessOn(t, store, store, descs...)
}

func newHarnessOn(t *testing.T, mem *repository.MemoryStore, store drepo.Store, descs ...models.SectorDescriptor) *harness {
	t.Helper()
	pub := &recordingPublisher{}
	l := applogger.Nop()
	h := &harness{
		store:     mem,
		pub:       pub,
		registry:  NewSectorRegistry(store, repository.StaticSectorSource(descs), pub, metrics.Nop{}, l),
		assembler: NewAssembler(store, pub, metrics.Nop{}, l, rand.New(rand.NewSource(42))),
	}
	if len(descs) > 0 {
		_, err := h.registry.Bootstrap(context.Background())
		require.NoError(t, err)
	}
	return h
}

var tech = models.SectorDescriptor{Name: "Tech", Category: "Technology", BaseValuation: 1.5}
