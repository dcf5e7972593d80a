package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"TradeForge/internal/domain/models"
	drepo "TradeForge/internal/domain/repository"
	applogger "TradeForge/pkg/logger"
)

// SectorRegistry populates and serves the sector catalog.
type SectorRegistry struct {
	store   drepo.Store
	source  drepo.SectorSource
	metrics drepo.Metrics
	l       *applogger.Logger
	events  notifier
}

// NewSectorRegistry creates a registry seeded from source.
func NewSectorRegistry(
	store drepo.Store,
	source drepo.SectorSource,
	pub drepo.EventPublisher,
	metrics drepo.Metrics,
	l *applogger.Logger,
) *SectorRegistry {
	return &SectorRegistry{
		store:   store,
		source:  source,
		metrics: metrics,
		l:       l,
		events:  notifier{pub: pub, metrics: metrics, l: l},
	}
}

// Bootstrap loads descriptors from the source and seeds them.
func (r *SectorRegistry) Bootstrap(ctx context.Context) (int, error) {
	descs, err := r.source.LoadSectorDescriptors(ctx)
	if err != nil {
		r.metrics.RecordError(errorKind(err))
		return 0, fmt.Errorf("load sector descriptors: %w", err)
	}
	return r.Seed(ctx, descs)
}

// Seed registers one sector per descriptor name not already present and
// returns how many were added. Known names, including repeats inside
// descs, are skipped, so re-running with the same input adds nothing.
// All new sectors are committed together.
func (r *SectorRegistry) Seed(ctx context.Context, descs []models.SectorDescriptor) (int, error) {
	start := time.Now()
	defer func() { r.metrics.RecordLatency("seed_sectors", time.Since(start).Seconds()) }()

	if len(descs) == 0 {
		r.l.Info("no sector descriptors to seed")
		return 0, nil
	}

	existing, err := r.store.QueryAllSectors(ctx)
	if err != nil {
		r.metrics.RecordStep("seed_sectors", "failed")
		return 0, fmt.Errorf("query sectors: %w", err)
	}
	known := make(map[string]struct{}, len(existing)+len(descs))
	for _, s := range existing {
		known[strings.TrimSpace(s.Name())] = struct{}{}
	}

	var fresh []*models.Sector
	for _, d := range descs {
		name := strings.TrimSpace(d.Name)
		if _, dup := known[name]; dup {
			r.l.Debug("sector already registered", applogger.String("sector", name))
			continue
		}
		sec, err := models.NewSector(d.Name, d.Category, d.BaseValuation)
		if err != nil {
			r.metrics.RecordStep("seed_sectors", "failed")
			return 0, err
		}
		known[name] = struct{}{}
		fresh = append(fresh, sec)
	}

	total := len(existing) + len(fresh)
	if len(fresh) == 0 {
		r.metrics.RecordStep("seed_sectors", "ok")
		r.metrics.RecordSectors(total)
		r.l.Info("sector registry up to date", applogger.Int("sectors", total))
		return 0, nil
	}

	uow, err := r.store.Begin(ctx)
	if err != nil {
		r.metrics.RecordStep("seed_sectors", "failed")
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	for _, s := range fresh {
		uow.AddSector(s)
	}
	if err := uow.Commit(ctx); err != nil {
		r.metrics.RecordStep("seed_sectors", "failed")
		r.metrics.RecordError(errorKind(err))
		return 0, fmt.Errorf("commit seed: %w", err)
	}

	r.metrics.RecordStep("seed_sectors", "ok")
	r.metrics.RecordSectors(total)
	r.l.Info("sectors seeded",
		applogger.Int("added", len(fresh)),
		applogger.Int("sectors", total),
	)

	names := make([]string, len(fresh))
	for i, s := range fresh {
		names[i] = s.Name()
	}
	r.events.notify(ctx, models.EventSectorsSeeded, "sectors", map[string]interface{}{
		"added": names,
		"total": total,
	})
	return len(fresh), nil
}

// Sectors returns every registered sector in registration order.
func (r *SectorRegistry) Sectors(ctx context.Context) ([]*models.Sector, error) {
	return r.store.QueryAllSectors(ctx)
}
