package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TradeForge/internal/usecase"
	"TradeForge/pkg/config"
	xhttp "TradeForge/pkg/http"
	pkgkafka "TradeForge/pkg/kafka"
	applogger "TradeForge/pkg/logger"
)

// App runs one onboarding batch, reports the result and optionally keeps
// serving the reporting API and ingesting trades until its context is
// cancelled.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	pipeline   *usecase.Pipeline
	generator  *usecase.MarketGenerator
	report     *usecase.MarketReport
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
}

// New creates an App. httpServer and consumer may be nil when the API or
// trade ingestion is disabled.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	pipeline *usecase.Pipeline,
	generator *usecase.MarketGenerator,
	report *usecase.MarketReport,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
) *App {
	return &App{
		cfg:        cfg,
		l:          l,
		pipeline:   pipeline,
		generator:  generator,
		report:     report,
		httpServer: httpServer,
		consumer:   consumer,
	}
}

// Run executes the batch and, when the API or trade ingestion is
// enabled, blocks serving them until ctx is done. A batch aborted by an
// unavailable collaborator is returned as an error; agents that merely
// failed a step are logged.
func (a *App) Run(ctx context.Context) error {
	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			return err
		}
	}
	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			a.stopServer()
			return fmt.Errorf("start trade ingestion: %w", err)
		}
	}

	batchErr := a.onboard(ctx)

	if a.httpServer == nil && a.consumer == nil {
		return batchErr
	}
	if batchErr != nil {
		a.l.Error("onboarding failed, services stay up", applogger.Error(batchErr))
	}

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	if a.consumer != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := a.consumer.Stop(sctx); err != nil {
			a.l.Error("kafka consumer shutdown error", applogger.Error(err))
		}
		cancel()
	}
	a.stopServer()
	return batchErr
}

func (a *App) stopServer() {
	if a.httpServer == nil {
		return
	}
	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}
}

func (a *App) onboard(ctx context.Context) error {
	if a.cfg.Onboarding.Reset {
		if err := a.pipeline.Reset(ctx); err != nil {
			return err
		}
		a.l.Info("store reset")
	}

	plans, err := a.generator.Plans()
	if err != nil {
		return fmt.Errorf("generate plans: %w", err)
	}
	a.l.Info("onboarding batch starting",
		applogger.String("mode", a.cfg.Onboarding.Mode),
		applogger.Int("agents", len(plans)),
	)

	res, runErr := a.pipeline.Run(ctx, plans)
	// the report must reflect what was committed, even after an abort
	a.report.Invalidate(ctx)
	if res != nil {
		for _, out := range res.Agents {
			if out.Err != nil {
				a.l.Warn("agent incomplete",
					applogger.String("agent", out.Name),
					applogger.String("state", string(out.State)),
					applogger.Error(out.Err),
				)
			}
		}
	}
	if runErr != nil && (res == nil || errors.Is(ctx.Err(), context.Canceled)) {
		return runErr
	}

	lines, err := a.report.Lines(ctx)
	if err != nil {
		return errors.Join(runErr, fmt.Errorf("relational report: %w", err))
	}
	for _, line := range lines {
		a.l.Info(line)
	}
	return runErr
}
