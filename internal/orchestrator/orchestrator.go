// Package orchestrator periodically warms up the configured event sources
// so interactive fetches hit a fresh response cache.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/chadn/cmf-server/internal/config"
	"github.com/chadn/cmf-server/internal/models/domain"
	"github.com/chadn/cmf-server/internal/utils/logger/sl"
)

// Fetcher dispatches a source identifier to its adapter.
type Fetcher interface {
	Fetch(ctx context.Context, sourceID string, params domain.EventsSourceParams) (*domain.EventsSourceResponse, error)
}

// Resolver runs the post-fetch geocode + timezone pass.
type Resolver interface {
	ResolveResponse(ctx context.Context, resp *domain.EventsSourceResponse) error
}

type Orchestrator struct {
	logger   *slog.Logger
	cfg      *config.Config
	fetcher  Fetcher
	resolver Resolver
	cron     *cron.Cron
}

func New(logger *slog.Logger, cfg *config.Config, fetcher Fetcher, resolver Resolver) *Orchestrator {
	op := "Orchestrator.New()"
	logger.With(slog.String("op", op)).Info("creating orchestrator")

	return &Orchestrator{
		logger:   logger,
		cfg:      cfg,
		fetcher:  fetcher,
		resolver: resolver,
		cron:     cron.New(),
	}
}

// Start registers the warm-up job and starts the scheduler. An empty
// schedule disables warm-up entirely.
func (o *Orchestrator) Start() error {
	op := "Orchestrator.Start()"
	log := o.logger.With(slog.String("op", op))

	schedule := o.cfg.Orchestrator.Schedule
	if schedule == "" || len(o.cfg.Orchestrator.SourceIDs) == 0 {
		log.Info("source warm-up disabled")
		return nil
	}

	if _, err := o.cron.AddFunc(schedule, o.RunAll); err != nil {
		return fmt.Errorf("%s: bad schedule %q: %w", op, schedule, err)
	}

	o.cron.Start()
	log.Info("orchestrator started",
		slog.String("schedule", schedule),
		slog.Int("sources", len(o.cfg.Orchestrator.SourceIDs)),
	)
	return nil
}

// RunAll fetches and resolves every configured source once. Failures are
// per-source; one broken upstream never blocks the others.
func (o *Orchestrator) RunAll() {
	op := "Orchestrator.RunAll()"
	runID := uuid.New()
	log := o.logger.With(slog.String("op", op), slog.String("runID", runID.String()))

	for _, sourceID := range o.cfg.Orchestrator.SourceIDs {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)

		resp, err := o.fetcher.Fetch(ctx, sourceID, domain.EventsSourceParams{})
		if err != nil {
			log.Error("warm-up fetch failed", slog.String("sourceID", sourceID), sl.Err(err))
			cancel()
			continue
		}

		if err := o.resolver.ResolveResponse(ctx, resp); err != nil {
			log.Error("warm-up resolve failed", slog.String("sourceID", sourceID), sl.Err(err))
			cancel()
			continue
		}
		cancel()

		log.Info("source warmed up",
			slog.String("sourceID", sourceID),
			slog.Int("events", resp.Source.TotalCount),
			slog.Int("unknownLocations", resp.Source.UnknownLocationsCount),
		)
	}
}

func (o *Orchestrator) Shutdown(ctx context.Context) error {
	stopped := o.cron.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("force exit orchestrator: %w", ctx.Err())
	case <-stopped.Done():
		return nil
	}
}
