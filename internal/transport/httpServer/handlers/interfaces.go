package handlers

import (
	"context"

	"github.com/chadn/cmf-server/internal/models/domain"
)

// EventsFetcher is what the handlers need from the source registry.
type EventsFetcher interface {
	Fetch(ctx context.Context, sourceID string, params domain.EventsSourceParams) (*domain.EventsSourceResponse, error)
}

// EventsResolver runs the post-fetch geocode + timezone pass.
type EventsResolver interface {
	ResolveResponse(ctx context.Context, resp *domain.EventsSourceResponse) error
}

// Warmer triggers an immediate warm-up of all configured sources.
type Warmer interface {
	RunAll()
}
