// Package sources defines the event-source adapter contract and the
// registry that maps identifier prefixes to adapters.
package sources

import (
	"context"
	"time"

	"github.com/chadn/cmf-server/internal/models/domain"
)

// Handler is the contract every source adapter implements.
type Handler interface {
	// Type returns immutable metadata for the adapter family.
	Type() domain.EventsSource
	// FetchEvents fetches and normalizes one batch. Params.ID is the
	// adapter-specific remainder after the "<prefix>:" is stripped.
	// Non-200 upstream conditions surface as *httperror.Error.
	FetchEvents(ctx context.Context, params domain.EventsSourceParams) (*domain.EventsSourceResponse, error)
}

// CacheTTLer is optionally implemented by adapters whose responses may be
// served from the shared response cache. TTL <= 0 means "do not cache".
type CacheTTLer interface {
	CacheTTL() time.Duration
}

// Factory constructs a Handler. Construction errors (missing API key and
// the like) are reported during Registry.Initialize.
type Factory func() (Handler, error)
