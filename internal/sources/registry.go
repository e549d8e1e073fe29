package sources

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/chadn/cmf-server/internal/httperror"
	"github.com/chadn/cmf-server/internal/models/domain"
	"github.com/chadn/cmf-server/internal/utils/logger/sl"
)

// Registry owns the prefix → adapter mapping and dispatches fetch calls.
// Lifecycle is register-then-freeze: all factories are queued before
// Initialize runs them; late registration is rejected.
type Registry struct {
	log *slog.Logger

	mu          sync.Mutex
	pending     []Factory
	handlers    []Handler
	initialized bool
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{log: log}
}

// RegisterFactory queues a factory for Initialize. Calling it after
// Initialize is a wiring bug and returns an error without queuing.
func (r *Registry) RegisterFactory(f Factory) error {
	op := "sources.Registry.RegisterFactory()"

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		err := fmt.Errorf("%s: registry already initialized", op)
		r.log.Warn("late factory registration rejected", slog.String("op", op))
		return err
	}
	r.pending = append(r.pending, f)
	return nil
}

// Initialize instantiates every queued factory. A factory that fails to
// construct is logged and skipped; a handler whose prefix duplicates an
// earlier one is logged and discarded (first registered wins). A second
// call is a no-op with a warning.
func (r *Registry) Initialize() {
	op := "sources.Registry.Initialize()"
	log := r.log.With(slog.String("op", op))

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		log.Warn("registry already initialized")
		return
	}
	r.initialized = true

	seen := make(map[string]bool)
	for _, factory := range r.pending {
		h, err := factory()
		if err != nil {
			log.Error("source handler construction failed", sl.Err(err))
			continue
		}

		prefix := h.Type().Prefix
		if seen[prefix] {
			log.Error("duplicate source prefix, handler discarded",
				slog.String("prefix", prefix),
				slog.String("name", h.Type().Name),
			)
			continue
		}
		seen[prefix] = true
		r.handlers = append(r.handlers, h)
	}
	r.pending = nil

	log.Info("source registry initialized", slog.Int("handlers", len(r.handlers)))
}

// Lookup matches sourceID against each handler's "<prefix>:" or "<prefix>."
// in registration order. The second return is the identifier with the
// prefix stripped; a nil handler means no match.
func (r *Registry) Lookup(sourceID string) (Handler, string) {
	r.mu.Lock()
	handlers := r.handlers
	r.mu.Unlock()

	for _, h := range handlers {
		prefix := h.Type().Prefix
		for _, sep := range []string{":", "."} {
			if strings.HasPrefix(sourceID, prefix+sep) {
				return h, strings.TrimPrefix(sourceID, prefix+sep)
			}
		}
	}
	return nil, ""
}

// Fetch resolves sourceID to its adapter and delegates. An unknown prefix
// is a client error carrying the offending identifier.
func (r *Registry) Fetch(ctx context.Context, sourceID string, params domain.EventsSourceParams) (*domain.EventsSourceResponse, error) {
	op := "sources.Registry.Fetch()"
	fetchID := uuid.New()
	log := r.log.With(
		slog.String("op", op),
		slog.String("fetchID", fetchID.String()),
		slog.String("sourceID", sourceID),
	)

	handler, strippedID := r.Lookup(sourceID)
	if handler == nil {
		return nil, httperror.BadRequest("no event source found for %q", sourceID)
	}

	params.ID = strippedID

	log = log.With(slog.String("prefix", handler.Type().Prefix))
	if c, ok := handler.(CacheTTLer); ok {
		log = log.With(slog.Duration("cacheTTL", c.CacheTTL()))
	}
	log.Debug("dispatching fetch")

	resp, err := handler.FetchEvents(ctx, params)
	if err != nil {
		log.Error("fetch failed", sl.Err(err))
		return nil, err
	}

	log.Info("fetch completed", slog.Int("events", len(resp.Events)))
	return resp, nil
}
