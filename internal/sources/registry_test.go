package sources

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chadn/cmf-server/internal/httperror"
	"github.com/chadn/cmf-server/internal/models/domain"
)

type stubHandler struct {
	prefix     string
	name       string
	lastParams domain.EventsSourceParams
}

func (s *stubHandler) Type() domain.EventsSource {
	return domain.EventsSource{Prefix: s.prefix, Name: s.name}
}

func (s *stubHandler) FetchEvents(_ context.Context, params domain.EventsSourceParams) (*domain.EventsSourceResponse, error) {
	s.lastParams = params
	return &domain.EventsSourceResponse{
		HTTPStatus: http.StatusOK,
		Events:     []domain.CmfEvent{},
		Source:     domain.SourceInfo{EventsSource: s.Type(), ID: params.ID},
	}, nil
}

func factoryOf(h Handler) Factory {
	return func() (Handler, error) { return h, nil }
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistryLookupSeparators(t *testing.T) {
	gc := &stubHandler{prefix: "gc", name: "Google Calendar"}
	sheet := &stubHandler{prefix: "sheet", name: "Google Sheets"}

	r := NewRegistry(testLogger())
	require.NoError(t, r.RegisterFactory(factoryOf(gc)))
	require.NoError(t, r.RegisterFactory(factoryOf(sheet)))
	r.Initialize()

	h, rest := r.Lookup("gc:calendar@example.com")
	require.NotNil(t, h)
	assert.Equal(t, "gc", h.Type().Prefix)
	assert.Equal(t, "calendar@example.com", rest)

	h, rest = r.Lookup("sheet.1AbCd")
	require.NotNil(t, h)
	assert.Equal(t, "sheet", h.Type().Prefix)
	assert.Equal(t, "1AbCd", rest)

	h, _ = r.Lookup("gc")
	assert.Nil(t, h, "bare prefix without separator must not match")

	h, _ = r.Lookup("unknown:id")
	assert.Nil(t, h)
}

func TestRegistryFetchDispatch(t *testing.T) {
	gc := &stubHandler{prefix: "gc", name: "Google Calendar"}

	r := NewRegistry(testLogger())
	require.NoError(t, r.RegisterFactory(factoryOf(gc)))
	r.Initialize()

	resp, err := r.Fetch(context.Background(), "gc:cal-1", domain.EventsSourceParams{
		TimeMin: "2026-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "cal-1", resp.Source.ID)
	assert.Equal(t, "cal-1", gc.lastParams.ID, "prefix must be stripped before dispatch")
	assert.Equal(t, "2026-01-01T00:00:00Z", gc.lastParams.TimeMin)
}

func TestRegistryFetchUnknownPrefix(t *testing.T) {
	r := NewRegistry(testLogger())
	require.NoError(t, r.RegisterFactory(factoryOf(&stubHandler{prefix: "gc"})))
	r.Initialize()

	_, err := r.Fetch(context.Background(), "nope:123", domain.EventsSourceParams{})
	require.Error(t, err)

	var httpErr *httperror.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Contains(t, httpErr.Reason, "nope:123")
}

func TestRegistryDuplicatePrefixFirstWins(t *testing.T) {
	first := &stubHandler{prefix: "gc", name: "first"}
	second := &stubHandler{prefix: "gc", name: "second"}

	r := NewRegistry(testLogger())
	require.NoError(t, r.RegisterFactory(factoryOf(first)))
	require.NoError(t, r.RegisterFactory(factoryOf(second)))
	r.Initialize()

	h, _ := r.Lookup("gc:x")
	require.NotNil(t, h)
	assert.Equal(t, "first", h.Type().Name)
}

func TestRegistryFailedFactorySkipped(t *testing.T) {
	ok := &stubHandler{prefix: "fb", name: "Facebook ICS"}

	r := NewRegistry(testLogger())
	require.NoError(t, r.RegisterFactory(func() (Handler, error) {
		return nil, errors.New("missing API key")
	}))
	require.NoError(t, r.RegisterFactory(factoryOf(ok)))
	r.Initialize()

	h, _ := r.Lookup("fb:https://example.com/feed.ics")
	assert.NotNil(t, h, "healthy handlers register even when a sibling factory fails")
}

func TestRegistryLateRegistrationRejected(t *testing.T) {
	r := NewRegistry(testLogger())
	r.Initialize()

	err := r.RegisterFactory(factoryOf(&stubHandler{prefix: "gc"}))
	assert.Error(t, err)

	h, _ := r.Lookup("gc:x")
	assert.Nil(t, h)
}

func TestRegistryInitializeIdempotent(t *testing.T) {
	gc := &stubHandler{prefix: "gc"}

	r := NewRegistry(testLogger())
	require.NoError(t, r.RegisterFactory(factoryOf(gc)))
	r.Initialize()
	r.Initialize()

	h, _ := r.Lookup("gc:x")
	assert.NotNil(t, h)
}
