package httputil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chadn/cmf-server/internal/httperror"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memCache struct {
	entries map[string][]byte
	puts    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (m *memCache) Get(_ context.Context, url string, _ time.Duration) ([]byte, bool) {
	body, ok := m.entries[url]
	return body, ok
}

func (m *memCache) Put(_ context.Context, url string, body []byte) error {
	m.puts++
	m.entries[url] = body
	return nil
}

func TestGetBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "hello")
	}))
	defer srv.Close()

	c := NewClient(testLogger(), nil)

	body, err := c.GetBody(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), body)
}

func TestGetBodyNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(testLogger(), nil)

	_, err := c.GetBody(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.StatusOf(err))
}

func TestGetBodyEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := NewClient(testLogger(), nil)

	_, err := c.GetBody(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response body")
}

func TestGetCached(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, "payload")
	}))
	defer srv.Close()

	cache := newMemCache()
	c := NewClient(testLogger(), cache)

	for i := 0; i < 3; i++ {
		body, err := c.GetCached(context.Background(), srv.URL, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), body)
	}

	assert.Equal(t, 1, hits, "repeat fetches must come from the cache")
	assert.Equal(t, 1, cache.puts)
}

func TestGetCachedTTLZeroBypasses(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, "payload")
	}))
	defer srv.Close()

	cache := newMemCache()
	c := NewClient(testLogger(), cache)

	_, err := c.GetCached(context.Background(), srv.URL, 0)
	require.NoError(t, err)
	_, err = c.GetCached(context.Background(), srv.URL, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, hits)
	assert.Equal(t, 0, cache.puts)
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name": "ok"}`)
	}))
	defer srv.Close()

	c := NewClient(testLogger(), nil)

	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, &out))
	assert.Equal(t, "ok", out.Name)

	var bad struct{ X int }
	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json")
	}))
	defer srv2.Close()
	assert.Error(t, c.GetJSON(context.Background(), srv2.URL, &bad))
}

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"q": "hi"}`, string(body))
		fmt.Fprint(w, `{"answer": 42}`)
	}))
	defer srv.Close()

	c := NewClient(testLogger(), nil)

	var out struct {
		Answer int `json:"answer"`
	}
	err := c.PostJSON(context.Background(), srv.URL, map[string]string{"q": "hi"}, &out)
	require.NoError(t, err)
	assert.Equal(t, 42, out.Answer)
}
