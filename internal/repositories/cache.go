// Package repositories holds the Postgres-backed response cache that sits
// behind the shared HTTP client. Fetched bodies are keyed by URL; staleness
// is decided by the caller's TTL, not stored per row.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/chadn/cmf-server/internal/config"
	"github.com/chadn/cmf-server/internal/utils/logger/sl"
)

const schema = `
CREATE TABLE IF NOT EXISTS fetch_cache (
	url        TEXT PRIMARY KEY,
	body       BYTEA NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

type Repository struct {
	log *slog.Logger
	DB  *sqlx.DB
}

func New(log *slog.Logger, cfg *config.Config) (*Repository, error) {
	op := "repositories.New()"

	dsn := fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.Name, cfg.DB.User, cfg.DB.Password,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("repository connected", slog.String("op", op), slog.String("db", cfg.DB.Name))

	return &Repository{log: log, DB: db}, nil
}

type cacheRow struct {
	Body      []byte    `db:"body"`
	FetchedAt time.Time `db:"fetched_at"`
}

// Get returns the cached body for url if it is younger than maxAge.
func (r *Repository) Get(ctx context.Context, url string, maxAge time.Duration) ([]byte, bool) {
	op := "repositories.Repository.Get()"

	var row cacheRow
	query := `SELECT body, fetched_at FROM fetch_cache WHERE url = $1 LIMIT 1`

	err := r.DB.GetContext(ctx, &row, query, url)
	if err != nil {
		if err != sql.ErrNoRows {
			r.log.Warn("cache read failed", slog.String("op", op), sl.Err(err))
		}
		return nil, false
	}

	if time.Since(row.FetchedAt) > maxAge {
		return nil, false
	}
	return row.Body, true
}

// Put upserts the body for url with the current timestamp.
func (r *Repository) Put(ctx context.Context, url string, body []byte) error {
	op := "repositories.Repository.Put()"

	query := `INSERT INTO fetch_cache (url, body, fetched_at)
	          VALUES ($1, $2, CURRENT_TIMESTAMP)
	          ON CONFLICT (url) DO UPDATE SET body = $2, fetched_at = CURRENT_TIMESTAMP`

	if _, err := r.DB.ExecContext(ctx, query, url, body); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *Repository) Shutdown(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("force exit repository: %w", ctx.Err())
	default:
		return r.DB.Close()
	}
}
