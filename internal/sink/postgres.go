// Package sink exports windowed aggregate snapshots to Postgres. The
// spinner core never reads these back; the sink is a one-way audit trail
// of what the rolling windows looked like over time.
package sink

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Snapshot is one aggregate reading at one point in time.
type Snapshot struct {
	Name    string
	Value   float64
	TakenAt time.Time
}

type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool, logger: logger}, nil
}

func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS aggregate_snapshots (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			taken_at TIMESTAMPTZ NOT NULL
		)`)
	return err
}

// Write inserts one snapshot, retrying transient failures with
// exponential backoff before giving up.
func (p *Postgres) Write(ctx context.Context, snap Snapshot) error {
	insert := func() error {
		_, err := p.pool.Exec(ctx,
			`INSERT INTO aggregate_snapshots (name, value, taken_at) VALUES ($1, $2, $3)`,
			snap.Name, snap.Value, snap.TakenAt)
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.Retry(insert, policy)
}

func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}
