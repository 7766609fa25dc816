package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"xchart/internal/application/port"
	"xchart/internal/domain/market"
)

type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS views (
  name TEXT PRIMARY KEY,
  left_exchange TEXT NOT NULL,
  right_exchange TEXT NOT NULL,
  symbol TEXT NOT NULL,
  candle_interval TEXT NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
);
`)
	return err
}

func (r *Repo) SaveView(ctx context.Context, v market.ViewState) error {
	updated := v.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO views(name, left_exchange, right_exchange, symbol, candle_interval, updated_at)
VALUES($1, $2, $3, $4, $5, $6)
ON CONFLICT(name) DO UPDATE SET
  left_exchange=EXCLUDED.left_exchange,
  right_exchange=EXCLUDED.right_exchange,
  symbol=EXCLUDED.symbol,
  candle_interval=EXCLUDED.candle_interval,
  updated_at=EXCLUDED.updated_at
`, v.Name, string(v.Left), string(v.Right), v.Symbol, v.Interval, updated.UTC())
	return err
}

func (r *Repo) LoadView(ctx context.Context, name string) (*market.ViewState, error) {
	var (
		left, right string
		v           = market.ViewState{Name: name}
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT left_exchange, right_exchange, symbol, candle_interval, updated_at FROM views WHERE name = $1`, name,
	).Scan(&left, &right, &v.Symbol, &v.Interval, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	v.Left = market.Exchange(left)
	v.Right = market.Exchange(right)
	return &v, nil
}

var _ port.ViewStore = (*Repo)(nil)
