package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"xchart/internal/application/port"
	"xchart/internal/domain/market"
)

type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

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
  updated_at INTEGER NOT NULL
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
VALUES(?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
  left_exchange=excluded.left_exchange,
  right_exchange=excluded.right_exchange,
  symbol=excluded.symbol,
  candle_interval=excluded.candle_interval,
  updated_at=excluded.updated_at
`, v.Name, string(v.Left), string(v.Right), v.Symbol, v.Interval, updated.UnixMilli())
	return err
}

func (r *Repo) LoadView(ctx context.Context, name string) (*market.ViewState, error) {
	var (
		left, right string
		updatedMs   int64
		v           = market.ViewState{Name: name}
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT left_exchange, right_exchange, symbol, candle_interval, updated_at FROM views WHERE name = ?`, name,
	).Scan(&left, &right, &v.Symbol, &v.Interval, &updatedMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	v.Left = market.Exchange(left)
	v.Right = market.Exchange(right)
	v.UpdatedAt = time.UnixMilli(updatedMs)
	return &v, nil
}

var _ port.ViewStore = (*Repo)(nil)
