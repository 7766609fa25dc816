package port

import (
	"context"

	"xchart/internal/domain/market"
)

// EventRepository keeps the latest canonical event per (exchange, instrument, kind)
// and forwards events to other consumers. It holds no history.
type EventRepository interface {
	SaveLatest(ctx context.Context, ev market.Event) error

	// Connection management
	Close() error
}

// ViewStore 记住对比视图最后选择的 symbol / interval
type ViewStore interface {
	SaveView(ctx context.Context, v market.ViewState) error
	// LoadView returns (nil, nil) when the view was never saved.
	LoadView(ctx context.Context, name string) (*market.ViewState, error)
	Close() error
}
