package monitor

import (
	"context"
	"errors"

	"xchart/internal/application/port"
	"xchart/internal/domain/market"
)

// ErrNoSockets 没有可监听的行情连接
var ErrNoSockets = errors.New("no market sockets")

type EventRepository = port.EventRepository

type noopRepo struct{}

func NewNoopRepo() port.EventRepository { return &noopRepo{} }

func (n *noopRepo) SaveLatest(ctx context.Context, ev market.Event) error { return nil }

func (n *noopRepo) Close() error { return nil }
