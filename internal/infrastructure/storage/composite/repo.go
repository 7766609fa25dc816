package composite

import (
	"context"
	"errors"

	"xchart/internal/application/port"
	"xchart/internal/domain/market"
)

// Repo 把 ViewStore 的写入扇出到多个后端，读取时取第一个有结果的后端
type Repo struct {
	stores []port.ViewStore
}

func New(stores ...port.ViewStore) *Repo {
	// nil stores are allowed; filter in constructor for safety
	out := make([]port.ViewStore, 0, len(stores))
	for _, s := range stores {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Repo{stores: out}
}

func (r *Repo) SaveView(ctx context.Context, v market.ViewState) error {
	var firstErr error
	for _, s := range r.stores {
		if err := s.SaveView(ctx, v); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) LoadView(ctx context.Context, name string) (*market.ViewState, error) {
	var firstErr error
	for _, s := range r.stores {
		v, err := s.LoadView(ctx, name)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if v != nil {
			return v, nil
		}
	}
	return nil, firstErr
}

func (r *Repo) Close() error {
	var errs []error
	for _, s := range r.stores {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

var _ port.ViewStore = (*Repo)(nil)
