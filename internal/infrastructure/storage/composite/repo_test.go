package composite

import (
	"context"
	"errors"
	"testing"

	"xchart/internal/domain/market"
	"xchart/internal/infrastructure/storage"
)

type failingStore struct{}

func (failingStore) SaveView(context.Context, market.ViewState) error { return errors.New("down") }
func (failingStore) LoadView(context.Context, string) (*market.ViewState, error) {
	return nil, errors.New("down")
}
func (failingStore) Close() error { return nil }

func TestCompositeFansOutAndFallsBack(t *testing.T) {
	mem := storage.NewMemoryViewStore()
	r := New(failingStore{}, nil, mem)
	ctx := context.Background()

	err := r.SaveView(ctx, market.ViewState{Name: "main", Symbol: "BTC", Interval: "1m"})
	if err == nil {
		t.Fatal("expected first error to be reported")
	}

	// the healthy store still received the write
	v, err := r.LoadView(ctx, "main")
	if err != nil || v == nil || v.Symbol != "BTC" {
		t.Fatalf("LoadView = %+v, %v", v, err)
	}
}

func TestCompositeLoadMissing(t *testing.T) {
	r := New(storage.NewMemoryViewStore())
	v, err := r.LoadView(context.Background(), "nope")
	if v != nil || err != nil {
		t.Fatalf("got %v %v", v, err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
}
