package factory

import (
	"errors"
	"sync"
	"testing"

	"xchart/internal/domain/market"
)

func TestResolve(t *testing.T) {
	for _, ex := range []market.Exchange{
		market.ExchangeGateIO,
		market.ExchangeUpbit,
		market.ExchangeBybit,
		market.ExchangeBinance,
	} {
		a, err := Resolve(ex)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", ex, err)
		}
		if a.Exchange() != ex {
			t.Fatalf("Resolve(%s) returned adapter for %s", ex, a.Exchange())
		}
	}
}

func TestResolveNormalizesIdentifier(t *testing.T) {
	a, err := Resolve(" gateio ")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if a.Exchange() != market.ExchangeGateIO {
		t.Fatalf("got %s", a.Exchange())
	}
}

func TestResolveUnsupported(t *testing.T) {
	_, err := Resolve("KRAKEN")
	if !errors.Is(err, market.ErrUnsupportedExchange) {
		t.Fatalf("expected ErrUnsupportedExchange, got %v", err)
	}
}

func TestResolveReturnsFreshAdapter(t *testing.T) {
	a1, _ := Resolve(market.ExchangeGateIO)
	a2, _ := Resolve(market.ExchangeGateIO)
	if a1 == a2 {
		t.Fatal("expected distinct adapter instances")
	}
}

func TestResolveConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, ex := range Supported() {
				if _, err := Resolve(ex); err != nil {
					t.Errorf("Resolve(%s): %v", ex, err)
				}
			}
		}()
	}
	wg.Wait()
}

func TestSupported(t *testing.T) {
	got := Supported()
	want := []market.Exchange{"BINANCE", "BYBIT", "GATEIO", "UPBIT"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
