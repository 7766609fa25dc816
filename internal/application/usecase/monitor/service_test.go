package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"xchart/internal/application/port"
	"xchart/internal/domain/market"
)

type fakeSocket struct {
	mu        sync.Mutex
	ex        market.Exchange
	params    market.SubscriptionParams
	listeners map[market.ListenerID]market.Listener
	next      market.ListenerID
}

func newFakeSocket(ex market.Exchange) *fakeSocket {
	return &fakeSocket{
		ex:        ex,
		params:    market.SubscriptionParams{Exchange: ex, Symbol: "BTC", Interval: "1m"},
		listeners: make(map[market.ListenerID]market.Listener),
	}
}

func (f *fakeSocket) Exchange() market.Exchange { return f.ex }

func (f *fakeSocket) Params() market.SubscriptionParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.params
}

func (f *fakeSocket) Matches(ev market.Event) bool {
	return strings.Contains(ev.Origin().Instrument, f.Params().Symbol)
}

func (f *fakeSocket) AddMessageListener(fn market.Listener) market.ListenerID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.listeners[f.next] = fn
	return f.next
}

func (f *fakeSocket) RemoveMessageListener(id market.ListenerID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.listeners, id)
}

func (f *fakeSocket) SetSymbol(s string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params.Symbol = s
	return nil
}

func (f *fakeSocket) SetInterval(s string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params.Interval = s
	return nil
}

func (f *fakeSocket) emit(ev market.Event) {
	f.mu.Lock()
	ls := make([]market.Listener, 0, len(f.listeners))
	for _, l := range f.listeners {
		ls = append(ls, l)
	}
	f.mu.Unlock()
	for _, l := range ls {
		l(ev)
	}
}

func (f *fakeSocket) listenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

type memSink struct {
	mu    sync.Mutex
	lives []string
}

func (m *memSink) WriteLive(line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lives = append(m.lives, line)
	return nil
}

func (m *memSink) WriteSnapshot(ts time.Time, line string) error { return nil }
func (m *memSink) NewLine() error                                { return nil }

func (m *memSink) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.lives) == 0 {
		return ""
	}
	return m.lives[len(m.lives)-1]
}

type memRepo struct {
	mu    sync.Mutex
	saved []market.Event
}

func (r *memRepo) SaveLatest(ctx context.Context, ev market.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, ev)
	return nil
}

func (r *memRepo) Close() error { return nil }

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

func TestServiceRendersBothSides(t *testing.T) {
	left, right := newFakeSocket(market.ExchangeGateIO), newFakeSocket(market.ExchangeUpbit)
	sink, repo := &memSink{}, &memRepo{}
	svc := NewService(ServiceDeps{Sockets: []port.MarketSocket{left, right}, Sink: sink, Repo: repo, DeltaThreshold: 0.5})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for left.listenerCount() == 0 || right.listenerCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("service never attached")
		}
		time.Sleep(5 * time.Millisecond)
	}

	left.emit(market.TickerEvent{Meta: market.Meta{Exchange: market.ExchangeGateIO, Instrument: "BTC_USDT"}, ChangePercent: market.Float(1.5)})
	right.emit(market.TickerEvent{Meta: market.Meta{Exchange: market.ExchangeUpbit, Instrument: "KRW-BTC"}, ChangePercent: market.Float(-0.5)})

	for !strings.Contains(sink.last(), "Δ=-2.00%") || repo.count() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("last line = %q", sink.last())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v", err)
	}
	if left.listenerCount() != 0 || right.listenerCount() != 0 {
		t.Fatal("listeners not removed on exit")
	}
}

func TestServiceWithoutSockets(t *testing.T) {
	err := NewService(ServiceDeps{Sink: &memSink{}}).Run(context.Background())
	if !errors.Is(err, ErrNoSockets) {
		t.Fatalf("got %v", err)
	}
}

func (r *memRepo) instruments() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.saved))
	for _, ev := range r.saved {
		out = append(out, ev.Origin().Instrument)
	}
	return out
}

func (m *memSink) contains(sub string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.lives {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}

func TestServiceSkipsEventsQueuedBeforeSymbolChange(t *testing.T) {
	left, right := newFakeSocket(market.ExchangeGateIO), newFakeSocket(market.ExchangeUpbit)
	sink, repo := &memSink{}, &memRepo{}
	svc := NewService(ServiceDeps{Sockets: []port.MarketSocket{left, right}, Sink: sink, Repo: repo})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for left.listenerCount() == 0 || right.listenerCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("service never attached")
		}
		time.Sleep(5 * time.Millisecond)
	}

	_ = left.SetSymbol("ETH")
	_ = right.SetSymbol("ETH")
	// 旧 symbol 的事件在切换后才被消费
	left.emit(market.TickerEvent{Meta: market.Meta{Exchange: market.ExchangeGateIO, Instrument: "BTC_USDT"}, ChangePercent: market.Float(9)})
	left.emit(market.TickerEvent{Meta: market.Meta{Exchange: market.ExchangeGateIO, Instrument: "ETH_USDT"}, ChangePercent: market.Float(1)})

	for repo.count() < 1 {
		if time.Now().After(deadline) {
			t.Fatal("current-symbol event never saved")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := repo.instruments(); len(got) != 1 || got[0] != "ETH_USDT" {
		t.Fatalf("saved = %v", got)
	}
	if sink.contains("+9.00%") {
		t.Fatal("stale BTC value rendered")
	}
	if !strings.Contains(sink.last(), "ETH") || !strings.Contains(sink.last(), "+1.00%") {
		t.Fatalf("last line = %q", sink.last())
	}
}
