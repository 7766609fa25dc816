package upbit

import (
	"errors"
	"reflect"
	"testing"

	"github.com/goccy/go-json"

	"xchart/internal/domain/market"
)

func TestBuildSubscribeRequest(t *testing.T) {
	a := New()
	p := market.SubscriptionParams{Exchange: market.ExchangeUpbit, Symbol: "BTC", Interval: "1m"}

	req, err := a.BuildSubscribeRequest(market.ChannelKline, p)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := json.Marshal(req)
	want := `[{"ticket":"xchart-krw-btc"},{"type":"candle.1m","codes":["KRW-BTC"]},{"format":"JSON_LIST"}]`
	if string(b) != want {
		t.Errorf("got  %s\nwant %s", b, want)
	}

	again, _ := a.BuildSubscribeRequest(market.ChannelKline, p)
	if !reflect.DeepEqual(req, again) {
		t.Error("BuildSubscribeRequest is not deterministic")
	}
}

func TestBuildBatchSubscribeRequest(t *testing.T) {
	a := New()
	req, err := a.BuildBatchSubscribeRequest(
		[]market.Channel{market.ChannelTicker, market.ChannelKline},
		market.SubscriptionParams{Symbol: "eth", Interval: "1h"},
	)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := json.Marshal(req)
	want := `[{"ticket":"xchart-krw-eth"},{"type":"ticker","codes":["KRW-ETH"]},{"type":"candle.60m","codes":["KRW-ETH"]},{"format":"JSON_LIST"}]`
	if string(b) != want {
		t.Errorf("got  %s\nwant %s", b, want)
	}
}

func TestBuildSubscribeRequestInvalid(t *testing.T) {
	a := New()
	_, err := a.BuildSubscribeRequest(market.ChannelKline, market.SubscriptionParams{Symbol: "BTC"})
	if !errors.Is(err, market.ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
	_, err = a.BuildBatchSubscribeRequest(nil, market.SubscriptionParams{Symbol: "BTC"})
	if !errors.Is(err, market.ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams for empty channel list, got %v", err)
	}
}

func TestNativeSymbol(t *testing.T) {
	a := New()
	if got := a.NativeSymbol("btc"); got != "KRW-BTC" {
		t.Fatalf("got %q", got)
	}
	if got := a.NativeSymbol("KRW-BTC"); got != "KRW-BTC" {
		t.Fatalf("not idempotent: %q", got)
	}
}

// candle_date_time_utc 没有时区标记，必须按 UTC 解释而不是本机时区
func TestParseCandleTimeIsUTC(t *testing.T) {
	tests := []struct {
		stamp string
		want  int64
	}{
		{"2025-07-10T14:15:29", 1752156929000},
		{"2025-07-14T04:15:29", 1752466529000},
	}
	for _, tt := range tests {
		raw := `[{"type":"candle.1m","code":"KRW-BTC","candle_date_time_utc":"` + tt.stamp + `","candle_date_time_kst":"2025-07-10T23:15:29","opening_price":1000,"high_price":1100,"low_price":990,"trade_price":1050,"candle_acc_trade_volume":2.5,"stream_type":"REALTIME"}]`
		ev, err := New().ParseInboundFrame([]byte(raw))
		if err != nil {
			t.Fatal(err)
		}
		c, ok := ev.(market.CandleEvent)
		if !ok {
			t.Fatalf("expected CandleEvent, got %T", ev)
		}
		if c.TimeMs != tt.want {
			t.Errorf("%s: TimeMs = %d, want %d", tt.stamp, c.TimeMs, tt.want)
		}
		if c.Instrument != "KRW-BTC" || c.Interval != "1m" {
			t.Errorf("meta = %+v interval=%q", c.Meta, c.Interval)
		}
		if c.Open != 1000 || c.High != 1100 || c.Low != 990 || c.Close != 1050 || c.Volume != 2.5 {
			t.Errorf("ohlcv = %+v", c)
		}
	}
}

func TestParseTicker(t *testing.T) {
	raw := `{"type":"ticker","code":"KRW-BTC","trade_price":140000000,"signed_change_rate":-0.0125}`
	ev, err := New().ParseInboundFrame([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	tk, ok := ev.(market.TickerEvent)
	if !ok {
		t.Fatalf("expected TickerEvent, got %T", ev)
	}
	if tk.ChangePercent == nil || *tk.ChangePercent != -1.25 {
		t.Errorf("change = %v", tk.ChangePercent)
	}
	if tk.FundingRate != nil || tk.MarkPrice != nil || tk.IndexPrice != nil {
		t.Error("spot ticker should leave futures fields unset")
	}
}

func TestParseNonEvents(t *testing.T) {
	for _, f := range []string{`{"status":"UP"}`, `[]`, ``} {
		ev, err := New().ParseInboundFrame([]byte(f))
		if err != nil || ev != nil {
			t.Errorf("%q: ev=%v err=%v", f, ev, err)
		}
	}
}

func TestParseError(t *testing.T) {
	raw := `{"error":{"name":"INVALID_PARAM","message":"bad request"}}`
	if _, err := New().ParseInboundFrame([]byte(raw)); err == nil {
		t.Fatal("expected error")
	}
}
