package binance

import (
	"errors"
	"reflect"
	"testing"

	"github.com/goccy/go-json"

	"xchart/internal/domain/market"
)

func TestBuildSubscribeRequest(t *testing.T) {
	a := New()
	p := market.SubscriptionParams{Symbol: "BTC", Interval: "1m"}

	tests := []struct {
		ch   market.Channel
		want string
	}{
		{market.ChannelTicker, `{"method":"SUBSCRIBE","params":["btcusdt@ticker","btcusdt@markPrice@1s"],"id":1}`},
		{market.ChannelKline, `{"method":"SUBSCRIBE","params":["btcusdt@kline_1m"],"id":2}`},
	}
	for _, tt := range tests {
		req, err := a.BuildSubscribeRequest(tt.ch, p)
		if err != nil {
			t.Fatal(err)
		}
		b, _ := json.Marshal(req)
		if string(b) != tt.want {
			t.Errorf("%s:\n got %s\nwant %s", tt.ch, b, tt.want)
		}
		again, _ := a.BuildSubscribeRequest(tt.ch, p)
		if !reflect.DeepEqual(req, again) {
			t.Errorf("%s: not deterministic", tt.ch)
		}
	}
}

func TestBuildUnsubscribeRequest(t *testing.T) {
	req, err := New().BuildUnsubscribeRequest(market.ChannelKline, market.SubscriptionParams{Symbol: "ETH", Interval: "1h"})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := json.Marshal(req)
	if string(b) != `{"method":"UNSUBSCRIBE","params":["ethusdt@kline_1h"],"id":4}` {
		t.Errorf("got %s", b)
	}
}

func TestBuildSubscribeRequestInvalid(t *testing.T) {
	_, err := New().BuildSubscribeRequest(market.ChannelKline, market.SubscriptionParams{Interval: "1m"})
	if !errors.Is(err, market.ErrInvalidParams) {
		t.Fatalf("got %v", err)
	}
}

func TestParseTicker(t *testing.T) {
	raw := `{"e":"24hrTicker","E":123456789,"s":"BTCUSDT","p":"0.0015","P":"250.00","w":"0.0018","c":"0.0025","Q":"10","o":"0.0010","h":"0.0025","l":"0.0010","v":"10000","q":"18","O":0,"C":86400000,"F":0,"L":18150,"n":18151}`
	ev, err := New().ParseInboundFrame([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	tk, ok := ev.(market.TickerEvent)
	if !ok {
		t.Fatalf("expected TickerEvent, got %T", ev)
	}
	if tk.Instrument != "BTCUSDT" || tk.ChangePercent == nil || *tk.ChangePercent != 250 {
		t.Errorf("got %+v change=%v", tk.Meta, tk.ChangePercent)
	}
	if tk.MarkPrice != nil {
		t.Error("24hrTicker must not populate mark price")
	}
}

func TestParseMarkPrice(t *testing.T) {
	raw := `{"e":"markPriceUpdate","E":1562305380000,"s":"BTCUSDT","p":"11794.15000000","i":"11784.62659091","P":"11784.25641265","r":"0.00038167","T":1562306400000}`
	ev, err := New().ParseInboundFrame([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	tk := ev.(market.TickerEvent)
	if tk.MarkPrice == nil || *tk.MarkPrice != 11794.15 {
		t.Errorf("mark = %v", tk.MarkPrice)
	}
	if tk.IndexPrice == nil || *tk.IndexPrice != 11784.62659091 {
		t.Errorf("index = %v", tk.IndexPrice)
	}
	if tk.FundingRate == nil || *tk.FundingRate != 0.00038167 {
		t.Errorf("funding = %v", tk.FundingRate)
	}
	if tk.ChangePercent != nil {
		t.Error("markPriceUpdate must not populate change percent")
	}
}

func TestParseKline(t *testing.T) {
	raw := `{"e":"kline","E":1638747660000,"s":"BTCUSDT","k":{"t":1638747660000,"T":1638747719999,"s":"BTCUSDT","i":"1m","f":100,"L":200,"o":"0.0010","c":"0.0020","h":"0.0025","l":"0.0015","v":"1000","n":100,"x":false,"q":"1.0000","V":"500","Q":"0.500","B":"123456"}}`
	ev, err := New().ParseInboundFrame([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	want := market.CandleEvent{
		Meta:     market.Meta{Exchange: market.ExchangeBinance, Instrument: "BTCUSDT"},
		Interval: "1m",
		TimeMs:   1638747660000,
		Open:     0.001,
		High:     0.0025,
		Low:      0.0015,
		Close:    0.002,
		Volume:   1000,
	}
	if got, ok := ev.(market.CandleEvent); !ok || got != want {
		t.Errorf("got %#v\nwant %#v", ev, want)
	}
}

// e 和 E 只差大小写，字段顺序不同也不能串位
func TestParseEventTypeAndTimeKeys(t *testing.T) {
	frames := map[string]string{
		"ticker":    `{"E":1,"e":"24hrTicker","s":"BTCUSDT","P":"1.5"}`,
		"markPrice": `{"E":1,"e":"markPriceUpdate","s":"BTCUSDT","p":"100","i":"99","r":"0.0001","T":2}`,
		"kline":     `{"E":1,"e":"kline","s":"BTCUSDT","k":{"t":60000,"T":119999,"s":"BTCUSDT","i":"1m","o":"1","c":"2","h":"3","l":"0.5","L":9,"v":"10","V":"4"}}`,
	}
	for name, raw := range frames {
		t.Run(name, func(t *testing.T) {
			ev, err := New().ParseInboundFrame([]byte(raw))
			if err != nil {
				t.Fatal(err)
			}
			if ev == nil || ev.Origin().Instrument != "BTCUSDT" {
				t.Fatalf("event = %#v", ev)
			}
		})
	}
}

func TestParseCombinedStream(t *testing.T) {
	raw := `{"stream":"btcusdt@markPrice@1s","data":{"e":"markPriceUpdate","E":1,"s":"BTCUSDT","p":"100","i":"99","P":"99","r":"0.0001","T":2}}`
	ev, err := New().ParseInboundFrame([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ev.(market.TickerEvent); !ok {
		t.Fatalf("expected TickerEvent, got %T", ev)
	}
}

func TestParseAcks(t *testing.T) {
	for _, f := range []string{`{"result":null,"id":1}`, `{"e":"aggTrade","E":1,"s":"BTCUSDT"}`} {
		ev, err := New().ParseInboundFrame([]byte(f))
		if err != nil || ev != nil {
			t.Errorf("%s: ev=%v err=%v", f, ev, err)
		}
	}
	if _, err := New().ParseInboundFrame([]byte(`{"error":{"code":2,"msg":"Invalid request"},"id":1}`)); err == nil {
		t.Error("expected error for rejected request")
	}
}
