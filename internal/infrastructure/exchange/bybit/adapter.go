package bybit

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"xchart/internal/domain/market"
	"xchart/internal/infrastructure/exchange"
)

const DefaultURL = "wss://stream.bybit.com/v5/public/linear"

var symbolConverter exchange.SymbolConverter = exchange.NewSuffixConverter("USDT")

// bybit kline interval: 1 3 5 15 30 60 120 240 360 720 D W M
var intervals = exchange.IntervalTable{
	"1m": "1", "3m": "3", "5m": "5", "15m": "15", "30m": "30",
	"1h": "60", "2h": "120", "4h": "240", "6h": "360", "12h": "720",
	"1d": "D", "1w": "W", "1M": "M",
}

// Adapter Bybit v5 public linear
type Adapter struct{}

func New(_ ...exchange.Option) *Adapter { return &Adapter{} }

func (a *Adapter) Exchange() market.Exchange { return market.ExchangeBybit }

func (a *Adapter) Endpoint() string { return DefaultURL }

func (a *Adapter) NativeSymbol(symbol string) string { return symbolConverter.Coin2Symbol(symbol) }

func (a *Adapter) NativeInterval(interval string) string { return intervals.Native(interval) }

type bybitSubReq struct {
	ReqID string   `json:"req_id,omitempty"`
	Op    string   `json:"op"`
	Args  []string `json:"args,omitempty"`
}

func (a *Adapter) BuildSubscribeRequest(ch market.Channel, p market.SubscriptionParams) (any, error) {
	return a.build("subscribe", ch, p)
}

func (a *Adapter) BuildUnsubscribeRequest(ch market.Channel, p market.SubscriptionParams) (any, error) {
	return a.build("unsubscribe", ch, p)
}

func (a *Adapter) build(op string, ch market.Channel, p market.SubscriptionParams) (any, error) {
	p = p.Normalize()
	if err := p.Require(ch); err != nil {
		return nil, err
	}
	topic := a.topic(ch, p)
	return bybitSubReq{ReqID: op + ":" + topic, Op: op, Args: []string{topic}}, nil
}

func (a *Adapter) topic(ch market.Channel, p market.SubscriptionParams) string {
	sym := a.NativeSymbol(p.Symbol)
	if ch == market.ChannelKline {
		return "kline." + a.NativeInterval(p.Interval) + "." + sym
	}
	return "tickers." + sym
}

// Heartbeat bybit 建议每 20s 发送一次 ping
func (a *Adapter) Heartbeat() []byte { return []byte(`{"op":"ping"}`) }

type bybitMsg struct {
	Topic string          `json:"topic"`
	Type  string          `json:"type"`
	Ts    int64           `json:"ts"`
	Data  json.RawMessage `json:"data"`

	Success *bool  `json:"success,omitempty"`
	RetMsg  string `json:"ret_msg,omitempty"`
	Op      string `json:"op,omitempty"`
}

type tickerItem struct {
	Symbol       string          `json:"symbol"`
	Price24hPcnt exchange.Number `json:"price24hPcnt"`
	FundingRate  exchange.Number `json:"fundingRate"`
	IndexPrice   exchange.Number `json:"indexPrice"`
	MarkPrice    exchange.Number `json:"markPrice"`
}

type klineItem struct {
	Start    exchange.Number `json:"start"`
	Interval string          `json:"interval"`
	Open     exchange.Number `json:"open"`
	Close    exchange.Number `json:"close"`
	High     exchange.Number `json:"high"`
	Low      exchange.Number `json:"low"`
	Volume   exchange.Number `json:"volume"`
}

type positionItem struct {
	Symbol string `json:"symbol"`
}

func (a *Adapter) ParseInboundFrame(raw []byte) (market.Event, error) {
	var msg bybitMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("bybit: %w", err)
	}

	// ack / pong
	if msg.Success != nil {
		if !*msg.Success {
			return nil, fmt.Errorf("bybit: %s not success: %s", msg.Op, msg.RetMsg)
		}
		return nil, nil
	}
	if msg.Op == "pong" || msg.Op == "ping" {
		return nil, nil
	}

	switch {
	case strings.HasPrefix(msg.Topic, "tickers."):
		var items []tickerItem
		if err := exchange.UnmarshalList(msg.Data, &items); err != nil {
			return nil, fmt.Errorf("bybit tickers: %w", err)
		}
		if len(items) == 0 {
			return nil, nil
		}
		d := items[0]
		sym := d.Symbol
		if sym == "" {
			sym = strings.TrimPrefix(msg.Topic, "tickers.")
		}
		// delta 推送只包含变化的字段，缺失字段保持 nil
		return market.TickerEvent{
			Meta:          market.Meta{Exchange: market.ExchangeBybit, Instrument: strings.ToUpper(sym)},
			ChangePercent: d.Price24hPcnt.Percent(),
			FundingRate:   d.FundingRate.Ptr(),
			IndexPrice:    d.IndexPrice.Ptr(),
			MarkPrice:     d.MarkPrice.Ptr(),
		}, nil

	case strings.HasPrefix(msg.Topic, "kline."):
		var items []klineItem
		if err := exchange.UnmarshalList(msg.Data, &items); err != nil {
			return nil, fmt.Errorf("bybit kline: %w", err)
		}
		if len(items) == 0 {
			return nil, nil
		}
		interval, sym := splitKlineTopic(msg.Topic)
		d := items[len(items)-1]
		if d.Interval != "" {
			interval = d.Interval
		}
		return market.CandleEvent{
			Meta:     market.Meta{Exchange: market.ExchangeBybit, Instrument: sym},
			Interval: interval,
			TimeMs:   exchange.EpochMillis(d.Start.Int64()),
			Open:     d.Open.Float(),
			High:     d.High.Float(),
			Low:      d.Low.Float(),
			Close:    d.Close.Float(),
			Volume:   d.Volume.Float(),
		}, nil

	case msg.Topic == "position" || strings.HasPrefix(msg.Topic, "position."):
		var items []positionItem
		_ = exchange.UnmarshalList(msg.Data, &items)
		sym := ""
		if len(items) > 0 {
			sym = strings.ToUpper(items[0].Symbol)
		}
		return market.PositionEvent{
			Meta: market.Meta{Exchange: market.ExchangeBybit, Instrument: sym},
			Raw:  append([]byte(nil), msg.Data...),
		}, nil
	}
	return nil, nil
}

// splitKlineTopic "kline.1.BTCUSDT" -> ("1", "BTCUSDT")
func splitKlineTopic(topic string) (interval, symbol string) {
	parts := strings.SplitN(topic, ".", 3)
	if len(parts) != 3 {
		return "", ""
	}
	return parts[1], strings.ToUpper(parts[2])
}
