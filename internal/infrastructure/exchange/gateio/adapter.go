package gateio

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"xchart/internal/domain/market"
	"xchart/internal/infrastructure/exchange"
)

const (
	DefaultURL = "wss://fx-ws.gateio.ws/v4/ws/usdt"

	channelTickers      = "futures.tickers"
	channelCandlesticks = "futures.candlesticks"
	channelPositions    = "futures.positions"
	channelPing         = "futures.ping"
	channelPong         = "futures.pong"
)

// Gate.io 永续合约以 _USDT 结尾 (BTC -> BTC_USDT)
var symbolConverter exchange.SymbolConverter = exchange.NewSuffixConverter("_USDT")

// gate.io 周线写作 7d
var intervals = exchange.IntervalTable{"1w": "7d"}

// Adapter Gate.io USDT 永续 websocket v4
type Adapter struct {
	now func() time.Time
}

func New(opts ...exchange.Option) *Adapter {
	o := exchange.BuildOptions(opts...)
	return &Adapter{now: o.Now}
}

func (a *Adapter) Exchange() market.Exchange { return market.ExchangeGateIO }

func (a *Adapter) Endpoint() string { return DefaultURL }

func (a *Adapter) NativeSymbol(symbol string) string { return symbolConverter.Coin2Symbol(symbol) }

func (a *Adapter) NativeInterval(interval string) string { return intervals.Native(interval) }

type request struct {
	Time    int64    `json:"time"`
	Channel string   `json:"channel"`
	Event   string   `json:"event,omitempty"`
	Payload []string `json:"payload,omitempty"`
}

func (a *Adapter) BuildSubscribeRequest(ch market.Channel, p market.SubscriptionParams) (any, error) {
	return a.build("subscribe", ch, p)
}

func (a *Adapter) BuildUnsubscribeRequest(ch market.Channel, p market.SubscriptionParams) (any, error) {
	return a.build("unsubscribe", ch, p)
}

func (a *Adapter) build(event string, ch market.Channel, p market.SubscriptionParams) (any, error) {
	p = p.Normalize()
	if err := p.Require(ch); err != nil {
		return nil, err
	}
	req := request{Time: a.now().Unix(), Event: event}
	switch ch {
	case market.ChannelTicker:
		req.Channel = channelTickers
		req.Payload = []string{a.NativeSymbol(p.Symbol)}
	case market.ChannelKline:
		req.Channel = channelCandlesticks
		req.Payload = []string{a.NativeInterval(p.Interval), a.NativeSymbol(p.Symbol)}
	}
	return req, nil
}

// Heartbeat gate.io 应用层 ping，服务端回 futures.pong
func (a *Adapter) Heartbeat() []byte {
	b, _ := json.Marshal(request{Time: a.now().Unix(), Channel: channelPing})
	return b
}

type frame struct {
	Time    int64           `json:"time"`
	TimeMs  int64           `json:"time_ms"`
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Error   *frameError     `json:"error"`
	Result  json.RawMessage `json:"result"`
}

type frameError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type tickerData struct {
	Contract         string          `json:"contract"`
	Last             exchange.Number `json:"last"`
	ChangePercentage exchange.Number `json:"change_percentage"`
	FundingRate      exchange.Number `json:"funding_rate"`
	MarkPrice        exchange.Number `json:"mark_price"`
	IndexPrice       exchange.Number `json:"index_price"`
}

type candleData struct {
	T exchange.Number `json:"t"`
	V exchange.Number `json:"v"`
	C exchange.Number `json:"c"`
	H exchange.Number `json:"h"`
	L exchange.Number `json:"l"`
	O exchange.Number `json:"o"`
	N string          `json:"n"` // "1m_BTC_USDT"
}

type positionData struct {
	Contract string `json:"contract"`
}

func (a *Adapter) ParseInboundFrame(raw []byte) (market.Event, error) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("gateio: %w", err)
	}
	if f.Error != nil {
		return nil, fmt.Errorf("gateio: %s %s rejected: code=%d %s", f.Channel, f.Event, f.Error.Code, f.Error.Message)
	}
	// 订阅确认 / 心跳
	if f.Event == "subscribe" || f.Event == "unsubscribe" || f.Channel == channelPong || f.Channel == channelPing {
		return nil, nil
	}
	if f.Event != "update" && f.Event != "all" {
		return nil, nil
	}

	switch f.Channel {
	case channelTickers:
		var items []tickerData
		if err := exchange.UnmarshalList(f.Result, &items); err != nil {
			return nil, fmt.Errorf("gateio tickers: %w", err)
		}
		if len(items) == 0 {
			return nil, nil
		}
		d := items[0]
		return market.TickerEvent{
			Meta:          market.Meta{Exchange: market.ExchangeGateIO, Instrument: strings.ToUpper(d.Contract)},
			ChangePercent: d.ChangePercentage.Ptr(),
			FundingRate:   d.FundingRate.Ptr(),
			IndexPrice:    d.IndexPrice.Ptr(),
			MarkPrice:     d.MarkPrice.Ptr(),
		}, nil

	case channelCandlesticks:
		var items []candleData
		if err := exchange.UnmarshalList(f.Result, &items); err != nil {
			return nil, fmt.Errorf("gateio candlesticks: %w", err)
		}
		if len(items) == 0 {
			return nil, nil
		}
		d := items[len(items)-1]
		interval, contract := splitCandleName(d.N)
		return market.CandleEvent{
			Meta:     market.Meta{Exchange: market.ExchangeGateIO, Instrument: contract},
			Interval: interval,
			TimeMs:   exchange.EpochMillis(d.T.Int64()),
			Open:     d.O.Float(),
			High:     d.H.Float(),
			Low:      d.L.Float(),
			Close:    d.C.Float(),
			Volume:   d.V.Float(),
		}, nil

	case channelPositions:
		var items []positionData
		_ = exchange.UnmarshalList(f.Result, &items)
		contract := ""
		if len(items) > 0 {
			contract = strings.ToUpper(items[0].Contract)
		}
		return market.PositionEvent{
			Meta: market.Meta{Exchange: market.ExchangeGateIO, Instrument: contract},
			Raw:  append([]byte(nil), f.Result...),
		}, nil
	}
	return nil, nil
}

// splitCandleName "1m_BTC_USDT" -> ("1m", "BTC_USDT")
func splitCandleName(n string) (interval, contract string) {
	n = strings.TrimSpace(n)
	i := strings.IndexByte(n, '_')
	if i <= 0 {
		return "", strings.ToUpper(n)
	}
	return n[:i], strings.ToUpper(n[i+1:])
}
