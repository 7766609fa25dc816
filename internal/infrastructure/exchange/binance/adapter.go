package binance

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"xchart/internal/domain/market"
	"xchart/internal/infrastructure/exchange"
)

const DefaultURL = "wss://fstream.binance.com/ws"

var symbolConverter exchange.SymbolConverter = exchange.NewSuffixConverter("USDT")

// binance 的 interval 与规范写法一致 (1m, 1h, 1d, 1w, 1M)
var intervals = exchange.IntervalTable{}

// 请求 id 按 channel 固定，保证同参数生成同一请求
const (
	idTickerSub = iota + 1
	idKlineSub
	idTickerUnsub
	idKlineUnsub
)

// Adapter Binance USDⓈ-M futures market streams
type Adapter struct{}

func New(_ ...exchange.Option) *Adapter { return &Adapter{} }

func (a *Adapter) Exchange() market.Exchange { return market.ExchangeBinance }

func (a *Adapter) Endpoint() string { return DefaultURL }

func (a *Adapter) NativeSymbol(symbol string) string { return symbolConverter.Coin2Symbol(symbol) }

func (a *Adapter) NativeInterval(interval string) string { return intervals.Native(interval) }

type binanceReq struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int      `json:"id"`
}

func (a *Adapter) BuildSubscribeRequest(ch market.Channel, p market.SubscriptionParams) (any, error) {
	id := idTickerSub
	if ch == market.ChannelKline {
		id = idKlineSub
	}
	return a.build("SUBSCRIBE", id, ch, p)
}

func (a *Adapter) BuildUnsubscribeRequest(ch market.Channel, p market.SubscriptionParams) (any, error) {
	id := idTickerUnsub
	if ch == market.ChannelKline {
		id = idKlineUnsub
	}
	return a.build("UNSUBSCRIBE", id, ch, p)
}

func (a *Adapter) build(method string, id int, ch market.Channel, p market.SubscriptionParams) (any, error) {
	p = p.Normalize()
	if err := p.Require(ch); err != nil {
		return nil, err
	}
	return binanceReq{Method: method, Params: a.streams(ch, p), ID: id}, nil
}

func (a *Adapter) streams(ch market.Channel, p market.SubscriptionParams) []string {
	s := strings.ToLower(a.NativeSymbol(p.Symbol))
	if ch == market.ChannelKline {
		return []string{fmt.Sprintf("%s@kline_%s", s, a.NativeInterval(p.Interval))}
	}
	// 24h 涨跌幅来自 @ticker，标记/指数价格与资金费率来自 @markPrice
	return []string{s + "@ticker", s + "@markPrice@1s"}
}

// combined stream 外层包装 (/stream?streams=...)
type binanceCombined struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// JSON 字段名大小写敏感：e/E、t/T、l/L、v/V 含义不同。
// 每个消息结构体都要同时声明两种写法，否则大小写不敏感匹配会把 e 写进 E
type envelope struct {
	Event     string `json:"e"`
	EventTime int64  `json:"E"`

	// SUBSCRIBE 回复: {"result":null,"id":1}
	ID    *int64 `json:"id"`
	Error *struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	} `json:"error"`
}

type tickerMsg struct {
	Event              string          `json:"e"`
	EventTime          int64           `json:"E"`
	Symbol             string          `json:"s"`
	PriceChange        exchange.Number `json:"p"`
	PriceChangePercent exchange.Number `json:"P"`
}

type markPriceMsg struct {
	Event           string          `json:"e"`
	EventTime       int64           `json:"E"`
	Symbol          string          `json:"s"`
	MarkPrice       exchange.Number `json:"p"`
	SettlePrice     exchange.Number `json:"P"`
	IndexPrice      exchange.Number `json:"i"`
	FundingRate     exchange.Number `json:"r"`
	NextFundingTime int64           `json:"T"`
}

type klineMsg struct {
	Event     string       `json:"e"`
	EventTime int64        `json:"E"`
	Symbol    string       `json:"s"`
	Kline     binanceKline `json:"k"`
}

type binanceKline struct {
	Start          exchange.Number `json:"t"`
	CloseTime      int64           `json:"T"`
	Symbol         string          `json:"s"`
	Interval       string          `json:"i"`
	Open           exchange.Number `json:"o"`
	Close          exchange.Number `json:"c"`
	High           exchange.Number `json:"h"`
	Low            exchange.Number `json:"l"`
	LastTradeID    int64           `json:"L"`
	Volume         exchange.Number `json:"v"`
	TakerBuyVolume exchange.Number `json:"V"`
}

func (a *Adapter) ParseInboundFrame(raw []byte) (market.Event, error) {
	raw = exchange.BytesTrimSpace(raw)
	var combined binanceCombined
	if err := json.Unmarshal(raw, &combined); err != nil {
		return nil, fmt.Errorf("binance: %w", err)
	}
	if combined.Stream != "" && len(combined.Data) > 0 {
		raw = combined.Data
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("binance: %w", err)
	}
	if env.Error != nil {
		return nil, fmt.Errorf("binance: code=%d %s", env.Error.Code, env.Error.Msg)
	}
	if env.ID != nil && env.Event == "" {
		return nil, nil
	}

	switch env.Event {
	case "24hrTicker":
		var msg tickerMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("binance ticker: %w", err)
		}
		return market.TickerEvent{
			Meta:          meta(msg.Symbol),
			ChangePercent: msg.PriceChangePercent.Ptr(),
		}, nil

	case "markPriceUpdate":
		var msg markPriceMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("binance markPrice: %w", err)
		}
		return market.TickerEvent{
			Meta:        meta(msg.Symbol),
			FundingRate: msg.FundingRate.Ptr(),
			IndexPrice:  msg.IndexPrice.Ptr(),
			MarkPrice:   msg.MarkPrice.Ptr(),
		}, nil

	case "kline":
		var msg klineMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("binance kline: %w", err)
		}
		k := msg.Kline
		sym := k.Symbol
		if sym == "" {
			sym = msg.Symbol
		}
		return market.CandleEvent{
			Meta:     meta(sym),
			Interval: k.Interval,
			TimeMs:   exchange.EpochMillis(k.Start.Int64()),
			Open:     k.Open.Float(),
			High:     k.High.Float(),
			Low:      k.Low.Float(),
			Close:    k.Close.Float(),
			Volume:   k.Volume.Float(),
		}, nil
	}
	return nil, nil
}

func meta(symbol string) market.Meta {
	return market.Meta{Exchange: market.ExchangeBinance, Instrument: strings.ToUpper(symbol)}
}
