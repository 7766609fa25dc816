package market

import "github.com/goccy/go-json"

// Kind 事件类型判别字段
type Kind string

const (
	KindTicker   Kind = "ticker"
	KindKline    Kind = "kline"
	KindPosition Kind = "position"
)

// Meta identifies the stream an event came from. Instrument is the native
// instrument code as sent by the exchange (e.g. "BTC_USDT", "KRW-BTC").
type Meta struct {
	Exchange   Exchange `json:"exchange"`
	Instrument string   `json:"instrument"`
}

// Event 规范化后的行情事件
// 具体类型只有 TickerEvent / CandleEvent / PositionEvent 三种，
// 每种类型只携带自己的字段，不会残留其他类型的数据
type Event interface {
	Kind() Kind
	Origin() Meta
}

// TickerEvent 最新行情快照，nil 表示该交易所/该次推送未提供此字段
type TickerEvent struct {
	Meta
	ChangePercent *float64 `json:"changePercent"`
	FundingRate   *float64 `json:"fundingRate"`
	IndexPrice    *float64 `json:"indexPrice"`
	MarkPrice     *float64 `json:"markPrice"`
}

func (TickerEvent) Kind() Kind     { return KindTicker }
func (e TickerEvent) Origin() Meta { return e.Meta }

// CandleEvent K 线，TimeMs 为开盘时间 (UTC epoch ms)
type CandleEvent struct {
	Meta
	Interval string  `json:"interval"`
	TimeMs   int64   `json:"timeMs"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
}

func (CandleEvent) Kind() Kind     { return KindKline }
func (e CandleEvent) Origin() Meta { return e.Meta }

// PositionEvent is reserved for position streams and carries the exchange payload untouched.
type PositionEvent struct {
	Meta
	Raw json.RawMessage `json:"raw"`
}

func (PositionEvent) Kind() Kind     { return KindPosition }
func (e PositionEvent) Origin() Meta { return e.Meta }

// Float returns a pointer to v, for building TickerEvent literals.
func Float(v float64) *float64 { return &v }
