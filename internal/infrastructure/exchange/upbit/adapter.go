package upbit

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"xchart/internal/domain/market"
	"xchart/internal/infrastructure/exchange"
)

const DefaultURL = "wss://api.upbit.com/websocket/v1"

// Upbit 现货 KRW 市场 (BTC -> KRW-BTC)
var symbolConverter exchange.SymbolConverter = exchange.NewPrefixConverter("KRW-")

// Upbit 分钟 K 线只有 1/3/5/10/15/30/60/240m
var intervals = exchange.IntervalTable{"1h": "60m", "4h": "240m"}

// Adapter Upbit websocket v1
// Upbit 没有退订指令，每次发送订阅都会整体替换上一次的订阅
type Adapter struct{}

func New(_ ...exchange.Option) *Adapter { return &Adapter{} }

func (a *Adapter) Exchange() market.Exchange { return market.ExchangeUpbit }

func (a *Adapter) Endpoint() string { return DefaultURL }

func (a *Adapter) NativeSymbol(symbol string) string { return symbolConverter.Coin2Symbol(symbol) }

func (a *Adapter) NativeInterval(interval string) string { return intervals.Native(interval) }

type ticketField struct {
	Ticket string `json:"ticket"`
}

type typeField struct {
	Type  string   `json:"type"`
	Codes []string `json:"codes"`
}

type formatField struct {
	Format string `json:"format"`
}

func (a *Adapter) BuildSubscribeRequest(ch market.Channel, p market.SubscriptionParams) (any, error) {
	return a.BuildBatchSubscribeRequest([]market.Channel{ch}, p)
}

// BuildBatchSubscribeRequest [{ticket}, {type, codes}..., {format}]
func (a *Adapter) BuildBatchSubscribeRequest(chs []market.Channel, p market.SubscriptionParams) (any, error) {
	p = p.Normalize()
	if len(chs) == 0 {
		return nil, fmt.Errorf("%w: no channels", market.ErrInvalidParams)
	}
	code := a.NativeSymbol(p.Symbol)
	frame := []any{ticketField{Ticket: ticket(code)}}
	for _, ch := range chs {
		if err := p.Require(ch); err != nil {
			return nil, err
		}
		switch ch {
		case market.ChannelTicker:
			frame = append(frame, typeField{Type: "ticker", Codes: []string{code}})
		case market.ChannelKline:
			frame = append(frame, typeField{Type: "candle." + a.NativeInterval(p.Interval), Codes: []string{code}})
		}
	}
	frame = append(frame, formatField{Format: "JSON_LIST"})
	return frame, nil
}

// ticket 只用于标识请求方，由合约代码派生，保证同参数生成同一请求
func ticket(code string) string {
	return "xchart-" + strings.ToLower(code)
}

// Heartbeat Upbit 接受纯文本 PING，返回 {"status":"UP"}
func (a *Adapter) Heartbeat() []byte { return []byte("PING") }

type message struct {
	Type   string `json:"type"`
	Code   string `json:"code"`
	Status string `json:"status"`

	// candle.*
	CandleDateTimeUTC    string          `json:"candle_date_time_utc"`
	OpeningPrice         exchange.Number `json:"opening_price"`
	HighPrice            exchange.Number `json:"high_price"`
	LowPrice             exchange.Number `json:"low_price"`
	TradePrice           exchange.Number `json:"trade_price"`
	CandleAccTradeVolume exchange.Number `json:"candle_acc_trade_volume"`

	// ticker
	SignedChangeRate exchange.Number `json:"signed_change_rate"`

	Error *struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *Adapter) ParseInboundFrame(raw []byte) (market.Event, error) {
	raw = exchange.BytesTrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	// JSON_LIST 格式为数组，DEFAULT 格式为对象
	var msgs []message
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &msgs); err != nil {
			return nil, fmt.Errorf("upbit: %w", err)
		}
	} else {
		var one message
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, fmt.Errorf("upbit: %w", err)
		}
		msgs = []message{one}
	}
	if len(msgs) == 0 {
		return nil, nil
	}

	m := msgs[len(msgs)-1]
	if m.Error != nil {
		return nil, fmt.Errorf("upbit: %s: %s", m.Error.Name, m.Error.Message)
	}
	meta := market.Meta{Exchange: market.ExchangeUpbit, Instrument: strings.ToUpper(m.Code)}

	switch {
	case strings.HasPrefix(m.Type, "candle."):
		ts, err := exchange.ParseUTCMillis(m.CandleDateTimeUTC)
		if err != nil {
			return nil, fmt.Errorf("upbit candle: %w", err)
		}
		return market.CandleEvent{
			Meta:     meta,
			Interval: strings.TrimPrefix(m.Type, "candle."),
			TimeMs:   ts,
			Open:     m.OpeningPrice.Float(),
			High:     m.HighPrice.Float(),
			Low:      m.LowPrice.Float(),
			Close:    m.TradePrice.Float(),
			Volume:   m.CandleAccTradeVolume.Float(),
		}, nil

	case m.Type == "ticker":
		// 现货没有资金费率/标记价格/指数价格
		return market.TickerEvent{
			Meta:          meta,
			ChangePercent: m.SignedChangeRate.Percent(),
		}, nil
	}

	// {"status":"UP"} 心跳回复等
	return nil, nil
}
