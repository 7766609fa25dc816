package market

import "strings"

// Exchange 交易所标识（与前端 ExchangeType 保持一致）
type Exchange string

const (
	ExchangeGateIO  Exchange = "GATEIO"
	ExchangeUpbit   Exchange = "UPBIT"
	ExchangeBybit   Exchange = "BYBIT"
	ExchangeBinance Exchange = "BINANCE"
)

// ParseExchange 规范化交易所标识 (" gateio " -> "GATEIO")
// 不校验是否受支持，受支持与否由 adapter factory 决定
func ParseExchange(s string) Exchange {
	return Exchange(strings.ToUpper(strings.TrimSpace(s)))
}

func (e Exchange) String() string { return string(e) }

// Channel 订阅的数据类型
type Channel string

const (
	ChannelTicker Channel = "ticker"
	ChannelKline  Channel = "kline"
)

// ParseChannel returns the channel for s and whether it is known.
func ParseChannel(s string) (Channel, bool) {
	switch Channel(strings.ToLower(strings.TrimSpace(s))) {
	case ChannelTicker:
		return ChannelTicker, true
	case ChannelKline, "candle", "candlestick":
		return ChannelKline, true
	default:
		return "", false
	}
}

// SubscriptionParams 一个 market socket 的订阅参数
// Symbol 是与交易所无关的币种代码 (e.g. "BTC")，Interval 是交易所定义的 K 线粒度 (e.g. "1m")
type SubscriptionParams struct {
	Exchange Exchange
	Symbol   string
	Interval string
}

// Normalize trims the params and upper-cases the symbol. Interval case is kept
// because "1m" (minute) and "1M" (month) differ.
func (p SubscriptionParams) Normalize() SubscriptionParams {
	return SubscriptionParams{
		Exchange: ParseExchange(string(p.Exchange)),
		Symbol:   strings.ToUpper(strings.TrimSpace(p.Symbol)),
		Interval: strings.TrimSpace(p.Interval),
	}
}

// Require 校验某个 channel 所需的参数是否齐全
// ticker 需要 symbol；kline 需要 symbol 和 interval
func (p SubscriptionParams) Require(ch Channel) error {
	switch ch {
	case ChannelTicker:
		if p.Symbol == "" {
			return invalidParams(ch, "symbol is required")
		}
	case ChannelKline:
		if p.Symbol == "" || p.Interval == "" {
			return invalidParams(ch, "symbol and interval are required")
		}
	default:
		return invalidParams(ch, "unknown channel")
	}
	return nil
}
