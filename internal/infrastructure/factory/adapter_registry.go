package factory

import (
	"sort"

	"xchart/internal/domain/market"
	"xchart/internal/infrastructure/exchange"
	"xchart/internal/infrastructure/exchange/binance"
	"xchart/internal/infrastructure/exchange/bybit"
	"xchart/internal/infrastructure/exchange/gateio"
	"xchart/internal/infrastructure/exchange/upbit"
)

// AdapterFactory 交易所协议适配器的构造函数
type AdapterFactory func(opts ...exchange.Option) exchange.Adapter

// adapters 交易所标识 -> 适配器构造函数
// 初始化后只读，并发调用 Resolve 不需要加锁
var adapters = map[market.Exchange]AdapterFactory{
	market.ExchangeGateIO:  func(opts ...exchange.Option) exchange.Adapter { return gateio.New(opts...) },
	market.ExchangeUpbit:   func(opts ...exchange.Option) exchange.Adapter { return upbit.New(opts...) },
	market.ExchangeBybit:   func(opts ...exchange.Option) exchange.Adapter { return bybit.New(opts...) },
	market.ExchangeBinance: func(opts ...exchange.Option) exchange.Adapter { return binance.New(opts...) },
}

// Resolve returns a fresh adapter for ex. Identifiers are matched after
// market.ParseExchange normalization, so "gateio" resolves like "GATEIO".
func Resolve(ex market.Exchange, opts ...exchange.Option) (exchange.Adapter, error) {
	f, ok := adapters[market.ParseExchange(string(ex))]
	if !ok {
		return nil, market.UnsupportedExchange(ex)
	}
	return f(opts...), nil
}

// Supported 已注册的交易所（排序后返回）
func Supported() []market.Exchange {
	out := make([]market.Exchange, 0, len(adapters))
	for ex := range adapters {
		out = append(out, ex)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
