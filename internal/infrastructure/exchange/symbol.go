package exchange

import (
	"strings"
)

// SymbolConverter 符号转换接口
// 各交易所可以实现此接口来提供符号转换功能
type SymbolConverter interface {
	// Symbol2Coin 将交易对转换为币种
	// 例: BTCUSDT -> BTC, KRW-BTC -> BTC
	Symbol2Coin(symbol string) string

	// Coin2Symbol 将币种转换为交易对，已经是交易对时原样返回
	// 例: BTC -> BTCUSDT, BTCUSDT -> BTCUSDT
	Coin2Symbol(coin string) string
}

// SuffixConverter 后缀式交易对 (BTCUSDT, BTC_USDT)
type SuffixConverter struct {
	suffix string
}

// NewSuffixConverter 创建后缀式符号转换器
func NewSuffixConverter(suffix string) *SuffixConverter {
	return &SuffixConverter{suffix: strings.ToUpper(strings.TrimSpace(suffix))}
}

// Symbol2Coin 将交易对转换为币种
// 例: BTCUSDT -> BTC, BTC_USDT -> BTC
func (c *SuffixConverter) Symbol2Coin(symbol string) string {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if sym == "" || sym == c.suffix {
		return sym
	}
	return strings.TrimSuffix(sym, c.suffix)
}

// Coin2Symbol 将币种转换为交易对
// 例: BTC -> BTCUSDT, BTCUSDT -> BTCUSDT
func (c *SuffixConverter) Coin2Symbol(coin string) string {
	coin = strings.ToUpper(strings.TrimSpace(coin))
	if coin == "" {
		return ""
	}

	// 如果已经包含后缀，直接返回
	if strings.HasSuffix(coin, c.suffix) {
		return coin
	}
	// 否则添加后缀
	return coin + c.suffix
}

// PrefixConverter 前缀式交易对 (KRW-BTC)
type PrefixConverter struct {
	prefix string
}

// NewPrefixConverter 创建前缀式符号转换器
func NewPrefixConverter(prefix string) *PrefixConverter {
	return &PrefixConverter{prefix: strings.ToUpper(strings.TrimSpace(prefix))}
}

// Symbol2Coin 例: KRW-BTC -> BTC
func (c *PrefixConverter) Symbol2Coin(symbol string) string {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if sym == c.prefix {
		return sym
	}
	return strings.TrimPrefix(sym, c.prefix)
}

// Coin2Symbol 例: BTC -> KRW-BTC, KRW-BTC -> KRW-BTC
func (c *PrefixConverter) Coin2Symbol(coin string) string {
	coin = strings.ToUpper(strings.TrimSpace(coin))
	if coin == "" {
		return ""
	}
	if strings.HasPrefix(coin, c.prefix) {
		return coin
	}
	return c.prefix + coin
}

// IntervalTable maps canonical intervals to native ones. Unknown and already-native
// values pass through, which keeps the mapping idempotent.
type IntervalTable map[string]string

// Native returns the exchange-native spelling of interval.
func (t IntervalTable) Native(interval string) string {
	iv := strings.TrimSpace(interval)
	if native, ok := t[iv]; ok {
		return native
	}
	return iv
}
