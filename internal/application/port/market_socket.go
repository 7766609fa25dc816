package port

import "xchart/internal/domain/market"

// MarketSocket 单个交易所的行情连接（由 websocket.Manager 实现）
type MarketSocket interface {
	Exchange() market.Exchange
	Params() market.SubscriptionParams
	// Matches 事件是否属于当前订阅（切换前排队的旧事件返回 false）
	Matches(ev market.Event) bool

	AddMessageListener(fn market.Listener) market.ListenerID
	RemoveMessageListener(id market.ListenerID)

	// SetSymbol / SetInterval 参数错误同步返回，连接错误在内部重连处理
	SetSymbol(symbol string) error
	SetInterval(interval string) error
}
