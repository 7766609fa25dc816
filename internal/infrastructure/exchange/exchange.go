package exchange

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"xchart/internal/domain/market"
)

// Adapter 交易所协议适配器：规范模型 <-> 交易所 websocket 帧
// 实现必须是纯函数，不持有网络或定时器状态
type Adapter interface {
	Exchange() market.Exchange

	// Endpoint 默认的 websocket 地址（可被配置覆盖）
	Endpoint() string

	// NativeSymbol 币种 -> 交易所合约代码，幂等 (BTC -> BTC_USDT, BTC_USDT -> BTC_USDT)
	NativeSymbol(symbol string) string

	// NativeInterval 规范粒度 -> 交易所粒度，幂等 (1h -> 60 on bybit)
	NativeInterval(interval string) string

	// BuildSubscribeRequest returns a JSON-serializable subscribe frame.
	// Missing params yield market.ErrInvalidParams.
	BuildSubscribeRequest(ch market.Channel, p market.SubscriptionParams) (any, error)

	// ParseInboundFrame returns (nil, nil) for frames without user-visible state
	// (acks, pongs, unknown channels) and an error only for malformed or rejected frames.
	ParseInboundFrame(raw []byte) (market.Event, error)
}

// Unsubscriber is implemented by exchanges that can drop a single subscription
// on a live socket. Without it a parameter change means reconnecting.
type Unsubscriber interface {
	BuildUnsubscribeRequest(ch market.Channel, p market.SubscriptionParams) (any, error)
}

// BatchSubscriber 一帧订阅全部 channel（Upbit 每次订阅都会覆盖上一次）
type BatchSubscriber interface {
	BuildBatchSubscribeRequest(chs []market.Channel, p market.SubscriptionParams) (any, error)
}

// Heartbeater 应用层心跳帧（除 websocket ping 之外交易所要求的保活消息）
type Heartbeater interface {
	Heartbeat() []byte
}

// Options 构造 adapter 时的可选参数
type Options struct {
	// Now 用于需要请求时间戳的交易所 (gate.io "time" 字段)
	Now func() time.Time
}

// Option mutates Options.
type Option func(*Options)

// WithClock fixes the clock used for request timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Options) { o.Now = now }
}

// BuildOptions applies opts over the defaults.
func BuildOptions(opts ...Option) Options {
	o := Options{Now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// BytesTrimSpace trims whitespace from byte slice
func BytesTrimSpace(b []byte) []byte {
	i := 0
	j := len(b) - 1
	for i <= j && (b[i] == ' ' || b[i] == '\n' || b[i] == '\r' || b[i] == '\t') {
		i++
	}
	for j >= i && (b[j] == ' ' || b[j] == '\n' || b[j] == '\r' || b[j] == '\t') {
		j--
	}
	if i > j {
		return []byte{}
	}
	return b[i : j+1]
}

// UnmarshalList decodes a payload that may be a JSON array or a single object.
func UnmarshalList[T any](b []byte, out *[]T) error {
	b = BytesTrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*out = nil
		return nil
	}
	switch b[0] {
	case '[':
		return json.Unmarshal(b, out)
	case '{':
		var one T
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		*out = []T{one}
		return nil
	default:
		return fmt.Errorf("unexpected data json: %s", string(b))
	}
}
