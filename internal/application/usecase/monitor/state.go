package monitor

import (
	"sync"

	"xchart/internal/domain/market"
)

type Dir int

const (
	DirSame Dir = 0
	DirUp   Dir = +1
	DirDown Dir = -1
)

// ExchangeView 某个交易所的最新状态（值拷贝，可在锁外读取）
type ExchangeView struct {
	Ticker    market.TickerEvent
	HasTicker bool

	Candle    market.CandleEvent
	HasCandle bool
	// Dir 最新收盘价相对上一次推送的方向
	Dir Dir
}

type State struct {
	mu sync.Mutex

	order []market.Exchange
	byEx  map[market.Exchange]*ExchangeView
}

func NewState(exchanges ...market.Exchange) *State {
	s := &State{byEx: make(map[market.Exchange]*ExchangeView, len(exchanges))}
	for _, ex := range exchanges {
		if _, dup := s.byEx[ex]; dup {
			continue
		}
		s.order = append(s.order, ex)
		s.byEx[ex] = &ExchangeView{}
	}
	return s
}

func (s *State) Exchanges() []market.Exchange {
	return s.order
}

// Apply 合并一条事件，返回展示内容是否变化
// ticker 的增量推送只覆盖非 nil 字段；position 事件不参与展示
func (s *State) Apply(ev market.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.byEx[ev.Origin().Exchange]
	if v == nil {
		return false
	}

	switch e := ev.(type) {
	case market.TickerEvent:
		changed := !v.HasTicker
		changed = merge(&v.Ticker.ChangePercent, e.ChangePercent) || changed
		changed = merge(&v.Ticker.FundingRate, e.FundingRate) || changed
		changed = merge(&v.Ticker.IndexPrice, e.IndexPrice) || changed
		changed = merge(&v.Ticker.MarkPrice, e.MarkPrice) || changed
		v.Ticker.Meta = e.Meta
		v.HasTicker = true
		return changed

	case market.CandleEvent:
		if v.HasCandle && v.Candle == e {
			return false
		}
		switch {
		case !v.HasCandle:
			v.Dir = DirSame
		case e.Close > v.Candle.Close:
			v.Dir = DirUp
		case e.Close < v.Candle.Close:
			v.Dir = DirDown
		default:
			v.Dir = DirSame
		}
		v.Candle = e
		v.HasCandle = true
		return true
	}
	return false
}

func merge(dst **float64, src *float64) bool {
	if src == nil {
		return false
	}
	if *dst != nil && **dst == *src {
		return false
	}
	v := *src
	*dst = &v
	return true
}

// Reset 切换 symbol / interval 后清空旧数据
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ex := range s.byEx {
		s.byEx[ex] = &ExchangeView{}
	}
}

func (s *State) Snapshot() map[market.Exchange]ExchangeView {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[market.Exchange]ExchangeView, len(s.byEx))
	for k, v := range s.byEx {
		out[k] = *v
	}
	return out
}
