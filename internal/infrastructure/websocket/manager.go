package websocket

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"xchart/internal/domain/market"
	"xchart/internal/infrastructure/exchange"
)

const (
	DefaultReconnectDelay    = 3 * time.Second
	DefaultHeartbeatInterval = 20 * time.Second
)

// Config 一个 market socket 的构造参数
type Config struct {
	Adapter exchange.Adapter
	Params  market.SubscriptionParams

	// Channels 默认 ticker + kline
	Channels []market.Channel

	// URL 覆盖 adapter 的默认地址
	URL string

	// ReconnectDelay 非主动断开后的固定重连间隔，不设上限次数
	ReconnectDelay time.Duration

	// HeartbeatInterval 应用层心跳间隔，负数表示关闭
	HeartbeatInterval time.Duration

	Dialer Dialer
}

// Manager owns exactly one socket for one (exchange, symbol, interval) and fans
// canonical events out to registered listeners.
//
// All state lives behind mu. Listeners run without mu held, so they may call
// RemoveMessageListener, SetSymbol, SetInterval or Disconnect on the same manager.
type Manager struct {
	adapter   exchange.Adapter
	url       string
	channels  []market.Channel
	dialer    Dialer
	heartbeat time.Duration
	listeners listenerRegistry

	mu     sync.Mutex
	state  State
	params market.SubscriptionParams
	// gen 每次建连/断开/拆除都会递增，旧连接的读协程和定时器据此失效
	gen        uint64
	conn       Conn
	connDone   chan struct{}
	timer      *time.Timer
	cancelDial context.CancelFunc
	policy     backoff.BackOff
}

// NewManager validates cfg and returns an idle manager. Missing params are
// reported as market.ErrInvalidParams.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Adapter == nil {
		return nil, fmt.Errorf("%w: nil adapter", market.ErrUnsupportedExchange)
	}
	channels := cfg.Channels
	if len(channels) == 0 {
		channels = []market.Channel{market.ChannelTicker, market.ChannelKline}
	}
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		url = cfg.Adapter.Endpoint()
	}
	delay := cfg.ReconnectDelay
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	heartbeat := cfg.HeartbeatInterval
	if heartbeat == 0 {
		heartbeat = DefaultHeartbeatInterval
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = NewGorillaDialer()
	}

	m := &Manager{
		adapter:   cfg.Adapter,
		url:       url,
		channels:  append([]market.Channel(nil), channels...),
		dialer:    dialer,
		heartbeat: heartbeat,
		state:     StateIdle,
		policy:    backoff.NewConstantBackOff(delay),
	}

	params := cfg.Params
	params.Exchange = cfg.Adapter.Exchange()
	params = params.Normalize()
	if err := m.validate(params); err != nil {
		return nil, err
	}
	m.params = params
	return m, nil
}

func (m *Manager) Exchange() market.Exchange { return m.adapter.Exchange() }

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Params() market.SubscriptionParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.params
}

// AddMessageListener registers fn and returns a handle for removal.
// Listeners are invoked in registration order.
func (m *Manager) AddMessageListener(fn market.Listener) market.ListenerID {
	if fn == nil {
		return 0
	}
	return m.listeners.add(fn)
}

// RemoveMessageListener 移除监听器；未知 id 直接忽略
func (m *Manager) RemoveMessageListener(id market.ListenerID) {
	m.listeners.remove(id)
}

// Connect starts dialing in the background. It is a no-op unless the manager
// is Idle or Closed.
func (m *Manager) Connect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateIdle && m.state != StateClosed {
		return
	}
	m.connectLocked()
}

// Disconnect closes the socket and cancels any pending reconnect. Called from
// a listener or on the reader goroutine, no further listener is invoked. Called
// from another goroutine, at most the one listener call whose check already
// passed may still run; later listeners and frames are not delivered.
// Calling it again is harmless.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateClosed {
		return
	}
	m.gen++
	m.state = StateClosed
	m.teardownLocked()
	m.policy.Reset()
	log.Info().Str("exchange", m.Exchange().String()).Str("symbol", m.params.Symbol).Msg("ws disconnected")
}

// SetSymbol switches the subscription to symbol. Invalid input is returned
// synchronously and leaves the current params untouched.
func (m *Manager) SetSymbol(symbol string) error {
	return m.update(func(p *market.SubscriptionParams) { p.Symbol = symbol })
}

// SetInterval switches the candle interval.
func (m *Manager) SetInterval(interval string) error {
	return m.update(func(p *market.SubscriptionParams) { p.Interval = interval })
}

func (m *Manager) update(change func(*market.SubscriptionParams)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.params
	change(&next)
	next = next.Normalize()
	if err := m.validate(next); err != nil {
		return err
	}
	if next == m.params {
		return nil
	}
	prev := m.params
	m.params = next

	// Connecting: dial 成功后读取最新 params；Reconnecting/Idle/Closed: 下次建连生效
	if m.state != StateLive {
		return nil
	}

	if u, ok := m.adapter.(exchange.Unsubscriber); ok {
		if err := m.resubscribeLocked(u, prev, next); err != nil {
			log.Warn().Str("exchange", m.Exchange().String()).Err(err).Msg("ws resubscribe failed, reconnecting")
			m.connectLocked()
		}
		return nil
	}

	// 不支持退订的交易所：拆掉旧连接重新建连
	m.connectLocked()
	return nil
}

// validate 构建一遍订阅请求，配置错误在这里同步返回
func (m *Manager) validate(p market.SubscriptionParams) error {
	for _, ch := range m.channels {
		if _, err := m.adapter.BuildSubscribeRequest(ch, p); err != nil {
			return err
		}
	}
	return nil
}

// resubscribeLocked 在同一连接上先退订旧参数再订阅新参数，只处理受影响的 channel
func (m *Manager) resubscribeLocked(u exchange.Unsubscriber, prev, next market.SubscriptionParams) error {
	for _, ch := range m.channels {
		if !affected(ch, prev, next) {
			continue
		}
		unsub, err := u.BuildUnsubscribeRequest(ch, prev)
		if err != nil {
			return err
		}
		if err := m.writeLocked(unsub); err != nil {
			return err
		}
		sub, err := m.adapter.BuildSubscribeRequest(ch, next)
		if err != nil {
			return err
		}
		if err := m.writeLocked(sub); err != nil {
			return err
		}
	}
	return nil
}

func affected(ch market.Channel, prev, next market.SubscriptionParams) bool {
	if ch == market.ChannelKline {
		return prev.Symbol != next.Symbol || prev.Interval != next.Interval
	}
	return prev.Symbol != next.Symbol
}

func (m *Manager) connectLocked() {
	m.gen++
	m.teardownLocked()
	m.state = StateConnecting

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelDial = cancel
	go m.dial(ctx, m.gen)
}

// teardownLocked 停止定时器、取消进行中的拨号、关闭当前连接
func (m *Manager) teardownLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.cancelDial != nil {
		m.cancelDial()
		m.cancelDial = nil
	}
	if m.conn != nil {
		close(m.connDone)
		_ = m.conn.Close()
		m.conn = nil
		m.connDone = nil
	}
}

func (m *Manager) scheduleReconnectLocked() {
	m.gen++
	m.teardownLocked()
	m.state = StateReconnecting

	gen := m.gen
	delay := m.policy.NextBackOff()
	log.Warn().Str("exchange", m.Exchange().String()).Dur("delay", delay).Msg("ws reconnecting")
	m.timer = time.AfterFunc(delay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if gen != m.gen || m.state != StateReconnecting {
			return
		}
		m.connectLocked()
	})
}

func (m *Manager) dial(ctx context.Context, gen uint64) {
	log.Info().Str("exchange", m.Exchange().String()).Str("url", m.url).Msg("ws connecting")
	conn, err := m.dialer.Dial(ctx, m.url)

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen || m.state != StateConnecting {
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		log.Error().Str("exchange", m.Exchange().String()).Err(err).Msg("ws dial failed")
		m.scheduleReconnectLocked()
		return
	}

	m.cancelDial = nil
	m.conn = conn
	m.connDone = make(chan struct{})
	if err := m.subscribeLocked(); err != nil {
		log.Error().Str("exchange", m.Exchange().String()).Err(err).Msg("ws subscribe failed")
		m.scheduleReconnectLocked()
		return
	}

	m.state = StateLive
	m.policy.Reset()
	log.Info().
		Str("exchange", m.Exchange().String()).
		Str("symbol", m.params.Symbol).
		Str("interval", m.params.Interval).
		Msg("ws connected")

	go m.readLoop(gen, conn)
	if hb, ok := m.adapter.(exchange.Heartbeater); ok && m.heartbeat > 0 {
		go m.heartbeatLoop(conn, m.connDone, hb)
	}
}

func (m *Manager) subscribeLocked() error {
	if batch, ok := m.adapter.(exchange.BatchSubscriber); ok && len(m.channels) > 1 {
		req, err := batch.BuildBatchSubscribeRequest(m.channels, m.params)
		if err != nil {
			return err
		}
		return m.writeLocked(req)
	}
	for _, ch := range m.channels {
		req, err := m.adapter.BuildSubscribeRequest(ch, m.params)
		if err != nil {
			return err
		}
		if err := m.writeLocked(req); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) writeLocked(req any) error {
	if m.conn == nil {
		return errConnClosed
	}
	b, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return m.conn.WriteMessage(b)
}

func (m *Manager) readLoop(gen uint64, conn Conn) {
	for {
		raw, err := conn.ReadMessage()
		if err != nil {
			m.handleClose(gen, err)
			return
		}
		m.handleMessage(gen, raw)
	}
}

// handleClose 非 Disconnect 引起的关闭进入 Reconnecting
func (m *Manager) handleClose(gen uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || m.state == StateClosed {
		return
	}
	log.Warn().Str("exchange", m.Exchange().String()).Err(err).Msg("ws closed unexpectedly")
	m.scheduleReconnectLocked()
}

func (m *Manager) handleMessage(gen uint64, raw []byte) {
	ev, err := m.adapter.ParseInboundFrame(raw)
	if err != nil {
		log.Warn().Str("exchange", m.Exchange().String()).Err(err).Msg("drop inbound frame")
		return
	}
	if ev == nil {
		return
	}

	for _, l := range m.listeners.snapshot() {
		// 每次回调前重新检查：监听器可能已经 Disconnect / 切换参数 / 移除其他监听器
		if !m.deliverable(gen, ev) {
			return
		}
		if !m.listeners.has(l.id) {
			continue
		}
		m.invoke(l, ev)
	}
}

func (m *Manager) deliverable(gen uint64, ev market.Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || m.state == StateClosed {
		return false
	}
	return m.matchesLocked(ev)
}

// Matches reports whether ev belongs to the current subscription.
func (m *Manager) Matches(ev market.Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesLocked(ev)
}

// matchesLocked drops events for a symbol or interval that is no longer
// subscribed. They can still arrive between an unsubscribe and its ack.
func (m *Manager) matchesLocked(ev market.Event) bool {
	meta := ev.Origin()
	if meta.Instrument != "" && !strings.EqualFold(meta.Instrument, m.adapter.NativeSymbol(m.params.Symbol)) {
		return false
	}
	if c, ok := ev.(market.CandleEvent); ok && c.Interval != "" && c.Interval != m.adapter.NativeInterval(m.params.Interval) {
		return false
	}
	return true
}

func (m *Manager) invoke(l listenerEntry, ev market.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("exchange", m.Exchange().String()).
				Uint64("listener", uint64(l.id)).
				Interface("panic", r).
				Msg("listener panicked")
		}
	}()
	l.fn(ev)
}

func (m *Manager) heartbeatLoop(conn Conn, done <-chan struct{}, hb exchange.Heartbeater) {
	ticker := time.NewTicker(m.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteMessage(hb.Heartbeat()); err != nil {
				if !errors.Is(err, errConnClosed) {
					log.Debug().Str("exchange", m.Exchange().String()).Err(err).Msg("ws heartbeat failed")
				}
				return
			}
		}
	}
}
