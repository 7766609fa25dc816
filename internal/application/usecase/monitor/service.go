package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"xchart/internal/application/port"
	"xchart/internal/domain/market"
)

type ServiceDeps struct {
	// Sockets 按展示顺序排列（左、右）
	Sockets        []port.MarketSocket
	PrintEveryMin  int
	DeltaThreshold float64
	Sink           port.Sink
	Repo           port.EventRepository
}

type Service struct {
	deps ServiceDeps
	st   *State
	fmt  *Formatter
}

func NewService(deps ServiceDeps) *Service {
	exchanges := make([]market.Exchange, 0, len(deps.Sockets))
	for _, s := range deps.Sockets {
		exchanges = append(exchanges, s.Exchange())
	}
	if deps.Repo == nil {
		deps.Repo = NewNoopRepo()
	}
	if deps.PrintEveryMin <= 0 {
		deps.PrintEveryMin = 1
	}
	return &Service{
		deps: deps,
		st:   NewState(exchanges...),
		fmt:  NewFormatter(deps.DeltaThreshold),
	}
}

// Run 监听所有 socket 直到 ctx 结束；不负责 socket 的连接与断开
func (s *Service) Run(ctx context.Context) error {
	if len(s.deps.Sockets) == 0 {
		return ErrNoSockets
	}

	merged := make(chan market.Event, 1024)
	for _, sock := range s.deps.Sockets {
		ex := sock.Exchange()
		id := sock.AddMessageListener(func(ev market.Event) {
			// 不能阻塞 socket 的读协程，满了就丢弃（只关心最新状态）
			select {
			case merged <- ev:
			default:
				log.Debug().Str("exchange", ex.String()).Msg("monitor queue full, event dropped")
			}
		})
		defer sock.RemoveMessageListener(id)
		log.Info().Str("exchange", ex.String()).Msg("monitor attached")
	}

	snapTicker := time.NewTicker(time.Duration(s.deps.PrintEveryMin) * time.Minute)
	defer snapTicker.Stop()

	cur := s.deps.Sockets[0].Params()
	_ = s.deps.Sink.WriteLive(s.fmt.Render(s.st, header(cur), RenderLive))

	for {
		select {
		case <-ctx.Done():
			_ = s.deps.Sink.NewLine()
			return ctx.Err()

		case now := <-snapTicker.C:
			_ = s.deps.Sink.WriteSnapshot(now, s.fmt.Render(s.st, header(cur), RenderSnapshot))

		case ev := <-merged:
			if p := s.deps.Sockets[0].Params(); p.Symbol != cur.Symbol || p.Interval != cur.Interval {
				s.st.Reset()
				cur = p
				_ = s.deps.Sink.WriteLive(s.fmt.Render(s.st, header(cur), RenderLive))
			}
			// 切换前已经入队的旧 symbol / interval 事件
			if sock := s.bySocket(ev.Origin().Exchange); sock != nil && !sock.Matches(ev) {
				continue
			}
			if s.st.Apply(ev) {
				_ = s.deps.Sink.WriteLive(s.fmt.Render(s.st, header(cur), RenderLive))
			}
			if err := s.deps.Repo.SaveLatest(ctx, ev); err != nil {
				log.Debug().Err(err).Str("exchange", ev.Origin().Exchange.String()).Msg("save latest failed")
			}
		}
	}
}

func (s *Service) bySocket(ex market.Exchange) port.MarketSocket {
	for _, sock := range s.deps.Sockets {
		if sock.Exchange() == ex {
			return sock
		}
	}
	return nil
}

func header(p market.SubscriptionParams) string {
	if p.Interval == "" {
		return p.Symbol
	}
	return p.Symbol + " " + p.Interval
}
