package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"xchart/internal/application/port"
	"xchart/internal/domain/market"
)

type Repo struct {
	rdb       *redis.Client
	prefix    string
	ttl       time.Duration
	keyLatest string // prefix + ":latest"
	eventChan string // prefix + ":events"
}

// Envelope 发布到 pubsub / 写入 hash 的统一格式
type Envelope struct {
	Kind       market.Kind     `json:"kind"`
	Exchange   market.Exchange `json:"exchange"`
	Instrument string          `json:"instrument"`
	Ts         int64           `json:"ts"`
	Event      market.Event    `json:"event"`
}

func New(rdb *redis.Client, prefix string, ttl time.Duration, eventChan string) *Repo {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "xchart"
	}
	if strings.TrimSpace(eventChan) == "" {
		eventChan = prefix + ":events"
	}
	return &Repo{
		rdb:       rdb,
		prefix:    prefix,
		ttl:       ttl,
		keyLatest: prefix + ":latest",
		eventChan: eventChan,
	}
}

// Encode returns the hash field and JSON payload for ev.
func Encode(ev market.Event, now time.Time) (field string, payload []byte, err error) {
	meta := ev.Origin()
	env := Envelope{
		Kind:       ev.Kind(),
		Exchange:   meta.Exchange,
		Instrument: meta.Instrument,
		Ts:         now.UnixMilli(),
		Event:      ev,
	}
	payload, err = json.Marshal(env)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s event: %w", ev.Kind(), err)
	}
	// Hash: field = "GATEIO:BTC_USDT:kline" -> json
	field = fmt.Sprintf("%s:%s:%s", meta.Exchange, meta.Instrument, ev.Kind())
	return field, payload, nil
}

// SaveLatest 覆盖该 (exchange, instrument, kind) 的最新事件并发布到 pubsub
func (r *Repo) SaveLatest(ctx context.Context, ev market.Event) error {
	field, b, err := Encode(ev, time.Now())
	if err != nil {
		return err
	}

	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, r.keyLatest, field, string(b))
	if r.ttl > 0 {
		pipe.Expire(ctx, r.keyLatest, r.ttl)
	}
	pipe.Publish(ctx, r.eventChan, string(b))
	_, err = pipe.Exec(ctx)
	return err
}

// Latest 读取某个 field 的最新事件（原始 JSON）
func (r *Repo) Latest(ctx context.Context, ex market.Exchange, instrument string, kind market.Kind) (string, error) {
	field := fmt.Sprintf("%s:%s:%s", ex, instrument, kind)
	s, err := r.rdb.HGet(ctx, r.keyLatest, field).Result()
	if err == redis.Nil {
		return "", nil
	}
	return s, err
}

// Close 客户端由 container 关闭
func (r *Repo) Close() error { return nil }

var _ port.EventRepository = (*Repo)(nil)
