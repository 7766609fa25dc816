package container

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"xchart/internal/application/port"
	"xchart/internal/application/usecase/monitor"
	"xchart/internal/domain/market"
	"xchart/internal/infrastructure/config"
	"xchart/internal/infrastructure/factory"
	"xchart/internal/infrastructure/storage"
	"xchart/internal/infrastructure/storage/composite"
	postgresrepo "xchart/internal/infrastructure/storage/postgres"
	redisrepo "xchart/internal/infrastructure/storage/redis"
	sqliterepo "xchart/internal/infrastructure/storage/sqlite"
	"xchart/internal/infrastructure/websocket"
)

// Container 包含所有应用依赖
type Container struct {
	cfg    *config.Config
	dialer websocket.Dialer

	redisRepo    *redisrepo.Repo
	sqliteRepo   *sqliterepo.Repo
	postgresRepo *postgresrepo.Repo
	views        port.ViewStore

	left, right *websocket.Manager

	closeOnce   sync.Once
	closerChain []func() error
}

type Option func(*Container)

// WithDialer replaces the gorilla dialer used by the market sockets.
func WithDialer(d websocket.Dialer) Option {
	return func(c *Container) { c.dialer = d }
}

// New 创建新的容器实例；socket 只创建不连接
func New(cfg *config.Config, opts ...Option) (*Container, error) {
	c := &Container{
		cfg:         cfg,
		closerChain: make([]func() error, 0),
	}
	for _, opt := range opts {
		opt(c)
	}

	// 初始化存储层
	if cfg.Storage.Enabled {
		if err := c.initStorage(); err != nil {
			// 清理已初始化的资源
			_ = c.Close()
			return nil, err
		}
	}
	c.initViewStore()

	if err := c.initSockets(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// initStorage 初始化存储层（Redis、SQLite、Postgres）
func (c *Container) initStorage() error {
	if c.cfg.Storage.Redis.Enabled {
		if err := c.initRedis(); err != nil {
			return fmt.Errorf("%w: redis: %w", ErrStorageInitFailed, err)
		}
	}
	if c.cfg.Storage.SQLite.Enabled {
		if err := c.initSQLite(); err != nil {
			return fmt.Errorf("%w: sqlite: %w", ErrStorageInitFailed, err)
		}
	}
	if c.cfg.Storage.Postgres.Enabled {
		if err := c.initPostgres(); err != nil {
			return fmt.Errorf("%w: postgres: %w", ErrStorageInitFailed, err)
		}
	}
	return nil
}

// initRedis 初始化 Redis 连接
func (c *Container) initRedis() error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.cfg.Storage.Redis.Addr,
		Password: c.cfg.Storage.Redis.Password,
		DB:       c.cfg.Storage.Redis.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := time.Duration(c.cfg.Storage.Redis.TTLSeconds) * time.Second
	c.redisRepo = redisrepo.New(rdb, c.cfg.Storage.Redis.Prefix, ttl, c.cfg.Storage.Redis.EventChannel)

	// 注册关闭回调
	c.closerChain = append(c.closerChain, func() error {
		log.Info().Msg("closing redis connection")
		return rdb.Close()
	})

	log.Info().
		Str("addr", c.cfg.Storage.Redis.Addr).
		Int("db", c.cfg.Storage.Redis.DB).
		Msg("redis initialized")
	return nil
}

// initSQLite 初始化 SQLite 数据库
func (c *Container) initSQLite() error {
	repo, err := sqliterepo.New(c.cfg.Storage.SQLite.Path)
	if err != nil {
		return err
	}
	c.sqliteRepo = repo

	c.closerChain = append(c.closerChain, func() error {
		log.Info().Msg("closing sqlite connection")
		return repo.Close()
	})

	log.Info().Str("path", c.cfg.Storage.SQLite.Path).Msg("sqlite initialized")
	return nil
}

func (c *Container) initPostgres() error {
	repo, err := postgresrepo.New(c.cfg.Storage.Postgres.DSN)
	if err != nil {
		return err
	}
	c.postgresRepo = repo

	c.closerChain = append(c.closerChain, func() error {
		log.Info().Msg("closing postgres connection")
		return repo.Close()
	})

	log.Info().Msg("postgres initialized")
	return nil
}

// initViewStore 有数据库时写入所有数据库，否则退化为内存
func (c *Container) initViewStore() {
	var stores []port.ViewStore
	if c.sqliteRepo != nil {
		stores = append(stores, c.sqliteRepo)
	}
	if c.postgresRepo != nil {
		stores = append(stores, c.postgresRepo)
	}
	switch len(stores) {
	case 0:
		c.views = storage.NewMemoryViewStore()
	case 1:
		c.views = stores[0]
	default:
		c.views = composite.New(stores...)
	}
}

func (c *Container) initSockets() error {
	var err error
	if c.left, err = c.newSocket(market.Exchange(c.cfg.View.Left)); err != nil {
		return fmt.Errorf("view.left: %w", err)
	}
	if c.right, err = c.newSocket(market.Exchange(c.cfg.View.Right)); err != nil {
		return fmt.Errorf("view.right: %w", err)
	}
	return nil
}

func (c *Container) newSocket(ex market.Exchange) (*websocket.Manager, error) {
	adapter, err := factory.Resolve(ex)
	if err != nil {
		return nil, err
	}
	m, err := websocket.NewManager(websocket.Config{
		Adapter: adapter,
		Params: market.SubscriptionParams{
			Exchange: ex,
			Symbol:   c.cfg.View.Symbol,
			Interval: c.cfg.View.Interval,
		},
		Channels:          c.cfg.Channels(),
		URL:               c.cfg.WsURL(ex),
		ReconnectDelay:    c.cfg.ReconnectDelay(),
		HeartbeatInterval: c.cfg.HeartbeatInterval(),
		Dialer:            c.dialer,
	})
	if err != nil {
		return nil, err
	}

	// 先关 socket 再关存储（LIFO）
	c.closerChain = append(c.closerChain, func() error {
		m.Disconnect()
		return nil
	})
	return m, nil
}

// Left / Right 对比视图两侧的 market socket
func (c *Container) Left() *websocket.Manager  { return c.left }
func (c *Container) Right() *websocket.Manager { return c.right }

// Sockets 按展示顺序返回
func (c *Container) Sockets() []port.MarketSocket {
	return []port.MarketSocket{c.left, c.right}
}

// EventRepo 未启用 redis 时返回 noop
func (c *Container) EventRepo() port.EventRepository {
	if c.redisRepo == nil {
		return monitor.NewNoopRepo()
	}
	return c.redisRepo
}

// ViewStore 获取视图存储
func (c *Container) ViewStore() port.ViewStore {
	return c.views
}

// SQLiteRepo 获取 SQLite 仓储
func (c *Container) SQLiteRepo() *sqliterepo.Repo {
	return c.sqliteRepo
}

// Close 关闭所有资源（按后进先出顺序）
func (c *Container) Close() error {
	var err error
	c.closeOnce.Do(func() {
		for i := len(c.closerChain) - 1; i >= 0; i-- {
			if e := c.closerChain[i](); e != nil {
				log.Error().Err(e).Msg("error closing resource")
				if err == nil {
					err = e
				}
			}
		}
		log.Info().Msg("container closed")
	})
	return err
}
