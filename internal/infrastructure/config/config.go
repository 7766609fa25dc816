package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"xchart/internal/domain/market"
)

type Config struct {
	App struct {
		PrintEveryMin  int     `toml:"print_every_min"`
		LogLevel       string  `toml:"log_level"`
		DeltaThreshold float64 `toml:"delta_threshold"`
	} `toml:"app"`

	// View 对比视图：左右两个交易所共用 symbol / interval
	View struct {
		Name     string   `toml:"name"`
		Left     string   `toml:"left"`
		Right    string   `toml:"right"`
		Symbol   string   `toml:"symbol"`
		Interval string   `toml:"interval"`
		Channels []string `toml:"channels"`
		// Restore 启动时用上次保存的 symbol / interval 覆盖配置
		Restore bool `toml:"restore"`
	} `toml:"view"`

	Socket struct {
		ReconnectDelayMs int `toml:"reconnect_delay_ms"`
		HeartbeatSec     int `toml:"heartbeat_sec"`
	} `toml:"socket"`

	// Exchanges 按交易所覆盖 websocket 地址，key 不区分大小写 (gateio / upbit / bybit / binance)
	Exchanges map[string]ExchangeConfig `toml:"exchanges"`

	Storage struct {
		Enabled bool `toml:"enabled"`

		Redis struct {
			Enabled      bool   `toml:"enabled"`
			Addr         string `toml:"addr"`
			Password     string `toml:"password"`
			DB           int    `toml:"db"`
			Prefix       string `toml:"prefix"`
			TTLSeconds   int    `toml:"ttl_seconds"`
			EventChannel string `toml:"event_channel"`
		} `toml:"redis"`

		SQLite struct {
			Enabled bool   `toml:"enabled"`
			Path    string `toml:"path"`
		} `toml:"sqlite"`

		Postgres struct {
			Enabled bool   `toml:"enabled"`
			DSN     string `toml:"dsn"`
		} `toml:"postgres"`
	} `toml:"storage"`

	channels []market.Channel
}

type ExchangeConfig struct {
	WsURL string `toml:"ws_url"`
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Parse 从字符串加载配置（测试用）
func Parse(data string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.PrintEveryMin <= 0 {
		cfg.App.PrintEveryMin = 5
	}
	if strings.TrimSpace(cfg.App.LogLevel) == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.App.DeltaThreshold <= 0 {
		cfg.App.DeltaThreshold = 0.5
	}
	if strings.TrimSpace(cfg.View.Name) == "" {
		cfg.View.Name = "default"
	}
	if len(cfg.View.Channels) == 0 {
		cfg.View.Channels = []string{string(market.ChannelTicker), string(market.ChannelKline)}
	}
	if cfg.Socket.ReconnectDelayMs <= 0 {
		cfg.Socket.ReconnectDelayMs = 3000
	}
	if cfg.Socket.HeartbeatSec == 0 {
		cfg.Socket.HeartbeatSec = 20
	}
	if cfg.Storage.Redis.Prefix == "" {
		cfg.Storage.Redis.Prefix = "xchart"
	}
	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = "data/xchart.db"
	}
}

func validate(cfg *Config) error {
	cfg.View.Left = string(market.ParseExchange(cfg.View.Left))
	cfg.View.Right = string(market.ParseExchange(cfg.View.Right))
	cfg.View.Symbol = strings.ToUpper(strings.TrimSpace(cfg.View.Symbol))
	cfg.View.Interval = strings.TrimSpace(cfg.View.Interval)

	if cfg.View.Left == "" || cfg.View.Right == "" {
		return errors.New("view.left and view.right are required")
	}
	if cfg.View.Left == cfg.View.Right {
		return fmt.Errorf("view.left and view.right are both %s", cfg.View.Left)
	}
	if cfg.View.Symbol == "" {
		return errors.New("view.symbol is empty")
	}

	cfg.channels = cfg.channels[:0]
	seen := map[market.Channel]struct{}{}
	for _, s := range cfg.View.Channels {
		ch, ok := market.ParseChannel(s)
		if !ok {
			return fmt.Errorf("view.channels: unknown channel %q", s)
		}
		if _, dup := seen[ch]; dup {
			continue
		}
		seen[ch] = struct{}{}
		cfg.channels = append(cfg.channels, ch)
	}
	if _, ok := seen[market.ChannelKline]; ok && cfg.View.Interval == "" {
		return errors.New("view.interval is required for kline channel")
	}

	if cfg.Storage.Redis.Enabled && strings.TrimSpace(cfg.Storage.Redis.Addr) == "" {
		return errors.New("storage.redis.addr empty but enabled")
	}
	if cfg.Storage.Postgres.Enabled && strings.TrimSpace(cfg.Storage.Postgres.DSN) == "" {
		return errors.New("storage.postgres.dsn empty but enabled")
	}
	return nil
}

// Channels 解析后的订阅 channel（去重，保持配置顺序）
func (c *Config) Channels() []market.Channel {
	return c.channels
}

// WsURL 返回配置覆盖的地址，未配置时为空（使用 adapter 默认地址）
func (c *Config) WsURL(ex market.Exchange) string {
	for name, ec := range c.Exchanges {
		if market.ParseExchange(name) == ex {
			return strings.TrimSpace(ec.WsURL)
		}
	}
	return ""
}

func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.Socket.ReconnectDelayMs) * time.Millisecond
}

// HeartbeatInterval 负数表示关闭应用层心跳
func (c *Config) HeartbeatInterval() time.Duration {
	if c.Socket.HeartbeatSec < 0 {
		return -1
	}
	return time.Duration(c.Socket.HeartbeatSec) * time.Second
}
