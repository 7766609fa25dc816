package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"xchart/internal/application/usecase/compare"
	"xchart/internal/application/usecase/monitor"
	"xchart/internal/domain/market"
	"xchart/internal/infrastructure/config"
	"xchart/internal/infrastructure/container"
	"xchart/internal/infrastructure/logger"
	"xchart/internal/interfaces/console"
)

func main() {
	logger.Setup("info")

	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.Setup(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("container init failed")
	}
	defer c.Close()

	left, right := c.Left(), c.Right()
	pair := compare.NewPair(left, right)
	views := c.ViewStore()

	// 恢复上次的选择（两侧交易所一致时才恢复）
	if cfg.View.Restore {
		v, err := views.LoadView(ctx, cfg.View.Name)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("view", cfg.View.Name).Msg("load view failed")
		case v != nil && v.Left == left.Exchange() && v.Right == right.Exchange():
			if err := pair.OnSymbolChange(v.Symbol); err != nil {
				log.Warn().Err(err).Msg("restore symbol failed")
			}
			if v.Interval != "" {
				if err := pair.OnIntervalChange(v.Interval); err != nil {
					log.Warn().Err(err).Msg("restore interval failed")
				}
			}
			log.Info().Str("view", v.Name).Str("symbol", v.Symbol).Str("interval", v.Interval).Msg("view restored")
		}
	}

	saveView := func() {
		p := left.Params()
		err := views.SaveView(context.Background(), market.ViewState{
			Name:      cfg.View.Name,
			Left:      left.Exchange(),
			Right:     right.Exchange(),
			Symbol:    p.Symbol,
			Interval:  p.Interval,
			UpdatedAt: time.Now(),
		})
		if err != nil {
			log.Warn().Err(err).Msg("save view failed")
		}
	}

	left.Connect()
	right.Connect()

	go func() {
		quit, err := console.ReadCommands(os.Stdin, pair, saveView)
		if err != nil {
			log.Warn().Err(err).Msg("read commands failed")
		}
		if quit {
			stop()
		}
	}()

	svc := monitor.NewService(monitor.ServiceDeps{
		Sockets:        c.Sockets(),
		PrintEveryMin:  cfg.App.PrintEveryMin,
		DeltaThreshold: cfg.App.DeltaThreshold,
		Sink:           console.NewSink(),
		Repo:           c.EventRepo(),
	})

	log.Info().
		Str("config", *configPath).
		Str("left", left.Exchange().String()).
		Str("right", right.Exchange().String()).
		Str("symbol", left.Params().Symbol).
		Str("interval", left.Params().Interval).
		Msg("xchart started")

	if err := svc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("monitor service exited")
	}
	saveView()
}
