package console

import (
	"bufio"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
)

// PairController 由 compare.Pair 实现
type PairController interface {
	OnSymbolChange(symbol string) error
	OnIntervalChange(interval string) error
}

// ReadCommands 逐行读取命令直到 quit 或 EOF
//
//	symbol <S>    切换两边的 symbol
//	interval <I>  切换两边的 K 线粒度
//	quit          退出
//
// changed 在每次切换成功后调用。quit 为 true 表示用户要求退出。
func ReadCommands(r io.Reader, pair PairController, changed func()) (quit bool, err error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		cmd := strings.ToLower(fields[0])
		switch cmd {
		case "quit", "exit", "q":
			return true, nil

		case "symbol", "interval":
			if len(fields) != 2 {
				log.Warn().Str("cmd", cmd).Msg("usage: " + cmd + " <value>")
				continue
			}
			var err error
			if cmd == "symbol" {
				err = pair.OnSymbolChange(fields[1])
			} else {
				err = pair.OnIntervalChange(fields[1])
			}
			if err != nil {
				log.Warn().Err(err).Str("cmd", cmd).Str("value", fields[1]).Msg("change rejected")
				continue
			}
			log.Info().Str("cmd", cmd).Str("value", fields[1]).Msg("view changed")
			if changed != nil {
				changed()
			}

		default:
			log.Warn().Str("cmd", cmd).Msg("unknown command (symbol <S> | interval <I> | quit)")
		}
	}
	return false, sc.Err()
}
