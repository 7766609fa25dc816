package monitor

import (
	"fmt"
	"strings"

	dsvc "xchart/internal/domain/service"
)

const (
	ansiReset    = "\033[0m"
	ansiRed      = "\033[31m"
	ansiGreen    = "\033[32m"
	ansiYellow   = "\033[33m"
	ansiDim      = "\033[2m"
	ansiClearEOL = "\033[K"
)

func colorize(s, c string) string { return c + s + ansiReset }

type Formatter struct {
	// DeltaThreshold 涨跌幅差（百分点）超过该值时标色
	DeltaThreshold float64
}

func NewFormatter(threshold float64) *Formatter {
	return &Formatter{DeltaThreshold: threshold}
}

type RenderMode int

const (
	RenderLive RenderMode = iota
	RenderSnapshot
)

// Render 一行展示：[XCHART] BTC 1m  GATEIO C:... +1.50% fr:0.0100%  ||  UPBIT C:... -0.20%  Δ=+1.70%
func (f *Formatter) Render(st *State, header string, mode RenderMode) string {
	snap := st.Snapshot()
	exchanges := st.Exchanges()

	var sb strings.Builder
	if mode == RenderLive {
		sb.WriteString("\r")
	}

	sb.WriteString(colorize("[XCHART] ", ansiDim))
	if header != "" {
		sb.WriteString(header)
		sb.WriteString("  ")
	}

	for i, ex := range exchanges {
		if i > 0 {
			sb.WriteString(colorize("  ||  ", ansiDim))
		}
		v := snap[ex]

		closeStr := "--"
		if v.HasCandle {
			closeStr = formatPrice(v.Candle.Close)
		}
		col := ansiYellow
		switch v.Dir {
		case DirUp:
			col = ansiGreen
		case DirDown:
			col = ansiRed
		}

		sb.WriteString(ex.String())
		sb.WriteString(" ")
		sb.WriteString(colorize("C:"+closeStr, col))
		if p := v.Ticker.ChangePercent; p != nil {
			sb.WriteString(fmt.Sprintf(" %+.2f%%", *p))
		}
		if fr := v.Ticker.FundingRate; fr != nil {
			sb.WriteString(fmt.Sprintf(" fr:%.4f%%", *fr*100))
		}
	}

	// 两边报价币种不同（USDT / KRW），只比较涨跌幅
	if len(exchanges) == 2 {
		left, right := snap[exchanges[0]], snap[exchanges[1]]
		deltaStr := "Δ=--"
		dCol := ansiYellow
		if d, ok := dsvc.ChangeDelta(right.Ticker.ChangePercent, left.Ticker.ChangePercent); ok {
			deltaStr = fmt.Sprintf("Δ=%+.2f%%", d)
			switch dsvc.DeltaColor(d, f.DeltaThreshold) {
			case +1:
				dCol = ansiGreen
			case -1:
				dCol = ansiRed
			}
		}
		sb.WriteString("  ")
		sb.WriteString(colorize(deltaStr, dCol))
	}

	if mode == RenderLive {
		sb.WriteString(ansiClearEOL)
	}
	return sb.String()
}

func formatPrice(v float64) string {
	switch {
	case v >= 1000:
		return fmt.Sprintf("%.2f", v)
	case v >= 1:
		return fmt.Sprintf("%.4f", v)
	default:
		return fmt.Sprintf("%.6f", v)
	}
}
