package compare

import (
	"errors"
	"fmt"
)

// Socket is the part of a market socket the pair drives.
type Socket interface {
	SetSymbol(symbol string) error
	SetInterval(interval string) error
}

// Pair 对比视图：左右两个交易所共用同一个 symbol / interval
// 不保存参数副本，也不负责连接的生命周期
type Pair struct {
	left, right Socket
}

func NewPair(left, right Socket) *Pair {
	return &Pair{left: left, right: right}
}

// OnSymbolChange 同时切换两边的 symbol；两边都会尝试，错误合并返回
func (p *Pair) OnSymbolChange(symbol string) error {
	return errors.Join(
		wrap("left", p.left.SetSymbol(symbol)),
		wrap("right", p.right.SetSymbol(symbol)),
	)
}

// OnIntervalChange 同时切换两边的 K 线粒度
func (p *Pair) OnIntervalChange(interval string) error {
	return errors.Join(
		wrap("left", p.left.SetInterval(interval)),
		wrap("right", p.right.SetInterval(interval)),
	)
}

func wrap(side string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", side, err)
}
