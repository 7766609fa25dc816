package console

import (
	"errors"
	"strings"
	"testing"
)

type stubPair struct {
	symbols, intervals []string
	err                error
}

func (p *stubPair) OnSymbolChange(s string) error {
	if p.err != nil {
		return p.err
	}
	p.symbols = append(p.symbols, s)
	return nil
}

func (p *stubPair) OnIntervalChange(s string) error {
	if p.err != nil {
		return p.err
	}
	p.intervals = append(p.intervals, s)
	return nil
}

func TestReadCommands(t *testing.T) {
	pair := &stubPair{}
	changes := 0
	in := "symbol ETH\n\n  interval 5m \nbogus\nsymbol\nquit\nsymbol SOL\n"

	quit, err := ReadCommands(strings.NewReader(in), pair, func() { changes++ })
	if err != nil || !quit {
		t.Fatalf("quit=%v err=%v", quit, err)
	}
	if len(pair.symbols) != 1 || pair.symbols[0] != "ETH" {
		t.Fatalf("symbols = %v", pair.symbols)
	}
	if len(pair.intervals) != 1 || pair.intervals[0] != "5m" {
		t.Fatalf("intervals = %v", pair.intervals)
	}
	if changes != 2 {
		t.Fatalf("changes = %d", changes)
	}
}

func TestReadCommandsEOFAndRejected(t *testing.T) {
	pair := &stubPair{err: errors.New("invalid")}
	changes := 0
	quit, err := ReadCommands(strings.NewReader("symbol ETH"), pair, func() { changes++ })
	if err != nil || quit {
		t.Fatalf("quit=%v err=%v", quit, err)
	}
	if changes != 0 {
		t.Fatal("rejected change must not trigger callback")
	}
}
