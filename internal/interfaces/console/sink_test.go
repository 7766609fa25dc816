package console

import (
	"bytes"
	"testing"
	"time"
)

func TestSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf)

	_ = s.WriteLive("\rBTC 1")
	_ = s.WriteSnapshot(time.Date(2025, 7, 10, 14, 15, 29, 0, time.UTC), "BTC 2")
	_ = s.NewLine()

	want := "\rBTC 1\n2025-07-10 14:15:29 BTC 2\n\n\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}
