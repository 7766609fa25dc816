package service

import "testing"

func TestChangeDelta(t *testing.T) {
	r, l := 2.5, 1.0
	d, ok := ChangeDelta(&r, &l)
	if !ok || d != 1.5 {
		t.Fatalf("got %v %v", d, ok)
	}
	if _, ok := ChangeDelta(nil, &l); ok {
		t.Fatal("expected !ok when one side is unknown")
	}
}

func TestDeltaColor(t *testing.T) {
	tests := []struct {
		delta, threshold float64
		want             int
	}{
		{1.0, 0.5, +1},
		{-1.0, 0.5, -1},
		{0.2, 0.5, 0},
		{0.5, 0.5, +1},
	}
	for _, tt := range tests {
		if got := DeltaColor(tt.delta, tt.threshold); got != tt.want {
			t.Errorf("DeltaColor(%v, %v) = %d, want %d", tt.delta, tt.threshold, got, tt.want)
		}
	}
}
