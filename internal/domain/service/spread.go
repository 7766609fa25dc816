package service

// Delta 右减左（两边涨跌幅之差，单位 %）
func Delta(right, left float64) float64 {
	return right - left
}

// ChangeDelta returns right-left when both sides are known.
func ChangeDelta(right, left *float64) (float64, bool) {
	if right == nil || left == nil {
		return 0, false
	}
	return Delta(*right, *left), true
}

func DeltaColor(delta, threshold float64) int {
	// -1 red, 0 yellow, +1 green (pure decision)
	if delta >= threshold {
		return +1
	}
	if delta <= -threshold {
		return -1
	}
	return 0
}
