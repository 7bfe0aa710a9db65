package systems

import "math"

// clampFloat bounds v to [lo, hi].
func clampFloat(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}

func clamp01(v float32) float32 { return clampFloat(v, 0, 1) }

// normalizeAngle maps an angle in radians onto [-Pi, Pi].
func normalizeAngle(a float32) float32 {
	return float32(math.Remainder(float64(a), 2*math.Pi))
}

// modInt is the non-negative remainder of a / m, used for toroidal wrap.
func modInt(a, m int) int {
	return ((a % m) + m) % m
}

// uniform maps a [0,1) draw onto [lo, hi).
func uniform(u float64, lo, hi float32) float32 {
	return lo + float32(u)*(hi-lo)
}

func isFinite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
