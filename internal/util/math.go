package util

import "math"

// NormalizeAngle wraps an angle in radians into (-pi, pi].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// AngleDiff returns the shortest signed difference b-a in radians.
func AngleDiff(a, b float64) float64 {
	return NormalizeAngle(b - a)
}

// LerpAngle interpolates between two angles along the shortest arc.
func LerpAngle(a, b, t float64) float64 {
	return NormalizeAngle(a + AngleDiff(a, b)*t)
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Damp moves current toward target with frame-rate independent exponential
// smoothing. lambda is the responsiveness constant per second.
func Damp(current, target, lambda, dt float64) float64 {
	return Lerp(current, target, 1-math.Exp(-lambda*dt))
}

// EMA is an exponential moving average smoother. Alpha in (0,1]; higher
// values track the input more closely.
type EMA struct {
	Alpha  float64
	value  float64
	primed bool
}

// Update folds a sample into the average and returns the smoothed value.
func (e *EMA) Update(sample float64) float64 {
	if !e.primed {
		e.value = sample
		e.primed = true
		return e.value
	}
	e.value = e.Alpha*sample + (1-e.Alpha)*e.value
	return e.value
}

// Value returns the current smoothed value.
func (e *EMA) Value() float64 {
	return e.value
}

// Reset clears the smoother so the next sample is taken as-is.
func (e *EMA) Reset() {
	e.primed = false
	e.value = 0
}
