package util

import "github.com/go-gl/mathgl/mgl64"

// PointSegmentClosest returns the closest point to p on the segment a-b and
// the parameter t in [0,1] of that point along the segment.
func PointSegmentClosest(p, a, b mgl64.Vec3) (mgl64.Vec3, float64) {
	ab := b.Sub(a)
	lenSq := ab.LenSqr()
	if lenSq == 0 {
		return a, 0
	}

	t := Clamp(p.Sub(a).Dot(ab)/lenSq, 0, 1)
	return a.Add(ab.Mul(t)), t
}
