package util

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestHaversineDistance(t *testing.T) {
	// one degree of longitude on the equator
	got := HaversineDistance(0, 0, 0, 1)
	want := 2 * math.Pi * 6371000.0 / 360
	if math.Abs(got-want) > 1 {
		t.Fatalf("equator degree: got %f, want %f", got, want)
	}

	if d := HaversineDistance(37.5, 127.0, 37.5, 127.0); d != 0 {
		t.Fatalf("zero distance: got %f", d)
	}
}

func TestMoveToward(t *testing.T) {
	// overshooting the target returns the target
	p := MoveToward(0, 0, 0, 0.001, 1e6)
	if p[0] != 0 || p[1] != 0.001 {
		t.Fatalf("overshoot should clamp to end point, got %v", p)
	}

	// half the distance lands halfway, within GPS tolerance
	total := HaversineDistance(0, 0, 0, 0.001)
	p = MoveToward(0, 0, 0, 0.001, total/2)
	if math.Abs(p[1]-0.0005) > 1e-7 {
		t.Fatalf("halfway point: got lng %f", p[1])
	}
}

func TestBearing(t *testing.T) {
	cases := []struct {
		name string
		from orb.Point
		to   orb.Point
		want float64
	}{
		{"north", orb.Point{0, 0}, orb.Point{0, 1}, 0},
		{"east", orb.Point{0, 0}, orb.Point{1, 0}, math.Pi / 2},
		{"south", orb.Point{0, 1}, orb.Point{0, 0}, math.Pi},
		{"west", orb.Point{1, 0}, orb.Point{0, 0}, -math.Pi / 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Bearing(c.from, c.to)
			if math.Abs(NormalizeAngle(got-c.want)) > 1e-6 {
				t.Fatalf("got %f, want %f", got, c.want)
			}
		})
	}
}
