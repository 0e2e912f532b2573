package model

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
)

// Route is a navigable path returned by the directions provider, converted
// once into local space. CurrentIndex advances monotonically as the tracked
// position is projected onto the path.
type Route struct {
	ID              string       `json:"id"`
	Profile         string       `json:"profile"`
	GeoPoints       []orb.Point  `json:"geo_points"`
	LocalPoints     []mgl64.Vec3 `json:"local_points"`
	DistanceMeters  float64      `json:"distance_meters"`
	DurationSeconds float64      `json:"duration_seconds"`
	CurrentIndex    int          `json:"current_index"`
}

// RouteProgress is the answer to "where am I on this path".
type RouteProgress struct {
	ClosestIndex int        `json:"closest_index"`
	ClosestPoint mgl64.Vec3 `json:"closest_point"`
	Percent      float64    `json:"percent"`
}
