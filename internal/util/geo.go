package util

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

const earthRadiusMeters = 6371000.0

func MoveToward(startLat, startLng, endLat, endLng, distanceMeters float64) [2]float64 {
	// Convert degrees to S2 points
	startPoint := s2.PointFromLatLng(s2.LatLngFromDegrees(startLat, startLng))
	endPoint := s2.PointFromLatLng(s2.LatLngFromDegrees(endLat, endLng))

	// Calculate total distance between points
	totalDistanceAngle := s1.Angle(s2.ChordAngleBetweenPoints(startPoint, endPoint).Angle())
	totalDistanceMeters := totalDistanceAngle.Radians() * earthRadiusMeters

	// If requested distance exceeds total distance, return end point
	if distanceMeters >= totalDistanceMeters {
		return [2]float64{endLat, endLng}
	}

	// Calculate fraction of total distance
	fraction := distanceMeters / totalDistanceMeters

	// Interpolate on the great circle path
	newPoint := s2.Interpolate(fraction, startPoint, endPoint)
	newLatLng := s2.LatLngFromPoint(newPoint)

	return [2]float64{newLatLng.Lat.Degrees(), newLatLng.Lng.Degrees()}
}

func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	// Convert coordinates from degrees to S2 points
	point1 := s2.PointFromLatLng(s2.LatLngFromDegrees(lat1, lng1))
	point2 := s2.PointFromLatLng(s2.LatLngFromDegrees(lat2, lng2))

	// Calculate angle between points
	angle := s1.Angle(s2.ChordAngleBetweenPoints(point1, point2).Angle())

	// Convert angle to distance on Earth's surface
	return angle.Radians() * earthRadiusMeters
}

// GeoDistance is HaversineDistance over orb points ((lng,lat) order).
func GeoDistance(a, b orb.Point) float64 {
	return HaversineDistance(a.Lat(), a.Lon(), b.Lat(), b.Lon())
}

// Bearing returns the initial great-circle bearing from a to b in radians,
// 0 = north, increasing clockwise.
func Bearing(a, b orb.Point) float64 {
	lat1 := a.Lat() * math.Pi / 180
	lat2 := b.Lat() * math.Pi / 180
	dLng := (b.Lon() - a.Lon()) * math.Pi / 180

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	return math.Atan2(y, x)
}
