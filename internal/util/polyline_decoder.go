package util

import "github.com/paulmach/orb"

// DecodePolyline converts an encoded polyline string to a slice of points
// Implementation based on Google's Encoded Polyline Algorithm Format
// Default precision is 1e-5 (the Google Maps standard)
func DecodePolyline(encoded string) []orb.Point {
	return DecodePolylineWithPrecision(encoded, 1e-5)
}

// DecodePolylineWithPrecision decodes a polyline with a custom precision factor
// For GraphHopper API, use 1e-6 precision (as they use a multiplier of 1,000,000)
func DecodePolylineWithPrecision(encoded string, precision float64) []orb.Point {
	var points []orb.Point
	index, lat, lng := 0, 0, 0

	for index < len(encoded) {
		// Extract latitude
		shift, result := 0, 0
		for {
			if index >= len(encoded) {
				return points
			}
			b := int(encoded[index]) - 63
			index++
			result |= (b & 0x1f) << shift
			shift += 5
			if b < 0x20 {
				break
			}
		}

		// Handle the sign bit for latitude
		if result&1 != 0 {
			lat -= result >> 1
		} else {
			lat += result >> 1
		}

		// Extract longitude
		shift, result = 0, 0
		for {
			if index >= len(encoded) {
				return points
			}
			b := int(encoded[index]) - 63
			index++
			result |= (b & 0x1f) << shift
			shift += 5
			if b < 0x20 {
				break
			}
		}

		// Handle the sign bit for longitude
		if result&1 != 0 {
			lng -= result >> 1
		} else {
			lng += result >> 1
		}

		// Convert to actual coordinates, orb order is (lng, lat)
		points = append(points, orb.Point{float64(lng) * precision, float64(lat) * precision})
	}

	return points
}
