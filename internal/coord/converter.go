// Package coord anchors a local engine-space coordinate frame to a geographic
// origin and converts between geographic coordinates, the normalized
// web-mercator unit square, and local meters.
//
// Units: everything leaving this package is meters. Projection-unit math
// stays fully inside.
package coord

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
)

// MaxLatitude is the web-mercator validity bound in degrees. Latitudes
// beyond it are clamped before projecting, not rejected.
const MaxLatitude = 85.051129

// earthCircumferenceMeters at the equator (WGS84)
const earthCircumferenceMeters = 40075016.686

// cacheKey is a rounded (lng, lat, elevation) tuple. 1e-7 degrees is about
// a centimeter, well under GPS accuracy.
type cacheKey struct {
	lngE7, latE7 int64
	elevMm       int64
}

func keyFor(geo orb.Point, elevation float64) cacheKey {
	return cacheKey{
		lngE7:  int64(math.Round(geo.Lon() * 1e7)),
		latE7:  int64(math.Round(geo.Lat() * 1e7)),
		elevMm: int64(math.Round(elevation * 1e3)),
	}
}

// Converter owns the origin, the scale factor and the memo cache for one map
// session. The cache is flushed on every origin or scale mutation; stale
// entries computed against an old origin would silently corrupt all
// subsequent local-space math.
//
// Longitude wraps at the antimeridian are not handled; a session spanning
// +/-180 produces wrong local offsets. Known limitation.
type Converter struct {
	mu sync.RWMutex

	origin          orb.Point
	originProjected [2]float64
	metersPerUnit   float64
	scale           float64

	// gen counts frame mutations; a conversion computed against an older
	// generation must not enter the cache after a flush
	gen   uint64
	cache map[cacheKey]mgl64.Vec3
}

// NewConverter creates a converter anchored at origin. metersPerUnit is how
// many meters one engine unit represents; 1 keeps engine units as meters.
func NewConverter(origin orb.Point, metersPerUnit float64) *Converter {
	if metersPerUnit <= 0 {
		metersPerUnit = 1
	}
	c := &Converter{
		metersPerUnit: metersPerUnit,
		cache:         make(map[cacheKey]mgl64.Vec3),
	}
	c.setOriginLocked(origin)
	return c
}

// ProjectedFrom is the deterministic forward web-mercator projection into
// the unit square. Latitude is clamped to the valid range first.
func (c *Converter) ProjectedFrom(geo orb.Point) [2]float64 {
	lat := clampLatitude(geo.Lat())
	latRad := lat * math.Pi / 180

	x := geo.Lon()/360 + 0.5
	y := (1 - math.Asinh(math.Tan(latRad))/math.Pi) / 2
	return [2]float64{x, y}
}

// GeoFrom is the exact inverse of ProjectedFrom.
func (c *Converter) GeoFrom(projected [2]float64) orb.Point {
	lng := (projected[0] - 0.5) * 360
	lat := math.Atan(math.Sinh(math.Pi*(1-2*projected[1]))) * 180 / math.Pi
	return orb.Point{lng, lat}
}

// ToLocal converts a geographic point to local engine space relative to the
// origin. X grows east, Z grows south (projection +y), Y is the elevation.
// Results are memoized; repeated queries for the same rounded coordinate
// skip the trig entirely.
func (c *Converter) ToLocal(geo orb.Point, elevation float64) mgl64.Vec3 {
	key := keyFor(geo, elevation)

	c.mu.RLock()
	if v, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		return v
	}
	origin := c.originProjected
	scale := c.scale
	gen := c.gen
	c.mu.RUnlock()

	p := c.ProjectedFrom(geo)
	v := mgl64.Vec3{
		(p[0] - origin[0]) * scale,
		elevation,
		(p[1] - origin[1]) * scale,
	}

	c.mu.Lock()
	if c.gen == gen {
		c.cache[key] = v
	}
	c.mu.Unlock()
	return v
}

// ToGeo converts a local engine-space position back to geographic
// coordinates. Inverse of ToLocal; the vertical axis is dropped.
func (c *Converter) ToGeo(local mgl64.Vec3) orb.Point {
	c.mu.RLock()
	origin := c.originProjected
	scale := c.scale
	c.mu.RUnlock()

	return c.GeoFrom([2]float64{
		origin[0] + local.X()/scale,
		origin[1] + local.Z()/scale,
	})
}

// Recenter replaces the origin and flushes the memo cache. Called at
// controlled checkpoints (map entry, long play sessions far from the
// initial origin) to keep floating-point precision bounded.
func (c *Converter) Recenter(newOrigin orb.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setOriginLocked(newOrigin)
}

// SetMetersPerUnit updates the engine scale and flushes the memo cache.
func (c *Converter) SetMetersPerUnit(m float64) {
	if m <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metersPerUnit = m
	c.scale = c.scaleLocked()
	c.gen++
	c.cache = make(map[cacheKey]mgl64.Vec3)
}

// Origin returns the current geographic origin.
func (c *Converter) Origin() orb.Point {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.origin
}

// MetersPerUnit returns the configured engine scale.
func (c *Converter) MetersPerUnit() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.metersPerUnit
}

// CacheSize reports the number of memoized conversions.
func (c *Converter) CacheSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

func (c *Converter) setOriginLocked(origin orb.Point) {
	origin = orb.Point{origin.Lon(), clampLatitude(origin.Lat())}
	c.origin = origin
	c.originProjected = c.ProjectedFrom(origin)
	c.scale = c.scaleLocked()
	c.gen++
	c.cache = make(map[cacheKey]mgl64.Vec3)
}

// scaleLocked returns engine units per projection unit. One projection unit
// spans the full world width, which at the origin latitude covers
// circumference * cos(lat) meters of ground.
func (c *Converter) scaleLocked() float64 {
	latRad := c.origin.Lat() * math.Pi / 180
	return earthCircumferenceMeters * math.Cos(latRad) / c.metersPerUnit
}

func clampLatitude(lat float64) float64 {
	if lat > MaxLatitude {
		return MaxLatitude
	}
	if lat < -MaxLatitude {
		return -MaxLatitude
	}
	return lat
}
