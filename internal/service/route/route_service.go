package route

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"

	"worldlink/internal/config"
	"worldlink/internal/coord"
	"worldlink/internal/directions"
	"worldlink/internal/model"
	redis_client "worldlink/internal/redis"
	"worldlink/internal/util"
)

const routeCacheKey = "route"

// Directions is the slice of the directions client the service needs.
type Directions interface {
	Route(ctx context.Context, start, end orb.Point, profile string) (*directions.Result, error)
}

// RouteService requests routes from the external directions provider,
// places them into local space once, and answers progress queries against
// the active route.
//
// CurrentIndex is strictly monotonic: under forward travel it never
// regresses, so brief equidistance near a sharp turn cannot flicker the
// reported progress backward.
type RouteService struct {
	client    Directions
	converter *coord.Converter

	mu        sync.RWMutex
	active    *model.Route
	cumLength []float64
	total     float64

	// latest guards against a superseded request applying its result
	latest atomic.Uint64
}

var (
	routeServiceInstance *RouteService
	routeServiceOnce     sync.Once
)

// GetRouteService returns the singleton instance of RouteService.
func GetRouteService() *RouteService {
	routeServiceOnce.Do(func() {
		routeServiceInstance = &RouteService{}
	})
	return routeServiceInstance
}

// NewRouteService creates a service around a directions client and the map
// session's converter.
func NewRouteService(client Directions, converter *coord.Converter) *RouteService {
	return &RouteService{client: client, converter: converter}
}

// Configure wires the directions client and converter into the singleton.
func (s *RouteService) Configure(client Directions, converter *coord.Converter) {
	s.client = client
	s.converter = converter
}

// Request asks the provider for a route and installs it as the active one.
// A request superseded by a newer one discards its result. Provider errors
// and empty responses yield a nil route and no state change; the caller
// owns user-facing messaging and there is no retry here.
func (s *RouteService) Request(ctx context.Context, start, end orb.Point, profile string) (*model.Route, error) {
	token := s.latest.Add(1)

	result, err := s.fetch(ctx, start, end, profile)
	if err != nil {
		return nil, err
	}
	if len(result.Points) == 0 {
		return nil, directions.ErrNoRoute
	}

	if s.latest.Load() != token {
		// a newer request won the race; drop this result
		return nil, nil
	}

	r := &model.Route{
		ID:              util.ShortUUID(),
		Profile:         profile,
		GeoPoints:       result.Points,
		LocalPoints:     make([]mgl64.Vec3, len(result.Points)),
		DistanceMeters:  result.DistanceMeters,
		DurationSeconds: result.DurationSeconds,
	}
	// batch conversion: the route is static once loaded
	for i, gp := range result.Points {
		r.LocalPoints[i] = s.converter.ToLocal(gp, 0)
	}

	s.install(r)
	return r, nil
}

// fetch consults the Redis route cache before hitting the provider.
func (s *RouteService) fetch(ctx context.Context, start, end orb.Point, profile string) (*directions.Result, error) {
	key := fmt.Sprintf("%s:%s:%.5f,%.5f-%.5f,%.5f",
		routeCacheKey, profile, start.Lon(), start.Lat(), end.Lon(), end.Lat())

	cacheable := redis_client.GetClient() != nil
	if cacheable {
		if cached, err := redis_client.Get(key); err == nil && cached != "" {
			var result directions.Result
			if err := json.Unmarshal([]byte(cached), &result); err == nil {
				return &result, nil
			}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, config.DirectionsTimeout)
	defer cancel()

	result, err := s.client.Route(ctx, start, end, profile)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if data, err := json.Marshal(result); err == nil {
			if err := redis_client.Set(key, data, config.RouteCacheTTL); err != nil {
				log.Printf("Route cache write failed: %v", err)
			}
		}
	}
	return result, nil
}

// install makes r the active route and precomputes cumulative segment
// lengths for progress math.
func (s *RouteService) install(r *model.Route) {
	cum, total := cumulativeLengths(r.LocalPoints)

	s.mu.Lock()
	s.active = r
	s.cumLength = cum
	s.total = total
	s.mu.Unlock()
}

// Rebase re-converts the active route's geometry into the current
// coordinate frame. Called after the map session origin moves.
func (s *RouteService) Rebase() {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.active
	if r == nil {
		return
	}
	for i, gp := range r.GeoPoints {
		r.LocalPoints[i] = s.converter.ToLocal(gp, 0)
	}
	s.cumLength, s.total = cumulativeLengths(r.LocalPoints)
}

func cumulativeLengths(points []mgl64.Vec3) ([]float64, float64) {
	cum := make([]float64, len(points))
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += points[i].Sub(points[i-1]).Len()
		cum[i] = total
	}
	return cum, total
}

// Active returns the current route, or nil.
func (s *RouteService) Active() *model.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Clear drops the active route. Superseding requests is handled by the
// token, so Clear also bumps it to orphan any in-flight request.
func (s *RouteService) Clear() {
	s.latest.Add(1)
	s.mu.Lock()
	s.active = nil
	s.cumLength = nil
	s.total = 0
	s.mu.Unlock()
}

// ProgressAlong projects pos onto the active route and reports the nearest
// segment, the closest point on it, and the fraction travelled. The stored
// CurrentIndex only moves forward.
func (s *RouteService) ProgressAlong(pos mgl64.Vec3) (model.RouteProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.active
	if r == nil || len(r.LocalPoints) < 2 {
		return model.RouteProgress{}, false
	}

	bestIdx, bestT, bestDist := 0, 0.0, math.MaxFloat64
	var bestPoint mgl64.Vec3
	for i := 0; i+1 < len(r.LocalPoints); i++ {
		closest, t := util.PointSegmentClosest(pos, r.LocalPoints[i], r.LocalPoints[i+1])
		d := pos.Sub(closest).Len()
		if d < bestDist {
			bestIdx, bestT, bestDist, bestPoint = i, t, d, closest
		}
	}

	if bestIdx > r.CurrentIndex {
		r.CurrentIndex = bestIdx
	}

	travelled := s.cumLength[bestIdx] +
		r.LocalPoints[bestIdx+1].Sub(r.LocalPoints[bestIdx]).Len()*bestT
	percent := 0.0
	if s.total > 0 {
		percent = util.Clamp(travelled/s.total, 0, 1) * 100
	}

	return model.RouteProgress{
		ClosestIndex: bestIdx,
		ClosestPoint: bestPoint,
		Percent:      percent,
	}, true
}

// NextWaypoint walks forward along the path from the point closest to pos
// until lookahead meters have accumulated, then interpolates within the
// final segment. The steering target this produces sits ahead of the
// immediate closest point, which keeps a follower from oscillating around
// the path.
func (s *RouteService) NextWaypoint(pos mgl64.Vec3, lookahead float64) (mgl64.Vec3, bool) {
	progress, ok := s.ProgressAlong(pos)
	if !ok {
		return mgl64.Vec3{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	r := s.active
	if r == nil {
		return mgl64.Vec3{}, false
	}

	remaining := lookahead
	cursor := progress.ClosestPoint
	for i := progress.ClosestIndex + 1; i < len(r.LocalPoints); i++ {
		segment := r.LocalPoints[i].Sub(cursor)
		length := segment.Len()
		if length >= remaining {
			if length == 0 {
				return cursor, true
			}
			return cursor.Add(segment.Mul(remaining / length)), true
		}
		remaining -= length
		cursor = r.LocalPoints[i]
	}
	return r.LocalPoints[len(r.LocalPoints)-1], true
}

// IsArrived reports whether pos is within threshold meters of the final
// route point.
func (s *RouteService) IsArrived(pos mgl64.Vec3, thresholdMeters float64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r := s.active
	if r == nil || len(r.LocalPoints) == 0 {
		return false
	}
	last := r.LocalPoints[len(r.LocalPoints)-1]
	return pos.Sub(last).Len() < thresholdMeters
}
