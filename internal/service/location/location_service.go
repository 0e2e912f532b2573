package location

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"worldlink/internal/config"
	"worldlink/internal/model"
	"worldlink/internal/util"
)

// Provider is the device location API. It may be slow, erroring or entirely
// absent; the service falls back to a simulated path in all three cases.
type Provider interface {
	Current(ctx context.Context) (model.LocationFix, error)
}

// LocationService polls a location provider, smooths the jitter out of its
// fixes and fans them out to subscribers. When no real fix can be acquired
// within a bounded wait it substitutes a deterministic circular path.
type LocationService struct {
	provider Provider

	mu          sync.Mutex
	subscribers map[chan model.LocationFix]struct{}
	lastFix     model.LocationFix
	hasFix      bool

	smoothLng util.EMA
	smoothLat util.EMA

	// simulated path parameters
	simCenterLng float64
	simCenterLat float64
	simRadiusM   float64
	simAngle     float64
	simStepRad   float64

	stop     chan struct{}
	stopOnce sync.Once
}

var (
	locationServiceInstance *LocationService
	locationServiceOnce     sync.Once
)

// GetLocationService returns the singleton instance of LocationService.
func GetLocationService() *LocationService {
	locationServiceOnce.Do(func() {
		locationServiceInstance = NewLocationService(nil, 127.0, 37.5)
	})
	return locationServiceInstance
}

// NewLocationService creates a service around the given provider. A nil
// provider means the simulated path is used from the start. The center is
// where the simulated circle is anchored.
func NewLocationService(provider Provider, centerLng, centerLat float64) *LocationService {
	return &LocationService{
		provider:     provider,
		subscribers:  make(map[chan model.LocationFix]struct{}),
		smoothLng:    util.EMA{Alpha: 0.5},
		smoothLat:    util.EMA{Alpha: 0.5},
		simCenterLng: centerLng,
		simCenterLat: centerLat,
		simRadiusM:   30,
		simStepRad:   0.05,
		stop:         make(chan struct{}),
	}
}

// SetSimulationCenter moves the anchor of the fallback circular path.
func (s *LocationService) SetSimulationCenter(lng, lat float64) {
	s.mu.Lock()
	s.simCenterLng = lng
	s.simCenterLat = lat
	s.mu.Unlock()
}

// SetProvider swaps the location provider (e.g. once device permission is
// granted).
func (s *LocationService) SetProvider(p Provider) {
	s.mu.Lock()
	s.provider = p
	s.mu.Unlock()
}

// Subscribe registers a fix channel. Slow subscribers drop fixes rather
// than block the poll loop.
func (s *LocationService) Subscribe() chan model.LocationFix {
	ch := make(chan model.LocationFix, 8)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

// Unsubscribe removes a fix channel.
func (s *LocationService) Unsubscribe(ch chan model.LocationFix) {
	s.mu.Lock()
	delete(s.subscribers, ch)
	s.mu.Unlock()
}

// LastFix returns the most recent published fix, if any.
func (s *LocationService) LastFix() (model.LocationFix, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFix, s.hasFix
}

// Start launches the poll loop.
func (s *LocationService) Start() {
	go s.pollLoop()
	log.Println("Location service started with interval:", config.LocationPollInterval)
}

// Stop terminates the poll loop.
func (s *LocationService) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *LocationService) pollLoop() {
	ticker := time.NewTicker(config.LocationPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.publish(s.acquireFix())
		}
	}
}

// acquireFix asks the provider for a fix and falls back to the simulated
// circular path when the provider is missing, errors or times out.
func (s *LocationService) acquireFix() model.LocationFix {
	s.mu.Lock()
	provider := s.provider
	s.mu.Unlock()

	if provider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), config.LocationAcquireTimeout)
		fix, err := provider.Current(ctx)
		cancel()
		if err == nil {
			return fix
		}
		log.Printf("Location provider error, using simulated path: %v", err)
	}

	return s.simulatedFix()
}

// simulatedFix advances a deterministic circle around the configured center.
func (s *LocationService) simulatedFix() model.LocationFix {
	s.mu.Lock()
	s.simAngle += s.simStepRad
	angle := s.simAngle
	centerLng, centerLat, radius := s.simCenterLng, s.simCenterLat, s.simRadiusM
	s.mu.Unlock()

	// meters to degrees at the center latitude
	dLat := radius * math.Cos(angle) / 111320.0
	dLng := radius * math.Sin(angle) / (111320.0 * math.Cos(centerLat*math.Pi/180))

	return model.LocationFix{
		Lng:       centerLng + dLng,
		Lat:       centerLat + dLat,
		Accuracy:  5,
		At:        time.Now(),
		Simulated: true,
	}
}

// publish smooths a fix and fans it out.
func (s *LocationService) publish(fix model.LocationFix) {
	s.mu.Lock()
	fix.Lng = s.smoothLng.Update(fix.Lng)
	fix.Lat = s.smoothLat.Update(fix.Lat)
	s.lastFix = fix
	s.hasFix = true

	for ch := range s.subscribers {
		select {
		case ch <- fix:
		default:
			// subscriber is behind, drop the fix
		}
	}
	s.mu.Unlock()
}
