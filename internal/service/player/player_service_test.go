package player

import (
	"math"
	"sync"
	"testing"

	"github.com/paulmach/orb"

	"worldlink/internal/coord"
	"worldlink/internal/model"
	"worldlink/internal/service/storage"
)

// flatEngine is the minimal physics collaborator for service tests: apply
// velocity, always grounded.
type flatEngine struct{}

func (flatEngine) Integrate(p *model.Player, dt float64) bool {
	p.Position = p.Position.Add(p.Velocity.Mul(dt))
	return true
}

func newTestService(origin orb.Point) *PlayerService {
	s := &PlayerService{
		storage:     storage.NewMemoryStorage[string, *model.Player](),
		controllers: make(map[string]*Controller),
		inputs:      make(map[string]InputSample),
		fixes:       make(map[string]model.LocationFix),
	}
	s.SetConverter(coord.NewConverter(origin, 1))
	return s
}

// lngOffset returns the longitude delta that spans meters of ground at the
// given latitude.
func lngOffset(meters, lat float64) float64 {
	return meters * 360 / (40075016.686 * math.Cos(lat*math.Pi/180))
}

func TestStepAllDrivesFixMovement(t *testing.T) {
	s := newTestService(orb.Point{127.0, 37.5})
	s.Spawn("p1", "n", "")

	// prime on the origin fix, then feed one 5 m east
	s.HandleFix("p1", model.LocationFix{Lng: 127.0, Lat: 37.5})
	s.StepAll(flatEngine{}, 0.05)
	s.HandleFix("p1", model.LocationFix{Lng: 127.0 + lngOffset(5, 37.5), Lat: 37.5})

	// one second of simulation frames with no key input
	for i := 0; i < 20; i++ {
		s.StepAll(flatEngine{}, 0.05)
	}

	p, _ := s.Get("p1")
	if p.Position.X() < 1.9 {
		t.Fatalf("moved only %.3f m in 1s of frames toward a 5 m fix", p.Position.X())
	}
}

func TestRecenterRebasesPlayers(t *testing.T) {
	s := newTestService(orb.Point{127.0, 37.5})
	s.Spawn("p1", "n", "")

	p, _ := s.Get("p1")
	if p.Position.Len() != 0 {
		t.Fatalf("spawn at origin should sit at zero, got %v", p.Position)
	}

	s.Recenter(orb.Point{127.001, 37.5})

	want := s.Converter().ToLocal(orb.Point{p.Lng, p.Lat}, 0)
	if p.Position != want {
		t.Fatalf("position not rebased: got %v, want %v", p.Position, want)
	}
	// the player now sits west of the shifted origin
	if p.Position.X() > -80 {
		t.Fatalf("rebased x = %f, want roughly -88", p.Position.X())
	}
}

func TestConcurrentFixesAndFrames(t *testing.T) {
	s := newTestService(orb.Point{127.0, 37.5})
	s.Spawn("p1", "n", "")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.HandleFix("p1", model.LocationFix{
				Lng: 127.0 + lngOffset(float64(i%10), 37.5),
				Lat: 37.5,
			})
		}
	}()
	for i := 0; i < 200; i++ {
		s.StepAll(flatEngine{}, 0.005)
		if _, ok := s.Snapshot("p1"); !ok {
			t.Fatal("snapshot lost mid-run")
		}
	}
	wg.Wait()

	p, _ := s.Get("p1")
	if math.IsNaN(p.Position.X()) || math.IsNaN(p.Position.Z()) {
		t.Fatalf("position corrupted: %v", p.Position)
	}
}
