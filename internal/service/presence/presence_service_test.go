package presence

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"worldlink/internal/model"
)

func TestFirstSampleSnapsRenderedPose(t *testing.T) {
	s := NewPresenceService()
	s.Join("u1", "avatars/a.glb")
	s.Apply(model.RemoteSample{
		UserID:    "u1",
		Position:  mgl64.Vec3{10, 0, -4},
		RotationY: 1.5,
		Seq:       1,
	})
	s.Tick(0)

	pos, yaw, ok := s.Pose("u1")
	if !ok {
		t.Fatal("pose missing after first sample")
	}
	if pos != (mgl64.Vec3{10, 0, -4}) || yaw != 1.5 {
		t.Fatalf("first sample did not snap: pos=%v yaw=%f", pos, yaw)
	}
}

func TestRenderedConvergesToTarget(t *testing.T) {
	s := NewPresenceService()
	s.Join("u1", "")
	s.Apply(model.RemoteSample{UserID: "u1", Position: mgl64.Vec3{}, Seq: 1})
	s.Tick(0)
	s.Apply(model.RemoteSample{UserID: "u1", Position: mgl64.Vec3{4, 0, 2}, RotationY: 0.8, Seq: 2})

	for i := 0; i < 60; i++ {
		s.Tick(0.05)
	}

	pos, yaw, _ := s.Pose("u1")
	if pos.Sub(mgl64.Vec3{4, 0, 2}).Len() > 1e-6 {
		t.Fatalf("rendered pose did not converge: %v", pos)
	}
	if math.Abs(yaw-0.8) > 1e-6 {
		t.Fatalf("rendered yaw did not converge: %f", yaw)
	}
}

func TestLateSampleIsDropped(t *testing.T) {
	s := NewPresenceService()
	s.Join("u1", "")
	s.Apply(model.RemoteSample{UserID: "u1", Position: mgl64.Vec3{1, 0, 0}, Seq: 1})
	s.Tick(0)
	s.Apply(model.RemoteSample{UserID: "u1", Position: mgl64.Vec3{2, 0, 0}, Seq: 2})
	s.Tick(0)

	// a delayed delivery of the first sample must not rewind the target
	s.Apply(model.RemoteSample{UserID: "u1", Position: mgl64.Vec3{1, 0, 0}, Seq: 1})

	for i := 0; i < 60; i++ {
		s.Tick(0.05)
	}
	pos, _, _ := s.Pose("u1")
	if pos.Sub(mgl64.Vec3{2, 0, 0}).Len() > 1e-6 {
		t.Fatalf("late sample rewound the target: %v", pos)
	}
}

func TestSampleBeforeJoinCreatesState(t *testing.T) {
	s := NewPresenceService()
	s.Apply(model.RemoteSample{UserID: "ghost", Position: mgl64.Vec3{3, 0, 3}, Seq: 1})
	s.Tick(0)

	if _, _, ok := s.Pose("ghost"); !ok {
		t.Fatal("sample before join was discarded")
	}
	if s.Count() != 1 {
		t.Fatalf("count = %d, want 1", s.Count())
	}
}

func TestLeaveDiscardsEverything(t *testing.T) {
	s := NewPresenceService()
	s.Join("u1", "")
	s.Apply(model.RemoteSample{UserID: "u1", Position: mgl64.Vec3{1, 0, 1}, Seq: 1})
	s.Tick(0.05)

	// a sample still sitting in the queue goes away with the player
	s.Apply(model.RemoteSample{UserID: "u1", Position: mgl64.Vec3{9, 0, 9}, Seq: 2})
	s.Leave("u1")
	s.Tick(0.05)

	if s.Count() != 0 {
		t.Fatalf("count after leave = %d", s.Count())
	}
	if _, _, ok := s.Pose("u1"); ok {
		t.Fatal("pose survived leave")
	}
	if ids := s.Nearby(mgl64.Vec3{1, 0, 1}, 10); len(ids) != 0 {
		t.Fatalf("index entry survived leave: %v", ids)
	}

	// a rejoin under the same id starts clean
	s.Join("u1", "")
	s.Apply(model.RemoteSample{UserID: "u1", Position: mgl64.Vec3{50, 0, 50}, Seq: 1})
	s.Tick(0)
	pos, _, _ := s.Pose("u1")
	if pos != (mgl64.Vec3{50, 0, 50}) {
		t.Fatalf("rejoin inherited stale state: %v", pos)
	}
}

func TestNearbyRadiusQuery(t *testing.T) {
	s := NewPresenceService()
	positions := map[string]mgl64.Vec3{
		"near":     {3, 0, 4},
		"far":      {100, 0, 100},
		"diagonal": {8, 0, 8}, // inside the query rect but outside the circle
	}
	seq := uint64(0)
	for id, pos := range positions {
		seq++
		s.Apply(model.RemoteSample{UserID: id, Position: pos, Seq: seq})
	}
	s.Tick(0.05)

	ids := s.Nearby(mgl64.Vec3{0, 0, 0}, 10)
	if len(ids) != 1 || ids[0] != "near" {
		t.Fatalf("nearby = %v, want [near]", ids)
	}
}

func TestManyPlayersIndexed(t *testing.T) {
	s := NewPresenceService()
	for i := 0; i < 100; i++ {
		s.Apply(model.RemoteSample{
			UserID:   fmt.Sprintf("u%d", i),
			Position: mgl64.Vec3{float64(i) * 5, 0, 0},
			Seq:      1,
		})
	}
	s.Tick(0.05)

	ids := s.Nearby(mgl64.Vec3{0, 0, 0}, 11)
	if len(ids) != 3 {
		t.Fatalf("got %d players within 11m, want 3 (%v)", len(ids), ids)
	}
}

func TestConcurrentSamplesAndTicks(t *testing.T) {
	s := NewPresenceService()
	s.Join("u1", "")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 500; i++ {
			s.Apply(model.RemoteSample{
				UserID:   "u1",
				Position: mgl64.Vec3{float64(i), 0, 0},
				Seq:      uint64(i),
			})
		}
	}()
	for i := 0; i < 500; i++ {
		s.Tick(0.01)
		s.Pose("u1")
	}
	wg.Wait()

	// drain the last queued sample and converge onto it
	for i := 0; i < 200; i++ {
		s.Tick(0.05)
	}
	pos, _, ok := s.Pose("u1")
	if !ok {
		t.Fatal("pose missing after sample stream")
	}
	if math.Abs(pos.X()-500) > 1e-6 {
		t.Fatalf("did not settle on the newest sample: %v", pos)
	}
}
