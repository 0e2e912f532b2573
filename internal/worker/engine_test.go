package worker

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"worldlink/internal/config"
	"worldlink/internal/model"
)

func TestIntegrateGroundClamp(t *testing.T) {
	e := NewFlatGroundEngine()
	p := &model.Player{Position: mgl64.Vec3{0, 0.01, 0}, Velocity: mgl64.Vec3{1, -3, 0}}

	grounded := e.Integrate(p, 0.05)
	if !grounded {
		t.Fatal("player landing on the ground plane not reported grounded")
	}
	if p.Position.Y() != 0 {
		t.Fatalf("y = %f, want clamped to 0", p.Position.Y())
	}
	if p.Velocity.Y() != 0 {
		t.Fatalf("vy = %f, want zeroed on landing", p.Velocity.Y())
	}
	if p.Position.X() != 0.05 {
		t.Fatalf("x = %f, horizontal motion lost", p.Position.X())
	}
}

func TestIntegrateAirborne(t *testing.T) {
	e := NewFlatGroundEngine()
	p := &model.Player{Position: mgl64.Vec3{0, 0, 0}, Velocity: mgl64.Vec3{0, config.JumpImpulse, 0}}

	grounded := e.Integrate(p, 0.05)
	if grounded {
		t.Fatal("rising player reported grounded")
	}
	if p.Position.Y() <= 0 {
		t.Fatalf("y = %f, want above ground", p.Position.Y())
	}
	if p.Velocity.Y() >= config.JumpImpulse {
		t.Fatalf("vy = %f, gravity not applied", p.Velocity.Y())
	}
}

func TestJumpArcReturnsToGround(t *testing.T) {
	e := NewFlatGroundEngine()
	p := &model.Player{Velocity: mgl64.Vec3{0, config.JumpImpulse, 0}}

	landed := false
	for i := 0; i < 100; i++ {
		if e.Integrate(p, 0.05) && i > 0 {
			landed = true
			break
		}
	}
	if !landed {
		t.Fatal("jump arc never returned to the ground")
	}
	if p.Position.Y() != 0 {
		t.Fatalf("resting y = %f", p.Position.Y())
	}
}
