package worker

import (
	"github.com/go-gl/mathgl/mgl64"

	"worldlink/internal/config"
	"worldlink/internal/model"
)

// FlatGroundEngine is the built-in stand-in for the external physics/render
// engine: flat ground at GroundY, constant gravity, no obstacles. The real
// engine is a black box that accepts positions and reports collision state;
// this one exists so the simulation runs headless.
type FlatGroundEngine struct {
	GroundY float64
	Gravity float64
}

// NewFlatGroundEngine returns an engine with ground at y=0 and earth
// gravity.
func NewFlatGroundEngine() *FlatGroundEngine {
	return &FlatGroundEngine{GroundY: 0, Gravity: -9.81}
}

// Integrate advances the player's position by its velocity, applies
// gravity, clamps at the ground plane and reports grounded state.
func (e *FlatGroundEngine) Integrate(p *model.Player, dt float64) bool {
	vy := p.Velocity.Y() + e.Gravity*dt

	x := p.Position.X() + p.Velocity.X()*dt
	y := p.Position.Y() + vy*dt
	z := p.Position.Z() + p.Velocity.Z()*dt

	if y <= e.GroundY {
		y = e.GroundY
		vy = 0
	}

	p.Position = mgl64.Vec3{x, y, z}
	p.Velocity = mgl64.Vec3{p.Velocity.X(), vy, p.Velocity.Z()}

	return vy < config.GroundedSpeedEpsilon && vy > -config.GroundedSpeedEpsilon && y <= e.GroundY
}
