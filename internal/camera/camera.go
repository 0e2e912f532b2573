// Package camera computes a smoothly-following third-person camera from the
// local player's position and heading.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"worldlink/internal/util"
)

// Bounds is an axis-aligned box the camera is kept inside when room mode is
// enabled.
type Bounds struct {
	Min, Max mgl64.Vec3
}

// Rig holds the follow parameters and the damped camera state.
type Rig struct {
	Distance  float64
	Height    float64
	LookAhead float64
	// Damping is the exponential smoothing constant per second. The applied
	// alpha is 1-exp(-Damping*dt), so frame-rate variation does not change
	// the perceived smoothing speed.
	Damping float64

	// WallMargin is how close to a room wall counts as "near" for the
	// pull-in heuristic.
	WallMargin float64

	room    *Bounds
	pos     mgl64.Vec3
	lookAt  mgl64.Vec3
	primed  bool
}

// NewRig creates a follow rig with the given parameters.
func NewRig(distance, height, lookAhead, damping float64) *Rig {
	return &Rig{
		Distance:   distance,
		Height:     height,
		LookAhead:  lookAhead,
		Damping:    damping,
		WallMargin: 1.0,
	}
}

// SetRoom enables bounded-room mode. Pass nil to disable.
func (r *Rig) SetRoom(b *Bounds) {
	r.room = b
}

// Position returns the current damped camera position.
func (r *Rig) Position() mgl64.Vec3 { return r.pos }

// LookAt returns the current damped look-at point.
func (r *Rig) LookAt() mgl64.Vec3 { return r.lookAt }

// Update advances the camera toward its target transform for the frame.
// heading is the player's yaw in radians (atan2(x, z) convention).
func (r *Rig) Update(playerPos mgl64.Vec3, heading float64, dt float64) {
	forward := mgl64.Vec3{math.Sin(heading), 0, math.Cos(heading)}

	distance := r.Distance
	if r.room != nil {
		distance = r.roomAdjustedDistance(playerPos, distance)
	}

	targetPos := playerPos.
		Sub(forward.Mul(distance)).
		Add(mgl64.Vec3{0, r.Height, 0})
	targetLook := playerPos.Add(forward.Mul(r.LookAhead))

	if r.room != nil {
		targetPos = clampToBounds(targetPos, r.room)
	}

	if !r.primed {
		r.pos = targetPos
		r.lookAt = targetLook
		r.primed = true
		return
	}

	alpha := 1 - math.Exp(-r.Damping*dt)
	r.pos = dampVec(r.pos, targetPos, alpha)
	r.lookAt = dampVec(r.lookAt, targetLook, alpha)
}

// roomAdjustedDistance pulls the camera toward the player when it sits near
// a wall, approximating occlusion avoidance without raycasting.
func (r *Rig) roomAdjustedDistance(playerPos mgl64.Vec3, distance float64) float64 {
	b := r.room
	nearest := math.Min(
		math.Min(playerPos.X()-b.Min.X(), b.Max.X()-playerPos.X()),
		math.Min(playerPos.Z()-b.Min.Z(), b.Max.Z()-playerPos.Z()),
	)
	if nearest >= r.WallMargin+distance {
		return distance
	}
	return util.Clamp(nearest-r.WallMargin, distance*0.3, distance)
}

func clampToBounds(v mgl64.Vec3, b *Bounds) mgl64.Vec3 {
	return mgl64.Vec3{
		util.Clamp(v.X(), b.Min.X(), b.Max.X()),
		util.Clamp(v.Y(), b.Min.Y(), b.Max.Y()),
		util.Clamp(v.Z(), b.Min.Z(), b.Max.Z()),
	}
}

func dampVec(current, target mgl64.Vec3, alpha float64) mgl64.Vec3 {
	return current.Add(target.Sub(current).Mul(alpha))
}
