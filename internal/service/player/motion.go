package player

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"worldlink/internal/config"
	"worldlink/internal/model"
	"worldlink/internal/util"
)

// InputSample is one frame's worth of directional input, sampled once per
// simulation tick.
type InputSample struct {
	X, Z float64 // unit-ish direction from pressed keys
	Run  bool
	Jump bool
}

// controlMode says what currently owns the player's horizontal velocity:
// key input or the location-fix stream. The two must never both write it
// within a frame or one silently cancels the other.
type controlMode int

const (
	modeKeys controlMode = iota
	modeFix
)

// Controller turns input (keys or a location-fix stream) into velocity,
// position intent and animation-state transitions for one player.
type Controller struct {
	player *model.Player

	// jumpHeld latches the jump key so holding it does not re-trigger;
	// only a rising edge while grounded starts a jump
	jumpHeld bool

	// lastSafe is where the player respawns after falling through the world
	lastSafe mgl64.Vec3

	mode controlMode

	// lastFix is the previous accepted fix; noise and teleport decisions
	// compare fix against fix, never against the rendered position, so a
	// lagging avatar cannot turn real travel into a teleport
	hasFix    bool
	lastFix   mgl64.Vec3
	fixTarget mgl64.Vec3
	fixSpeed  float64
}

// NewController wraps a player model.
func NewController(p *model.Player) *Controller {
	return &Controller{
		player:   p,
		lastSafe: p.Position,
	}
}

// Player returns the controlled player model.
func (c *Controller) Player() *model.Player { return c.player }

// Step advances the state machine and horizontal velocity for one frame.
// grounded comes from the physics collaborator; vertical integration and
// gravity stay on its side of the fence. In fix mode empty key input does
// not touch velocity; the fix stream owns it until keys are pressed again.
func (c *Controller) Step(input InputSample, grounded bool, dt float64) {
	hasDir := input.X != 0 || input.Z != 0

	if c.mode == modeFix {
		if !hasDir {
			c.stepTowardFix(grounded, dt)
			return
		}
		// direct input takes the session back from the fix stream; the
		// next fix re-primes so the stale lastFix cannot read as a jump
		c.mode = modeKeys
		c.hasFix = false
	}

	p := c.player

	if hasDir {
		dir := mgl64.Vec3{input.X, 0, input.Z}.Normalize()
		speed := config.WalkSpeed
		if input.Run {
			speed = config.RunSpeed
		}
		p.Velocity = mgl64.Vec3{dir.X() * speed, p.Velocity.Y(), dir.Z() * speed}
		// last non-idle heading is retained while idle: only overwrite here
		p.Heading = math.Atan2(dir.X(), dir.Z())
	} else {
		p.Velocity = mgl64.Vec3{0, p.Velocity.Y(), 0}
	}

	jumpEdge := input.Jump && !c.jumpHeld
	c.jumpHeld = input.Jump

	switch {
	case p.State == model.AnimationJump:
		if grounded {
			p.State = stateForInput(input, hasDir)
		}
	case jumpEdge && grounded:
		p.State = model.AnimationJump
		p.Velocity = mgl64.Vec3{p.Velocity.X(), config.JumpImpulse, p.Velocity.Z()}
	default:
		p.State = stateForInput(input, hasDir)
	}

	c.finishStep(grounded, dt)
}

// stepTowardFix converges the avatar toward the latest accepted fix, one
// frame at a time. Velocity is recomputed every frame so the empty-input
// branch above never gets a chance to zero it between fixes.
func (c *Controller) stepTowardFix(grounded bool, dt float64) {
	p := c.player

	delta := mgl64.Vec3{c.fixTarget.X() - p.Position.X(), 0, c.fixTarget.Z() - p.Position.Z()}
	dist := delta.Len()

	if dist <= c.fixSpeed*dt {
		// this frame would overshoot: land exactly on the target
		p.Position = mgl64.Vec3{c.fixTarget.X(), p.Position.Y(), c.fixTarget.Z()}
		p.Velocity = mgl64.Vec3{0, p.Velocity.Y(), 0}
		if p.State != model.AnimationJump {
			p.State = model.AnimationIdle
		}
	} else {
		dir := delta.Mul(1 / dist)
		p.Velocity = mgl64.Vec3{dir.X() * c.fixSpeed, p.Velocity.Y(), dir.Z() * c.fixSpeed}
		p.Heading = math.Atan2(dir.X(), dir.Z())
		if p.State != model.AnimationJump {
			if c.fixSpeed >= config.RunSpeed {
				p.State = model.AnimationRun
			} else {
				p.State = model.AnimationWalk
			}
		}
	}

	c.finishStep(grounded, dt)
}

// finishStep is the mode-independent tail of a frame: safe-spot tracking,
// grounded flag, eased visual rotation.
func (c *Controller) finishStep(grounded bool, dt float64) {
	p := c.player

	if grounded && p.State != model.AnimationJump {
		c.lastSafe = p.Position
	}
	p.Grounded = grounded

	// visual rotation eases toward the heading instead of snapping
	p.VisualYaw = slerpYaw(p.VisualYaw, p.Heading, util.Clamp(config.HeadingSlerpRate*dt, 0, 1))
}

// stateForInput maps held input to a grounded animation state.
func stateForInput(input InputSample, hasDir bool) model.AnimationState {
	if !hasDir {
		return model.AnimationIdle
	}
	if input.Run {
		return model.AnimationRun
	}
	return model.AnimationWalk
}

// StepFix accepts a location fix (already converted to local space) as the
// new movement target. The fix only classifies the displacement and moves
// the target; per-frame convergence happens in Step.
func (c *Controller) StepFix(target mgl64.Vec3) {
	p := c.player
	c.mode = modeFix

	if !c.hasFix {
		c.hasFix = true
		c.lastFix = target
		c.fixTarget = target
		c.fixSpeed = config.WalkSpeed
		p.Position = mgl64.Vec3{target.X(), p.Position.Y(), target.Z()}
		p.Velocity = mgl64.Vec3{}
		return
	}

	delta := mgl64.Vec3{target.X() - c.lastFix.X(), 0, target.Z() - c.lastFix.Z()}
	dist := delta.Len()

	switch {
	case dist < config.GpsNoiseFloorMeters:
		// jitter around the previous fix: keep converging to the current
		// target; lastFix stays put so genuine slow drift accumulates
	case dist > config.GpsTeleportMeters:
		// outage recovery: snap, never rubber-band across the gap
		p.Position = mgl64.Vec3{target.X(), p.Position.Y(), target.Z()}
		p.Velocity = mgl64.Vec3{}
		if p.State != model.AnimationJump {
			p.State = model.AnimationIdle
		}
		c.lastFix = target
		c.fixTarget = target
		c.fixSpeed = config.WalkSpeed
	default:
		// convergence speed tracks the fix stream so the avatar keeps
		// pace with real travel faster than walking
		c.fixSpeed = math.Max(config.WalkSpeed, dist/config.LocationPollInterval.Seconds())
		c.lastFix = target
		c.fixTarget = target
	}
}

// CheckWorldBounds respawns the player at the last safe position if it has
// fallen through the world. Recovery, not an error.
func (c *Controller) CheckWorldBounds() bool {
	p := c.player
	if p.Position.Y() >= config.FallRespawnY {
		return false
	}
	p.Position = c.lastSafe
	p.Velocity = mgl64.Vec3{}
	p.State = model.AnimationIdle
	return true
}

// slerpYaw interpolates between two yaw angles through quaternions so the
// character turns along the shortest arc.
func slerpYaw(current, target, t float64) float64 {
	up := mgl64.Vec3{0, 1, 0}
	q := mgl64.QuatSlerp(
		mgl64.QuatRotate(current, up),
		mgl64.QuatRotate(target, up),
		t,
	)
	forward := q.Rotate(mgl64.Vec3{0, 0, 1})
	return math.Atan2(forward.X(), forward.Z())
}
