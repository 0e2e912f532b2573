package player

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"worldlink/internal/config"
	"worldlink/internal/model"
)

func newTestController() *Controller {
	return NewController(&model.Player{
		ID:    "p1",
		State: model.AnimationIdle,
	})
}

func TestStateTransitions(t *testing.T) {
	cases := []struct {
		name     string
		input    InputSample
		grounded bool
		want     model.AnimationState
	}{
		{"idle_no_input", InputSample{}, true, model.AnimationIdle},
		{"walk_on_direction", InputSample{Z: 1}, true, model.AnimationWalk},
		{"run_with_modifier", InputSample{Z: 1, Run: true}, true, model.AnimationRun},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ctrl := newTestController()
			ctrl.Step(c.input, c.grounded, 0.05)
			if got := ctrl.Player().State; got != c.want {
				t.Fatalf("got %q, want %q", got, c.want)
			}
		})
	}
}

func TestJumpRisingEdgeOnly(t *testing.T) {
	ctrl := newTestController()
	p := ctrl.Player()

	ctrl.Step(InputSample{Jump: true}, true, 0.05)
	if p.State != model.AnimationJump {
		t.Fatalf("grounded jump press should jump, got %q", p.State)
	}
	if p.Velocity.Y() != config.JumpImpulse {
		t.Fatalf("jump impulse not applied: vy=%f", p.Velocity.Y())
	}

	// land with the key still held: no re-trigger
	ctrl.Step(InputSample{Jump: true}, true, 0.05)
	if p.State != model.AnimationIdle {
		t.Fatalf("held jump key re-triggered: %q", p.State)
	}

	// release, press again: triggers
	ctrl.Step(InputSample{}, true, 0.05)
	ctrl.Step(InputSample{Jump: true}, true, 0.05)
	if p.State != model.AnimationJump {
		t.Fatalf("fresh jump press ignored: %q", p.State)
	}
}

func TestAirborneKeepsJumpState(t *testing.T) {
	ctrl := newTestController()
	p := ctrl.Player()

	ctrl.Step(InputSample{Z: 1, Jump: true}, true, 0.05)
	if p.State != model.AnimationJump {
		t.Fatalf("expected jump, got %q", p.State)
	}

	// releasing all movement keys while airborne keeps the jump state
	ctrl.Step(InputSample{}, false, 0.05)
	ctrl.Step(InputSample{}, false, 0.05)
	if p.State != model.AnimationJump {
		t.Fatalf("airborne state lost: %q", p.State)
	}

	// landing state comes from input held at landing, not at jump start
	ctrl.Step(InputSample{X: 1, Run: true}, true, 0.05)
	if p.State != model.AnimationRun {
		t.Fatalf("landing with run input: got %q", p.State)
	}
}

func TestHeadingRetainedWhileIdle(t *testing.T) {
	ctrl := newTestController()
	p := ctrl.Player()

	ctrl.Step(InputSample{X: 1}, true, 0.05)
	want := math.Atan2(1, 0)
	if math.Abs(p.Heading-want) > 1e-12 {
		t.Fatalf("heading from +x input: got %f", p.Heading)
	}

	// stopping must not snap the heading back to zero
	ctrl.Step(InputSample{}, true, 0.05)
	if math.Abs(p.Heading-want) > 1e-12 {
		t.Fatalf("heading lost on stop: got %f", p.Heading)
	}
}

func TestWalkAndRunSpeeds(t *testing.T) {
	ctrl := newTestController()
	p := ctrl.Player()

	ctrl.Step(InputSample{Z: 1}, true, 0.05)
	if math.Abs(p.Velocity.Z()-config.WalkSpeed) > 1e-12 {
		t.Fatalf("walk speed: got %f", p.Velocity.Z())
	}

	ctrl.Step(InputSample{Z: 1, Run: true}, true, 0.05)
	if math.Abs(p.Velocity.Z()-config.RunSpeed) > 1e-12 {
		t.Fatalf("run speed: got %f", p.Velocity.Z())
	}
}

func TestStepFixThresholds(t *testing.T) {
	ctrl := newTestController()
	p := ctrl.Player()

	// prime with the first fix
	ctrl.StepFix(mgl64.Vec3{0, 0, 0})

	// 3 m: smoothed, velocity-driven movement toward the fix
	ctrl.StepFix(mgl64.Vec3{3, 0, 0})
	if p.Position.X() != 0 {
		t.Fatalf("smooth fix should not snap, position moved to %f", p.Position.X())
	}
	ctrl.Step(InputSample{}, true, 0.05)
	horiz := mgl64.Vec3{p.Velocity.X(), 0, p.Velocity.Z()}
	if horiz.Len() < config.WalkSpeed {
		t.Fatalf("smooth fix velocity: got %f, want >= %f", horiz.Len(), config.WalkSpeed)
	}
	if p.State != model.AnimationWalk {
		t.Fatalf("smooth fix state: got %q", p.State)
	}

	// 27 m between fixes: a teleport, position snaps and velocity zeroes
	ctrl.StepFix(mgl64.Vec3{30, 0, 0})
	if p.Position.X() != 30 {
		t.Fatalf("teleport fix should snap, position at %f", p.Position.X())
	}
	if p.Velocity.Len() != 0 {
		t.Fatalf("teleport fix should zero velocity, got %v", p.Velocity)
	}

	// sub-noise-floor displacement is ignored
	ctrl.StepFix(mgl64.Vec3{30.05, 0, 0})
	ctrl.Step(InputSample{}, true, 0.05)
	if p.Position.X() != 30 || p.State != model.AnimationIdle {
		t.Fatalf("noise fix moved the player: pos=%f state=%q", p.Position.X(), p.State)
	}
}

// integrateFrame mirrors one simulation frame around a controller: the
// engine applies velocity, then the controller steps with empty key input.
func integrateFrame(ctrl *Controller, dt float64) {
	p := ctrl.Player()
	p.Position = p.Position.Add(p.Velocity.Mul(dt))
	ctrl.Step(InputSample{}, true, dt)
}

func TestEmptyInputFramesDoNotCancelFixMovement(t *testing.T) {
	ctrl := newTestController()
	p := ctrl.Player()

	ctrl.StepFix(mgl64.Vec3{0, 0, 0}) // prime
	ctrl.StepFix(mgl64.Vec3{5, 0, 0})

	// one second of simulation frames with no key input held
	for i := 0; i < 20; i++ {
		integrateFrame(ctrl, 0.05)
	}

	if p.Position.X() < 1.9 {
		t.Fatalf("moved only %.3f m in 1s toward a 5 m fix", p.Position.X())
	}
}

func TestFixStreamKeepsPaceWithFastTravel(t *testing.T) {
	ctrl := newTestController()
	p := ctrl.Player()
	ctrl.StepFix(mgl64.Vec3{0, 0, 0})

	// 5 m/s of real travel, one fix per second: the avatar must track it
	// smoothly, never falling behind until a threshold reads as a teleport
	prev := p.Position
	for second := 1; second <= 5; second++ {
		ctrl.StepFix(mgl64.Vec3{float64(second) * 5, 0, 0})
		for i := 0; i < 20; i++ {
			integrateFrame(ctrl, 0.05)
			if jump := p.Position.Sub(prev).Len(); jump > 1.0 {
				t.Fatalf("frame displacement %.2f m at second %d: snapped during legitimate travel", jump, second)
			}
			prev = p.Position
		}
	}

	if lag := 25 - p.Position.X(); lag > 1.0 {
		t.Fatalf("avatar lags the fix stream by %.2f m after 5s", lag)
	}
}

func TestKeysTakeOverFromFixStream(t *testing.T) {
	ctrl := newTestController()
	p := ctrl.Player()

	ctrl.StepFix(mgl64.Vec3{0, 0, 0})
	ctrl.StepFix(mgl64.Vec3{5, 0, 0})

	ctrl.Step(InputSample{Z: 1}, true, 0.05)
	if math.Abs(p.Velocity.Z()-config.WalkSpeed) > 1e-12 || p.Velocity.X() != 0 {
		t.Fatalf("key input did not take over velocity: %v", p.Velocity)
	}

	// with keys in control, empty input stops the player again
	ctrl.Step(InputSample{}, true, 0.05)
	if p.Velocity.X() != 0 || p.Velocity.Z() != 0 || p.State != model.AnimationIdle {
		t.Fatalf("stale fix target kept driving after key takeover: %v %q", p.Velocity, p.State)
	}
}

func TestFallThroughWorldRespawns(t *testing.T) {
	ctrl := newTestController()
	p := ctrl.Player()

	// establish a safe spot
	p.Position = mgl64.Vec3{3, 0, 4}
	ctrl.Step(InputSample{}, true, 0.05)

	p.Position = mgl64.Vec3{3, config.FallRespawnY - 10, 4}
	p.Velocity = mgl64.Vec3{1, -20, 1}

	if !ctrl.CheckWorldBounds() {
		t.Fatal("fall through world not detected")
	}
	if p.Position != (mgl64.Vec3{3, 0, 4}) {
		t.Fatalf("respawn position: got %v", p.Position)
	}
	if p.Velocity != (mgl64.Vec3{}) {
		t.Fatalf("respawn velocity not zeroed: %v", p.Velocity)
	}
}
