package model

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// RemoteSample is the last-received network state for one remote player.
// Samples carry a monotonic sequence number; a sample whose Seq is lower
// than the currently applied one is stale and must be dropped.
type RemoteSample struct {
	UserID           string
	Position         mgl64.Vec3
	RotationY        float64
	State            AnimationState
	ModelPath        string
	IsChangingAvatar bool
	Seq              uint64
	ReceivedAt       time.Time
}

// RemotePlayer holds interpolation state for one remote player: the target
// pose (latest authoritative sample) and the rendered pose actually drawn.
type RemotePlayer struct {
	UserID    string
	Target    RemoteSample
	Rendered  mgl64.Vec3
	YawRender float64
	// primed is false until the first sample arrives; the first sample snaps
	// the rendered pose instead of interpolating from the zero vector
	Primed bool
}
