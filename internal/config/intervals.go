package config

import "time"

// Worker intervals
const (
	// SimulationTickInterval defines the fixed simulation frame step
	SimulationTickInterval = 50 * time.Millisecond

	// BroadcastInterval defines how often local player state is published
	// to the multiplayer transport (at most one message per interval)
	BroadcastInterval = 100 * time.Millisecond

	// LocationPollInterval defines how often the location provider is polled
	LocationPollInterval = 1 * time.Second

	// RedisBackupInterval defines how often dirty player state is saved to Redis
	RedisBackupInterval = 5 * time.Second

	// PostgresBackupInterval defines how often player state is saved to PostgreSQL
	PostgresBackupInterval = 60 * time.Second

	// DirectionsTimeout bounds a single directions provider request
	DirectionsTimeout = 10 * time.Second

	// RouteCacheTTL is how long a cached directions response stays in Redis
	RouteCacheTTL = 15 * time.Minute

	// LocationAcquireTimeout is how long to wait for a first real fix before
	// falling back to the simulated path
	LocationAcquireTimeout = 5 * time.Second
)

// Motion tuning
const (
	// WalkSpeed and RunSpeed are horizontal speeds in meters per second
	WalkSpeed = 2.0
	RunSpeed  = 5.0

	// JumpImpulse is the vertical speed applied on a jump, meters per second
	JumpImpulse = 5.0

	// GroundedSpeedEpsilon is the max vertical speed magnitude still counted
	// as standing on the ground
	GroundedSpeedEpsilon = 0.5

	// HeadingSlerpRate controls how fast visual yaw turns toward the heading
	HeadingSlerpRate = 8.0

	// GpsNoiseFloorMeters: fixes closer than this to the previous fix are noise
	GpsNoiseFloorMeters = 0.1

	// GpsTeleportMeters: fixes farther than this snap the player instead of sliding
	GpsTeleportMeters = 20.0

	// FallRespawnY: vertical position below which the player is respawned
	FallRespawnY = -50.0

	// InterpolationRate is the remote pose convergence constant (per second)
	InterpolationRate = 10.0
)

// Camera tuning
const (
	CameraDistance  = 6.0
	CameraHeight    = 3.5
	CameraLookAhead = 2.0
	CameraDamping   = 6.0
)
