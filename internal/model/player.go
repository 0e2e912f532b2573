package model

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"gorm.io/gorm"
)

// AnimationState represents the current motion state of a player
type AnimationState string

const (
	AnimationIdle AnimationState = "idle"
	AnimationWalk AnimationState = "walk"
	AnimationRun  AnimationState = "run"
	AnimationJump AnimationState = "jump"
)

// Player is the unified model for the player entity (used for both PostgreSQL and Redis)
type Player struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Lng       float64 `json:"lng"`
	Lat       float64 `json:"lat"`
	ModelPath string  `json:"model_path"`

	Position  mgl64.Vec3     `json:"-"`
	Velocity  mgl64.Vec3     `json:"-"`
	Heading   float64        `json:"heading"`
	VisualYaw float64        `json:"-"`
	Grounded  bool           `json:"grounded"`
	State     AnimationState `json:"state"`

	UpdatedAt time.Time `json:"updated_at"`
	CreatedAt time.Time `json:"-"`
}

// PlayerPG is the PostgreSQL persistence model for a player
type PlayerPG struct {
	ID        string         `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"size:255;not null"`
	Lng       float64        `json:"lng" gorm:"not null"`
	Lat       float64        `json:"lat" gorm:"not null"`
	Heading   float64        `json:"heading"`
	State     string         `json:"state" gorm:"size:16"`
	ModelPath string         `json:"model_path" gorm:"type:text"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"column:updated_at"`
	CreatedAt time.Time      `json:"-" gorm:"column:created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"column:deleted_at;index"`
}

// TableName overrides the gorm table name
func (PlayerPG) TableName() string {
	return "players"
}

// PlayerRedis is the light model persisted to Redis between full PG flushes
type PlayerRedis struct {
	ID        string    `json:"id"`
	Lng       float64   `json:"lng"`
	Lat       float64   `json:"lat"`
	Heading   float64   `json:"heading"`
	State     string    `json:"state"`
	ModelPath string    `json:"model_path"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToPG converts the in-memory model to its PostgreSQL variant
func (p *Player) ToPG() *PlayerPG {
	return &PlayerPG{
		ID:        p.ID,
		Name:      p.Name,
		Lng:       p.Lng,
		Lat:       p.Lat,
		Heading:   p.Heading,
		State:     string(p.State),
		ModelPath: p.ModelPath,
		UpdatedAt: p.UpdatedAt,
		CreatedAt: p.CreatedAt,
	}
}

// FromPG converts a PostgreSQL model to the in-memory model
func FromPG(pg *PlayerPG) *Player {
	return &Player{
		ID:        pg.ID,
		Name:      pg.Name,
		Lng:       pg.Lng,
		Lat:       pg.Lat,
		Heading:   pg.Heading,
		State:     AnimationState(pg.State),
		ModelPath: pg.ModelPath,
		UpdatedAt: pg.UpdatedAt,
		CreatedAt: pg.CreatedAt,
	}
}

// ToRedis converts the in-memory model to its Redis variant
func (p *Player) ToRedis() *PlayerRedis {
	return &PlayerRedis{
		ID:        p.ID,
		Lng:       p.Lng,
		Lat:       p.Lat,
		Heading:   p.Heading,
		State:     string(p.State),
		ModelPath: p.ModelPath,
		UpdatedAt: p.UpdatedAt,
	}
}

// FromRedis converts a Redis model to the in-memory model
func FromRedis(r *PlayerRedis) *Player {
	return &Player{
		ID:        r.ID,
		Lng:       r.Lng,
		Lat:       r.Lat,
		Heading:   r.Heading,
		State:     AnimationState(r.State),
		ModelPath: r.ModelPath,
		UpdatedAt: r.UpdatedAt,
	}
}
