package model

import (
	"encoding/json"
	"fmt"
)

// Message kinds on the multiplayer transport
const (
	MessagePlayerState = "player_state"
	MessageJoin        = "join"
	MessageLeave       = "leave"
)

// Envelope is the outer frame of every transport message. The payload is
// decoded into a typed struct exactly once, at the boundary.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// PlayerStateMessage is the logical state sample exchanged per player,
// outbound at most once per broadcast interval.
type PlayerStateMessage struct {
	UserID           string     `json:"userId"`
	Position         [3]float64 `json:"position"`
	RotationY        float64    `json:"rotationY"`
	State            string     `json:"animationState"`
	ModelPath        string     `json:"modelPath"`
	IsChangingAvatar bool       `json:"isChangingAvatar"`
	Seq              uint64     `json:"seq"`
}

// JoinMessage announces a remote player entering the world
type JoinMessage struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	ModelPath string `json:"modelPath"`
}

// LeaveMessage announces a remote player leaving the world
type LeaveMessage struct {
	UserID string `json:"userId"`
}

// DecodeMessage validates and decodes a raw transport frame into one of the
// typed message structs. Unknown kinds and malformed payloads are errors;
// nothing downstream touches raw JSON.
func DecodeMessage(data []byte) (interface{}, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed envelope: %w", err)
	}

	switch env.Type {
	case MessagePlayerState:
		var m PlayerStateMessage
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, fmt.Errorf("malformed player_state payload: %w", err)
		}
		if m.UserID == "" {
			return nil, fmt.Errorf("player_state without userId")
		}
		return &m, nil
	case MessageJoin:
		var m JoinMessage
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, fmt.Errorf("malformed join payload: %w", err)
		}
		if m.UserID == "" {
			return nil, fmt.Errorf("join without userId")
		}
		return &m, nil
	case MessageLeave:
		var m LeaveMessage
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, fmt.Errorf("malformed leave payload: %w", err)
		}
		if m.UserID == "" {
			return nil, fmt.Errorf("leave without userId")
		}
		return &m, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", env.Type)
	}
}

// EncodeMessage wraps a typed message back into an envelope frame.
func EncodeMessage(kind string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: kind, Payload: raw})
}
