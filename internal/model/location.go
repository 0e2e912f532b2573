package model

import "time"

// LocationFix is a single sample from the location provider
type LocationFix struct {
	Lng      float64   `json:"lng"`
	Lat      float64   `json:"lat"`
	Accuracy float64   `json:"accuracy"`
	Altitude float64   `json:"altitude"`
	At       time.Time `json:"at"`
	// Simulated marks fixes produced by the fallback path generator
	Simulated bool `json:"simulated"`
}
