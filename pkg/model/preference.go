package model

import (
	"time"

	"github.com/google/uuid"
)

type PreferenceID string

// NewPreferenceID generates a new unique PreferenceID
func NewPreferenceID() PreferenceID {
	return PreferenceID(uuid.New().String())
}

type PreferenceType string

const (
	PreferenceTypeStyle      PreferenceType = "style"
	PreferenceTypeColor      PreferenceType = "color"
	PreferenceTypeMaterial   PreferenceType = "material"
	PreferenceTypeWarmth     PreferenceType = "warmth"
	PreferenceTypeComplexity PreferenceType = "complexity"
)

// Confidence deltas for preference signals.
const (
	DeltaSelection        = 0.30 // explicit selection of a design
	DeltaPositiveFeedback = 0.20
	DeltaImplicitMention  = 0.10 // keyword mention in conversation
	DeltaNegativeFeedback = -0.20
)

// PreferenceKey uniquely identifies a preference row. All concurrent
// signal arrivals for the same key merge into one row.
type PreferenceKey struct {
	OwnerID UserID
	Type    PreferenceType
	Value   string
}

// Preference is a learned (type, value) tag with a bounded confidence.
// Confidence is mutated only through additive deltas and decays over time;
// it never leaves [0,1].
type Preference struct {
	ID           PreferenceID
	OwnerID      UserID
	Type         PreferenceType
	Value        string
	Confidence   float64
	SourceRoomID RoomID // optional

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Key returns the identity triple of the preference.
func (p *Preference) Key() PreferenceKey {
	return PreferenceKey{OwnerID: p.OwnerID, Type: p.Type, Value: p.Value}
}

// ClampConfidence bounds a confidence value to [0,1]. Out-of-range inputs
// are never an error.
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
