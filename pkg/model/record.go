package model

import (
	"time"

	"github.com/google/uuid"
)

// UserID identifies the owner of records, preferences and rooms.
type UserID string

type RecordID string

// NewRecordID generates a new unique RecordID
func NewRecordID() RecordID {
	return RecordID(uuid.New().String())
}

type Role string

const (
	RoleUser   Role = "user"
	RoleAgent  Role = "agent"
	RoleSystem Role = "system"
)

// Validate checks if the role is valid
func (r Role) Validate() error {
	switch r {
	case RoleUser, RoleAgent, RoleSystem:
		return nil
	default:
		return ErrInvalidRole
	}
}

// MemoryRecord is one stored unit of interaction text. Immutable once
// created. Embedding is nil when the embedding provider failed; such
// records are still persisted and reachable through metadata filters,
// but excluded from semantic search.
type MemoryRecord struct {
	ID        RecordID
	OwnerID   UserID
	RoomID    RoomID // optional
	SessionID string
	Role      Role
	Text      string
	Embedding []float32 // nil if embedding failed
	Metadata  map[string]string
	CreatedAt time.Time
}
