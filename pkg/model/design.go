package model

import (
	"time"

	"github.com/google/uuid"
)

type VersionID string

// NewVersionID generates a new unique VersionID
func NewVersionID() VersionID {
	return VersionID(uuid.New().String())
}

type ImageID string

// NewImageID generates a new unique ImageID
func NewImageID() ImageID {
	return ImageID(uuid.New().String())
}

// DesignVersion is one revision of a room's design. Version numbers start
// at 1 and increase strictly within a room; they are never reused.
// ParentVersionID, when set, references an earlier version of the same
// room, forming a room-local lineage forest.
type DesignVersion struct {
	ID              VersionID
	RoomID          RoomID
	VersionNumber   int
	Description     string
	ParentVersionID VersionID // optional
	Selected        bool
	Rejected        bool
	CreatedAt       time.Time
}

// DesignImage is a rendered artifact attached to a version. Locator is an
// opaque reference (gs:// or https:// URL) understood by the image source.
type DesignImage struct {
	ID        ImageID
	VersionID VersionID
	Locator   string
	Selected  bool
	CreatedAt time.Time
}
