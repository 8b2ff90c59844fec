package model

import (
	"time"

	"github.com/google/uuid"
)

type RoomID string

// NewRoomID generates a new unique RoomID
func NewRoomID() RoomID {
	return RoomID(uuid.New().String())
}

type RoomType string

const (
	RoomTypeBedroom    RoomType = "bedroom"
	RoomTypeLivingRoom RoomType = "living_room"
	RoomTypeKitchen    RoomType = "kitchen"
	RoomTypeBathroom   RoomType = "bathroom"
	RoomTypeOffice     RoomType = "office"
	RoomTypeDiningRoom RoomType = "dining_room"
	RoomTypeOther      RoomType = "other"
)

// Validate checks if the room type is valid
func (t RoomType) Validate() error {
	switch t {
	case RoomTypeBedroom, RoomTypeLivingRoom, RoomTypeKitchen, RoomTypeBathroom, RoomTypeOffice, RoomTypeDiningRoom, RoomTypeOther:
		return nil
	default:
		return ErrInvalidRoomType
	}
}

// Room is a design project scope. Versions and preferences can reference a
// room, and queries like "like my living room" resolve against its name
// and type tag.
type Room struct {
	ID      RoomID
	OwnerID UserID
	Name    string
	Type    RoomType

	CreatedAt time.Time
	UpdatedAt time.Time
}
