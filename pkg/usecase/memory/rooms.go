package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/atelierhq/decormem/pkg/model"
	"github.com/atelierhq/decormem/pkg/utils/logging"
)

// CreateRoom registers a room for an owner.
func (m *Manager) CreateRoom(ctx context.Context, ownerID model.UserID, name string, roomType model.RoomType) (*model.Room, error) {
	if ownerID == "" {
		return nil, goerr.New("owner ID is required")
	}
	if name == "" {
		return nil, goerr.New("room name is required", goerr.V("owner_id", ownerID))
	}
	if err := roomType.Validate(); err != nil {
		return nil, err
	}

	now := m.now()
	room := &model.Room{
		ID:        model.NewRoomID(),
		OwnerID:   ownerID,
		Name:      name,
		Type:      roomType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.repo.PutRoom(ctx, room); err != nil {
		return nil, goerr.Wrap(err, "failed to create room", goerr.V("name", name))
	}
	return room, nil
}

// GetRoom fetches one room by ID.
func (m *Manager) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	return m.repo.GetRoom(ctx, id)
}

// ListRooms returns the owner's rooms, most recently active first.
func (m *Manager) ListRooms(ctx context.Context, ownerID model.UserID) ([]*model.Room, error) {
	return m.repo.ListRooms(ctx, ownerID)
}

// touchRoom bumps a room's activity timestamp. Failures are logged and
// swallowed: the timestamp only drives cross-room tie-breaking.
func (m *Manager) touchRoom(ctx context.Context, id model.RoomID) {
	room, err := m.repo.GetRoom(ctx, id)
	if err != nil {
		logging.From(ctx).Warn("failed to load room for activity update",
			"room_id", id, "error", err)
		return
	}
	room.UpdatedAt = m.now()
	if err := m.repo.UpdateRoom(ctx, room); err != nil {
		logging.From(ctx).Warn("failed to update room activity",
			"room_id", id, "error", err)
	}
}
