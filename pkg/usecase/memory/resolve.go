package memory

import (
	"context"
	"strings"

	"github.com/atelierhq/decormem/pkg/model"
	"github.com/atelierhq/decormem/pkg/utils/logging"
)

// resolveRoomReference scans the query for a mention of one of the
// owner's other rooms, by name or by type. When several match, the most
// recently active room wins. Resolution is best effort: lookup failures
// are logged and treated as no reference.
func (m *Manager) resolveRoomReference(ctx context.Context, ownerID model.UserID, query string, exclude model.RoomID) *ReferencedRoom {
	rooms, err := m.repo.ListRooms(ctx, ownerID)
	if err != nil {
		logging.From(ctx).Warn("failed to list rooms for cross-room resolution",
			"owner_id", ownerID, "error", err)
		return nil
	}

	lowered := strings.ToLower(query)
	var matched *model.Room
	for _, room := range rooms {
		if room.ID == exclude {
			continue
		}
		if roomMentioned(lowered, room) {
			// ListRooms is ordered by recent activity, so the first
			// match is the winner.
			matched = room
			break
		}
	}
	if matched == nil {
		return nil
	}

	ref := &ReferencedRoom{Room: matched}
	ref.SelectedVersion = m.latestSelected(ctx, matched.ID)
	return ref
}

func roomMentioned(loweredQuery string, room *model.Room) bool {
	if name := strings.ToLower(room.Name); name != "" && strings.Contains(loweredQuery, name) {
		return true
	}
	typeTag := strings.ReplaceAll(string(room.Type), "_", " ")
	return typeTag != "" && strings.Contains(loweredQuery, typeTag)
}

// latestSelected returns the newest selected version of a room, or nil.
func (m *Manager) latestSelected(ctx context.Context, roomID model.RoomID) *model.DesignVersion {
	versions, err := m.repo.ListVersions(ctx, roomID)
	if err != nil {
		logging.From(ctx).Warn("failed to list versions for referenced room",
			"room_id", roomID, "error", err)
		return nil
	}
	for i := len(versions) - 1; i >= 0; i-- {
		if versions[i].Selected {
			return versions[i]
		}
	}
	return nil
}
