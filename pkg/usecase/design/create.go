package design

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"

	"github.com/atelierhq/decormem/pkg/model"
)

// Create adds a new design version to the room. The version number is
// max(existing)+1, or 1 for a fresh room. A parent, when given, must be an
// existing version of the same room; otherwise NotFound is returned and
// nothing is written. Concurrent creations that collide on a number are
// retried with a freshly computed one, up to the retry bound.
func (u *UseCase) Create(ctx context.Context, room model.RoomID, description string, parent model.VersionID) (*model.DesignVersion, error) {
	if parent != "" {
		parentVersion, err := u.repo.GetVersion(ctx, parent)
		if err != nil {
			return nil, goerr.Wrap(err, "parent version not found", goerr.V("parent_version_id", parent))
		}
		if parentVersion.RoomID != room {
			return nil, goerr.Wrap(model.ErrNotFound, "parent version belongs to a different room",
				goerr.V("parent_version_id", parent),
				goerr.V("parent_room_id", parentVersion.RoomID),
				goerr.V("room_id", room))
		}
	}

	for attempt := 0; attempt < u.maxRetries; attempt++ {
		next := 1
		latest, err := u.repo.LatestVersion(ctx, room)
		switch {
		case err == nil:
			next = latest.VersionNumber + 1
		case errors.Is(err, model.ErrNotFound):
			// fresh room
		default:
			return nil, goerr.Wrap(err, "failed to resolve next version number", goerr.V("room_id", room))
		}

		version := &model.DesignVersion{
			ID:              model.NewVersionID(),
			RoomID:          room,
			VersionNumber:   next,
			Description:     description,
			ParentVersionID: parent,
			CreatedAt:       u.now(),
		}

		err = u.repo.PutVersion(ctx, version)
		if err == nil {
			return version, nil
		}
		if !errors.Is(err, model.ErrConflict) {
			return nil, goerr.Wrap(err, "failed to store version", goerr.V("room_id", room))
		}
	}

	return nil, goerr.Wrap(model.ErrConflict, "version number contention not resolved",
		goerr.V("room_id", room), goerr.V("retries", u.maxRetries))
}
