package memory

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"

	"github.com/atelierhq/decormem/pkg/model"
	"github.com/atelierhq/decormem/pkg/repository"
	"github.com/atelierhq/decormem/pkg/service/ranker"
	"github.com/atelierhq/decormem/pkg/utils/logging"
)

// RetrieveInput describes a context retrieval request.
type RetrieveInput struct {
	OwnerID model.UserID
	Query   string
	RoomID  model.RoomID // optional scope filter
	TopK    int          // 0 means the manager default
}

// ReferencedRoom is another room the query mentions by name or type,
// together with its most recently selected design when one exists.
type ReferencedRoom struct {
	Room            *model.Room
	SelectedVersion *model.DesignVersion
}

// Context is the assembled result handed to the conversational layer.
type Context struct {
	Records       []*ranker.Ranked
	Preferences   []*model.Preference
	LatestVersion *model.DesignVersion
	Referenced    *ReferencedRoom
}

// RetrieveRelevantContext runs hybrid retrieval over the owner's memory,
// folds in effective preferences and the active room's latest design
// version, and resolves cross-room references in the query.
func (m *Manager) RetrieveRelevantContext(ctx context.Context, input RetrieveInput) (*Context, error) {
	if input.OwnerID == "" {
		return nil, goerr.New("owner ID is required")
	}
	if input.Query == "" {
		return nil, goerr.New("query is required", goerr.V("owner_id", input.OwnerID))
	}
	topK := input.TopK
	if topK <= 0 {
		topK = m.topK
	}

	filter := &repository.RecordFilter{RoomID: input.RoomID}
	scored, err := m.index.Query(ctx, input.OwnerID, input.Query, filter, topK)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query memory index",
			goerr.V("owner_id", input.OwnerID))
	}
	ranked := m.ranker.Rank(scored, m.now(), topK)

	prefs, err := m.prefs.Get(ctx, input.OwnerID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load preferences",
			goerr.V("owner_id", input.OwnerID))
	}

	result := &Context{
		Records:     ranked,
		Preferences: prefs,
	}

	if input.RoomID != "" {
		latest, err := m.repo.LatestVersion(ctx, input.RoomID)
		switch {
		case err == nil:
			result.LatestVersion = latest
		case errors.Is(err, model.ErrNotFound):
			// No versions yet for this room.
		default:
			return nil, goerr.Wrap(err, "failed to load latest design version",
				goerr.V("room_id", input.RoomID))
		}
	}

	result.Referenced = m.resolveRoomReference(ctx, input.OwnerID, input.Query, input.RoomID)

	logging.From(ctx).Debug("retrieved context",
		"owner_id", input.OwnerID,
		"records", len(result.Records),
		"preferences", len(result.Preferences),
		"cross_room", result.Referenced != nil)
	return result, nil
}
