package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/atelierhq/decormem/pkg/model"
	"github.com/atelierhq/decormem/pkg/utils/logging"
)

// StoreInput describes one interaction turn to remember.
type StoreInput struct {
	OwnerID   model.UserID
	RoomID    model.RoomID
	SessionID string
	Role      model.Role
	Text      string
	Metadata  map[string]string
}

// Store persists a memory record and indexes it for semantic retrieval.
// User-authored turns additionally feed the implicit-mention learning
// channel in the background.
func (m *Manager) Store(ctx context.Context, input StoreInput) (model.RecordID, error) {
	if input.OwnerID == "" {
		return "", goerr.New("owner ID is required")
	}
	if input.Text == "" {
		return "", goerr.New("text is required", goerr.V("owner_id", input.OwnerID))
	}
	role := input.Role
	if role == "" {
		role = model.RoleUser
	}
	if err := role.Validate(); err != nil {
		return "", err
	}

	record := &model.MemoryRecord{
		ID:        model.NewRecordID(),
		OwnerID:   input.OwnerID,
		RoomID:    input.RoomID,
		SessionID: input.SessionID,
		Role:      role,
		Text:      input.Text,
		Metadata:  input.Metadata,
		CreatedAt: m.now(),
	}

	if err := m.index.Add(ctx, record); err != nil {
		return "", goerr.Wrap(err, "failed to store memory record",
			goerr.V("record_id", record.ID))
	}

	if record.RoomID != "" {
		m.touchRoom(ctx, record.RoomID)
	}

	if role == model.RoleUser {
		owner, room, text := record.OwnerID, record.RoomID, record.Text
		m.tasks.Dispatch(ctx, func(taskCtx context.Context) {
			n, err := m.learner.LearnFromText(taskCtx, owner, text, model.DeltaImplicitMention, room)
			if err != nil {
				logging.From(taskCtx).Warn("implicit mention learning failed",
					"owner_id", owner, "error", err)
				return
			}
			if n > 0 {
				logging.From(taskCtx).Debug("learned from mention",
					"owner_id", owner, "signals", n)
			}
		})
	}

	return record.ID, nil
}
