package memory

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"

	"github.com/atelierhq/decormem/pkg/model"
	"github.com/atelierhq/decormem/pkg/utils/logging"
)

// SelectionInput identifies a design choice to learn from.
type SelectionInput struct {
	OwnerID   model.UserID
	RoomID    model.RoomID
	VersionID model.VersionID
	ImageID   model.ImageID // optional; defaults to the version's first image
}

// LearnFromSelection marks the version (and optionally one image) as
// selected, then reinforces the matching preferences in the background.
// The selection flags are applied synchronously; only the learning work
// is deferred.
func (m *Manager) LearnFromSelection(ctx context.Context, input SelectionInput) error {
	if input.OwnerID == "" {
		return goerr.New("owner ID is required")
	}

	version, err := m.design.MarkSelected(ctx, input.VersionID, input.ImageID)
	if err != nil {
		return err
	}

	image := m.selectionImage(ctx, input.VersionID, input.ImageID)

	owner, room, description := input.OwnerID, input.RoomID, version.Description
	m.tasks.Dispatch(ctx, func(taskCtx context.Context) {
		if description != "" {
			if _, err := m.learner.LearnFromText(taskCtx, owner, description, model.DeltaSelection, room); err != nil {
				logging.From(taskCtx).Warn("selection text learning failed",
					"owner_id", owner, "version_id", version.ID, "error", err)
			}
		}
		m.learnVisual(taskCtx, owner, image, room)
	})
	return nil
}

// selectionImage picks the image to analyze: the explicitly chosen one,
// otherwise the version's first image. Missing images are not an error,
// a selection can be purely textual.
func (m *Manager) selectionImage(ctx context.Context, versionID model.VersionID, imageID model.ImageID) *model.DesignImage {
	if imageID != "" {
		image, err := m.repo.GetImage(ctx, imageID)
		if err != nil {
			logging.From(ctx).Warn("failed to load selected image",
				"image_id", imageID, "error", err)
			return nil
		}
		return image
	}

	images, err := m.repo.ListImages(ctx, versionID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			logging.From(ctx).Warn("failed to list version images",
				"version_id", versionID, "error", err)
		}
		return nil
	}
	if len(images) == 0 {
		return nil
	}
	return images[0]
}

// learnVisual runs the visual learning channel. Every failure here is
// logged and skipped: the textual deltas have already been applied and
// must not be rolled back.
func (m *Manager) learnVisual(ctx context.Context, ownerID model.UserID, image *model.DesignImage, roomID model.RoomID) {
	if image == nil {
		return
	}
	if m.vision == nil || m.images == nil {
		logging.From(ctx).Debug("visual learning skipped: no vision pipeline",
			"image_id", image.ID)
		return
	}

	data, mimeType, err := m.images.Fetch(ctx, image.Locator)
	if err != nil {
		logging.From(ctx).Warn("failed to fetch design image",
			"image_id", image.ID, "locator", image.Locator, "error", err)
		return
	}
	analysis, err := m.vision.Classify(ctx, data, mimeType)
	if err != nil {
		logging.From(ctx).Warn("vision classification failed",
			"image_id", image.ID, "error", err)
		return
	}
	n, err := m.learner.LearnFromVisual(ctx, ownerID, analysis, roomID)
	if err != nil {
		logging.From(ctx).Warn("visual preference learning failed",
			"owner_id", ownerID, "image_id", image.ID, "error", err)
		return
	}
	logging.From(ctx).Debug("learned from image",
		"owner_id", ownerID, "image_id", image.ID, "signals", n)
}

// FeedbackInput carries explicit user feedback on a design direction.
type FeedbackInput struct {
	OwnerID    model.UserID
	RoomID     model.RoomID
	Text       string
	IsPositive bool
}

// LearnFromFeedback adjusts preferences mentioned in explicit feedback,
// reinforcing on praise and weakening on rejection. Learning runs in the
// background; the call returns once the task is queued.
func (m *Manager) LearnFromFeedback(ctx context.Context, input FeedbackInput) error {
	if input.OwnerID == "" {
		return goerr.New("owner ID is required")
	}
	if input.Text == "" {
		return goerr.New("feedback text is required", goerr.V("owner_id", input.OwnerID))
	}

	delta := model.DeltaNegativeFeedback
	if input.IsPositive {
		delta = model.DeltaPositiveFeedback
	}

	owner, room, text := input.OwnerID, input.RoomID, input.Text
	m.tasks.Dispatch(ctx, func(taskCtx context.Context) {
		n, err := m.learner.LearnFromText(taskCtx, owner, text, delta, room)
		if err != nil {
			logging.From(taskCtx).Warn("feedback learning failed",
				"owner_id", owner, "error", err)
			return
		}
		logging.From(taskCtx).Debug("learned from feedback",
			"owner_id", owner, "positive", delta > 0, "signals", n)
	})
	return nil
}

// GetPreferences returns the owner's effective preferences, strongest
// first.
func (m *Manager) GetPreferences(ctx context.Context, ownerID model.UserID, types ...model.PreferenceType) ([]*model.Preference, error) {
	return m.prefs.Get(ctx, ownerID, types...)
}
