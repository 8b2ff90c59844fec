package memory

import (
	"context"

	"github.com/atelierhq/decormem/pkg/model"
)

// CreateVersion adds a design version to a room's lineage.
func (m *Manager) CreateVersion(ctx context.Context, roomID model.RoomID, description string, parent model.VersionID) (*model.DesignVersion, error) {
	return m.design.Create(ctx, roomID, description, parent)
}

// RejectVersion flags a version as rejected. No learning is triggered;
// explicit dislikes should come in through LearnFromFeedback.
func (m *Manager) RejectVersion(ctx context.Context, versionID model.VersionID) (*model.DesignVersion, error) {
	return m.design.MarkRejected(ctx, versionID)
}

// Versions lists a room's design versions in lineage order.
func (m *Manager) Versions(ctx context.Context, roomID model.RoomID) ([]*model.DesignVersion, error) {
	return m.design.List(ctx, roomID)
}

// Lineage walks a version's ancestry back to the root.
func (m *Manager) Lineage(ctx context.Context, versionID model.VersionID) ([]*model.DesignVersion, error) {
	return m.design.Lineage(ctx, versionID)
}

// AttachImage records a rendered image for a version.
func (m *Manager) AttachImage(ctx context.Context, versionID model.VersionID, locator string) (*model.DesignImage, error) {
	return m.design.AttachImage(ctx, versionID, locator)
}
