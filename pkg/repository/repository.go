package repository

import (
	"context"

	"github.com/atelierhq/decormem/pkg/model"
)

// RecordFilter narrows record listings. Zero values mean no filtering on
// that field; owner filtering is always applied by the caller-facing API.
type RecordFilter struct {
	RoomID    model.RoomID
	SessionID string
}

// Repository is the persistence interface for structured engine state:
// memory record rows, rooms, design versions and images, and the
// preference ledger. Vector search lives in the index service; the
// repository keeps the canonical rows.
type Repository interface {
	// PutRecord stores a memory record. Records are append-only.
	PutRecord(ctx context.Context, rec *model.MemoryRecord) error

	// ListRecords returns the owner's records matching the filter,
	// newest first.
	ListRecords(ctx context.Context, owner model.UserID, filter *RecordFilter) ([]*model.MemoryRecord, error)

	PutRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	ListRooms(ctx context.Context, owner model.UserID) ([]*model.Room, error)
	UpdateRoom(ctx context.Context, room *model.Room) error

	// PutVersion stores a design version. Returns model.ErrConflict when
	// another version of the room already holds the same version number.
	PutVersion(ctx context.Context, v *model.DesignVersion) error
	GetVersion(ctx context.Context, id model.VersionID) (*model.DesignVersion, error)
	// ListVersions returns a room's versions ordered by version number
	// ascending.
	ListVersions(ctx context.Context, room model.RoomID) ([]*model.DesignVersion, error)
	// LatestVersion returns the version with the greatest number, or
	// model.ErrNotFound when the room has none.
	LatestVersion(ctx context.Context, room model.RoomID) (*model.DesignVersion, error)
	UpdateVersion(ctx context.Context, v *model.DesignVersion) error

	PutImage(ctx context.Context, img *model.DesignImage) error
	GetImage(ctx context.Context, id model.ImageID) (*model.DesignImage, error)
	ListImages(ctx context.Context, version model.VersionID) ([]*model.DesignImage, error)
	UpdateImage(ctx context.Context, img *model.DesignImage) error

	// UpsertPreference applies mutate to the row identified by key under
	// per-key serialization. When no row exists, mutate receives a fresh
	// row with confidence 0. The mutated row is persisted and returned.
	UpsertPreference(ctx context.Context, key model.PreferenceKey, mutate func(*model.Preference)) (*model.Preference, error)
	ListPreferences(ctx context.Context, owner model.UserID) ([]*model.Preference, error)
	DeletePreference(ctx context.Context, key model.PreferenceKey) error
}
