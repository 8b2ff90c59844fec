package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/atelierhq/decormem/pkg/model"
)

const (
	collRecords        = "memory_records"
	collRooms          = "rooms"
	collVersions       = "design_versions"
	collVersionNumbers = "design_version_numbers"
	collImages         = "design_images"
	collPreferences    = "preferences"
)

// Firestore implements Repository on Cloud Firestore. Preference updates
// and version-number assignment rely on Firestore transactions for their
// atomicity guarantees.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore creates a Firestore-backed repository.
func NewFirestore(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client")
	}

	return &Firestore{client: client}, nil
}

// Close releases the underlying client.
func (r *Firestore) Close() error {
	return r.client.Close()
}

type recordDoc struct {
	ID        string             `firestore:"id"`
	OwnerID   string             `firestore:"owner_id"`
	RoomID    string             `firestore:"room_id"`
	SessionID string             `firestore:"session_id"`
	Role      string             `firestore:"role"`
	Text      string             `firestore:"text"`
	Embedding firestore.Vector32 `firestore:"embedding"`
	Metadata  map[string]string  `firestore:"metadata"`
	CreatedAt time.Time          `firestore:"created_at"`
}

func toRecordDoc(rec *model.MemoryRecord) *recordDoc {
	return &recordDoc{
		ID:        string(rec.ID),
		OwnerID:   string(rec.OwnerID),
		RoomID:    string(rec.RoomID),
		SessionID: rec.SessionID,
		Role:      string(rec.Role),
		Text:      rec.Text,
		Embedding: firestore.Vector32(rec.Embedding),
		Metadata:  rec.Metadata,
		CreatedAt: rec.CreatedAt,
	}
}

func (d *recordDoc) toModel() *model.MemoryRecord {
	return &model.MemoryRecord{
		ID:        model.RecordID(d.ID),
		OwnerID:   model.UserID(d.OwnerID),
		RoomID:    model.RoomID(d.RoomID),
		SessionID: d.SessionID,
		Role:      model.Role(d.Role),
		Text:      d.Text,
		Embedding: []float32(d.Embedding),
		Metadata:  d.Metadata,
		CreatedAt: d.CreatedAt,
	}
}

func (r *Firestore) PutRecord(ctx context.Context, rec *model.MemoryRecord) error {
	_, err := r.client.Collection(collRecords).Doc(string(rec.ID)).Set(ctx, toRecordDoc(rec))
	if err != nil {
		return goerr.Wrap(err, "failed to put record", goerr.V("record_id", rec.ID))
	}
	return nil
}

func (r *Firestore) ListRecords(ctx context.Context, owner model.UserID, filter *RecordFilter) ([]*model.MemoryRecord, error) {
	q := r.client.Collection(collRecords).Query.Where("owner_id", "==", string(owner))
	if filter != nil {
		if filter.RoomID != "" {
			q = q.Where("room_id", "==", string(filter.RoomID))
		}
		if filter.SessionID != "" {
			q = q.Where("session_id", "==", filter.SessionID)
		}
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*model.MemoryRecord
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate records")
		}

		var doc recordDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode record", goerr.V("doc_id", snap.Ref.ID))
		}
		out = append(out, doc.toModel())
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

type roomDoc struct {
	ID        string    `firestore:"id"`
	OwnerID   string    `firestore:"owner_id"`
	Name      string    `firestore:"name"`
	Type      string    `firestore:"type"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func toRoomDoc(room *model.Room) *roomDoc {
	return &roomDoc{
		ID:        string(room.ID),
		OwnerID:   string(room.OwnerID),
		Name:      room.Name,
		Type:      string(room.Type),
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}
}

func (d *roomDoc) toModel() *model.Room {
	return &model.Room{
		ID:        model.RoomID(d.ID),
		OwnerID:   model.UserID(d.OwnerID),
		Name:      d.Name,
		Type:      model.RoomType(d.Type),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (r *Firestore) PutRoom(ctx context.Context, room *model.Room) error {
	_, err := r.client.Collection(collRooms).Doc(string(room.ID)).Set(ctx, toRoomDoc(room))
	if err != nil {
		return goerr.Wrap(err, "failed to put room", goerr.V("room_id", room.ID))
	}
	return nil
}

func (r *Firestore) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	snap, err := r.client.Collection(collRooms).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "room not found", goerr.V("room_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get room", goerr.V("room_id", id))
	}

	var doc roomDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode room", goerr.V("room_id", id))
	}
	return doc.toModel(), nil
}

func (r *Firestore) ListRooms(ctx context.Context, owner model.UserID) ([]*model.Room, error) {
	iter := r.client.Collection(collRooms).Query.Where("owner_id", "==", string(owner)).Documents(ctx)
	defer iter.Stop()

	var out []*model.Room
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate rooms")
		}

		var doc roomDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode room", goerr.V("doc_id", snap.Ref.ID))
		}
		out = append(out, doc.toModel())
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (r *Firestore) UpdateRoom(ctx context.Context, room *model.Room) error {
	return r.PutRoom(ctx, room)
}

type versionDoc struct {
	ID              string    `firestore:"id"`
	RoomID          string    `firestore:"room_id"`
	VersionNumber   int       `firestore:"version_number"`
	Description     string    `firestore:"description"`
	ParentVersionID string    `firestore:"parent_version_id"`
	Selected        bool      `firestore:"selected"`
	Rejected        bool      `firestore:"rejected"`
	CreatedAt       time.Time `firestore:"created_at"`
}

func toVersionDoc(v *model.DesignVersion) *versionDoc {
	return &versionDoc{
		ID:              string(v.ID),
		RoomID:          string(v.RoomID),
		VersionNumber:   v.VersionNumber,
		Description:     v.Description,
		ParentVersionID: string(v.ParentVersionID),
		Selected:        v.Selected,
		Rejected:        v.Rejected,
		CreatedAt:       v.CreatedAt,
	}
}

func (d *versionDoc) toModel() *model.DesignVersion {
	return &model.DesignVersion{
		ID:              model.VersionID(d.ID),
		RoomID:          model.RoomID(d.RoomID),
		VersionNumber:   d.VersionNumber,
		Description:     d.Description,
		ParentVersionID: model.VersionID(d.ParentVersionID),
		Selected:        d.Selected,
		Rejected:        d.Rejected,
		CreatedAt:       d.CreatedAt,
	}
}

// versionNumberKey is the document ID guarding (room, number) uniqueness.
func versionNumberKey(room model.RoomID, number int) string {
	return fmt.Sprintf("%s:%08d", room, number)
}

func (r *Firestore) PutVersion(ctx context.Context, v *model.DesignVersion) error {
	guard := r.client.Collection(collVersionNumbers).Doc(versionNumberKey(v.RoomID, v.VersionNumber))
	doc := r.client.Collection(collVersions).Doc(string(v.ID))

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(guard, map[string]any{
			"room_id":        string(v.RoomID),
			"version_number": v.VersionNumber,
			"version_id":     string(v.ID),
		}); err != nil {
			return err
		}
		return tx.Create(doc, toVersionDoc(v))
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return goerr.Wrap(model.ErrConflict, "version number already assigned",
				goerr.V("room_id", v.RoomID), goerr.V("version_number", v.VersionNumber))
		}
		return goerr.Wrap(err, "failed to put version", goerr.V("version_id", v.ID))
	}
	return nil
}

func (r *Firestore) GetVersion(ctx context.Context, id model.VersionID) (*model.DesignVersion, error) {
	snap, err := r.client.Collection(collVersions).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "design version not found", goerr.V("version_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get version", goerr.V("version_id", id))
	}

	var doc versionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode version", goerr.V("version_id", id))
	}
	return doc.toModel(), nil
}

func (r *Firestore) ListVersions(ctx context.Context, room model.RoomID) ([]*model.DesignVersion, error) {
	iter := r.client.Collection(collVersions).Query.
		Where("room_id", "==", string(room)).
		Documents(ctx)
	defer iter.Stop()

	var out []*model.DesignVersion
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate versions")
		}

		var doc versionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode version", goerr.V("doc_id", snap.Ref.ID))
		}
		out = append(out, doc.toModel())
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].VersionNumber < out[j].VersionNumber
	})
	return out, nil
}

func (r *Firestore) LatestVersion(ctx context.Context, room model.RoomID) (*model.DesignVersion, error) {
	versions, err := r.ListVersions(ctx, room)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, goerr.Wrap(model.ErrNotFound, "room has no versions", goerr.V("room_id", room))
	}
	return versions[len(versions)-1], nil
}

func (r *Firestore) UpdateVersion(ctx context.Context, v *model.DesignVersion) error {
	_, err := r.client.Collection(collVersions).Doc(string(v.ID)).Set(ctx, toVersionDoc(v))
	if err != nil {
		return goerr.Wrap(err, "failed to update version", goerr.V("version_id", v.ID))
	}
	return nil
}

type imageDoc struct {
	ID        string    `firestore:"id"`
	VersionID string    `firestore:"version_id"`
	Locator   string    `firestore:"locator"`
	Selected  bool      `firestore:"selected"`
	CreatedAt time.Time `firestore:"created_at"`
}

func toImageDoc(img *model.DesignImage) *imageDoc {
	return &imageDoc{
		ID:        string(img.ID),
		VersionID: string(img.VersionID),
		Locator:   img.Locator,
		Selected:  img.Selected,
		CreatedAt: img.CreatedAt,
	}
}

func (d *imageDoc) toModel() *model.DesignImage {
	return &model.DesignImage{
		ID:        model.ImageID(d.ID),
		VersionID: model.VersionID(d.VersionID),
		Locator:   d.Locator,
		Selected:  d.Selected,
		CreatedAt: d.CreatedAt,
	}
}

func (r *Firestore) PutImage(ctx context.Context, img *model.DesignImage) error {
	_, err := r.client.Collection(collImages).Doc(string(img.ID)).Set(ctx, toImageDoc(img))
	if err != nil {
		return goerr.Wrap(err, "failed to put image", goerr.V("image_id", img.ID))
	}
	return nil
}

func (r *Firestore) GetImage(ctx context.Context, id model.ImageID) (*model.DesignImage, error) {
	snap, err := r.client.Collection(collImages).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "design image not found", goerr.V("image_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get image", goerr.V("image_id", id))
	}

	var doc imageDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode image", goerr.V("image_id", id))
	}
	return doc.toModel(), nil
}

func (r *Firestore) ListImages(ctx context.Context, version model.VersionID) ([]*model.DesignImage, error) {
	iter := r.client.Collection(collImages).Query.
		Where("version_id", "==", string(version)).
		Documents(ctx)
	defer iter.Stop()

	var out []*model.DesignImage
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate images")
		}

		var doc imageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode image", goerr.V("doc_id", snap.Ref.ID))
		}
		out = append(out, doc.toModel())
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *Firestore) UpdateImage(ctx context.Context, img *model.DesignImage) error {
	return r.PutImage(ctx, img)
}

type preferenceDoc struct {
	ID           string    `firestore:"id"`
	OwnerID      string    `firestore:"owner_id"`
	Type         string    `firestore:"type"`
	Value        string    `firestore:"value"`
	Confidence   float64   `firestore:"confidence"`
	SourceRoomID string    `firestore:"source_room_id"`
	CreatedAt    time.Time `firestore:"created_at"`
	UpdatedAt    time.Time `firestore:"updated_at"`
}

func toPreferenceDoc(p *model.Preference) *preferenceDoc {
	return &preferenceDoc{
		ID:           string(p.ID),
		OwnerID:      string(p.OwnerID),
		Type:         string(p.Type),
		Value:        p.Value,
		Confidence:   p.Confidence,
		SourceRoomID: string(p.SourceRoomID),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (d *preferenceDoc) toModel() *model.Preference {
	return &model.Preference{
		ID:           model.PreferenceID(d.ID),
		OwnerID:      model.UserID(d.OwnerID),
		Type:         model.PreferenceType(d.Type),
		Value:        d.Value,
		Confidence:   d.Confidence,
		SourceRoomID: model.RoomID(d.SourceRoomID),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// preferenceDocID derives a deterministic document ID from the key so that
// all writers for the same (owner, type, value) contend on one document.
func preferenceDocID(key model.PreferenceKey) string {
	id := fmt.Sprintf("%s:%s:%s", key.OwnerID, key.Type, key.Value)
	return strings.ReplaceAll(id, "/", "_")
}

func (r *Firestore) UpsertPreference(ctx context.Context, key model.PreferenceKey, mutate func(*model.Preference)) (*model.Preference, error) {
	ref := r.client.Collection(collPreferences).Doc(preferenceDocID(key))

	var result model.Preference
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)

		var row model.Preference
		switch {
		case err == nil:
			var doc preferenceDoc
			if err := snap.DataTo(&doc); err != nil {
				return goerr.Wrap(err, "failed to decode preference")
			}
			row = *doc.toModel()
		case status.Code(err) == codes.NotFound:
			row = model.Preference{
				ID:        model.NewPreferenceID(),
				OwnerID:   key.OwnerID,
				Type:      key.Type,
				Value:     key.Value,
				CreatedAt: time.Now(),
			}
		default:
			return goerr.Wrap(err, "failed to get preference")
		}

		mutate(&row)
		result = row
		return tx.Set(ref, toPreferenceDoc(&row))
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to upsert preference",
			goerr.V("owner_id", key.OwnerID), goerr.V("type", key.Type), goerr.V("value", key.Value))
	}

	return &result, nil
}

func (r *Firestore) ListPreferences(ctx context.Context, owner model.UserID) ([]*model.Preference, error) {
	iter := r.client.Collection(collPreferences).Query.
		Where("owner_id", "==", string(owner)).
		Documents(ctx)
	defer iter.Stop()

	var out []*model.Preference
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate preferences")
		}

		var doc preferenceDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode preference", goerr.V("doc_id", snap.Ref.ID))
		}
		out = append(out, doc.toModel())
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out, nil
}

func (r *Firestore) DeletePreference(ctx context.Context, key model.PreferenceKey) error {
	_, err := r.client.Collection(collPreferences).Doc(preferenceDocID(key)).Delete(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to delete preference",
			goerr.V("owner_id", key.OwnerID), goerr.V("type", key.Type), goerr.V("value", key.Value))
	}
	return nil
}
