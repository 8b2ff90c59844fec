package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/atelierhq/decormem/pkg/model"
)

// Memory is an in-process Repository for local use and tests. All methods
// return copies so callers never share mutable state with the store.
type Memory struct {
	mu        sync.RWMutex
	records   []*model.MemoryRecord
	rooms     map[model.RoomID]*model.Room
	versions  map[model.VersionID]*model.DesignVersion
	images    map[model.ImageID]*model.DesignImage
	prefs     map[model.PreferenceKey]*model.Preference
	prefLocks map[model.PreferenceKey]*sync.Mutex

	// versionMu serializes version-number uniqueness checks.
	versionMu sync.Mutex
}

// NewMemory creates an empty in-process repository.
func NewMemory() *Memory {
	return &Memory{
		rooms:     make(map[model.RoomID]*model.Room),
		versions:  make(map[model.VersionID]*model.DesignVersion),
		images:    make(map[model.ImageID]*model.DesignImage),
		prefs:     make(map[model.PreferenceKey]*model.Preference),
		prefLocks: make(map[model.PreferenceKey]*sync.Mutex),
	}
}

func (m *Memory) PutRecord(ctx context.Context, rec *model.MemoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *rec
	m.records = append(m.records, &cp)
	return nil
}

func (m *Memory) ListRecords(ctx context.Context, owner model.UserID, filter *RecordFilter) ([]*model.MemoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*model.MemoryRecord
	for _, rec := range m.records {
		if rec.OwnerID != owner {
			continue
		}
		if filter != nil {
			if filter.RoomID != "" && rec.RoomID != filter.RoomID {
				continue
			}
			if filter.SessionID != "" && rec.SessionID != filter.SessionID {
				continue
			}
		}
		cp := *rec
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) PutRoom(ctx context.Context, room *model.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *room
	m.rooms[room.ID] = &cp
	return nil
}

func (m *Memory) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "room not found", goerr.V("room_id", id))
	}
	cp := *room
	return &cp, nil
}

func (m *Memory) ListRooms(ctx context.Context, owner model.UserID) ([]*model.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*model.Room
	for _, room := range m.rooms {
		if room.OwnerID != owner {
			continue
		}
		cp := *room
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (m *Memory) UpdateRoom(ctx context.Context, room *model.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rooms[room.ID]; !ok {
		return goerr.Wrap(model.ErrNotFound, "room not found", goerr.V("room_id", room.ID))
	}
	cp := *room
	m.rooms[room.ID] = &cp
	return nil
}

func (m *Memory) PutVersion(ctx context.Context, v *model.DesignVersion) error {
	m.versionMu.Lock()
	defer m.versionMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.versions {
		if existing.RoomID == v.RoomID && existing.VersionNumber == v.VersionNumber {
			return goerr.Wrap(model.ErrConflict, "version number already assigned",
				goerr.V("room_id", v.RoomID), goerr.V("version_number", v.VersionNumber))
		}
	}

	cp := *v
	m.versions[v.ID] = &cp
	return nil
}

func (m *Memory) GetVersion(ctx context.Context, id model.VersionID) (*model.DesignVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.versions[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "design version not found", goerr.V("version_id", id))
	}
	cp := *v
	return &cp, nil
}

func (m *Memory) ListVersions(ctx context.Context, room model.RoomID) ([]*model.DesignVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*model.DesignVersion
	for _, v := range m.versions {
		if v.RoomID != room {
			continue
		}
		cp := *v
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].VersionNumber < out[j].VersionNumber
	})
	return out, nil
}

func (m *Memory) LatestVersion(ctx context.Context, room model.RoomID) (*model.DesignVersion, error) {
	versions, err := m.ListVersions(ctx, room)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, goerr.Wrap(model.ErrNotFound, "room has no versions", goerr.V("room_id", room))
	}
	return versions[len(versions)-1], nil
}

func (m *Memory) UpdateVersion(ctx context.Context, v *model.DesignVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.versions[v.ID]; !ok {
		return goerr.Wrap(model.ErrNotFound, "design version not found", goerr.V("version_id", v.ID))
	}
	cp := *v
	m.versions[v.ID] = &cp
	return nil
}

func (m *Memory) PutImage(ctx context.Context, img *model.DesignImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *img
	m.images[img.ID] = &cp
	return nil
}

func (m *Memory) GetImage(ctx context.Context, id model.ImageID) (*model.DesignImage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	img, ok := m.images[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "design image not found", goerr.V("image_id", id))
	}
	cp := *img
	return &cp, nil
}

func (m *Memory) ListImages(ctx context.Context, version model.VersionID) ([]*model.DesignImage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*model.DesignImage
	for _, img := range m.images {
		if img.VersionID != version {
			continue
		}
		cp := *img
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) UpdateImage(ctx context.Context, img *model.DesignImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.images[img.ID]; !ok {
		return goerr.Wrap(model.ErrNotFound, "design image not found", goerr.V("image_id", img.ID))
	}
	cp := *img
	m.images[img.ID] = &cp
	return nil
}

// keyLock returns the mutex serializing updates for one preference key.
func (m *Memory) keyLock(key model.PreferenceKey) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.prefLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.prefLocks[key] = lock
	}
	return lock
}

func (m *Memory) UpsertPreference(ctx context.Context, key model.PreferenceKey, mutate func(*model.Preference)) (*model.Preference, error) {
	lock := m.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	m.mu.RLock()
	existing := m.prefs[key]
	m.mu.RUnlock()

	var row model.Preference
	if existing != nil {
		row = *existing
	} else {
		row = model.Preference{
			ID:        model.NewPreferenceID(),
			OwnerID:   key.OwnerID,
			Type:      key.Type,
			Value:     key.Value,
			CreatedAt: time.Now(),
		}
	}

	mutate(&row)

	m.mu.Lock()
	cp := row
	m.prefs[key] = &cp
	m.mu.Unlock()

	result := row
	return &result, nil
}

func (m *Memory) ListPreferences(ctx context.Context, owner model.UserID) ([]*model.Preference, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*model.Preference
	for _, p := range m.prefs {
		if p.OwnerID != owner {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out, nil
}

func (m *Memory) DeletePreference(ctx context.Context, key model.PreferenceKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.prefs, key)
	return nil
}
