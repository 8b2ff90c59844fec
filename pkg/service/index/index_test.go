package index_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/atelierhq/decormem/pkg/adapter"
	"github.com/atelierhq/decormem/pkg/model"
	"github.com/atelierhq/decormem/pkg/repository"
	"github.com/atelierhq/decormem/pkg/service/index"
)

func record(owner model.UserID, room model.RoomID, text string) *model.MemoryRecord {
	return &model.MemoryRecord{
		ID:        model.NewRecordID(),
		OwnerID:   owner,
		RoomID:    room,
		SessionID: "session-1",
		Role:      model.RoleUser,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

func TestAddAndQuery(t *testing.T) {
	repo := repository.NewMemory()
	embedder := adapter.NewMockEmbedder(0)
	idx, err := index.New(repo, embedder, "")
	gt.NoError(t, err)
	ctx := context.Background()

	room := model.NewRoomID()
	gt.NoError(t, idx.Add(ctx, record("owner-1", room, "I want a blue velvet sofa for the living room")))
	gt.NoError(t, idx.Add(ctx, record("owner-1", room, "the kitchen needs new tiles")))
	gt.NoError(t, idx.Add(ctx, record("owner-1", room, "maybe a velvet armchair in blue too")))

	scored, err := idx.Query(ctx, "owner-1", "blue velvet furniture", nil, 2)
	gt.NoError(t, err)
	gt.True(t, len(scored) > 0)

	// The velvet records share vocabulary with the query and must outrank
	// the kitchen one.
	gt.True(t, scored[0].Similarity >= scored[len(scored)-1].Similarity)
	gt.S(t, scored[0].Record.Text).Contains("velvet")
}

func TestQueryRoomFilter(t *testing.T) {
	repo := repository.NewMemory()
	idx, err := index.New(repo, adapter.NewMockEmbedder(0), "")
	gt.NoError(t, err)
	ctx := context.Background()

	roomA := model.NewRoomID()
	roomB := model.NewRoomID()
	gt.NoError(t, idx.Add(ctx, record("owner-1", roomA, "bedroom wall color ideas")))
	gt.NoError(t, idx.Add(ctx, record("owner-1", roomB, "bedroom curtain ideas")))

	scored, err := idx.Query(ctx, "owner-1", "bedroom ideas", &repository.RecordFilter{RoomID: roomA}, 10)
	gt.NoError(t, err)
	gt.A(t, scored).Length(1)
	gt.V(t, scored[0].Record.RoomID).Equal(roomA)
}

func TestQueryOwnerIsolation(t *testing.T) {
	repo := repository.NewMemory()
	idx, err := index.New(repo, adapter.NewMockEmbedder(0), "")
	gt.NoError(t, err)
	ctx := context.Background()

	gt.NoError(t, idx.Add(ctx, record("owner-1", "", "teak dining table")))

	scored, err := idx.Query(ctx, "owner-2", "teak dining table", nil, 5)
	gt.NoError(t, err)
	gt.A(t, scored).Length(0)
}

func TestAddEmbeddingFailure(t *testing.T) {
	repo := repository.NewMemory()
	embedder := adapter.NewMockEmbedder(0)
	idx, err := index.New(repo, embedder, "")
	gt.NoError(t, err)
	ctx := context.Background()

	embedder.Err = errors.New("embedding backend down")
	rec := record("owner-1", "", "unembeddable turn")
	gt.NoError(t, idx.Add(ctx, rec))
	gt.V(t, rec.Embedding).Nil()

	// The record is persisted and metadata-searchable.
	records, err := repo.ListRecords(ctx, "owner-1", nil)
	gt.NoError(t, err)
	gt.A(t, records).Length(1)

	// But it never appears in semantic results.
	embedder.Err = nil
	scored, err := idx.Query(ctx, "owner-1", "unembeddable turn", nil, 5)
	gt.NoError(t, err)
	gt.A(t, scored).Length(0)
}

func TestQueryEmbeddingFailure(t *testing.T) {
	repo := repository.NewMemory()
	embedder := adapter.NewMockEmbedder(0)
	idx, err := index.New(repo, embedder, "")
	gt.NoError(t, err)
	ctx := context.Background()

	gt.NoError(t, idx.Add(ctx, record("owner-1", "", "some stored turn")))

	embedder.Err = errors.New("embedding backend down")
	_, err = idx.Query(ctx, "owner-1", "anything", nil, 5)
	gt.Error(t, err)
}

func TestQueryEmptyIndex(t *testing.T) {
	repo := repository.NewMemory()
	idx, err := index.New(repo, adapter.NewMockEmbedder(0), "")
	gt.NoError(t, err)

	scored, err := idx.Query(context.Background(), "owner-1", "anything", nil, 5)
	gt.NoError(t, err)
	gt.A(t, scored).Length(0)
}

func TestPersistentIndex(t *testing.T) {
	repo := repository.NewMemory()
	path := t.TempDir()

	idx, err := index.New(repo, adapter.NewMockEmbedder(0), path)
	gt.NoError(t, err)
	gt.NoError(t, idx.Add(context.Background(), record("owner-1", "", "persisted turn")))

	// A fresh instance over the same path sees the vectors.
	reopened, err := index.New(repo, adapter.NewMockEmbedder(0), path)
	gt.NoError(t, err)
	scored, err := reopened.Query(context.Background(), "owner-1", "persisted turn", nil, 5)
	gt.NoError(t, err)
	gt.A(t, scored).Length(1)
}
