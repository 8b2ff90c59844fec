// Package index provides the persistent vector index for memory records.
// It wraps chromem-go, an embedded pure-Go vector database, with one
// collection per owner. Embeddings are produced by the configured
// Embedder; the index never re-embeds stored content.
package index

import (
	"context"
	"fmt"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/m-mizutani/goerr/v2"

	"github.com/atelierhq/decormem/pkg/adapter"
	"github.com/atelierhq/decormem/pkg/model"
	"github.com/atelierhq/decormem/pkg/repository"
	"github.com/atelierhq/decormem/pkg/utils/logging"
)

// Scored is a record with its cosine similarity to the query, in [0,1].
type Scored struct {
	Record     *model.MemoryRecord
	Similarity float64
}

// Index stores records and serves filtered nearest-neighbor queries.
// Canonical record rows go to the repository; vectors go to chromem. A
// record whose embedding fails is still persisted (metadata-searchable
// through the repository) but never appears in semantic results.
type Index struct {
	repo     repository.Repository
	embedder adapter.Embedder
	db       *chromem.DB

	// oversample controls how many candidates beyond top_k are pulled
	// for downstream re-ranking.
	oversample int
}

type Option func(*Index)

// WithOversample sets the candidate multiplier for queries.
func WithOversample(n int) Option {
	return func(x *Index) {
		if n > 0 {
			x.oversample = n
		}
	}
}

// New creates an index persisted at path. An empty path keeps the index
// in memory only (tests, throwaway sessions).
func New(repo repository.Repository, embedder adapter.Embedder, path string, opts ...Option) (*Index, error) {
	var db *chromem.DB
	if path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open vector index", goerr.V("path", path))
		}
	}

	x := &Index{
		repo:       repo,
		embedder:   embedder,
		db:         db,
		oversample: 2,
	}

	for _, opt := range opts {
		opt(x)
	}

	return x, nil
}

func collectionName(owner model.UserID) string {
	return fmt.Sprintf("owner-%s", owner)
}

func (x *Index) collection(owner model.UserID) (*chromem.Collection, error) {
	// nil embedding func: documents always arrive with vectors attached.
	col, err := x.db.GetOrCreateCollection(collectionName(owner), nil, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open collection", goerr.V("owner_id", owner))
	}
	return col, nil
}

// Add persists the record and, when embedding succeeds, indexes its
// vector. Embedding failure is non-fatal: the record is stored without a
// vector and a warning is logged.
func (x *Index) Add(ctx context.Context, rec *model.MemoryRecord) error {
	embedding, err := x.embedder.Embed(ctx, rec.Text)
	if err != nil {
		logging.From(ctx).Warn("embedding failed, storing record without vector",
			"record_id", rec.ID, "error", err)
		rec.Embedding = nil
	} else {
		rec.Embedding = embedding
	}

	if err := x.repo.PutRecord(ctx, rec); err != nil {
		return goerr.Wrap(err, "failed to persist record", goerr.V("record_id", rec.ID))
	}

	if rec.Embedding == nil {
		return nil
	}

	col, err := x.collection(rec.OwnerID)
	if err != nil {
		return err
	}

	doc := chromem.Document{
		ID:        string(rec.ID),
		Content:   rec.Text,
		Embedding: rec.Embedding,
		Metadata: map[string]string{
			"owner_id":   string(rec.OwnerID),
			"room_id":    string(rec.RoomID),
			"session_id": rec.SessionID,
			"role":       string(rec.Role),
			"created_at": rec.CreatedAt.Format(time.RFC3339Nano),
		},
	}

	if err := col.AddDocument(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to index record", goerr.V("record_id", rec.ID))
	}

	return nil
}

// Query embeds the query text and returns up to topK×oversample candidate
// records by cosine similarity descending, filtered by owner and the
// optional room/session filter. A query-embedding failure is an error:
// without a vector there is nothing to rank.
func (x *Index) Query(ctx context.Context, owner model.UserID, query string, filter *repository.RecordFilter, topK int) ([]*Scored, error) {
	if topK <= 0 {
		return nil, nil
	}

	embedding, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}

	col, err := x.collection(owner)
	if err != nil {
		return nil, err
	}

	where := map[string]string{"owner_id": string(owner)}
	if filter != nil {
		if filter.RoomID != "" {
			where["room_id"] = string(filter.RoomID)
		}
		if filter.SessionID != "" {
			where["session_id"] = filter.SessionID
		}
	}

	// chromem rejects nResults greater than the collection size.
	n := topK * x.oversample
	if c := col.Count(); n > c {
		n = c
	}
	if n == 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, embedding, n, where, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "vector query failed", goerr.V("owner_id", owner))
	}

	scored := make([]*Scored, 0, len(results))
	for _, res := range results {
		rec, err := recordFromResult(res)
		if err != nil {
			logging.From(ctx).Warn("skipping undecodable index entry", "doc_id", res.ID, "error", err)
			continue
		}
		scored = append(scored, &Scored{
			Record:     rec,
			Similarity: model.ClampConfidence(float64(res.Similarity)),
		})
	}

	return scored, nil
}

// recordFromResult rebuilds a record from the indexed document, avoiding a
// repository round-trip per hit.
func recordFromResult(res chromem.Result) (*model.MemoryRecord, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, res.Metadata["created_at"])
	if err != nil {
		return nil, goerr.Wrap(err, "invalid created_at metadata")
	}

	return &model.MemoryRecord{
		ID:        model.RecordID(res.ID),
		OwnerID:   model.UserID(res.Metadata["owner_id"]),
		RoomID:    model.RoomID(res.Metadata["room_id"]),
		SessionID: res.Metadata["session_id"],
		Role:      model.Role(res.Metadata["role"]),
		Text:      res.Content,
		Embedding: res.Embedding,
		CreatedAt: createdAt,
	}, nil
}
