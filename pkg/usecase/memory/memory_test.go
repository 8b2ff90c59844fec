package memory_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/atelierhq/decormem/pkg/adapter"
	"github.com/atelierhq/decormem/pkg/model"
	"github.com/atelierhq/decormem/pkg/repository"
	"github.com/atelierhq/decormem/pkg/service/index"
	"github.com/atelierhq/decormem/pkg/service/learner"
	"github.com/atelierhq/decormem/pkg/service/preference"
	"github.com/atelierhq/decormem/pkg/service/ranker"
	"github.com/atelierhq/decormem/pkg/usecase/design"
	"github.com/atelierhq/decormem/pkg/usecase/memory"
)

type testEngine struct {
	manager *memory.Manager
	repo    *repository.Memory
	index   *index.Index
	prefs   *preference.Store
	vision  *adapter.MockVision
	images  *adapter.MockImageSource
	now     time.Time
}

func newEngine(t *testing.T) *testEngine {
	t.Helper()

	repo := repository.NewMemory()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	idx, err := index.New(repo, adapter.NewMockEmbedder(0), "")
	gt.NoError(t, err)

	prefs := preference.New(repo, preference.WithClock(clock))
	lrn, err := learner.New(prefs)
	gt.NoError(t, err)

	vision := &adapter.MockVision{}
	images := &adapter.MockImageSource{Images: map[string][]byte{}}

	manager, err := memory.New(memory.NewInput{
		Repo:    repo,
		Index:   idx,
		Ranker:  ranker.New(),
		Prefs:   prefs,
		Learner: lrn,
		Design:  design.New(repo, design.WithClock(clock)),
		Vision:  vision,
		Images:  images,
	}, memory.WithClock(clock))
	gt.NoError(t, err)
	t.Cleanup(manager.Close)

	return &testEngine{
		manager: manager,
		repo:    repo,
		index:   idx,
		prefs:   prefs,
		vision:  vision,
		images:  images,
		now:     now,
	}
}

func TestStoreAndRetrieve(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	room, err := e.manager.CreateRoom(ctx, "owner-1", "living room", model.RoomTypeLivingRoom)
	gt.NoError(t, err)

	_, err = e.manager.Store(ctx, memory.StoreInput{
		OwnerID:   "owner-1",
		RoomID:    room.ID,
		SessionID: "session-1",
		Role:      model.RoleUser,
		Text:      "I want a warm reading corner with a leather armchair",
	})
	gt.NoError(t, err)

	result, err := e.manager.RetrieveRelevantContext(ctx, memory.RetrieveInput{
		OwnerID: "owner-1",
		Query:   "leather armchair for reading",
		RoomID:  room.ID,
	})
	gt.NoError(t, err)
	gt.True(t, len(result.Records) > 0)
	gt.S(t, result.Records[0].Record.Text).Contains("leather armchair")
}

// A week-old record must still be retrievable, at a reduced score.
func TestRetrieveOldRecord(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	old := &model.MemoryRecord{
		ID:        model.NewRecordID(),
		OwnerID:   "owner-1",
		Role:      model.RoleUser,
		Text:      "remember I prefer rattan baskets for storage",
		CreatedAt: e.now.AddDate(0, 0, -7),
	}
	gt.NoError(t, e.index.Add(ctx, old))

	result, err := e.manager.RetrieveRelevantContext(ctx, memory.RetrieveInput{
		OwnerID: "owner-1",
		Query:   "rattan baskets storage",
	})
	gt.NoError(t, err)
	gt.A(t, result.Records).Length(1)

	r := result.Records[0]
	gt.True(t, math.Abs(r.Recency-0.5) < 1e-9)
	gt.True(t, math.Abs(r.Score-(0.7*r.Similarity+0.3*0.5)) < 1e-9)
}

func TestStoreValidation(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.manager.Store(ctx, memory.StoreInput{OwnerID: "", Text: "hi"})
	gt.Error(t, err)

	_, err = e.manager.Store(ctx, memory.StoreInput{OwnerID: "owner-1", Text: ""})
	gt.Error(t, err)

	_, err = e.manager.Store(ctx, memory.StoreInput{OwnerID: "owner-1", Text: "hi", Role: "narrator"})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidRole))
}

func TestRetrieveEmptyOwner(t *testing.T) {
	e := newEngine(t)

	result, err := e.manager.RetrieveRelevantContext(context.Background(), memory.RetrieveInput{
		OwnerID: "nobody",
		Query:   "anything at all",
	})
	gt.NoError(t, err)
	gt.A(t, result.Records).Length(0)
	gt.A(t, result.Preferences).Length(0)
	gt.V(t, result.LatestVersion).Nil()
	gt.V(t, result.Referenced).Nil()
}

func TestRetrieveLatestVersion(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	room, err := e.manager.CreateRoom(ctx, "owner-1", "office", model.RoomTypeOffice)
	gt.NoError(t, err)
	_, err = e.manager.CreateVersion(ctx, room.ID, "standing desk layout", "")
	gt.NoError(t, err)
	v2, err := e.manager.CreateVersion(ctx, room.ID, "added bookshelves", "")
	gt.NoError(t, err)

	result, err := e.manager.RetrieveRelevantContext(ctx, memory.RetrieveInput{
		OwnerID: "owner-1",
		Query:   "what about the desk",
		RoomID:  room.ID,
	})
	gt.NoError(t, err)
	gt.V(t, result.LatestVersion).NotNil()
	gt.V(t, result.LatestVersion.ID).Equal(v2.ID)
}

func TestCrossRoomReference(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	living, err := e.manager.CreateRoom(ctx, "owner-1", "living room", model.RoomTypeLivingRoom)
	gt.NoError(t, err)
	bedroom, err := e.manager.CreateRoom(ctx, "owner-1", "bedroom", model.RoomTypeBedroom)
	gt.NoError(t, err)

	v, err := e.manager.CreateVersion(ctx, bedroom.ID, "sage green walls with oak bed", "")
	gt.NoError(t, err)
	gt.NoError(t, e.manager.LearnFromSelection(ctx, memory.SelectionInput{
		OwnerID:   "owner-1",
		RoomID:    bedroom.ID,
		VersionID: v.ID,
	}))

	result, err := e.manager.RetrieveRelevantContext(ctx, memory.RetrieveInput{
		OwnerID: "owner-1",
		Query:   "use the same colors as the bedroom here",
		RoomID:  living.ID,
	})
	gt.NoError(t, err)
	gt.V(t, result.Referenced).NotNil()
	gt.V(t, result.Referenced.Room.ID).Equal(bedroom.ID)
	gt.V(t, result.Referenced.SelectedVersion).NotNil()
	gt.V(t, result.Referenced.SelectedVersion.ID).Equal(v.ID)
}

func TestCrossRoomExcludesCurrent(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	bedroom, err := e.manager.CreateRoom(ctx, "owner-1", "bedroom", model.RoomTypeBedroom)
	gt.NoError(t, err)

	result, err := e.manager.RetrieveRelevantContext(ctx, memory.RetrieveInput{
		OwnerID: "owner-1",
		Query:   "new ideas for the bedroom",
		RoomID:  bedroom.ID,
	})
	gt.NoError(t, err)
	gt.V(t, result.Referenced).Nil()
}

func TestLearnFromSelection(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	room, err := e.manager.CreateRoom(ctx, "owner-1", "living room", model.RoomTypeLivingRoom)
	gt.NoError(t, err)
	v, err := e.manager.CreateVersion(ctx, room.ID, "minimalist layout with walnut shelving", "")
	gt.NoError(t, err)

	img, err := e.manager.AttachImage(ctx, v.ID, "gs://renders/v1.png")
	gt.NoError(t, err)
	e.images.Images["gs://renders/v1.png"] = []byte("png-bytes")
	e.vision.Analysis = &model.VisualAnalysis{
		Styles: []model.Detection{{Label: "modern", Confidence: 1.0}},
	}

	gt.NoError(t, e.manager.LearnFromSelection(ctx, memory.SelectionInput{
		OwnerID:   "owner-1",
		RoomID:    room.ID,
		VersionID: v.ID,
		ImageID:   img.ID,
	}))

	// The selection flag is applied synchronously.
	versions, err := e.manager.Versions(ctx, room.ID)
	gt.NoError(t, err)
	gt.True(t, versions[0].Selected)

	// Close drains the background learning task.
	e.manager.Close()

	gt.V(t, e.vision.Calls).Equal(1)

	prefs, err := e.prefs.Get(ctx, "owner-1")
	gt.NoError(t, err)

	found := map[string]float64{}
	for _, p := range prefs {
		found[string(p.Type)+"/"+p.Value] = p.Confidence
	}

	// Text channel: "minimalist" and "walnut" at the selection delta,
	// plus the visual style at 0.25 stacked on the text's 0.30.
	gt.True(t, math.Abs(found["style/modern"]-0.55) < 1e-9)
	gt.True(t, math.Abs(found["material/wood"]-0.30) < 1e-9)
}

func TestLearnFromSelectionVisualFailure(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	room, err := e.manager.CreateRoom(ctx, "owner-1", "study", model.RoomTypeOffice)
	gt.NoError(t, err)
	v, err := e.manager.CreateVersion(ctx, room.ID, "leather reading chair", "")
	gt.NoError(t, err)
	img, err := e.manager.AttachImage(ctx, v.ID, "gs://renders/missing.png")
	gt.NoError(t, err)

	// The image bytes are unavailable; the text channel must still land.
	gt.NoError(t, e.manager.LearnFromSelection(ctx, memory.SelectionInput{
		OwnerID:   "owner-1",
		RoomID:    room.ID,
		VersionID: v.ID,
		ImageID:   img.ID,
	}))
	e.manager.Close()

	prefs, err := e.prefs.Get(ctx, "owner-1")
	gt.NoError(t, err)
	gt.A(t, prefs).Length(1)
	gt.V(t, prefs[0].Value).Equal("leather")
	gt.True(t, math.Abs(prefs[0].Confidence-0.30) < 1e-9)
}

func TestLearnFromFeedback(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	gt.NoError(t, e.manager.LearnFromFeedback(ctx, memory.FeedbackInput{
		OwnerID:    "owner-1",
		Text:       "I love the velvet cushions",
		IsPositive: true,
	}))
	gt.NoError(t, e.manager.LearnFromFeedback(ctx, memory.FeedbackInput{
		OwnerID:    "owner-1",
		Text:       "no leather please",
		IsPositive: false,
	}))
	e.manager.Close()

	prefs, err := e.prefs.Get(ctx, "owner-1")
	gt.NoError(t, err)

	found := map[string]float64{}
	for _, p := range prefs {
		found[p.Value] = p.Confidence
	}

	gt.True(t, math.Abs(found["velvet"]-0.20) < 1e-9)

	// The disliked material clamped to 0 and was removed on read.
	_, ok := found["leather"]
	gt.False(t, ok)
}

func TestImplicitMentionLearning(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.manager.Store(ctx, memory.StoreInput{
		OwnerID: "owner-1",
		Role:    model.RoleUser,
		Text:    "thinking about scandinavian style for the hallway",
	})
	gt.NoError(t, err)

	// Agent turns never feed the learner.
	_, err = e.manager.Store(ctx, memory.StoreInput{
		OwnerID: "owner-1",
		Role:    model.RoleAgent,
		Text:    "an industrial look could also work",
	})
	gt.NoError(t, err)

	e.manager.Close()

	prefs, err := e.prefs.Get(ctx, "owner-1")
	gt.NoError(t, err)

	found := map[string]bool{}
	for _, p := range prefs {
		found[p.Value] = true
		if p.Value == "scandinavian" {
			gt.True(t, math.Abs(p.Confidence-model.DeltaImplicitMention) < 1e-9)
		}
	}
	gt.True(t, found["scandinavian"])
	gt.False(t, found["industrial"])
}

func TestStoreTouchesRoom(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	room, err := e.manager.CreateRoom(ctx, "owner-1", "kitchen", model.RoomTypeKitchen)
	gt.NoError(t, err)

	_, err = e.manager.Store(ctx, memory.StoreInput{
		OwnerID: "owner-1",
		RoomID:  room.ID,
		Text:    "counter material options",
	})
	gt.NoError(t, err)

	got, err := e.manager.GetRoom(ctx, room.ID)
	gt.NoError(t, err)
	gt.True(t, !got.UpdatedAt.Before(room.UpdatedAt))
}

func TestFormat(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	room, err := e.manager.CreateRoom(ctx, "owner-1", "living room", model.RoomTypeLivingRoom)
	gt.NoError(t, err)
	_, err = e.manager.CreateVersion(ctx, room.ID, "bright open layout", "")
	gt.NoError(t, err)
	_, err = e.manager.Store(ctx, memory.StoreInput{
		OwnerID: "owner-1",
		RoomID:  room.ID,
		Text:    "I keep coming back to linen curtains",
	})
	gt.NoError(t, err)

	result, err := e.manager.RetrieveRelevantContext(ctx, memory.RetrieveInput{
		OwnerID: "owner-1",
		Query:   "what about linen curtains",
		RoomID:  room.ID,
	})
	gt.NoError(t, err)

	formatted := result.Format()
	gt.S(t, formatted).Contains("## Current Design")
	gt.S(t, formatted).Contains("bright open layout")
	gt.S(t, formatted).Contains("## Relevant Past Conversations")
	gt.S(t, formatted).Contains("linen curtains")
}
