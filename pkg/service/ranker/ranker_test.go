package ranker_test

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/atelierhq/decormem/pkg/model"
	"github.com/atelierhq/decormem/pkg/service/index"
	"github.com/atelierhq/decormem/pkg/service/ranker"
)

func scoredAt(sim float64, createdAt time.Time) *index.Scored {
	return &index.Scored{
		Record: &model.MemoryRecord{
			ID:        model.NewRecordID(),
			OwnerID:   "owner-1",
			Text:      fmt.Sprintf("record sim=%.2f", sim),
			CreatedAt: createdAt,
		},
		Similarity: sim,
	}
}

func TestRecencyScore(t *testing.T) {
	r := ranker.New()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("fresh record scores 1", func(t *testing.T) {
		gt.V(t, r.RecencyScore(now, now)).Equal(1.0)
	})

	t.Run("future timestamp scores 1", func(t *testing.T) {
		gt.V(t, r.RecencyScore(now.Add(time.Hour), now)).Equal(1.0)
	})

	t.Run("one half-life halves the score", func(t *testing.T) {
		got := r.RecencyScore(now.AddDate(0, 0, -7), now)
		gt.True(t, math.Abs(got-0.5) < 1e-9)
	})

	t.Run("two half-lives quarter the score", func(t *testing.T) {
		got := r.RecencyScore(now.AddDate(0, 0, -14), now)
		gt.True(t, math.Abs(got-0.25) < 1e-9)
	})
}

// A fresh record with similarity 0.80 must outrank a three-week-old
// record with similarity 0.95: 0.7*0.80 + 0.3*1 = 0.86 versus
// 0.7*0.95 + 0.3*0.125 = 0.7025.
func TestRankFreshBeatsStale(t *testing.T) {
	r := ranker.New()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	fresh := scoredAt(0.80, now)
	stale := scoredAt(0.95, now.AddDate(0, 0, -21))

	ranked := r.Rank([]*index.Scored{stale, fresh}, now, 10)
	gt.A(t, ranked).Length(2)

	gt.V(t, ranked[0].Record.ID).Equal(fresh.Record.ID)
	gt.True(t, math.Abs(ranked[0].Score-0.86) < 1e-9)
	gt.True(t, math.Abs(ranked[1].Score-0.7025) < 1e-9)
}

func TestRankTruncatesToTopK(t *testing.T) {
	r := ranker.New()
	now := time.Now()

	var candidates []*index.Scored
	for i := 0; i < 10; i++ {
		candidates = append(candidates, scoredAt(float64(i)/10, now))
	}

	ranked := r.Rank(candidates, now, 3)
	gt.A(t, ranked).Length(3)
	gt.True(t, ranked[0].Score >= ranked[1].Score)
	gt.True(t, ranked[1].Score >= ranked[2].Score)
}

func TestRankTieBreaksByCreatedAt(t *testing.T) {
	r := ranker.New()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// Future-dated timestamps both clamp to recency 1, so the combined
	// scores tie and created_at decides.
	older := scoredAt(0.5, now.Add(time.Minute))
	newer := scoredAt(0.5, now.Add(2*time.Minute))

	ranked := r.Rank([]*index.Scored{older, newer}, now, 2)
	gt.V(t, ranked[0].Record.ID).Equal(newer.Record.ID)
}

func TestRankCustomWeights(t *testing.T) {
	r := ranker.New(ranker.WithWeights(1, 0))
	now := time.Now()

	fresh := scoredAt(0.80, now)
	stale := scoredAt(0.95, now.AddDate(0, 0, -21))

	// With recency weight 0 the stale-but-similar record wins.
	ranked := r.Rank([]*index.Scored{fresh, stale}, now, 2)
	gt.V(t, ranked[0].Record.ID).Equal(stale.Record.ID)
}

func TestRankEmpty(t *testing.T) {
	r := ranker.New()
	ranked := r.Rank(nil, time.Now(), 5)
	gt.A(t, ranked).Length(0)
}
