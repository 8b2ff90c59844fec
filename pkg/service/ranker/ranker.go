// Package ranker merges semantic similarity and time-decayed recency into
// a single hybrid score, so older-but-relevant records can still surface
// while fresh weakly-relevant ones are not drowned out.
package ranker

import (
	"math"
	"sort"
	"time"

	"github.com/atelierhq/decormem/pkg/service/index"
)

const (
	// DefaultSimilarityWeight and DefaultRecencyWeight combine into the
	// hybrid score; DefaultHalfLifeDays halves the recency score per
	// elapsed half-life.
	DefaultSimilarityWeight = 0.7
	DefaultRecencyWeight    = 0.3
	DefaultHalfLifeDays     = 7.0
)

// Ranked is a record with its score breakdown.
type Ranked struct {
	*index.Scored
	Recency float64
	Score   float64
}

// Ranker computes hybrid scores. The zero value is not usable; use New.
type Ranker struct {
	simWeight    float64
	recWeight    float64
	halfLifeDays float64
}

type Option func(*Ranker)

// WithWeights overrides the similarity/recency weights.
func WithWeights(similarity, recency float64) Option {
	return func(r *Ranker) {
		r.simWeight = similarity
		r.recWeight = recency
	}
}

// WithHalfLife overrides the recency half-life in days.
func WithHalfLife(days float64) Option {
	return func(r *Ranker) {
		if days > 0 {
			r.halfLifeDays = days
		}
	}
}

func New(opts ...Option) *Ranker {
	r := &Ranker{
		simWeight:    DefaultSimilarityWeight,
		recWeight:    DefaultRecencyWeight,
		halfLifeDays: DefaultHalfLifeDays,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecencyScore computes 2^(-age_days / half_life) for a record created at
// the given time. Future timestamps score 1.
func (r *Ranker) RecencyScore(createdAt, now time.Time) float64 {
	ageDays := now.Sub(createdAt).Hours() / 24
	if ageDays <= 0 {
		return 1
	}
	return math.Exp2(-ageDays / r.halfLifeDays)
}

// Rank scores the candidates and returns the top_k by combined score
// descending, ties broken by created_at descending.
func (r *Ranker) Rank(candidates []*index.Scored, now time.Time, topK int) []*Ranked {
	ranked := make([]*Ranked, 0, len(candidates))
	for _, c := range candidates {
		recency := r.RecencyScore(c.Record.CreatedAt, now)
		ranked = append(ranked, &Ranked{
			Scored:  c,
			Recency: recency,
			Score:   r.simWeight*c.Similarity + r.recWeight*recency,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Record.CreatedAt.After(ranked[j].Record.CreatedAt)
	})

	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}
