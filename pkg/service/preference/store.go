// Package preference implements the confidence ledger for learned user
// preferences: additive clamped updates, lazy exponential decay on read,
// and removal of preferences that have faded below the threshold.
package preference

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/atelierhq/decormem/pkg/model"
	"github.com/atelierhq/decormem/pkg/repository"
	"github.com/atelierhq/decormem/pkg/utils/logging"
)

const (
	// DefaultDecayRate is the confidence multiplier per decay interval.
	DefaultDecayRate = 0.95
	// DefaultDecayIntervalDays is the interval the decay rate applies to.
	DefaultDecayIntervalDays = 7.0
	// DefaultRemovalThreshold deletes preferences whose effective
	// confidence has fallen below it.
	DefaultRemovalThreshold = 0.05
)

// Store is the preference ledger. Concurrent updates to the same
// (owner, type, value) key are serialized by the repository; confidence
// never leaves [0,1].
type Store struct {
	repo             repository.Repository
	decayRate        float64
	decayIntervalDay float64
	removalThreshold float64
	now              func() time.Time
}

type Option func(*Store)

// WithDecay overrides the decay rate per interval and the interval length
// in days.
func WithDecay(rate, intervalDays float64) Option {
	return func(s *Store) {
		s.decayRate = rate
		s.decayIntervalDay = intervalDays
	}
}

// WithRemovalThreshold overrides the effective-confidence floor below
// which rows are deleted.
func WithRemovalThreshold(threshold float64) Option {
	return func(s *Store) {
		s.removalThreshold = threshold
	}
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(repo repository.Repository, opts ...Option) *Store {
	s := &Store{
		repo:             repo,
		decayRate:        DefaultDecayRate,
		decayIntervalDay: DefaultDecayIntervalDays,
		removalThreshold: DefaultRemovalThreshold,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Update applies a confidence delta to the keyed row, creating it at
// confidence 0 when absent. The result is clamped to [0,1]; out-of-range
// deltas are never an error. sourceRoom, when non-empty, overwrites the
// row's source room.
func (s *Store) Update(ctx context.Context, key model.PreferenceKey, delta float64, sourceRoom model.RoomID) (*model.Preference, error) {
	now := s.now()

	pref, err := s.repo.UpsertPreference(ctx, key, func(p *model.Preference) {
		p.Confidence = model.ClampConfidence(p.Confidence + delta)
		p.UpdatedAt = now
		if sourceRoom != "" {
			p.SourceRoomID = sourceRoom
		}
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update preference",
			goerr.V("type", key.Type), goerr.V("value", key.Value))
	}

	return pref, nil
}

// Effective returns the decayed confidence of a row at the given time:
// stored × rate^(days_since_update / interval). Decay is multiplicative
// and composes over any split of the elapsed time.
func (s *Store) Effective(p *model.Preference, now time.Time) float64 {
	days := now.Sub(p.UpdatedAt).Hours() / 24
	if days <= 0 {
		return p.Confidence
	}
	return p.Confidence * math.Pow(s.decayRate, days/s.decayIntervalDay)
}

// Get returns the owner's preferences with decay applied, sorted by
// effective confidence descending. Rows whose effective confidence has
// dropped below the removal threshold are deleted, not just hidden, so
// callers never observe stale inflated confidence. An optional type list
// filters the result.
func (s *Store) Get(ctx context.Context, owner model.UserID, types ...model.PreferenceType) ([]*model.Preference, error) {
	rows, err := s.repo.ListPreferences(ctx, owner)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list preferences", goerr.V("owner_id", owner))
	}

	now := s.now()
	var out []*model.Preference
	for _, row := range rows {
		if len(types) > 0 && !containsType(types, row.Type) {
			continue
		}

		effective := s.Effective(row, now)
		if effective < s.removalThreshold {
			if err := s.repo.DeletePreference(ctx, row.Key()); err != nil {
				logging.From(ctx).Warn("failed to remove faded preference",
					"type", row.Type, "value", row.Value, "error", err)
			}
			continue
		}

		row.Confidence = effective
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out, nil
}

// Summarize groups the owner's effective preferences by type, keeping
// only values at or above the threshold.
func (s *Store) Summarize(ctx context.Context, owner model.UserID, threshold float64) (map[model.PreferenceType][]string, error) {
	prefs, err := s.Get(ctx, owner)
	if err != nil {
		return nil, err
	}

	summary := make(map[model.PreferenceType][]string)
	for _, p := range prefs {
		if p.Confidence < threshold {
			continue
		}
		summary[p.Type] = append(summary[p.Type], p.Value)
	}
	return summary, nil
}

func containsType(types []model.PreferenceType, t model.PreferenceType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
