// Package learner turns heterogeneous feedback signals into preference
// confidence updates. The text channel matches free text against a static
// trigger-term lexicon; the visual channel maps classifier detections to
// weighted deltas. The learner never inspects pixels itself.
package learner

import (
	"context"
	"math"

	"github.com/m-mizutani/goerr/v2"

	"github.com/atelierhq/decormem/pkg/model"
	"github.com/atelierhq/decormem/pkg/service/preference"
)

// Per-channel base weights for visual detections. The effective delta is
// base_weight × detector_confidence; the color channel additionally
// multiplies by cluster area.
const (
	baseWeightStyle    = 0.25
	baseWeightMaterial = 0.20
	baseWeightColor    = 0.25
	baseWeightScalar   = 0.20 // warmth and complexity heuristics
)

// Learner applies extracted signals through the preference store.
type Learner struct {
	prefs *preference.Store
	lex   *Lexicon
}

type Option func(*Learner)

// WithLexicon replaces the embedded trigger-term dictionary.
func WithLexicon(lex *Lexicon) Option {
	return func(l *Learner) {
		l.lex = lex
	}
}

func New(prefs *preference.Store, opts ...Option) (*Learner, error) {
	lex, err := DefaultLexicon()
	if err != nil {
		return nil, err
	}

	l := &Learner{prefs: prefs, lex: lex}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Extract returns the candidate preference signals found in the text.
func (l *Learner) Extract(text string) []Signal {
	return l.lex.Match(text)
}

// LearnFromText applies delta to every signal extracted from the text.
// Each matched (type, value) yields one update; repeated calls compound,
// with each update re-clamped. Returns the number of applied updates.
func (l *Learner) LearnFromText(ctx context.Context, owner model.UserID, text string, delta float64, room model.RoomID) (int, error) {
	applied := 0
	for _, sig := range l.Extract(text) {
		key := model.PreferenceKey{OwnerID: owner, Type: sig.Type, Value: sig.Value}
		if _, err := l.prefs.Update(ctx, key, delta, room); err != nil {
			return applied, goerr.Wrap(err, "text channel update failed",
				goerr.V("type", sig.Type), goerr.V("value", sig.Value))
		}
		applied++
	}
	return applied, nil
}

// LearnFromVisual maps classifier detections to confidence deltas and
// applies them. Returns the number of applied updates. Callers skip this
// channel entirely when the classifier failed; a nil or empty analysis is
// a no-op, not an error.
func (l *Learner) LearnFromVisual(ctx context.Context, owner model.UserID, analysis *model.VisualAnalysis, room model.RoomID) (int, error) {
	if analysis.Empty() {
		return 0, nil
	}

	applied := 0
	apply := func(typ model.PreferenceType, value string, delta float64) error {
		if value == "" || delta <= 0 {
			return nil
		}
		key := model.PreferenceKey{OwnerID: owner, Type: typ, Value: value}
		if _, err := l.prefs.Update(ctx, key, delta, room); err != nil {
			return goerr.Wrap(err, "visual channel update failed",
				goerr.V("type", typ), goerr.V("value", value))
		}
		applied++
		return nil
	}

	for _, style := range analysis.Styles {
		if err := apply(model.PreferenceTypeStyle, style.Label, baseWeightStyle*style.Confidence); err != nil {
			return applied, err
		}
	}

	for _, mat := range analysis.Materials {
		if err := apply(model.PreferenceTypeMaterial, mat.Label, baseWeightMaterial*mat.Confidence); err != nil {
			return applied, err
		}
	}

	for _, color := range analysis.Colors {
		if err := apply(model.PreferenceTypeColor, color.Label, baseWeightColor*color.AreaPct); err != nil {
			return applied, err
		}
	}

	warmthValue, warmthConf := warmthSignal(analysis)
	if err := apply(model.PreferenceTypeWarmth, warmthValue, baseWeightScalar*warmthConf); err != nil {
		return applied, err
	}

	if analysis.Complexity != nil {
		value, conf := scalarSignal(*analysis.Complexity, "simple", "moderate", "complex")
		if err := apply(model.PreferenceTypeComplexity, value, baseWeightScalar*conf); err != nil {
			return applied, err
		}
	}

	return applied, nil
}

// warmthSignal derives a warmth label and confidence from the scalar
// heuristic, or from the color palette when the scalar is missing.
func warmthSignal(analysis *model.VisualAnalysis) (string, float64) {
	if analysis.Warmth != nil {
		return scalarSignal(*analysis.Warmth, "cool", "neutral", "warm")
	}
	return warmthFromColors(analysis.Colors)
}

// scalarSignal buckets a [0,1] heuristic into low/mid/high labels. The
// confidence reflects how decisively the scalar sits in its bucket.
func scalarSignal(s float64, low, mid, high string) (string, float64) {
	switch {
	case s >= 0.6:
		return high, s
	case s <= 0.4:
		return low, 1 - s
	default:
		return mid, 1 - math.Abs(2*s-1)
	}
}

var (
	warmColors = map[string]bool{"red": true, "orange": true, "yellow": true, "pink": true, "brown": true}
	coolColors = map[string]bool{"blue": true, "green": true, "cyan": true, "purple": true, "navy": true}
)

// warmthFromColors aggregates cluster areas into a dominant temperature.
func warmthFromColors(colors []model.ColorCluster) (string, float64) {
	if len(colors) == 0 {
		return "", 0
	}

	var warm, cool, neutral float64
	for _, c := range colors {
		switch {
		case warmColors[c.Label]:
			warm += c.AreaPct
		case coolColors[c.Label]:
			cool += c.AreaPct
		default:
			neutral += c.AreaPct
		}
	}

	switch {
	case warm > cool && warm > neutral:
		return "warm", model.ClampConfidence(warm)
	case cool > warm && cool > neutral:
		return "cool", model.ClampConfidence(cool)
	default:
		return "neutral", model.ClampConfidence(neutral)
	}
}
