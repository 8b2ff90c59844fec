package learner_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/atelierhq/decormem/pkg/model"
	"github.com/atelierhq/decormem/pkg/repository"
	"github.com/atelierhq/decormem/pkg/service/learner"
	"github.com/atelierhq/decormem/pkg/service/preference"
)

func newLearner(t *testing.T) (*learner.Learner, *preference.Store, repository.Repository) {
	repo := repository.NewMemory()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	prefs := preference.New(repo, preference.WithClock(func() time.Time { return now }))
	l, err := learner.New(prefs)
	gt.NoError(t, err)
	return l, prefs, repo
}

func findPref(t *testing.T, prefs []*model.Preference, typ model.PreferenceType, value string) *model.Preference {
	t.Helper()
	for _, p := range prefs {
		if p.Type == typ && p.Value == value {
			return p
		}
	}
	t.Fatalf("preference %s/%s not found", typ, value)
	return nil
}

func TestExtract(t *testing.T) {
	l, _, _ := newLearner(t)

	t.Run("synonyms map to canonical values", func(t *testing.T) {
		signals := l.Extract("I love the cozy farmhouse look with walnut floors")
		types := map[model.PreferenceType]string{}
		for _, s := range signals {
			types[s.Type] = s.Value
		}
		gt.V(t, types[model.PreferenceTypeStyle]).Equal("rustic")
		gt.V(t, types[model.PreferenceTypeMaterial]).Equal("wood")
		gt.V(t, types[model.PreferenceTypeWarmth]).Equal("warm")
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		signals := l.Extract("SAGE accents would be nice")
		gt.A(t, signals).Length(1)
		gt.V(t, signals[0].Type).Equal(model.PreferenceTypeColor)
		gt.V(t, signals[0].Value).Equal("green")
	})

	t.Run("no triggers means no signals", func(t *testing.T) {
		gt.A(t, l.Extract("let's talk about the budget")).Length(0)
	})
}

func TestLearnFromText(t *testing.T) {
	l, prefs, _ := newLearner(t)
	ctx := context.Background()

	// "minimalist" triggers both the modern style and, through the
	// embedded "minimal" term, the simple complexity value.
	n, err := l.LearnFromText(ctx, "owner-1", "I want a minimalist bedroom with oak furniture", model.DeltaImplicitMention, "room-1")
	gt.NoError(t, err)
	gt.V(t, n).Equal(3)

	got, err := prefs.Get(ctx, "owner-1")
	gt.NoError(t, err)

	style := findPref(t, got, model.PreferenceTypeStyle, "modern")
	gt.True(t, math.Abs(style.Confidence-0.10) < 1e-9)
	gt.V(t, style.SourceRoomID).Equal(model.RoomID("room-1"))

	wood := findPref(t, got, model.PreferenceTypeMaterial, "wood")
	gt.True(t, math.Abs(wood.Confidence-0.10) < 1e-9)
}

func TestLearnFromTextNegative(t *testing.T) {
	l, prefs, _ := newLearner(t)
	ctx := context.Background()

	_, err := l.LearnFromText(ctx, "owner-1", "I like velvet", model.DeltaSelection, "")
	gt.NoError(t, err)
	_, err = l.LearnFromText(ctx, "owner-1", "actually no velvet please", model.DeltaNegativeFeedback, "")
	gt.NoError(t, err)

	got, err := prefs.Get(ctx, "owner-1")
	gt.NoError(t, err)
	velvet := findPref(t, got, model.PreferenceTypeMaterial, "velvet")
	gt.True(t, math.Abs(velvet.Confidence-0.10) < 1e-9)
}

func TestLearnFromVisual(t *testing.T) {
	l, prefs, _ := newLearner(t)
	ctx := context.Background()

	warmth := 0.8
	complexity := 0.2
	analysis := &model.VisualAnalysis{
		Styles:    []model.Detection{{Label: "scandinavian", Confidence: 0.9}},
		Materials: []model.Detection{{Label: "wood", Confidence: 0.8}},
		Colors: []model.ColorCluster{
			{Label: "white", Hex: "#f5f5f0", AreaPct: 0.6},
			{Label: "blue", Hex: "#27408b", AreaPct: 0.2},
		},
		Warmth:     &warmth,
		Complexity: &complexity,
	}

	n, err := l.LearnFromVisual(ctx, "owner-1", analysis, "room-1")
	gt.NoError(t, err)
	gt.V(t, n).Equal(6)

	got, err := prefs.Get(ctx, "owner-1")
	gt.NoError(t, err)

	// style: 0.25 * 0.9, material: 0.20 * 0.8, color: 0.25 * area.
	gt.True(t, math.Abs(findPref(t, got, model.PreferenceTypeStyle, "scandinavian").Confidence-0.225) < 1e-9)
	gt.True(t, math.Abs(findPref(t, got, model.PreferenceTypeMaterial, "wood").Confidence-0.16) < 1e-9)
	gt.True(t, math.Abs(findPref(t, got, model.PreferenceTypeColor, "white").Confidence-0.15) < 1e-9)
	gt.True(t, math.Abs(findPref(t, got, model.PreferenceTypeColor, "blue").Confidence-0.05) < 1e-9)

	// warmth 0.8 buckets to "warm" at confidence 0.8: 0.20 * 0.8.
	gt.True(t, math.Abs(findPref(t, got, model.PreferenceTypeWarmth, "warm").Confidence-0.16) < 1e-9)
	// complexity 0.2 buckets to "simple" at confidence 0.8: 0.20 * 0.8.
	gt.True(t, math.Abs(findPref(t, got, model.PreferenceTypeComplexity, "simple").Confidence-0.16) < 1e-9)
}

func TestLearnFromVisualWarmthFallback(t *testing.T) {
	l, prefs, _ := newLearner(t)
	ctx := context.Background()

	// No warmth scalar: temperature is derived from the palette.
	analysis := &model.VisualAnalysis{
		Colors: []model.ColorCluster{
			{Label: "red", AreaPct: 0.5},
			{Label: "orange", AreaPct: 0.3},
			{Label: "blue", AreaPct: 0.1},
		},
	}

	_, err := l.LearnFromVisual(ctx, "owner-1", analysis, "")
	gt.NoError(t, err)

	got, err := prefs.Get(ctx, "owner-1")
	gt.NoError(t, err)
	warm := findPref(t, got, model.PreferenceTypeWarmth, "warm")
	gt.True(t, math.Abs(warm.Confidence-0.16) < 1e-9)
}

func TestLearnFromVisualEmpty(t *testing.T) {
	l, _, _ := newLearner(t)

	n, err := l.LearnFromVisual(context.Background(), "owner-1", &model.VisualAnalysis{}, "")
	gt.NoError(t, err)
	gt.V(t, n).Equal(0)
}

func TestCustomLexicon(t *testing.T) {
	repo := repository.NewMemory()
	prefs := preference.New(repo)

	path := filepath.Join(t.TempDir(), "lexicon.yml")
	gt.NoError(t, os.WriteFile(path, []byte("style:\n  japandi: [japandi, wabi-sabi]\n"), 0o644))

	lex, err := learner.LoadLexicon(path)
	gt.NoError(t, err)

	l, err := learner.New(prefs, learner.WithLexicon(lex))
	gt.NoError(t, err)

	signals := l.Extract("thinking about a japandi direction")
	gt.A(t, signals).Length(1)
	gt.V(t, signals[0].Value).Equal("japandi")
}
