package adapter

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"github.com/atelierhq/decormem/pkg/model"
)

// VisionClassifier extracts visual features from a rendered design image.
// The engine never analyzes pixels itself; implementations are external
// capabilities and may be unavailable.
type VisionClassifier interface {
	Classify(ctx context.Context, image []byte, mimeType string) (*model.VisualAnalysis, error)
}

const visionPrompt = `Analyze this interior design image and respond with JSON only:
{
  "colors": [{"label": "<basic color name>", "hex": "#rrggbb", "area_pct": <0..1 fraction of image>}],
  "materials": [{"label": "<material, e.g. wood, metal, leather>", "confidence": <0..1>}],
  "styles": [{"label": "<style, e.g. modern, rustic, industrial>", "confidence": <0..1>}],
  "warmth": <0..1, 0 = cool palette, 1 = warm palette>,
  "complexity": <0..1, 0 = minimal, 1 = visually busy>
}
List at most 5 colors, 5 materials and 3 styles, highest weight first.`

// GeminiVision implements VisionClassifier with a multimodal Gemini call.
type GeminiVision struct {
	client *genai.Client
	model  string
}

type GeminiVisionOption func(*GeminiVision)

func WithVisionModel(model string) GeminiVisionOption {
	return func(g *GeminiVision) {
		g.model = model
	}
}

// NewGeminiVision creates a vision classifier backed by Vertex AI.
func NewGeminiVision(ctx context.Context, projectID, location string, opts ...GeminiVisionOption) (*GeminiVision, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	g := &GeminiVision{
		client: client,
		model:  "gemini-2.5-flash",
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

func (g *GeminiVision) Classify(ctx context.Context, image []byte, mimeType string) (*model.VisualAnalysis, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{InlineData: &genai.Blob{Data: image, MIMEType: mimeType}},
				{Text: visionPrompt},
			},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to classify image")
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, goerr.New("vision classifier returned no candidates")
	}

	var analysis model.VisualAnalysis
	raw := resp.Candidates[0].Content.Parts[0].Text
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, goerr.Wrap(err, "failed to parse vision classifier output", goerr.V("raw", raw))
	}

	clampAnalysis(&analysis)
	return &analysis, nil
}

// clampAnalysis bounds all classifier scores to [0,1].
func clampAnalysis(a *model.VisualAnalysis) {
	for i := range a.Colors {
		a.Colors[i].AreaPct = model.ClampConfidence(a.Colors[i].AreaPct)
	}
	for i := range a.Materials {
		a.Materials[i].Confidence = model.ClampConfidence(a.Materials[i].Confidence)
	}
	for i := range a.Styles {
		a.Styles[i].Confidence = model.ClampConfidence(a.Styles[i].Confidence)
	}
	if a.Warmth != nil {
		w := model.ClampConfidence(*a.Warmth)
		a.Warmth = &w
	}
	if a.Complexity != nil {
		c := model.ClampConfidence(*a.Complexity)
		a.Complexity = &c
	}
}
