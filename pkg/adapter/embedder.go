package adapter

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// Embedder converts text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// GeminiEmbedder implements Embedder using the Gemini embedding API.
type GeminiEmbedder struct {
	client     *genai.Client
	model      string
	dimensions int
}

type GeminiEmbedderOption func(*GeminiEmbedder)

func WithEmbeddingModel(model string) GeminiEmbedderOption {
	return func(g *GeminiEmbedder) {
		g.model = model
	}
}

func WithDimensions(n int) GeminiEmbedderOption {
	return func(g *GeminiEmbedder) {
		g.dimensions = n
	}
}

// NewGeminiEmbedder creates an embedder backed by Vertex AI.
func NewGeminiEmbedder(ctx context.Context, projectID, location string, opts ...GeminiEmbedderOption) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	g := &GeminiEmbedder{
		client:     client,
		model:      "gemini-embedding-001",
		dimensions: 768,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	dims := int32(g.dimensions)
	resp, err := g.client.Models.EmbedContent(ctx, g.model, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed content")
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, goerr.New("embedding response is empty")
	}

	return resp.Embeddings[0].Values, nil
}

func (g *GeminiEmbedder) Dimensions() int {
	return g.dimensions
}
