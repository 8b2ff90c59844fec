package adapter

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/atelierhq/decormem/pkg/model"
)

// MockEmbedder produces deterministic bag-of-words embeddings. Texts that
// share words get a high cosine similarity, which is enough for retrieval
// tests and offline use without an embedding provider.
type MockEmbedder struct {
	dimensions int

	// Err, when set, is returned by every Embed call.
	Err error
}

// NewMockEmbedder creates a mock embedder with the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 128
	}
	return &MockEmbedder{dimensions: dimensions}
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	vec := make([]float32, m.dimensions)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'()")
		if word == "" {
			continue
		}
		h := fnv.New64a()
		h.Write([]byte(word))
		vec[h.Sum64()%uint64(m.dimensions)] += 1
	}

	return normalize(vec), nil
}

func (m *MockEmbedder) Dimensions() int {
	return m.dimensions
}

func normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		// All-zero vectors break cosine similarity; use a fixed direction.
		vec[0] = 1
		return vec
	}

	n := float32(math.Sqrt(norm))
	for i := range vec {
		vec[i] /= n
	}
	return vec
}

// MockVision returns a canned analysis, or an error to simulate an
// unavailable classifier.
type MockVision struct {
	Analysis *model.VisualAnalysis
	Err      error

	// Calls counts Classify invocations.
	Calls int
}

func (m *MockVision) Classify(ctx context.Context, image []byte, mimeType string) (*model.VisualAnalysis, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Analysis, nil
}

// MockImageSource serves image bytes from an in-memory map keyed by locator.
type MockImageSource struct {
	Images map[string][]byte
}

func (m *MockImageSource) Fetch(ctx context.Context, locator string) ([]byte, string, error) {
	if data, ok := m.Images[locator]; ok {
		return data, "image/png", nil
	}
	return nil, "", model.ErrNotFound
}
