// Package memory orchestrates the engine: ingestion of interaction text,
// hybrid context retrieval merged with learned preferences and design
// state, and asynchronous preference learning triggered by selections and
// feedback.
package memory

import (
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/atelierhq/decormem/pkg/adapter"
	"github.com/atelierhq/decormem/pkg/repository"
	"github.com/atelierhq/decormem/pkg/service/index"
	"github.com/atelierhq/decormem/pkg/service/learner"
	"github.com/atelierhq/decormem/pkg/service/preference"
	"github.com/atelierhq/decormem/pkg/service/ranker"
	"github.com/atelierhq/decormem/pkg/usecase/design"
)

const defaultTopK = 5

// Manager is the engine's context object: constructed once at process
// start, passed to all callers, closed on shutdown.
type Manager struct {
	repo    repository.Repository
	index   *index.Index
	ranker  *ranker.Ranker
	prefs   *preference.Store
	learner *learner.Learner
	design  *design.UseCase

	// vision and images may be nil; the visual learning channel is then
	// skipped.
	vision adapter.VisionClassifier
	images adapter.ImageSource

	tasks *dispatcher
	topK  int
	now   func() time.Time

	workers    int
	queueDepth int
}

// NewInput carries the Manager's dependencies.
type NewInput struct {
	Repo    repository.Repository
	Index   *index.Index
	Ranker  *ranker.Ranker
	Prefs   *preference.Store
	Learner *learner.Learner
	Design  *design.UseCase
	Vision  adapter.VisionClassifier
	Images  adapter.ImageSource
}

type Option func(*Manager)

// WithTopK sets the default result count for retrieval.
func WithTopK(k int) Option {
	return func(m *Manager) {
		if k > 0 {
			m.topK = k
		}
	}
}

// WithWorkers sizes the background learning pool.
func WithWorkers(workers, queueDepth int) Option {
	return func(m *Manager) {
		if workers > 0 {
			m.workers = workers
		}
		if queueDepth > 0 {
			m.queueDepth = queueDepth
		}
	}
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// New creates a Manager and starts its learning workers.
func New(input NewInput, opts ...Option) (*Manager, error) {
	if input.Repo == nil || input.Index == nil || input.Ranker == nil ||
		input.Prefs == nil || input.Learner == nil || input.Design == nil {
		return nil, goerr.New("memory manager requires repo, index, ranker, prefs, learner and design")
	}

	m := &Manager{
		repo:       input.Repo,
		index:      input.Index,
		ranker:     input.Ranker,
		prefs:      input.Prefs,
		learner:    input.Learner,
		design:     input.Design,
		vision:     input.Vision,
		images:     input.Images,
		topK:       defaultTopK,
		now:        time.Now,
		workers:    4,
		queueDepth: 64,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.tasks = newDispatcher(m.workers, m.queueDepth)
	return m, nil
}

// Close drains in-flight learning tasks. Each task's updates are
// individually atomic, so abandoning queued work never corrupts state.
func (m *Manager) Close() {
	m.tasks.Close()
}
