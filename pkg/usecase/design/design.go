// Package design manages the versioned lineage of room designs: monotonic
// version numbering, parent links, selection and rejection flags, and
// attached images.
package design

import (
	"time"

	"github.com/atelierhq/decormem/pkg/repository"
)

// UseCase provides design-version operations
type UseCase struct {
	repo       repository.Repository
	maxRetries int
	now        func() time.Time
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithMaxRetries bounds retries on version-number collisions.
func WithMaxRetries(n int) Option {
	return func(u *UseCase) {
		if n > 0 {
			u.maxRetries = n
		}
	}
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(u *UseCase) {
		u.now = now
	}
}

// New creates a design UseCase instance
func New(repo repository.Repository, opts ...Option) *UseCase {
	u := &UseCase{
		repo:       repo,
		maxRetries: 3,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(u)
	}

	return u
}
