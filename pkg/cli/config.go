package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/atelierhq/decormem/pkg/adapter"
	"github.com/atelierhq/decormem/pkg/repository"
	"github.com/atelierhq/decormem/pkg/service/index"
	"github.com/atelierhq/decormem/pkg/service/learner"
	"github.com/atelierhq/decormem/pkg/service/preference"
	"github.com/atelierhq/decormem/pkg/service/ranker"
	"github.com/atelierhq/decormem/pkg/usecase/design"
	"github.com/atelierhq/decormem/pkg/usecase/memory"
	"github.com/atelierhq/decormem/pkg/utils/logging"
)

// config holds configuration values
type config struct {
	// Repository
	project  string
	database string

	// Vector index
	indexPath string

	// Adapters
	geminiProject  string
	geminiLocation string

	// Learning
	lexiconPath string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID (empty for in-memory storage)",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "index-path",
			Usage:       "Directory for the persistent vector index (empty for in-memory)",
			Sources:     cli.EnvVars("DECORMEM_INDEX_PATH"),
			Destination: &cfg.indexPath,
		},
		&cli.StringFlag{
			Name:        "lexicon",
			Usage:       "Path to a custom preference lexicon YAML",
			Sources:     cli.EnvVars("DECORMEM_LEXICON"),
			Destination: &cfg.lexiconPath,
		},
	}
}

// geminiFlags returns flags for Gemini-backed adapters with destination config
func geminiFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini (empty for mock embeddings)",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
	}
}

// newRepository creates a repository. Without a project it falls back to
// the in-process store so the CLI works locally.
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, func(), error) {
	if cfg.project == "" {
		logging.From(ctx).Warn("no project configured, using in-memory repository")
		return repository.NewMemory(), func() {}, nil
	}
	if cfg.database == "" {
		return nil, nil, goerr.New("database is required")
	}

	repo, err := repository.NewFirestore(ctx, cfg.project, cfg.database)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, func() { _ = repo.Close() }, nil
}

// newEmbedder creates an embedder, mock when Gemini is not configured.
func (cfg *config) newEmbedder(ctx context.Context) (adapter.Embedder, error) {
	if cfg.geminiProject == "" {
		logging.From(ctx).Warn("no gemini-project configured, using mock embeddings")
		return adapter.NewMockEmbedder(0), nil
	}
	embedder, err := adapter.NewGeminiEmbedder(ctx, cfg.geminiProject, cfg.geminiLocation)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create embedder")
	}
	return embedder, nil
}

// newVision creates the vision classifier, or nil when Gemini is not
// configured. A nil classifier disables the visual learning channel.
func (cfg *config) newVision(ctx context.Context) (adapter.VisionClassifier, error) {
	if cfg.geminiProject == "" {
		return nil, nil
	}
	vision, err := adapter.NewGeminiVision(ctx, cfg.geminiProject, cfg.geminiLocation)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create vision classifier")
	}
	return vision, nil
}

// newLearner creates the learner, with a custom lexicon when configured.
func (cfg *config) newLearner(prefs *preference.Store) (*learner.Learner, error) {
	if cfg.lexiconPath == "" {
		return learner.New(prefs)
	}
	lex, err := learner.LoadLexicon(cfg.lexiconPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load lexicon",
			goerr.V("path", cfg.lexiconPath))
	}
	return learner.New(prefs, learner.WithLexicon(lex))
}

// newManager wires the full engine. The returned closer drains the
// learning workers and releases storage clients.
func (cfg *config) newManager(ctx context.Context) (*memory.Manager, func(), error) {
	repo, closeRepo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, nil, err
	}

	embedder, err := cfg.newEmbedder(ctx)
	if err != nil {
		closeRepo()
		return nil, nil, err
	}

	idx, err := index.New(repo, embedder, cfg.indexPath)
	if err != nil {
		closeRepo()
		return nil, nil, goerr.Wrap(err, "failed to create vector index")
	}

	prefs := preference.New(repo)
	lrn, err := cfg.newLearner(prefs)
	if err != nil {
		closeRepo()
		return nil, nil, err
	}

	vision, err := cfg.newVision(ctx)
	if err != nil {
		closeRepo()
		return nil, nil, err
	}

	var images adapter.ImageSource
	if vision != nil {
		images, err = adapter.NewImageSource(ctx)
		if err != nil {
			closeRepo()
			return nil, nil, goerr.Wrap(err, "failed to create image source")
		}
	}

	manager, err := memory.New(memory.NewInput{
		Repo:    repo,
		Index:   idx,
		Ranker:  ranker.New(),
		Prefs:   prefs,
		Learner: lrn,
		Design:  design.New(repo),
		Vision:  vision,
		Images:  images,
	})
	if err != nil {
		closeRepo()
		return nil, nil, err
	}

	closer := func() {
		manager.Close()
		closeRepo()
	}
	return manager, closer, nil
}
