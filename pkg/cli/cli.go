package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/atelierhq/decormem/pkg/utils/logging"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	var logLevel string
	cmd := &cli.Command{
		Name:  "decormem",
		Usage: "Long-term memory and preference learning for design conversations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Log level (debug, info, warn, error)",
				Value:       "info",
				Sources:     cli.EnvVars("DECORMEM_LOG_LEVEL"),
				Destination: &logLevel,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logging.SetDefault(logging.New(logLevel, nil))
			return ctx, nil
		},
		Commands: []*cli.Command{
			roomCommand(),
			storeCommand(),
			recallCommand(),
			versionCommand(),
			prefsCommand(),
			feedbackCommand(),
			replCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		logging.Default().Error("command failed", "error", err)
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
