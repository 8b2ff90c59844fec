package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/atelierhq/decormem/pkg/model"
	"github.com/atelierhq/decormem/pkg/usecase/memory"
)

func feedbackCommand() *cli.Command {
	var (
		cfg      config
		owner    string
		room     string
		negative bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "owner",
			Aliases:     []string{"o"},
			Usage:       "Owner user ID",
			Sources:     cli.EnvVars("DECORMEM_OWNER"),
			Destination: &owner,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "room",
			Aliases:     []string{"r"},
			Usage:       "Room ID the feedback refers to",
			Destination: &room,
		},
		&cli.BoolFlag{
			Name:        "negative",
			Aliases:     []string{"n"},
			Usage:       "Treat the feedback as a dislike",
			Destination: &negative,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "feedback",
		Usage:     "Learn from explicit feedback text",
		ArgsUsage: "<text>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			text := c.Args().First()
			if text == "" {
				return goerr.New("feedback text argument is required")
			}

			manager, closer, err := cfg.newManager(ctx)
			if err != nil {
				return err
			}
			defer closer()

			if err := manager.LearnFromFeedback(ctx, memory.FeedbackInput{
				OwnerID:    model.UserID(owner),
				RoomID:     model.RoomID(room),
				Text:       text,
				IsPositive: !negative,
			}); err != nil {
				return goerr.Wrap(err, "failed to record feedback")
			}

			fmt.Fprintln(c.Root().Writer, "feedback queued")
			return nil
		},
	}
}
