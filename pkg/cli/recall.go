package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/atelierhq/decormem/pkg/model"
	"github.com/atelierhq/decormem/pkg/usecase/memory"
)

func recallCommand() *cli.Command {
	var (
		cfg    config
		owner  string
		room   string
		topK   int64
		scores bool
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
			Usage:       "Limit retrieval to one room",
			Destination: &room,
		},
		&cli.IntFlag{
			Name:        "top-k",
			Aliases:     []string{"k"},
			Usage:       "Number of records to retrieve",
			Value:       5,
			Destination: &topK,
		},
		&cli.BoolFlag{
			Name:        "scores",
			Usage:       "Show similarity, recency and combined scores",
			Destination: &scores,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, geminiFlags(&cfg)...)

	return &cli.Command{
		Name:      "recall",
		Usage:     "Retrieve relevant context for a query",
		ArgsUsage: "<query>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			query := c.Args().First()
			if query == "" {
				return goerr.New("query argument is required")
			}

			manager, closer, err := cfg.newManager(ctx)
			if err != nil {
				return err
			}
			defer closer()

			result, err := manager.RetrieveRelevantContext(ctx, memory.RetrieveInput{
				OwnerID: model.UserID(owner),
				Query:   query,
				RoomID:  model.RoomID(room),
				TopK:    int(topK),
			})
			if err != nil {
				return goerr.Wrap(err, "failed to retrieve context")
			}

			if scores {
				for _, r := range result.Records {
					fmt.Fprintf(c.Root().Writer, "sim=%.4f rec=%.4f score=%.4f\t%s\n",
						r.Similarity, r.Recency, r.Score, r.Record.Text)
				}
				fmt.Fprintln(c.Root().Writer)
			}

			fmt.Fprintln(c.Root().Writer, result.Format())
			return nil
		},
	}
}
