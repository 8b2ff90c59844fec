package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/atelierhq/decormem/pkg/model"
	"github.com/atelierhq/decormem/pkg/usecase/memory"
)

func storeCommand() *cli.Command {
	var (
		cfg     config
		owner   string
		room    string
		session string
		role    string
		text    string
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
			Usage:       "Room ID the turn belongs to",
			Destination: &room,
		},
		&cli.StringFlag{
			Name:        "session",
			Aliases:     []string{"s"},
			Usage:       "Conversation session ID",
			Destination: &session,
		},
		&cli.StringFlag{
			Name:        "role",
			Usage:       "Author role (user, agent, system)",
			Value:       string(model.RoleUser),
			Destination: &role,
		},
		&cli.StringFlag{
			Name:        "text",
			Usage:       "Interaction text to remember",
			Destination: &text,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, geminiFlags(&cfg)...)

	return &cli.Command{
		Name:  "store",
		Usage: "Store one interaction turn",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			manager, closer, err := cfg.newManager(ctx)
			if err != nil {
				return err
			}
			defer closer()

			id, err := manager.Store(ctx, memory.StoreInput{
				OwnerID:   model.UserID(owner),
				RoomID:    model.RoomID(room),
				SessionID: session,
				Role:      model.Role(role),
				Text:      text,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to store memory")
			}

			fmt.Fprintf(c.Root().Writer, "%s\n", id)
			return nil
		},
	}
}
