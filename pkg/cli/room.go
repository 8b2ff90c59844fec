package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/atelierhq/decormem/pkg/model"
)

func roomCommand() *cli.Command {
	return &cli.Command{
		Name:  "room",
		Usage: "Manage rooms",
		Commands: []*cli.Command{
			roomCreateCommand(),
			roomListCommand(),
		},
	}
}

func roomCreateCommand() *cli.Command {
	var (
		cfg      config
		owner    string
		name     string
		roomType string
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
			Name:        "name",
			Aliases:     []string{"n"},
			Usage:       "Room name",
			Destination: &name,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "type",
			Aliases:     []string{"t"},
			Usage:       "Room type (bedroom, living_room, kitchen, bathroom, office, dining_room, other)",
			Value:       string(model.RoomTypeOther),
			Destination: &roomType,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "create",
		Usage: "Register a room",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			manager, closer, err := cfg.newManager(ctx)
			if err != nil {
				return err
			}
			defer closer()

			room, err := manager.CreateRoom(ctx, model.UserID(owner), name, model.RoomType(roomType))
			if err != nil {
				return goerr.Wrap(err, "failed to create room")
			}

			fmt.Fprintf(c.Root().Writer, "%s\t%s\t%s\n", room.ID, room.Name, room.Type)
			return nil
		},
	}
}

func roomListCommand() *cli.Command {
	var (
		cfg   config
		owner string
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
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List rooms, most recently active first",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			manager, closer, err := cfg.newManager(ctx)
			if err != nil {
				return err
			}
			defer closer()

			rooms, err := manager.ListRooms(ctx, model.UserID(owner))
			if err != nil {
				return goerr.Wrap(err, "failed to list rooms")
			}

			for _, room := range rooms {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\t%s\t%s\n",
					room.ID, room.Name, room.Type, room.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}
