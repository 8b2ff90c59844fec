package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/atelierhq/decormem/pkg/model"
	"github.com/atelierhq/decormem/pkg/usecase/memory"
)

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Manage design versions",
		Commands: []*cli.Command{
			versionNewCommand(),
			versionSelectCommand(),
			versionRejectCommand(),
			versionListCommand(),
			versionLineageCommand(),
			versionAttachCommand(),
		},
	}
}

func versionNewCommand() *cli.Command {
	var (
		cfg         config
		room        string
		description string
		parent      string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "room",
			Aliases:     []string{"r"},
			Usage:       "Room ID",
			Destination: &room,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "description",
			Usage:       "Design description",
			Destination: &description,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "parent",
			Usage:       "Parent version ID (empty for a root version)",
			Destination: &parent,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "new",
		Usage: "Add a design version to a room",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			manager, closer, err := cfg.newManager(ctx)
			if err != nil {
				return err
			}
			defer closer()

			v, err := manager.CreateVersion(ctx, model.RoomID(room), description, model.VersionID(parent))
			if err != nil {
				return goerr.Wrap(err, "failed to create version")
			}

			fmt.Fprintf(c.Root().Writer, "%s\tv%d\n", v.ID, v.VersionNumber)
			return nil
		},
	}
}

func versionSelectCommand() *cli.Command {
	var (
		cfg   config
		owner string
		room  string
		image string
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
			Usage:       "Room ID the selection applies to",
			Destination: &room,
		},
		&cli.StringFlag{
			Name:        "image",
			Usage:       "Image ID the user picked",
			Destination: &image,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, geminiFlags(&cfg)...)

	return &cli.Command{
		Name:      "select",
		Usage:     "Mark a version as selected and learn from it",
		ArgsUsage: "<version-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			versionID := c.Args().First()
			if versionID == "" {
				return goerr.New("version-id argument is required")
			}

			manager, closer, err := cfg.newManager(ctx)
			if err != nil {
				return err
			}
			// closer drains the learning task queued below.
			defer closer()

			if err := manager.LearnFromSelection(ctx, memory.SelectionInput{
				OwnerID:   model.UserID(owner),
				RoomID:    model.RoomID(room),
				VersionID: model.VersionID(versionID),
				ImageID:   model.ImageID(image),
			}); err != nil {
				return goerr.Wrap(err, "failed to select version")
			}

			fmt.Fprintf(c.Root().Writer, "selected %s\n", versionID)
			return nil
		},
	}
}

func versionRejectCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)

	return &cli.Command{
		Name:      "reject",
		Usage:     "Mark a version as rejected",
		ArgsUsage: "<version-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			versionID := c.Args().First()
			if versionID == "" {
				return goerr.New("version-id argument is required")
			}

			manager, closer, err := cfg.newManager(ctx)
			if err != nil {
				return err
			}
			defer closer()

			v, err := manager.RejectVersion(ctx, model.VersionID(versionID))
			if err != nil {
				return goerr.Wrap(err, "failed to reject version")
			}

			fmt.Fprintf(c.Root().Writer, "rejected %s (v%d)\n", v.ID, v.VersionNumber)
			return nil
		},
	}
}

func versionListCommand() *cli.Command {
	var (
		cfg  config
		room string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "room",
			Aliases:     []string{"r"},
			Usage:       "Room ID",
			Destination: &room,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List a room's design versions",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			manager, closer, err := cfg.newManager(ctx)
			if err != nil {
				return err
			}
			defer closer()

			versions, err := manager.Versions(ctx, model.RoomID(room))
			if err != nil {
				return goerr.Wrap(err, "failed to list versions")
			}

			for _, v := range versions {
				fmt.Fprintf(c.Root().Writer, "%s\tv%d\t%s\t%s\n",
					v.ID, v.VersionNumber, versionStatus(v), v.Description)
			}
			return nil
		},
	}
}

func versionLineageCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)

	return &cli.Command{
		Name:      "lineage",
		Usage:     "Show a version's ancestry back to the root",
		ArgsUsage: "<version-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			versionID := c.Args().First()
			if versionID == "" {
				return goerr.New("version-id argument is required")
			}

			manager, closer, err := cfg.newManager(ctx)
			if err != nil {
				return err
			}
			defer closer()

			lineage, err := manager.Lineage(ctx, model.VersionID(versionID))
			if err != nil {
				return goerr.Wrap(err, "failed to walk lineage")
			}

			for _, v := range lineage {
				fmt.Fprintf(c.Root().Writer, "%s\tv%d\t%s\n", v.ID, v.VersionNumber, v.Description)
			}
			return nil
		},
	}
}

func versionAttachCommand() *cli.Command {
	var (
		cfg     config
		locator string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "locator",
			Usage:       "Image locator (gs:// or https:// URL)",
			Destination: &locator,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "attach",
		Usage:     "Attach a rendered image to a version",
		ArgsUsage: "<version-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			versionID := c.Args().First()
			if versionID == "" {
				return goerr.New("version-id argument is required")
			}

			manager, closer, err := cfg.newManager(ctx)
			if err != nil {
				return err
			}
			defer closer()

			img, err := manager.AttachImage(ctx, model.VersionID(versionID), locator)
			if err != nil {
				return goerr.Wrap(err, "failed to attach image")
			}

			fmt.Fprintf(c.Root().Writer, "%s\n", img.ID)
			return nil
		},
	}
}

func versionStatus(v *model.DesignVersion) string {
	switch {
	case v.Selected:
		return "selected"
	case v.Rejected:
		return "rejected"
	default:
		return "proposed"
	}
}
