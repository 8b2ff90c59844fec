package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/atelierhq/decormem/pkg/model"
)

func prefsCommand() *cli.Command {
	var (
		cfg      config
		owner    string
		prefType string
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
			Name:        "type",
			Aliases:     []string{"t"},
			Usage:       "Filter by preference type (style, color, material, warmth, complexity)",
			Destination: &prefType,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "prefs",
		Usage: "Show effective preferences, strongest first",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			manager, closer, err := cfg.newManager(ctx)
			if err != nil {
				return err
			}
			defer closer()

			var types []model.PreferenceType
			if prefType != "" {
				types = append(types, model.PreferenceType(prefType))
			}

			prefs, err := manager.GetPreferences(ctx, model.UserID(owner), types...)
			if err != nil {
				return goerr.Wrap(err, "failed to load preferences")
			}

			for _, p := range prefs {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\t%.3f\n", p.Type, p.Value, p.Confidence)
			}
			return nil
		},
	}
}
