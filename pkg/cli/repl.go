package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/atelierhq/decormem/pkg/model"
	"github.com/atelierhq/decormem/pkg/usecase/memory"
)

func replCommand() *cli.Command {
	var (
		cfg   config
		owner string
		room  string
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
			Usage:       "Room ID for this session",
			Destination: &room,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, geminiFlags(&cfg)...)

	return &cli.Command{
		Name:  "repl",
		Usage: "Interactive memory session",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			manager, closer, err := cfg.newManager(ctx)
			if err != nil {
				return err
			}
			defer closer()

			session := &replSession{
				manager:   manager,
				ownerID:   model.UserID(owner),
				roomID:    model.RoomID(room),
				sessionID: fmt.Sprintf("repl-%d", time.Now().Unix()),
				out:       c.Root().Writer,
			}
			return session.run(ctx)
		},
	}
}

type replSession struct {
	manager   *memory.Manager
	ownerID   model.UserID
	roomID    model.RoomID
	sessionID string
	out       io.Writer
}

func (s *replSession) run(ctx context.Context) error {
	rl, err := readline.New("> ")
	if err != nil {
		return goerr.Wrap(err, "failed to initialize readline")
	}
	defer rl.Close()

	fmt.Fprintln(s.out, "Memory session started. Lines are stored and recalled against.")
	fmt.Fprintln(s.out, "Commands: /prefs, /versions, /select <version-id>, /like <text>, /dislike <text>, /exit")

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				break
			}
			return goerr.Wrap(err, "failed to read input")
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "/exit" {
			break
		}

		if strings.HasPrefix(line, "/") {
			if err := s.command(ctx, line); err != nil {
				fmt.Fprintf(s.out, "error: %s\n", err)
			}
			continue
		}

		if err := s.turn(ctx, line); err != nil {
			fmt.Fprintf(s.out, "error: %s\n", err)
		}
	}

	fmt.Fprintln(s.out, "Session ended.")
	return nil
}

// turn stores the line as a user turn and shows what the engine would
// hand a conversational layer for it.
func (s *replSession) turn(ctx context.Context, line string) error {
	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	sp.Suffix = " recalling..."
	sp.Start()

	result, err := s.manager.RetrieveRelevantContext(ctx, memory.RetrieveInput{
		OwnerID: s.ownerID,
		Query:   line,
		RoomID:  s.roomID,
	})
	if err == nil {
		_, err = s.manager.Store(ctx, memory.StoreInput{
			OwnerID:   s.ownerID,
			RoomID:    s.roomID,
			SessionID: s.sessionID,
			Role:      model.RoleUser,
			Text:      line,
		})
	}
	sp.Stop()
	if err != nil {
		return err
	}

	if formatted := result.Format(); formatted != "" {
		fmt.Fprintln(s.out, formatted)
	} else {
		fmt.Fprintln(s.out, "(no context yet)")
	}
	return nil
}

func (s *replSession) command(ctx context.Context, line string) error {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/prefs":
		prefs, err := s.manager.GetPreferences(ctx, s.ownerID)
		if err != nil {
			return err
		}
		if len(prefs) == 0 {
			fmt.Fprintln(s.out, "(no preferences yet)")
		}
		for _, p := range prefs {
			fmt.Fprintf(s.out, "%s\t%s\t%.3f\n", p.Type, p.Value, p.Confidence)
		}
		return nil

	case "/versions":
		if s.roomID == "" {
			return goerr.New("no room set for this session")
		}
		versions, err := s.manager.Versions(ctx, s.roomID)
		if err != nil {
			return err
		}
		for _, v := range versions {
			fmt.Fprintf(s.out, "%s\tv%d\t%s\t%s\n", v.ID, v.VersionNumber, versionStatus(v), v.Description)
		}
		return nil

	case "/select":
		if arg == "" {
			return goerr.New("usage: /select <version-id>")
		}
		return s.manager.LearnFromSelection(ctx, memory.SelectionInput{
			OwnerID:   s.ownerID,
			RoomID:    s.roomID,
			VersionID: model.VersionID(arg),
		})

	case "/like", "/dislike":
		if arg == "" {
			return goerr.New("usage: " + cmd + " <text>")
		}
		return s.manager.LearnFromFeedback(ctx, memory.FeedbackInput{
			OwnerID:    s.ownerID,
			RoomID:     s.roomID,
			Text:       arg,
			IsPositive: cmd == "/like",
		})

	default:
		return goerr.New("unknown command", goerr.V("command", cmd))
	}
}
