package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/poiesic/esmanager"
	"github.com/poiesic/esmanager/core"
	"github.com/poiesic/esmanager/highlight"
	"github.com/poiesic/esmanager/search"
	"github.com/urfave/cli/v2"
)

func draftFlag() cli.Flag {
	return &cli.Uint64Flag{
		Name:     "draft",
		Aliases:  []string{"d"},
		Usage:    "Draft ID",
		Required: true,
	}
}

func draftCommand() *cli.Command {
	return &cli.Command{
		Name:  "draft",
		Usage: "Manage answer drafts that belong to no company yet",
		Subcommands: []*cli.Command{
			{
				Name:   "add",
				Usage:  "Create a draft and print its ID",
				Action: draftAddCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Draft title"},
				},
			},
			{
				Name:   "add-item",
				Usage:  "Append a question and answer to a draft",
				Action: draftAddItemCommand,
				Flags: []cli.Flag{
					draftFlag(),
					&cli.StringFlag{Name: "question", Usage: "Question text"},
					&cli.StringFlag{Name: "answer", Usage: "Answer text"},
					&cli.IntFlag{Name: "char-limit", Usage: "Character limit, 0 for none"},
					&cli.StringFlag{Name: "tags", Usage: "Tags separated by spaces or commas"},
				},
			},
			{
				Name:   "list",
				Usage:  "List drafts, most recently updated first",
				Action: draftListCommand,
				Flags: []cli.Flag{
					queryFlag(),
					&cli.StringFlag{Name: "match", Usage: "Keep drafts with all or any of the words", Value: "all"},
				},
			},
			{
				Name:   "show",
				Usage:  "Print a draft, marking the query words",
				Action: draftShowCommand,
				Flags: []cli.Flag{
					draftFlag(),
					queryFlag(),
					&cli.BoolFlag{Name: "color", Usage: "Force ANSI colors even when not writing to a terminal"},
				},
			},
			{
				Name:   "delete",
				Usage:  "Delete a draft",
				Action: draftDeleteCommand,
				Flags:  []cli.Flag{draftFlag()},
			},
		},
	}
}

func draftAddCommand(c *cli.Context) error {
	return withWorkspace(c, func(ctx context.Context, w *esmanager.Workspace) error {
		d, err := w.SaveDraft(ctx, &core.Draft{Title: c.String("title")})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%d\n", d.ID)
		return nil
	})
}

func draftAddItemCommand(c *cli.Context) error {
	if c.Int("char-limit") < 0 {
		return errors.New("char-limit must not be negative")
	}
	if strings.TrimSpace(c.String("question")) == "" && strings.TrimSpace(c.String("answer")) == "" {
		return errors.New("give a question or an answer")
	}

	return withWorkspace(c, func(ctx context.Context, w *esmanager.Workspace) error {
		d, err := w.Draft(ctx, core.ID(c.Uint64("draft")))
		if err != nil {
			return err
		}
		qa := core.QAItem{
			ID:        core.NewQAID(),
			Question:  c.String("question"),
			Answer:    c.String("answer"),
			CharLimit: c.Int("char-limit"),
			Tags:      core.SplitTags(c.String("tags")),
		}
		d.Items = append(d.Items, qa)
		if _, err := w.SaveDraft(ctx, d); err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, qa.ID)
		return nil
	})
}

func draftListCommand(c *cli.Context) error {
	strategy, err := search.ParseStrategy(c.String("match"))
	if err != nil {
		return err
	}

	return withWorkspace(c, func(ctx context.Context, w *esmanager.Workspace) error {
		drafts, err := w.DraftView(ctx, c.String("query"), strategy)
		if err != nil {
			return err
		}
		return printDrafts(c.App.Writer, drafts)
	})
}

func draftShowCommand(c *cli.Context) error {
	out := c.App.Writer
	color := c.Bool("color") || isTerminal(out)
	query := c.String("query")

	return withWorkspace(c, func(ctx context.Context, w *esmanager.Workspace) error {
		// Drafts get search marks only; lint runs on submitted entries.
		d, err := w.Draft(ctx, core.ID(c.Uint64("draft")))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s (updated %s)\n", d.Title, humanize.Time(d.UpdatedAt))
		for i := range d.Items {
			qa := &d.Items[i]
			fmt.Fprintf(out, "\n%d. ", i+1)
			printSegments(out, highlight.Render(qa.Question, query, highlight.Config{}), color)
			printSegments(out, highlight.Render(qa.Answer, query, highlight.Config{}), color)
			if qa.CharLimit > 0 {
				fmt.Fprintf(out, "(%d/%d)\n", qa.CharCount(), qa.CharLimit)
			}
		}
		return nil
	})
}

func draftDeleteCommand(c *cli.Context) error {
	return withWorkspace(c, func(ctx context.Context, w *esmanager.Workspace) error {
		return w.DeleteDraft(ctx, core.ID(c.Uint64("draft")))
	})
}

func printDrafts(w io.Writer, drafts []core.Draft) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tITEMS\tUPDATED")
	for _, d := range drafts {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", d.ID, d.Title, len(d.Items), humanize.Time(d.UpdatedAt))
	}
	return tw.Flush()
}
