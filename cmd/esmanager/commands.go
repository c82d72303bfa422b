package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/poiesic/esmanager"
	"github.com/poiesic/esmanager/config"
	"github.com/poiesic/esmanager/core"
	"github.com/poiesic/esmanager/highlight"
	"github.com/poiesic/esmanager/search"
	"github.com/poiesic/esmanager/storage"
	"github.com/urfave/cli/v2"
)

const dateLayout = "2006-01-02"

func entryFlag() cli.Flag {
	return &cli.Uint64Flag{
		Name:     "entry",
		Aliases:  []string{"e"},
		Usage:    "Entry ID",
		Required: true,
	}
}

func queryFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "query",
		Aliases: []string{"q"},
		Usage:   "Space separated search words",
	}
}

// profileFields maps profile flags onto CompanyProfile fields.
var profileFields = []struct {
	flag  string
	usage string
	field func(p *core.CompanyProfile) *string
}{
	{"industry", "Industry", func(p *core.CompanyProfile) *string { return &p.Industry }},
	{"location", "Head office location", func(p *core.CompanyProfile) *string { return &p.Location }},
	{"work-location", "Work location", func(p *core.CompanyProfile) *string { return &p.WorkLocation }},
	{"mypage-url", "Applicant page URL", func(p *core.CompanyProfile) *string { return &p.MyPageURL }},
	{"recruitment-url", "Recruitment page URL", func(p *core.CompanyProfile) *string { return &p.RecruitmentURL }},
	{"hiring-number", "Planned hires", func(p *core.CompanyProfile) *string { return &p.HiringNumber }},
	{"avg-salary", "Average salary", func(p *core.CompanyProfile) *string { return &p.AvgSalary }},
	{"starting-salary", "Starting salary", func(p *core.CompanyProfile) *string { return &p.StartingSalary }},
	{"annual-holiday", "Annual holidays", func(p *core.CompanyProfile) *string { return &p.AnnualHoliday }},
	{"id-number", "Login id for the applicant page", func(p *core.CompanyProfile) *string { return &p.IDNumber }},
	{"note", "Free-form note", func(p *core.CompanyProfile) *string { return &p.Note }},
}

func commands() []*cli.Command {
	profileFlags := []cli.Flag{
		&cli.StringFlag{Name: "company", Usage: "Company name", Required: true},
		&cli.StringFlag{Name: "selection-flow", Usage: "Selection steps, comma separated"},
	}
	for _, f := range profileFields {
		profileFlags = append(profileFlags, &cli.StringFlag{Name: f.flag, Usage: f.usage})
	}

	return []*cli.Command{
		{
			Name:   "add",
			Usage:  "Add an entry for a company",
			Action: addCommand,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "company", Usage: "Company name"},
				&cli.StringFlag{Name: "status", Usage: "Submission status", Value: string(core.StatusNotSubmitted)},
				&cli.StringFlag{Name: "selection-type", Usage: "Selection type, e.g. 本選考"},
				&cli.StringFlag{Name: "deadline", Usage: "Deadline as YYYY-MM-DD"},
				&cli.StringFlag{Name: "note", Usage: "Free-form note"},
			},
		},
		{
			Name:   "add-qa",
			Usage:  "Add a question and answer to an entry",
			Action: addQACommand,
			Flags: []cli.Flag{
				entryFlag(),
				&cli.StringFlag{Name: "question", Usage: "Question text", Required: true},
				&cli.StringFlag{Name: "answer", Usage: "Answer text"},
				&cli.IntFlag{Name: "char-limit", Usage: "Character limit, 0 for none"},
				&cli.StringFlag{Name: "tags", Usage: "Tags separated by spaces or commas"},
				&cli.StringFlag{Name: "note", Usage: "Free-form note"},
			},
		},
		{
			Name:   "rename",
			Usage:  "Change the company of one entry (--entry) or of a whole company (--from)",
			Action: renameCommand,
			Flags: []cli.Flag{
				&cli.Uint64Flag{Name: "entry", Aliases: []string{"e"}, Usage: "Entry ID"},
				&cli.StringFlag{Name: "from", Usage: "Current company name; renames every entry and the profile"},
				&cli.StringFlag{Name: "company", Usage: "New company name", Required: true},
			},
		},
		{
			Name:   "delete",
			Usage:  "Delete an entry",
			Action: deleteCommand,
			Flags:  []cli.Flag{entryFlag()},
		},
		{
			Name:   "list",
			Usage:  "List entries or QA items",
			Action: listCommand,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "view",
					Aliases: []string{"v"},
					Usage:   "One of company, questions, tags, status, reference",
					Value:   "company",
				},
				queryFlag(),
				&cli.StringFlag{Name: "exclude", Usage: "QA key (entryID_qaID) left out of the reference view"},
				&cli.Uint64Flag{Name: "exclude-entry", Usage: "Entry ID whose answers are left out of the reference view"},
			},
		},
		{
			Name:   "companies",
			Usage:  "List companies with their profiles",
			Action: companiesCommand,
			Flags:  []cli.Flag{queryFlag()},
		},
		{
			Name:   "profile",
			Usage:  "Show a company profile, updating the fields given",
			Action: profileCommand,
			Flags:  profileFlags,
		},
		{
			Name:   "delete-profile",
			Usage:  "Delete a company profile no entry refers to",
			Action: deleteProfileCommand,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "company", Usage: "Company name", Required: true},
			},
		},
		{
			Name:      "highlight",
			Usage:     "Mark search words and lint hits in text (read from stdin without arguments)",
			ArgsUsage: "[text...]",
			Action:    highlightCommand,
			Flags: []cli.Flag{
				queryFlag(),
				&cli.BoolFlag{Name: "color", Usage: "Force ANSI colors even when not writing to a terminal"},
			},
		},
		draftCommand(),
		{
			Name:   "lint",
			Usage:  "Report lint hits and over-limit answers in every entry",
			Action: lintCommand,
		},
		{
			Name:  "config",
			Usage: "Manage the config file",
			Subcommands: []*cli.Command{
				{
					Name:   "init",
					Usage:  "Write the current settings to the config file",
					Action: configInitCommand,
					Flags: []cli.Flag{
						&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing file"},
					},
				},
			},
		},
		{
			Name:  "version",
			Usage: "Print the version",
			Action: func(c *cli.Context) error {
				fmt.Fprintf(c.App.Writer, "esmanager %s\n", version)
				return nil
			},
		},
	}
}

func parseDeadline(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid deadline %q: want YYYY-MM-DD", s)
	}
	d = d.UTC()
	return &d, nil
}

// splitList splits a comma separated flag value, dropping blank items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '、' }) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func addCommand(c *cli.Context) error {
	deadline, err := parseDeadline(c.String("deadline"))
	if err != nil {
		return err
	}
	status := core.Status(strings.TrimSpace(c.String("status")))
	if err := core.ValidateStatus(status); err != nil {
		slog.Warn("storing unknown status", "status", status)
	}

	return withWorkspace(c, func(ctx context.Context, w *esmanager.Workspace) error {
		e, err := w.SaveEntry(ctx, &core.Entry{
			Company:       c.String("company"),
			Status:        status,
			SelectionType: c.String("selection-type"),
			Deadline:      deadline,
			Note:          c.String("note"),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%d\n", e.ID)
		return nil
	})
}

func addQACommand(c *cli.Context) error {
	if c.Int("char-limit") < 0 {
		return errors.New("char-limit must not be negative")
	}

	return withWorkspace(c, func(ctx context.Context, w *esmanager.Workspace) error {
		e, err := w.Entry(ctx, core.ID(c.Uint64("entry")))
		if err != nil {
			return err
		}
		qa := core.QAItem{
			ID:        core.NewQAID(),
			Question:  c.String("question"),
			Answer:    c.String("answer"),
			CharLimit: c.Int("char-limit"),
			Note:      c.String("note"),
			Tags:      core.SplitTags(c.String("tags")),
		}
		e.QAs = append(e.QAs, qa)
		if _, err := w.SaveEntry(ctx, e); err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, qa.ID)
		return nil
	})
}

func renameCommand(c *cli.Context) error {
	byEntry, from := c.IsSet("entry"), strings.TrimSpace(c.String("from"))
	if byEntry == (from != "") {
		return errors.New("give exactly one of --entry or --from")
	}

	return withWorkspace(c, func(ctx context.Context, w *esmanager.Workspace) error {
		if !byEntry {
			n, err := w.RenameCompany(ctx, from, c.String("company"))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "renamed %s entries\n", humanize.Comma(int64(n)))
			return nil
		}

		e, err := w.Entry(ctx, core.ID(c.Uint64("entry")))
		if err != nil {
			return err
		}
		e.Company = c.String("company")
		_, err = w.SaveEntry(ctx, e)
		return err
	})
}

func deleteCommand(c *cli.Context) error {
	return withWorkspace(c, func(ctx context.Context, w *esmanager.Workspace) error {
		return w.DeleteEntry(ctx, core.ID(c.Uint64("entry")))
	})
}

func listCommand(c *cli.Context) error {
	query := c.String("query")
	out := c.App.Writer

	return withWorkspace(c, func(ctx context.Context, w *esmanager.Workspace) error {
		switch view := strings.ToLower(c.String("view")); view {
		case "company":
			entries, err := w.CompanyView(ctx, query)
			if err != nil {
				return err
			}
			return printEntries(out, entries)
		case "questions":
			records, err := w.QuestionView(ctx, query)
			if err != nil {
				return err
			}
			return printRecords(out, records)
		case "tags":
			groups, err := w.TagView(ctx, query)
			if err != nil {
				return err
			}
			for tag, records := range groups.All() {
				fmt.Fprintf(out, "\n%s (%d):\n", tag, len(records))
				if err := printRecords(out, records); err != nil {
					return err
				}
			}
			return nil
		case "status":
			groups, err := w.StatusView(ctx, query)
			if err != nil {
				return err
			}
			for status, entries := range groups.All() {
				fmt.Fprintf(out, "\n%s (%d):\n", status, len(entries))
				if err := printEntries(out, entries); err != nil {
					return err
				}
			}
			return nil
		case "reference":
			exclude := search.Exclude{Entry: core.ID(c.Uint64("exclude-entry")), Key: c.String("exclude")}
			records, err := w.ReferenceView(ctx, query, exclude)
			if err != nil {
				return err
			}
			return printReferences(out, records)
		default:
			return fmt.Errorf("unknown view %q: must be one of company, questions, tags, status, reference", view)
		}
	})
}

func companiesCommand(c *cli.Context) error {
	return withWorkspace(c, func(ctx context.Context, w *esmanager.Workspace) error {
		rows, err := w.CompanyTable(ctx, c.String("query"))
		if err != nil {
			return err
		}
		return printCompanies(c.App.Writer, rows)
	})
}

func profileCommand(c *cli.Context) error {
	company := c.String("company")

	changed := c.IsSet("selection-flow")
	for _, f := range profileFields {
		changed = changed || c.IsSet(f.flag)
	}

	return withWorkspace(c, func(ctx context.Context, w *esmanager.Workspace) error {
		var (
			p   *core.CompanyProfile
			err error
		)
		if changed {
			p, err = w.UpdateProfile(ctx, company, func(p *core.CompanyProfile) error {
				for _, f := range profileFields {
					if c.IsSet(f.flag) {
						*f.field(p) = c.String(f.flag)
					}
				}
				if c.IsSet("selection-flow") {
					p.SelectionFlow = splitList(c.String("selection-flow"))
				}
				return nil
			})
		} else {
			p, err = w.Profile(ctx, company)
			if errors.Is(err, storage.ErrNotFound) {
				p, err = &core.CompanyProfile{Company: company}, nil
			}
		}
		if err != nil {
			return err
		}
		return printProfile(c.App.Writer, p)
	})
}

func deleteProfileCommand(c *cli.Context) error {
	return withWorkspace(c, func(ctx context.Context, w *esmanager.Workspace) error {
		return w.DeleteProfile(ctx, c.String("company"))
	})
}

func highlightCommand(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")
	if c.NArg() == 0 {
		data, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return err
		}
		text = string(data)
	}

	// Highlighting needs no stored data.
	lintCfg, err := appConfig(c).Highlight()
	if err != nil {
		return err
	}
	segs := highlight.Render(text, c.String("query"), lintCfg)

	color := c.Bool("color") || isTerminal(c.App.Writer)
	printSegments(c.App.Writer, segs, color)
	return nil
}

func lintCommand(c *cli.Context) error {
	return withWorkspace(c, func(ctx context.Context, w *esmanager.Workspace) error {
		findings, err := w.Lint(ctx)
		if err != nil {
			return err
		}
		return printFindings(c.App.Writer, findings)
	})
}

func configInitCommand(c *cli.Context) error {
	path, err := configPath(c)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg := appConfig(c)
	if lvl := c.String("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if err := config.Save(c.Context, path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
	return nil
}
