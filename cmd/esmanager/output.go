package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/poiesic/esmanager"
	"github.com/poiesic/esmanager/core"
	"github.com/poiesic/esmanager/highlight"
	"github.com/poiesic/esmanager/lint"
	"github.com/poiesic/esmanager/search"
)

const (
	ansiReset  = "\x1b[0m"
	ansiSearch = "\x1b[30;43m"
	ansiLint   = "\x1b[4;31m"
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func formatDeadline(d *time.Time) string {
	if d == nil {
		return "-"
	}
	return d.Local().Format(dateLayout)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func printEntries(w io.Writer, entries []core.Entry) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tCOMPANY\tSTATUS\tTYPE\tDEADLINE\tQA\tUPDATED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
			e.ID, e.CompanyOrDefault(), e.Status, orDash(e.SelectionType),
			formatDeadline(e.Deadline), len(e.QAs), humanize.Time(e.UpdatedAt))
	}
	return tw.Flush()
}

func printRecords(w io.Writer, records []search.QARecord) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "KEY\tCOMPANY\tQUESTION\tCHARS\tTAGS")
	for _, r := range records {
		chars := fmt.Sprintf("%d", r.QA.CharCount())
		if r.QA.CharLimit > 0 {
			chars = fmt.Sprintf("%d/%d", r.QA.CharCount(), r.QA.CharLimit)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.Key(), r.Company, r.QA.Question, chars, orDash(strings.Join(r.QA.Tags, " ")))
	}
	return tw.Flush()
}

func printReferences(w io.Writer, records []search.QARecord) error {
	for i, r := range records {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "[%s] %s\n", r.Company, r.QA.Question)
		fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(strings.TrimSpace(r.QA.Answer), "\n", "\n  "))
	}
	return nil
}

func printCompanies(w io.Writer, rows []esmanager.CompanyRow) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "COMPANY\tENTRIES\tINDUSTRY\tLOCATION")
	for _, r := range rows {
		var industry, location string
		if r.Profile != nil {
			industry, location = r.Profile.Industry, r.Profile.Location
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", r.Name, r.Entries, orDash(industry), orDash(location))
	}
	return tw.Flush()
}

func printProfile(w io.Writer, p *core.CompanyProfile) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "company\t%s\n", p.Company)
	for _, f := range profileFields {
		fmt.Fprintf(tw, "%s\t%s\n", f.flag, orDash(*f.field(p)))
	}
	fmt.Fprintf(tw, "selection-flow\t%s\n", orDash(strings.Join(p.SelectionFlow, " → ")))
	if !p.UpdatedAt.IsZero() {
		fmt.Fprintf(tw, "updated\t%s\n", humanize.Time(p.UpdatedAt))
	}
	return tw.Flush()
}

// printSegments writes highlighted text. Without color, search matches
// are shown as [text] and lint hits as <text:category>.
func printSegments(w io.Writer, segs []highlight.Segment, color bool) {
	var b strings.Builder
	for _, s := range segs {
		switch {
		case s.Kind == highlight.KindSearch && color:
			b.WriteString(ansiSearch + s.Text + ansiReset)
		case s.Kind == highlight.KindSearch:
			b.WriteString("[" + s.Text + "]")
		case s.Kind == highlight.KindLint && color:
			b.WriteString(ansiLint + s.Text + ansiReset)
		case s.Kind == highlight.KindLint:
			fmt.Fprintf(&b, "<%s:%s>", s.Text, s.Category)
		default:
			b.WriteString(s.Text)
		}
	}
	out := b.String()
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	io.WriteString(w, out)
}

func printFindings(w io.Writer, findings []lint.Finding) error {
	if len(findings) == 0 {
		fmt.Fprintln(w, "no findings")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ENTRY\tCOMPANY\tQUESTION\tCHECK\tAT\tTEXT")
	for _, f := range findings {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n",
			f.EntryID, f.Company, f.Question, f.Category, f.Offset, f.Text)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s findings\n", humanize.Comma(int64(len(findings))))
	return nil
}
