package lint

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"unicode/utf8"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/esmanager/core"
	"github.com/poiesic/esmanager/highlight"
	"github.com/poiesic/esmanager/search"
)

// CategoryOverLimit marks an answer longer than its character limit.
const CategoryOverLimit highlight.Category = "over_limit"

// Finding is one lint hit in one answer.
type Finding struct {
	EntryID  core.ID
	Company  string
	QAID     string
	Question string
	Category highlight.Category
	Text     string // Flagged fragment, or the answer length for CategoryOverLimit
	Offset   int    // Rune offset of Text within the answer
	qaIndex  int
}

func (f Finding) String() string {
	return fmt.Sprintf("%s [%s] %q@%d: %s", f.Company, f.Category, f.Question, f.Offset, f.Text)
}

// Reporter lints answers concurrently.
type Reporter struct {
	pool   *ants.Pool
	logger *slog.Logger
}

// Option configures a Reporter.
type Option func(*Reporter) error

// WithPoolSize sets the worker pool size.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(r *Reporter) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if r.pool != nil {
			r.pool.Release()
		}
		r.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reporter) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewReporter creates a Reporter. Call Release when done.
func NewReporter(opts ...Option) (*Reporter, error) {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	r := &Reporter{pool: pool, logger: slog.Default()}
	for _, opt := range opts {
		if optErr := opt(r); optErr != nil {
			r.Release()
			return nil, optErr
		}
	}
	return r, nil
}

// Release frees the worker pool.
func (r *Reporter) Release() {
	if r.pool != nil {
		r.pool.Release()
		r.pool = nil
	}
}

// Report lints every non-empty answer in entries with cfg. Findings are
// ordered by company, entry, QA position and offset.
func (r *Reporter) Report(ctx context.Context, entries []core.Entry, cfg highlight.Config) ([]Finding, error) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		findings []Finding
	)

	submitted := 0
	for i := range entries {
		e := &entries[i]
		for j := range e.QAs {
			qa := e.QAs[j]
			if qa.Answer == "" {
				continue
			}
			if err := ctx.Err(); err != nil {
				wg.Wait()
				return nil, err
			}

			company := e.CompanyOrDefault()
			entryID := e.ID
			qaIndex := j
			wg.Add(1)
			err := r.pool.Submit(func() {
				defer wg.Done()
				found := checkAnswer(entryID, company, qaIndex, &qa, cfg)
				if len(found) == 0 {
					return
				}
				mu.Lock()
				findings = append(findings, found...)
				mu.Unlock()
			})
			if err != nil {
				wg.Done()
				wg.Wait()
				return nil, fmt.Errorf("submit lint task: %w", err)
			}
			submitted++
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(findings, func(a, b Finding) int {
		if c := search.Compare(a.Company, b.Company); c != 0 {
			return c
		}
		if c := cmp.Compare(a.EntryID, b.EntryID); c != 0 {
			return c
		}
		if c := cmp.Compare(a.qaIndex, b.qaIndex); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Offset, b.Offset); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})

	r.logger.Debug("lint report complete", "answers", submitted, "findings", len(findings))
	return findings, nil
}

func checkAnswer(entryID core.ID, company string, qaIndex int, qa *core.QAItem, cfg highlight.Config) []Finding {
	var out []Finding
	newFinding := func(cat highlight.Category, text string, offset int) Finding {
		return Finding{
			EntryID:  entryID,
			Company:  company,
			QAID:     qa.ID,
			Question: qa.Question,
			Category: cat,
			Text:     text,
			Offset:   offset,
			qaIndex:  qaIndex,
		}
	}

	if cfg.Enabled() {
		offset := 0
		for _, s := range highlight.Render(qa.Answer, "", cfg) {
			if s.Kind == highlight.KindLint {
				out = append(out, newFinding(s.Category, s.Text, offset))
			}
			offset += utf8.RuneCountInString(s.Text)
		}
	}

	if qa.OverLimit() {
		out = append(out, newFinding(CategoryOverLimit,
			fmt.Sprintf("%d/%d", qa.CharCount(), qa.CharLimit), qa.CharLimit))
	}
	return out
}
