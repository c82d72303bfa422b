package search

import (
	"slices"
	"strings"

	"github.com/poiesic/esmanager/core"
)

// DraftText is the case-folded projection of a draft: its title followed
// by every item's question, answer, note and tags.
func DraftText(d *core.Draft) string {
	base := strings.ToLower(d.Title)
	for i := range d.Items {
		base = qaProjection(base, &d.Items[i])
	}
	return base
}

// FilterDrafts returns the drafts whose projection matches query under
// strategy, most recently updated first. Ties keep ID order.
func FilterDrafts(drafts []core.Draft, query string, strategy Strategy) []core.Draft {
	tokens := Tokenize(query)
	out := make([]core.Draft, 0, len(drafts))
	for i := range drafts {
		if strategy.Match(DraftText(&drafts[i]), tokens) {
			out = append(out, drafts[i].Clone())
		}
	}
	slices.SortStableFunc(out, func(a, b core.Draft) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out
}
