package search

import (
	"fmt"
	"strings"

	"github.com/poiesic/esmanager/core"
)

// Tokenize lowercases query and splits it on runs of whitespace,
// including the full-width space U+3000. An empty or blank query yields no tokens.
func Tokenize(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// TokenizeTags is Tokenize for tag fields: it also splits on the ASCII,
// full-width and ideographic commas.
func TokenizeTags(s string) []string {
	return core.SplitTags(strings.ToLower(s))
}

// Strategy selects how tokens are combined when matching.
type Strategy int

const (
	// StrategyAll accepts text containing every token.
	StrategyAll Strategy = iota
	// StrategyAny accepts text containing at least one token.
	StrategyAny
)

func (s Strategy) String() string {
	switch s {
	case StrategyAll:
		return "all"
	case StrategyAny:
		return "any"
	default:
		return "unknown"
	}
}

// ParseStrategy parses the names printed by String. The empty string
// selects StrategyAll.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "all":
		return StrategyAll, nil
	case "any":
		return StrategyAny, nil
	default:
		return StrategyAll, fmt.Errorf("unknown match strategy %q (want all or any)", name)
	}
}

// Match applies the strategy. text must already be case-folded.
func (s Strategy) Match(text string, tokens []string) bool {
	if s == StrategyAny {
		return MatchAny(text, tokens)
	}
	return MatchAll(text, tokens)
}

// MatchAll reports whether every token is a substring of text.
// No tokens means no filter, so it returns true.
func MatchAll(text string, tokens []string) bool {
	for _, tok := range tokens {
		if !strings.Contains(text, tok) {
			return false
		}
	}
	return true
}

// MatchAny reports whether at least one token is a substring of text.
// No tokens means no filter, so it returns true.
func MatchAny(text string, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}

// EntryText is the case-folded projection of an entry's own fields:
// company, status and selection type.
func EntryText(e *core.Entry) string {
	return strings.ToLower(e.Company + " " + string(e.Status) + " " + e.SelectionType)
}

// QAText is the case-folded projection of a QA item in the context of its
// entry: EntryText followed by question, answer, note and tags.
func QAText(e *core.Entry, qa *core.QAItem) string {
	return qaProjection(EntryText(e), qa)
}

func qaProjection(base string, qa *core.QAItem) string {
	var b strings.Builder
	b.WriteString(base)
	for _, s := range [...]string{qa.Question, qa.Answer, qa.Note} {
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(s))
	}
	for _, t := range qa.Tags {
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(t))
	}
	return b.String()
}
