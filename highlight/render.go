package highlight

import (
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"github.com/poiesic/esmanager/search"
)

// Kind classifies a Segment.
type Kind int

const (
	KindPlain Kind = iota
	KindSearch
	KindLint
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindSearch:
		return "search"
	case KindLint:
		return "lint"
	default:
		return "unknown"
	}
}

// Category names the lint check that produced a KindLint segment.
type Category string

const (
	CategoryNone       Category = ""
	CategoryDisallowed Category = "disallowed"
	CategoryKeigo      Category = "keigo"
	CategoryJoutai     Category = "joutai"
)

// Segment is one run of display text.
type Segment struct {
	Text     string
	Kind     Kind
	Category Category // Set only for KindLint
}

// Render splits text into segments for display.
//
// Query tokens and enabled lint patterns are combined into one
// case-insensitive expression and matched left to right. Text between
// matches is plain. A matched fragment equal to a query token is a search
// match; otherwise the first enabled pattern (disallowed phrases before
// register) that matches it makes it a lint match. Adjacent segments are
// never merged.
//
// Empty text yields nil. Without tokens and checks, or if matching fails,
// the whole text is returned as one plain segment. Joining the segment
// texts always gives back text.
func Render(text, query string, cfg Config) []Segment {
	if text == "" {
		return nil
	}

	tokens := search.Tokenize(query)
	pats := cfg.patterns()
	if len(tokens) == 0 && len(pats) == 0 {
		return plain(text)
	}

	re, err := combine(tokens, pats)
	if err != nil {
		return plain(text)
	}
	segs, err := split(text, re, tokens, pats)
	if err != nil {
		return plain(text)
	}
	return segs
}

func plain(text string) []Segment {
	return []Segment{{Text: text, Kind: KindPlain}}
}

func combine(tokens []string, pats []*pattern) (*regexp2.Regexp, error) {
	alts := make([]string, 0, len(tokens)+len(pats))
	for _, tok := range tokens {
		alts = append(alts, "("+regexp2.Escape(tok)+")")
	}
	for _, p := range pats {
		alts = append(alts, "("+p.expr+")")
	}

	re, err := regexp2.Compile(strings.Join(alts, "|"), regexp2.IgnoreCase)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = matchTimeout
	return re, nil
}

// split walks the matches of re over text. regexp2 reports match
// positions in runes, so they are mapped back to byte offsets to slice
// text itself. An invalid byte counts as one rune, as in []rune(text).
func split(text string, re *regexp2.Regexp, tokens []string, pats []*pattern) ([]Segment, error) {
	offsets := runeOffsets(text)
	var segs []Segment
	pos := 0

	m, err := re.FindStringMatch(text)
	for ; err == nil && m != nil; m, err = re.FindNextMatch(m) {
		if m.Length == 0 {
			continue
		}
		if m.Index > pos {
			segs = append(segs, Segment{Text: text[offsets[pos]:offsets[m.Index]], Kind: KindPlain})
		}
		end := m.Index + m.Length
		segs = append(segs, classify(text[offsets[m.Index]:offsets[end]], tokens, pats))
		pos = end
	}
	if err != nil {
		return nil, err
	}

	if rest := offsets[pos]; rest < len(text) {
		segs = append(segs, Segment{Text: text[rest:], Kind: KindPlain})
	}
	return segs, nil
}

// runeOffsets returns the byte offset of every rune in text, followed by
// len(text).
func runeOffsets(text string) []int {
	offsets := make([]int, 0, len(text)+1)
	for i := 0; i < len(text); {
		offsets = append(offsets, i)
		_, width := utf8.DecodeRuneInString(text[i:])
		i += width
	}
	return append(offsets, len(text))
}

func classify(frag string, tokens []string, pats []*pattern) Segment {
	for _, tok := range tokens {
		if strings.EqualFold(frag, tok) {
			return Segment{Text: frag, Kind: KindSearch}
		}
	}
	for _, p := range pats {
		if p.matches(frag) {
			return Segment{Text: frag, Kind: KindLint, Category: p.category}
		}
	}
	return Segment{Text: frag, Kind: KindPlain}
}

// Join concatenates segment texts.
func Join(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Text)
	}
	return b.String()
}

// LintSegments returns only the KindLint segments.
func LintSegments(segs []Segment) []Segment {
	var out []Segment
	for _, s := range segs {
		if s.Kind == KindLint {
			out = append(out, s)
		}
	}
	return out
}
