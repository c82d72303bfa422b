package search

import (
	"testing"

	"github.com/poiesic/esmanager/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty", "", nil},
		{"blank", " \t　", nil},
		{"lowercases", "Acme VISION", []string{"acme", "vision"}},
		{"full-width space", "御社　ビジョン", []string{"御社", "ビジョン"}},
		{"runs of whitespace", "  a   b  ", []string{"a", "b"}},
		{"commas are kept", "a,b", []string{"a,b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.query)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenizeTags(t *testing.T) {
	assert.Equal(t, []string{"志望動機", "gakuchika", "強み"}, TokenizeTags("志望動機、GakuChika，強み"))
	assert.Empty(t, TokenizeTags(" , "))
}

func TestMatchStrategies(t *testing.T) {
	text := "acme corp why this company? i admire acme's vision."

	tests := []struct {
		name    string
		tokens  []string
		wantAll bool
		wantAny bool
	}{
		{"no tokens", nil, true, true},
		{"all present", []string{"acme", "vision"}, true, true},
		{"one present", []string{"acme", "mission"}, false, true},
		{"none present", []string{"mission"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantAll, MatchAll(text, tt.tokens))
			assert.Equal(t, tt.wantAny, MatchAny(text, tt.tokens))
			assert.Equal(t, tt.wantAll, StrategyAll.Match(text, tt.tokens))
			assert.Equal(t, tt.wantAny, StrategyAny.Match(text, tt.tokens))
		})
	}
}

func TestStrategyString(t *testing.T) {
	assert.Equal(t, "all", StrategyAll.String())
	assert.Equal(t, "any", StrategyAny.String())
	assert.Equal(t, "unknown", Strategy(9).String())
}

func TestParseStrategy(t *testing.T) {
	for name, want := range map[string]Strategy{"": StrategyAll, "all": StrategyAll, " ANY ": StrategyAny} {
		got, err := ParseStrategy(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseStrategy("some")
	assert.Error(t, err)
}

func TestProjections(t *testing.T) {
	e := &core.Entry{Company: "Acme Corp", Status: core.StatusDrafting, SelectionType: "本選考"}
	qa := &core.QAItem{Question: "Why?", Answer: "Vision", Note: "N", Tags: []string{"Motivation"}}

	assert.Equal(t, "acme corp 作成中 本選考", EntryText(e))
	assert.Equal(t, "acme corp 作成中 本選考 why? vision n motivation", QAText(e, qa))
}

func TestCompare(t *testing.T) {
	assert.Equal(t, 0, Compare("あ", "あ"))
	assert.Equal(t, -1, Compare("あ", "い"))
	assert.Equal(t, 1, Compare("か", "あ"))
}
