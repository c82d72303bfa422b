package highlight

import (
	"time"

	"github.com/dlclark/regexp2"
)

// matchTimeout bounds a single regexp2 match.
const matchTimeout = 500 * time.Millisecond

type pattern struct {
	category Category
	expr     string
	re       *regexp2.Regexp
}

func newPattern(category Category, expr string) *pattern {
	re := regexp2.MustCompile(expr, regexp2.IgnoreCase)
	re.MatchTimeout = matchTimeout
	return &pattern{category: category, expr: expr, re: re}
}

func (p *pattern) matches(s string) bool {
	ok, err := p.re.MatchString(s)
	return err == nil && ok
}

var (
	disallowedPattern = newPattern(CategoryDisallowed,
		`(?:御社|御行|なので|ですが|お伺い|おっしゃられ|拝見させていただき|仰っていただき)`)

	// Used with RegisterKeigo.
	keigoPattern = newPattern(CategoryKeigo,
		`(?:だ|である|った|できた|(?<!て)いる|(?<!で)ある|ない)(?=[。\n]|$)`)

	// Used with RegisterJoutai.
	joutaiPattern = newPattern(CategoryJoutai,
		`(?:です|ます|でした|ました|ません|ましょう|ございます|おります|いたします)(?=[。\n]|$)`)
)
