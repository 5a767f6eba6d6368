package jsonsmith

import "github.com/dlclark/regexp2"

// StoppingPattern decides where a scalar token ends inside the oracle's
// unbounded output. It is re-evaluated against each cumulative response
// snapshot, anchored at the start; on the first match the designated capture
// group is taken as the token and the stream is abandoned.
//
// Patterns use regexp2 syntax because the string terminator needs a negative
// lookbehind (a closing quote not preceded by a backslash).
type StoppingPattern struct {
	re     *regexp2.Regexp
	group  int
	source string
}

// NewStoppingPattern compiles an anchored stopping pattern. group selects
// the capture group returned on match; 0 returns the whole match.
func NewStoppingPattern(pattern string, group int) (*StoppingPattern, error) {
	re, err := regexp2.Compile(`\A(?:`+pattern+`)`, 0)
	if err != nil {
		return nil, err
	}
	return &StoppingPattern{re: re, group: group, source: pattern}, nil
}

// MustStoppingPattern is NewStoppingPattern but panics on a bad pattern.
func MustStoppingPattern(pattern string, group int) *StoppingPattern {
	p, err := NewStoppingPattern(pattern, group)
	if err != nil {
		panic(err)
	}
	return p
}

// Match applies the pattern to a cumulative snapshot. On a match it returns
// the designated capture group and true.
func (p *StoppingPattern) Match(text string) (string, bool) {
	m, err := p.re.FindStringMatch(text)
	if err != nil || m == nil {
		return "", false
	}
	g := m.GroupByNumber(p.group)
	if g == nil {
		return "", false
	}
	return g.String(), true
}

// String returns the pattern source, without the anchoring wrapper.
func (p *StoppingPattern) String() string {
	return p.source
}

// The stopping patterns the generators use.
var (
	// numberStop captures everything up to the first comma, whitespace, or
	// closing bracket/brace.
	numberStop = MustStoppingPattern(`(.+)[,\s\]\}]`, 1)

	// booleanStop accepts true/false, and 0/1 because models that have
	// established a numeric pattern for booleans keep following it.
	booleanStop = MustStoppingPattern(`\s*(true|false|[01])`, 1)

	// stringStop captures up to an unescaped closing quote.
	stringStop = MustStoppingPattern(`(.*)(?<!\\)"`, 1)

	// arrayHeadStop captures the first two non-whitespace characters, enough
	// to tell `[]` apart from `[ <element>`.
	arrayHeadStop = MustStoppingPattern(`\s*([^\s]\s*[^\s])`, 1)
)
