// Package hints maps a failed (or suspicious) SQL run to a canned
// explanation of the MySQL-vs-SQLite difference behind it.
package hints

import (
	"html"
	"regexp"
	"strings"

	"sqlplayground/internal/utils"
)

type Severity string

const (
	// SeverityError rules only apply when the engine reported an error.
	SeverityError Severity = "error"
	// SeverityNote rules also apply to statements that ran fine.
	SeverityNote Severity = "note"
)

type Rule struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Severity Severity `json:"severity"`
	HTML     string   `json:"html"`

	query *regexp.Regexp
	err   *regexp.Regexp
}

func (r Rule) matches(query, errMsg string) bool {
	if r.query == nil && r.err == nil {
		return false
	}
	if r.Severity == SeverityError && errMsg == "" {
		return false
	}
	if r.query != nil && !r.query.MatchString(query) {
		return false
	}
	if r.err != nil && !r.err.MatchString(errMsg) {
		return false
	}
	return true
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)
var spacePattern = regexp.MustCompile(`\s+`)

// Text returns the help message with markup stripped, for terminals.
func (r Rule) Text() string {
	s := tagPattern.ReplaceAllString(r.HTML, " ")
	s = html.UnescapeString(s)
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Matcher holds an ordered rule list. The first matching rule wins.
type Matcher struct {
	rules []Rule
}

func NewMatcher(rules []Rule) *Matcher {
	return &Matcher{rules: rules}
}

// Default returns a matcher over the built-in rule list.
func Default() *Matcher {
	return defaultMatcher
}

var defaultMatcher = NewMatcher(builtinRules)

// Match scans the rules in order and returns the first one whose patterns
// all match. With an empty errMsg only note rules are eligible. Query
// patterns never look inside string literals.
func (m *Matcher) Match(query, errMsg string) (Rule, bool) {
	masked := utils.MaskLiterals(query)
	for _, r := range m.rules {
		if r.matches(masked, errMsg) {
			return r, true
		}
	}
	return Rule{}, false
}

func (m *Matcher) Rules() []Rule {
	out := make([]Rule, len(m.rules))
	copy(out, m.rules)
	return out
}

// Lookup finds a rule by ID.
func (m *Matcher) Lookup(id string) (Rule, bool) {
	for _, r := range m.rules {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}
