package rules

import (
	"fmt"
	"regexp"

	"github.com/houraiteahouse/hourai/automod/engine"
	"github.com/houraiteahouse/hourai/automod/keyword"

	lru "github.com/hashicorp/golang-lru/v2"
)

// compiled filter patterns, shared by all rejectors. keyed by the full expression
var patternCache *lru.Cache[string, *regexp.Regexp]

func init() {
	c, err := lru.New[string, *regexp.Regexp](512)
	if err != nil {
		panic(err)
	}
	patternCache = c
}

func compilePattern(pattern string, fullMatch bool) (*regexp.Regexp, error) {
	expr := "(?i)" + pattern
	if fullMatch {
		expr = "(?i)^(?:" + pattern + ")$"
	}
	if re, ok := patternCache.Get(expr); ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid name filter %q: %w", pattern, err)
	}
	patternCache.Add(expr, re)
	return re, nil
}

// Rejects members whose username or display name matches any of the filters (case-insensitive regular expressions).
//
// If Set is non-empty and the engine's set store has a set of that name, its members replace Filters.
type StringFilterRejector struct {
	Prefix  string
	Filters []string
	Set     string
	// match whole names only, instead of anywhere in the name
	FullMatch bool
}

var _ engine.Validator = StringFilterRejector{}

func (r StringFilterRejector) Name() string {
	if r.Set != "" {
		return "string_filter/" + r.Set
	}
	return "string_filter"
}

func (r StringFilterRejector) patterns(c *engine.MemberContext) ([]string, error) {
	if r.Set == "" {
		return r.Filters, nil
	}
	l, err := c.SetMembers(r.Set)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return r.Filters, nil
	}
	return l, nil
}

func (r StringFilterRejector) Evaluate(c *engine.MemberContext) (engine.Verdict, error) {
	var v engine.Verdict
	patterns, err := r.patterns(c)
	if err != nil {
		return v, err
	}
	names := candidateNames(c.Member)
	for _, p := range patterns {
		re, err := compilePattern(p, r.FullMatch)
		if err != nil {
			return v, err
		}
		for _, name := range names {
			if re.MatchString(name) {
				v.Reject(fmt.Sprintf("%sName matches: `%s`", r.Prefix, p))
				break
			}
		}
	}
	return v, nil
}

// Picks which of the candidate's names is checked for collisions.
type NameSelector func(m engine.Member) string

func SelectUsername(m engine.Member) string { return m.Username }

func SelectNick(m engine.Member) string { return m.Nick }

// Picks which roster members are protected from impersonation.
type MemberFilter func(g *engine.Guild, m engine.Member) bool

func IsModerator(g *engine.Guild, m engine.Member) bool { return g.IsModerator(m) }

func IsBot(g *engine.Guild, m engine.Member) bool { return m.Bot }

// Rejects members whose selected name collides with the name of another guild member matching Filter, eg to catch users impersonating moderators or bots.
//
// Names are compared after normalization (case, punctuation and diacritics are ignored).
type NameMatchRejector struct {
	Label  string
	Prefix string
	Filter MemberFilter
	// defaults to SelectUsername
	Selector NameSelector
}

var _ engine.Validator = NameMatchRejector{}

func (r NameMatchRejector) Name() string {
	if r.Label != "" {
		return r.Label
	}
	return "name_match"
}

func (r NameMatchRejector) Evaluate(c *engine.MemberContext) (engine.Verdict, error) {
	var v engine.Verdict
	sel := r.Selector
	if sel == nil {
		sel = SelectUsername
	}
	name := keyword.NormalizeName(sel(c.Member))
	if name == "" || r.Filter == nil {
		return v, nil
	}
	for _, other := range c.Guild.Members {
		if other.ID == c.Member.ID || !r.Filter(c.Guild, other) {
			continue
		}
		for _, otherName := range candidateNames(other) {
			if keyword.NormalizeName(otherName) == name {
				v.Reject(fmt.Sprintf("%sMatches: `%s`", r.Prefix, otherName))
				break
			}
		}
	}
	return v, nil
}
