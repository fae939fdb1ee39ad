package holder

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/grndstats/backend/internal/domain/account"
)

// DefaultFuzzyThreshold is the largest normalized edit distance accepted as
// a fuzzy name match.
const DefaultFuzzyThreshold = 0.3

// MatchKind records which rule produced a match.
type MatchKind string

const (
	MatchNone    MatchKind = "none"
	MatchID      MatchKind = "id"
	MatchAddress MatchKind = "address"
	MatchName    MatchKind = "name"
	MatchFuzzy   MatchKind = "fuzzy"
)

// Result is the outcome of Matcher.Match. Record is nil when Kind is MatchNone.
// Score is the normalized edit distance (0 for exact matches).
type Result struct {
	Record *Record
	Kind   MatchKind
	Score  float64
}

// Found reports whether a record matched.
func (r Result) Found() bool {
	return r.Record != nil
}

// Matcher finds the holder record an identifier refers to. It is safe for
// concurrent use.
type Matcher struct {
	threshold float64
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithFuzzyThreshold sets the fuzzy acceptance threshold. Values outside
// (0, 1] disable fuzzy matching.
func WithFuzzyThreshold(threshold float64) MatcherOption {
	return func(m *Matcher) {
		m.threshold = threshold
	}
}

// NewMatcher creates a Matcher.
func NewMatcher(opts ...MatcherOption) *Matcher {
	m := &Matcher{threshold: DefaultFuzzyThreshold}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match applies, in order: exact id (digits only, no fallthrough), address
// membership, case-insensitive display name, then fuzzy display name.
func (m *Matcher) Match(input string, dataset Dataset) Result {
	none := Result{Kind: MatchNone}
	if dataset.IsEmpty() {
		return none
	}
	q := strings.ToLower(strings.TrimSpace(input))
	if q == "" {
		return none
	}

	if account.IsNumeric(q) {
		if rec, ok := dataset.ByID(q); ok {
			return Result{Record: rec, Kind: MatchID}
		}
		return none
	}

	if account.IsAddress(q) {
		for i := range dataset.Records {
			if dataset.Records[i].HasAddress(q) {
				return Result{Record: &dataset.Records[i], Kind: MatchAddress}
			}
		}
	}

	fold := cases.Fold()
	name := foldName(fold, q)
	if name == "" {
		return none
	}
	for i := range dataset.Records {
		if foldName(fold, dataset.Records[i].DisplayName) == name {
			return Result{Record: &dataset.Records[i], Kind: MatchName}
		}
	}

	return m.fuzzy(fold, name, dataset)
}

func (m *Matcher) fuzzy(fold cases.Caser, name string, dataset Dataset) Result {
	if m.threshold <= 0 || m.threshold > 1 {
		return Result{Kind: MatchNone}
	}
	best := -1
	bestScore := 2.0
	for i := range dataset.Records {
		candidate := foldName(fold, dataset.Records[i].DisplayName)
		if candidate == "" {
			continue
		}
		score := Distance(name, candidate)
		// strict less-than keeps the earliest record on ties
		if score <= m.threshold && score < bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return Result{Kind: MatchNone}
	}
	return Result{Record: &dataset.Records[best], Kind: MatchFuzzy, Score: bestScore}
}

func foldName(fold cases.Caser, s string) string {
	return fold.String(account.StripHandle(s))
}

// Distance is the Levenshtein distance between a and b divided by the rune
// length of the longer string, in [0, 1].
func Distance(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longest)
}
