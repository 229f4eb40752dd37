package completion

import (
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// MatchMode names a Matcher.
type MatchMode string

const (
	MatchPrefix              MatchMode = "prefix"
	MatchPrefixIgnoreCase    MatchMode = "prefixIgnoreCase"
	MatchSubstring           MatchMode = "substring"
	MatchSubstringIgnoreCase MatchMode = "substringIgnoreCase"
	MatchFuzzy               MatchMode = "fuzzy"
	MatchFuzzyIgnoreCase     MatchMode = "fuzzyIgnoreCase"
)

// Matcher decides whether a candidate matches typed text and how well.
type Matcher interface {
	// Score returns 0 when candidate does not match text, and a larger value for a better match otherwise.
	Score(candidate, text string) int
}

// Matches reports whether m accepts candidate for text.
func Matches(m Matcher, candidate, text string) bool {
	return m.Score(candidate, text) > 0
}

// NewMatcher returns the Matcher for mode. An empty mode selects MatchPrefixIgnoreCase.
func NewMatcher(mode MatchMode) (Matcher, error) {
	switch mode {
	case MatchPrefix:
		return prefixMatcher{}, nil
	case "", MatchPrefixIgnoreCase:
		return prefixMatcher{ignoreCase: true}, nil
	case MatchSubstring:
		return substringMatcher{}, nil
	case MatchSubstringIgnoreCase:
		return substringMatcher{ignoreCase: true}, nil
	case MatchFuzzy:
		return fuzzyMatcher{}, nil
	case MatchFuzzyIgnoreCase:
		return fuzzyMatcher{ignoreCase: true}, nil
	default:
		return nil, fmt.Errorf("unknown completion match mode %q", mode)
	}
}

// Scores shared by the exact matchers. A case-sensitive hit always outranks a case-insensitive one.
const (
	_scoreContains = 1 << iota
	_scorePrefix
	_scoreEqual
	_scoreCaseExact
)

type prefixMatcher struct {
	ignoreCase bool
}

func (m prefixMatcher) Score(candidate, text string) int {
	switch {
	case candidate == text:
		return _scoreEqual | _scoreCaseExact
	case strings.HasPrefix(candidate, text):
		return _scorePrefix | _scoreCaseExact
	case !m.ignoreCase:
		return 0
	case strings.EqualFold(candidate, text):
		return _scoreEqual
	case hasPrefixFold(candidate, text):
		return _scorePrefix
	default:
		return 0
	}
}

type substringMatcher struct {
	ignoreCase bool
}

func (m substringMatcher) Score(candidate, text string) int {
	if score := (prefixMatcher{ignoreCase: m.ignoreCase}).Score(candidate, text); score > 0 {
		return score
	}
	switch {
	case strings.Contains(candidate, text):
		return _scoreContains | _scoreCaseExact
	case m.ignoreCase && strings.Contains(strings.ToLower(candidate), strings.ToLower(text)):
		return _scoreContains
	default:
		return 0
	}
}

// _fuzzyBase keeps fuzzy scores positive for any realistic edit distance.
const _fuzzyBase = 1 << 16

type fuzzyMatcher struct {
	ignoreCase bool
}

// Score ranks subsequence matches by how few characters of candidate are left unmatched.
func (m fuzzyMatcher) Score(candidate, text string) int {
	var distance int
	if m.ignoreCase {
		distance = fuzzy.RankMatchFold(text, candidate)
	} else {
		distance = fuzzy.RankMatch(text, candidate)
	}
	if distance < 0 {
		return 0
	}
	score := _fuzzyBase - distance
	if score < 1 {
		score = 1
	}
	if strings.HasPrefix(candidate, text) {
		score += _fuzzyBase
	}
	return score
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
