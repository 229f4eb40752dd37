package completion

import "strings"

// FilterOptions controls which candidates remain visible for the typed text.
type FilterOptions struct {
	// Enabled hides candidates that Matcher rejects.
	Enabled bool
	// HideAdvanced hides __special__ members unless the typed text starts with "__".
	HideAdvanced bool
	// MatchInsertionText matches against the insertion text instead of the display name.
	MatchInsertionText bool
	Matcher            Matcher
}

func (o FilterOptions) matchText(c Candidate) string {
	if o.MatchInsertionText {
		return c.insertText()
	}
	return c.Name
}

// Filter returns the candidates visible for text. When the typed text matches nothing, the candidates visible before
// matching are returned so the user still sees suggestions, with __special__ members still hidden.
func Filter(candidates []Candidate, text string, o FilterOptions) []Candidate {
	if !o.Enabled && !o.HideAdvanced {
		return candidates
	}

	hideAdvanced := o.HideAdvanced && !allAdvanced(candidates, o.MatchInsertionText) && !strings.HasPrefix(text, "__")
	shown := candidates
	if hideAdvanced {
		shown = keep(candidates, func(c Candidate) bool {
			return !c.IsAdvanced(o.MatchInsertionText)
		})
	}
	if text == "" || !o.Enabled || o.Matcher == nil {
		return shown
	}

	visible := keep(shown, func(c Candidate) bool {
		return Matches(o.Matcher, o.matchText(c), text)
	})
	if len(visible) == 0 {
		return shown
	}
	return visible
}

// SelectBestMatch returns the candidate scoring highest for text. selected is false when no candidate matches, and
// unique is false when another candidate has the same score.
func SelectBestMatch(candidates []Candidate, text string, o FilterOptions) (best Candidate, selected bool, unique bool) {
	if len(candidates) == 0 || o.Matcher == nil {
		return Candidate{}, false, false
	}

	bestScore := -1
	for _, c := range candidates {
		score := o.Matcher.Score(o.matchText(c), text)
		switch {
		case score > bestScore:
			best, bestScore, unique = c, score, true
		case score == bestScore:
			unique = false
		}
	}
	return best, bestScore > 0, unique && bestScore > 0
}

// SelectSingleMatch returns the only candidate matching text, ignoring filtering preferences.
func SelectSingleMatch(candidates []Candidate, text string, o FilterOptions) (Candidate, bool) {
	if o.Matcher == nil {
		return Candidate{}, false
	}
	var match Candidate
	found := false
	for _, c := range candidates {
		if !Matches(o.Matcher, o.matchText(c), text) {
			continue
		}
		if found {
			return Candidate{}, false
		}
		match, found = c, true
	}
	return match, found
}

func allAdvanced(candidates []Candidate, matchInsertionText bool) bool {
	for _, c := range candidates {
		if !c.IsAdvanced(matchInsertionText) {
			return false
		}
	}
	return true
}

func keep(candidates []Candidate, f func(Candidate) bool) []Candidate {
	result := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if f(c) {
			result = append(result, c)
		}
	}
	return result
}
