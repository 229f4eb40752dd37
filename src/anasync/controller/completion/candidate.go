package completion

import (
	"regexp"

	"go.lsp.dev/protocol"
)

var _advancedPattern = regexp.MustCompile(`__\w+__($|\s)`)

// Candidate is a single completion suggestion from a provider.
type Candidate struct {
	Name          string
	InsertionText string
	Documentation string
	MemberKind    protocol.CompletionItemKind
	// MergeKey identifies the symbol a candidate refers to, independently of how it is displayed.
	MergeKey string
}

// key returns the identity used to de-duplicate candidates. Candidates without a MergeKey are identified by name.
func (c Candidate) key() string {
	if c.MergeKey != "" {
		return c.MergeKey
	}
	return c.Name
}

// insertText returns the text inserted when the candidate is committed.
func (c Candidate) insertText() string {
	if c.InsertionText != "" {
		return c.InsertionText
	}
	return c.Name
}

// IsAdvanced reports whether the candidate is a special member such as __init__.
func (c Candidate) IsAdvanced(matchInsertionText bool) bool {
	if matchInsertionText {
		return _advancedPattern.MatchString(c.insertText())
	}
	return _advancedPattern.MatchString(c.Name)
}

// CompletionItem converts the candidate into its LSP representation. sortText preserves the aggregated order on
// clients that sort by it.
func (c Candidate) CompletionItem(sortText string) protocol.CompletionItem {
	item := protocol.CompletionItem{
		Label:      c.Name,
		Kind:       c.MemberKind,
		InsertText: c.insertText(),
		SortText:   sortText,
		FilterText: c.Name,
	}
	if c.Documentation != "" {
		item.Documentation = protocol.MarkupContent{
			Kind:  protocol.PlainText,
			Value: c.Documentation,
		}
	}
	return item
}

// Merge combines candidate sets in priority order. The first candidate seen for a merge key wins and the relative
// order of first occurrences is kept.
func Merge(sets ...[]Candidate) []Candidate {
	size := 0
	for _, set := range sets {
		size += len(set)
	}

	seen := make(map[string]struct{}, size)
	result := make([]Candidate, 0, size)
	for _, set := range sets {
		for _, c := range set {
			k := c.key()
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			result = append(result, c)
		}
	}
	return result
}
