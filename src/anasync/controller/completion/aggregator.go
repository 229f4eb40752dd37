package completion

import (
	"fmt"
	"strconv"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

// Config holds the user preferences applied when aggregating candidates.
type Config struct {
	Ordering           string    `yaml:"ordering"`
	Filter             bool      `yaml:"filter"`
	MatchMode          MatchMode `yaml:"matchMode"`
	HideAdvanced       bool      `yaml:"hideAdvanced"`
	MatchInsertionText bool      `yaml:"matchInsertionText"`
}

// Aggregator combines provider results into one ranked, de-duplicated and filtered set.
type Aggregator struct {
	ordering Ordering
	filter   FilterOptions
	logger   *zap.SugaredLogger
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithLogger sets the logger used to report aggregation details.
func WithLogger(logger *zap.SugaredLogger) AggregatorOption {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// NewAggregator validates cfg and returns an Aggregator applying it.
func NewAggregator(cfg Config, opts ...AggregatorOption) (*Aggregator, error) {
	ordering, err := ParseOrdering(cfg.Ordering)
	if err != nil {
		return nil, err
	}
	matcher, err := NewMatcher(cfg.MatchMode)
	if err != nil {
		return nil, err
	}

	a := &Aggregator{
		ordering: ordering,
		filter: FilterOptions{
			Enabled:            cfg.Filter,
			HideAdvanced:       cfg.HideAdvanced,
			MatchInsertionText: cfg.MatchInsertionText,
			Matcher:            matcher,
		},
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Ordering returns the ordering applied by Aggregate.
func (a *Aggregator) Ordering() Ordering {
	return a.ordering
}

// FilterOptions returns the filtering preferences applied by Aggregate.
func (a *Aggregator) FilterOptions() FilterOptions {
	return a.filter
}

// Aggregate merges sets in the given priority order, orders the result and filters it against the typed text.
func (a *Aggregator) Aggregate(text string, sets ...[]Candidate) []Candidate {
	merged := Merge(sets...)
	ordered := Order(merged, a.ordering)
	result := Filter(ordered, text, a.filter)
	a.logger.Debugw("aggregated completion candidates",
		"text", text,
		"providers", len(sets),
		"merged", len(merged),
		"visible", len(result),
	)
	return result
}

// SelectBestMatch returns the best match for text among candidates using the configured matcher.
func (a *Aggregator) SelectBestMatch(candidates []Candidate, text string) (best Candidate, selected bool, unique bool) {
	return SelectBestMatch(candidates, text, a.filter)
}

// CompletionList converts aggregated candidates to an LSP completion list. Each item carries a sort text that keeps
// the aggregated order on clients that sort by it.
func (a *Aggregator) CompletionList(candidates []Candidate, incomplete bool) *protocol.CompletionList {
	width := len(strconv.Itoa(len(candidates)))
	items := make([]protocol.CompletionItem, 0, len(candidates))
	for i, c := range candidates {
		items = append(items, c.CompletionItem(fmt.Sprintf("%0*d", width, i)))
	}
	return &protocol.CompletionList{
		IsIncomplete: incomplete,
		Items:        items,
	}
}
