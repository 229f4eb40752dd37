package completion

import (
	"context"
	"fmt"

	"github.com/uber-go/tally"
	"github.com/uber/analysis-sync/src/anasync/controller/analysis"
	docsync "github.com/uber/analysis-sync/src/anasync/controller/doc-sync"
	analyzerclient "github.com/uber/analysis-sync/src/anasync/gateway/analyzer-client"
	"github.com/uber/analysis-sync/src/anasync/internal/translator"
	"go.lsp.dev/protocol"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	_nameKey   = "completion"
	_configKey = "completion"

	_staleCounter   = "stale_completions_ignored"
	_clampedCounter = "translation_clamped"
)

//go:generate mockgen -source=controller.go -destination=completionmock/controller_mock.go -package=completionmock

// Controller answers completion requests with the aggregated results of the engine's providers.
type Controller interface {
	// Complete returns the completion list at the requested position. A response computed against a version older
	// than the latest analysis is dropped and an empty, incomplete list is returned so the client asks again.
	Complete(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error)
}

// Params are inbound parameters to initialize a new controller.
type Params struct {
	fx.In

	Analyzer  analyzerclient.Gateway
	Documents docsync.Controller
	Analysis  analysis.Controller
	Logger    *zap.SugaredLogger
	Stats     tally.Scope
	Config    config.Provider
}

type provider func(ctx context.Context, params *analyzerclient.MemberQueryParams) (*analyzerclient.MembersResult, error)

type controller struct {
	analyzer   analyzerclient.Gateway
	documents  docsync.Controller
	analysis   analysis.Controller
	aggregator *Aggregator
	logger     *zap.SugaredLogger
	stats      tally.Scope
}

// New creates a completion controller from the completion config block.
func New(p Params) (Controller, error) {
	cfg := Config{Ordering: string(UnderscoresLast), Filter: true, MatchMode: MatchPrefix, HideAdvanced: true}
	if err := p.Config.Get(_configKey).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKey, err)
	}

	logger := p.Logger.With("plugin", _nameKey)
	aggregator, err := NewAggregator(cfg, WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("invalid %q config: %w", _configKey, err)
	}

	return &controller{
		analyzer:   p.Analyzer,
		documents:  p.Documents,
		analysis:   p.Analysis,
		aggregator: aggregator,
		logger:     logger,
		stats:      p.Stats.SubScope("completion"),
	}, nil
}

func (c *controller) Complete(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	u := params.TextDocument.URI
	s, err := c.documents.Capture(u)
	if err != nil {
		return nil, err
	}

	v := s.DocumentVersion()
	offset, clamped := v.Mapper().ClampedPositionOffset(params.Position)
	if clamped {
		c.logger.Warnw("completion position past the end of the document, clamping",
			"document", string(u), "version", s.Version(), "line", params.Position.Line, "character", params.Position.Character)
		c.stats.Counter(_clampedCounter).Inc(1)
	}
	point := PointAt(v.Text(), offset)
	query := &analyzerclient.MemberQueryParams{
		URI:        u,
		Version:    s.Version(),
		Position:   params.Position,
		Expression: point.Expression,
		Name:       point.Name,
	}

	sets, err := c.query(ctx, query)
	if err != nil {
		s.Release()
		return nil, err
	}

	tr, err := c.analysis.Resolve(s, u)
	if err != nil {
		return nil, fmt.Errorf("resolving completion for %q: %w", u, err)
	}
	if tr == nil {
		c.stats.Counter(_staleCounter).Inc(1)
		return &protocol.CompletionList{IsIncomplete: true, Items: []protocol.CompletionItem{}}, nil
	}
	defer tr.Close()

	candidates := c.aggregator.Aggregate(point.Name, sets...)
	list := c.aggregator.CompletionList(candidates, false)
	c.preselect(candidates, point.Name, list)
	c.attachEdits(tr, point, offset, list)
	return list, nil
}

// preselect marks the item best matching name when no other candidate matches as well.
func (c *controller) preselect(candidates []Candidate, name string, list *protocol.CompletionList) {
	if name == "" {
		return
	}
	best, selected, unique := c.aggregator.SelectBestMatch(candidates, name)
	if !selected || !unique {
		return
	}
	for i, candidate := range candidates {
		if candidate == best {
			list.Items[i].Preselect = true
			return
		}
	}
}

// query runs the providers for the point concurrently and returns their candidates in provider priority order.
func (c *controller) query(ctx context.Context, params *analyzerclient.MemberQueryParams) ([][]Candidate, error) {
	providers := []provider{c.analyzer.GetAllAvailableMembers, c.analyzer.FindNameInAllModules}
	if params.Expression != "" {
		providers = []provider{c.analyzer.GetMembers}
	}

	sets := make([][]Candidate, len(providers))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range providers {
		g.Go(func() error {
			result, err := p(gctx, params)
			if err != nil {
				return fmt.Errorf("querying completion provider %d: %w", i, err)
			}
			if result == nil {
				return nil
			}
			if result.Version != params.Version {
				c.logger.Debugw("provider answered for another version", "requested", params.Version, "answered", result.Version)
			}
			sets[i] = candidatesFromMembers(result.Members)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sets, nil
}

// attachEdits makes every item replace the typed name, with the name's range projected onto the live buffer.
func (c *controller) attachEdits(tr *translator.Translator, point Point, offset int, list *protocol.CompletionList) {
	span := tr.TranslateForward(point.NameStart, offset)
	r, err := span.Version.Mapper().OffsetRange(span.Start, span.End)
	if err != nil {
		c.logger.Warnw("unable to map completion range", "start", span.Start, "end", span.End, "error", err)
		return
	}
	for i := range list.Items {
		list.Items[i].TextEdit = &protocol.TextEdit{Range: r, NewText: list.Items[i].InsertText}
	}
}

func candidatesFromMembers(members []analyzerclient.Member) []Candidate {
	result := make([]Candidate, 0, len(members))
	for _, m := range members {
		result = append(result, Candidate{
			Name:          m.Name,
			InsertionText: m.InsertionText,
			Documentation: m.Documentation,
			MemberKind:    m.Kind,
			MergeKey:      m.MergeKey,
		})
	}
	return result
}
