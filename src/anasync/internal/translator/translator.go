// Package translator maps offsets and LSP coordinates between versions of one live buffer.
package translator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/uber-go/tally"
	syncerrors "github.com/uber/analysis-sync/src/anasync/internal/errors"
	"github.com/uber/analysis-sync/src/anasync/internal/versionchain"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

const _clampedCounter = "translation_clamped"

// Translator is anchored at one version of a chain and translates coordinates between that version and newer ones.
// The anchor version stays retained until Close. All methods are safe for concurrent use.
type Translator struct {
	chain   *versionchain.Chain
	from    *versionchain.DocumentVersion
	logger  *zap.SugaredLogger
	clamped tally.Counter

	closeOnce sync.Once
}

// Option configures a Translator.
type Option func(*options)

type options struct {
	logger *zap.SugaredLogger
	scope  tally.Scope
}

// WithLogger sets the logger used to report clamped coordinates.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithScope sets the metrics scope used to count clamped coordinates.
func WithScope(scope tally.Scope) Option {
	return func(o *options) {
		o.scope = scope
	}
}

// New creates a translator anchored at from and pins it. If from has already been released, the translator is
// anchored at the oldest retained version instead.
func New(from *versionchain.DocumentVersion, opts ...Option) (*Translator, error) {
	if from == nil {
		return nil, fmt.Errorf("translator requires a version")
	}

	o := options{
		logger: zap.NewNop().Sugar(),
		scope:  tally.NoopScope,
	}
	for _, opt := range opts {
		opt(&o)
	}

	t := &Translator{
		chain:   from.Chain(),
		from:    from,
		logger:  o.logger,
		clamped: o.scope.Counter(_clampedCounter),
	}

	for {
		err := t.chain.Pin(t.from)
		if err == nil {
			break
		}
		var notReachable *syncerrors.VersionNotReachableError
		if !errors.As(err, &notReachable) {
			return nil, err
		}
		oldest := t.chain.Oldest()
		t.logger.Warnw("anchoring translator at oldest retained version",
			"version", t.from.Number(),
			"oldest", oldest.Number(),
		)
		t.clamped.Inc(1)
		t.from = oldest
	}
	return t, nil
}

// From returns the anchor version.
func (t *Translator) From() *versionchain.DocumentVersion {
	return t.from
}

// Live returns the current version of the anchored chain.
func (t *Translator) Live() *versionchain.DocumentVersion {
	return t.chain.Current()
}

// Close releases the anchor version. Translating after Close is still possible while the version remains retained
// by others, and degrades to clamping otherwise.
func (t *Translator) Close() {
	t.closeOnce.Do(func() {
		t.chain.Unpin(t.from)
	})
}

// TranslateForward maps the span [start,end) of the anchor version onto the live version.
func (t *Translator) TranslateForward(start, end int) versionchain.Span {
	return t.translateForward(start, end, t.chain.Current())
}

// TranslateForwardTo maps the span [start,end) of the anchor version onto to, which must belong to the same chain.
func (t *Translator) TranslateForwardTo(start, end int, to *versionchain.DocumentVersion) (versionchain.Span, error) {
	if err := t.checkBuffer(to); err != nil {
		return versionchain.Span{}, err
	}
	return t.translateForward(start, end, to), nil
}

func (t *Translator) translateForward(start, end int, to *versionchain.DocumentVersion) versionchain.Span {
	start, end = t.clampSpan(start, end, t.from)

	edits, err := t.chain.Walk(t.from.Number(), to.Number())
	if err != nil {
		t.logger.Warnw("unable to walk versions, clamping span", "from", t.from.Number(), "to", to.Number(), "error", err)
		t.clamped.Inc(1)
	}
	start, end = trackSpan(start, end, edits)
	start, end = t.clampSpan(start, end, to)
	return versionchain.Span{Version: to, Start: start, End: end}
}

// TranslatePointForward maps an offset of the anchor version onto the live version.
func (t *Translator) TranslatePointForward(offset int) versionchain.Point {
	to := t.chain.Current()
	offset = t.clampOffset(offset, t.from)

	edits, err := t.chain.Walk(t.from.Number(), to.Number())
	if err != nil {
		t.logger.Warnw("unable to walk versions, clamping offset", "from", t.from.Number(), "to", to.Number(), "error", err)
		t.clamped.Inc(1)
	}
	return versionchain.Point{Version: to, Offset: t.clampOffset(trackPoint(offset, edits), to)}
}

// TranslateBackward maps a point of a version at or after the anchor back onto the anchor version. The point must
// belong to the anchored chain; a point from another buffer is reported as MismatchedBufferError.
func (t *Translator) TranslateBackward(p versionchain.Point) (int, error) {
	if err := t.checkBuffer(p.Version); err != nil {
		return 0, err
	}

	offset := t.clampOffset(p.Offset, p.Version)
	edits, err := t.chain.Walk(t.from.Number(), p.Version.Number())
	if err != nil {
		t.logger.Warnw("unable to walk versions, clamping offset", "from", t.from.Number(), "to", p.Version.Number(), "error", err)
		t.clamped.Inc(1)
	}
	return t.clampOffset(untrackPoint(offset, edits), t.from), nil
}

// TranslatePositionForward maps a position of the anchor version onto the live version.
func (t *Translator) TranslatePositionForward(pos protocol.Position) protocol.Position {
	p := t.TranslatePointForward(t.positionOffset(pos, t.from))
	return t.offsetPosition(p.Offset, p.Version)
}

// TranslateRangeForward maps a range of the anchor version onto the live version.
func (t *Translator) TranslateRangeForward(r protocol.Range) protocol.Range {
	span := t.TranslateForward(t.positionOffset(r.Start, t.from), t.positionOffset(r.End, t.from))
	return protocol.Range{
		Start: t.offsetPosition(span.Start, span.Version),
		End:   t.offsetPosition(span.End, span.Version),
	}
}

// TranslatePositionBackward maps a position of version v back onto the anchor version.
func (t *Translator) TranslatePositionBackward(v *versionchain.DocumentVersion, pos protocol.Position) (protocol.Position, error) {
	if err := t.checkBuffer(v); err != nil {
		return protocol.Position{}, err
	}
	offset, err := t.TranslateBackward(versionchain.Point{Version: v, Offset: t.positionOffset(pos, v)})
	if err != nil {
		return protocol.Position{}, err
	}
	return t.offsetPosition(offset, t.from), nil
}

func (t *Translator) checkBuffer(v *versionchain.DocumentVersion) error {
	if v == nil || v.Chain() != t.chain {
		mismatched := &syncerrors.MismatchedBufferError{Expected: t.chain.ID()}
		if v != nil {
			mismatched.Actual = v.BufferID()
		}
		return mismatched
	}
	return nil
}

func (t *Translator) clampSpan(start, end int, v *versionchain.DocumentVersion) (int, int) {
	length := v.Length()
	if start >= 0 && start <= end && end <= length {
		return start, end
	}
	t.logger.Warnw("clamping span outside of document", "version", v.Number(), "start", start, "end", end, "length", length)
	t.clamped.Inc(1)

	start, end = bound(start, length), bound(end, length)
	if end < start {
		end = start
	}
	return start, end
}

func (t *Translator) clampOffset(offset int, v *versionchain.DocumentVersion) int {
	length := v.Length()
	bounded := bound(offset, length)
	if bounded != offset {
		t.logger.Warnw("clamping offset outside of document", "version", v.Number(), "offset", offset, "length", length)
		t.clamped.Inc(1)
	}
	return bounded
}

func bound(offset, length int) int {
	if offset < 0 {
		return 0
	}
	if offset > length {
		return length
	}
	return offset
}

func (t *Translator) positionOffset(pos protocol.Position, v *versionchain.DocumentVersion) int {
	offset, clamped := v.Mapper().ClampedPositionOffset(pos)
	if clamped {
		t.logger.Warnw("clamping position outside of document",
			"version", v.Number(),
			"line", pos.Line,
			"character", pos.Character,
			"offset", offset,
		)
		t.clamped.Inc(1)
	}
	return offset
}

func (t *Translator) offsetPosition(offset int, v *versionchain.DocumentVersion) protocol.Position {
	pos, err := v.Mapper().OffsetPosition(offset)
	if err != nil {
		t.logger.Warnw("unable to convert offset", "version", v.Number(), "offset", offset, "error", err)
		t.clamped.Inc(1)
		pos, _ = v.Mapper().OffsetPosition(v.Length())
	}
	return pos
}
