// Package stamp records the document version a request was issued against and turns it into a translator once the
// response arrives.
package stamp

import (
	"fmt"
	"sync/atomic"

	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
	syncerrors "github.com/uber/analysis-sync/src/anasync/internal/errors"
	"github.com/uber/analysis-sync/src/anasync/internal/translator"
	"github.com/uber/analysis-sync/src/anasync/internal/versionchain"
	"go.uber.org/zap"
)

const _staleCounter = "stale_responses_discarded"

// Stamp pins the version that was current when a request was issued. It must be consumed by Resolver.Resolve or
// released with Release.
type Stamp struct {
	version *versionchain.DocumentVersion
	done    atomic.Bool
}

// Capture pins the current version of chain.
func Capture(chain *versionchain.Chain) (*Stamp, error) {
	for {
		v := chain.Current()
		err := chain.Pin(v)
		if err == nil {
			return &Stamp{version: v}, nil
		}
		// Only a concurrent release of the version can fail the pin; the current version is never released.
		if v == chain.Current() {
			return nil, fmt.Errorf("pinning version %d: %w", v.Number(), err)
		}
	}
}

// Version returns the captured version number.
func (s *Stamp) Version() int {
	return s.version.Number()
}

// DocumentVersion returns the captured version.
func (s *Stamp) DocumentVersion() *versionchain.DocumentVersion {
	return s.version
}

// BufferID returns the identity of the buffer the stamp was captured from.
func (s *Stamp) BufferID() uuid.UUID {
	return s.version.BufferID()
}

// Release drops the pin without resolving the stamp. It is a no-op once the stamp has been consumed.
func (s *Stamp) Release() {
	if s.done.CompareAndSwap(false, true) {
		s.version.Chain().Unpin(s.version)
	}
}

// Resolver decides whether responses are still relevant given what has already been analyzed.
type Resolver struct {
	logger        *zap.SugaredLogger
	staleCounter  tally.Counter
	translatorOps []translator.Option
}

// NewResolver creates a Resolver reporting through logger and stats.
func NewResolver(logger *zap.SugaredLogger, stats tally.Scope) *Resolver {
	return &Resolver{
		logger:       logger,
		staleCounter: stats.Counter(_staleCounter),
		translatorOps: []translator.Option{
			translator.WithLogger(logger),
			translator.WithScope(stats),
		},
	}
}

// Resolve consumes s. If s is at least as new as lastAnalyzed it returns a translator anchored at the stamped
// version, which the caller must Close. Otherwise the response is stale and Resolve returns nil.
// A nil lastAnalyzed means nothing has been analyzed yet.
func (r *Resolver) Resolve(s *Stamp, lastAnalyzed *versionchain.DocumentVersion) (*translator.Translator, error) {
	if !s.done.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("stamp for version %d already consumed", s.Version())
	}
	chain := s.version.Chain()
	defer chain.Unpin(s.version)

	if lastAnalyzed != nil {
		if lastAnalyzed.Chain() != chain {
			return nil, &syncerrors.MismatchedBufferError{Expected: chain.ID(), Actual: lastAnalyzed.BufferID()}
		}
		if s.version.Number() < lastAnalyzed.Number() {
			r.logger.Debugw("discarding stale response",
				"version", s.version.Number(),
				"lastAnalyzed", lastAnalyzed.Number(),
			)
			r.staleCounter.Inc(1)
			return nil, nil
		}
	}

	// The translator takes its own pin before the stamp's pin is dropped.
	return translator.New(s.version, r.translatorOps...)
}
