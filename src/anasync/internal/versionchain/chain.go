package versionchain

import (
	"sync"

	"github.com/gofrs/uuid"
	syncerrors "github.com/uber/analysis-sync/src/anasync/internal/errors"
	"go.uber.org/zap"
)

// Chain is the append-only version history of one live buffer.
//
// Versions are retained from min(floor, oldest pinned version) forward. The floor is raised as analyses complete,
// which bounds memory to the edits made since the last completed analysis plus any versions still held by
// outstanding requests.
// Advance must be called from a single serialized edit path; every other method is safe for concurrent use.
type Chain struct {
	id     uuid.UUID
	logger *zap.SugaredLogger

	mu      sync.RWMutex
	oldest  *DocumentVersion
	current *DocumentVersion
	floor   int
	pins    map[int]int
}

// Option configures a Chain.
type Option func(*Chain)

// WithLogger overrides the default noop logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Chain) {
		c.logger = logger
	}
}

// WithID assigns the buffer identity instead of generating a random one.
func WithID(id uuid.UUID) Option {
	return func(c *Chain) {
		c.id = id
	}
}

// New creates a chain whose first version holds text and is numbered initialVersion.
func New(text string, initialVersion int, opts ...Option) *Chain {
	c := &Chain{
		id:     uuid.Must(uuid.NewV4()),
		logger: zap.NewNop().Sugar(),
		floor:  initialVersion,
		pins:   make(map[int]int),
	}
	for _, opt := range opts {
		opt(c)
	}

	v := newDocumentVersion(c, initialVersion, text)
	c.oldest = v
	c.current = v
	return c
}

// ID returns the buffer identity of the chain.
func (c *Chain) ID() uuid.UUID {
	return c.id
}

// Current returns the newest version.
func (c *Chain) Current() *DocumentVersion {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Oldest returns the oldest retained version.
func (c *Chain) Oldest() *DocumentVersion {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.oldest
}

// Floor returns the retention floor, normally the last completed analysis version.
func (c *Chain) Floor() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.floor
}

// Advance appends a new version produced by applying edits, in order, to the current version.
// Edits that fall outside the text they apply to are clamped and logged.
func (c *Chain) Advance(edits ...Edit) *DocumentVersion {
	c.mu.RLock()
	prev := c.current
	c.mu.RUnlock()

	text := prev.text
	applied := make([]Edit, 0, len(edits))
	for _, e := range edits {
		clamped, changed := e.clamp(len(text))
		if changed {
			c.logger.Warnw("clamping edit outside of document",
				"version", prev.number,
				"start", e.Start,
				"end", e.End,
				"length", len(text),
			)
		}
		text = clamped.apply(text)
		applied = append(applied, clamped)
	}

	next := newDocumentVersion(c, prev.number+1, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	next.previous = prev
	prev.changes = applied
	prev.next = next
	c.current = next
	return next
}

// Version returns the retained version with the given number.
func (c *Chain) Version(number int) (*DocumentVersion, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.versionLocked(number)
}

func (c *Chain) versionLocked(number int) (*DocumentVersion, error) {
	if number < c.oldest.number || number > c.current.number {
		return nil, &syncerrors.VersionNotReachableError{Version: number, Oldest: c.oldest.number}
	}
	v := c.oldest
	for v.number < number {
		v = v.next
	}
	return v, nil
}

// CanTranslateFrom reports whether the version with the given number is still retained.
func (c *Chain) CanTranslateFrom(number int) bool {
	_, err := c.Version(number)
	return err == nil
}

// Walk returns the ordered edits connecting version from to version towards.
func (c *Chain) Walk(from, towards int) ([]Edit, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if from > towards {
		return nil, &syncerrors.VersionNotReachableError{Version: from, Target: towards, Oldest: c.oldest.number}
	}
	v, err := c.versionLocked(from)
	if err != nil {
		return nil, err
	}
	if towards > c.current.number {
		return nil, &syncerrors.VersionNotReachableError{Version: towards, Oldest: c.oldest.number}
	}

	var edits []Edit
	for v.number < towards {
		edits = append(edits, v.changes...)
		v = v.next
	}
	return edits, nil
}

// Steps returns the per-version edit groups connecting from to towards. Element i holds the edits that produced
// version from.Number()+i+1.
func (c *Chain) Steps(from, towards *DocumentVersion) ([][]Edit, error) {
	if err := c.owns(from); err != nil {
		return nil, err
	}
	if err := c.owns(towards); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if from.number > towards.number {
		return nil, &syncerrors.VersionNotReachableError{Version: from.number, Target: towards.number, Oldest: c.oldest.number}
	}
	if from.released {
		return nil, &syncerrors.VersionNotReachableError{Version: from.number, Oldest: c.oldest.number}
	}

	steps := make([][]Edit, 0, towards.number-from.number)
	for v := from; v != towards; v = v.next {
		steps = append(steps, v.changes)
	}
	return steps, nil
}

func (c *Chain) owns(v *DocumentVersion) error {
	if v == nil || v.chain != c {
		actual := uuid.Nil
		if v != nil {
			actual = v.chain.id
		}
		return &syncerrors.MismatchedBufferError{Expected: c.id, Actual: actual}
	}
	return nil
}

// Pin keeps v retained until a matching Unpin.
func (c *Chain) Pin(v *DocumentVersion) error {
	if err := c.owns(v); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if v.released {
		return &syncerrors.VersionNotReachableError{Version: v.number, Oldest: c.oldest.number}
	}
	c.pins[v.number]++
	return nil
}

// Unpin releases a pin taken with Pin, allowing older versions to be released.
func (c *Chain) Unpin(v *DocumentVersion) {
	if c.owns(v) != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.pins[v.number]
	if !ok {
		c.logger.Warnw("unpinning version that is not pinned", "version", v.number)
		return
	}
	if n <= 1 {
		delete(c.pins, v.number)
	} else {
		c.pins[v.number] = n - 1
	}
	c.compactLocked()
}

// SetFloor raises the retention floor to number. Lower values are ignored.
func (c *Chain) SetFloor(number int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if number <= c.floor {
		return
	}
	if number > c.current.number {
		number = c.current.number
	}
	c.floor = number
	c.compactLocked()
}

// compactLocked releases every version older than the floor and the oldest pinned version.
func (c *Chain) compactLocked() {
	keep := c.floor
	for number := range c.pins {
		if number < keep {
			keep = number
		}
	}

	released := 0
	for c.oldest.number < keep && c.oldest.next != nil {
		old := c.oldest
		c.oldest = old.next
		c.oldest.previous = nil
		old.released = true
		old.changes = nil
		released++
	}
	if released > 0 {
		c.logger.Debugw("released versions", "count", released, "oldest", c.oldest.number)
	}
}

// RetainedCount returns the number of versions currently retained.
func (c *Chain) RetainedCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.number - c.oldest.number + 1
}
