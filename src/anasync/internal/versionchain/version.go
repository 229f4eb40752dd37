package versionchain

import (
	"github.com/gofrs/uuid"
	protocolmapper "github.com/uber/analysis-sync/src/anasync/internal/protocol"
)

// DocumentVersion is an immutable snapshot of a document within a Chain.
// Number, Text and Changes never change once the version has been superseded; Next is assigned exactly once.
type DocumentVersion struct {
	chain  *Chain
	number int
	text   string
	mapper *protocolmapper.TextOffsetMapper

	// guarded by chain.mu
	previous *DocumentVersion
	next     *DocumentVersion
	changes  []Edit // edits producing next from this version, applied in order
	released bool
}

func newDocumentVersion(c *Chain, number int, text string) *DocumentVersion {
	return &DocumentVersion{
		chain:  c,
		number: number,
		text:   text,
		mapper: protocolmapper.NewTextOffsetMapper(text),
	}
}

// Number returns the version number.
func (v *DocumentVersion) Number() int {
	return v.number
}

// Text returns the full content of this version.
func (v *DocumentVersion) Text() string {
	return v.text
}

// Length returns the length of this version's content in bytes.
func (v *DocumentVersion) Length() int {
	return len(v.text)
}

// Mapper returns the line/column mapper for this version's content.
func (v *DocumentVersion) Mapper() *protocolmapper.TextOffsetMapper {
	return v.mapper
}

// Chain returns the chain this version belongs to.
func (v *DocumentVersion) Chain() *Chain {
	return v.chain
}

// BufferID returns the identity of the buffer this version belongs to.
func (v *DocumentVersion) BufferID() uuid.UUID {
	return v.chain.id
}

// Next returns the version that superseded this one, or nil for the current version.
func (v *DocumentVersion) Next() *DocumentVersion {
	v.chain.mu.RLock()
	defer v.chain.mu.RUnlock()
	return v.next
}

// Previous returns the preceding version, or nil if it is not retained.
func (v *DocumentVersion) Previous() *DocumentVersion {
	v.chain.mu.RLock()
	defer v.chain.mu.RUnlock()
	return v.previous
}

// Changes returns the edits that transform this version into Next.
func (v *DocumentVersion) Changes() []Edit {
	v.chain.mu.RLock()
	defer v.chain.mu.RUnlock()
	return v.changes
}

// Released reports whether the chain no longer retains this version.
func (v *DocumentVersion) Released() bool {
	v.chain.mu.RLock()
	defer v.chain.mu.RUnlock()
	return v.released
}

// Point is a byte offset within a specific version.
type Point struct {
	Version *DocumentVersion
	Offset  int
}

// Span is a half-open byte range [Start,End) within a specific version.
type Span struct {
	Version *DocumentVersion
	Start   int
	End     int
}

// Length returns the number of bytes covered by the span.
func (s Span) Length() int {
	return s.End - s.Start
}

// Text returns the text covered by the span, clamped to its version.
func (s Span) Text() string {
	if s.Version == nil {
		return ""
	}
	start, end := clampRange(s.Start, s.End, s.Version.Length())
	return s.Version.text[start:end]
}

func clampRange(start, end, length int) (int, int) {
	if start < 0 {
		start = 0
	}
	if start > length {
		start = length
	}
	if end < start {
		end = start
	}
	if end > length {
		end = length
	}
	return start, end
}
