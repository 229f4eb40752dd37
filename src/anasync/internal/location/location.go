// Package location compares the source locations reported by an analysis engine.
package location

import (
	"encoding/binary"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

const _fileScheme = "file://"

// Location is a position reported by the engine, optionally with the span of the definition it belongs to.
type Location struct {
	// FilePath is a filesystem path or a file URI.
	FilePath       string
	Line           int
	Column         int
	DefinitionSpan *protocol.Range
}

// Comparer is an equality with a hash consistent with it: equal locations always hash the same.
type Comparer interface {
	Equal(a, b Location) bool
	Hash(l Location) uint64
}

// Option configures a comparer.
type Option func(*comparer)

// WithCaseInsensitivePaths overrides whether the file path component is compared ignoring case.
func WithCaseInsensitivePaths(insensitive bool) Option {
	return func(c *comparer) {
		c.caseInsensitive = insensitive
	}
}

var (
	// Coarse treats locations on the same line of the same file as equal. A read and a write reported on one line
	// collapse into a single entry.
	Coarse = NewCoarse()
	// Exact compares every field of a location.
	Exact = NewExact()
)

// NewCoarse returns a comparer over file and line only.
func NewCoarse(opts ...Option) Comparer {
	return newComparer(false, opts)
}

// NewExact returns a comparer over file, line, column and definition span.
func NewExact(opts ...Option) Comparer {
	return newComparer(true, opts)
}

type comparer struct {
	exact           bool
	caseInsensitive bool
}

func newComparer(exact bool, opts []Option) *comparer {
	c := &comparer{
		exact:           exact,
		caseInsensitive: caseInsensitiveFileSystem(runtime.GOOS),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *comparer) Equal(a, b Location) bool {
	if a.Line != b.Line || c.path(a.FilePath) != c.path(b.FilePath) {
		return false
	}
	if !c.exact {
		return true
	}
	return a.Column == b.Column && spanEqual(a.DefinitionSpan, b.DefinitionSpan)
}

func (c *comparer) Hash(l Location) uint64 {
	d := xxhash.New()
	d.WriteString(c.path(l.FilePath))
	writeInt(d, l.Line)
	if c.exact {
		writeInt(d, l.Column)
		if l.DefinitionSpan != nil {
			writeInt(d, int(l.DefinitionSpan.Start.Line))
			writeInt(d, int(l.DefinitionSpan.Start.Character))
			writeInt(d, int(l.DefinitionSpan.End.Line))
			writeInt(d, int(l.DefinitionSpan.End.Character))
		}
	}
	return d.Sum64()
}

func (c *comparer) path(p string) string {
	p = Path(p)
	if c.caseInsensitive {
		return strings.ToLower(p)
	}
	return p
}

// Path returns the cleaned filesystem path of p, which may be a file URI.
func Path(p string) string {
	if strings.HasPrefix(p, _fileScheme) {
		p = uri.URI(p).Filename()
	}
	if p == "" {
		return p
	}
	return filepath.Clean(p)
}

// Dedupe returns locs without the locations equal under c to an earlier one. The input is not modified.
func Dedupe(locs []Location, c Comparer) []Location {
	result := make([]Location, 0, len(locs))
	seen := make(map[uint64][]int, len(locs))
	for _, l := range locs {
		h := c.Hash(l)
		duplicate := false
		for _, i := range seen[h] {
			if c.Equal(result[i], l) {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		seen[h] = append(seen[h], len(result))
		result = append(result, l)
	}
	return result
}

// Sort orders locs by path, line and column. Equal keys keep their relative order.
func Sort(locs []Location) {
	sort.SliceStable(locs, func(i, j int) bool {
		a, b := locs[i], locs[j]
		if pa, pb := Path(a.FilePath), Path(b.FilePath); pa != pb {
			return pa < pb
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}

func spanEqual(a, b *protocol.Range) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func writeInt(d *xxhash.Digest, v int) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	d.Write(buf[:])
}

func caseInsensitiveFileSystem(goos string) bool {
	return goos == "windows" || goos == "darwin"
}
