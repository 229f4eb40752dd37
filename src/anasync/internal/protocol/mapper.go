// This file includes a selection of byte offset conversion methods from the gopls "protocol" package.
// Based on the following: https://github.com/golang/tools/blob/67d73b2960c82b2c8db0b9d0694c66a789a1db11/gopls/internal/lsp/protocol/mapper.go

// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
// License Revision: https://github.com/golang/tools/blob/67d73b2960c82b2c8db0b9d0694c66a789a1db11/LICENSE

package protocol

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"go.lsp.dev/protocol"
)

// TextOffsetMapper converts between LSP (line, UTF-16 column) positions and byte offsets of one immutable text.
// It is safe for concurrent use.
type TextOffsetMapper struct {
	content string

	// Line-number information is computed lazily, most versions are never mapped.
	linesOnce sync.Once
	lineStart []int // byte offset of start of ith line (0-based); last=EOF iff \n-terminated
	nonASCII  bool
}

// NewTextOffsetMapper creates a new mapper for the given content.
func NewTextOffsetMapper(content string) *TextOffsetMapper {
	return &TextOffsetMapper{content: content}
}

// Len returns the length of the mapped content in bytes.
func (m *TextOffsetMapper) Len() int {
	return len(m.content)
}

// LineCount returns the number of lines in the content. Content ending with a newline has an empty final line.
func (m *TextOffsetMapper) LineCount() int {
	m.initLines()
	return len(m.lineStart)
}

func (m *TextOffsetMapper) initLines() {
	m.linesOnce.Do(func() {
		nlines := strings.Count(m.content, "\n")
		m.lineStart = make([]int, 1, nlines+1) // initially []int{0}
		for offset := 0; offset < len(m.content); offset++ {
			b := m.content[offset]
			if b == '\n' {
				m.lineStart = append(m.lineStart, offset+1)
			}
			if b >= utf8.RuneSelf {
				m.nonASCII = true
			}
		}
	})
}

// PositionOffset converts a protocol (UTF-16) position to a byte offset.
func (m *TextOffsetMapper) PositionOffset(p protocol.Position) (int, error) {
	m.initLines()

	if p.Line > uint32(len(m.lineStart)) {
		return 0, fmt.Errorf("line number %d out of range 0-%d", p.Line, len(m.lineStart))
	} else if p.Line == uint32(len(m.lineStart)) {
		if p.Character == 0 {
			return len(m.content), nil // EOF
		}
		return 0, fmt.Errorf("column is beyond end of file")
	}

	offset := m.lineStart[p.Line]
	col8, err := m.advance(offset, int(p.Character))
	if err != nil {
		return 0, err
	}
	return offset + col8, nil
}

// ClampedPositionOffset converts a position to a byte offset, clamping lines past the end of the content to its length
// and columns past the end of a line to the end of that line. The returned flag reports whether clamping happened.
func (m *TextOffsetMapper) ClampedPositionOffset(p protocol.Position) (int, bool) {
	m.initLines()

	if int(p.Line) >= len(m.lineStart) {
		return len(m.content), !(int(p.Line) == len(m.lineStart) && p.Character == 0)
	}

	start := m.lineStart[p.Line]
	end := len(m.content)
	if int(p.Line)+1 < len(m.lineStart) {
		end = m.lineStart[p.Line+1] - 1 // exclude \n
	}
	if end > start && m.content[end-1] == '\r' {
		end--
	}

	col8, err := m.advance(start, int(p.Character))
	if err != nil || start+col8 > end {
		return end, true
	}
	return start + col8, false
}

// advance returns the number of bytes covered by col16 UTF-16 codes starting at offset, without crossing a newline.
func (m *TextOffsetMapper) advance(offset int, col16Want int) (int, error) {
	content := m.content[offset:]
	col8 := 0
	for col16 := 0; col16 < col16Want; col16++ {
		r, sz := utf8.DecodeRuneInString(content)
		if sz == 0 {
			return 0, fmt.Errorf("column is beyond end of file")
		}
		if r == '\n' {
			return 0, fmt.Errorf("column is beyond end of line")
		}
		if sz == 1 && r == utf8.RuneError {
			return 0, fmt.Errorf("buffer contains invalid UTF-8 text")
		}
		content = content[sz:]

		if r >= 0x10000 {
			col16++ // rune was encoded by a pair of surrogate UTF-16 codes

			if col16 == col16Want {
				break // requested position is in the middle of a rune
			}
		}
		col8 += sz
	}
	return col8, nil
}

// OffsetPosition converts a byte offset to a protocol (UTF-16) position.
func (m *TextOffsetMapper) OffsetPosition(offset int) (protocol.Position, error) {
	if !(0 <= offset && offset <= len(m.content)) {
		return protocol.Position{}, fmt.Errorf("invalid offset %d (want 0-%d)", offset, len(m.content))
	}

	line, col16 := m.lineCol16(offset)
	return protocol.Position{Line: uint32(line), Character: uint32(col16)}, nil
}

// RangeOffsets converts a protocol range into a half-open byte offset range.
func (m *TextOffsetMapper) RangeOffsets(r protocol.Range) (start int, end int, err error) {
	if start, err = m.PositionOffset(r.Start); err != nil {
		return 0, 0, fmt.Errorf("range start: %w", err)
	}
	if end, err = m.PositionOffset(r.End); err != nil {
		return 0, 0, fmt.Errorf("range end: %w", err)
	}
	if end < start {
		return 0, 0, fmt.Errorf("range end %d precedes start %d", end, start)
	}
	return start, end, nil
}

// OffsetRange converts a half-open byte offset range into a protocol range.
func (m *TextOffsetMapper) OffsetRange(start, end int) (protocol.Range, error) {
	s, err := m.OffsetPosition(start)
	if err != nil {
		return protocol.Range{}, err
	}
	e, err := m.OffsetPosition(end)
	if err != nil {
		return protocol.Range{}, err
	}
	return protocol.Range{Start: s, End: e}, nil
}

// lineCol16 converts a valid byte offset to line and UTF-16 column numbers, both 0-based.
func (m *TextOffsetMapper) lineCol16(offset int) (int, int) {
	line, start, cr := m.line(offset)
	var col16 int
	if m.nonASCII {
		col16 = UTF16Len(m.content[start:offset])
	} else {
		col16 = offset - start
	}
	if cr {
		col16-- // retreat from \r at line end
	}
	return line, col16
}

// line returns:
// - the 0-based index of the line that encloses the (valid) byte offset;
// - the start offset of that line; and
// - whether the offset denotes a carriage return (\r) at line end.
func (m *TextOffsetMapper) line(offset int) (int, int, bool) {
	m.initLines()
	// In effect, binary search returns a 1-based result.
	line := sort.Search(len(m.lineStart), func(i int) bool {
		return offset < m.lineStart[i]
	})

	// Adjustment for line-endings: \r|\n is the same as |\r\n.
	var eol int
	if line == len(m.lineStart) {
		eol = len(m.content) // EOF
	} else {
		eol = m.lineStart[line] - 1
	}
	cr := offset == eol && offset > 0 && m.content[offset-1] == '\r'

	line-- // 0-based

	return line, m.lineStart[line], cr
}

// UTF16Len returns the number of codes in the UTF-16 transcoding of s.
func UTF16Len(s string) int {
	var n int
	for len(s) > 0 {
		n++

		// Fast path for ASCII.
		if s[0] < 0x80 {
			s = s[1:]
			continue
		}

		r, size := utf8.DecodeRuneInString(s)
		if r >= 0x10000 {
			n++ // surrogate pair
		}
		s = s[size:]
	}
	return n
}
