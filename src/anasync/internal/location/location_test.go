package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.lsp.dev/protocol"
)

func span(startLine, startChar, endLine, endChar uint32) *protocol.Range {
	return &protocol.Range{
		Start: protocol.Position{Line: startLine, Character: startChar},
		End:   protocol.Position{Line: endLine, Character: endChar},
	}
}

func TestComparers(t *testing.T) {
	insensitive := []Option{WithCaseInsensitivePaths(true)}
	sensitive := []Option{WithCaseInsensitivePaths(false)}

	tests := []struct {
		name       string
		a, b       Location
		opts       []Option
		wantCoarse bool
		wantExact  bool
	}{
		{
			name:       "same line different column and case",
			a:          Location{FilePath: "a.py", Line: 10, Column: 3},
			b:          Location{FilePath: "A.PY", Line: 10, Column: 40},
			opts:       insensitive,
			wantCoarse: true,
			wantExact:  false,
		},
		{
			name:       "case sensitive paths",
			a:          Location{FilePath: "a.py", Line: 10, Column: 3},
			b:          Location{FilePath: "A.PY", Line: 10, Column: 3},
			opts:       sensitive,
			wantCoarse: false,
			wantExact:  false,
		},
		{
			name:       "identical",
			a:          Location{FilePath: "/src/a.py", Line: 1, Column: 2, DefinitionSpan: span(1, 0, 3, 0)},
			b:          Location{FilePath: "/src/a.py", Line: 1, Column: 2, DefinitionSpan: span(1, 0, 3, 0)},
			opts:       sensitive,
			wantCoarse: true,
			wantExact:  true,
		},
		{
			name:       "different definition span",
			a:          Location{FilePath: "/src/a.py", Line: 1, Column: 2, DefinitionSpan: span(1, 0, 3, 0)},
			b:          Location{FilePath: "/src/a.py", Line: 1, Column: 2, DefinitionSpan: span(1, 0, 4, 0)},
			opts:       sensitive,
			wantCoarse: true,
			wantExact:  false,
		},
		{
			name:       "missing definition span",
			a:          Location{FilePath: "/src/a.py", Line: 1, Column: 2},
			b:          Location{FilePath: "/src/a.py", Line: 1, Column: 2, DefinitionSpan: span(1, 0, 3, 0)},
			opts:       sensitive,
			wantCoarse: true,
			wantExact:  false,
		},
		{
			name:       "different line",
			a:          Location{FilePath: "/src/a.py", Line: 1},
			b:          Location{FilePath: "/src/a.py", Line: 2},
			opts:       insensitive,
			wantCoarse: false,
			wantExact:  false,
		},
		{
			name:       "uri and path",
			a:          Location{FilePath: "file:///src/pkg/a.py", Line: 4, Column: 1},
			b:          Location{FilePath: "/src/pkg/../pkg/a.py", Line: 4, Column: 1},
			opts:       sensitive,
			wantCoarse: true,
			wantExact:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coarse := NewCoarse(tt.opts...)
			exact := NewExact(tt.opts...)

			assert.Equal(t, tt.wantCoarse, coarse.Equal(tt.a, tt.b))
			assert.Equal(t, tt.wantCoarse, coarse.Equal(tt.b, tt.a))
			assert.Equal(t, tt.wantExact, exact.Equal(tt.a, tt.b))
			assert.Equal(t, tt.wantExact, exact.Equal(tt.b, tt.a))

			if tt.wantCoarse {
				assert.Equal(t, coarse.Hash(tt.a), coarse.Hash(tt.b))
			}
			if tt.wantExact {
				assert.Equal(t, exact.Hash(tt.a), exact.Hash(tt.b))
			}
		})
	}
}

func TestCaseInsensitiveFileSystem(t *testing.T) {
	assert.True(t, caseInsensitiveFileSystem("windows"))
	assert.True(t, caseInsensitiveFileSystem("darwin"))
	assert.False(t, caseInsensitiveFileSystem("linux"))
}

func TestPath(t *testing.T) {
	assert.Equal(t, "/src/a.py", Path("file:///src/a.py"))
	assert.Equal(t, "/src/a.py", Path("/src/./a.py"))
	assert.Equal(t, "", Path(""))
}

func TestDedupe(t *testing.T) {
	c := NewCoarse(WithCaseInsensitivePaths(true))
	locs := []Location{
		{FilePath: "a.py", Line: 10, Column: 3},
		{FilePath: "b.py", Line: 10, Column: 3},
		{FilePath: "A.PY", Line: 10, Column: 40},
		{FilePath: "a.py", Line: 11, Column: 3},
	}
	original := append([]Location(nil), locs...)

	assert.Equal(t, []Location{locs[0], locs[1], locs[3]}, Dedupe(locs, c))
	assert.Equal(t, locs, Dedupe(locs, NewExact(WithCaseInsensitivePaths(true))))
	assert.Equal(t, original, locs)
	assert.Empty(t, Dedupe(nil, c))
}

func TestSort(t *testing.T) {
	locs := []Location{
		{FilePath: "/src/b.py", Line: 1, Column: 0},
		{FilePath: "/src/a.py", Line: 2, Column: 5},
		{FilePath: "file:///src/a.py", Line: 2, Column: 1},
		{FilePath: "/src/a.py", Line: 1, Column: 9},
	}
	Sort(locs)
	assert.Equal(t, []Location{
		{FilePath: "/src/a.py", Line: 1, Column: 9},
		{FilePath: "file:///src/a.py", Line: 2, Column: 1},
		{FilePath: "/src/a.py", Line: 2, Column: 5},
		{FilePath: "/src/b.py", Line: 1, Column: 0},
	}, locs)
}
