package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(candidates []Candidate) []string {
	result := make([]string, 0, len(candidates))
	for _, c := range candidates {
		result = append(result, c.Name)
	}
	return result
}

func named(names ...string) []Candidate {
	result := make([]Candidate, 0, len(names))
	for _, n := range names {
		result = append(result, Candidate{Name: n})
	}
	return result
}

func TestMerge(t *testing.T) {
	t.Run("first occurrence wins", func(t *testing.T) {
		a := []Candidate{{Name: "foo", MergeKey: "m1", Documentation: "from a"}}
		b := []Candidate{{Name: "Foo", MergeKey: "m1", Documentation: "from b"}}

		result := Merge(a, b)
		require.Len(t, result, 1)
		assert.Equal(t, "foo", result[0].Name)
		assert.Equal(t, "from a", result[0].Documentation)
	})

	t.Run("order of first occurrences is kept", func(t *testing.T) {
		a := named("b", "a")
		b := named("c", "a", "d")
		assert.Equal(t, []string{"b", "a", "c", "d"}, names(Merge(a, b)))
	})

	t.Run("names identify candidates without a merge key", func(t *testing.T) {
		a := []Candidate{{Name: "x"}, {Name: "y", MergeKey: "x"}}
		assert.Equal(t, []string{"x"}, names(Merge(a)))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, Merge())
		assert.Empty(t, Merge(nil, []Candidate{}))
	})
}

func TestParseOrdering(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Ordering
		wantErr bool
	}{
		{name: "default", input: "", want: UnderscoresLast},
		{name: "last", input: "underscoresLast", want: UnderscoresLast},
		{name: "first", input: "underscoresFirst", want: UnderscoresFirst},
		{name: "unknown", input: "alphabetical", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOrdering(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		ordering Ordering
		want     []string
	}{
		{
			name:     "underscores last",
			input:    []string{"__init__", "_private", "public", "Zebra"},
			ordering: UnderscoresLast,
			want:     []string{"public", "Zebra", "_private", "__init__"},
		},
		{
			name:     "underscores first",
			input:    []string{"public", "Zebra", "_private", "__init__"},
			ordering: UnderscoresFirst,
			want:     []string{"__init__", "_private", "public", "Zebra"},
		},
		{
			name:     "case insensitive within a group",
			input:    []string{"beta", "Alpha", "gamma", "_Beta", "_alpha"},
			ordering: UnderscoresLast,
			want:     []string{"Alpha", "beta", "gamma", "_alpha", "_Beta"},
		},
		{
			name:     "names differing only by case",
			input:    []string{"foo", "Foo", "FOO"},
			ordering: UnderscoresLast,
			want:     []string{"FOO", "Foo", "foo"},
		},
		{
			name:     "double underscore without suffix is private",
			input:    []string{"__len__", "__mangled", "x"},
			ordering: UnderscoresLast,
			want:     []string{"x", "__mangled", "__len__"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := named(tt.input...)
			assert.Equal(t, tt.want, names(Order(input, tt.ordering)))
			assert.Equal(t, tt.input, names(input), "input must not be modified")
		})
	}
}

func TestCompareNamesTotalOrder(t *testing.T) {
	all := []string{"a", "A", "b", "_a", "_A", "__a__", "__A__", "zeta"}
	for _, ordering := range []Ordering{UnderscoresLast, UnderscoresFirst} {
		for _, x := range all {
			for _, y := range all {
				c := CompareNames(x, y, ordering)
				if x == y {
					assert.Zero(t, c)
					continue
				}
				assert.NotZero(t, c, "%q and %q", x, y)
				assert.Equal(t, c < 0, CompareNames(y, x, ordering) > 0, "%q and %q", x, y)
			}
		}
	}
}
