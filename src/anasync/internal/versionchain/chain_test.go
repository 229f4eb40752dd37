package versionchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	syncerrors "github.com/uber/analysis-sync/src/anasync/internal/errors"
	"go.uber.org/zap"
)

func TestAdvance(t *testing.T) {
	c := New("hello world", 1)
	first := c.Current()

	v := c.Advance(Edit{Start: 5, End: 5, NewText: ","})
	assert.Equal(t, 2, v.Number())
	assert.Equal(t, "hello, world", v.Text())
	assert.Equal(t, v, c.Current())
	assert.Equal(t, v, first.Next())
	assert.Equal(t, first, v.Previous())
	assert.Nil(t, v.Next())
	assert.Equal(t, []Edit{{Start: 5, End: 5, NewText: ","}}, first.Changes())

	v = c.Advance(Edit{Start: 0, End: 5, NewText: "goodbye"}, Edit{Start: 7, End: 8, NewText: ""})
	assert.Equal(t, 3, v.Number())
	assert.Equal(t, "goodbye world", v.Text())
	assert.Equal(t, 13, v.Length())
}

func TestAdvanceClampsEdits(t *testing.T) {
	c := New("abc", 0, WithLogger(zap.NewNop().Sugar()))
	v := c.Advance(Edit{Start: 2, End: 10, NewText: "Z"}, Edit{Start: -4, End: 0, NewText: "_"})
	assert.Equal(t, "_abZ", v.Text())
	assert.Equal(t, []Edit{{Start: 2, End: 3, NewText: "Z"}, {Start: 0, End: 0, NewText: "_"}}, c.Oldest().Changes())
}

func TestWalk(t *testing.T) {
	c := New("", 0)
	c.Advance(Edit{Start: 0, End: 0, NewText: "a"})
	c.Advance(Edit{Start: 1, End: 1, NewText: "b"})
	c.Advance(Edit{Start: 0, End: 1, NewText: ""})

	tests := []struct {
		name    string
		from    int
		towards int
		want    []Edit
		wantErr bool
	}{
		{
			name:    "same version",
			from:    2,
			towards: 2,
			want:    nil,
		},
		{
			name:    "full history",
			from:    0,
			towards: 3,
			want: []Edit{
				{Start: 0, End: 0, NewText: "a"},
				{Start: 1, End: 1, NewText: "b"},
				{Start: 0, End: 1, NewText: ""},
			},
		},
		{
			name:    "partial",
			from:    1,
			towards: 2,
			want:    []Edit{{Start: 1, End: 1, NewText: "b"}},
		},
		{
			name:    "backwards",
			from:    3,
			towards: 1,
			wantErr: true,
		},
		{
			name:    "future version",
			from:    1,
			towards: 9,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Walk(tt.from, tt.towards)
			if tt.wantErr {
				var notReachable *syncerrors.VersionNotReachableError
				assert.ErrorAs(t, err, &notReachable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRetention(t *testing.T) {
	c := New("x", 0)
	for i := 0; i < 5; i++ {
		c.Advance(Edit{Start: 0, End: 0, NewText: "x"})
	}
	require.Equal(t, 6, c.RetainedCount())

	v1, err := c.Version(1)
	require.NoError(t, err)
	v0 := c.Oldest()

	t.Run("pinned version survives floor", func(t *testing.T) {
		require.NoError(t, c.Pin(v1))
		c.SetFloor(4)
		assert.Equal(t, 4, c.Floor())
		assert.Equal(t, v1, c.Oldest())
		assert.True(t, v0.Released())
		assert.False(t, v1.Released())
		assert.Nil(t, v1.Previous())
		assert.False(t, c.CanTranslateFrom(0))
		assert.True(t, c.CanTranslateFrom(1))

		_, err := c.Walk(0, 5)
		var notReachable *syncerrors.VersionNotReachableError
		require.ErrorAs(t, err, &notReachable)
		assert.Equal(t, 1, notReachable.Oldest)
	})

	t.Run("unpin releases up to floor", func(t *testing.T) {
		c.Unpin(v1)
		assert.True(t, v1.Released())
		assert.Equal(t, 4, c.Oldest().Number())
		assert.Equal(t, 2, c.RetainedCount())
	})

	t.Run("floor never lowers", func(t *testing.T) {
		c.SetFloor(2)
		assert.Equal(t, 4, c.Floor())
	})

	t.Run("floor bounded by current", func(t *testing.T) {
		c.SetFloor(100)
		assert.Equal(t, 5, c.Floor())
		assert.Equal(t, c.Current(), c.Oldest())
	})

	t.Run("pin released version", func(t *testing.T) {
		assert.Error(t, c.Pin(v0))
	})
}

func TestPinForeignVersion(t *testing.T) {
	a := New("a", 0)
	b := New("b", 0)

	err := a.Pin(b.Current())
	var mismatched *syncerrors.MismatchedBufferError
	require.ErrorAs(t, err, &mismatched)
	assert.Equal(t, a.ID(), mismatched.Expected)
	assert.Equal(t, b.ID(), mismatched.Actual)

	// Unpinning a foreign or unpinned version is a no-op.
	a.Unpin(b.Current())
	a.Unpin(a.Current())
}

func TestSteps(t *testing.T) {
	c := New("ab", 3)
	from := c.Current()
	c.Advance(Edit{Start: 0, End: 0, NewText: "1"}, Edit{Start: 3, End: 3, NewText: "2"})
	c.Advance(Edit{Start: 0, End: 1, NewText: ""})

	steps, err := c.Steps(from, c.Current())
	require.NoError(t, err)
	assert.Equal(t, [][]Edit{
		{{Start: 0, End: 0, NewText: "1"}, {Start: 3, End: 3, NewText: "2"}},
		{{Start: 0, End: 1, NewText: ""}},
	}, steps)

	_, err = c.Steps(c.Current(), from)
	assert.Error(t, err)
}

func TestSpanText(t *testing.T) {
	c := New("hello", 0)
	assert.Equal(t, "ell", Span{Version: c.Current(), Start: 1, End: 4}.Text())
	assert.Equal(t, "lo", Span{Version: c.Current(), Start: 3, End: 40}.Text())
	assert.Equal(t, "", Span{}.Text())
	assert.Equal(t, 3, Span{Start: 1, End: 4}.Length())
}
