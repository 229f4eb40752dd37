package stamp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
	syncerrors "github.com/uber/analysis-sync/src/anasync/internal/errors"
	"github.com/uber/analysis-sync/src/anasync/internal/versionchain"
	"go.uber.org/zap"
)

func advanceTo(chain *versionchain.Chain, number int) {
	for chain.Current().Number() < number {
		chain.Advance(versionchain.Edit{Start: 0, End: 0, NewText: "x"})
	}
}

func TestCapture(t *testing.T) {
	chain := versionchain.New("", 0)
	advanceTo(chain, 3)

	s, err := Capture(chain)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Version())
	assert.Equal(t, chain.ID(), s.BufferID())
	assert.Equal(t, chain.Current(), s.DocumentVersion())

	advanceTo(chain, 6)
	chain.SetFloor(6)
	assert.False(t, s.DocumentVersion().Released())
	assert.Equal(t, 3, chain.Oldest().Number())

	s.Release()
	s.Release()
	assert.True(t, s.DocumentVersion().Released())
	assert.Equal(t, 6, chain.Oldest().Number())
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name         string
		stampAt      int
		lastAnalyzed int // -1 for none
		wantStale    bool
	}{
		{
			name:         "nothing analyzed",
			stampAt:      2,
			lastAnalyzed: -1,
		},
		{
			name:         "same version",
			stampAt:      5,
			lastAnalyzed: 5,
		},
		{
			name:         "newer than analysis",
			stampAt:      7,
			lastAnalyzed: 5,
		},
		{
			name:         "stale",
			stampAt:      5,
			lastAnalyzed: 7,
			wantStale:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope := tally.NewTestScope("testing", make(map[string]string, 0))
			r := NewResolver(zap.NewNop().Sugar(), scope)

			chain := versionchain.New("", 0)
			advanceTo(chain, tt.stampAt)
			s, err := Capture(chain)
			require.NoError(t, err)

			advanceTo(chain, 8)
			var last *versionchain.DocumentVersion
			if tt.lastAnalyzed >= 0 {
				last, err = chain.Version(tt.lastAnalyzed)
				require.NoError(t, err)
			}

			tr, err := r.Resolve(s, last)
			require.NoError(t, err)

			counters := scope.Snapshot().Counters()
			if tt.wantStale {
				assert.Nil(t, tr)
				assert.Equal(t, int64(1), counters["testing.stale_responses_discarded+"].Value())
				return
			}

			require.NotNil(t, tr)
			defer tr.Close()
			assert.Equal(t, tt.stampAt, tr.From().Number())
			require.Contains(t, counters, "testing.stale_responses_discarded+")
			assert.Equal(t, int64(0), counters["testing.stale_responses_discarded+"].Value())
		})
	}
}

func TestResolvePinTransfer(t *testing.T) {
	r := NewResolver(zap.NewNop().Sugar(), tally.NoopScope)
	chain := versionchain.New("abc", 0)
	s, err := Capture(chain)
	require.NoError(t, err)
	advanceTo(chain, 2)

	tr, err := r.Resolve(s, nil)
	require.NoError(t, err)
	require.NotNil(t, tr)

	chain.SetFloor(2)
	assert.False(t, s.DocumentVersion().Released())

	tr.Close()
	assert.True(t, s.DocumentVersion().Released())

	// Release after resolve must not drop someone else's pin.
	s.Release()
}

func TestResolveStaleReleasesPin(t *testing.T) {
	r := NewResolver(zap.NewNop().Sugar(), tally.NoopScope)
	chain := versionchain.New("abc", 0)
	s, err := Capture(chain)
	require.NoError(t, err)
	advanceTo(chain, 2)

	tr, err := r.Resolve(s, chain.Current())
	require.NoError(t, err)
	assert.Nil(t, tr)

	chain.SetFloor(2)
	assert.True(t, s.DocumentVersion().Released())
}

func TestResolveErrors(t *testing.T) {
	r := NewResolver(zap.NewNop().Sugar(), tally.NoopScope)

	t.Run("already consumed", func(t *testing.T) {
		chain := versionchain.New("abc", 0)
		s, err := Capture(chain)
		require.NoError(t, err)
		s.Release()

		_, err = r.Resolve(s, nil)
		assert.Error(t, err)
	})

	t.Run("analysis of another buffer", func(t *testing.T) {
		chain := versionchain.New("abc", 0)
		other := versionchain.New("abc", 0)
		s, err := Capture(chain)
		require.NoError(t, err)

		_, err = r.Resolve(s, other.Current())
		var mismatched *syncerrors.MismatchedBufferError
		assert.ErrorAs(t, err, &mismatched)
	})
}
