package goaten

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstantAddSub(t *testing.T) {
	base := Instant(1000)
	after := base.Add(500)
	assert.Equal(t, Duration(500), after.Sub(base))
	assert.True(t, base.Before(after))
	assert.False(t, after.Before(base))
}

func TestInstantAddOverflowPanics(t *testing.T) {
	assert.Panics(t, func() {
		Instant(1<<63 - 1).Add(1)
	})
	assert.Panics(t, func() {
		Instant(-(1 << 63)).Add(-1)
	})
}

func TestDurationMillisecondsRoundsUp(t *testing.T) {
	assert.Equal(t, int64(1), Duration(1).Milliseconds())
	assert.Equal(t, int64(1), Millisecond.Milliseconds())
	assert.Equal(t, int64(2), (Millisecond + 1).Milliseconds())
	assert.Equal(t, int64(0), Duration(0).Milliseconds())
}

func TestNewUIDUniqueAndNonZero(t *testing.T) {
	seen := make(map[UID]bool)
	for i := 0; i < 1000; i++ {
		u := NewUID()
		require.NotEqual(t, UID(0), u)
		require.False(t, seen[u], "UID %v repeated", u)
		seen[u] = true
	}
}
