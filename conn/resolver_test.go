package conn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacujo/goaten"
	"github.com/pacujo/goaten/kind"
)

func TestResolverResolvesLoopback(t *testing.T) {
	d := newConnTestDisk(t)
	r, err := NewResolver(d, "localhost")
	require.NoError(t, err)

	fired := make(chan struct{}, 1)
	r.RegisterCallback(goaten.NewAction(func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	}))

	deadline := time.Now().Add(5 * time.Second)
	ready := false
	for time.Now().Before(deadline) && !ready {
		_, err := d.Poll()
		require.NoError(t, err)
		select {
		case <-fired:
			ready = true
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	require.True(t, ready, "resolver must signal completion within the deadline")

	addrs, err := r.Poll()
	require.NoError(t, err)
	assert.NotEmpty(t, addrs)
}

func TestResolverPollAfterConsumptionSurfacesBadDescriptor(t *testing.T) {
	d := newConnTestDisk(t)
	r, err := NewResolver(d, "localhost")
	require.NoError(t, err)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		_, err := d.Poll()
		require.NoError(t, err)
		if _, perr := r.Poll(); perr == nil {
			break
		} else if !kind.IsAgain(perr) {
			require.NoError(t, perr)
		}
		time.Sleep(5 * time.Millisecond)
	}

	_, err = r.Poll()
	require.Error(t, err)
	assert.True(t, kind.Is(err, kind.BadDescriptor))
}
