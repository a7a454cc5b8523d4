package stream

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacujo/goaten"
)

func TestFarewellPassesBytesThrough(t *testing.T) {
	d := newTestDisk(t)
	blob := NewBlob(d, []byte("hello"))
	fw := NewFarewell(d, blob)

	buf := make([]byte, 5)
	n, err := fw.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
}

// TestFarewellFiresCallbackOnGC is a best-effort test of the GC-cleanup
// bridge: once the Farewell becomes unreachable, runtime.AddCleanup should
// eventually deliver the callback onto the reactor via Disk.Post, observed
// here by running the reactor's own MainLoop. Cleanup timing is not
// guaranteed by the runtime, so this polls for a bounded time rather than
// asserting immediacy, and skips (rather than fails) if the window elapses.
func TestFarewellFiresCallbackOnGC(t *testing.T) {
	d := newTestDisk(t)

	fired := make(chan struct{})
	func() {
		fw := NewFarewell(d, NewEmpty(d))
		fw.RegisterFarewellCallback(goaten.NewAction(func() {
			close(fired)
			d.Quit()
		}))
	}()

	done := make(chan error, 1)
	go func() { done <- d.MainLoop() }()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-fired:
			require.NoError(t, <-done)
			return
		case <-deadline:
			d.Quit()
			<-done
			t.Skip("GC-triggered cleanup did not fire within the test's polling window; timing is runtime-dependent, not a correctness signal")
			return
		case <-ticker.C:
			runtime.GC()
		}
	}
}
