package stream

import (
	"testing"

	"golang.org/x/sys/unix"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacujo/goaten"
)

func TestFileSyncReadsAvailableDataThenEOF(t *testing.T) {
	var fds [2]int
	require.NoError(t, unix.Pipe2(fds[:], 0))
	readFd, writeFd := fds[0], fds[1]
	defer unix.Close(readFd)

	_, err := unix.Write(writeFd, []byte("hi"))
	require.NoError(t, err)

	d := newTestDisk(t)
	f, err := NewFile(d, readFd, true)
	require.NoError(t, err)

	buf := make([]byte, 8)
	n, err := f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(buf[:n]))

	require.NoError(t, unix.Close(writeFd))
	n, err = f.Read(buf)
	require.NoError(t, err)
	assert.Zero(t, n, "closed write end with no buffered data must read as EOF")
}

func TestFileRegisteredDispatchesOnReadiness(t *testing.T) {
	var fds [2]int
	require.NoError(t, unix.Pipe2(fds[:], 0))
	readFd, writeFd := fds[0], fds[1]
	defer unix.Close(readFd)
	defer unix.Close(writeFd)

	d := newTestDisk(t)
	f, err := NewFile(d, readFd, false)
	require.NoError(t, err)
	defer f.Close()

	count := 0
	f.RegisterCallback(goaten.NewAction(func() { count++ }))

	// drain RegisterCallback's own immediate notification.
	for i := 0; i < 10 && count < 1; i++ {
		_, err := d.Poll()
		require.NoError(t, err)
	}
	require.Equal(t, 1, count)

	_, err = unix.Write(writeFd, []byte("x"))
	require.NoError(t, err)

	for i := 0; i < 10 && count < 2; i++ {
		_, err := d.Poll()
		require.NoError(t, err)
	}
	assert.Equal(t, 2, count, "fd readiness must reach the registered callback")
}
