package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubWindowsAndStopsAtEnd(t *testing.T) {
	d := newTestDisk(t)
	blob := NewBlob(d, []byte("0123456789"))
	sub := NewSub(d, blob, 2, 5, true, false)

	buf := make([]byte, 10)
	n, err := sub.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "234", string(buf[:n]))

	n, err = sub.Read(buf)
	require.NoError(t, err)
	assert.Zero(t, n, "reads past the window must EOF without exhaust")
}

func TestSubRemainderContinuesAfterWindow(t *testing.T) {
	d := newTestDisk(t)
	blob := NewBlob(d, []byte("0123456789"))
	sub := NewSub(d, blob, 2, 5, true, false)

	buf := make([]byte, 10)
	_, err := sub.Read(buf)
	require.NoError(t, err)
	_, err = sub.Read(buf)
	require.NoError(t, err)

	remainder := sub.Remainder()
	n, err := remainder.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "56789", string(buf[:n]))
}

func TestSubOpenEndedMirrorsWrappeeEOF(t *testing.T) {
	d := newTestDisk(t)
	blob := NewBlob(d, []byte("abcdef"))
	sub := NewSub(d, blob, 3, 0, false, false)

	buf := make([]byte, 10)
	n, err := sub.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "def", string(buf[:n]))

	n, err = sub.Read(buf)
	require.NoError(t, err)
	assert.Zero(t, n)
}
