package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNiceBacksOffAfterMaxBurst(t *testing.T) {
	d := newTestDisk(t)
	source := NewBlob(d, []byte("abcdefgh"))
	nice := NewNice(d, source, 4)

	buf := make([]byte, 3)
	n, err := nice.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf[:n]))

	n, err = nice.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "def", string(buf[:n]), "burst counter (3) is still below maxBurst (4) before this read")

	_, err = nice.Read(buf)
	assert.True(t, kindIsAgain(err), "cursor (6) now exceeds maxBurst (4); Nice must back off")

	// the burst counter reset by backOff lets the next call proceed.
	n, err = nice.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "gh", string(buf[:n]))
}

func TestNiceResetsBurstOnWrappeeError(t *testing.T) {
	d := newTestDisk(t)
	source := NewDry(d)
	nice := NewNice(d, source, 1)

	buf := make([]byte, 4)
	_, err := nice.Read(buf)
	assert.True(t, kindIsAgain(err), "Dry's own Again must propagate, distinct from a back-off Again")

	queue := NewQueue(d)
	queue.Enqueue(NewBlob(d, []byte("ab")))
	nice = NewNice(d, queue, 4)

	n, err := nice.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, nice.cursor)

	_, err = nice.Read(buf)
	assert.True(t, kindIsAgain(err), "the drained, unterminated queue reports Again")
	assert.Zero(t, nice.cursor, "a wrappee error must reset the burst counter")
}
