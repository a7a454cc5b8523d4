package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDrainsInOrderThenAgainUntilTerminated(t *testing.T) {
	d := newTestDisk(t)
	q := NewQueue(d)
	q.Enqueue(NewBlob(d, []byte("ab")))
	q.Enqueue(NewBlob(d, []byte("cd")))

	buf := make([]byte, 10)
	n, err := q.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(buf[:n]))

	_, err = q.Read(buf)
	assert.True(t, kindIsAgain(err), "an undrained, unterminated queue must report Again once empty")

	q.Terminate()
	n, err = q.Read(buf)
	require.NoError(t, err)
	assert.Zero(t, n, "a terminated, drained queue reports EOF")
}

func TestQueuePushJumpsTheLine(t *testing.T) {
	d := newTestDisk(t)
	q := NewQueue(d)
	q.Enqueue(NewBlob(d, []byte("second")))
	q.Push(NewBlob(d, []byte("first-")))
	q.Terminate()

	buf := make([]byte, 32)
	n, err := q.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "first-second", string(buf[:n]))
}

func TestQueueWriteEnqueuesACopy(t *testing.T) {
	d := newTestDisk(t)
	q := NewQueue(d)

	p := []byte("mutate-me")
	n, err := q.Write(p)
	require.NoError(t, err)
	assert.Equal(t, len(p), n)

	p[0] = 'X' // mutating the caller's slice must not affect what was enqueued
	q.Terminate()

	buf := make([]byte, 32)
	n, err = q.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "mutate-me", string(buf[:n]))
}

func TestQueueEnqueueAfterTerminatePanics(t *testing.T) {
	d := newTestDisk(t)
	q := NewQueue(d)
	q.Terminate()
	assert.Panics(t, func() { q.Enqueue(NewBlob(d, []byte("x"))) })
}
