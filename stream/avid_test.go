package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvidCoalescesPartialReads(t *testing.T) {
	d := newTestDisk(t)
	source := newChunkedBlob(d, []byte("ABCDEFGH"), 3)
	avid := NewAvid(d, source)

	buf := make([]byte, 8)
	n, err := avid.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ABCDEFGH", string(buf[:n]), "one Avid.Read must coalesce every underlying partial read")
}

func TestAvidReturnsProgressOnEOF(t *testing.T) {
	d := newTestDisk(t)
	source := newChunkedBlob(d, []byte("AB"), 1)
	avid := NewAvid(d, source)

	buf := make([]byte, 8)
	n, err := avid.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "AB", string(buf[:n]), "Avid must return whatever it coalesced once the wrappee EOFs")

	n, err = avid.Read(buf)
	require.NoError(t, err)
	assert.Zero(t, n)
}
