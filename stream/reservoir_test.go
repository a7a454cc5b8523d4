package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacujo/goaten/kind"
)

func TestReservoirDrainsThenServesFromMemory(t *testing.T) {
	d := newTestDisk(t)
	blob := NewBlob(d, []byte("0123456789"))
	res := NewReservoir(d, blob, 100)

	buf := make([]byte, 32)
	n, err := res.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(buf[:n]))
	assert.Equal(t, 10, res.Amount())

	n, err = res.Read(buf)
	require.NoError(t, err)
	assert.Zero(t, n, "a fully-drained, fully-served reservoir reports EOF")
}

func TestReservoirOverflowSurfacesNoSpace(t *testing.T) {
	d := newTestDisk(t)
	data := make([]byte, 50)
	blob := NewBlob(d, data)
	res := NewReservoir(d, blob, 10)

	buf := make([]byte, 64)
	_, err := res.Read(buf)
	require.Error(t, err)
	assert.True(t, kind.Is(err, kind.NoSpace))
}
