package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacujo/goaten"
)

func newTestDisk(t *testing.T) *goaten.Disk {
	t.Helper()
	d, err := goaten.NewDisk()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestEmptyReadsEOF(t *testing.T) {
	d := newTestDisk(t)
	s := NewEmpty(d)
	buf := make([]byte, 8)
	n, err := s.Read(buf)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestDryAlwaysReturnsAgain(t *testing.T) {
	d := newTestDisk(t)
	s := NewDry(d)
	buf := make([]byte, 8)
	_, err := s.Read(buf)
	assert.True(t, kindIsAgain(err))
}

func TestZeroFillsBuffer(t *testing.T) {
	d := newTestDisk(t)
	s := NewZero(d)
	buf := []byte{1, 2, 3, 4}
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{0, 0, 0, 0}, buf)
}

func TestBlobDrainsThenEOFs(t *testing.T) {
	d := newTestDisk(t)
	s := NewBlob(d, []byte("hello"))

	buf := make([]byte, 3)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hel", string(buf[:n]))

	n, err = s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "lo", string(buf[:n]))

	n, err = s.Read(buf)
	require.NoError(t, err)
	assert.Zero(t, n, "blob must EOF once drained")
}

func TestTrivialReadOnZeroLengthBuffer(t *testing.T) {
	d := newTestDisk(t)
	s := NewZero(d)
	n, err := s.Read(nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
}
