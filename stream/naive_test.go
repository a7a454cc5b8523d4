package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacujo/goaten/kind"
)

func readAll(t *testing.T, s ByteStream) []byte {
	t.Helper()
	var out []byte
	buf := make([]byte, 4)
	for {
		n, err := s.Read(buf)
		require.NoError(t, err)
		if n == 0 {
			return out
		}
		out = append(out, buf[:n]...)
	}
}

func TestNaiveEncodeDecodeRoundTrip(t *testing.T) {
	d := newTestDisk(t)
	original := []byte{1, 2, 0, 3, 0x7f, 4}
	blob := NewBlob(d, original)
	enc := NewNaiveEncoder(d, blob, 0, 0x7f, true)
	encoded := readAll(t, enc)

	decBlob := NewBlob(d, encoded)
	dec := NewNaiveDecoder(d, decBlob, 0, 0x7f, true)
	decoded := readAll(t, dec)

	assert.Equal(t, original, decoded)
}

func TestNaiveDecoderProtocolErrorOnEarlyEOF(t *testing.T) {
	d := newTestDisk(t)
	blob := NewBlob(d, []byte("no terminator here"))
	dec := NewNaiveDecoder(d, blob, '\n', '\\', true)

	buf := make([]byte, 64)
	n, err := dec.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "no terminator here", string(buf[:n]))

	// the next read hits the wrappee's EOF before any terminator.
	_, err = dec.Read(buf)
	require.Error(t, err)
	assert.True(t, kind.Is(err, kind.Protocol))
}

// TestNaiveDecoderFullConsumptionSetsRemainderToWrappee is a regression
// test for the boundary check inside decode: the terminator-position
// comparison must be against count (bytes actually read this call), not
// len(buf). When the terminator is the last valid byte of a short
// wrappee read, the remainder must be the wrappee itself, not a Queue
// wrapping an empty tail plus the wrappee.
func TestNaiveDecoderFullConsumptionSetsRemainderToWrappee(t *testing.T) {
	d := newTestDisk(t)
	blob := NewBlob(d, []byte("AB\n"))
	dec := NewNaiveDecoder(d, blob, '\n', '\\', true)

	buf := make([]byte, 10) // deliberately larger than the 3-byte blob
	n, err := dec.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "AB", string(buf[:n]))

	assert.Same(t, blob, dec.Remainder())
}
