package stream

import "github.com/pacujo/goaten"

// Zero is a source that fills every read with zero bytes, grounded on
// original_source/src/stream/zero.rs.
type Zero struct {
	base
}

// NewZero constructs a Zero stream.
func NewZero(d *goaten.Disk) *Zero {
	return &Zero{base: newBase(d, "zero")}
}

func (s *Zero) Read(buf []byte) (int, error) {
	if n, err, ok := s.trivialRead(buf); ok {
		return n, err
	}
	for i := range buf {
		buf[i] = 0
	}
	return len(buf), nil
}
