package stream

import "github.com/pacujo/goaten"

// Empty is a source that always reports EOF, grounded on
// original_source/src/stream/empty.rs.
type Empty struct {
	base
}

// NewEmpty constructs an Empty stream.
func NewEmpty(d *goaten.Disk) *Empty {
	return &Empty{base: newBase(d, "empty")}
}

func (s *Empty) Read(buf []byte) (int, error) {
	if n, err, ok := s.trivialRead(buf); ok {
		return n, err
	}
	return 0, nil
}
