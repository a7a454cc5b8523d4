package stream

import "github.com/pacujo/goaten"

// Dry is a source that always reports EAGAIN and never notifies; used as a
// sink placeholder for switch composition, grounded on
// original_source/src/stream/dry.rs.
type Dry struct {
	base
}

// NewDry constructs a Dry stream.
func NewDry(d *goaten.Disk) *Dry {
	return &Dry{base: newBase(d, "dry")}
}

func (s *Dry) Read(buf []byte) (int, error) {
	if n, err, ok := s.trivialRead(buf); ok {
		return n, err
	}
	return 0, again("dry.read")
}
