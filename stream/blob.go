package stream

import "github.com/pacujo/goaten"

// Blob is a source that serves bytes out of an in-memory buffer via a
// cursor, grounded on original_source/src/stream/blob.rs.
type Blob struct {
	base
	data   []byte
	cursor int
}

// NewBlob constructs a Blob stream over data. data is retained, not
// copied; callers that mutate it after construction will affect reads.
func NewBlob(d *goaten.Disk, data []byte) *Blob {
	return &Blob{base: newBase(d, "blob"), data: data}
}

func (s *Blob) Read(buf []byte) (int, error) {
	if n, err, ok := s.trivialRead(buf); ok {
		return n, err
	}
	n := copy(buf, s.data[s.cursor:])
	s.cursor += n
	return n, nil
}
