package stream

import "github.com/pacujo/goaten"

// chunkedBlob is a test-only source that serves at most chunk bytes per
// Read call regardless of the caller's buffer size, used to exercise
// stream wrappers (Avid, Nice) that coalesce or throttle across multiple
// underlying partial reads.
type chunkedBlob struct {
	base
	data   []byte
	cursor int
	chunk  int
}

func newChunkedBlob(d *goaten.Disk, data []byte, chunk int) *chunkedBlob {
	return &chunkedBlob{base: newBase(d, "chunkedblob"), data: data, chunk: chunk}
}

func (s *chunkedBlob) Read(buf []byte) (int, error) {
	if n, err, ok := s.trivialRead(buf); ok {
		return n, err
	}
	remaining := len(s.data) - s.cursor
	if remaining == 0 {
		return 0, nil
	}
	n := s.chunk
	if n > remaining {
		n = remaining
	}
	if n > len(buf) {
		n = len(buf)
	}
	copy(buf[:n], s.data[s.cursor:s.cursor+n])
	s.cursor += n
	return n, nil
}
