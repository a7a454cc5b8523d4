package stream

import "github.com/pacujo/goaten"

// Avid coalesces partial reads from a wrappee, looping internally up to
// len(buf), stopping on EOF or on EAGAIN after some progress has already
// been made. The dual of Nice. Grounded on
// original_source/src/stream/avid.rs.
type Avid struct {
	base
	wrappee ByteStream
}

// NewAvid constructs an Avid stream over wrappee.
func NewAvid(d *goaten.Disk, wrappee ByteStream) *Avid {
	s := &Avid{base: newBase(d, "avid"), wrappee: wrappee}
	wrappee.RegisterCallback(goaten.NewAction(func() { s.notify() }))
	return s
}

func (s *Avid) Read(buf []byte) (int, error) {
	if n, err, ok := s.trivialRead(buf); ok {
		return n, err
	}
	cursor := 0
	for cursor < len(buf) {
		n, err := s.wrappee.Read(buf[cursor:])
		if err != nil {
			if cursor > 0 {
				return cursor, nil
			}
			return 0, err
		}
		if n == 0 {
			return cursor, nil
		}
		cursor += n
	}
	return cursor, nil
}
