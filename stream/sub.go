package stream

import "github.com/pacujo/goaten"

// Sub reads a [begin, end) window out of a wrappee: it skips begin bytes,
// surfaces bytes up to end, then reports EOF (if exhaust is set, it first
// keeps draining the wrappee internally without surfacing any more bytes,
// and reports EOF once the wrappee does). Grounded on
// original_source/src/stream/sub.rs.
type Sub struct {
	base
	wrappee ByteStream
	begin   int64
	end     int64
	hasEnd  bool
	exhaust bool
	cursor  int64
}

// NewSub constructs a Sub over wrappee. Pass hasEnd=false for an open-ended
// window that mirrors the wrappee's own EOF once begin bytes are skipped.
func NewSub(d *goaten.Disk, wrappee ByteStream, begin, end int64, hasEnd, exhaust bool) *Sub {
	s := &Sub{base: newBase(d, "sub"), wrappee: wrappee, begin: begin, end: end, hasEnd: hasEnd, exhaust: exhaust}
	wrappee.RegisterCallback(goaten.NewAction(func() { s.notify() }))
	return s
}

// Remainder returns the wrappee stream, positioned at offset end once this
// Sub has surrendered control — it remains externally readable from there.
func (s *Sub) Remainder() ByteStream { return s.wrappee }

func (s *Sub) Read(buf []byte) (int, error) {
	if n, err, ok := s.trivialRead(buf); ok {
		return n, err
	}
	bufSize := int64(len(buf))
	for s.cursor < s.begin {
		room := bufSize
		if r := s.begin - s.cursor; r < room {
			room = r
		}
		n, err := s.wrappee.Read(buf[:room])
		if err != nil {
			return 0, err
		}
		s.cursor += int64(n)
	}
	if !s.hasEnd {
		return s.wrappee.Read(buf)
	}
	if s.cursor < s.end {
		room := bufSize
		if r := s.end - s.cursor; r < room {
			room = r
		}
		n, err := s.wrappee.Read(buf[:room])
		if err != nil {
			return 0, err
		}
		s.cursor += int64(n)
		return n, nil
	}
	if s.exhaust {
		for {
			n, err := s.wrappee.Read(buf)
			if err != nil {
				return 0, err
			}
			if n == 0 {
				return 0, nil
			}
		}
	}
	return 0, nil
}
