package stream

import "github.com/pacujo/goaten"

type naiveEncoderState int

const (
	neReading naiveEncoderState = iota
	neEscaped
	neExhausted
	neTerminated
)

// NaiveEncoder is the dual of NaiveDecoder: it copies a wrappee's bytes,
// escaping (when escaping is enabled) any terminator or escape byte found
// in them, and appends a
// single trailing terminator once the wrappee EOFs. Grounded on
// original_source/src/stream/naiveencoder.rs.
type NaiveEncoder struct {
	base
	wrappee    ByteStream
	state      naiveEncoderState
	terminator byte
	escape     byte
	hasEscape  bool
	buffer     [2000]byte
	low, high  int
}

// NewNaiveEncoder constructs a NaiveEncoder over wrappee. escapeByte/hasEscape
// follow the Go convention for an optional byte: pass hasEscape=false to
// disable escaping.
func NewNaiveEncoder(d *goaten.Disk, wrappee ByteStream, terminator byte, escapeByte byte, hasEscape bool) *NaiveEncoder {
	s := &NaiveEncoder{base: newBase(d, "naiveencoder"), wrappee: wrappee, terminator: terminator, escape: escapeByte, hasEscape: hasEscape}
	wrappee.RegisterCallback(goaten.NewAction(func() { s.notify() }))
	return s
}

func (s *NaiveEncoder) Read(buf []byte) (int, error) {
	if n, err, ok := s.trivialRead(buf); ok {
		return n, err
	}
	switch s.state {
	case neReading, neEscaped:
		return s.encode(buf)
	case neExhausted:
		buf[0] = s.terminator
		s.state = neTerminated
		return 1, nil
	default: // neTerminated
		return 0, nil
	}
}

// encode fills buf with escaped bytes drawn from an internal buffer, which
// it refills from the wrappee as needed.
func (s *NaiveEncoder) encode(buf []byte) (int, error) {
	wi := 0
	for wi < len(buf) {
		if s.state == neEscaped {
			buf[wi] = s.buffer[s.low]
			s.low++
			wi++
			s.state = neReading
			continue
		}
		if s.low >= s.high {
			n, err := s.wrappee.Read(s.buffer[:])
			if err != nil {
				if wi > 0 {
					return wi, nil
				}
				return 0, err
			}
			if n == 0 {
				s.state = neExhausted
				if wi > 0 {
					return wi, nil
				}
				return s.Read(buf)
			}
			s.low, s.high = 0, n
			continue
		}
		b := s.buffer[s.low]
		if s.hasEscape && (b == s.terminator || b == s.escape) {
			buf[wi] = s.escape
			wi++
			s.state = neEscaped
			continue
		}
		buf[wi] = b
		s.low++
		wi++
	}
	return wi, nil
}
