package stream

import (
	"github.com/pacujo/goaten"
	"github.com/pacujo/goaten/kind"
)

type naiveDecoderState int

const (
	ndReading naiveDecoderState = iota
	ndEscaped
	ndTerminated
	ndErrored
)

// NaiveDecoder removes the first occurrence of a terminator byte (not
// preceded by an escape byte) from a wrappee's bytes, surfacing the
// wrappee's remaining, still-unread bytes via Remainder once the
// terminator has been seen. An EOF before the terminator is a protocol
// error. Grounded on original_source/src/stream/naivedecoder.rs.
type NaiveDecoder struct {
	base
	wrappee     ByteStream
	state       naiveDecoderState
	remainder   ByteStream
	terminator  byte
	escape      byte
	hasEscape   bool
}

// NewNaiveDecoder constructs a NaiveDecoder over wrappee. escapeByte/hasEscape
// follow the Go convention for an optional byte: pass hasEscape=false to
// disable escaping.
func NewNaiveDecoder(d *goaten.Disk, wrappee ByteStream, terminator byte, escapeByte byte, hasEscape bool) *NaiveDecoder {
	s := &NaiveDecoder{base: newBase(d, "naivedecoder"), wrappee: wrappee, terminator: terminator, escape: escapeByte, hasEscape: hasEscape}
	wrappee.RegisterCallback(goaten.NewAction(func() { s.notify() }))
	return s
}

// Remainder returns the stream positioned right after the terminator, once
// the terminator has been seen; nil before then.
func (s *NaiveDecoder) Remainder() ByteStream { return s.remainder }

func (s *NaiveDecoder) Read(buf []byte) (int, error) {
	if n, err, ok := s.trivialRead(buf); ok {
		return n, err
	}
	switch s.state {
	case ndReading, ndEscaped:
		n, err := s.wrappee.Read(buf)
		if err != nil {
			return 0, err
		}
		if n == 0 {
			s.state = ndErrored
			return 0, kind.NewProtocol("naivedecoder.read")
		}
		return s.decode(buf, n)
	case ndTerminated:
		return 0, nil
	default: // ndErrored
		return 0, kind.NewProtocol("naivedecoder.read")
	}
}

// decode removes the first unescaped terminator from buf[:count], which
// holds bytes already read from the wrappee, compacting the surviving
// bytes in place.
func (s *NaiveDecoder) decode(buf []byte, count int) (int, error) {
	ri, wi := 0, 0
	if s.state == ndEscaped {
		buf[wi] = buf[ri]
		wi++
		ri++
	}
	for {
		if ri >= count {
			s.state = ndReading
			if wi == 0 {
				return s.Read(buf)
			}
			return wi, nil
		}
		if buf[ri] == s.terminator {
			ri++
			if ri == count {
				s.state = ndTerminated
				s.remainder = s.wrappee
				return wi, nil
			}
			d := s.up()
			if d == nil {
				return 0, kind.NewBadDescriptor("naivedecoder.decode")
			}
			q := NewQueue(d)
			tail := append([]byte(nil), buf[ri:count]...)
			q.Enqueue(NewBlob(d, tail))
			q.Enqueue(s.wrappee)
			q.Terminate()
			s.state = ndTerminated
			s.remainder = q
			return wi, nil
		}
		if s.hasEscape && buf[ri] == s.escape {
			ri++
			if ri >= count {
				s.state = ndEscaped
				if wi == 0 {
					return s.Read(buf)
				}
				return wi, nil
			}
		}
		buf[wi] = buf[ri]
		wi++
		ri++
	}
}
