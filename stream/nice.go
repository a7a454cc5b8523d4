package stream

import (
	"weak"

	"github.com/pacujo/goaten"
)

// Nice yields to the reactor after max_burst bytes, preventing one stream
// from monopolizing the loop; the burst counter resets on any wrappee
// error. Grounded on original_source/src/stream/nice.rs.
type Nice struct {
	base
	wrappee  ByteStream
	maxBurst int
	cursor   int
	self     weak.Pointer[Nice]
}

// NewNice constructs a Nice stream yielding every maxBurst bytes read from
// wrappee.
func NewNice(d *goaten.Disk, wrappee ByteStream, maxBurst int) *Nice {
	s := &Nice{base: newBase(d, "nice"), wrappee: wrappee, maxBurst: maxBurst}
	s.self = weak.Make(s)
	wrappee.RegisterCallback(goaten.NewAction(func() { s.notify() }))
	return s
}

func (s *Nice) Read(buf []byte) (int, error) {
	if n, err, ok := s.trivialRead(buf); ok {
		return n, err
	}
	if s.cursor >= s.maxBurst {
		s.backOff()
		return 0, again("nice.read")
	}
	n, err := s.wrappee.Read(buf)
	if err != nil {
		s.cursor = 0
		return 0, err
	}
	s.cursor += n
	return n, nil
}

// backOff resets the burst counter and self-schedules a retry, so the
// reactor gets a turn before this stream is read again.
func (s *Nice) backOff() {
	s.cursor = 0
	if d := s.up(); d != nil {
		self := s.self
		d.Execute(goaten.NewAction(func() {
			if n := self.Value(); n != nil {
				n.notify()
			}
		}))
	}
}
