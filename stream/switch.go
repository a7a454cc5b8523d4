package stream

import "github.com/pacujo/goaten"

// Switch delegates reads to a current wrappee that can be swapped at any
// time, rewiring the callback immediately on swap. Grounded on
// original_source/src/stream/switch.rs.
type Switch struct {
	base
	wrappee ByteStream
}

// NewSwitch constructs a Switch initially delegating to wrappee.
func NewSwitch(d *goaten.Disk, wrappee ByteStream) *Switch {
	s := &Switch{base: newBase(d, "switch"), wrappee: wrappee}
	s.wire(wrappee)
	return s
}

// Switch swaps the current wrappee, rewiring the callback immediately.
func (s *Switch) Switch(wrappee ByteStream) {
	s.wire(wrappee)
	s.wrappee = wrappee
}

func (s *Switch) wire(wrappee ByteStream) {
	wrappee.RegisterCallback(goaten.NewAction(func() { s.notify() }))
}

func (s *Switch) Read(buf []byte) (int, error) {
	if n, err, ok := s.trivialRead(buf); ok {
		return n, err
	}
	return s.wrappee.Read(buf)
}
