package stream

import (
	"runtime"

	"github.com/pacujo/goaten"
)

// Farewell passes a wrappee's bytes through unchanged, but arranges for a
// callback to run on the reactor once the Farewell itself becomes
// unreachable and is garbage-collected. The Rust original fires this from
// a Drop impl; Go has no destructors, so this is grounded on
// original_source/src/stream/farewell.rs using runtime.AddCleanup as the
// nearest idiomatic Go equivalent, bridged onto the reactor goroutine via
// Disk.Post (cleanups run on an arbitrary goroutine, never the reactor's
// own).
type Farewell struct {
	base
	wrappee  ByteStream
	callback goaten.Action
	cleanup  runtime.Cleanup
}

// NewFarewell constructs a Farewell over wrappee.
func NewFarewell(d *goaten.Disk, wrappee ByteStream) *Farewell {
	s := &Farewell{base: newBase(d, "farewell"), wrappee: wrappee}
	wrappee.RegisterCallback(goaten.NewAction(func() { s.notify() }))
	return s
}

// RegisterFarewellCallback arranges for action to run on the reactor once
// this stream is garbage-collected. Replaces any previously registered
// callback.
func (s *Farewell) RegisterFarewellCallback(action goaten.Action) {
	s.UnregisterFarewellCallback()
	s.callback = action
	weakDisk := s.weakDisk
	s.cleanup = runtime.AddCleanup(s, func(cb goaten.Action) {
		if d := weakDisk.Value(); d != nil {
			d.Post(cb)
		}
	}, action)
}

// UnregisterFarewellCallback cancels any pending farewell callback.
func (s *Farewell) UnregisterFarewellCallback() {
	if !s.callback.IsZero() {
		s.cleanup.Stop()
		s.callback = goaten.Action{}
	}
}

func (s *Farewell) Read(buf []byte) (int, error) {
	if n, err, ok := s.trivialRead(buf); ok {
		return n, err
	}
	return s.wrappee.Read(buf)
}
