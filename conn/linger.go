// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package conn builds connection-level abstractions — Linger, Duplex,
// TCP/Unix connect progress, and off-thread name resolution — out of the
// goaten reactor and goaten/stream framework.
package conn

import (
	"errors"
	"weak"

	"golang.org/x/sys/unix"

	"github.com/pacujo/goaten"
	"github.com/pacujo/goaten/kind"
	"github.com/pacujo/goaten/stream"
)

// LingerState is Linger's lifecycle state (spec.md §4.5).
type LingerState int

const (
	LingerBusy LingerState = iota
	LingerDrifting
	LingerFinal
	LingerStale
)

func (s LingerState) String() string {
	switch s {
	case LingerBusy:
		return "busy"
	case LingerDrifting:
		return "drifting"
	case LingerFinal:
		return "final"
	case LingerStale:
		return "stale"
	default:
		return "unknown"
	}
}

const lingerBufSize = 10000

// Linger drains a source byte stream into a nonblocking fd, with
// back-pressure (it never buffers more than one lingerBufSize chunk ahead
// of the destination) and drift/abort termination modes. Grounded on
// original_source/src/misc/linger.rs, extended with the Drifting state
// and prod/drift/abort per spec.md §4.5 (only partially present in the
// Rust snapshot).
//
// Linger's fd registration closure captures l directly (not weakly),
// which is the Go analogue of the Rust source's Rc<RefCell<Self>>
// self_ref: as long as the registration is live, l is reachable from the
// Disk's registration table even if every external handle to it is
// dropped. consume and Abort clear the registration, and with it that
// reachability path.
type Linger struct {
	weakDisk weak.Pointer[goaten.Disk]
	uid      goaten.UID
	source   stream.ByteStream
	dest     int

	buf            [lingerBufSize]byte
	cursor, length int

	callback         goaten.Action
	state            LingerState
	finalErr         error
	registration     *goaten.Registration
	writeArmed       bool
	sourceSubscribed bool
}

// NewLinger constructs a Linger draining source into dest, registers dest
// for write readiness, and kicks off the first drain attempt.
func NewLinger(d *goaten.Disk, source stream.ByteStream, dest int) (*Linger, error) {
	l := newLingerUnregistered(d, source, dest)
	reg, err := d.RegisterOldSchool(dest, goaten.NewAction(func() { l.jockey() }))
	if err != nil {
		return nil, err
	}
	if err := d.ModifyOldSchool(dest, true); err != nil {
		_ = reg.Close()
		return nil, err
	}
	l.registration = &reg
	l.writeArmed = true
	d.Execute(goaten.NewAction(func() { l.jockey() }))
	return l, nil
}

// newLingerUnregistered builds a Linger that does not register dest
// itself; used by Duplex, which registers the shared fd exactly once and
// drives jockey from that single registration's action (spec.md §4.6).
func newLingerUnregistered(d *goaten.Disk, source stream.ByteStream, dest int) *Linger {
	return &Linger{
		weakDisk: weak.Make(d),
		uid:      goaten.NewUID(),
		source:   source,
		dest:     dest,
		state:    LingerBusy,
	}
}

// UID returns the Linger's stable identity.
func (l *Linger) UID() goaten.UID { return l.uid }

// RegisterCallback installs a single callback fired once when the state
// enters Final. Replaces any previously registered callback.
func (l *Linger) RegisterCallback(cb goaten.Action) { l.callback = cb }

// UnregisterCallback cancels any pending Final callback.
func (l *Linger) UnregisterCallback() { l.callback = goaten.Action{} }

// Poll reports the current state. Reading a Final state consumes it,
// transitioning to Stale and releasing the destination registration.
func (l *Linger) Poll() (LingerState, error) {
	switch l.state {
	case LingerFinal:
		err := l.finalErr
		l.consume()
		return LingerFinal, err
	default:
		return l.state, nil
	}
}

// Drift detaches the caller from the drain's outcome: if still Busy, the
// Linger keeps draining but discards its terminal result once reached; if
// already Final, it is consumed immediately.
func (l *Linger) Drift() {
	switch l.state {
	case LingerBusy:
		l.state = LingerDrifting
	case LingerFinal:
		l.consume()
	}
}

// Abort forcibly transitions to Stale, dropping the destination
// registration regardless of drain progress.
func (l *Linger) Abort() {
	if l.state == LingerStale {
		return
	}
	l.dropRegistration()
	l.state = LingerStale
}

func (l *Linger) consume() LingerState {
	l.dropRegistration()
	prev := l.state
	l.state = LingerStale
	return prev
}

func (l *Linger) dropRegistration() {
	if l.registration != nil {
		_ = l.registration.Close()
		l.registration = nil
	}
}

// prod schedules a jockey pass via the reactor; used by Duplex's fd
// readiness callback to poke the egress direction.
func (l *Linger) prod() {
	if d := l.weakDisk.Value(); d != nil {
		d.Execute(goaten.NewAction(func() { l.jockey() }))
	}
}

// jockey drains as much of the buffered chunk into dest as the fd allows,
// then refills from source, repeating until it blocks, errors, or the
// source reaches EOF. Never writes more than one lingerBufSize chunk
// between refills (spec.md's "never more than 10 KiB per write call"
// testable property).
func (l *Linger) jockey() {
	if l.state != LingerBusy && l.state != LingerDrifting {
		return
	}
	// Subscribe to the source's own readiness exactly once: with write
	// interest now dropped while idle (see setWriteInterest), a level-
	// triggered destination fd no longer busy-polls jockey back to life,
	// so source becoming readable again has to be the thing that does.
	if !l.sourceSubscribed {
		l.sourceSubscribed = true
		l.source.RegisterCallback(goaten.NewAction(func() { l.jockey() }))
	}
	for {
		for l.cursor < l.length {
			n, err := unix.Write(l.dest, l.buf[l.cursor:l.length])
			if err != nil {
				if errors.Is(err, unix.EAGAIN) {
					return
				}
				l.done(err)
				return
			}
			l.cursor += n
		}
		n, err := l.source.Read(l.buf[:])
		if err != nil {
			if kind.IsAgain(err) {
				l.cursor = l.length
				// Nothing buffered and the source has nothing more right now:
				// a level-triggered write-ready dest fd would otherwise
				// re-dispatch jockey every poll iteration for no reason.
				l.setWriteInterest(false)
				return
			}
			l.done(err)
			return
		}
		if n == 0 {
			l.done(nil)
			return
		}
		l.cursor = 0
		l.length = n
		l.setWriteInterest(true)
	}
}

// setWriteInterest toggles the destination fd's write interest for
// standalone (RegisterOldSchool-backed) Lingers, a no-op for Duplex's
// shared-registration egress Linger (registration stays nil there; Duplex
// owns write interest on the combined fd itself). Idempotent: only issues
// a ModifyFD syscall when the desired state actually changes.
func (l *Linger) setWriteInterest(want bool) {
	if l.registration == nil || l.writeArmed == want {
		return
	}
	if d := l.weakDisk.Value(); d != nil {
		if err := d.ModifyOldSchool(l.dest, want); err == nil {
			l.writeArmed = want
		}
	}
}

func (l *Linger) done(err error) {
	l.finalErr = err
	if l.state == LingerDrifting {
		l.state = LingerFinal
		l.consume()
		return
	}
	l.state = LingerFinal
	if !l.callback.IsZero() {
		if d := l.weakDisk.Value(); d != nil {
			d.Execute(l.callback)
		}
	}
}
