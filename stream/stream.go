// Package stream implements the pull-based byte-stream framework layered on
// top of goaten's reactor: a single read/register_callback contract shared
// by every concrete stream (empty, dry, zero, blob, queue, sub, switch,
// pacer, nice, avid, reservoir, farewell, the naive encoder/decoder, and
// file), grounded on original_source/src/stream/base.rs's StreamBody plus
// its DECLARE_STREAM!/IMPL_STREAM! macro pattern.
package stream

import (
	"weak"

	"github.com/pacujo/goaten"
	"github.com/pacujo/goaten/kind"
)

// ByteStream is the pull-based contract every concrete stream implements
// (spec.md §4.3).
type ByteStream interface {
	// Read attempts to fill buf, returning (n, nil) on progress,
	// (0, nil) on EOF, kind.ErrAgain on "try again once notified", or any
	// other error per the stream's own contract. A zero-length buf always
	// returns (0, nil) without side effects other than tracing.
	Read(buf []byte) (int, error)
	// RegisterCallback installs action, replacing any previously
	// installed one, and immediately schedules it once (the initial
	// notification spec.md §4.3 requires).
	RegisterCallback(action goaten.Action)
	// UnregisterCallback removes the installed callback, if any.
	UnregisterCallback()
}

// base is embedded by every concrete stream body. It holds a weak
// back-reference to the reactor (never strong: spec.md §3 "streams ... hold
// a weak back-reference to the reactor") plus the stream's identity and its
// single registered callback.
type base struct {
	weakDisk weak.Pointer[goaten.Disk]
	uid      goaten.UID
	callback goaten.Action
	name     string
}

func newBase(d *goaten.Disk, name string) base {
	return base{weakDisk: weak.Make(d), uid: goaten.NewUID(), name: name}
}

// up upgrades the weak reactor reference, returning nil if the reactor has
// already been dropped.
func (b *base) up() *goaten.Disk {
	return b.weakDisk.Value()
}

// UID returns the stream body's stable identity.
func (b *base) UID() goaten.UID { return b.uid }

// RegisterCallback stores action and immediately schedules it once via the
// reactor, matching base.rs's register_callback: "immediately executes the
// callback once via disk.execute, then stores it".
func (b *base) RegisterCallback(action goaten.Action) {
	if d := b.up(); d != nil {
		d.Execute(action)
	}
	b.callback = action
}

// UnregisterCallback removes the installed callback.
func (b *base) UnregisterCallback() {
	b.callback = goaten.Action{}
}

// notify re-executes the stored callback, if any, via the reactor. This is
// invoke_callback in base.rs, used by every wrapping stream to propagate a
// wrappee's readiness up the chain.
func (b *base) notify() {
	if b.callback.IsZero() {
		return
	}
	if d := b.up(); d != nil {
		d.Execute(b.callback)
	}
}

// trivialRead implements the zero-length-read shortcut shared by every
// concrete Read: ok is true when buf was empty and (n, err) is the value
// the caller should return without running its own read_nontrivial logic.
func (b *base) trivialRead(buf []byte) (n int, err error, ok bool) {
	if len(buf) != 0 {
		return 0, nil, false
	}
	if d := b.up(); d != nil {
		d.TraceTrivialRead(b.uid, b.name)
	}
	return 0, nil, true
}

// again is the sentinel EAGAIN error every stream returns for "try later".
func again(op string) error { return kind.NewAgain(op) }

// kindIsAgain reports whether err is the Again kind.
func kindIsAgain(err error) bool { return kind.IsAgain(err) }
