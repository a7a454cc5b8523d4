package conn

import (
	"weak"

	"github.com/pacujo/goaten"
)

// base is conn's analogue of stream.base: Duplex and TCP/Unix connect
// progress embed the same identity/weak-back-reference/
// callback-latch shape the original source's base::StreamBody supplied to
// duplex.rs alongside the stream package proper. Grounded on
// original_source/src/stream/base.rs.
type base struct {
	weakDisk weak.Pointer[goaten.Disk]
	uid      goaten.UID
	callback goaten.Action
	name     string
}

func newBase(d *goaten.Disk, name string) base {
	return base{weakDisk: weak.Make(d), uid: goaten.NewUID(), name: name}
}

func (b *base) UID() goaten.UID { return b.uid }

func (b *base) up() *goaten.Disk { return b.weakDisk.Value() }

func (b *base) RegisterCallback(action goaten.Action) {
	if d := b.up(); d != nil {
		d.Execute(action)
	}
	b.callback = action
}

func (b *base) UnregisterCallback() { b.callback = goaten.Action{} }

func (b *base) notify() {
	if b.callback.IsZero() {
		return
	}
	if d := b.up(); d != nil {
		d.Execute(b.callback)
	}
}

func (b *base) trivialRead(buf []byte) (n int, err error, ok bool) {
	if len(buf) != 0 {
		return 0, nil, false
	}
	if d := b.up(); d != nil {
		d.TraceTrivialRead(b.uid, b.name)
	}
	return 0, nil, true
}
