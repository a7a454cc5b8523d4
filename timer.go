package goaten

import "weak"

// timerKind is the state of a timerEntry: Pending timers live in the
// immediate FIFO, Scheduled timers live in the min-heap, Canceled is
// terminal and causes the entry to be skipped (tombstoned) whenever it is
// next popped from whichever structure still holds it.
type timerKind int

const (
	timerPending timerKind = iota
	timerScheduled
	timerCanceled
)

// timerEntry is the reactor-owned record behind a Timer handle. An entry
// occupies exactly one of {immediate list, scheduled heap} until it fires
// or is canceled, matching the "nowhere" terminal case by removal from the
// owning structure plus deletion from Disk.timers.
type timerEntry struct {
	uid    UID
	expiry Instant
	action Action
	kind   timerKind
}

// timerKey is the (expiry, UID) ordering key used both by the scheduled
// heap and by the next_step tie-break between the earliest Scheduled timer
// and the front of the immediate FIFO.
type timerKey struct {
	expiry Instant
	uid    UID
}

func (a timerKey) less(b timerKey) bool {
	if a.expiry != b.expiry {
		return a.expiry.Before(b.expiry)
	}
	return a.uid < b.uid
}

// timerHeap orders Scheduled entries by (expiry, UID); cancellation is
// lazy (tombstone the entry, remove it only when it reaches the top and is
// popped or peeked past), the same lazy-deletion-on-cancel shape the
// teacher's own timer heap uses, since it also has no removal-by-key.
type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	return (timerKey{h[i].expiry, h[i].uid}).less(timerKey{h[j].expiry, h[j].uid})
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)   { *h = append(*h, x.(*timerEntry)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return entry
}

// Timer is a lightweight handle to a Pending or Scheduled action, returned
// by Disk.Execute and Disk.Schedule. Cancel is idempotent and safe to call
// after the action has already fired.
type Timer struct {
	uid      UID
	weakDisk weak.Pointer[Disk]
}

// UID returns the Timer's stable identity.
func (t Timer) UID() UID { return t.uid }

// Cancel marks the timer Canceled. A Pending timer remains in the
// immediate FIFO as a tombstone until popped; a Scheduled timer remains in
// the heap until it reaches the top. Canceling an already-fired or
// already-canceled Timer is a no-op.
func (t Timer) Cancel() {
	if d := t.weakDisk.Value(); d != nil {
		d.cancelTimer(t.uid)
	}
}

func (d *Disk) cancelTimer(uid UID) {
	entry, ok := d.timers[uid]
	if !ok {
		return
	}
	entry.kind = timerCanceled
}
