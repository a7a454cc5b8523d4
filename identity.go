package goaten

import (
	"sync/atomic"
	"time"
)

// Instant is a monotonic instant expressed as nanoseconds since an arbitrary
// epoch. Only differences between Instants (Duration) are meaningful.
type Instant int64

// Duration is a signed span of nanoseconds between two Instants.
type Duration int64

const (
	Nanosecond  Duration = 1
	Microsecond          = 1000 * Nanosecond
	Millisecond          = 1000 * Microsecond
	Second               = 1000 * Millisecond
)

// Now reads the monotonic clock and returns it as an Instant. Disk.Now
// caches this value in Disk.recent; callers wanting the reactor's cached
// "current tick" time should use Disk.Now instead.
func Now() Instant {
	return Instant(monotonicNow())
}

var processStart = time.Now()

func monotonicNow() int64 {
	return int64(time.Since(processStart))
}

// Add returns i+d, detecting overflow by comparing signs the way the
// original Rust implementation's checked-add does: it panics if the result's
// sign doesn't match what an infinite-precision addition would produce.
func (i Instant) Add(d Duration) Instant {
	r := i + Instant(d)
	if d > 0 && r < i {
		panic("goaten: Instant overflow")
	}
	if d < 0 && r > i {
		panic("goaten: Instant underflow")
	}
	return r
}

// Sub returns the Duration between two Instants (a - b).
func (a Instant) Sub(b Instant) Duration {
	return Duration(a - b)
}

// Before reports whether a occurs strictly before b.
func (a Instant) Before(b Instant) bool { return a < b }

// Milliseconds rounds a Duration up to whole milliseconds, as required when
// handing a timeout to the readiness poller (spec: "Duration may be rounded
// up to whole milliseconds when supplied to the poller").
func (d Duration) Milliseconds() int64 {
	ms := int64(d) / int64(Millisecond)
	if int64(d)%int64(Millisecond) != 0 {
		ms++
	}
	return ms
}

// UID is a process-unique opaque identifier for reactor-managed entities
// (Action, Timer, Event, stream, progress, Linger, Resolver). Identity
// never changes across the entity's lifetime.
//
// The original Rust source this was distilled from stubs UID::new() as a
// literal UID(0) placeholder (a visible TODO in original_source/src/lib.rs);
// goaten resolves that into a real process-wide atomic counter, since the
// specification requires uniqueness.
type UID uint64

var uidCounter atomic.Uint64

// NewUID allocates a fresh, process-unique UID. The zero value of UID is
// never returned by NewUID, so it is safe to use UID(0) as a "no identity"
// sentinel where one is needed.
func NewUID() UID {
	return UID(uidCounter.Add(1))
}

func (u UID) String() string {
	return "uid#" + itoa(uint64(u))
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
