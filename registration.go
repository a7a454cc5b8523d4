package goaten

import "weak"

// Registration is the scoped handle returned by Disk.Register and
// Disk.RegisterOldSchool: it owns the reactor-side mapping from fd to
// Event, and unregisters the fd on Close. A Registration whose Disk has
// already been dropped lapses silently (spec.md §3: "on drop, unregisters
// the fd from the reactor if still alive; otherwise silently lapses").
type Registration struct {
	weakDisk weak.Pointer[Disk]
	fd       int
	closed   bool
}

func newRegistration(d *Disk, fd int) Registration {
	return Registration{weakDisk: weak.Make(d), fd: fd}
}

// Fd returns the registered file descriptor.
func (r *Registration) Fd() int { return r.fd }

// Close unregisters the fd. Idempotent; unregistration failure other than
// "not registered" is fatal (spec.md §4.1: "unregister failure is fatal"),
// since it indicates a broken invariant in the reactor's fd table.
func (r *Registration) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	d := r.weakDisk.Value()
	if d == nil {
		return nil
	}
	return d.unregister(r.fd)
}
