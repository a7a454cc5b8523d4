// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package goaten

import (
	"container/heap"
	"container/list"
	"errors"
	"sync"
	"time"
	"weak"

	"github.com/pacujo/goaten/internal/obslog"
	"github.com/pacujo/goaten/kind"
)

// Standard errors returned by Disk operations.
var (
	ErrDiskTerminated = errors.New("goaten: disk has terminated")
	ErrReentrantRun   = errors.New("goaten: cannot call MainLoop/ProtectedLoop from within the loop")
)

// Disk is the single-threaded reactor: it owns the timer set, the
// immediate-action queue, the fd-registration table, and the readiness
// poller, and exposes schedule / execute / register / poll / main_loop /
// quit / wake_up (spec.md §4.1).
type Disk struct {
	recent Instant

	immediate *list.List // of *timerEntry, Pending
	scheduled timerHeap  // Scheduled, min-heap by (expiry, uid)
	timers    map[UID]*timerEntry

	registrations map[int]*Event

	poller fastPoller

	state *fastState
	quit  bool

	hasWakePipe             bool
	wakeReadFd, wakeWriteFd int

	immediateBudget int
	fdEventBudget   int

	log  *obslog.Logger
	self weak.Pointer[Disk]

	postMu    sync.Mutex
	postQueue []Action
}

// NewDisk constructs and initializes a Disk's readiness poller. The
// returned Disk is in StateAwake until MainLoop or ProtectedLoop is
// entered.
func NewDisk(opts ...DiskOption) (*Disk, error) {
	cfg, err := resolveDiskOptions(opts)
	if err != nil {
		return nil, err
	}
	d := &Disk{
		immediate:       list.New(),
		timers:          make(map[UID]*timerEntry),
		registrations:   make(map[int]*Event),
		state:           newFastState(),
		immediateBudget: cfg.immediateBudget,
		fdEventBudget:   cfg.fdEventBudget,
		log:             cfg.log,
		wakeReadFd:      -1,
		wakeWriteFd:     -1,
	}
	if err := d.poller.Init(); err != nil {
		return nil, err
	}
	d.self = weak.Make(d)
	d.recent = Now()
	if cfg.wakeupPipe {
		if err := d.installWakePipe(); err != nil {
			_ = d.poller.Close()
			return nil, err
		}
	}
	return d, nil
}

// Close releases the readiness poller and wake-up pipe (if any). It does
// not unregister outstanding fds; callers must close their Registrations
// first.
func (d *Disk) Close() error {
	if d.hasWakePipe {
		closeWakePipe(d.wakeReadFd, d.wakeWriteFd)
		d.hasWakePipe = false
	}
	return d.poller.Close()
}

// Now reads the monotonic clock, caches it in the Disk's recent tick, and
// returns it.
func (d *Disk) Now() Instant {
	d.recent = Now()
	return d.recent
}

// Execute appends a Pending timer at the tail of the immediate FIFO with
// expiry equal to the Disk's current recent instant.
func (d *Disk) Execute(action Action) Timer {
	return d.enqueueImmediate(action)
}

// executeInternal is identical to Execute; it exists as a distinct name so
// its call site (Event.Trigger) documents that
// they are re-entering the reactor from code that is already running on
// its own goroutine, never from an external thread.
func (d *Disk) executeInternal(action Action) Timer {
	return d.enqueueImmediate(action)
}

func (d *Disk) enqueueImmediate(action Action) Timer {
	entry := &timerEntry{uid: NewUID(), expiry: d.recent, action: action, kind: timerPending}
	d.timers[entry.uid] = entry
	d.immediate.PushBack(entry)
	return Timer{uid: entry.uid, weakDisk: d.self}
}

// Schedule inserts a Scheduled timer at expiry, waking the loop if a
// wake-up pipe is installed.
func (d *Disk) Schedule(expiry Instant, action Action) Timer {
	entry := &timerEntry{uid: NewUID(), expiry: expiry, action: action, kind: timerScheduled}
	d.timers[entry.uid] = entry
	heap.Push(&d.scheduled, entry)
	if d.hasWakePipe {
		d.WakeUp()
	}
	return Timer{uid: entry.uid, weakDisk: d.self}
}

// Register sets fd nonblocking, adds it to the poller with
// level-and-edge-triggered read|write interest, and creates an Event whose
// action is the supplied action. Wakes the loop if a wake-up pipe is
// installed.
func (d *Disk) Register(fd int, action Action) (Registration, error) {
	return d.register(fd, action, EventRead|EventWrite|edgeTriggered)
}

// RegisterOldSchool is like Register but read-only and level-triggered;
// pair with ModifyOldSchool to toggle write interest later.
func (d *Disk) RegisterOldSchool(fd int, action Action) (Registration, error) {
	return d.register(fd, action, EventRead)
}

func (d *Disk) register(fd int, action Action, events IOEvents) (Registration, error) {
	if err := setNonblock(fd); err != nil {
		return Registration{}, err
	}
	ev := newEvent(d, action)
	cb := func(IOEvents) { ev.Trigger() }
	if err := d.poller.RegisterFD(fd, events, cb); err != nil {
		return Registration{}, err
	}
	d.registrations[fd] = ev
	if d.hasWakePipe {
		d.WakeUp()
	}
	return newRegistration(d, fd), nil
}

// ModifyOldSchool toggles which interest a register_old_school
// registration observes (e.g. adding EventWrite once outbound data is
// pending).
func (d *Disk) ModifyOldSchool(fd int, wantWrite bool) error {
	events := EventRead
	if wantWrite {
		events |= EventWrite
	}
	return d.poller.ModifyFD(fd, events)
}

// unregister removes fd from the poller and the registration table.
// Failure here is fatal: it means the fd-to-Event table diverged from the
// poller's own notion of what's registered, a broken invariant spec.md
// §4.1 calls out explicitly ("unregister failure is fatal").
func (d *Disk) unregister(fd int) error {
	delete(d.registrations, fd)
	if err := d.poller.UnregisterFD(fd); err != nil && !errors.Is(err, errFDNotRegistered) {
		panic("goaten: unregister failed: " + err.Error())
	}
	return nil
}

// Poll performs one reactor step: runs one ready timer if any is due,
// otherwise polls the fd multiplexer with a zero timeout and dispatches
// whatever is ready (bounded by the fd-event starvation budget), otherwise
// reports the nearest Scheduled expiry, or nil if fully idle.
func (d *Disk) Poll() (*Instant, error) {
	d.Now()
	if entry := d.popDueTimer(); entry != nil {
		entry.action.Invoke()
		return nil, nil
	}
	if _, err := d.poller.PollIO(0, d.fdEventBudget); err != nil {
		return nil, err
	}
	if s := d.peekScheduled(); s != nil {
		expiry := s.expiry
		return &expiry, nil
	}
	return nil, nil
}

// popDueTimer implements next_step's immediate-vs-scheduled decision
// (spec.md §4.1): given the earliest Scheduled timer S and the front of
// the immediate FIFO I, pick the smaller (expiry, uid) key, ties favoring
// Scheduled; only actually pop and run the pick if it is due now.
func (d *Disk) popDueTimer() *timerEntry {
	s := d.peekScheduled()
	i := d.peekImmediate()
	switch {
	case s != nil && i != nil:
		sKey := timerKey{s.expiry, s.uid}
		iKey := timerKey{i.expiry, i.uid}
		if iKey.less(sKey) {
			return d.popImmediate()
		}
		return d.popScheduled()
	case s != nil:
		if d.recent.Before(s.expiry) {
			return nil
		}
		return d.popScheduled()
	case i != nil:
		return d.popImmediate()
	default:
		return nil
	}
}

func (d *Disk) peekScheduled() *timerEntry {
	for d.scheduled.Len() > 0 {
		top := d.scheduled[0]
		if top.kind == timerCanceled {
			heap.Pop(&d.scheduled)
			delete(d.timers, top.uid)
			d.log.TimerTombstone(uint64(top.uid))
			continue
		}
		return top
	}
	return nil
}

func (d *Disk) popScheduled() *timerEntry {
	entry := d.peekScheduled()
	if entry == nil {
		return nil
	}
	heap.Pop(&d.scheduled)
	delete(d.timers, entry.uid)
	return entry
}

func (d *Disk) peekImmediate() *timerEntry {
	for e := d.immediate.Front(); e != nil; e = d.immediate.Front() {
		entry := e.Value.(*timerEntry)
		if entry.kind == timerCanceled {
			d.immediate.Remove(e)
			delete(d.timers, entry.uid)
			d.log.TimerTombstone(uint64(entry.uid))
			continue
		}
		return entry
	}
	return nil
}

func (d *Disk) popImmediate() *timerEntry {
	entry := d.peekImmediate()
	if entry == nil {
		return nil
	}
	d.immediate.Remove(d.immediate.Front())
	delete(d.timers, entry.uid)
	return entry
}

// TraceTrivialRead lets goaten/stream bodies trace a zero-length read
// shortcut (spec.md §4.3/§8) distinctly from a data-returning read, without
// exposing the Disk's internal logger field.
func (d *Disk) TraceTrivialRead(uid UID, stream string) {
	d.log.TrivialRead(uint64(uid), stream)
}

// Quit sets the quit flag and wakes the loop.
func (d *Disk) Quit() {
	d.quit = true
	if d.hasWakePipe {
		d.WakeUp()
	}
}

// WakeUp writes a single byte to the internal wake-up pipe if the loop is
// currently blocked in the readiness poll (StateSleeping); otherwise it
// writes nothing. Safe to call from any goroutine once the Disk has been
// entered via ProtectedLoop; a short write with EAGAIN is ignored, since a
// pipe that is already full already guarantees the reader wakes up.
func (d *Disk) WakeUp() {
	if !d.hasWakePipe {
		return
	}
	if d.state.Load() == StateSleeping {
		writeWakeByte(d.wakeWriteFd)
	}
}

// Post appends action to a goroutine-safe queue and wakes the loop. Unlike
// Execute, Post may be called from any goroutine; it is the one sanctioned
// way for something other than the reactor itself (such as a
// garbage-collector cleanup) to get an action onto the reactor's
// immediate queue. The action still only ever runs on the reactor
// goroutine, once drained at the top of the next loop iteration.
func (d *Disk) Post(action Action) {
	d.postMu.Lock()
	d.postQueue = append(d.postQueue, action)
	d.postMu.Unlock()
	d.WakeUp()
}

func (d *Disk) drainPosted() {
	d.postMu.Lock()
	posted := d.postQueue
	d.postQueue = nil
	d.postMu.Unlock()
	for _, action := range posted {
		d.enqueueImmediate(action)
	}
}

func (d *Disk) installWakePipe() error {
	if d.hasWakePipe {
		return nil
	}
	readFd, writeFd, err := createWakePipe()
	if err != nil {
		return err
	}
	wake := newEvent(d, NewAction(func() { drainWakePipe(readFd) }))
	cb := func(IOEvents) { wake.Trigger() }
	if err := d.poller.RegisterFD(readFd, EventRead, cb); err != nil {
		closeWakePipe(readFd, writeFd)
		return err
	}
	d.registrations[readFd] = wake
	d.wakeReadFd, d.wakeWriteFd = readFd, writeFd
	d.hasWakePipe = true
	return nil
}

// MainLoop runs the loop body until Quit is called.
func (d *Disk) MainLoop() error {
	return d.ProtectedLoop(func() {}, func() {})
}

// ProtectedLoop is like MainLoop, but invokes unlock immediately before
// each blocking poll and lock immediately after, and installs the
// wake-up pipe (if not already installed) so WakeUp from another
// goroutine interrupts the wait.
func (d *Disk) ProtectedLoop(lock, unlock func()) error {
	switch d.state.Load() {
	case StateTerminated:
		return ErrDiskTerminated
	case StateAwake:
		// first (and only permitted) entry
	default:
		return ErrReentrantRun
	}
	if !d.hasWakePipe {
		if err := d.installWakePipe(); err != nil {
			return err
		}
	}
	d.state.Store(StateRunning)
	defer d.state.Store(StateTerminated)

	for {
		d.drainPosted()
		d.runImmediatePhase()
		if d.quit {
			return nil
		}

		timeoutMs := d.computeTimeoutMs()

		unlock()
		d.state.Store(StateSleeping)
		d.postMu.Lock()
		if len(d.postQueue) > 0 {
			timeoutMs = 0
		}
		d.postMu.Unlock()
		_, err := d.poller.PollIO(timeoutMs, d.fdEventBudget)
		d.state.Store(StateRunning)
		lock()
		if err != nil {
			d.log.PollError(err)
			return err
		}

		if d.quit {
			return nil
		}
	}
}

// runImmediatePhase drains Pending/due-Scheduled actions up to the
// starvation bound, via the same next_step pick popDueTimer uses for Poll
// (spec.md §4.1 step 1): each iteration pops whichever of {front-of-FIFO,
// earliest-due-Scheduled} wins the tie-break, and stops once neither is
// ready to run — whether because both queues are empty or because the
// only thing left is a Scheduled timer that isn't due yet. Without this,
// a Scheduled-only workload (e.g. stream.Pacer's retry timer) would never
// run under MainLoop/ProtectedLoop: popImmediate alone ignores Scheduled
// entirely, and a due Scheduled timer that wins the tie-break against a
// pending immediate would stall both forever.
func (d *Disk) runImmediatePhase() {
	for count := 0; count < d.immediateBudget; count++ {
		entry := d.popDueTimer()
		if entry == nil {
			return
		}
		entry.action.Invoke()
		d.Now()
	}
}

func (d *Disk) computeTimeoutMs() int {
	if d.peekImmediate() != nil {
		return 0
	}
	s := d.peekScheduled()
	if s == nil {
		return -1
	}
	d.Now()
	if !d.recent.Before(s.expiry) {
		return 0
	}
	ms := s.expiry.Sub(d.recent).Milliseconds()
	if ms < 0 {
		ms = 0
	}
	if ms > 0x7fffffff {
		ms = 0x7fffffff
	}
	return int(ms)
}

// Flush runs Poll in a sleep-loop until the reactor goes idle
// (InfiniteWait, i.e. Poll returns (nil, nil) with no pending Scheduled
// expiry either) or deadline elapses, in which case it reports a
// time-exceeded kind. When only a future Scheduled timer is pending, it
// sleeps until that timer's expiry or the deadline, whichever comes first.
func (d *Disk) Flush(deadline Instant) error {
	for {
		next, err := d.Poll()
		if err != nil {
			return err
		}
		if next == nil && d.peekImmediate() == nil && d.peekScheduled() == nil {
			return nil
		}
		d.Now()
		if !d.recent.Before(deadline) {
			return kind.NewTimeExceeded("disk.flush")
		}
		if next != nil && d.peekImmediate() == nil {
			wake := *next
			if deadline.Before(wake) {
				wake = deadline
			}
			if d.recent.Before(wake) {
				time.Sleep(time.Duration(wake.Sub(d.recent)))
			}
		}
	}
}
