package goaten

import "sync/atomic"

// RunState is the Disk's run-state, as observed from outside the reactor's
// own goroutine. It exists for exactly one reason: wake_up (spec.md §4.1)
// must know, from another thread, whether the reactor is currently blocked
// in the readiness poll, since that is the only moment a wake-up write is
// necessary. Everything else about the reactor is only ever touched from
// its own goroutine and needs no atomics at all.
type RunState uint32

const (
	// StateAwake: Disk constructed, MainLoop/ProtectedLoop not yet entered.
	StateAwake RunState = iota
	// StateRunning: inside the loop body, not blocked in the poller.
	StateRunning
	// StateSleeping: blocked inside the readiness poll (only reachable via
	// ProtectedLoop, which installs the wake-up pipe).
	StateSleeping
	// StateTerminating: Quit has been requested; draining in-flight work.
	StateTerminating
	// StateTerminated: terminal; the loop has returned.
	StateTerminated
)

func (s RunState) String() string {
	switch s {
	case StateAwake:
		return "awake"
	case StateRunning:
		return "running"
	case StateSleeping:
		return "sleeping"
	case StateTerminating:
		return "terminating"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// fastState is a lock-free CAS-based state cell, so a wake_up call from
// another goroutine can cheaply test "is the reactor asleep right now"
// without a mutex.
type fastState struct {
	v atomic.Uint32
}

func newFastState() *fastState {
	s := &fastState{}
	s.v.Store(uint32(StateAwake))
	return s
}

func (s *fastState) Load() RunState { return RunState(s.v.Load()) }

func (s *fastState) Store(state RunState) { s.v.Store(uint32(state)) }

// TryTransition CASes from `from` to `to`, returning whether it succeeded.
func (s *fastState) TryTransition(from, to RunState) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}

func (s *fastState) IsTerminal() bool { return s.Load() == StateTerminated }
