package goaten

import "weak"

// EventState is the state of an Event's one-shot delivery latch.
type EventState int

const (
	EventIdle EventState = iota
	EventTriggered
	EventCanceled
)

func (s EventState) String() string {
	switch s {
	case EventIdle:
		return "idle"
	case EventTriggered:
		return "triggered"
	case EventCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Event is the glue between an fd-readiness edge and the reactor's immediate
// queue: it converts any number of readiness edges between dispatches into
// at most one invocation of its action. Trigger, Cancel and perf implement
// the state machine over EventState (spec.md §4.2).
type Event struct {
	uid      UID
	weakDisk weak.Pointer[Disk]
	action   Action
	state    EventState
	self     weak.Pointer[Event]
}

func newEvent(d *Disk, action Action) *Event {
	e := &Event{
		uid:      NewUID(),
		weakDisk: weak.Make(d),
		action:   action,
		state:    EventIdle,
	}
	e.self = weak.Make(e)
	return e
}

// UID returns the Event's stable identity.
func (e *Event) UID() UID { return e.uid }

// State returns the Event's current latch state.
func (e *Event) State() EventState { return e.state }

// Trigger records a readiness edge. Multiple edges between dispatches
// coalesce into a single scheduled delivery.
func (e *Event) Trigger() {
	switch e.state {
	case EventIdle:
		e.transition(EventTriggered)
		// If the Disk is already gone there is nowhere to log a weak-upgrade
		// miss to (its Logger goes with it) and nothing left to deliver to.
		if d := e.weakDisk.Value(); d != nil {
			self := e.self
			d.executeInternal(NewAction(func() {
				if ev := self.Value(); ev != nil {
					ev.perf()
				}
			}))
		}
	case EventCanceled:
		// re-arm without re-enqueuing a second delivery: perf() is already
		// queued (or about to run) from the original Trigger that moved this
		// Event to Canceled via an intervening Cancel.
		e.transition(EventTriggered)
	case EventTriggered:
		// edge coalesced: a delivery is already queued.
	}
}

// Cancel marks any queued delivery as dead. A subsequent Trigger re-arms the
// Event without enqueuing a second delivery.
func (e *Event) Cancel() {
	switch e.state {
	case EventTriggered:
		e.transition(EventCanceled)
	case EventIdle, EventCanceled:
		// idempotent / no-op
	}
}

// perf runs once per enqueued delivery, invoking the action only if the
// Event is still Triggered (i.e. not canceled in the meantime).
func (e *Event) perf() {
	switch e.state {
	case EventTriggered:
		e.transition(EventIdle)
		e.action.Invoke()
	case EventCanceled:
		e.transition(EventIdle)
	case EventIdle:
		// spurious; nothing queued should reach this state.
	}
}

func (e *Event) transition(to EventState) {
	e.state = to
}

// Downgrade returns a weak reference suitable for stashing inside a
// wrappee's callback closure without creating an ownership cycle.
func (e *Event) Downgrade() weak.Pointer[Event] {
	return e.self
}
