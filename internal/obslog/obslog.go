// Package obslog wires the reactor's trace/diagnostic logging onto logiface,
// using stumpy as the JSON backend. It exists so the reactor core and the
// stream framework have one place to call into structured logging without
// depending on logiface's generic Event type directly.
package obslog

import (
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logger used throughout goaten. The zero value is
// not usable; construct one with New or use Default.
type Logger struct {
	l *logiface.Logger[*stumpy.Event]
}

// New builds a Logger writing JSON lines to w at the given minimum level.
func New(w *os.File, level logiface.Level) *Logger {
	return &Logger{l: stumpy.L.New(
		stumpy.L.WithLevel(level),
		stumpy.L.WithStumpy(),
		stumpy.L.WithWriter(logiface.WriterFunc[*stumpy.Event](func(e *stumpy.Event) error {
			_, err := w.Write(append(append([]byte(nil), e.Bytes()...), '\n'))
			return err
		})),
	)}
}

// Default is a disabled-by-default logger (LevelDisabled): constructing it
// costs nothing and every call site can unconditionally log through it until
// a caller supplies a real Logger via a DiskOption.
func Default() *Logger {
	return &Logger{l: stumpy.L.New(stumpy.L.WithLevel(logiface.LevelDisabled), stumpy.L.WithStumpy())}
}

// TrivialRead traces the zero-length "trivial read" shortcut every ByteStream
// implementation must take, per the byte-stream contract.
func (o *Logger) TrivialRead(uid uint64, stream string) {
	o.l.Trace().Uint64(`uid`, uid).Str(`stream`, stream).Log(`trivial read`)
}

// EventTransition traces an Event's state-machine edges.
func (o *Logger) EventTransition(uid uint64, from, to string) {
	o.l.Trace().Uint64(`uid`, uid).Str(`from`, from).Str(`to`, to).Log(`event transition`)
}

// TimerTombstone traces a canceled-but-still-queued Pending timer being
// skipped on pop.
func (o *Logger) TimerTombstone(uid uint64) {
	o.l.Debug().Uint64(`uid`, uid).Log(`timer tombstone skipped`)
}

// PollError logs a non-fatal error returned by the readiness poller.
func (o *Logger) PollError(err error) {
	o.l.Err().Err(err).Log(`poll error`)
}

// UnknownFD logs a readiness event for an fd with no registered Event.
func (o *Logger) UnknownFD(fd int) {
	o.l.Warning().Int64(`fd`, int64(fd)).Log(`readiness for unregistered fd`)
}

// UppedMiss logs a weak-upgrade failure: the strong owner is already gone.
func (o *Logger) UppedMiss(what string, uid uint64) {
	o.l.Debug().Str(`what`, what).Uint64(`uid`, uid).Log(`weak upgrade miss`)
}
