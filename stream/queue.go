package stream

import (
	"container/list"

	"github.com/pacujo/goaten"
)

// Queue holds an ordered sequence of wrappee streams, draining the head
// until it EOFs, then advancing to the next; a pending non-EAGAIN error
// from a head is latched and surfaced once cursor progress in the current
// read reaches zero. Grounded on original_source/src/stream/queue.rs.
type Queue struct {
	base
	items              *list.List // of ByteStream
	terminated         bool
	pendingError       error
	notificationExpected bool
}

// NewQueue constructs an empty Queue.
func NewQueue(d *goaten.Disk) *Queue {
	return &Queue{base: newBase(d, "queue"), items: list.New()}
}

// Enqueue appends wrappee to the tail of the queue. Panics if the queue has
// already been Terminate'd, matching the teacher's debug assertion.
func (s *Queue) Enqueue(wrappee ByteStream) {
	if s.terminated {
		panic("goaten/stream: enqueue on a terminated queue")
	}
	s.items.PushBack(wrappee)
	s.wireHead(wrappee)
	if s.notificationExpected {
		s.notificationExpected = false
		s.notify()
	}
}

// Push inserts wrappee at the front of the queue, to be read before any
// currently queued stream.
func (s *Queue) Push(wrappee ByteStream) {
	if s.terminated {
		panic("goaten/stream: push on a terminated queue")
	}
	s.items.PushFront(wrappee)
	s.wireHead(wrappee)
	if s.notificationExpected {
		s.notificationExpected = false
		s.notify()
	}
}

// Terminate marks the queue terminated: once drained, further reads return
// EOF instead of EAGAIN.
func (s *Queue) Terminate() {
	s.terminated = true
	s.notify()
}

// Write implements a byte-sink over the queue by enqueueing a Blob of a
// copy of p (spec.md §4.4: "Implements a byte-sink by enqueueing blob
// streams").
func (s *Queue) Write(p []byte) (int, error) {
	if d := s.up(); d != nil {
		cp := append([]byte(nil), p...)
		s.Enqueue(NewBlob(d, cp))
	}
	return len(p), nil
}

func (s *Queue) wireHead(wrappee ByteStream) {
	wrappee.RegisterCallback(goaten.NewAction(func() { s.notify() }))
}

func (s *Queue) Read(buf []byte) (int, error) {
	if n, err, ok := s.trivialRead(buf); ok {
		return n, err
	}
	if s.pendingError != nil {
		err := s.pendingError
		s.pendingError = nil
		return 0, err
	}
	cursor := 0
	for {
		front := s.items.Front()
		if front == nil || cursor >= len(buf) {
			break
		}
		head := front.Value.(ByteStream)
		n, err := head.Read(buf[cursor:])
		if err != nil {
			if cursor == 0 {
				if kindIsAgain(err) {
					s.notificationExpected = true
				}
				return 0, err
			}
			if !kindIsAgain(err) {
				s.pendingError = err
			}
			break
		}
		if n == 0 {
			s.items.Remove(front)
			continue
		}
		cursor += n
	}
	if cursor > 0 {
		return cursor, nil
	}
	if s.terminated {
		return 0, nil
	}
	return 0, again("queue.read")
}
