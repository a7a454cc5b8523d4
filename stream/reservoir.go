package stream

import (
	"github.com/pacujo/goaten"
	"github.com/pacujo/goaten/kind"
)

// Reservoir fully drains a wrappee into an in-memory Queue of Blob chunks
// on first reads; once the wrappee EOFs within capacity, it serves from
// memory. Exceeding capacity surfaces a no-space kind. Grounded on
// original_source/src/stream/reservoir.rs.
type Reservoir struct {
	base
	wrappee    ByteStream
	capacity   int
	amount     int
	eofReached bool
	storage    *Queue
}

// NewReservoir constructs a Reservoir draining wrappee, up to capacity
// bytes, into memory.
func NewReservoir(d *goaten.Disk, wrappee ByteStream, capacity int) *Reservoir {
	s := &Reservoir{base: newBase(d, "reservoir"), wrappee: wrappee, capacity: capacity, storage: NewQueue(d)}
	wrappee.RegisterCallback(goaten.NewAction(func() { s.notify() }))
	return s
}

// Amount returns the number of bytes drained from the wrappee so far.
func (s *Reservoir) Amount() int { return s.amount }

func (s *Reservoir) Read(buf []byte) (int, error) {
	if n, err, ok := s.trivialRead(buf); ok {
		return n, err
	}
	if s.eofReached {
		return s.storage.Read(buf)
	}
	for {
		if s.amount > s.capacity {
			return 0, kind.NewNoSpace("reservoir.read")
		}
		var chunk [2000]byte
		n, err := s.wrappee.Read(chunk[:])
		if err != nil {
			return 0, err
		}
		if n == 0 {
			s.storage.Terminate()
			s.eofReached = true
			return s.storage.Read(buf)
		}
		s.amount += n
		d := s.up()
		if d == nil {
			return 0, kind.NewBadDescriptor("reservoir.read")
		}
		cp := append([]byte(nil), chunk[:n]...)
		s.storage.Enqueue(NewBlob(d, cp))
	}
}
