package stream

import (
	"errors"
	"weak"

	"github.com/pacujo/goaten"
	"github.com/pacujo/goaten/kind"
)

// Pacer shapes reads from a wrappee through a token-bucket of bytes,
// grounded on original_source/src/stream/pacer.rs.
type Pacer struct {
	base
	wrappee  ByteStream
	byterate float64
	quota    float64
	minBurst float64
	maxBurst float64
	prevTime goaten.Instant
	self     weak.Pointer[Pacer]
}

// NewPacer constructs a Pacer shaping reads from wrappee to byterate
// bytes/second, crediting up to maxBurst bytes and withholding reads until
// at least minBurst bytes of quota have accrued. Rejects a non-positive
// byterate or a malformed burst range (min_burst < 1 or max_burst <
// min_burst).
func NewPacer(d *goaten.Disk, wrappee ByteStream, byterate float64, minBurst, maxBurst int) (*Pacer, error) {
	if byterate <= 0 || minBurst < 1 || maxBurst < minBurst {
		return nil, kind.NewInvalid("pacer.new", errors.New("non-positive byterate or malformed burst range"))
	}
	s := &Pacer{
		base:     newBase(d, "pacer"),
		wrappee:  wrappee,
		byterate: byterate,
		minBurst: float64(minBurst),
		maxBurst: float64(maxBurst),
		prevTime: d.Now(),
	}
	s.self = weak.Make(s)
	wrappee.RegisterCallback(goaten.NewAction(func() { s.notify() }))
	return s, nil
}

func (s *Pacer) Read(buf []byte) (int, error) {
	if n, err, ok := s.trivialRead(buf); ok {
		return n, err
	}
	d := s.up()
	if d == nil {
		return 0, kind.NewBadDescriptor("pacer.read")
	}

	now := d.Now()
	s.quota += float64(now.Sub(s.prevTime)) / float64(goaten.Second) * s.byterate
	if s.quota > s.maxBurst {
		s.quota = s.maxBurst
	}
	s.prevTime = now

	if s.quota < s.minBurst {
		delay := (s.minBurst - s.quota) / s.byterate
		self := s.self
		d.Schedule(now.Add(goaten.Duration(delay*float64(goaten.Second))), goaten.NewAction(func() {
			if p := self.Value(); p != nil {
				p.notify()
			}
		}))
		return 0, again("pacer.read")
	}

	count := len(buf)
	if int(s.quota) < count {
		count = int(s.quota)
	}
	n, err := s.wrappee.Read(buf[:count])
	if err != nil {
		return 0, err
	}
	s.quota -= float64(n)
	return n, nil
}
