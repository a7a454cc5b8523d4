package stream

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/pacujo/goaten"
)

// File reads directly from a raw, already-open file descriptor. When sync
// is false it registers the fd with the reactor so a callback fires on
// readability; pass sync=true for fds the reactor cannot poll (regular
// files, which are always "ready"). Grounded on
// original_source/src/stream/file.rs.
type File struct {
	base
	fd           int
	registration *goaten.Registration
}

// NewFile constructs a File reading from fd. If sync is false, fd is
// registered with the Disk's reactor so reads are driven by readiness
// events rather than by polling.
func NewFile(d *goaten.Disk, fd int, sync bool) (*File, error) {
	s := &File{base: newBase(d, "file"), fd: fd}
	if !sync {
		reg, err := d.RegisterOldSchool(fd, goaten.NewAction(func() { s.notify() }))
		if err != nil {
			return nil, err
		}
		s.registration = &reg
	}
	return s, nil
}

// Close unregisters the fd from the reactor, if it was registered; it does
// not close the fd itself, which the caller owns.
func (s *File) Close() error {
	if s.registration != nil {
		return s.registration.Close()
	}
	return nil
}

func (s *File) Read(buf []byte) (int, error) {
	if n, err, ok := s.trivialRead(buf); ok {
		return n, err
	}
	n, err := unix.Read(s.fd, buf)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) {
			return 0, again("file.read")
		}
		return 0, err
	}
	return n, nil
}
