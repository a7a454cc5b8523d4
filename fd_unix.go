//go:build linux || darwin

package goaten

import (
	"golang.org/x/sys/unix"
)

// closeFD closes a file descriptor on Unix systems.
func closeFD(fd int) error {
	return unix.Close(fd)
}

// readFD reads from a file descriptor on Unix systems.
func readFD(fd int, buf []byte) (int, error) {
	return unix.Read(fd, buf)
}

// writeFD writes to a file descriptor on Unix systems.
func writeFD(fd int, buf []byte) (int, error) {
	return unix.Write(fd, buf)
}

// setNonblock marks fd nonblocking, a precondition Disk.register and every
// stream constructed directly over an fd rely on.
func setNonblock(fd int) error {
	return unix.SetNonblock(fd, true)
}

// makeSocketPair creates a connected, nonblocking Unix-domain socket pair
// (spec.md §6: "socketpair"). It has no caller in this module.
func makeSocketPair() (a, b int, err error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, -1, err
	}
	if err := unix.SetNonblock(fds[0], true); err != nil {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
		return -1, -1, err
	}
	if err := unix.SetNonblock(fds[1], true); err != nil {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
		return -1, -1, err
	}
	return fds[0], fds[1], nil
}

// makePipe creates a close-on-exec pipe (spec.md §6). The resolver uses the
// exported NewPipe instead; makePipe has no caller in this module.
func makePipe() (readFd, writeFd int, err error) {
	return createWakePipe()
}

// NewPipe creates a nonblocking, close-on-exec pipe (spec.md §6: "pipe
// with close-on-exec"). Exported for goaten/conn's Resolver, which needs
// the same OS primitive the reactor's own wake-up pipe uses.
func NewPipe() (readFd, writeFd int, err error) {
	return createWakePipe()
}
