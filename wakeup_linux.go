//go:build linux

package goaten

import (
	"golang.org/x/sys/unix"
)

// createWakePipe creates the cross-thread wake-up pipe (spec.md §6: "pipe
// with close-on-exec"). Unlike the teacher's eventfd-based wake mechanism,
// goaten uses a real pipe2(O_CLOEXEC|O_NONBLOCK) pair, matching both
// spec.md's literal OS-primitive table and original_source/src/lib.rs's
// libc::pipe2 usage.
func createWakePipe() (readFd, writeFd int, err error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return -1, -1, err
	}
	return fds[0], fds[1], nil
}

// closeWakePipe closes both ends of the wake-up pipe.
func closeWakePipe(readFd, writeFd int) {
	if readFd >= 0 {
		_ = unix.Close(readFd)
	}
	if writeFd >= 0 && writeFd != readFd {
		_ = unix.Close(writeFd)
	}
}

// drainWakePipe empties the read end; it runs as the wake-up pipe Event's
// action whenever the read end is ready, so a burst of wake_up calls
// coalesces into a single wake.
func drainWakePipe(readFd int) {
	var buf [64]byte
	for {
		_, err := unix.Read(readFd, buf[:])
		if err != nil {
			return
		}
	}
}

// writeWakeByte writes a single byte to the wake pipe's write end. A short
// write (EAGAIN, the pipe buffer already holding an unconsumed byte) is
// ignored: the reader is already guaranteed to wake up.
func writeWakeByte(writeFd int) {
	var b [1]byte
	_, _ = unix.Write(writeFd, b[:])
}
