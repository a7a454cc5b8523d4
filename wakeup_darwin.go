//go:build darwin

package goaten

import (
	"syscall"
)

// createWakePipe creates the cross-thread wake-up pipe on Darwin, where
// pipe2 doesn't exist: a plain pipe with close-on-exec and non-blocking set
// on both ends afterward.
func createWakePipe() (readFd, writeFd int, err error) {
	var fds [2]int
	if err := syscall.Pipe(fds[:]); err != nil {
		return -1, -1, err
	}
	cleanup := func() {
		_ = syscall.Close(fds[0])
		_ = syscall.Close(fds[1])
	}
	syscall.CloseOnExec(fds[0])
	syscall.CloseOnExec(fds[1])
	if err := syscall.SetNonblock(fds[0], true); err != nil {
		cleanup()
		return -1, -1, err
	}
	if err := syscall.SetNonblock(fds[1], true); err != nil {
		cleanup()
		return -1, -1, err
	}
	return fds[0], fds[1], nil
}

func closeWakePipe(readFd, writeFd int) {
	if readFd >= 0 {
		_ = syscall.Close(readFd)
	}
	if writeFd >= 0 && writeFd != readFd {
		_ = syscall.Close(writeFd)
	}
}

func drainWakePipe(readFd int) {
	var buf [64]byte
	for {
		n, err := syscall.Read(readFd, buf[:])
		if err != nil || n <= 0 {
			return
		}
	}
}

func writeWakeByte(writeFd int) {
	var b [1]byte
	_, _ = syscall.Write(writeFd, b[:])
}
