//go:build linux

package goaten

import (
	"errors"
	"sync"

	"golang.org/x/sys/unix"
)

const maxFDs = 65536

// IOEvents is a bitmask of readiness conditions a registration may observe,
// adapted from the teacher's FastPoller to additionally carry an
// edge-triggered flag: spec.md's register (§4.1) wants "level-and-edge
// triggered read|write interest", while register_old_school wants
// level-triggered only.
type IOEvents uint32

const (
	EventRead IOEvents = 1 << iota
	EventWrite
	EventError
	EventHangup
	edgeTriggered
)

var (
	errFDOutOfRange    = errors.New("goaten: fd out of range")
	errFDRegistered    = errors.New("goaten: fd already registered")
	errFDNotRegistered = errors.New("goaten: fd not registered")
	errPollerClosed    = errors.New("goaten: poller closed")
)

type ioCallback func(IOEvents)

type fdInfo struct {
	callback ioCallback
	events   IOEvents
	active   bool
}

// fastPoller manages readiness registration via epoll, adapted from the
// teacher's FastPoller (poller_linux.go): direct-indexed fd table instead of
// a map, a preallocated event buffer, and a version counter so a poll in
// flight discards results made stale by a concurrent registration change.
type fastPoller struct {
	epfd     int
	eventBuf [256]unix.EpollEvent
	fds      [maxFDs]fdInfo
	fdMu     sync.RWMutex
	version  uint64
	closed   bool
}

func (p *fastPoller) Init() error {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return err
	}
	p.epfd = epfd
	return nil
}

func (p *fastPoller) Close() error {
	p.fdMu.Lock()
	p.closed = true
	p.fdMu.Unlock()
	return unix.Close(p.epfd)
}

func (p *fastPoller) RegisterFD(fd int, events IOEvents, cb ioCallback) error {
	if fd < 0 || fd >= maxFDs {
		return errFDOutOfRange
	}
	p.fdMu.Lock()
	if p.closed {
		p.fdMu.Unlock()
		return errPollerClosed
	}
	if p.fds[fd].active {
		p.fdMu.Unlock()
		return errFDRegistered
	}
	p.fds[fd] = fdInfo{callback: cb, events: events, active: true}
	p.version++
	p.fdMu.Unlock()

	ev := &unix.EpollEvent{Events: eventsToEpoll(events), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		p.fdMu.Lock()
		p.fds[fd] = fdInfo{}
		p.fdMu.Unlock()
		return err
	}
	return nil
}

func (p *fastPoller) UnregisterFD(fd int) error {
	if fd < 0 || fd >= maxFDs {
		return errFDOutOfRange
	}
	p.fdMu.Lock()
	if !p.fds[fd].active {
		p.fdMu.Unlock()
		return errFDNotRegistered
	}
	p.fds[fd] = fdInfo{}
	p.version++
	p.fdMu.Unlock()
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *fastPoller) ModifyFD(fd int, events IOEvents) error {
	if fd < 0 || fd >= maxFDs {
		return errFDOutOfRange
	}
	p.fdMu.Lock()
	if !p.fds[fd].active {
		p.fdMu.Unlock()
		return errFDNotRegistered
	}
	p.fds[fd].events = events
	p.version++
	p.fdMu.Unlock()

	ev := &unix.EpollEvent{Events: eventsToEpoll(events), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, ev)
}

// PollIO blocks up to timeoutMs (-1 = infinite) for readiness and
// dispatches the ready events inline: at most budget of them (the caller's
// fdEventBudget), or up to len(eventBuf) (256) when budget <= 0.
func (p *fastPoller) PollIO(timeoutMs, budget int) (int, error) {
	p.fdMu.RLock()
	closed := p.closed
	p.fdMu.RUnlock()
	if closed {
		return 0, errPollerClosed
	}

	v := p.version
	n, err := unix.EpollWait(p.epfd, p.eventBuf[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}

	p.fdMu.RLock()
	stale := p.version != v
	p.fdMu.RUnlock()
	if stale {
		return 0, nil
	}

	// budget<=0 means unbounded; otherwise cap dispatch to the caller's
	// per-iteration fd-event starvation budget (spec.md §4.1/§8: at most 20
	// fd dispatches per loop iteration). A level-triggered fd left
	// undispatched this pass simply reappears on the next PollIO call since
	// it remains ready; an edge-triggered one may miss the edge, which is
	// the same open question spec.md §9 already flags about edge-triggered
	// registration needing self-notifying wrappers at fd boundaries.
	if budget > 0 && n > budget {
		n = budget
	}
	p.dispatchEvents(n)
	return n, nil
}

func (p *fastPoller) dispatchEvents(n int) {
	for i := 0; i < n; i++ {
		fd := int(p.eventBuf[i].Fd)
		if fd < 0 || fd >= maxFDs {
			continue
		}
		p.fdMu.RLock()
		info := p.fds[fd]
		p.fdMu.RUnlock()
		if info.active && info.callback != nil {
			info.callback(epollToEvents(p.eventBuf[i].Events))
		}
	}
}

func eventsToEpoll(events IOEvents) uint32 {
	var e uint32
	if events&EventRead != 0 {
		e |= unix.EPOLLIN
	}
	if events&EventWrite != 0 {
		e |= unix.EPOLLOUT
	}
	if events&edgeTriggered != 0 {
		e |= unix.EPOLLET
	}
	return e
}

func epollToEvents(e uint32) IOEvents {
	var events IOEvents
	if e&unix.EPOLLIN != 0 {
		events |= EventRead
	}
	if e&unix.EPOLLOUT != 0 {
		events |= EventWrite
	}
	if e&unix.EPOLLERR != 0 {
		events |= EventError
	}
	if e&unix.EPOLLHUP != 0 {
		events |= EventHangup
	}
	return events
}
