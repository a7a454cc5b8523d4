package conn

import (
	"errors"
	"net"
	"weak"

	"golang.org/x/sys/unix"

	"github.com/pacujo/goaten"
	"github.com/pacujo/goaten/kind"
)

// ConnectState is the asynchronous-connect progress state machine shared
// by TCP and Unix connects (spec.md §4.7): InProgress → Triggered |
// Established → Done.
type ConnectState int

const (
	ConnectInProgress ConnectState = iota
	ConnectTriggered
	ConnectEstablished
	ConnectDone
)

// Progress tracks a nonblocking connect(2) in flight, surfacing a
// ByteStreamPair once it resolves. Grounded on
// original_source/src/misc/tcp_connect.rs and
// original_source/src/misc/unix_connect.rs, which are structurally
// identical except for socket family/address construction; this type
// generalizes both, as the teacher's own code generalizes parallel
// platform-specific files under one shared shape.
type Progress struct {
	base
	socket       int
	state        ConnectState
	registration *goaten.Registration
	callback     goaten.Action
}

// NewTCPProgress starts a nonblocking TCP connect to address, invoking
// action once the outcome (success or failure) is ready to be taken via
// Take.
func NewTCPProgress(d *goaten.Disk, address *net.TCPAddr, action goaten.Action) (*Progress, error) {
	family := unix.AF_INET
	if address.IP.To4() == nil {
		family = unix.AF_INET6
	}
	fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, err
	}
	if err := setupSocket(fd); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	sa, err := tcpSockaddr(address)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	return newProgress(d, fd, sa, action)
}

// NewUnixProgress starts a nonblocking Unix-domain connect to path.
func NewUnixProgress(d *goaten.Disk, path string, action goaten.Action) (*Progress, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, err
	}
	if err := setupSocket(fd); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	return newProgress(d, fd, &unix.SockaddrUnix{Name: path}, action)
}

func setupSocket(fd int) error {
	return unix.SetNonblock(fd, true)
}

func tcpSockaddr(address *net.TCPAddr) (unix.Sockaddr, error) {
	if ip4 := address.IP.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: address.Port}
		copy(sa.Addr[:], ip4)
		return sa, nil
	}
	ip6 := address.IP.To16()
	if ip6 == nil {
		return nil, errors.New("conn: invalid TCP address")
	}
	sa := &unix.SockaddrInet6{Port: address.Port}
	copy(sa.Addr[:], ip6)
	return sa, nil
}

func newProgress(d *goaten.Disk, fd int, sa unix.Sockaddr, action goaten.Action) (*Progress, error) {
	err := unix.Connect(fd, sa)
	if err == nil {
		return newEstablishedProgress(d, fd, action), nil
	}
	if !errors.Is(err, unix.EINPROGRESS) {
		_ = unix.Close(fd)
		return nil, err
	}
	return newInProgressProgress(d, fd, action)
}

func newEstablishedProgress(d *goaten.Disk, fd int, action goaten.Action) *Progress {
	p := &Progress{base: newBase(d, "connect"), socket: fd, state: ConnectEstablished}
	d.Execute(action)
	return p
}

func newInProgressProgress(d *goaten.Disk, fd int, action goaten.Action) (*Progress, error) {
	p := &Progress{base: newBase(d, "connect"), socket: fd, state: ConnectInProgress, callback: action}
	weakP := weak.Make(p)
	reg, err := d.Register(fd, goaten.NewAction(func() {
		if pp := weakP.Value(); pp != nil {
			pp.trigger()
		}
	}))
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	p.registration = &reg
	return p, nil
}

func (p *Progress) trigger() {
	if p.state != ConnectInProgress {
		return
	}
	p.state = ConnectTriggered
	if p.registration != nil {
		_ = p.registration.Close()
		p.registration = nil
	}
	if d := p.up(); d != nil {
		d.Execute(p.callback)
	}
}

// Take consumes the connect outcome, building a Duplex-backed
// ByteStreamPair on success. Taking twice surfaces a bad-descriptor kind.
func (p *Progress) Take() (ByteStreamPair, error) {
	switch p.state {
	case ConnectInProgress:
		return nil, kind.NewAgain("connect.take")
	case ConnectTriggered:
		p.state = ConnectDone
		if err := p.socketError(); err != nil {
			_ = unix.Close(p.socket)
			return nil, err
		}
		return p.takeSocket()
	case ConnectEstablished:
		p.state = ConnectDone
		return p.takeSocket()
	default: // ConnectDone
		return nil, kind.NewBadDescriptor("connect.take")
	}
}

func (p *Progress) socketError() error {
	errno, err := unix.GetsockoptInt(p.socket, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if errno != 0 {
		return unix.Errno(errno)
	}
	return nil
}

func (p *Progress) takeSocket() (ByteStreamPair, error) {
	d := p.up()
	if d == nil {
		return nil, kind.NewBadDescriptor("connect.take")
	}
	fd := p.socket
	dup, err := NewDuplex(d, fd)
	if err != nil {
		return nil, err
	}
	return dup, nil
}
