package conn

import (
	"context"
	"net"
	"weak"

	"golang.org/x/sys/unix"

	"github.com/pacujo/goaten"
	"github.com/pacujo/goaten/kind"
	"github.com/pacujo/goaten/stream"
)

// Resolver performs a blocking name-to-address lookup on a worker
// goroutine, reporting completion back through a pipe so the reactor
// learns of it via ordinary fd readiness. Grounded on
// original_source/src/misc/resolver.rs: the worker goroutine owns the
// pipe's write end for its entire lifetime, and closing it (on return) is
// the only completion signal — no separate done-channel.
type Resolver struct {
	uid      goaten.UID
	weakDisk weak.Pointer[goaten.Disk]
	pipe     stream.ByteStream
	results  chan resolveResult
	done     bool
	callback goaten.Action
}

type resolveResult struct {
	addrs []net.IPAddr
	err   error
}

// NewResolver spawns a worker goroutine resolving host, and returns a
// Resolver whose callback (once registered) fires when the completion pipe
// becomes readable. It can also fire once earlier, from the pipe stream's
// initial notification, in which case Poll still reports EAGAIN.
func NewResolver(d *goaten.Disk, host string) (*Resolver, error) {
	readFd, writeFd, err := goaten.NewPipe()
	if err != nil {
		return nil, err
	}
	readStream, err := stream.NewFile(d, readFd, false)
	if err != nil {
		_ = unix.Close(readFd)
		_ = unix.Close(writeFd)
		return nil, err
	}
	r := &Resolver{
		uid:      goaten.NewUID(),
		weakDisk: weak.Make(d),
		pipe:     readStream,
		results:  make(chan resolveResult, 1),
	}
	go r.resolve(host, writeFd)
	readStream.RegisterCallback(goaten.NewAction(func() { r.notify() }))
	return r, nil
}

func (r *Resolver) resolve(host string, writeFd int) {
	defer func() { _ = unix.Close(writeFd) }()
	addrs, err := net.DefaultResolver.LookupIPAddr(context.Background(), host)
	r.results <- resolveResult{addrs: addrs, err: err}
}

func (r *Resolver) notify() {
	if r.callback.IsZero() {
		return
	}
	if d := r.weakDisk.Value(); d != nil {
		d.Execute(r.callback)
	}
}

// UID returns the Resolver's stable identity.
func (r *Resolver) UID() goaten.UID { return r.uid }

// RegisterCallback installs the callback fired when the completion pipe
// becomes readable (see NewResolver for the one possible earlier firing).
func (r *Resolver) RegisterCallback(cb goaten.Action) { r.callback = cb }

// UnregisterCallback cancels any pending completion callback.
func (r *Resolver) UnregisterCallback() { r.callback = goaten.Action{} }

// Poll reads one byte from the completion pipe (expected to observe EOF,
// i.e. the worker goroutine has returned) and yields the resolved
// addresses. Polling before completion yields EAGAIN; polling after
// completion has already been consumed surfaces a bad-descriptor kind.
func (r *Resolver) Poll() ([]net.IPAddr, error) {
	if r.done {
		return nil, kind.NewBadDescriptor("resolver.poll")
	}
	var buf [1]byte
	n, err := r.pipe.Read(buf[:])
	if err != nil {
		return nil, err
	}
	if n != 0 {
		return nil, kind.NewProtocol("resolver.poll")
	}
	r.done = true
	result := <-r.results
	return result.addrs, result.err
}
