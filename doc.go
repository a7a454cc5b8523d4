// Package goaten provides a single-threaded, cooperative event-loop reactor
// (Disk) plus a composable pull-based byte-stream framework layered on top
// of it, ported from the aten family of runtimes (pacujo/aten).
//
// # Architecture
//
// The reactor ([Disk]) multiplexes readiness events (epoll on Linux, kqueue
// on Darwin) and timers, dispatching user-supplied [Action] values
// cooperatively on a single goroutine. [Event] is the latch tying an fd
// readiness edge to at most one queued action invocation; [Registration] is
// the scoped handle that unregisters an fd when closed.
//
// Package goaten/stream builds lazy, callback-driven byte pipelines (queue,
// sub, switch, pacer, nice, avid, reservoir, naive encoder/decoder, file,
// and others) over the reactor's pull-based ByteStream contract. Package
// goaten/conn bridges blocking connect/resolve primitives (TCP, Unix,
// name resolution) into the reactor via nonblocking sockets and a
// worker-thread-plus-pipe pattern, and implements Linger (egress draining
// with back-pressure) and Duplex (bidirectional stream pairs over one fd).
//
// # Platform Support
//
// Readiness polling is epoll (Linux) or kqueue (Darwin); there is no
// Windows backend, since IOCP's completion-port model has no fd-readiness
// notion to multiplex against timers the way [Disk] requires.
//
// # Thread Safety
//
// Everything in this module runs on the reactor's own goroutine except
// three deliberate crossings: [Disk.WakeUp], callable from any goroutine
// once the reactor has been entered via [Disk.ProtectedLoop]; [Disk.Post],
// which queues an action from any goroutine to run on the reactor's own
// (used by the farewell stream's garbage-collection cleanup); and the
// resolver worker's pipe write, which is itself just another readiness
// source from the reactor's perspective. No action is ever preempted mid-invocation;
// "try again later" is always expressed as EAGAIN plus a future callback,
// never as a blocking call or a goroutine yield.
//
// # Usage
//
//	d, err := goaten.NewDisk()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer d.Close()
//
//	d.Execute(goaten.NewAction(func() {
//	    fmt.Println("runs on the next loop iteration")
//	    d.Quit()
//	}))
//
//	if err := d.MainLoop(); err != nil {
//	    log.Fatal(err)
//	}
package goaten
