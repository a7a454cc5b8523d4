package conn

import (
	"weak"

	"github.com/pacujo/goaten"
	"github.com/pacujo/goaten/stream"
)

// ByteStreamPair is the abstract handle spec.md §4.6 describes: a pair of
// independently shutdownable directions sharing one underlying transport.
type ByteStreamPair interface {
	GetIngress() stream.ByteStream
	SetEgress(egress stream.ByteStream)
}

// Duplex wraps one fd as a switch-wrapped ingress file stream (so ingress
// can be shut down to empty without affecting egress) plus an egress
// Linger fed by a switchable egress stream. The fd is registered exactly
// once; its readiness action pokes both directions. Grounded on
// original_source/src/misc/duplex.rs, with ingress wrapped in a switch
// per spec.md §4.6 (the Rust snapshot stored ingress unwrapped; spec.md is
// authoritative here — see SPEC_FULL.md §5).
type Duplex struct {
	base
	ingress      *stream.Switch
	egress       *Linger
	egressSwitch *stream.Switch
	registration *goaten.Registration
}

// NewDuplex constructs a Duplex over fd.
func NewDuplex(d *goaten.Disk, fd int) (*Duplex, error) {
	ingressFile, err := stream.NewFile(d, fd, true)
	if err != nil {
		return nil, err
	}
	ingress := stream.NewSwitch(d, ingressFile)
	egressSwitch := stream.NewSwitch(d, stream.NewDry(d))
	egress := newLingerUnregistered(d, egressSwitch, fd)

	dup := &Duplex{base: newBase(d, "duplex"), ingress: ingress, egress: egress, egressSwitch: egressSwitch}
	weakDup := weak.Make(dup)
	reg, err := d.Register(fd, goaten.NewAction(func() {
		if dd := weakDup.Value(); dd != nil {
			dd.notify()
		}
	}))
	if err != nil {
		return nil, err
	}
	dup.registration = &reg
	d.Execute(goaten.NewAction(func() { egress.jockey() }))
	return dup, nil
}

func (dup *Duplex) notify() {
	dup.base.notify()
	dup.egress.prod()
}

func (dup *Duplex) Read(buf []byte) (int, error) {
	if n, err, ok := dup.trivialRead(buf); ok {
		return n, err
	}
	return dup.ingress.Read(buf)
}

// GetIngress returns dup itself as a ByteStream: reads delegate to the
// ingress switch, and callback registration/notification is driven by the
// duplex's own fd registration, exactly as for the wrappee-less
// original_source/src/misc/duplex.rs DuplexBody.
func (dup *Duplex) GetIngress() stream.ByteStream { return dup }

// SetEgress swaps in a new egress-bound stream, rewiring its callback.
func (dup *Duplex) SetEgress(egress stream.ByteStream) {
	dup.egressSwitch.Switch(egress)
}

// ShutdownIngress swaps the ingress switch to an empty stream, signalling
// EOF to readers without touching egress.
func (dup *Duplex) ShutdownIngress(d *goaten.Disk) {
	dup.ingress.Switch(stream.NewEmpty(d))
}

// ShutdownEgress aborts the egress Linger, discarding any undrained data.
func (dup *Duplex) ShutdownEgress() {
	dup.egress.Abort()
}

// Close unregisters the shared fd. It does not close the fd itself, which
// the caller owns; pair with ShutdownEgress first if undrained egress data
// should be discarded rather than attempted.
func (dup *Duplex) Close() error {
	if dup.registration != nil {
		return dup.registration.Close()
	}
	return nil
}
