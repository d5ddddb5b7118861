package bus

import (
	"context"
)

type Kind string

const (
    // KindFragment represents one storage node's signature fragment over a
    // certification message, delivered into the internal bus by the caller
    // boundary.
    KindFragment Kind = "fragment"
    // KindCert is emitted when a gather session seals a certificate.
    KindCert Kind = "cert"
)

type Event struct {
	Kind    Kind
	Blob    string
	Epoch   uint64
	Body    any
	TraceID string
}

type Subscriber chan Event

type Bus struct {
	pub chan Event
}

func New(size int) *Bus {
	if size <= 0 { size = 128 }
	return &Bus{pub: make(chan Event, size)}
}

func (b *Bus) Publish(_ context.Context, ev Event) {
	select { case b.pub <- ev: default: /* drop on backpressure */ }
}

func (b *Bus) Subscribe() Subscriber { return b.pub }
