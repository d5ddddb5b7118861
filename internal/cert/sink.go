package cert

import (
	"context"

	"github.com/quorumsig/blobcert/pkg/bus"
)

// Sink receives sealed certificates. Implementations must return quickly;
// errors should be internalized.
type Sink interface {
	Publish(Certificate)
}

// noopSink is the default sink: no-op.
type noopSink struct{}

func (noopSink) Publish(Certificate) {}

// BusSink forwards sealed certificates as cert events on a bus, for callers
// that consume certificates the same way fragments arrive.
type BusSink struct {
	ctx context.Context
	b   *bus.Bus
}

func NewBusSink(ctx context.Context, b *bus.Bus) *BusSink { return &BusSink{ctx: ctx, b: b} }

func (s *BusSink) Publish(c Certificate) {
	s.b.Publish(s.ctx, bus.Event{Kind: bus.KindCert, Body: c})
}
