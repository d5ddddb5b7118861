package cert

import (
    "context"
    "time"

    "github.com/quorumsig/blobcert/pkg/bus"
    "github.com/quorumsig/blobcert/pkg/lifecycle"
    "github.com/quorumsig/blobcert/pkg/logger"
    "github.com/quorumsig/blobcert/pkg/metrics"
    "github.com/quorumsig/blobcert/pkg/trace"
)

// Service feeds fragment events from the bus into a gather session and hands
// the sealed certificate to a sink. The bus is the only way fragments reach
// this package; the caller boundary marshals raw byte buffers into bus.Event
// bodies outside this repo.
type Service struct {
    sub  bus.Subscriber
    mgr  *Manager
    sink Sink
}

func NewWithSub(sub bus.Subscriber, mgr *Manager) *Service {
    return &Service{sub: sub, mgr: mgr, sink: noopSink{}}
}

func (s *Service) Name() string { return "cert" }

// SetSink allows tests/wiring to inject a certificate sink. Defaults to no-op.
func (s *Service) SetSink(sink Sink) {
    if sink != nil { s.sink = sink }
}

func (s *Service) Start(ctx context.Context) error {
    begin := time.Now()
    s.mgr.Start(ctx)
    go func() {
        for {
            select {
            case ev := <-s.sub:
                if ev.Kind != bus.KindFragment {
                    continue
                }
                metrics.Inc("cert_events_total", map[string]string{"kind": string(ev.Kind)})
                tid := ev.TraceID
                if tid == "" {
                    if ctxID, ok := trace.FromContext(ctx); ok { tid = ctxID } else { tid = trace.New() }
                }
                frag, ok := ev.Body.(Fragment)
                if !ok {
                    metrics.Inc("cert_fragments_total", map[string]string{"result": "malformed_event"})
                    logger.ErrorJ("cert_recv", map[string]any{"result": "malformed_event", "trace_id": tid})
                    continue
                }
                evBegin := time.Now()
                sealed, err := s.mgr.OnFragment(frag)
                durMs := time.Since(evBegin).Milliseconds()
                if err != nil {
                    logger.ErrorJ("cert_recv", map[string]any{"result": "reject", "node": frag.Node, "err": err.Error(), "trace_id": tid, "latency_ms": durMs})
                    continue
                }
                logger.InfoJ("cert_recv", map[string]any{"result": "recv", "node": frag.Node, "trace_id": tid, "latency_ms": durMs})
                metrics.ObserveSummary("cert_proc_ms", map[string]string{"kind": string(ev.Kind)}, float64(durMs))
                if sealed {
                    if c, ok := s.mgr.Certificate(); ok {
                        s.sink.Publish(*c)
                        s.mgr.Finalize()
                    }
                }
            case <-ctx.Done():
                return
            }
        }
    }()
    dur := time.Since(begin).Milliseconds()
    logger.InfoJ("service_op", map[string]any{"service": "cert", "op": "start", "result": "ok", "latency_ms": dur})
    metrics.ObserveSummary("service_op_ms", map[string]string{"service": "cert", "op": "start"}, float64(dur))
    return nil
}

func (s *Service) Stop(ctx context.Context) error {
    begin := time.Now()
    s.mgr.Stop()
    dur := time.Since(begin).Milliseconds()
    logger.InfoJ("service_op", map[string]any{"service": "cert", "op": "stop", "result": "ok", "latency_ms": dur})
    metrics.ObserveSummary("service_op_ms", map[string]string{"service": "cert", "op": "stop"}, float64(dur))
    return nil
}

var _ lifecycle.Service = (*Service)(nil)
