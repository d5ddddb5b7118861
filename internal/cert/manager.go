package cert

import (
    "context"
    "errors"
    "sync"
    "time"

    "github.com/google/uuid"

    "github.com/quorumsig/blobcert/internal/bls381"
    "github.com/quorumsig/blobcert/pkg/logger"
    "github.com/quorumsig/blobcert/pkg/metrics"
)

// Phase is the gather-session state.
type Phase string

const (
    PhaseInit   Phase = "init"
    PhaseGather Phase = "gather"
    PhaseSealed Phase = "sealed"
    PhaseDone   Phase = "done"
)

// Config holds the gather-session knobs.
type Config struct {
    Threshold     int           // fragments needed to seal (minimum 2)
    GatherTimeout time.Duration // deadline after the first fragment arrives
}

func defaultConfig(c Config) Config {
    if c.Threshold < 2 {
        c.Threshold = 2
    }
    if c.GatherTimeout <= 0 {
        c.GatherTimeout = 2 * time.Second
    }
    return c
}

// Fragment is one storage node's attestation: its compressed public key and
// its signature over the session's certification message.
type Fragment struct {
    Node   string
    PubKey []byte
    Sig    []byte
}

// Certificate is a sealed quorum attestation: the aggregate signature plus
// the exact signer set it verifies against. The set carries no membership
// proof; verification is all-or-nothing against these keys.
type Certificate struct {
    ID      string
    Message []byte
    Signers []string
    PubKeys [][]byte
    AggSig  []byte
}

// ErrInvalidFragment reports a fragment whose signature does not verify over
// the session message under the sender's key.
var ErrInvalidFragment = errors.New("fragment signature invalid")

var errSealFailed = errors.New("sealed aggregate failed self-check")

// Manager gathers fragments for one certification message until the quorum
// threshold seals a certificate. Every fragment is verified on ingress, so a
// seal can only fail if ingress and aggregation disagree, which the
// self-check turns into an error instead of a bad certificate.
type Manager struct {
    mu        sync.Mutex
    cfg       Config
    id        string
    msg       []byte
    phase     Phase
    startedAt time.Time
    frags     []Fragment
    seen      map[string]struct{} // dedup key: node ID
    cert      *Certificate
    timedOut  bool

    ctx    context.Context
    cancel context.CancelFunc
}

// NewManager constructs a gather session for msg (not started).
func NewManager(msg []byte, cfg Config) *Manager {
    cfg = defaultConfig(cfg)
    m := &Manager{cfg: cfg, id: uuid.NewString(), phase: PhaseInit, seen: make(map[string]struct{})}
    m.msg = append([]byte(nil), msg...)
    return m
}

// ID returns the session's certificate ID.
func (m *Manager) ID() string { return m.id }

// Start arms the gather-timeout watchdog.
func (m *Manager) Start(ctx context.Context) {
    m.mu.Lock()
    if m.ctx != nil { m.mu.Unlock(); return }
    m.ctx, m.cancel = context.WithCancel(ctx)
    m.startedAt = time.Now()
    m.mu.Unlock()

    go m.watchdog()
}

// Stop ends the session.
func (m *Manager) Stop() {
    m.mu.Lock(); if m.cancel != nil { m.cancel() }; m.mu.Unlock()
}

func (m *Manager) watchdog() {
    t := time.NewTicker(10 * time.Millisecond)
    defer t.Stop()
    for {
        select {
        case <-m.ctx.Done():
            return
        case <-t.C:
            m.mu.Lock()
            if m.phase == PhaseGather {
                if time.Since(m.startedAt) >= m.cfg.GatherTimeout {
                    m.timedOut = true
                    metrics.Inc("cert_sessions_total", map[string]string{"result": "timeout"})
                    metrics.ObserveSummary("cert_round_ms", map[string]string{"round": string(PhaseGather)}, float64(time.Since(m.startedAt).Milliseconds()))
                    logger.ErrorJ("cert_session", map[string]any{"event": "timeout", "cert_id": m.id, "fragments": len(m.frags), "threshold": m.cfg.Threshold})
                    m.phase = PhaseDone
                }
            }
            m.mu.Unlock()
        }
    }
}

// OnFragment ingests one fragment. It returns true once, when the fragment
// seals the certificate. Duplicates and fragments after seal are ignored;
// fragments that fail verification are rejected with ErrInvalidFragment and
// never counted toward the threshold.
func (m *Manager) OnFragment(f Fragment) (bool, error) {
    m.mu.Lock()
    defer m.mu.Unlock()

    if m.phase == PhaseSealed || m.phase == PhaseDone {
        return false, nil
    }
    if m.phase == PhaseInit {
        m.phase = PhaseGather
        m.startedAt = time.Now()
        logger.InfoJ("cert_session", map[string]any{"event": "phase", "phase": string(m.phase), "cert_id": m.id})
    }
    if !bls381.Verify(bls381.Signature(f.Sig), bls381.PubKey(f.PubKey), m.msg) {
        metrics.Inc("cert_fragments_total", map[string]string{"result": "invalid"})
        return false, ErrInvalidFragment
    }
    if _, ok := m.seen[f.Node]; ok {
        metrics.Inc("cert_fragments_total", map[string]string{"result": "duplicate"})
        return false, nil
    }
    m.seen[f.Node] = struct{}{}
    m.frags = append(m.frags, f)
    metrics.Inc("cert_fragments_total", map[string]string{"result": "ok"})

    if len(m.frags) >= m.cfg.Threshold {
        if err := m.seal(); err != nil {
            metrics.Inc("cert_sessions_total", map[string]string{"result": "seal_error"})
            logger.ErrorJ("cert_session", map[string]any{"event": "seal", "result": "error", "cert_id": m.id, "err": err.Error()})
            m.phase = PhaseDone
            return false, err
        }
        metrics.Inc("cert_sessions_total", map[string]string{"result": "ok"})
        metrics.ObserveSummary("cert_round_ms", map[string]string{"round": string(PhaseGather)}, float64(time.Since(m.startedAt).Milliseconds()))
        logger.InfoJ("cert_session", map[string]any{"event": "seal", "result": "ok", "cert_id": m.id, "signers": len(m.frags)})
        return true, nil
    }
    return false, nil
}

// seal aggregates the gathered fragments and self-checks the result against
// the contributing keys before exposing it. Caller holds the lock.
func (m *Manager) seal() error {
    sigs := make([]bls381.Signature, len(m.frags))
    pks := make([]bls381.PubKey, len(m.frags))
    signers := make([]string, len(m.frags))
    rawPks := make([][]byte, len(m.frags))
    for i, f := range m.frags {
        sigs[i] = bls381.Signature(f.Sig)
        pks[i] = bls381.PubKey(f.PubKey)
        signers[i] = f.Node
        rawPks[i] = append([]byte(nil), f.PubKey...)
    }
    agg, err := bls381.AggregateChecked(sigs)
    if err != nil {
        return err
    }
    if !bls381.VerifyAggregate(pks, m.msg, agg) {
        return errSealFailed
    }
    m.cert = &Certificate{
        ID:      m.id,
        Message: append([]byte(nil), m.msg...),
        Signers: signers,
        PubKeys: rawPks,
        AggSig:  agg,
    }
    m.phase = PhaseSealed
    return nil
}

// Certificate returns the sealed certificate, if any.
func (m *Manager) Certificate() (*Certificate, bool) {
    m.mu.Lock(); defer m.mu.Unlock()
    if m.cert == nil { return nil, false }
    return m.cert, true
}

// Finalize moves a sealed session to Done once the certificate is consumed.
func (m *Manager) Finalize() {
    m.mu.Lock()
    if m.phase == PhaseSealed {
        logger.InfoJ("cert_session", map[string]any{"event": "finish", "result": "ok", "cert_id": m.id})
        m.phase = PhaseDone
    }
    m.mu.Unlock()
}

// Status is a read-only snapshot.
type Status struct {
    Phase     Phase
    Fragments int
    TimedOut  bool
}

func (m *Manager) Status() Status {
    m.mu.Lock(); defer m.mu.Unlock()
    return Status{Phase: m.phase, Fragments: len(m.frags), TimedOut: m.timedOut}
}
