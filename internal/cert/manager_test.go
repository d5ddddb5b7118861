package cert

import (
    "bytes"
    "context"
    "errors"
    "testing"
    "time"

    blst "github.com/supranational/blst/bindings/go"

    "github.com/quorumsig/blobcert/internal/bls381"
)

var testDST = []byte(bls381.DST)

// node is a test-only signer; the cert package itself never touches secret
// keys.
type node struct {
    name string
    sk   *blst.SecretKey
    pk   []byte
}

func newNode(t *testing.T, name, seed string) node {
    t.Helper()
    sk := blst.KeyGen([]byte(seed))
    if sk == nil { t.Fatalf("keygen failed for %s", name) }
    return node{name: name, sk: sk, pk: new(blst.P1Affine).From(sk).Compress()}
}

func (n node) fragment(msg []byte) Fragment {
    sig := new(blst.P2Affine).Sign(n.sk, msg, testDST).Compress()
    return Fragment{Node: n.name, PubKey: n.pk, Sig: sig}
}

func TestMessage_Encoding(t *testing.T) {
    got := Message("abc123", 42, 1024)
    want := []byte("blob_cert_v1:blobid=abc123:epoch=42:size=1024")
    if !bytes.Equal(got, want) { t.Fatalf("message = %q, want %q", got, want) }
}

func TestManager_SealAtThreshold(t *testing.T) {
    msg := Message("abc123", 42, 1024)
    n1 := newNode(t, "node-1", "cert-mgr-seal-node-1-seed!!!!!!!")
    n2 := newNode(t, "node-2", "cert-mgr-seal-node-2-seed!!!!!!!")
    n3 := newNode(t, "node-3", "cert-mgr-seal-node-3-seed!!!!!!!")

    m := NewManager(msg, Config{Threshold: 3, GatherTimeout: time.Second})
    m.Start(context.Background())
    defer m.Stop()

    if sealed, err := m.OnFragment(n1.fragment(msg)); sealed || err != nil {
        t.Fatalf("first fragment: sealed=%v err=%v", sealed, err)
    }
    if st := m.Status(); st.Phase != PhaseGather { t.Fatalf("phase=%s", st.Phase) }
    if sealed, err := m.OnFragment(n2.fragment(msg)); sealed || err != nil {
        t.Fatalf("second fragment: sealed=%v err=%v", sealed, err)
    }
    sealed, err := m.OnFragment(n3.fragment(msg))
    if err != nil { t.Fatalf("third fragment: %v", err) }
    if !sealed { t.Fatalf("threshold fragment should seal") }

    c, ok := m.Certificate()
    if !ok { t.Fatalf("no certificate after seal") }
    if len(c.AggSig) != bls381.SignatureSize { t.Fatalf("aggregate length = %d", len(c.AggSig)) }
    if len(c.Signers) != 3 || c.Signers[0] != "node-1" { t.Fatalf("signers = %v", c.Signers) }
    if !bytes.Equal(c.Message, msg) { t.Fatalf("certificate message mismatch") }

    pks := make([]bls381.PubKey, len(c.PubKeys))
    for i, pk := range c.PubKeys { pks[i] = bls381.PubKey(pk) }
    if !bls381.VerifyAggregate(pks, c.Message, bls381.Signature(c.AggSig)) {
        t.Fatalf("sealed certificate does not verify")
    }

    m.Finalize()
    if st := m.Status(); st.Phase != PhaseDone { t.Fatalf("phase=%s after finalize", st.Phase) }
}

func TestManager_InvalidFragmentRejected(t *testing.T) {
    msg := Message("abc123", 42, 1024)
    other := Message("def456", 7, 512)
    n1 := newNode(t, "node-1", "cert-mgr-invalid-node-1-seed!!!!")
    n2 := newNode(t, "node-2", "cert-mgr-invalid-node-2-seed!!!!")

    m := NewManager(msg, Config{Threshold: 2, GatherTimeout: time.Second})
    m.Start(context.Background())
    defer m.Stop()

    // Signature over a different message must not count toward the quorum.
    if _, err := m.OnFragment(n1.fragment(other)); !errors.Is(err, ErrInvalidFragment) {
        t.Fatalf("want ErrInvalidFragment, got %v", err)
    }
    if st := m.Status(); st.Fragments != 0 { t.Fatalf("invalid fragment counted: %d", st.Fragments) }

    // Malformed buffers are rejected the same way.
    if _, err := m.OnFragment(Fragment{Node: "x", PubKey: make([]byte, 10), Sig: make([]byte, 10)}); !errors.Is(err, ErrInvalidFragment) {
        t.Fatalf("want ErrInvalidFragment for malformed buffers, got %v", err)
    }

    if sealed, err := m.OnFragment(n1.fragment(msg)); sealed || err != nil {
        t.Fatalf("valid fragment: sealed=%v err=%v", sealed, err)
    }
    if sealed, err := m.OnFragment(n2.fragment(msg)); !sealed || err != nil {
        t.Fatalf("second valid fragment should seal: sealed=%v err=%v", sealed, err)
    }
}

func TestManager_DedupByNode(t *testing.T) {
    msg := Message("abc123", 42, 1024)
    n1 := newNode(t, "node-1", "cert-mgr-dedup-node-1-seed!!!!!!")
    n2 := newNode(t, "node-2", "cert-mgr-dedup-node-2-seed!!!!!!")

    m := NewManager(msg, Config{Threshold: 2, GatherTimeout: time.Second})
    m.Start(context.Background())
    defer m.Stop()

    _, _ = m.OnFragment(n1.fragment(msg))
    if sealed, err := m.OnFragment(n1.fragment(msg)); sealed || err != nil {
        t.Fatalf("duplicate node should not advance: sealed=%v err=%v", sealed, err)
    }
    if st := m.Status(); st.Fragments != 1 { t.Fatalf("fragments = %d, want 1", st.Fragments) }
    if sealed, _ := m.OnFragment(n2.fragment(msg)); !sealed { t.Fatalf("distinct node should seal") }
}

func TestManager_Timeout_InGather(t *testing.T) {
    msg := Message("abc123", 42, 1024)
    n1 := newNode(t, "node-1", "cert-mgr-timeout-node-1-seed!!!!")

    m := NewManager(msg, Config{Threshold: 2, GatherTimeout: 30 * time.Millisecond})
    m.Start(context.Background())
    defer m.Stop()

    _, _ = m.OnFragment(n1.fragment(msg))
    time.Sleep(60 * time.Millisecond)
    st := m.Status()
    if !st.TimedOut || st.Phase != PhaseDone {
        t.Fatalf("want timeout->done, got timedOut=%v phase=%s", st.TimedOut, st.Phase)
    }
    if _, ok := m.Certificate(); ok { t.Fatalf("timed-out session produced a certificate") }
}

func TestManager_IgnoresFragmentsAfterSeal(t *testing.T) {
    msg := Message("abc123", 42, 1024)
    n1 := newNode(t, "node-1", "cert-mgr-after-node-1-seed!!!!!!")
    n2 := newNode(t, "node-2", "cert-mgr-after-node-2-seed!!!!!!")
    n3 := newNode(t, "node-3", "cert-mgr-after-node-3-seed!!!!!!")

    m := NewManager(msg, Config{Threshold: 2, GatherTimeout: time.Second})
    m.Start(context.Background())
    defer m.Stop()

    _, _ = m.OnFragment(n1.fragment(msg))
    if sealed, _ := m.OnFragment(n2.fragment(msg)); !sealed { t.Fatalf("should seal at threshold") }
    c1, _ := m.Certificate()

    if sealed, err := m.OnFragment(n3.fragment(msg)); sealed || err != nil {
        t.Fatalf("post-seal fragment: sealed=%v err=%v", sealed, err)
    }
    c2, _ := m.Certificate()
    if !bytes.Equal(c1.AggSig, c2.AggSig) { t.Fatalf("certificate changed after seal") }
    if len(c2.Signers) != 2 { t.Fatalf("signers = %v", c2.Signers) }
}
