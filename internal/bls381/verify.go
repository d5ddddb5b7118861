package bls381

import (
    blst "github.com/supranational/blst/bindings/go"
)

// Verify checks one min_pk signature over msg. It is a total predicate: any
// malformed buffer, failed subgroup check, or failed pairing equation yields
// false, never an error. Decoding already ran pk_validate / sig_groupcheck,
// so the pairing call itself skips the redundant re-checks.
func Verify(sig Signature, pk PubKey, msg []byte) bool {
    p, err := decodePublicKey(pk)
    if err != nil { return false }
    s, err := decodeSignature(sig)
    if err != nil { return false }
    // e(sig, G2_gen) == e(H(msg), pk), hash-to-curve under DST with no
    // augmentation.
    return s.Verify(false, p, false, msg, dst)
}

// VerifyAggregate checks an aggregate signature against the claimed full
// signer set over one shared message. The multi-pairing enforces exact-set
// equality: a missing or extra key makes the equation fail, so there is no
// partial-credit semantics. An empty key list is never valid.
func VerifyAggregate(pks []PubKey, msg []byte, aggSig Signature) bool {
    if len(pks) == 0 { return false }
    s, err := decodeSignature(aggSig)
    if err != nil { return false }
    points := make([]*blst.P1Affine, len(pks))
    for i, pk := range pks {
        p, err := decodePublicKey(pk)
        if err != nil { return false }
        points[i] = p
    }
    return s.FastAggregateVerify(false, points, msg, dst)
}
