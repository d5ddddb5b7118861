package bls381

// This package is the BLS12-381 min_pk verification and aggregation core:
// public keys are compressed G1 points (48 bytes), signatures are compressed
// G2 points (96 bytes). It wraps the supranational/blst bindings for the
// pairing arithmetic and layers the protocol-level validation discipline on
// top: every byte buffer entering a public operation is length-checked,
// decompressed, and subgroup-checked before any pairing runs.
//
// The three boundary operations (Verify, Aggregate, VerifyAggregate) are
// total: they never return an error, collapsing "malformed input" and
// "cryptographically invalid" into a single false/nil outcome. Callers that
// want the internal failure taxonomy can use AggregateChecked.

import (
    "errors"

    blst "github.com/supranational/blst/bindings/go"
)

const (
    // PublicKeySize is the compressed G1 encoding length.
    PublicKeySize = blst.BLST_P1_COMPRESS_BYTES
    // SignatureSize is the compressed G2 encoding length.
    SignatureSize = blst.BLST_P2_COMPRESS_BYTES
)

// DST is the domain separation tag for the basic (NUL) min_pk scheme with G2
// signatures. It must stay byte-identical to the tag used by the ledger-side
// verifier; signatures produced under any other tag silently fail to verify.
const DST = "BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_"

var dst = []byte(DST)

// Byte-oriented views of the two point types. Both are opaque to callers;
// decoding and validation happen inside this package.
type (
    PubKey    []byte // compressed G1 (48 bytes)
    Signature []byte // compressed G2 (96 bytes)
)

// Decode failure taxonomy. Only ErrNoSignatures escapes the package (through
// AggregateChecked); the rest surface as false/nil at the boundary.
var (
    ErrNoSignatures = errors.New("no signatures to aggregate")

    errKeySize       = errors.New("public key must be 48 bytes")
    errKeyDecompress = errors.New("couldn't decompress public key")
    errKeyValidate   = errors.New("public key failed group check")
    errSigSize       = errors.New("signature must be 96 bytes")
    errSigDecompress = errors.New("couldn't decompress signature")
    errSigGroupCheck = errors.New("signature failed group check")
    errAggregate     = errors.New("couldn't aggregate signatures")
)

// decodePublicKey deserializes and validates a compressed G1 public key.
// KeyValidate runs the prime-order subgroup check and rejects the identity
// point, so a successful decode is always a usable signer key.
func decodePublicKey(b []byte) (*blst.P1Affine, error) {
    if len(b) != PublicKeySize { return nil, errKeySize }
    pk := new(blst.P1Affine).Uncompress(b)
    if pk == nil { return nil, errKeyDecompress }
    if !pk.KeyValidate() { return nil, errKeyValidate }
    return pk, nil
}

// decodeSignature deserializes and validates a compressed G2 signature.
// The subgroup check is never skipped; skipping it reopens small-subgroup
// and rogue-key attacks.
func decodeSignature(b []byte) (*blst.P2Affine, error) {
    if len(b) != SignatureSize { return nil, errSigSize }
    sig := new(blst.P2Affine).Uncompress(b)
    if sig == nil { return nil, errSigDecompress }
    if !sig.SigValidate(false) { return nil, errSigGroupCheck }
    return sig, nil
}
