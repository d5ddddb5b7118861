package bls381

import (
    "fmt"

    blst "github.com/supranational/blst/bindings/go"
)

// Aggregate sums signatures over the same message into one 96-byte compressed
// signature. The boundary contract is sentinel-based: an empty input list or
// any single malformed entry yields nil, never a partial aggregate. The sum
// is commutative and associative, so reordering inputs cannot change the
// output bytes, and aggregating a singleton returns bytes identical to it.
func Aggregate(sigs []Signature) Signature {
    out, err := AggregateChecked(sigs)
    if err != nil { return nil }
    return out
}

// AggregateChecked is Aggregate with the failure taxonomy exposed: it reports
// which entry failed to decode instead of collapsing to the nil sentinel.
// The success output is byte-identical to Aggregate's.
func AggregateChecked(sigs []Signature) (Signature, error) {
    if len(sigs) == 0 { return nil, ErrNoSignatures }
    points := make([]*blst.P2Affine, len(sigs))
    for i, sig := range sigs {
        s, err := decodeSignature(sig)
        if err != nil { return nil, fmt.Errorf("signature %d: %w", i, err) }
        points[i] = s
    }
    agg := new(blst.P2Aggregate)
    // Entries are already group-checked by decodeSignature.
    if !agg.Aggregate(points, false) { return nil, errAggregate }
    return Signature(agg.ToAffine().Compress()), nil
}
