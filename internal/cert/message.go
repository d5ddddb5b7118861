package cert

import "fmt"

// Message renders the canonical certification payload for one blob. Every
// node in the quorum must sign these exact bytes; the core performs no
// canonicalization of its own, so the encoding lives here and nowhere else.
func Message(blobID string, epoch, size uint64) []byte {
    return fmt.Appendf(nil, "blob_cert_v1:blobid=%s:epoch=%d:size=%d", blobID, epoch, size)
}
