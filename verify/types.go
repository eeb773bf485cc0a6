// Package verify checks the counter attestations HaLo tags publish through
// their dynamic URLs.
//
// A tap produces three query parameters: pkN (the tag's BabyJubJub public key
// behind a two-byte slot header), rnd (a nonce whose first four bytes are the
// tap counter) and rndsig (a DER signature over the domain-separated nonce).
//
// # Verification Flow
//
// Call VerifyAttestation with the hex-decoded parameters:
//
//	result, err := verify.VerifyAttestation(pkn, rnd, rndsig)
//	if errors.Is(err, verify.ErrBadSignature) {
//		// forged, corrupted or signed by another key
//	}
//	if err != nil {
//		return err
//	}
//	fmt.Println(result.Counter)
//
// The counter must only be trusted when verification succeeded. An
// undecodable public key is reported as both curve.ErrInvalidPoint and
// ErrBadSignature; a malformed signature is signature.ErrSignatureFormat and a
// nonce shorter than four bytes is ErrLength.
//
// # Replay Protection
//
// A Service wraps VerifyAttestation with an optional ledger.Ledger. Each
// accepted tap must carry a counter strictly greater than the last one seen for
// the same key, otherwise Service.Verify returns ErrReplay.
//
// # Batches
//
// Service.VerifyBatch checks many taps concurrently. Results come back in
// input order with per-item errors, and ledger updates are applied afterwards
// in input order so the outcome does not depend on scheduling.
package verify

// KeyRecord holds the two header bytes of pkN. They are carried through
// unchanged and never interpreted.
type KeyRecord struct {
	Slot  byte `json:"slot"`
	Flags byte `json:"flags"`
}

// Result is a successfully verified tap.
type Result struct {
	// PublicKey is pkN with its two-byte header removed.
	PublicKey []byte
	Counter   uint32
	Key       KeyRecord
	// Nonce is rnd as supplied.
	Nonce []byte
	// Signature is the corrected signature in canonical DER.
	Signature []byte
}

// VerifyRequest represents one tap to verify
type VerifyRequest struct {
	ID     string
	PKN    []byte
	RND    []byte
	RNDSig []byte
}

// BatchResult is the outcome of one VerifyBatch item. Exactly one of Result
// and Err is set.
type BatchResult struct {
	Index  int
	ID     string
	Result *Result
	Err    error
}
