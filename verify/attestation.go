package verify

import (
	"fmt"

	"github.com/anchorageoss/haloverify/curve"
	"github.com/anchorageoss/haloverify/message"
	"github.com/anchorageoss/haloverify/signature"
)

// pknHeaderLen is the slot/flags header in front of the key in pkN.
const pknHeaderLen = 2

// VerifyAttestation verifies the rndsig signature over rnd under the key in
// pkn and returns the key with the tap counter.
func VerifyAttestation(pkn, rnd, rndsig []byte) (*Result, error) {
	if len(pkn) <= pknHeaderLen {
		return nil, fmt.Errorf("%w: %w: pkN is %d bytes", ErrBadSignature, curve.ErrInvalidPoint, len(pkn))
	}
	key := KeyRecord{Slot: pkn[0], Flags: pkn[1]}
	publicKey := pkn[pknHeaderLen:]

	pub, err := curve.DecodePoint(publicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSignature, err)
	}

	sig, err := signature.Decode(rndsig)
	if err != nil {
		return nil, err
	}
	sig.R = signature.Correct(sig.R)

	digest := message.Digest(message.CounterAttestation(rnd))
	if err := Verify(pub, digest[:], sig.R, sig.S); err != nil {
		return nil, err
	}

	counter, err := ExtractCounter(rnd)
	if err != nil {
		return nil, err
	}

	canonical, err := signature.Encode(sig)
	if err != nil {
		return nil, err
	}

	return &Result{
		PublicKey: append([]byte(nil), publicKey...),
		Counter:   counter,
		Key:       key,
		Nonce:     append([]byte(nil), rnd...),
		Signature: canonical,
	}, nil
}
