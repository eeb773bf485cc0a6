package signature

import (
	"math/big"

	"github.com/anchorageoss/haloverify/curve"
)

// Correct returns r mod n. It is a no-op for canonical values.
func Correct(r *big.Int) *big.Int {
	return new(big.Int).Mod(r, curve.Order())
}

// Canonicalize decodes raw, corrects r and returns the canonical DER encoding
// together with the corrected pair.
func Canonicalize(raw []byte) (Signature, []byte, error) {
	sig, err := Decode(raw)
	if err != nil {
		return Signature{}, nil, err
	}
	sig.R = Correct(sig.R)

	der, err := Encode(sig)
	if err != nil {
		return Signature{}, nil, err
	}
	return sig, der, nil
}

// Fix produces the form downstream EVM-style verifiers expect: r and s reduced
// mod n, s flipped into the lower half of the group, DER encoded.
func Fix(raw []byte) ([]byte, error) {
	sig, err := Decode(raw)
	if err != nil {
		return nil, err
	}

	n := curve.Order()
	r := Correct(sig.R)
	s := new(big.Int).Mod(sig.S, n)

	halfOrder := new(big.Int).Rsh(n, 1)
	if s.Cmp(halfOrder) > 0 {
		s.Sub(n, s)
	}

	return Encode(Signature{R: r, S: s})
}

// IsLowS reports whether s mod n <= n/2, the same test Fix applies.
func IsLowS(s *big.Int) bool {
	n := curve.Order()
	return new(big.Int).Mod(s, n).Cmp(new(big.Int).Rsh(n, 1)) <= 0
}
