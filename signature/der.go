// Package signature decodes and re-encodes the DER signatures emitted by HaLo
// tags for their BabyJubJub keys.
//
// Tags built on JCOP 4 sometimes emit an r value that was not reduced modulo
// the group order. The encoding is still valid DER, so Decode accepts it, and
// Correct must be applied to r before the signature is verified:
//
//	sig, err := signature.Decode(rndsig)
//	if err != nil {
//		return err // signature.ErrSignatureFormat
//	}
//	sig.R = signature.Correct(sig.R)
//
// Tags also pad rndsig with zero bytes past the DER length. Decode reads the
// declared length and ignores whatever follows it.
package signature

import (
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// ErrSignatureFormat is returned for structurally malformed DER input.
var ErrSignatureFormat = errors.New("malformed signature")

// Signature is an (r, s) pair.
type Signature struct {
	R, S *big.Int
}

// Decode parses an ASN.1 SEQUENCE of two positive INTEGERs from the start of
// raw. Bytes past the declared SEQUENCE length are ignored.
func Decode(raw []byte) (Signature, error) {
	var (
		r, s  = new(big.Int), new(big.Int)
		inner cryptobyte.String
	)

	input := cryptobyte.String(raw)
	if !input.ReadASN1(&inner, cryptobyte_asn1.SEQUENCE) {
		return Signature{}, fmt.Errorf("%w: expected DER SEQUENCE", ErrSignatureFormat)
	}
	if !inner.ReadASN1Integer(r) {
		return Signature{}, fmt.Errorf("%w: invalid r INTEGER", ErrSignatureFormat)
	}
	if !inner.ReadASN1Integer(s) {
		return Signature{}, fmt.Errorf("%w: invalid s INTEGER", ErrSignatureFormat)
	}
	if !inner.Empty() {
		return Signature{}, fmt.Errorf("%w: trailing data inside SEQUENCE", ErrSignatureFormat)
	}
	if r.Sign() <= 0 {
		return Signature{}, fmt.Errorf("%w: r must be positive", ErrSignatureFormat)
	}
	if s.Sign() <= 0 {
		return Signature{}, fmt.Errorf("%w: s must be positive", ErrSignatureFormat)
	}

	return Signature{R: r, S: s}, nil
}

// Encode returns the DER encoding of sig.
func Encode(sig Signature) ([]byte, error) {
	if sig.R == nil || sig.S == nil {
		return nil, fmt.Errorf("%w: missing component", ErrSignatureFormat)
	}
	if sig.R.Sign() <= 0 || sig.S.Sign() <= 0 {
		return nil, fmt.Errorf("%w: components must be positive", ErrSignatureFormat)
	}

	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(sig.R)
		b.AddASN1BigInt(sig.S)
	})
	return b.Bytes()
}

// DeclaredLen returns the length of the DER SEQUENCE at the start of raw,
// header included, or an error if no complete SEQUENCE is present.
func DeclaredLen(raw []byte) (int, error) {
	var inner cryptobyte.String
	input := cryptobyte.String(raw)
	if !input.ReadASN1(&inner, cryptobyte_asn1.SEQUENCE) {
		return 0, fmt.Errorf("%w: expected DER SEQUENCE", ErrSignatureFormat)
	}
	return len(raw) - len(input), nil
}
