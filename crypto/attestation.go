// Package crypto verifies the secp256k1 attestations that tie a HaLo tag's
// keys back to the manufacturer.
//
// Every tag holds a secp256k1 key in slot 2 (pk2). At provisioning time an Arx
// root key signs pk2, and pk2 in turn signs the public keys of the other slots,
// including the BabyJubJub key used for dynamic URL counters.
//
// # PK2 Attestation
//
// Check that pk2 was certified by a trusted root:
//
//	root, err := crypto.VerifyPK2Attestation(keys.DefaultRoots(), pk2, pk2Attest)
//	if errors.Is(err, crypto.ErrUntrustedAttestation) {
//		// not issued by any of the roots
//	}
//
// The attestation read from the tag carries a two-byte header in front of the
// DER signature; it is stripped before parsing.
//
// # Key Attestation
//
// Check that pk2 vouches for another slot's key:
//
//	err := crypto.VerifyKeyAttestation(pk2, []byte{0x01}, pk1, pk1Attest)
//
// Signatures are plain DER and are not required to be low-S.
package crypto

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/anchorageoss/haloverify/message"
)

var (
	// ErrUntrustedAttestation means no trusted root signed pk2.
	ErrUntrustedAttestation = errors.New("pk2 is not attested by a trusted root")

	// ErrBadAttestation means pk2 did not sign the key attestation.
	ErrBadAttestation = errors.New("key attestation signature invalid")

	// ErrMalformedAttestation is returned for unparsable keys or signatures.
	ErrMalformedAttestation = errors.New("malformed attestation")
)

// pk2AttestHeaderLen is the header in front of the DER signature in a pk2
// attestation.
const pk2AttestHeaderLen = 2

// RootProvider supplies the root public keys trusted to attest pk2.
type RootProvider interface {
	GetRoots(ctx context.Context) ([][]byte, error)
}

// ParsePublicKey parses a compressed or uncompressed secp256k1 public key.
func ParsePublicKey(b []byte) (*secp256k1.PublicKey, error) {
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("%w: public key: %w", ErrMalformedAttestation, err)
	}
	return pub, nil
}

// ParseSignature parses a DER encoded secp256k1 signature.
func ParseSignature(der []byte) (*ecdsa.Signature, error) {
	sig, err := ecdsa.ParseDERSignature(der)
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %w", ErrMalformedAttestation, err)
	}
	return sig, nil
}

// VerifyPK2Attestation checks attest against every root and returns the root
// that signed pk2.
func VerifyPK2Attestation(roots [][]byte, pk2, attest []byte) ([]byte, error) {
	if len(attest) <= pk2AttestHeaderLen {
		return nil, fmt.Errorf("%w: pk2 attestation is %d bytes", ErrMalformedAttestation, len(attest))
	}

	sig, err := ParseSignature(attest[pk2AttestHeaderLen:])
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256(message.PK2Attestation(pk2))
	for i, root := range roots {
		pub, err := ParsePublicKey(root)
		if err != nil {
			return nil, fmt.Errorf("root %d: %w", i, err)
		}
		if sig.Verify(hash[:], pub) {
			return root, nil
		}
	}

	return nil, ErrUntrustedAttestation
}

// VerifyKeyAttestation checks that pk2 signed publicKey as the key in slot
// keyNo.
func VerifyKeyAttestation(pk2, keyNo, publicKey, attest []byte) error {
	pub, err := ParsePublicKey(pk2)
	if err != nil {
		return err
	}

	sig, err := ParseSignature(attest)
	if err != nil {
		return err
	}

	hash := sha256.Sum256(message.KeyAttestation(keyNo, publicKey))
	if !sig.Verify(hash[:], pub) {
		return ErrBadAttestation
	}
	return nil
}
