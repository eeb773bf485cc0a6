// Package message builds the domain-separated messages HaLo tags sign.
//
// Every message starts with the 0x19 byte followed by an ASCII tag ending in a
// newline, then the signed payload. The tag keeps signatures made for one
// purpose from being replayed as another.
package message

import "crypto/sha256"

const (
	// Prefix is the leading byte of every attestation message.
	Prefix = 0x19

	counterTag = "Attest counter pk62:\n"
	pk2Tag     = "Attest pk2:\n"
	keyTag     = "Key attest:\n"
)

// CounterAttestation returns 0x19 ‖ "Attest counter pk62:\n" ‖ nonce, the
// message signed by the BabyJubJub key in slot 0x62 on every tap.
func CounterAttestation(nonce []byte) []byte {
	return build(counterTag, nonce)
}

// PK2Attestation returns the message a root key signs to vouch for pk2.
func PK2Attestation(pk2 []byte) []byte {
	return build(pk2Tag, pk2)
}

// KeyAttestation returns the message pk2 signs to vouch for the key in slot
// keyNo.
func KeyAttestation(keyNo, publicKey []byte) []byte {
	return build(keyTag, keyNo, publicKey)
}

// Digest returns SHA-256(msg).
func Digest(msg []byte) [sha256.Size]byte {
	return sha256.Sum256(msg)
}

func build(tag string, parts ...[]byte) []byte {
	size := 1 + len(tag)
	for _, p := range parts {
		size += len(p)
	}

	msg := make([]byte, 0, size)
	msg = append(msg, Prefix)
	msg = append(msg, tag...)
	for _, p := range parts {
		msg = append(msg, p...)
	}
	return msg
}
