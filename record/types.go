// Package record provides a storable form of a verified HaLo tap.
//
// A TapRecord keeps everything needed to re-verify a tap later: the pkN
// header bytes, the BabyJubJub public key, the nonce and the canonical
// signature. Records serialise with Borsh (compact, fixed field order) or
// deterministic CBOR.
//
// # Encoding
//
// Build a record from a verification result and encode it:
//
//	rec := record.NewTapRecord(result)
//	b, err := rec.Encode(record.EncodingBorsh)
//	if err != nil {
//		log.Fatal(err)
//	}
//	id := record.ComputeHash(b)
//
// # Decoding
//
// Decode with DecodeFromHex, DecodeFromBase64 or DecodeFromFile, then call
// Verify to check the stored signature again:
//
//	rec, _, err := record.DecodeFromHex(s, record.EncodingCBOR)
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := rec.Verify()
package record

import (
	"fmt"

	"github.com/anchorageoss/haloverify/verify"
)

// Encoding selects the wire format of a record
type Encoding uint8

const (
	EncodingBorsh Encoding = iota
	EncodingCBOR
)

// MarshalJSON converts Encoding to JSON string format
func (e Encoding) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", e.String())), nil
}

// String converts Encoding to string format
func (e Encoding) String() string {
	switch e {
	case EncodingBorsh:
		return "borsh"
	case EncodingCBOR:
		return "cbor"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(e))
	}
}

// ParseEncoding maps "borsh" or "cbor" to an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "borsh":
		return EncodingBorsh, nil
	case "cbor":
		return EncodingCBOR, nil
	default:
		return 0, fmt.Errorf("unknown record encoding %q", s)
	}
}

// TapRecord is a verified tap.
type TapRecord struct {
	Slot      uint8  `borsh:"slot" cbor:"1,keyasint"`
	Flags     uint8  `borsh:"flags" cbor:"2,keyasint"`
	PublicKey []byte `borsh:"public_key" cbor:"3,keyasint"`
	Counter   uint32 `borsh:"counter" cbor:"4,keyasint"`
	Nonce     []byte `borsh:"nonce" cbor:"5,keyasint"`
	Signature []byte `borsh:"signature" cbor:"6,keyasint"`
}

// NewTapRecord copies a verification result into a record.
func NewTapRecord(result *verify.Result) TapRecord {
	return TapRecord{
		Slot:      result.Key.Slot,
		Flags:     result.Key.Flags,
		PublicKey: append([]byte(nil), result.PublicKey...),
		Counter:   result.Counter,
		Nonce:     append([]byte(nil), result.Nonce...),
		Signature: append([]byte(nil), result.Signature...),
	}
}

// PKN rebuilds the pkN parameter the record was verified from.
func (r *TapRecord) PKN() []byte {
	pkn := make([]byte, 0, 2+len(r.PublicKey))
	pkn = append(pkn, r.Slot, r.Flags)
	return append(pkn, r.PublicKey...)
}

// Verify checks the stored signature again and confirms the stored counter
// matches the nonce.
func (r *TapRecord) Verify() (*verify.Result, error) {
	result, err := verify.VerifyAttestation(r.PKN(), r.Nonce, r.Signature)
	if err != nil {
		return nil, err
	}
	if result.Counter != r.Counter {
		return nil, fmt.Errorf("record counter %d does not match nonce counter %d", r.Counter, result.Counter)
	}
	return result, nil
}
