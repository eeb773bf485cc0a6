package record

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/near/borsh-go"
)

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	if cborEnc, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	cborDec, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Encode serialises the record in the given encoding.
func (r TapRecord) Encode(enc Encoding) ([]byte, error) {
	switch enc {
	case EncodingBorsh:
		return EncodeBorsh(r)
	case EncodingCBOR:
		return EncodeCBOR(r)
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", enc)
	}
}

// Decode parses a record in the given encoding.
func Decode(b []byte, enc Encoding) (*TapRecord, error) {
	switch enc {
	case EncodingBorsh:
		return DecodeBorsh(b)
	case EncodingCBOR:
		return DecodeCBOR(b)
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", enc)
	}
}

// EncodeBorsh serialises r with Borsh.
func EncodeBorsh(r TapRecord) ([]byte, error) {
	b, err := borsh.Serialize(r)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize record: %w", err)
	}
	return b, nil
}

// DecodeBorsh parses a Borsh encoded record.
func DecodeBorsh(b []byte) (*TapRecord, error) {
	var r TapRecord
	if err := borsh.Deserialize(&r, b); err != nil {
		return nil, fmt.Errorf("failed to deserialize record: %w", err)
	}

	// borsh.Deserialize stops at the end of the struct; anything after it
	// would change the record hash without changing the record.
	canonical, err := EncodeBorsh(r)
	if err != nil {
		return nil, err
	}
	if len(canonical) != len(b) {
		return nil, fmt.Errorf("failed to deserialize record: %d trailing bytes", len(b)-len(canonical))
	}
	return &r, nil
}

// EncodeCBOR serialises r with core deterministic CBOR.
func EncodeCBOR(r TapRecord) ([]byte, error) {
	b, err := cborEnc.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return b, nil
}

// DecodeCBOR parses a CBOR encoded record. Unknown or duplicate keys are
// rejected.
func DecodeCBOR(b []byte) (*TapRecord, error) {
	var r TapRecord
	if err := cborDec.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return &r, nil
}
