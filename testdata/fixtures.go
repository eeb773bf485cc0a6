// Package testdata provides embedded test fixtures for use across all test packages.
package testdata

import (
	_ "embed"
	"encoding/hex"
	"encoding/json"
)

// BJJVectorsJSON holds the published BabyJubJub dynamic URL vectors (slot 0x62)
//
//go:embed bjj_vectors.json
var BJJVectorsJSON []byte

// KeyAttestationsJSON holds the secp256k1 pk2 / key attestation example
//
//go:embed key_attestations.json
var KeyAttestationsJSON []byte

// BJJVector is one pkN/rnd/rndsig triple with its expected outputs.
type BJJVector struct {
	Name      string `json:"name"`
	PKN       string `json:"pkn"`
	RND       string `json:"rnd"`
	RNDSig    string `json:"rndsig"`
	Counter   uint32 `json:"counter"`
	Canonical string `json:"canonical"`
	Fixed     string `json:"fixed"`
}

// Bytes returns the decoded pkn, rnd and rndsig.
func (v BJJVector) Bytes() (pkn, rnd, rndsig []byte) {
	return MustHex(v.PKN), MustHex(v.RND), MustHex(v.RNDSig)
}

// KeyAttestations mirrors key_attestations.json.
type KeyAttestations struct {
	Root      string `json:"root"`
	PK2       string `json:"pk2"`
	PK2Attest string `json:"pk2Attest"`
	KeyNo     string `json:"keyNo"`
	PK1       string `json:"pk1"`
	PK1Attest string `json:"pk1Attest"`
}

// BJJVectors decodes the embedded BabyJubJub vectors.
func BJJVectors() []BJJVector {
	var out []BJJVector
	if err := json.Unmarshal(BJJVectorsJSON, &out); err != nil {
		panic(err)
	}
	return out
}

// KeyAttestationVectors decodes the embedded secp256k1 attestation example.
func KeyAttestationVectors() KeyAttestations {
	var out KeyAttestations
	if err := json.Unmarshal(KeyAttestationsJSON, &out); err != nil {
		panic(err)
	}
	return out
}

// MustHex decodes a hex fixture, panicking on malformed input.
func MustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}
