package record

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// DecodeFromHex decodes a hex encoded record and returns it with its raw bytes
func DecodeFromHex(s string, enc Encoding) (*TapRecord, []byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode hex: %w", err)
	}
	return decodeBytes(b, enc)
}

// DecodeFromBase64 decodes a base64 encoded record
func DecodeFromBase64(s string, enc Encoding) (*TapRecord, []byte, error) {
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return decodeBytes(b, enc)
}

// DecodeFromFile decodes a record from a binary file
func DecodeFromFile(filePath string, enc Encoding) (*TapRecord, []byte, error) {
	b, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}
	return decodeBytes(b, enc)
}

func decodeBytes(b []byte, enc Encoding) (*TapRecord, []byte, error) {
	r, err := Decode(b, enc)
	if err != nil {
		return nil, nil, err
	}
	return r, b, nil
}
