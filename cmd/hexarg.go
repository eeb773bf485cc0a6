package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// decodeHexArg decodes a hex flag value. Surrounding whitespace and a 0x
// prefix are accepted; an empty value is not.
func decodeHexArg(name, value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(strings.TrimPrefix(value, "0x"), "0X")
	if value == "" {
		return nil, fmt.Errorf("--%s is empty", name)
	}

	b, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid hex value for --%s: %w", name, err)
	}
	return b, nil
}

// parseKeyNo parses a key slot number written as one hex byte, e.g. "01" or
// "0x62".
func parseKeyNo(value string) ([]byte, error) {
	b, err := decodeHexArg("key-no", value)
	if err != nil {
		return nil, err
	}
	if len(b) != 1 {
		return nil, fmt.Errorf("--key-no must be a single byte, got %d bytes", len(b))
	}
	return b, nil
}
