package verify

import (
	"encoding/binary"
	"fmt"
)

// CounterLen is the number of leading nonce bytes holding the tap counter.
const CounterLen = 4

// ExtractCounter returns the big-endian counter at the start of nonce. It does
// not look at the signature; the value is only meaningful for a verified tap.
func ExtractCounter(nonce []byte) (uint32, error) {
	if len(nonce) < CounterLen {
		return 0, fmt.Errorf("%w: got %d bytes, need %d", ErrLength, len(nonce), CounterLen)
	}
	return binary.BigEndian.Uint32(nonce[:CounterLen]), nil
}
