// Package ledger records the last tap counter seen for each tag key so that a
// replayed dynamic URL can be told apart from a fresh tap.
//
// The counter in a HaLo nonce only ever increases. A ledger accepts a
// verified (key, counter) pair when the counter is strictly greater than the
// one stored for that key and rejects it with ErrReplay otherwise.
package ledger

import (
	"context"
	"errors"
)

// ErrReplay indicates a counter that is not newer than the last one recorded
// for the key.
var ErrReplay = errors.New("counter replay detected")

// Ledger stores the highest counter observed per public key.
type Ledger interface {
	// Advance records counter for publicKey if it is strictly greater than
	// the stored value, and returns ErrReplay otherwise. The check and the
	// update happen atomically.
	Advance(ctx context.Context, publicKey []byte, counter uint32) error

	// Last returns the stored counter and whether one exists.
	Last(ctx context.Context, publicKey []byte) (uint32, bool, error)

	Close() error
}
