package verify

import (
	"errors"
	"math/big"

	"github.com/anchorageoss/haloverify/curve"
	"github.com/anchorageoss/haloverify/ledger"
)

var (
	// ErrBadSignature is returned when a signature does not satisfy the
	// verification equation. It deliberately carries no reason.
	ErrBadSignature = errors.New("bad signature")

	// ErrLength is returned for a nonce too short to hold a counter.
	ErrLength = errors.New("nonce too short")

	// ErrReplay is ledger.ErrReplay, returned by Service when a counter is
	// not newer than the last one recorded.
	ErrReplay = ledger.ErrReplay
)

// Verify checks an ECDSA signature (r, s) over digest with the BabyJubJub key
// pub. r must already be corrected with signature.Correct. The digest is
// truncated to the bit length of the group order.
func Verify(pub curve.Point, digest []byte, r, s *big.Int) error {
	if !verifyInt(pub, hashToInt(digest), r, s) {
		return ErrBadSignature
	}
	return nil
}

func verifyInt(pub curve.Point, e, r, s *big.Int) bool {
	if r == nil || s == nil || pub.IsInfinity() {
		return false
	}

	n := curve.Order()
	if r.Sign() <= 0 || s.Sign() <= 0 || r.Cmp(n) >= 0 || s.Cmp(n) >= 0 {
		return false
	}

	w, err := curve.InverseModN(s)
	if err != nil {
		return false
	}

	u1 := new(big.Int).Mul(e, w)
	u1.Mod(u1, n)
	u2 := new(big.Int).Mul(r, w)
	u2.Mod(u2, n)

	p := curve.MulAdd(u1, u2, pub)
	if p.IsInfinity() {
		return false
	}

	x := p.X()
	x.Mod(x, n)
	return x.Cmp(r) == 0
}

// hashToInt keeps the leftmost OrderBits() bits of hash.
func hashToInt(hash []byte) *big.Int {
	orderBits := curve.OrderBits()
	orderBytes := (orderBits + 7) / 8
	if len(hash) > orderBytes {
		hash = hash[:orderBytes]
	}

	ret := new(big.Int).SetBytes(hash)
	excess := len(hash)*8 - orderBits
	if excess > 0 {
		ret.Rsh(ret, uint(excess))
	}
	return ret
}
