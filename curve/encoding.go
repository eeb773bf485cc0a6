package curve

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

const (
	prefixUncompressed = 0x04
	prefixEven         = 0x02
	prefixOdd          = 0x03

	compressedLen   = 1 + ByteLen
	rawLen          = 2 * ByteLen
	uncompressedLen = 1 + 2*ByteLen
)

// DecodePoint parses a public key. Accepted encodings are 0x04‖X‖Y, the raw
// X‖Y concatenation and the compressed 0x02/0x03‖X form. The decoded point
// must be finite, on the curve and in the order-n subgroup.
func DecodePoint(b []byte) (Point, error) {
	var (
		p   Point
		err error
	)

	switch {
	case len(b) == uncompressedLen && b[0] == prefixUncompressed:
		p, err = NewPoint(new(big.Int).SetBytes(b[1:1+ByteLen]), new(big.Int).SetBytes(b[1+ByteLen:]))
	case len(b) == rawLen:
		p, err = NewPoint(new(big.Int).SetBytes(b[:ByteLen]), new(big.Int).SetBytes(b[ByteLen:]))
	case len(b) == compressedLen && (b[0] == prefixEven || b[0] == prefixOdd):
		p, err = decompress(b[1:], b[0] == prefixOdd)
	default:
		return Point{}, fmt.Errorf("%w: unsupported encoding (%d bytes)", ErrInvalidPoint, len(b))
	}
	if err != nil {
		return Point{}, err
	}

	if !InSubgroup(p) {
		return Point{}, fmt.Errorf("%w: point is not in the prime-order subgroup", ErrInvalidPoint)
	}
	return p, nil
}

func decompress(xb []byte, odd bool) (Point, error) {
	x := new(big.Int).SetBytes(xb)
	if x.Cmp(params.P) >= 0 {
		return Point{}, fmt.Errorf("%w: coordinate out of field range", ErrInvalidPoint)
	}

	var p Point
	p.x.SetBigInt(x)

	var rhs fr.Element
	weierstrassRHS(&rhs, &p.x)
	if p.y.Sqrt(&rhs) == nil {
		return Point{}, fmt.Errorf("%w: x has no square root on the curve", ErrInvalidPoint)
	}

	yb := p.y.Bytes()
	if (yb[ByteLen-1]&1 == 1) != odd {
		p.y.Neg(&p.y)
	}
	return p, nil
}

// Bytes returns the uncompressed 0x04‖X‖Y encoding, or nil for infinity.
func (p Point) Bytes() []byte {
	if p.inf {
		return nil
	}
	out := make([]byte, uncompressedLen)
	out[0] = prefixUncompressed
	x := p.x.Bytes()
	y := p.y.Bytes()
	copy(out[1:], x[:])
	copy(out[1+ByteLen:], y[:])
	return out
}

// CompressedBytes returns the 0x02/0x03‖X encoding, or nil for infinity.
func (p Point) CompressedBytes() []byte {
	if p.inf {
		return nil
	}
	out := make([]byte, compressedLen)
	x := p.x.Bytes()
	y := p.y.Bytes()
	out[0] = prefixEven
	if y[ByteLen-1]&1 == 1 {
		out[0] = prefixOdd
	}
	copy(out[1:], x[:])
	return out
}
