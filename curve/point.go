package curve

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Point is an affine point of the curve or the point at infinity. The zero
// value is not a valid point; use NewPoint, DecodePoint, Generator or Infinity.
type Point struct {
	x, y fr.Element
	inf  bool
}

// NewPoint builds a point from affine coordinates. Coordinates must be
// reduced into [0, p) and satisfy the curve equation.
func NewPoint(x, y *big.Int) (Point, error) {
	if x == nil || y == nil {
		return Point{}, fmt.Errorf("%w: missing coordinate", ErrInvalidPoint)
	}
	if x.Sign() < 0 || x.Cmp(params.P) >= 0 || y.Sign() < 0 || y.Cmp(params.P) >= 0 {
		return Point{}, fmt.Errorf("%w: coordinate out of field range", ErrInvalidPoint)
	}

	var p Point
	p.x.SetBigInt(x)
	p.y.SetBigInt(y)
	if !isOnCurve(&p.x, &p.y) {
		return Point{}, fmt.Errorf("%w: point is not on the curve", ErrInvalidPoint)
	}
	return p, nil
}

// Generator returns the base point G.
func Generator() Point {
	return generator
}

// Infinity returns the identity element.
func Infinity() Point {
	return Point{inf: true}
}

// IsInfinity reports whether p is the identity element.
func (p Point) IsInfinity() bool {
	return p.inf
}

// X returns the affine x coordinate, or nil for the point at infinity.
func (p Point) X() *big.Int {
	if p.inf {
		return nil
	}
	return p.x.BigInt(new(big.Int))
}

// Y returns the affine y coordinate, or nil for the point at infinity.
func (p Point) Y() *big.Int {
	if p.inf {
		return nil
	}
	return p.y.BigInt(new(big.Int))
}

// Equal reports whether p and q are the same point.
func (p Point) Equal(q Point) bool {
	if p.inf || q.inf {
		return p.inf == q.inf
	}
	return p.x.Equal(&q.x) && p.y.Equal(&q.y)
}

// IsOnCurve reports whether p is the identity or satisfies the curve equation.
func (p Point) IsOnCurve() bool {
	if p.inf {
		return true
	}
	return isOnCurve(&p.x, &p.y)
}

func (p Point) String() string {
	if p.inf {
		return "(inf)"
	}
	return fmt.Sprintf("(%s, %s)", p.x.String(), p.y.String())
}

// isOnCurve checks y² = x³ + ax + b.
func isOnCurve(x, y *fr.Element) bool {
	var lhs, rhs fr.Element
	lhs.Square(y)
	weierstrassRHS(&rhs, x)
	return lhs.Equal(&rhs)
}

// weierstrassRHS sets z = x³ + ax + b.
func weierstrassRHS(z, x *fr.Element) *fr.Element {
	var t fr.Element
	z.Square(x)
	z.Mul(z, x)
	t.Mul(&coeffA, x)
	z.Add(z, &t)
	z.Add(z, &coeffB)
	return z
}

// Add returns p + q.
func Add(p, q Point) Point {
	var jp, jq, out jacobianPoint
	jp.fromAffine(&p)
	jq.fromAffine(&q)
	out.add(&jp, &jq)
	return out.toAffine()
}

// Double returns 2p.
func Double(p Point) Point {
	var jp, out jacobianPoint
	jp.fromAffine(&p)
	out.double(&jp)
	return out.toAffine()
}

// Neg returns -p.
func Neg(p Point) Point {
	if p.inf {
		return p
	}
	out := p
	out.y.Neg(&p.y)
	return out
}

// ScalarMult returns k·p. Negative scalars are rejected by returning the
// identity; callers reduce scalars mod n beforehand.
func ScalarMult(k *big.Int, p Point) Point {
	if k.Sign() < 0 {
		return Infinity()
	}
	var jp, out jacobianPoint
	jp.fromAffine(&p)
	out.ladder(k, &jp)
	return out.toAffine()
}

// ScalarBaseMult returns k·G.
func ScalarBaseMult(k *big.Int) Point {
	return ScalarMult(k, generator)
}

// MulAdd returns u1·G + u2·q, staying in projective coordinates until the
// final conversion.
func MulAdd(u1, u2 *big.Int, q Point) Point {
	if u1.Sign() < 0 || u2.Sign() < 0 {
		return Infinity()
	}
	var jg, jq, a, b, out jacobianPoint
	jg.fromAffine(&generator)
	jq.fromAffine(&q)
	a.ladder(u1, &jg)
	b.ladder(u2, &jq)
	out.add(&a, &b)
	return out.toAffine()
}

// InSubgroup reports whether n·p is the identity.
func InSubgroup(p Point) bool {
	return ScalarMult(params.N, p).IsInfinity()
}
