package curve

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// jacobianPoint holds (X, Y, Z) with x = X/Z², y = Y/Z³. Z == 0 is infinity.
type jacobianPoint struct {
	x, y, z fr.Element
}

func (p *jacobianPoint) setInfinity() *jacobianPoint {
	p.x.SetOne()
	p.y.SetOne()
	p.z.SetZero()
	return p
}

func (p *jacobianPoint) isInfinity() bool {
	return p.z.IsZero()
}

func (p *jacobianPoint) fromAffine(a *Point) *jacobianPoint {
	if a.inf {
		return p.setInfinity()
	}
	p.x.Set(&a.x)
	p.y.Set(&a.y)
	p.z.SetOne()
	return p
}

func (p *jacobianPoint) toAffine() Point {
	if p.isInfinity() {
		return Infinity()
	}
	var zInv, zInv2 fr.Element
	zInv.Inverse(&p.z)
	zInv2.Square(&zInv)

	var out Point
	out.x.Mul(&p.x, &zInv2)
	out.y.Mul(&p.y, &zInv2)
	out.y.Mul(&out.y, &zInv)
	return out
}

// double sets p = 2q using dbl-2007-bl, which handles an arbitrary a.
func (p *jacobianPoint) double(q *jacobianPoint) *jacobianPoint {
	if q.isInfinity() {
		return p.setInfinity()
	}

	var xx, yy, yyyy, zz, s, m, t, tmp fr.Element
	xx.Square(&q.x)
	yy.Square(&q.y)
	yyyy.Square(&yy)
	zz.Square(&q.z)

	// S = 2·((X + YY)² - XX - YYYY)
	s.Add(&q.x, &yy)
	s.Square(&s)
	s.Sub(&s, &xx)
	s.Sub(&s, &yyyy)
	s.Double(&s)

	// M = 3·XX + a·ZZ²
	m.Double(&xx)
	m.Add(&m, &xx)
	tmp.Square(&zz)
	tmp.Mul(&tmp, &coeffA)
	m.Add(&m, &tmp)

	// T = M² - 2·S
	t.Square(&m)
	tmp.Double(&s)
	t.Sub(&t, &tmp)

	var x3, y3, z3 fr.Element
	x3.Set(&t)

	// Y3 = M·(S - T) - 8·YYYY
	tmp.Sub(&s, &t)
	y3.Mul(&m, &tmp)
	yyyy.Double(&yyyy)
	yyyy.Double(&yyyy)
	yyyy.Double(&yyyy)
	y3.Sub(&y3, &yyyy)

	// Z3 = (Y + Z)² - YY - ZZ
	z3.Add(&q.y, &q.z)
	z3.Square(&z3)
	z3.Sub(&z3, &yy)
	z3.Sub(&z3, &zz)

	p.x, p.y, p.z = x3, y3, z3
	return p
}

// add sets p = q + r using add-2007-bl.
func (p *jacobianPoint) add(q, r *jacobianPoint) *jacobianPoint {
	if q.isInfinity() {
		*p = *r
		return p
	}
	if r.isInfinity() {
		*p = *q
		return p
	}

	var z1z1, z2z2, u1, u2, s1, s2, h, rr fr.Element
	z1z1.Square(&q.z)
	z2z2.Square(&r.z)
	u1.Mul(&q.x, &z2z2)
	u2.Mul(&r.x, &z1z1)
	s1.Mul(&q.y, &r.z)
	s1.Mul(&s1, &z2z2)
	s2.Mul(&r.y, &q.z)
	s2.Mul(&s2, &z1z1)

	h.Sub(&u2, &u1)
	rr.Sub(&s2, &s1)
	if h.IsZero() {
		if rr.IsZero() {
			return p.double(q)
		}
		return p.setInfinity()
	}

	var i, j, v, tmp fr.Element
	i.Double(&h)
	i.Square(&i)
	j.Mul(&h, &i)
	rr.Double(&rr)
	v.Mul(&u1, &i)

	var x3, y3, z3 fr.Element
	// X3 = r² - J - 2·V
	x3.Square(&rr)
	x3.Sub(&x3, &j)
	tmp.Double(&v)
	x3.Sub(&x3, &tmp)

	// Y3 = r·(V - X3) - 2·S1·J
	tmp.Sub(&v, &x3)
	y3.Mul(&rr, &tmp)
	tmp.Mul(&s1, &j)
	tmp.Double(&tmp)
	y3.Sub(&y3, &tmp)

	// Z3 = ((Z1 + Z2)² - Z1Z1 - Z2Z2)·H
	z3.Add(&q.z, &r.z)
	z3.Square(&z3)
	z3.Sub(&z3, &z1z1)
	z3.Sub(&z3, &z2z2)
	z3.Mul(&z3, &h)

	p.x, p.y, p.z = x3, y3, z3
	return p
}

// ladder sets p = k·q. Every step performs one addition and one doubling, and
// the number of steps is max(bitlen(n), bitlen(k)).
func (p *jacobianPoint) ladder(k *big.Int, q *jacobianPoint) *jacobianPoint {
	bits := orderBits
	if k.BitLen() > bits {
		bits = k.BitLen()
	}

	var r0, r1 jacobianPoint
	r0.setInfinity()
	r1 = *q
	for i := bits - 1; i >= 0; i-- {
		if k.Bit(i) == 0 {
			r1.add(&r0, &r1)
			r0.double(&r0)
		} else {
			r0.add(&r0, &r1)
			r1.double(&r1)
		}
	}
	*p = r0
	return p
}
