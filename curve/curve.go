// Package curve implements the BabyJubJub group in short Weierstrass form, the
// curve HaLo tags use for their dynamic URL counter signatures.
//
// The curve is y² = x³ + ax + b over the BN254 scalar field, so field elements
// are gnark-crypto fr.Element values and always live in [0, p). Points are
// affine and immutable; arithmetic runs internally in Jacobian coordinates.
//
// # Parameters
//
// There is exactly one curve. Its constants are built once when the package
// is initialised and never change:
//
//	params := curve.Params()
//	fmt.Println(params.N.BitLen()) // 251
//
// # Points
//
// Public keys arrive as byte strings and are decoded with DecodePoint, which
// rejects anything that is not a finite point of the order-n subgroup:
//
//	pub, err := curve.DecodePoint(pkn[2:])
//	if errors.Is(err, curve.ErrInvalidPoint) {
//		// reject
//	}
//
// # Scalar multiplication
//
// ScalarMult and MulAdd use a Montgomery ladder whose iteration count depends
// only on the bit length of the scalar and of the group order.
package curve

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// ErrInvalidPoint is returned when coordinates or an encoding do not describe a
// valid point of the group.
var ErrInvalidPoint = errors.New("invalid curve point")

const (
	hexP  = "30644e72e131a029b85045b68181585d2833e84879b9709143e1f593f0000001"
	hexA  = "10216f7ba065e00de81ac1e7808072c9b8114d6d7de87adb16a0a72f1a91f6a0"
	hexB  = "23d885f647fed5743cad3d1ee4aba9c043b4ac0fc2766658a410efdeb21f706e"
	hexGx = "1fde0a3cac7cb46b36c79f4c0a7a732e38c2c7ee9ac41f44392a07b748a0869f"
	hexGy = "203a710160811d5c07ebaeb8fe1d9ce201c66b970d66f18d0d2b264c195309aa"
	hexN  = "060c89ce5c263405370a08b6d0302b0bab3eedb83920ee0a677297dc392126f1"
)

// Parameters describes the curve y² = x³ + Ax + B over GF(P) with base point
// (Gx, Gy) of prime order N.
type Parameters struct {
	P, A, B *big.Int
	Gx, Gy  *big.Int
	N       *big.Int
}

// ByteLen is the length of an encoded coordinate.
const ByteLen = fr.Bytes

var (
	params Parameters

	// field copies of a and b used by the point formulas
	coeffA, coeffB fr.Element

	generator Point

	orderBits int
)

func init() {
	params = Parameters{
		P:  mustHex(hexP),
		A:  mustHex(hexA),
		B:  mustHex(hexB),
		Gx: mustHex(hexGx),
		Gy: mustHex(hexGy),
		N:  mustHex(hexN),
	}
	if params.P.Cmp(fr.Modulus()) != 0 {
		panic("curve: base field does not match bn254 fr")
	}

	coeffA.SetBigInt(params.A)
	coeffB.SetBigInt(params.B)
	orderBits = params.N.BitLen()

	g, err := NewPoint(params.Gx, params.Gy)
	if err != nil {
		panic("curve: generator is not on the curve")
	}
	generator = g
}

func mustHex(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("curve: bad constant " + s)
	}
	return v
}

// Params returns a copy of the curve parameters.
func Params() Parameters {
	return Parameters{
		P:  new(big.Int).Set(params.P),
		A:  new(big.Int).Set(params.A),
		B:  new(big.Int).Set(params.B),
		Gx: new(big.Int).Set(params.Gx),
		Gy: new(big.Int).Set(params.Gy),
		N:  new(big.Int).Set(params.N),
	}
}

// Order returns the group order n. The returned value must not be modified.
func Order() *big.Int {
	return params.N
}

// OrderBits is the bit length of n.
func OrderBits() int {
	return orderBits
}

// InverseModN returns k⁻¹ mod n.
func InverseModN(k *big.Int) (*big.Int, error) {
	kn := new(big.Int).Mod(k, params.N)
	if kn.Sign() == 0 {
		return nil, errors.New("scalar is not invertible mod n")
	}
	return new(big.Int).ModInverse(kn, params.N), nil
}
