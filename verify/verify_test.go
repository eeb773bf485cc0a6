package verify

import (
	"bytes"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchorageoss/haloverify/curve"
	"github.com/anchorageoss/haloverify/message"
	"github.com/anchorageoss/haloverify/signature"
	"github.com/anchorageoss/haloverify/testdata"
)

// testSigner produces counter attestations with a known key. It can emit r
// without reducing it mod n, the way affected JCOP tags do.
type testSigner struct {
	d   *big.Int
	pub curve.Point
}

func newTestSigner(seed string) *testSigner {
	d := new(big.Int).SetBytes([]byte(seed))
	d.Mod(d, curve.Order())
	return &testSigner{d: d, pub: curve.ScalarBaseMult(d)}
}

func (ts *testSigner) pkn() []byte {
	return append([]byte{0x62, 0x00}, ts.pub.Bytes()...)
}

// sign returns the unreduced x coordinate of k·G, the reduced r and s.
func (ts *testSigner) sign(t *testing.T, nonce []byte, k *big.Int) (rawR, r, s *big.Int) {
	t.Helper()
	n := curve.Order()

	p := curve.ScalarBaseMult(k)
	rawR = p.X()
	r = new(big.Int).Mod(rawR, n)
	require.NotZero(t, r.Sign())

	digest := message.Digest(message.CounterAttestation(nonce))
	e := hashToInt(digest[:])

	kInv, err := curve.InverseModN(k)
	require.NoError(t, err)

	s = new(big.Int).Mul(r, ts.d)
	s.Add(s, e)
	s.Mul(s, kInv)
	s.Mod(s, n)
	require.NotZero(t, s.Sign())
	return rawR, r, s
}

// signUnreduced searches for a nonce scalar whose x coordinate is at least n
// and returns the DER signature carrying that unreduced r.
func (ts *testSigner) signUnreduced(t *testing.T, nonce []byte) (der []byte, rawR, r *big.Int) {
	t.Helper()
	for k := int64(1000); k < 1100; k++ {
		rawR, r, s := ts.sign(t, nonce, big.NewInt(k))
		if rawR.Cmp(curve.Order()) < 0 {
			continue
		}
		der, err := signature.Encode(signature.Signature{R: rawR, S: s})
		require.NoError(t, err)
		return der, rawR, r
	}
	t.Fatal("no unreduced r found")
	return nil, nil, nil
}

func mustDER(t *testing.T, r, s *big.Int) []byte {
	t.Helper()
	der, err := signature.Encode(signature.Signature{R: r, S: s})
	require.NoError(t, err)
	return der
}

func TestVerifyAttestationVectors(t *testing.T) {
	for _, v := range testdata.BJJVectors() {
		t.Run(v.Name, func(t *testing.T) {
			pkn, rnd, rndsig := v.Bytes()

			result, err := VerifyAttestation(pkn, rnd, rndsig)
			require.NoError(t, err)
			require.Equal(t, v.Counter, result.Counter)
			require.Equal(t, pkn[2:], result.PublicKey)
			require.Equal(t, KeyRecord{Slot: 0x62, Flags: 0x00}, result.Key)
			require.Equal(t, rnd, result.Nonce)
			require.Equal(t, testdata.MustHex(v.Canonical), result.Signature)

			t.Run("result does not alias inputs", func(t *testing.T) {
				pkn[len(pkn)-1] ^= 0xff
				rnd[len(rnd)-1] ^= 0xff
				require.NotEqual(t, pkn[2:], result.PublicKey)
				require.NotEqual(t, rnd, result.Nonce)
			})
		})
	}
}

func TestVerifyAttestationScenario(t *testing.T) {
	pkn := testdata.MustHex("62000416FFE77D0F9044B209663A96F1FDF8C41A4C75212F520B1013C64F3AD0193FD7118EB2A50D78520DE66B1D3F89048B7189FCAC8B1B3B5C21834A1E87916D8303")
	rnd := testdata.MustHex("000005443E81D2B4E37955C50CA0E4C580B8EEEE2319B090D5D516D74C357FB7")
	rndsig := testdata.MustHex("304402201F595063ABCC72A8EAA60621A30B9AD2DF77F5D6BEF704435B3DD508CE27A0CA02200426D2E5E9590E46130A034AE47A8A6C12BB3FC770C68A3C1AC49BC302DF0CF70000")

	result, err := VerifyAttestation(pkn, rnd, rndsig)
	require.NoError(t, err)
	require.Equal(t, uint32(0x00000544), result.Counter)
	require.Equal(t, uint32(1348), result.Counter)
}

func TestVerifyAttestationBitFlips(t *testing.T) {
	v := testdata.BJJVectors()[0]

	t.Run("rnd", func(t *testing.T) {
		pkn, rnd, rndsig := v.Bytes()
		for i := range rnd {
			for bit := 0; bit < 8; bit++ {
				rnd[i] ^= 1 << bit
				_, err := VerifyAttestation(pkn, rnd, rndsig)
				require.ErrorIs(t, err, ErrBadSignature, "byte %d bit %d", i, bit)
				rnd[i] ^= 1 << bit
			}
		}
	})

	t.Run("public key", func(t *testing.T) {
		pkn, rnd, rndsig := v.Bytes()
		for i := 2; i < len(pkn); i++ {
			for bit := 0; bit < 8; bit++ {
				pkn[i] ^= 1 << bit
				_, err := VerifyAttestation(pkn, rnd, rndsig)
				require.ErrorIs(t, err, ErrBadSignature, "byte %d bit %d", i, bit)
				pkn[i] ^= 1 << bit
			}
		}
	})

	t.Run("signature values", func(t *testing.T) {
		pkn, rnd, rndsig := v.Bytes()
		// r occupies bytes 4..35 and s bytes 38..69. The leading byte of each
		// is skipped: a flipped sign bit is a format error, not a bad signature.
		ranges := [][2]int{{5, 36}, {39, 70}}
		for _, rng := range ranges {
			for i := rng[0]; i < rng[1]; i++ {
				for bit := 0; bit < 8; bit++ {
					rndsig[i] ^= 1 << bit
					_, err := VerifyAttestation(pkn, rnd, rndsig)
					require.ErrorIs(t, err, ErrBadSignature, "byte %d bit %d", i, bit)
					rndsig[i] ^= 1 << bit
				}
			}
		}
	})

	t.Run("signature header", func(t *testing.T) {
		pkn, rnd, rndsig := v.Bytes()
		for _, i := range []int{0, 1, 2, 3, 4, 36, 37, 38} {
			for bit := 0; bit < 8; bit++ {
				rndsig[i] ^= 1 << bit
				_, err := VerifyAttestation(pkn, rnd, rndsig)
				require.True(t,
					errors.Is(err, ErrBadSignature) || errors.Is(err, signature.ErrSignatureFormat),
					"byte %d bit %d: %v", i, bit, err)
				rndsig[i] ^= 1 << bit
			}
		}
	})

	t.Run("padding is ignored", func(t *testing.T) {
		pkn, rnd, rndsig := v.Bytes()
		rndsig[len(rndsig)-1] ^= 0xff
		_, err := VerifyAttestation(pkn, rnd, rndsig)
		require.NoError(t, err)
	})
}

func TestVerifyAttestationErrors(t *testing.T) {
	v := testdata.BJJVectors()[0]
	pkn, rnd, rndsig := v.Bytes()

	t.Run("short pkn", func(t *testing.T) {
		for _, b := range [][]byte{nil, pkn[:1], pkn[:2]} {
			_, err := VerifyAttestation(b, rnd, rndsig)
			require.ErrorIs(t, err, ErrBadSignature)
			require.ErrorIs(t, err, curve.ErrInvalidPoint)
		}
	})

	t.Run("off-curve key", func(t *testing.T) {
		bad := append([]byte{}, pkn...)
		bad[len(bad)-1] ^= 0x01
		_, err := VerifyAttestation(bad, rnd, rndsig)
		require.ErrorIs(t, err, ErrBadSignature)
		require.ErrorIs(t, err, curve.ErrInvalidPoint)
	})

	t.Run("malformed signature", func(t *testing.T) {
		_, err := VerifyAttestation(pkn, rnd, []byte{0x30, 0x02, 0x02, 0x00})
		require.ErrorIs(t, err, signature.ErrSignatureFormat)
		require.NotErrorIs(t, err, ErrBadSignature)
	})

	t.Run("r is a multiple of n", func(t *testing.T) {
		sig, err := signature.Decode(rndsig)
		require.NoError(t, err)

		_, err = VerifyAttestation(pkn, rnd, mustDER(t, curve.Order(), sig.S))
		require.ErrorIs(t, err, ErrBadSignature)
	})

	t.Run("s out of range", func(t *testing.T) {
		sig, err := signature.Decode(rndsig)
		require.NoError(t, err)

		s := new(big.Int).Add(sig.S, curve.Order())
		_, err = VerifyAttestation(pkn, rnd, mustDER(t, sig.R, s))
		require.ErrorIs(t, err, ErrBadSignature)
	})

	t.Run("another key", func(t *testing.T) {
		other := newTestSigner("another tag")
		_, err := VerifyAttestation(other.pkn(), rnd, rndsig)
		require.ErrorIs(t, err, ErrBadSignature)
		require.NotErrorIs(t, err, curve.ErrInvalidPoint)
	})
}

func TestDigestTruncation(t *testing.T) {
	for _, v := range testdata.BJJVectors() {
		t.Run(v.Name, func(t *testing.T) {
			pkn, rnd, rndsig := v.Bytes()

			pub, err := curve.DecodePoint(pkn[2:])
			require.NoError(t, err)
			sig, err := signature.Decode(rndsig)
			require.NoError(t, err)
			r := signature.Correct(sig.R)

			digest := message.Digest(message.CounterAttestation(rnd))
			full := new(big.Int).SetBytes(digest[:])

			require.Equal(t, 0, hashToInt(digest[:]).Cmp(new(big.Int).Rsh(full, 5)))
			require.True(t, verifyInt(pub, hashToInt(digest[:]), r, sig.S))
			require.False(t, verifyInt(pub, full, r, sig.S), "untruncated digest must not verify")
		})
	}

	t.Run("short digest is used as is", func(t *testing.T) {
		require.Equal(t, int64(0x0102), hashToInt([]byte{0x01, 0x02}).Int64())
	})
}

func TestCorrectionIsRequired(t *testing.T) {
	t.Run("published vector", func(t *testing.T) {
		v := testdata.BJJVectors()[0]
		pkn, rnd, rndsig := v.Bytes()

		pub, err := curve.DecodePoint(pkn[2:])
		require.NoError(t, err)
		sig, err := signature.Decode(rndsig)
		require.NoError(t, err)
		digest := message.Digest(message.CounterAttestation(rnd))

		require.ErrorIs(t, Verify(pub, digest[:], sig.R, sig.S), ErrBadSignature)
		require.NoError(t, Verify(pub, digest[:], signature.Correct(sig.R), sig.S))
	})

	t.Run("r+n representative", func(t *testing.T) {
		v := testdata.BJJVectors()[1]
		pkn, rnd, rndsig := v.Bytes()

		sig, err := signature.Decode(rndsig)
		require.NoError(t, err)
		r := signature.Correct(sig.R)
		rPlusN := new(big.Int).Add(r, curve.Order())

		canonical, err := VerifyAttestation(pkn, rnd, mustDER(t, r, sig.S))
		require.NoError(t, err)
		shifted, err := VerifyAttestation(pkn, rnd, mustDER(t, rPlusN, sig.S))
		require.NoError(t, err)
		require.Equal(t, canonical, shifted)

		pub, err := curve.DecodePoint(pkn[2:])
		require.NoError(t, err)
		digest := message.Digest(message.CounterAttestation(rnd))
		require.ErrorIs(t, Verify(pub, digest[:], rPlusN, sig.S), ErrBadSignature)
	})

	t.Run("signer emitting unreduced r", func(t *testing.T) {
		ts := newTestSigner("halo test key")
		nonce := append([]byte{0x00, 0x00, 0x00, 0x2a}, bytes.Repeat([]byte{0x5c}, 29)...)

		der, rawR, r := ts.signUnreduced(t, nonce)
		require.NotEqual(t, 0, rawR.Cmp(r))

		result, err := VerifyAttestation(ts.pkn(), nonce, der)
		require.NoError(t, err)
		require.Equal(t, uint32(42), result.Counter)

		sig, err := signature.Decode(der)
		require.NoError(t, err)
		digest := message.Digest(message.CounterAttestation(nonce))
		require.ErrorIs(t, Verify(ts.pub, digest[:], sig.R, sig.S), ErrBadSignature)
	})
}

func TestFixedSignatureVerifies(t *testing.T) {
	for _, v := range testdata.BJJVectors() {
		t.Run(v.Name, func(t *testing.T) {
			pkn, rnd, rndsig := v.Bytes()

			fixed, err := signature.Fix(rndsig)
			require.NoError(t, err)

			result, err := VerifyAttestation(pkn, rnd, fixed)
			require.NoError(t, err)
			require.Equal(t, v.Counter, result.Counter)
		})
	}
}

func TestVerify(t *testing.T) {
	ts := newTestSigner("verify key")
	nonce := []byte{0x00, 0x00, 0x01, 0x00, 0xff}
	_, r, s := ts.sign(t, nonce, big.NewInt(77))
	digest := message.Digest(message.CounterAttestation(nonce))

	require.NoError(t, Verify(ts.pub, digest[:], r, s))

	n := curve.Order()
	tests := []struct {
		name string
		pub  curve.Point
		r, s *big.Int
	}{
		{"zero r", ts.pub, big.NewInt(0), s},
		{"zero s", ts.pub, r, big.NewInt(0)},
		{"r equals n", ts.pub, n, s},
		{"s equals n", ts.pub, r, n},
		{"negative s", ts.pub, r, new(big.Int).Neg(s)},
		{"nil r", ts.pub, nil, s},
		{"swapped", ts.pub, s, r},
		{"infinity key", curve.Infinity(), r, s},
		{"generator key", curve.Generator(), r, s},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, Verify(tt.pub, digest[:], tt.r, tt.s), ErrBadSignature)
		})
	}
}

func TestShortNonce(t *testing.T) {
	ts := newTestSigner("short nonce key")
	nonce := []byte{0x01, 0x02, 0x03}
	_, r, s := ts.sign(t, nonce, big.NewInt(5))

	_, err := VerifyAttestation(ts.pkn(), nonce, mustDER(t, r, s))
	require.ErrorIs(t, err, ErrLength)
}

func TestExtractCounter(t *testing.T) {
	tests := []struct {
		name    string
		nonce   []byte
		want    uint32
		wantErr bool
	}{
		{"four bytes", []byte{0x00, 0x00, 0x05, 0x44}, 1348, false},
		{"longer nonce", []byte{0x00, 0x00, 0x05, 0x49, 0xff, 0xff}, 1353, false},
		{"max", []byte{0xff, 0xff, 0xff, 0xff}, 0xffffffff, false},
		{"zero", make([]byte, 33), 0, false},
		{"three bytes", []byte{0x00, 0x00, 0x05}, 0, true},
		{"empty", nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractCounter(tt.nonce)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrLength)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	t.Run("independent of signature", func(t *testing.T) {
		v := testdata.BJJVectors()[2]
		_, rnd, _ := v.Bytes()
		got, err := ExtractCounter(rnd)
		require.NoError(t, err)
		require.Equal(t, v.Counter, got)
	})
}

func TestVerifyAttestationConcurrent(t *testing.T) {
	vectors := testdata.BJJVectors()

	var wg sync.WaitGroup
	errs := make(chan error, 16*len(vectors))
	for i := 0; i < 16; i++ {
		for _, v := range vectors {
			v := v
			wg.Add(1)
			go func() {
				defer wg.Done()
				pkn, rnd, rndsig := v.Bytes()
				result, err := VerifyAttestation(pkn, rnd, rndsig)
				if err == nil && result.Counter != v.Counter {
					err = assert.AnError
				}
				errs <- err
			}()
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
}
