package schnorr

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"
)

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// PowMod returns base^exponent mod modulus using left-to-right square-and-multiply.
// A negative or oversized base is reduced into [0, modulus) first. The exponent must be
// non-negative and the modulus greater than one.
func PowMod(base, exponent, modulus *big.Int) *big.Int {
	if modulus.Cmp(one) <= 0 {
		panic("schnorr: modulus must be greater than one")
	}
	if exponent.Sign() < 0 {
		panic("schnorr: negative exponent")
	}
	result := big.NewInt(1)
	if exponent.Sign() == 0 {
		return result
	}
	x := new(big.Int).Mod(base, modulus)
	if x.Sign() == 0 {
		return x
	}
	tmp := new(big.Int)
	for i := exponent.BitLen() - 1; i >= 0; i-- {
		tmp.Mul(result, result)
		result.Mod(tmp, modulus)
		if exponent.Bit(i) == 1 {
			tmp.Mul(result, x)
			result.Mod(tmp, modulus)
		}
	}
	return result
}

// RandomBits draws a uniform integer in [0, 2^bits).
func RandomBits(bits int, rng io.Reader) (*big.Int, error) {
	if bits <= 0 {
		return new(big.Int), nil
	}
	if rng == nil {
		rng = rand.Reader
	}
	buf := make([]byte, (bits+7)/8)
	if _, err := io.ReadFull(rng, buf); err != nil {
		return nil, err
	}
	if excess := uint(len(buf)*8 - bits); excess > 0 {
		buf[0] &= byte(0xff >> excess)
	}
	return new(big.Int).SetBytes(buf), nil
}

// RandomBelow draws a uniform integer in [0, bound) by rejection sampling on values
// of bound's bit length.
func RandomBelow(bound *big.Int, rng io.Reader) (*big.Int, error) {
	if bound == nil || bound.Sign() <= 0 {
		return nil, errors.New("schnorr: bound must be positive")
	}
	bits := bound.BitLen()
	for {
		v, err := RandomBits(bits, rng)
		if err != nil {
			return nil, err
		}
		if v.Cmp(bound) < 0 {
			return v, nil
		}
	}
}

// IsProbablePrime reports whether n is prime with a false-positive probability of at
// most 2^-certainty. Each Miller-Rabin round bounds the error by 1/4, so certainty/2
// rounds (rounded up) are run; big.Int adds a Baillie-PSW test on top. A non-positive
// certainty reports true.
func IsProbablePrime(n *big.Int, certainty int) bool {
	if certainty <= 0 {
		return true
	}
	if n.Sign() <= 0 {
		return false
	}
	return n.ProbablyPrime((certainty + 1) / 2)
}

// twosComplement encodes a non-negative integer as its minimal big-endian two's
// complement form: zero is a single 0x00 and a set top bit gets a leading 0x00.
func twosComplement(v *big.Int) []byte {
	b := v.Bytes()
	if len(b) == 0 || b[0]&0x80 != 0 {
		return append([]byte{0}, b...)
	}
	return b
}
