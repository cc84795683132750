package schnorr

import (
	"bytes"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"math/big"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// HashAlgorithm names the 512-bit digest used to derive challenges.
type HashAlgorithm string

const (
	SHA512     HashAlgorithm = "sha512"
	SHA3_512   HashAlgorithm = "sha3-512"
	BLAKE2b512 HashAlgorithm = "blake2b-512"
)

// DefaultHash is the digest used when none is configured.
const DefaultHash = SHA512

// messageBlockSize is the chunk size used when hashing streamed messages.
const messageBlockSize = 1024

func ParseHashAlgorithm(name string) (HashAlgorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sha512", "sha-512":
		return SHA512, nil
	case "sha3-512", "sha3_512":
		return SHA3_512, nil
	case "blake2b-512", "blake2b":
		return BLAKE2b512, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrHashUnavailable, name)
	}
}

// NewHash returns a fresh digest for alg.
func NewHash(alg HashAlgorithm) (hash.Hash, error) {
	switch alg {
	case SHA512:
		return sha512.New(), nil
	case SHA3_512:
		return sha3.New512(), nil
	case BLAKE2b512:
		h, err := blake2b.New512(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrHashUnavailable, err)
		}
		return h, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrHashUnavailable, string(alg))
	}
}

// Challenge hashes message followed by the two's complement encoding of point and reads
// the digest as an unsigned big-endian integer.
func Challenge(alg HashAlgorithm, message []byte, point *big.Int) (*big.Int, error) {
	return ChallengeReader(alg, bytes.NewReader(message), point)
}

// ChallengeReader is Challenge for a lazily read message. The message is consumed in
// fixed-size blocks, so the result does not depend on how the bytes arrive.
func ChallengeReader(alg HashAlgorithm, message io.Reader, point *big.Int) (*big.Int, error) {
	if point == nil || point.Sign() < 0 {
		return nil, fmt.Errorf("schnorr: challenge point must be non-negative")
	}
	h, err := NewHash(alg)
	if err != nil {
		return nil, err
	}
	block := make([]byte, messageBlockSize)
	for {
		n, err := message.Read(block)
		if n > 0 {
			h.Write(block[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read message: %w", err)
		}
	}
	h.Write(twosComplement(point))
	return new(big.Int).SetBytes(h.Sum(nil)), nil
}
