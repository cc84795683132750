package schnorr

import (
	"fmt"
	"math/big"
)

// DefaultCertainty bounds the false-prime probability of p and q by 2^-10.
const DefaultCertainty = 10

// Parameters are the shared discrete-log domain parameters: a prime modulus P, a prime
// divisor Q of P-1 and an element A of order Q modulo P. Values are never mutated after
// construction; accessors hand out copies.
type Parameters struct {
	level SecurityLevel
	p     *big.Int
	q     *big.Int
	a     *big.Int
}

// NewParameters assembles parameters from raw values without checking them. Call
// Validate before trusting values that came from outside the generator.
func NewParameters(level SecurityLevel, p, q, a *big.Int) (*Parameters, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLevel, int(level))
	}
	if p == nil || q == nil || a == nil {
		return nil, fmt.Errorf("%w: p, q and a are required", ErrInvalidParameters)
	}
	return &Parameters{
		level: level,
		p:     new(big.Int).Set(p),
		q:     new(big.Int).Set(q),
		a:     new(big.Int).Set(a),
	}, nil
}

func (pr *Parameters) Level() SecurityLevel { return pr.level }

func (pr *Parameters) P() *big.Int { return new(big.Int).Set(pr.p) }

func (pr *Parameters) Q() *big.Int { return new(big.Int).Set(pr.q) }

func (pr *Parameters) A() *big.Int { return new(big.Int).Set(pr.a) }

// Validate checks every invariant of the domain parameters.
func (pr *Parameters) Validate(certainty int) error {
	if pr == nil || pr.p == nil || pr.q == nil || pr.a == nil {
		return fmt.Errorf("%w: missing values", ErrInvalidParameters)
	}
	if pr.q.Sign() <= 0 || pr.p.Cmp(two) <= 0 {
		return fmt.Errorf("%w: p and q must be positive", ErrInvalidParameters)
	}
	if !IsProbablePrime(pr.q, certainty) {
		return fmt.Errorf("%w: q is not prime", ErrInvalidParameters)
	}
	if !IsProbablePrime(pr.p, certainty) {
		return fmt.Errorf("%w: p is not prime", ErrInvalidParameters)
	}
	if new(big.Int).Mod(pr.q, pr.p).Cmp(pr.q) != 0 {
		return fmt.Errorf("%w: q must be smaller than p", ErrInvalidParameters)
	}
	pm1 := new(big.Int).Sub(pr.p, one)
	if new(big.Int).Mod(pm1, pr.q).Sign() != 0 {
		return fmt.Errorf("%w: q does not divide p-1", ErrInvalidParameters)
	}
	if pr.a.Sign() <= 0 || pr.a.Cmp(pr.p) >= 0 || pr.a.Cmp(one) == 0 {
		return fmt.Errorf("%w: a must lie in (1, p)", ErrInvalidParameters)
	}
	if PowMod(pr.a, pr.q, pr.p).Cmp(one) != 0 {
		return fmt.Errorf("%w: a^q mod p != 1", ErrInvalidParameters)
	}
	return nil
}

func (pr *Parameters) Equal(other *Parameters) bool {
	if pr == nil || other == nil {
		return pr == other
	}
	return pr.level == other.level &&
		pr.p.Cmp(other.p) == 0 &&
		pr.q.Cmp(other.q) == 0 &&
		pr.a.Cmp(other.a) == 0
}

func (pr *Parameters) String() string {
	return fmt.Sprintf("Parameters{level=%s, p=%s, q=%s, a=%s}",
		pr.level, pr.p.Text(16), pr.q.Text(16), pr.a.Text(16))
}
