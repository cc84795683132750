package schnorr

import (
	"context"
	"crypto/rand"
	"io"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultMaxSteps bounds every search loop of the generator.
const DefaultMaxSteps = 4096

// Generator produces domain parameters in the DSA style. A Generator owns its random
// source; share one between goroutines only if Rand is safe for concurrent use
// (crypto/rand.Reader is).
type Generator struct {
	Certainty int
	MaxSteps  int
	Rand      io.Reader
	Logger    logrus.FieldLogger
}

type GeneratorOption func(*Generator)

func WithCertainty(certainty int) GeneratorOption {
	return func(g *Generator) { g.Certainty = certainty }
}

func WithMaxSteps(steps int) GeneratorOption {
	return func(g *Generator) { g.MaxSteps = steps }
}

func WithRand(rng io.Reader) GeneratorOption {
	return func(g *Generator) { g.Rand = rng }
}

func WithLogger(logger logrus.FieldLogger) GeneratorOption {
	return func(g *Generator) { g.Logger = logger }
}

func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		Certainty: DefaultCertainty,
		MaxSteps:  DefaultMaxSteps,
		Rand:      rand.Reader,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate runs one bounded attempt: q search, p search, a search and the q < p sanity
// check. Exhausting a bound yields a *GenerationError; retrying is up to the caller.
func (g *Generator) Generate(ctx context.Context, level SecurityLevel) (*Parameters, error) {
	if !level.Valid() {
		return nil, &levelError{level: level}
	}
	logger := g.logger().WithFields(logrus.Fields{
		"level":     level.String(),
		"certainty": g.certainty(),
	})
	start := time.Now()

	q, err := g.generateQ(ctx, level, logger)
	if err != nil {
		return nil, err
	}
	p, err := g.generateP(ctx, level, q, logger)
	if err != nil {
		return nil, err
	}
	a, err := g.generateA(ctx, p, q, logger)
	if err != nil {
		return nil, err
	}
	if new(big.Int).Mod(q, p).Cmp(q) != 0 {
		logger.Warn("q is not reduced modulo p, discarding parameters")
		return nil, &GenerationError{Factor: "sanity"}
	}

	logger.WithField("took", time.Since(start).String()).Info("domain parameters generated")
	return &Parameters{level: level, p: p, q: q, a: a}, nil
}

// generateQ draws a q-bit odd candidate with its top bit set and walks upwards until it
// hits a probable prime.
func (g *Generator) generateQ(ctx context.Context, level SecurityLevel, logger logrus.FieldLogger) (*big.Int, error) {
	start := time.Now()
	bits := level.QBits()
	q, err := RandomBits(bits, g.Rand)
	if err != nil {
		return nil, err
	}
	q.SetBit(q, bits-1, 1)
	q.SetBit(q, 0, 1)

	maxSteps := g.maxSteps()
	for step := 0; step < maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if IsProbablePrime(q, g.certainty()) {
			logger.WithFields(logrus.Fields{
				"factor": "q",
				"steps":  step + 1,
				"took":   time.Since(start).String(),
			}).Debug("generated q")
			return q, nil
		}
		q.Add(q, one)
	}
	logger.WithField("factor", "q").Warn("q search exhausted")
	return nil, &GenerationError{Factor: "q", Steps: maxSteps}
}

// generateP looks for p = M - (M mod 2q) + 1, which is congruent to 1 modulo 2q and
// therefore has q as a divisor of p-1. M keeps its top bit; a candidate that still
// falls short of the full length is dropped and counts as a step.
func (g *Generator) generateP(ctx context.Context, level SecurityLevel, q *big.Int, logger logrus.FieldLogger) (*big.Int, error) {
	start := time.Now()
	twoQ := new(big.Int).Lsh(q, 1)
	mr := new(big.Int)

	maxSteps := g.maxSteps()
	for step := 0; step < maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := RandomBits(level.PBits(), g.Rand)
		if err != nil {
			return nil, err
		}
		m.SetBit(m, level.PBits()-1, 1)
		mr.Mod(m, twoQ)
		p := m.Sub(m, mr).Add(m, one)
		if p.BitLen() != level.PBits() {
			continue
		}
		if IsProbablePrime(p, g.certainty()) {
			logger.WithFields(logrus.Fields{
				"factor": "p",
				"steps":  step + 1,
				"took":   time.Since(start).String(),
			}).Debug("generated p")
			return p, nil
		}
	}
	logger.WithField("factor", "p").Warn("p search exhausted")
	return nil, &GenerationError{Factor: "p", Steps: maxSteps}
}

// generateA raises h in [1, p-1) to (p-1)/q and keeps the first result different from 1.
func (g *Generator) generateA(ctx context.Context, p, q *big.Int, logger logrus.FieldLogger) (*big.Int, error) {
	start := time.Now()
	pm1 := new(big.Int).Sub(p, one)
	exp := new(big.Int).Div(pm1, q)

	h, err := RandomBelow(new(big.Int).Sub(pm1, one), g.Rand)
	if err != nil {
		return nil, err
	}
	h.Add(h, one)

	maxSteps := g.maxSteps()
	for step := 0; step < maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a := PowMod(h, exp, p)
		if a.Cmp(one) != 0 {
			logger.WithFields(logrus.Fields{
				"factor": "a",
				"steps":  step + 1,
				"took":   time.Since(start).String(),
			}).Debug("generated a")
			return a, nil
		}
		h.Add(h, one)
		if h.Cmp(pm1) >= 0 {
			h.SetInt64(1)
		}
	}
	logger.WithField("factor", "a").Warn("a search exhausted")
	return nil, &GenerationError{Factor: "a", Steps: maxSteps}
}

func (g *Generator) certainty() int {
	if g.Certainty <= 0 {
		return DefaultCertainty
	}
	return g.Certainty
}

func (g *Generator) maxSteps() int {
	if g.MaxSteps <= 0 {
		return DefaultMaxSteps
	}
	return g.MaxSteps
}

func (g *Generator) logger() logrus.FieldLogger {
	if g.Logger == nil {
		return discardLogger
	}
	return g.Logger
}

var discardLogger = func() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

type levelError struct {
	level SecurityLevel
}

func (e *levelError) Error() string {
	return ErrUnknownLevel.Error() + ": " + e.level.String()
}

func (e *levelError) Is(target error) bool {
	return target == ErrUnknownLevel
}
