package schnorr

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/sirupsen/logrus"
)

// KeyStore persists key records. Save assigns the id; Get returns ErrRecordNotFound for
// an unknown id.
type KeyStore interface {
	Save(ctx context.Context, rec KeyRecord) (string, error)
	Get(ctx context.Context, id string) (KeyRecord, error)
}

// Engine signs and verifies messages against one set of domain parameters.
type Engine struct {
	params *Parameters
	hash   HashAlgorithm
	rand   io.Reader
	logger logrus.FieldLogger
}

type EngineOption func(*Engine)

func WithHash(alg HashAlgorithm) EngineOption {
	return func(e *Engine) { e.hash = alg }
}

func WithEngineRand(rng io.Reader) EngineOption {
	return func(e *Engine) { e.rand = rng }
}

func WithEngineLogger(logger logrus.FieldLogger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

func NewEngine(params *Parameters, opts ...EngineOption) (*Engine, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: nil parameters", ErrInvalidParameters)
	}
	e := &Engine{
		params: params,
		hash:   DefaultHash,
		rand:   rand.Reader,
		logger: discardLogger,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rand == nil {
		e.rand = rand.Reader
	}
	if e.logger == nil {
		e.logger = discardLogger
	}
	if _, err := NewHash(e.hash); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) Parameters() *Parameters { return e.params }

func (e *Engine) Hash() HashAlgorithm { return e.hash }

// Sign signs message with a fresh key pair.
func (e *Engine) Sign(message []byte) (*KeyRecord, error) {
	return e.SignReader(bytes.NewReader(message))
}

// SignReader signs the bytes read from r. The returned record has no id.
func (e *Engine) SignReader(r io.Reader) (*KeyRecord, error) {
	p, q, a := e.params.p, e.params.q, e.params.a
	secretBits := e.params.level.KeyBits() - 1

	x, err := RandomBits(secretBits, e.rand)
	if err != nil {
		return nil, err
	}
	pm1 := new(big.Int).Sub(p, one)
	negX := new(big.Int).Sub(pm1, new(big.Int).Mod(x, pm1))
	v := PowMod(a, negX, p)

	k, err := RandomBits(secretBits, e.rand)
	if err != nil {
		return nil, err
	}
	commitment := PowMod(a, k, p)

	challenge, err := ChallengeReader(e.hash, r, commitment)
	if err != nil {
		return nil, err
	}

	y := new(big.Int).Mul(x, challenge)
	y.Add(y, k)
	y.Mod(y, q)

	e.logger.WithFields(logrus.Fields{
		"level": e.params.level.String(),
		"hash":  string(e.hash),
	}).Debug("message signed")

	return &KeyRecord{
		PublicKey:  v,
		PrivateKey: x,
		FactorE:    challenge,
		FactorY:    y,
	}, nil
}

func (e *Engine) Verify(message []byte, rec KeyRecord) (bool, error) {
	return e.VerifyReader(bytes.NewReader(message), rec)
}

// VerifyReader recomputes the commitment from the record and compares challenges. The
// boolean is only meaningful when err is nil.
func (e *Engine) VerifyReader(r io.Reader, rec KeyRecord) (bool, error) {
	if err := rec.check(); err != nil {
		return false, err
	}
	p := e.params.p
	x1 := PowMod(e.params.a, rec.FactorY, p)
	x1.Mul(x1, PowMod(rec.PublicKey, rec.FactorE, p))
	x1.Mod(x1, p)

	challenge, err := ChallengeReader(e.hash, r, x1)
	if err != nil {
		return false, err
	}
	valid := challenge.Cmp(rec.FactorE) == 0
	e.logger.WithFields(logrus.Fields{
		"level": e.params.level.String(),
		"id":    rec.ID,
		"valid": valid,
	}).Debug("signature verified")
	return valid, nil
}

// SignTo signs r and persists the record in store. The returned record carries the id
// the store assigned.
func (e *Engine) SignTo(ctx context.Context, store KeyStore, r io.Reader) (*KeyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, err := e.SignReader(r)
	if err != nil {
		return nil, err
	}
	id, err := store.Save(ctx, rec.Clone())
	if err != nil {
		return nil, storeError("save", err)
	}
	rec.ID = id
	return rec, nil
}

// VerifyFrom loads record id from store and verifies r against it. Store failures are
// returned as *StoreError, never as false.
func (e *Engine) VerifyFrom(ctx context.Context, store KeyStore, id string, r io.Reader) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	rec, err := store.Get(ctx, id)
	if err != nil {
		return false, storeError("get", err)
	}
	return e.VerifyReader(r, rec)
}
