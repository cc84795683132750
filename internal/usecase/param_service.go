package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"schnorrd/internal/domain"
	"schnorrd/pkg/schnorr"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

const defaultGenerationAttempts = 3

// ParamService owns the active domain parameters and the engine bound to them.
// Generation is CPU bound, so concurrent runs are capped by Limiter.
type ParamService struct {
	Generator ParameterGenerator
	Store     ParameterStore
	Attempts  int
	Hash      schnorr.HashAlgorithm
	Limiter   *semaphore.Weighted
	Metrics   Metrics
	Logger    logrus.FieldLogger
	Clock     Clock

	mu     sync.RWMutex
	engine *schnorr.Engine
}

type GenerateParamsRequest struct {
	Level   schnorr.SecurityLevel
	Persist bool
}

func NewParamService(gen ParameterGenerator, store ParameterStore, concurrency int64) *ParamService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &ParamService{
		Generator: gen,
		Store:     store,
		Attempts:  defaultGenerationAttempts,
		Hash:      schnorr.DefaultHash,
		Limiter:   semaphore.NewWeighted(concurrency),
	}
}

// Engine returns the engine bound to the active parameters.
func (s *ParamService) Engine() (*schnorr.Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.engine == nil {
		return nil, domain.ErrParamsUnavailable
	}
	return s.engine, nil
}

// Install makes params the active parameters.
func (s *ParamService) Install(params *schnorr.Parameters) error {
	engine, err := schnorr.NewEngine(params,
		schnorr.WithHash(s.hash()),
		schnorr.WithEngineLogger(s.logger()),
	)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.engine = engine
	s.mu.Unlock()
	s.logger().WithFields(logrus.Fields{
		"level": params.Level().String(),
		"hash":  string(engine.Hash()),
	}).Info("domain parameters installed")
	return nil
}

// Load reads and validates the stored parameters and installs them.
func (s *ParamService) Load(ctx context.Context) (*schnorr.Parameters, error) {
	if s.Store == nil {
		return nil, fmt.Errorf("%w: no parameter store configured", domain.ErrParamsUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params, err := s.Store.Load()
	if err != nil {
		return nil, err
	}
	if err := s.Install(params); err != nil {
		return nil, err
	}
	return params, nil
}

// Generate runs up to Attempts generations, retrying only generation failures. On
// success the parameters are optionally persisted and then installed.
func (s *ParamService) Generate(ctx context.Context, req GenerateParamsRequest) (*schnorr.Parameters, error) {
	if s.Generator == nil {
		return nil, errors.New("parameter generator is required")
	}
	if !req.Level.Valid() {
		return nil, fmt.Errorf("%w: %s", schnorr.ErrUnknownLevel, req.Level)
	}
	if req.Persist && s.Store == nil {
		return nil, fmt.Errorf("%w: no parameter store configured", domain.ErrInvalidRequest)
	}
	if s.Limiter != nil {
		if err := s.Limiter.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer s.Limiter.Release(1)
	}

	params, err := s.generate(ctx, req.Level)
	if err != nil {
		return nil, err
	}
	if req.Persist {
		if err := s.Store.Save(params); err != nil {
			return nil, fmt.Errorf("persist parameters: %w", err)
		}
	}
	if err := s.Install(params); err != nil {
		return nil, err
	}
	return params, nil
}

func (s *ParamService) generate(ctx context.Context, level schnorr.SecurityLevel) (*schnorr.Parameters, error) {
	attempts := s.Attempts
	if attempts <= 0 {
		attempts = defaultGenerationAttempts
	}
	log := s.logger().WithField("level", level.String())

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		start := s.now()
		params, err := s.Generator.Generate(ctx, level)
		if s.Metrics != nil {
			s.Metrics.ObserveGeneration(level.String(), err, s.now().Sub(start))
		}
		if err == nil {
			return params, nil
		}
		if !errors.Is(err, schnorr.ErrParameterGeneration) {
			return nil, err
		}
		lastErr = err
		log.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err.Error(),
		}).Warn("parameter generation attempt failed")
	}
	return nil, lastErr
}

// Bootstrap loads stored parameters and, when none exist and generateIfMissing is set,
// generates and persists a fresh set for level.
func (s *ParamService) Bootstrap(ctx context.Context, level schnorr.SecurityLevel, generateIfMissing bool) (*schnorr.Parameters, error) {
	params, err := s.Load(ctx)
	if err == nil {
		if params.Level() != level {
			s.logger().WithFields(logrus.Fields{
				"configured": level.String(),
				"stored":     params.Level().String(),
			}).Warn("stored parameters use a different level than configured")
		}
		return params, nil
	}
	if !errors.Is(err, domain.ErrParamsUnavailable) || !generateIfMissing {
		return nil, err
	}
	s.logger().WithField("level", level.String()).Info("no stored parameters, generating")
	return s.Generate(ctx, GenerateParamsRequest{Level: level, Persist: s.Store != nil})
}

func (s *ParamService) hash() schnorr.HashAlgorithm {
	if s.Hash == "" {
		return schnorr.DefaultHash
	}
	return s.Hash
}

func (s *ParamService) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *ParamService) logger() logrus.FieldLogger {
	return loggerOrDiscard(s.Logger)
}
