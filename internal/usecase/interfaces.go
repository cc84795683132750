package usecase

import (
	"context"
	"time"

	"schnorrd/internal/domain"
	"schnorrd/pkg/schnorr"
)

type Clock func() time.Time

type ParameterGenerator interface {
	Generate(ctx context.Context, level schnorr.SecurityLevel) (*schnorr.Parameters, error)
}

type ParameterStore interface {
	Load() (*schnorr.Parameters, error)
	Save(params *schnorr.Parameters) error
}

type KeyStore interface {
	schnorr.KeyStore
}

type EngineProvider interface {
	Engine() (*schnorr.Engine, error)
}

type PolicyEngine interface {
	Evaluate(ctx context.Context, input domain.PolicyInput) (domain.PolicyEvaluation, error)
}

type Metrics interface {
	ObserveGeneration(level string, err error, took time.Duration)
	ObserveSign(err error)
	ObserveVerify(valid bool, err error)
}
