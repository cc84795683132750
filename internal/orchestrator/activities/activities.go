package activities

import (
	"context"
	"errors"
	"fmt"
	"time"

	"schnorrd/api/clients/schnorrd"
	"schnorrd/internal/infra/metrics"
	"schnorrd/internal/infra/paramfile"
	"schnorrd/internal/logging"
	"schnorrd/pkg/schnorr"

	"github.com/sirupsen/logrus"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
)

const (
	GenerateParametersActivityName = "GenerateParameters"
	SaveParametersActivityName     = "SaveParameters"
	ReloadServerActivityName       = "ReloadServer"
)

// Error types reported to the workflow retry policy.
const (
	ErrTypeUnknownLevel      = "UnknownLevel"
	ErrTypeInvalidParameters = "InvalidParameters"
	ErrTypeGeneration        = "ParameterGeneration"
)

type Activities struct {
	Server  *schnorrd.Client
	Logger  logrus.FieldLogger
	Metrics *metrics.Metrics
}

// ParametersPayload carries domain parameters across the workflow boundary as hex.
type ParametersPayload struct {
	Level string
	P     string
	Q     string
	A     string
}

type GenerateParametersInput struct {
	Level     string
	Certainty int
	MaxSteps  int
}

type SaveParametersInput struct {
	Path      string
	Certainty int
	Params    ParametersPayload
}

func New(server *schnorrd.Client, logger logrus.FieldLogger) *Activities {
	return &Activities{Server: server, Logger: logger}
}

func EncodeParameters(params *schnorr.Parameters) ParametersPayload {
	return ParametersPayload{
		Level: params.Level().String(),
		P:     params.P().Text(16),
		Q:     params.Q().Text(16),
		A:     params.A().Text(16),
	}
}

func (p ParametersPayload) Decode() (*schnorr.Parameters, error) {
	level, err := schnorr.ParseSecurityLevel(p.Level)
	if err != nil {
		return nil, err
	}
	pv, err := schnorr.ParseHexInt(p.P)
	if err != nil {
		return nil, fmt.Errorf("%w: p: %v", schnorr.ErrInvalidParameters, err)
	}
	qv, err := schnorr.ParseHexInt(p.Q)
	if err != nil {
		return nil, fmt.Errorf("%w: q: %v", schnorr.ErrInvalidParameters, err)
	}
	av, err := schnorr.ParseHexInt(p.A)
	if err != nil {
		return nil, fmt.Errorf("%w: a: %v", schnorr.ErrInvalidParameters, err)
	}
	return schnorr.NewParameters(level, pv, qv, av)
}

// GenerateParameters runs one generation. Generation failures are retryable; an unknown
// level is not.
func (a *Activities) GenerateParameters(ctx context.Context, input GenerateParametersInput) (ParametersPayload, error) {
	level, err := schnorr.ParseSecurityLevel(input.Level)
	if err != nil {
		return ParametersPayload{}, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeUnknownLevel, err)
	}
	activity.GetLogger(ctx).Info("generating parameters", "level", level.String())

	gen := schnorr.NewGenerator(
		schnorr.WithCertainty(input.Certainty),
		schnorr.WithMaxSteps(input.MaxSteps),
		schnorr.WithLogger(a.logger()),
	)
	start := time.Now()
	params, err := gen.Generate(ctx, level)
	a.Metrics.ObserveGeneration(level.String(), err, time.Since(start))
	if err != nil {
		if errors.Is(err, schnorr.ErrParameterGeneration) {
			return ParametersPayload{}, temporal.NewApplicationError(err.Error(), ErrTypeGeneration, err)
		}
		return ParametersPayload{}, err
	}
	return EncodeParameters(params), nil
}

// SaveParameters validates the payload and writes it to the parameter file.
func (a *Activities) SaveParameters(ctx context.Context, input SaveParametersInput) error {
	if input.Path == "" {
		return temporal.NewNonRetryableApplicationError("parameter file path is required", ErrTypeInvalidParameters, nil)
	}
	params, err := input.Params.Decode()
	if err != nil {
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidParameters, err)
	}
	certainty := input.Certainty
	if certainty <= 0 {
		certainty = schnorr.DefaultCertainty
	}
	if err := params.Validate(certainty); err != nil {
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidParameters, err)
	}
	if err := paramfile.NewStore(input.Path, certainty).Save(params); err != nil {
		return fmt.Errorf("save parameters: %w", err)
	}
	a.logger().WithFields(logrus.Fields{
		"path":  input.Path,
		"level": params.Level().String(),
	}).Info("parameters saved")
	return nil
}

// ReloadServer asks the signing service to pick up the saved parameter file.
func (a *Activities) ReloadServer(ctx context.Context) (ParametersPayload, error) {
	if a == nil || a.Server == nil {
		return ParametersPayload{}, fmt.Errorf("schnorrd client not configured")
	}
	params, err := a.Server.ReloadParams(ctx)
	if err != nil {
		return ParametersPayload{}, err
	}
	return ParametersPayload{Level: params.Level, P: params.P, Q: params.Q, A: params.A}, nil
}

func (a *Activities) logger() logrus.FieldLogger {
	if a == nil || a.Logger == nil {
		return logging.Discard()
	}
	return a.Logger
}
