package usecase

import (
	"context"
	"errors"
	"testing"

	"schnorrd/internal/domain"
	"schnorrd/pkg/schnorr"
)

func TestParamService_EngineBeforeInstall(t *testing.T) {
	svc := NewParamService(&generatorStub{}, nil, 1)
	if _, err := svc.Engine(); !errors.Is(err, domain.ErrParamsUnavailable) {
		t.Fatalf("expected ErrParamsUnavailable, got %v", err)
	}
}

func TestParamService_GenerateRetriesGenerationFailures(t *testing.T) {
	params := toyParameters(t)
	gen := &generatorStub{
		params: params,
		errs: []error{
			&schnorr.GenerationError{Factor: "p", Steps: 4096},
			&schnorr.GenerationError{Factor: "a", Steps: 4096},
		},
	}
	store := &paramStoreStub{}
	metrics := &metricsStub{}
	svc := NewParamService(gen, store, 1)
	svc.Metrics = metrics

	got, err := svc.Generate(context.Background(), GenerateParamsRequest{Level: schnorr.Level1024, Persist: true})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !got.Equal(params) {
		t.Fatal("expected generated parameters")
	}
	if gen.calls != 3 {
		t.Fatalf("expected 3 generator calls, got %d", gen.calls)
	}
	if len(metrics.generations) != 3 || metrics.generations[2] != nil {
		t.Fatalf("expected 3 observed generations ending in success, got %v", metrics.generations)
	}
	if store.saves != 1 {
		t.Fatalf("expected parameters persisted once, got %d", store.saves)
	}
	engine, err := svc.Engine()
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if !engine.Parameters().Equal(params) {
		t.Fatal("engine bound to wrong parameters")
	}
}

func TestParamService_GenerateGivesUpAfterAttempts(t *testing.T) {
	genErr := &schnorr.GenerationError{Factor: "q", Steps: 4096}
	gen := &generatorStub{errs: []error{genErr, genErr}}
	svc := NewParamService(gen, nil, 1)
	svc.Attempts = 2

	_, err := svc.Generate(context.Background(), GenerateParamsRequest{Level: schnorr.Level1024})
	if !errors.Is(err, schnorr.ErrParameterGeneration) {
		t.Fatalf("expected generation error, got %v", err)
	}
	if gen.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", gen.calls)
	}
	if _, err := svc.Engine(); !errors.Is(err, domain.ErrParamsUnavailable) {
		t.Fatal("failed generation must not install an engine")
	}
}

func TestParamService_GenerateDoesNotRetryOtherErrors(t *testing.T) {
	gen := &generatorStub{errs: []error{context.Canceled}}
	svc := NewParamService(gen, nil, 1)
	_, err := svc.Generate(context.Background(), GenerateParamsRequest{Level: schnorr.Level1024})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", gen.calls)
	}
}

func TestParamService_GenerateValidation(t *testing.T) {
	svc := NewParamService(&generatorStub{}, nil, 1)
	if _, err := svc.Generate(context.Background(), GenerateParamsRequest{Level: schnorr.SecurityLevel(9)}); !errors.Is(err, schnorr.ErrUnknownLevel) {
		t.Fatalf("expected ErrUnknownLevel, got %v", err)
	}
	if _, err := svc.Generate(context.Background(), GenerateParamsRequest{Level: schnorr.Level1024, Persist: true}); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest without a store, got %v", err)
	}
}

func TestParamService_GeneratePersistFailure(t *testing.T) {
	store := &paramStoreStub{saveErr: errBackend}
	svc := NewParamService(&generatorStub{params: toyParameters(t)}, store, 1)
	_, err := svc.Generate(context.Background(), GenerateParamsRequest{Level: schnorr.Level1024, Persist: true})
	if !errors.Is(err, errBackend) {
		t.Fatalf("expected persist error, got %v", err)
	}
	if _, err := svc.Engine(); err == nil {
		t.Fatal("unpersisted parameters must not be installed")
	}
}

func TestParamService_BootstrapLoadsStored(t *testing.T) {
	params := toyParameters(t)
	gen := &generatorStub{}
	svc := NewParamService(gen, &paramStoreStub{params: params}, 1)

	got, err := svc.Bootstrap(context.Background(), schnorr.Level2048, true)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if !got.Equal(params) {
		t.Fatal("expected stored parameters")
	}
	if gen.calls != 0 {
		t.Fatal("stored parameters must not trigger generation")
	}
}

func TestParamService_BootstrapGeneratesWhenMissing(t *testing.T) {
	params := toyParameters(t)
	store := &paramStoreStub{}
	svc := NewParamService(&generatorStub{params: params}, store, 1)

	if _, err := svc.Bootstrap(context.Background(), schnorr.Level1024, true); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if store.saves != 1 {
		t.Fatalf("expected generated parameters to be persisted, got %d saves", store.saves)
	}
}

func TestParamService_BootstrapWithoutGeneration(t *testing.T) {
	svc := NewParamService(&generatorStub{}, &paramStoreStub{}, 1)
	if _, err := svc.Bootstrap(context.Background(), schnorr.Level1024, false); !errors.Is(err, domain.ErrParamsUnavailable) {
		t.Fatalf("expected ErrParamsUnavailable, got %v", err)
	}
}

func TestParamService_BootstrapPropagatesBadFile(t *testing.T) {
	gen := &generatorStub{}
	svc := NewParamService(gen, &paramStoreStub{loadErr: schnorr.ErrInvalidParameters}, 1)
	if _, err := svc.Bootstrap(context.Background(), schnorr.Level1024, true); !errors.Is(err, schnorr.ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatal("an invalid file must not be silently replaced")
	}
}

func TestParamService_LimiterHonoursContext(t *testing.T) {
	svc := NewParamService(&generatorStub{params: toyParameters(t)}, nil, 1)
	if err := svc.Limiter.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer svc.Limiter.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Generate(ctx, GenerateParamsRequest{Level: schnorr.Level1024}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled while limiter is held, got %v", err)
	}
}
