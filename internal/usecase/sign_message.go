package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"

	"schnorrd/internal/domain"
	"schnorrd/pkg/schnorr"

	"github.com/sirupsen/logrus"
)

type SignMessage struct {
	Params          EngineProvider
	Keys            KeyStore
	Policy          PolicyEngine
	MaxMessageBytes int64
	Metrics         Metrics
	Logger          logrus.FieldLogger
}

type SignMessageRequest struct {
	Message io.Reader
	// Size is the declared message length, or -1 when unknown.
	Size int64
}

type SignMessageResponse struct {
	Record schnorr.KeyRecord
	Level  schnorr.SecurityLevel
	Hash   schnorr.HashAlgorithm
}

func (uc *SignMessage) Execute(ctx context.Context, req SignMessageRequest) (resp SignMessageResponse, err error) {
	defer func() {
		if uc.Metrics != nil {
			uc.Metrics.ObserveSign(err)
		}
	}()
	if req.Message == nil {
		return SignMessageResponse{}, fmt.Errorf("%w: message is required", domain.ErrInvalidRequest)
	}
	if uc.Keys == nil {
		return SignMessageResponse{}, domain.ErrStoreUnavailable
	}
	if uc.Params == nil {
		return SignMessageResponse{}, domain.ErrParamsUnavailable
	}
	engine, err := uc.Params.Engine()
	if err != nil {
		return SignMessageResponse{}, err
	}
	level := engine.Parameters().Level()

	if err := checkPolicy(ctx, uc.Policy, domain.PolicyInput{
		Operation:    domain.OperationSign,
		Level:        level.String(),
		MessageBytes: req.Size,
	}); err != nil {
		return SignMessageResponse{}, err
	}
	if uc.MaxMessageBytes > 0 && req.Size > uc.MaxMessageBytes {
		return SignMessageResponse{}, domain.ErrMessageTooLarge
	}

	rec, err := engine.SignTo(ctx, uc.Keys, capReader(req.Message, uc.MaxMessageBytes))
	if err != nil {
		if errors.Is(err, domain.ErrMessageTooLarge) {
			return SignMessageResponse{}, domain.ErrMessageTooLarge
		}
		return SignMessageResponse{}, err
	}
	loggerOrDiscard(uc.Logger).WithFields(logrus.Fields{
		"id":    rec.ID,
		"level": level.String(),
	}).Info("message signed")

	return SignMessageResponse{
		Record: *rec,
		Level:  level,
		Hash:   engine.Hash(),
	}, nil
}
