package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"schnorrd/internal/domain"
	"schnorrd/pkg/schnorr"

	"github.com/sirupsen/logrus"
)

type VerifyMessage struct {
	Params          EngineProvider
	Keys            KeyStore
	Policy          PolicyEngine
	MaxMessageBytes int64
	Metrics         Metrics
	Logger          logrus.FieldLogger
}

type VerifyMessageRequest struct {
	ID      string
	Message io.Reader
	Size    int64
}

type VerifyMessageResponse struct {
	ID    string
	Valid bool
}

// Execute verifies the message against the stored record. Valid is false only for a
// completed verification that did not match; any other failure is an error.
func (uc *VerifyMessage) Execute(ctx context.Context, req VerifyMessageRequest) (resp VerifyMessageResponse, err error) {
	defer func() {
		if uc.Metrics != nil {
			uc.Metrics.ObserveVerify(resp.Valid, err)
		}
	}()
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return VerifyMessageResponse{}, fmt.Errorf("%w: id is required", domain.ErrInvalidRequest)
	}
	if req.Message == nil {
		return VerifyMessageResponse{}, fmt.Errorf("%w: message is required", domain.ErrInvalidRequest)
	}
	if uc.Keys == nil {
		return VerifyMessageResponse{}, domain.ErrStoreUnavailable
	}
	if uc.Params == nil {
		return VerifyMessageResponse{}, domain.ErrParamsUnavailable
	}
	engine, err := uc.Params.Engine()
	if err != nil {
		return VerifyMessageResponse{}, err
	}
	level := engine.Parameters().Level()

	if err := checkPolicy(ctx, uc.Policy, domain.PolicyInput{
		Operation:    domain.OperationVerify,
		Level:        level.String(),
		MessageBytes: req.Size,
	}); err != nil {
		return VerifyMessageResponse{}, err
	}
	if uc.MaxMessageBytes > 0 && req.Size > uc.MaxMessageBytes {
		return VerifyMessageResponse{}, domain.ErrMessageTooLarge
	}

	valid, err := engine.VerifyFrom(ctx, uc.Keys, id, capReader(req.Message, uc.MaxMessageBytes))
	if err != nil {
		if errors.Is(err, domain.ErrMessageTooLarge) {
			return VerifyMessageResponse{}, domain.ErrMessageTooLarge
		}
		return VerifyMessageResponse{}, err
	}
	loggerOrDiscard(uc.Logger).WithFields(logrus.Fields{
		"id":    id,
		"valid": valid,
	}).Info("signature verified")
	return VerifyMessageResponse{ID: id, Valid: valid}, nil
}

// SignatureQuery exposes stored records by id.
type SignatureQuery struct {
	Keys KeyStore
}

func (q *SignatureQuery) Get(ctx context.Context, id string) (schnorr.KeyRecord, error) {
	if strings.TrimSpace(id) == "" {
		return schnorr.KeyRecord{}, fmt.Errorf("%w: id is required", domain.ErrInvalidRequest)
	}
	if q.Keys == nil {
		return schnorr.KeyRecord{}, domain.ErrStoreUnavailable
	}
	rec, err := q.Keys.Get(ctx, id)
	if err != nil {
		return schnorr.KeyRecord{}, &schnorr.StoreError{Op: "get", Err: err}
	}
	return rec, nil
}
