package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"schnorrd/internal/domain"
	"schnorrd/internal/usecase"
	"schnorrd/pkg/schnorr"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type healthResponse struct {
	Status       string `json:"status"`
	KeyStore     string `json:"keystore"`
	ParamsLoaded bool   `json:"params_loaded"`
}

type paramsResponse struct {
	Level string `json:"level"`
	Hash  string `json:"hash"`
	P     string `json:"p"`
	Q     string `json:"q"`
	A     string `json:"a"`
}

type generateParamsRequest struct {
	Level   string `json:"level"`
	Persist bool   `json:"persist"`
}

type signatureResponse struct {
	ID        string `json:"id"`
	PublicKey string `json:"public_key"`
	FactorE   string `json:"factor_e"`
	FactorY   string `json:"factor_y"`
	Level     string `json:"level,omitempty"`
	Hash      string `json:"hash,omitempty"`
}

type verifyResponse struct {
	ID    string `json:"id"`
	Valid bool   `json:"valid"`
}

func (s *Server) handleHealth(c *gin.Context) {
	status := "ok"
	if s.keystore != nil {
		if err := s.keystore.Ping(c.Request.Context()); err != nil {
			status = "degraded"
		}
	}
	loaded := false
	if s.params != nil {
		if _, err := s.params.Engine(); err == nil {
			loaded = true
		}
	}
	name := s.keystoreName
	if name == "" {
		name = "none"
	}
	c.JSON(http.StatusOK, healthResponse{Status: status, KeyStore: name, ParamsLoaded: loaded})
}

func (s *Server) handleGetParams(c *gin.Context) {
	if s.params == nil {
		writeError(c, domain.ErrParamsUnavailable)
		return
	}
	engine, err := s.params.Engine()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildParamsResponse(engine))
}

func (s *Server) handleGenerateParams(c *gin.Context) {
	if s.params == nil {
		writeError(c, domain.ErrParamsUnavailable)
		return
	}
	var req generateParamsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	levelName := strings.TrimSpace(req.Level)
	if levelName == "" {
		levelName = s.cfg.SecurityLevel
	}
	level, err := schnorr.ParseSecurityLevel(levelName)
	if err != nil {
		writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	if timeout := s.cfg.GenerationTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if _, err := s.params.Generate(ctx, usecase.GenerateParamsRequest{Level: level, Persist: req.Persist}); err != nil {
		writeError(c, err)
		return
	}
	engine, err := s.params.Engine()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, buildParamsResponse(engine))
}

func (s *Server) handleReloadParams(c *gin.Context) {
	if s.params == nil {
		writeError(c, domain.ErrParamsUnavailable)
		return
	}
	if _, err := s.params.Load(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	engine, err := s.params.Engine()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildParamsResponse(engine))
}

func (s *Server) handleSign(c *gin.Context) {
	if s.signUC == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	resp, err := s.signUC.Execute(c.Request.Context(), usecase.SignMessageRequest{
		Message: c.Request.Body,
		Size:    c.Request.ContentLength,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	out := buildSignatureResponse(resp.Record)
	out.Level = resp.Level.String()
	out.Hash = string(resp.Hash)
	c.JSON(http.StatusCreated, out)
}

func (s *Server) handleGetSignature(c *gin.Context) {
	rec, err := s.query.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildSignatureResponse(rec))
}

func (s *Server) handleVerify(c *gin.Context) {
	if s.verify == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	resp, err := s.verify.Execute(c.Request.Context(), usecase.VerifyMessageRequest{
		ID:      c.Param("id"),
		Message: c.Request.Body,
		Size:    c.Request.ContentLength,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, verifyResponse{ID: resp.ID, Valid: resp.Valid})
}

func (s *Server) handleNoRoute(c *gin.Context) {
	writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "route not found")
}

func buildParamsResponse(engine *schnorr.Engine) paramsResponse {
	params := engine.Parameters()
	return paramsResponse{
		Level: params.Level().String(),
		Hash:  string(engine.Hash()),
		P:     params.P().Text(16),
		Q:     params.Q().Text(16),
		A:     params.A().Text(16),
	}
}

// buildSignatureResponse exposes the public fields only; the private key never leaves
// the store.
func buildSignatureResponse(rec schnorr.KeyRecord) signatureResponse {
	values := schnorr.EncodeKeyRecord(rec)
	out := signatureResponse{ID: rec.ID}
	for i, field := range schnorr.KeyRecordFields {
		switch field.Name {
		case "public_key":
			out.PublicKey = values[i]
		case "factor_e":
			out.FactorE = values[i]
		case "factor_y":
			out.FactorY = values[i]
		}
	}
	return out
}

func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	var details map[string]any
	switch {
	case errors.Is(err, schnorr.ErrRecordNotFound), errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrPolicyDenied):
		status, code = http.StatusForbidden, "POLICY_DENIED"
		var denied *domain.PolicyDeniedError
		if errors.As(err, &denied) {
			details = map[string]any{"deny": denied.Evaluation.Result.Deny}
		}
	case errors.Is(err, domain.ErrInvalidRequest):
		status, code = http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, schnorr.ErrUnknownLevel):
		status, code = http.StatusBadRequest, "UNKNOWN_LEVEL"
	case errors.Is(err, domain.ErrMessageTooLarge):
		status, code = http.StatusRequestEntityTooLarge, "MESSAGE_TOO_LARGE"
	case errors.Is(err, schnorr.ErrStore), errors.Is(err, domain.ErrStoreUnavailable):
		status, code = http.StatusServiceUnavailable, "STORE_UNAVAILABLE"
	case errors.Is(err, domain.ErrParamsUnavailable):
		status, code = http.StatusServiceUnavailable, "PARAMS_UNAVAILABLE"
	case errors.Is(err, schnorr.ErrInvalidParameters):
		status, code = http.StatusUnprocessableEntity, "INVALID_PARAMETERS"
	case errors.Is(err, schnorr.ErrParameterGeneration):
		status, code = http.StatusUnprocessableEntity, "GENERATION_FAILED"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "TIMEOUT"
	}
	c.JSON(status, errorResponse{Code: code, Message: err.Error(), Details: details})
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{
		Code:    code,
		Message: message,
	})
}
