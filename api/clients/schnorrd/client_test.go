package schnorrd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientSignAndVerify(t *testing.T) {
	var gotBody, gotPath, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody, gotPath, gotType = string(body), r.URL.Path, r.Header.Get("Content-Type")
		switch r.URL.Path {
		case "/v1/signatures":
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(Signature{ID: "sig-1", PublicKey: "ab", FactorE: "cd", FactorY: "ef"})
		case "/v1/signatures/sig-1/verify":
			_ = json.NewEncoder(w).Encode(Verification{ID: "sig-1", Valid: true})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", WithUserAgent("schnorr-test"))
	sig, err := client.Sign(context.Background(), strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if sig.ID != "sig-1" || sig.PublicKey != "ab" {
		t.Fatalf("unexpected signature: %+v", sig)
	}
	if gotBody != "hello" || gotPath != "/v1/signatures" || gotType != "application/octet-stream" {
		t.Fatalf("unexpected request: %q %q %q", gotBody, gotPath, gotType)
	}

	res, err := client.Verify(context.Background(), "sig-1", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !res.Valid {
		t.Fatal("expected valid")
	}
}

func TestClientAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"NOT_FOUND","message":"record not found"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).GetSignature(context.Background(), "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Code != "NOT_FOUND" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestClientGenerateParams(t *testing.T) {
	var req map[string]any
	var adminKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/params" {
			http.NotFound(w, r)
			return
		}
		adminKey = r.Header.Get("X-Admin-Key")
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Params{Level: "2048", P: "17", Q: "b", A: "2"})
	}))
	defer srv.Close()

	params, err := NewClient(srv.URL, WithAdminKey("secret")).GenerateParams(context.Background(), "2048", true)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if params.Level != "2048" {
		t.Fatalf("unexpected params: %+v", params)
	}
	if req["level"] != "2048" || req["persist"] != true {
		t.Fatalf("unexpected request body: %v", req)
	}
	if adminKey != "secret" {
		t.Fatalf("expected admin key header, got %q", adminKey)
	}
}

func TestClientValidation(t *testing.T) {
	if _, err := NewClient("").Params(context.Background()); err == nil {
		t.Fatal("expected error for empty base URL")
	}
	if _, err := NewClient("http://localhost").Verify(context.Background(), " ", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for empty id")
	}
}
