package schnorrd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
	AdminKey   string
}

type Signature struct {
	ID        string `json:"id"`
	PublicKey string `json:"public_key"`
	FactorE   string `json:"factor_e"`
	FactorY   string `json:"factor_y"`
	Level     string `json:"level,omitempty"`
	Hash      string `json:"hash,omitempty"`
}

type Verification struct {
	ID    string `json:"id"`
	Valid bool   `json:"valid"`
}

type Params struct {
	Level string `json:"level"`
	Hash  string `json:"hash"`
	P     string `json:"p"`
	Q     string `json:"q"`
	A     string `json:"a"`
}

type Health struct {
	Status       string `json:"status"`
	KeyStore     string `json:"keystore"`
	ParamsLoaded bool   `json:"params_loaded"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("schnorrd: status %d", e.Status)
	}
	return fmt.Sprintf("schnorrd: status %d %s: %s", e.Status, e.Code, e.Message)
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.HTTPClient = client
	}
}

func WithUserAgent(agent string) Option {
	return func(c *Client) {
		c.UserAgent = agent
	}
}

// WithAdminKey sets the key sent on parameter changes.
func WithAdminKey(key string) Option {
	return func(c *Client) {
		c.AdminKey = key
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Sign streams message to the server and returns the stored signature.
func (c *Client) Sign(ctx context.Context, message io.Reader) (Signature, error) {
	var out Signature
	err := c.do(ctx, http.MethodPost, "/v1/signatures", "application/octet-stream", message, &out)
	return out, err
}

func (c *Client) Verify(ctx context.Context, id string, message io.Reader) (Verification, error) {
	if strings.TrimSpace(id) == "" {
		return Verification{}, fmt.Errorf("signature id is required")
	}
	var out Verification
	path := fmt.Sprintf("/v1/signatures/%s/verify", url.PathEscape(id))
	err := c.do(ctx, http.MethodPost, path, "application/octet-stream", message, &out)
	return out, err
}

func (c *Client) GetSignature(ctx context.Context, id string) (Signature, error) {
	if strings.TrimSpace(id) == "" {
		return Signature{}, fmt.Errorf("signature id is required")
	}
	var out Signature
	err := c.do(ctx, http.MethodGet, "/v1/signatures/"+url.PathEscape(id), "", nil, &out)
	return out, err
}

func (c *Client) Params(ctx context.Context) (Params, error) {
	var out Params
	err := c.do(ctx, http.MethodGet, "/v1/params", "", nil, &out)
	return out, err
}

// GenerateParams asks the server to generate and activate a fresh parameter set. An
// empty level uses the server default.
func (c *Client) GenerateParams(ctx context.Context, level string, persist bool) (Params, error) {
	body, err := json.Marshal(map[string]any{"level": level, "persist": persist})
	if err != nil {
		return Params{}, fmt.Errorf("marshal request: %w", err)
	}
	var out Params
	err = c.do(ctx, http.MethodPost, "/v1/params", "application/json", bytes.NewReader(body), &out)
	return out, err
}

// ReloadParams makes the server re-read its parameter file.
func (c *Client) ReloadParams(ctx context.Context) (Params, error) {
	var out Params
	err := c.do(ctx, http.MethodPost, "/v1/params/reload", "", nil, &out)
	return out, err
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, "/healthz", "", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	if c == nil {
		return fmt.Errorf("schnorrd client is nil")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("schnorrd base URL is required")
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.AdminKey != "" && method == http.MethodPost && strings.HasPrefix(path, "/v1/params") {
		req.Header.Set("X-Admin-Key", c.AdminKey)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(payload, apiErr)
		apiErr.Status = resp.StatusCode
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
