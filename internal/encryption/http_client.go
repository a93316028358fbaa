package encryption

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/allisson/tokenfield/internal/errors"
)

// Wire paths for the encryption service API.
const (
	encryptPath = "/v1/encrypt"
	decryptPath = "/v1/decrypt"
	searchPath  = "/v1/search"
)

// requestIDHeader carries a per-request id for correlation with service logs.
const requestIDHeader = "X-Request-Id"

// HTTPClientConfig holds the settings for the HTTP encryption client.
type HTTPClientConfig struct {
	// BaseURL is the encryption service root (e.g. "https://vault.internal:8200").
	BaseURL string
	// APIKey is sent as a bearer token when non-empty.
	APIKey string
	// Timeout bounds each request. Zero means no client-side timeout.
	Timeout time.Duration
	// RequestsPerSec enables a client-side token-bucket limiter when > 0.
	RequestsPerSec float64
	// Burst is the limiter burst size. Only read when RequestsPerSec > 0.
	Burst int
}

// httpClient implements Client over the encryption service's JSON API.
type httpClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewHTTPClient creates an HTTP-backed encryption Client.
func NewHTTPClient(cfg HTTPClientConfig, logger *slog.Logger) Client {
	var limiter *rate.Limiter
	if cfg.RequestsPerSec > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), burst)
	}

	return &httpClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  logger,
	}
}

// encryptRequest is the wire shape of an encrypt batch.
type encryptRequest struct {
	Items []BatchItem `json:"items"`
}

// encryptResponse maps composite keys to tokens. Partial maps are accepted.
type encryptResponse struct {
	Tokens map[string]string `json:"tokens"`
}

// decryptRequest is the wire shape of a decrypt batch.
type decryptRequest struct {
	Tokens []string `json:"tokens"`
}

// decryptResponse maps tokens to plaintext. Partial maps are accepted.
type decryptResponse struct {
	Values map[string]string `json:"values"`
}

// searchRequest is the wire shape of a token search.
type searchRequest struct {
	Value string `json:"value"`
}

// searchResponse lists every token minted for the searched plaintext.
type searchResponse struct {
	Tokens []string `json:"tokens"`
}

// errorResponse is the service's error body.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// EncryptBatch tokenizes all items in a single round trip.
func (h *httpClient) EncryptBatch(ctx context.Context, items []BatchItem) (map[string]string, error) {
	if len(items) == 0 {
		return map[string]string{}, nil
	}

	var out encryptResponse
	if err := h.post(ctx, encryptPath, encryptRequest{Items: items}, &out); err != nil {
		return nil, err
	}
	if out.Tokens == nil {
		out.Tokens = map[string]string{}
	}
	return out.Tokens, nil
}

// DecryptBatch resolves tokens to plaintext in a single round trip.
func (h *httpClient) DecryptBatch(ctx context.Context, tokens []string) (map[string]string, error) {
	if len(tokens) == 0 {
		return map[string]string{}, nil
	}

	var out decryptResponse
	if err := h.post(ctx, decryptPath, decryptRequest{Tokens: tokens}, &out); err != nil {
		return nil, err
	}
	if out.Values == nil {
		out.Values = map[string]string{}
	}
	return out.Values, nil
}

// SearchTokens returns every token minted for the given plaintext.
func (h *httpClient) SearchTokens(ctx context.Context, plaintext string) ([]string, error) {
	var out searchResponse
	if err := h.post(ctx, searchPath, searchRequest{Value: plaintext}, &out); err != nil {
		return nil, err
	}
	return out.Tokens, nil
}

// post sends one JSON request and decodes the response into out.
func (h *httpClient) post(ctx context.Context, path string, in, out any) error {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return errors.Wrap(ErrConnectivity, err.Error())
		}
	}

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	started := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return errors.Wrap(ErrConnectivity, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	h.logger.Debug("encryption service call",
		slog.String("path", path),
		slog.String("request_id", requestID),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return h.responseError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(ErrServiceResponse, "failed to decode response body")
	}
	return nil
}

// responseError turns a non-success response into a ResponseError, preserving
// the service's message when the body is parseable.
func (h *httpClient) responseError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var body errorResponse
	message := string(raw)
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		message = body.Message
	}

	return &ResponseError{StatusCode: resp.StatusCode, Message: message}
}
