package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
)

const HTTPRunnerName = "http"

// HTTPConfig holds configuration for the HTTP scorer client.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string        // Optional bearer token
	Timeout    time.Duration // Per-request timeout (default 2m)
	MaxRetries int           // Attempts per request (default 3)
	RetryDelay time.Duration // Base backoff delay (default 500ms)
	RateLimit  int           // Requests per minute (0 = unlimited)
	HTTPClient *http.Client  // Optional (tests)
}

// HTTPRunner talks JSON over HTTP to a scoring service exposing the
// /v1/encode and /v1/run endpoints.
type HTTPRunner struct {
	baseURL    string
	apiKey     string
	client     *http.Client
	maxRetries uint
	retryDelay time.Duration
	limiter    *RateLimiter
}

// NewHTTPRunner creates a scorer client.
func NewHTTPRunner(cfg HTTPConfig) *HTTPRunner {
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	var limiter *RateLimiter
	if cfg.RateLimit > 0 {
		limiter = NewRateLimiter(cfg.RateLimit)
	}

	return &HTTPRunner{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		client:     client,
		maxRetries: uint(cfg.MaxRetries),
		retryDelay: cfg.RetryDelay,
		limiter:    limiter,
	}
}

// Name returns the runner identifier.
func (r *HTTPRunner) Name() string { return HTTPRunnerName }

type encodeRequest struct {
	Prompts   []string `json:"prompts"`
	Contents  []string `json:"contents"`
	MaxLength int      `json:"max_length"`
}

type runRequest struct {
	TokenIDs      [][]int64 `json:"token_ids"`
	TypeIDs       [][]int64 `json:"type_ids"`
	AttentionMask [][]int64 `json:"attention_mask"`
}

type runResponse struct {
	StartProbs [][]float64 `json:"start_probs"`
	EndProbs   [][]float64 `json:"end_probs"`
}

// Encode tokenizes the batch remotely.
func (r *HTTPRunner) Encode(ctx context.Context, prompts, contents []string, maxLength int) (*Encoding, error) {
	var enc Encoding
	req := encodeRequest{Prompts: prompts, Contents: contents, MaxLength: maxLength}
	if err := r.doJSON(ctx, "/v1/encode", req, &enc); err != nil {
		return nil, fmt.Errorf("encode request failed: %w", err)
	}
	if enc.BatchSize() != len(prompts) {
		return nil, fmt.Errorf("scorer returned %d encodings for %d pairs", enc.BatchSize(), len(prompts))
	}
	return &enc, nil
}

// Run scores the encoded batch remotely.
func (r *HTTPRunner) Run(ctx context.Context, enc *Encoding) ([][]float64, [][]float64, error) {
	var resp runResponse
	req := runRequest{TokenIDs: enc.TokenIDs, TypeIDs: enc.TypeIDs, AttentionMask: enc.AttentionMask}
	if err := r.doJSON(ctx, "/v1/run", req, &resp); err != nil {
		return nil, nil, fmt.Errorf("run request failed: %w", err)
	}
	return resp.StartProbs, resp.EndProbs, nil
}

// doJSON posts a JSON body and decodes the JSON response, retrying transport
// errors and retryable status codes with backoff.
func (r *HTTPRunner) doJSON(ctx context.Context, path string, in, out any) error {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	requestID := uuid.New().String()

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Request-ID", requestID)
			if r.apiKey != "" {
				req.Header.Set("Authorization", "Bearer "+r.apiKey)
			}

			resp, err := r.client.Do(req)
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			respBody, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}

			if resp.StatusCode != http.StatusOK {
				statusErr := fmt.Errorf("scorer error (status %d): %s", resp.StatusCode, string(respBody))
				if retryableStatus(resp.StatusCode) {
					return statusErr
				}
				return retry.Unrecoverable(statusErr)
			}

			if err := json.Unmarshal(respBody, out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to unmarshal response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(r.maxRetries),
		retry.Delay(r.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}

// retryableStatus reports whether a status code is worth another attempt.
func retryableStatus(statusCode int) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	return statusCode >= 500
}
