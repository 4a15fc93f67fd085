// Package backend talks to the external embedding/summary model
// service: a plain HTTP/JSON service exposing embed(text)->vector and
// generate(prompt)->text. The model lives outside this module; this
// client only handles transport, retry/backoff, and the fatal-versus-
// transient error split.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/gianged/cindex/internal/cerrors"
)

// Client embeds and summarizes text via the configured backend.
type Client interface {
	Embed(ctx context.Context, model string, texts []string, dims, ctxWindow int) ([][]float32, error)
	Generate(ctx context.Context, model, prompt string, ctxWindow int) (string, error)
	Close() error
}

// HTTPClient is the default Client implementation.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	retryCount int
}

// New creates an HTTPClient. timeout is clamped to [1s, 5min].
func New(baseURL string, timeout time.Duration, retryCount int) *HTTPClient {
	if timeout < time.Second {
		timeout = time.Second
	}
	if timeout > 5*time.Minute {
		timeout = 5 * time.Minute
	}
	if retryCount < 0 {
		retryCount = 0
	}
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		retryCount: retryCount,
	}
}

type embedRequest struct {
	Model         string   `json:"model"`
	Texts         []string `json:"texts"`
	Dimensions    int      `json:"dimensions"`
	ContextWindow int      `json:"context_window"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error"`
}

type generateRequest struct {
	Model         string `json:"model"`
	Prompt        string `json:"prompt"`
	ContextWindow int    `json:"context_window"`
}

type generateResponse struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

// Embed requests vectors for texts. Dimension mismatch and
// unknown-model are fatal, non-retryable errors.
func (c *HTTPClient) Embed(ctx context.Context, model string, texts []string, dims, ctxWindow int) ([][]float32, error) {
	var resp embedResponse
	err := c.doWithRetry(ctx, "/embed", embedRequest{
		Model: model, Texts: texts, Dimensions: dims, ContextWindow: ctxWindow,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Error == "model_not_found" {
		return nil, cerrors.Backend(cerrors.CodeModelNotFound, fmt.Sprintf("unknown embedding model %q", model), nil, false)
	}
	if resp.Error != "" {
		return nil, cerrors.Backend(cerrors.CodeEmbeddingFailed, resp.Error, nil, false)
	}
	for _, v := range resp.Embeddings {
		if len(v) != dims {
			return nil, cerrors.Backend(cerrors.CodeDimensionMismatch,
				fmt.Sprintf("backend returned %d-dim vector, configured dimensions=%d", len(v), dims), nil, false)
		}
	}
	return resp.Embeddings, nil
}

// Generate requests a completion for prompt, used by the summary generator.
func (c *HTTPClient) Generate(ctx context.Context, model, prompt string, ctxWindow int) (string, error) {
	var resp generateResponse
	err := c.doWithRetry(ctx, "/generate", generateRequest{
		Model: model, Prompt: prompt, ContextWindow: ctxWindow,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Error == "model_not_found" {
		return "", cerrors.Backend(cerrors.CodeModelNotFound, fmt.Sprintf("unknown summary model %q", model), nil, false)
	}
	if resp.Error != "" {
		return "", cerrors.Backend(cerrors.CodeSummaryFailed, resp.Error, nil, false)
	}
	return resp.Text, nil
}

// Close releases client resources; the stdlib http.Client needs none, but
// this keeps the Client interface symmetric with connection-owning impls.
func (c *HTTPClient) Close() error { return nil }

// doWithRetry posts body as JSON to path and decodes into out,
// retrying transient failures with exponential backoff (base delay *
// 2^(retry-1) before each retry), up to c.retryCount retries after the
// first attempt.
func (c *HTTPClient) doWithRetry(ctx context.Context, path string, body, out interface{}) error {
	const baseDelay = 200 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * baseDelay
			select {
			case <-ctx.Done():
				return cerrors.Backend(cerrors.CodeTimeout, "request cancelled during backoff", ctx.Err(), false)
			case <-time.After(delay):
			}
		}

		err := c.doOnce(ctx, path, body, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isTransient(err) {
			return err
		}
	}
	return lastErr
}

func (c *HTTPClient) doOnce(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return cerrors.Backend(cerrors.CodeEmbeddingFailed, "marshal request", err, false)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return cerrors.Backend(cerrors.CodeEmbeddingFailed, "build request", err, false)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return cerrors.Backend(cerrors.CodeTimeout, "request cancelled", ctx.Err(), false)
		}
		return cerrors.Backend(cerrors.CodeEmbeddingFailed, "backend request failed", err, true)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return cerrors.Backend(cerrors.CodeEmbeddingFailed, "read backend response", err, true)
	}

	if resp.StatusCode == http.StatusNotFound {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &e)
		if e.Error == "" {
			e.Error = "model_not_found"
		}
		return json.Unmarshal([]byte(fmt.Sprintf(`{"error":%q}`, e.Error)), out)
	}
	if resp.StatusCode >= 500 {
		return cerrors.Backend(cerrors.CodeEmbeddingFailed, fmt.Sprintf("backend returned status %d", resp.StatusCode), nil, true)
	}
	if resp.StatusCode != http.StatusOK {
		return cerrors.Backend(cerrors.CodeEmbeddingFailed, fmt.Sprintf("backend returned status %d", resp.StatusCode), nil, false)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return cerrors.Backend(cerrors.CodeEmbeddingFailed, "decode backend response", err, false)
	}
	return nil
}

// isTransient reports whether err should be retried: connection
// refused, reset, or timeout.
func isTransient(err error) bool {
	var cerr *cerrors.Error
	if e, ok := err.(*cerrors.Error); ok {
		cerr = e
	} else {
		return false
	}
	if cerr.Temporary() {
		return true
	}
	var netErr net.Error
	cause := cerr.Unwrap()
	if cause == nil {
		return false
	}
	if e, ok := cause.(net.Error); ok {
		netErr = e
		return netErr.Timeout()
	}
	return false
}
