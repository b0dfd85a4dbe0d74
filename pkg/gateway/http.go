package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultTimeout       = 120 * time.Second
	defaultRetryAttempts = 1
)

// HTTPGateway calls the generation service over its JSON HTTP contract:
// POST {type, prompt, nodeId, inputData, config} -> {result, type, log} on
// success, {error} with a non-2xx status on failure.
type HTTPGateway struct {
	endpoint string
	client   *http.Client
	attempts int
	delay    time.Duration
	logger   *slog.Logger
}

// HTTPOption customizes the gateway client.
type HTTPOption func(*HTTPGateway)

// WithTimeout sets the per-call timeout.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(g *HTTPGateway) {
		g.client.Timeout = timeout
	}
}

// WithRetry retries server errors (5xx) and transport failures. Attempts
// includes the initial request.
func WithRetry(attempts int, delay time.Duration) HTTPOption {
	return func(g *HTTPGateway) {
		if attempts > 0 {
			g.attempts = attempts
		}

		g.delay = delay
	}
}

// NewHTTPGateway creates a gateway client for the given endpoint.
func NewHTTPGateway(endpoint string, logger *slog.Logger, opts ...HTTPOption) *HTTPGateway {
	g := &HTTPGateway{
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultTimeout},
		attempts: defaultRetryAttempts,
		logger:   logger.With("module", "generation_gateway"),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Generate performs the generation call for one node.
func (g *HTTPGateway) Generate(ctx context.Context, req *Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode generation request: %w", err)
	}

	var lastErr error

	for attempt := 1; attempt <= g.attempts; attempt++ {
		if attempt > 1 {
			g.logger.Info("Retrying generation call",
				"node_id", req.NodeID,
				"attempt", attempt,
				"max_attempts", g.attempts)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(g.delay):
			}
		}

		resp, retryable, err := g.do(ctx, body)
		if err == nil {
			return resp, nil
		}

		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	return nil, lastErr
}

// do performs one attempt. The second return reports whether the failure is
// worth retrying.
func (g *HTTPGateway) do(ctx context.Context, body []byte) (*Response, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create generation request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, true, fmt.Errorf("generation request failed: %w", err)
	}

	defer func() {
		if err := httpResp.Body.Close(); err != nil {
			g.logger.Error("Failed to close gateway response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read generation response: %w", err)
	}

	if httpResp.StatusCode < http.StatusOK || httpResp.StatusCode >= http.StatusMultipleChoices {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return nil, httpResp.StatusCode >= http.StatusInternalServerError,
				fmt.Errorf("generation service: %s", errResp.Error)
		}

		return nil, httpResp.StatusCode >= http.StatusInternalServerError,
			fmt.Errorf("generation service returned status %d", httpResp.StatusCode)
	}

	var resp Response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, false, fmt.Errorf("failed to decode generation response: %w", err)
	}

	return &resp, false, nil
}
