// Package remote contains typed HTTP clients for the upstream content
// microservices the gateway mirrors. Clients do request/response mapping
// only; retries and caching belong to callers.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxResponseSize bounds upstream response bodies (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Sentinel errors for upstream failures
var (
	ErrServiceUnavailable = errors.New("remote: service unavailable")
	ErrRequestFailed      = errors.New("remote: request failed")
	ErrInvalidResponse    = errors.New("remote: invalid response")
	ErrNotFound           = errors.New("remote: not found")
)

// envelope is the common response wrapper the upstream services use
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error,omitempty"`
}

// flexID tolerates upstream IDs arriving as either JSON numbers or strings
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = flexID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

func (f flexID) String() string { return string(f) }

// client is the shared HTTP plumbing for all service clients
type client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func newClient(baseURL string, timeout time.Duration, logger *zap.Logger) client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// doRequest performs a JSON request against the service and returns the raw
// body. Non-2xx statuses map to wrapped sentinel errors carrying the
// upstream message.
func (c *client) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("remote: failed to encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("remote: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("remote: failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, method, path)
	}
	if resp.StatusCode >= 400 {
		c.logger.Warn("upstream request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrRequestFailed, resp.StatusCode, upstreamMessage(raw))
	}

	return raw, nil
}

// decodeEnvelope parses the {status, data} wrapper and returns the inner
// data payload
func decodeEnvelope(raw []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if env.Status != "" && env.Status != "success" && env.Status != "ok" {
		msg := env.Error
		if msg == "" {
			msg = env.Status
		}
		return nil, fmt.Errorf("%w: %s", ErrRequestFailed, msg)
	}
	return env.Data, nil
}

// upstreamMessage pulls a short human-readable error out of a failed
// response body, falling back to a truncated raw body
func upstreamMessage(raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != "" {
		return env.Error
	}
	s := string(raw)
	if len(s) > 200 {
		s = s[:200]
	}
	return strconv.Quote(s)
}
