package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ProposalClient talks to the proposal generator, which renders a campaign
// proposal document for a project
type ProposalClient struct {
	client
}

// NewProposalClient creates a proposal generator client
func NewProposalClient(baseURL string, timeout time.Duration, logger *zap.Logger) *ProposalClient {
	return &ProposalClient{client: newClient(baseURL, timeout, logger)}
}

// GenerateProposalInput identifies the project the document is built from
type GenerateProposalInput struct {
	ProjectID string `json:"project_id"`
	UserID    string `json:"user_id"`
}

// ProposalDocument is the rendered binary document with its media type
type ProposalDocument struct {
	ContentType string
	Body        []byte
}

// Generate renders a proposal document. Unlike the other clients the
// response is an opaque binary, not a JSON envelope.
func (c *ProposalClient) Generate(ctx context.Context, input GenerateProposalInput) (*ProposalDocument, error) {
	encoded, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("remote: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/proposals/generate", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("remote: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("remote: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrRequestFailed, resp.StatusCode, upstreamMessage(body))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &ProposalDocument{ContentType: contentType, Body: body}, nil
}
