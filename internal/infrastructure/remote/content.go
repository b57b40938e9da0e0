package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// ContentClient talks to the copy generation service
type ContentClient struct {
	client
}

// NewContentClient creates a content service client
func NewContentClient(baseURL string, timeout time.Duration, logger *zap.Logger) *ContentClient {
	return &ContentClient{client: newClient(baseURL, timeout, logger)}
}

// ContentPiece is one generated piece of marketing copy attached to a
// project
type ContentPiece struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Channel   string `json:"channel,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type contentDTO struct {
	ID        flexID `json:"id"`
	ProjectID flexID `json:"project_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Channel   string `json:"channel,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func (d contentDTO) toPiece() ContentPiece {
	updatedAt := d.UpdatedAt
	if updatedAt == "" {
		updatedAt = d.CreatedAt
	}
	return ContentPiece{
		ID:        d.ID.String(),
		ProjectID: d.ProjectID.String(),
		Title:     d.Title,
		Body:      d.Body,
		Channel:   d.Channel,
		CreatedAt: d.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

// CreateContentInput holds the fields accepted by the content service
type CreateContentInput struct {
	ProjectID string `json:"project_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Channel   string `json:"channel,omitempty"`
}

// UpdateContentInput holds the mutable content fields
type UpdateContentInput struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	Channel string `json:"channel,omitempty"`
}

// ListByProject fetches all content pieces for a project
func (c *ContentClient) ListByProject(ctx context.Context, projectID string) ([]ContentPiece, error) {
	raw, err := c.doRequest(ctx, http.MethodGet, "/content/project/"+url.PathEscape(projectID), nil)
	if err != nil {
		return nil, err
	}

	data, err := decodeEnvelope(raw)
	if err != nil {
		return nil, err
	}

	var dtos []contentDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	pieces := make([]ContentPiece, 0, len(dtos))
	for _, d := range dtos {
		pieces = append(pieces, d.toPiece())
	}
	return pieces, nil
}

// Create stores a new content piece
func (c *ContentClient) Create(ctx context.Context, input CreateContentInput) (ContentPiece, error) {
	raw, err := c.doRequest(ctx, http.MethodPost, "/content", input)
	if err != nil {
		return ContentPiece{}, err
	}
	return c.decodePiece(raw)
}

// Update replaces a content piece's mutable fields
func (c *ContentClient) Update(ctx context.Context, contentID string, input UpdateContentInput) (ContentPiece, error) {
	raw, err := c.doRequest(ctx, http.MethodPut, "/content/"+url.PathEscape(contentID), input)
	if err != nil {
		return ContentPiece{}, err
	}
	return c.decodePiece(raw)
}

// Delete removes a content piece
func (c *ContentClient) Delete(ctx context.Context, contentID string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, "/content/"+url.PathEscape(contentID), nil)
	return err
}

func (c *ContentClient) decodePiece(raw []byte) (ContentPiece, error) {
	data, err := decodeEnvelope(raw)
	if err != nil {
		return ContentPiece{}, err
	}

	var dto contentDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return ContentPiece{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return dto.toPiece(), nil
}
