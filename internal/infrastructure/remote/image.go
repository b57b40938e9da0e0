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

// ImageClient talks to the image generation service
type ImageClient struct {
	client
}

// NewImageClient creates an image service client
func NewImageClient(baseURL string, timeout time.Duration, logger *zap.Logger) *ImageClient {
	return &ImageClient{client: newClient(baseURL, timeout, logger)}
}

// GeneratedImage is one image produced for a user's campaigns
type GeneratedImage struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Prompt    string `json:"prompt,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

type generatedImageDTO struct {
	ID        flexID `json:"id"`
	URL       string `json:"url"`
	Prompt    string `json:"prompt,omitempty"`
	ProjectID flexID `json:"project_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ListByUser fetches the user's generated images
func (c *ImageClient) ListByUser(ctx context.Context, userID string) ([]GeneratedImage, error) {
	raw, err := c.doRequest(ctx, http.MethodGet, "/images/user/"+url.PathEscape(userID), nil)
	if err != nil {
		return nil, err
	}

	data, err := decodeEnvelope(raw)
	if err != nil {
		return nil, err
	}

	var dtos []generatedImageDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	images := make([]GeneratedImage, 0, len(dtos))
	for _, d := range dtos {
		images = append(images, GeneratedImage{
			ID:        d.ID.String(),
			URL:       d.URL,
			Prompt:    d.Prompt,
			ProjectID: d.ProjectID.String(),
			CreatedAt: d.CreatedAt,
		})
	}
	return images, nil
}
