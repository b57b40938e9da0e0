package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/copystudio/backend/internal/domain/social"
)

// ScheduleClient talks to the post scheduling service
type ScheduleClient struct {
	client
}

// NewScheduleClient creates a schedule service client
func NewScheduleClient(baseURL string, timeout time.Duration, logger *zap.Logger) *ScheduleClient {
	return &ScheduleClient{client: newClient(baseURL, timeout, logger)}
}

// ScheduledPost is one queued social post
type ScheduledPost struct {
	ID          string          `json:"id"`
	ProjectID   string          `json:"project_id"`
	Platform    social.Platform `json:"platform"`
	Body        string          `json:"body"`
	ScheduledAt string          `json:"scheduled_at"`
	Status      string          `json:"status"`
}

type scheduledPostDTO struct {
	ID          flexID `json:"id"`
	ProjectID   flexID `json:"project_id"`
	Platform    string `json:"platform"`
	Body        string `json:"body"`
	ScheduledAt string `json:"scheduled_at"`
	Status      string `json:"status"`
}

func (d scheduledPostDTO) toPost() ScheduledPost {
	return ScheduledPost{
		ID:          d.ID.String(),
		ProjectID:   d.ProjectID.String(),
		Platform:    social.Platform(d.Platform),
		Body:        d.Body,
		ScheduledAt: d.ScheduledAt,
		Status:      d.Status,
	}
}

// SchedulePostInput holds the fields accepted by the schedule service
type SchedulePostInput struct {
	ProjectID   string `json:"project_id"`
	Platform    string `json:"platform"`
	Body        string `json:"body"`
	ScheduledAt string `json:"scheduled_at"`
}

// ListByUser fetches all scheduled posts for a user
func (c *ScheduleClient) ListByUser(ctx context.Context, userID string) ([]ScheduledPost, error) {
	raw, err := c.doRequest(ctx, http.MethodGet, "/schedule/user/"+url.PathEscape(userID), nil)
	if err != nil {
		return nil, err
	}

	data, err := decodeEnvelope(raw)
	if err != nil {
		return nil, err
	}

	var dtos []scheduledPostDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	posts := make([]ScheduledPost, 0, len(dtos))
	for _, d := range dtos {
		posts = append(posts, d.toPost())
	}
	return posts, nil
}

// Create queues a new scheduled post
func (c *ScheduleClient) Create(ctx context.Context, input SchedulePostInput) (ScheduledPost, error) {
	raw, err := c.doRequest(ctx, http.MethodPost, "/schedule", input)
	if err != nil {
		return ScheduledPost{}, err
	}

	data, err := decodeEnvelope(raw)
	if err != nil {
		return ScheduledPost{}, err
	}

	var dto scheduledPostDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return ScheduledPost{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return dto.toPost(), nil
}

// Cancel cancels a queued post
func (c *ScheduleClient) Cancel(ctx context.Context, postID string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, "/schedule/"+url.PathEscape(postID), nil)
	return err
}
