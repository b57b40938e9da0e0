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
	"github.com/copystudio/backend/internal/domain/state"
)

// ProfilesClient talks to the brand profile service
type ProfilesClient struct {
	client
}

// NewProfilesClient creates a profiles service client
func NewProfilesClient(baseURL string, timeout time.Duration, logger *zap.Logger) *ProfilesClient {
	return &ProfilesClient{client: newClient(baseURL, timeout, logger)}
}

// profileDTO is the wire shape of a brand profile
type profileDTO struct {
	ID             flexID `json:"id"`
	ProfileName    string `json:"profile_name"`
	ProfileContext string `json:"profile_context"`
	IsDefault      bool   `json:"is_default"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

// toState maps the wire shape onto the workspace profile. The upstream
// carries no audience or social handles, so those start empty; a missing
// updated_at falls back to created_at.
func (d profileDTO) toState() state.Profile {
	updatedAt := d.UpdatedAt
	if updatedAt == "" {
		updatedAt = d.CreatedAt
	}
	return state.Profile{
		ID:          d.ID.String(),
		Name:        d.ProfileName,
		Description: d.ProfileContext,
		SocialMedia: map[social.Platform]string{},
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

// ListByUser fetches all brand profiles belonging to a user, preserving
// upstream order
func (c *ProfilesClient) ListByUser(ctx context.Context, userID string) ([]state.Profile, error) {
	raw, err := c.doRequest(ctx, http.MethodGet, "/profiles/user/"+url.PathEscape(userID), nil)
	if err != nil {
		return nil, err
	}

	data, err := decodeEnvelope(raw)
	if err != nil {
		return nil, err
	}

	var dtos []profileDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	profiles := make([]state.Profile, 0, len(dtos))
	for _, d := range dtos {
		profiles = append(profiles, d.toState())
	}
	return profiles, nil
}
