package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/copystudio/backend/internal/domain/state"
)

// ProjectsClient talks to the campaign project service
type ProjectsClient struct {
	client
}

// NewProjectsClient creates a projects service client
func NewProjectsClient(baseURL string, timeout time.Duration, logger *zap.Logger) *ProjectsClient {
	return &ProjectsClient{client: newClient(baseURL, timeout, logger)}
}

// projectDTO is the wire shape of a campaign project
type projectDTO struct {
	ID          flexID `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	UserID      flexID `json:"user_id"`
	ProfileID   flexID `json:"profile_id,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// toState maps the wire shape onto the workspace project. Upstream projects
// are live by definition, so they arrive as active.
func (d projectDTO) toState() state.Project {
	updatedAt := d.UpdatedAt
	if updatedAt == "" {
		updatedAt = d.CreatedAt
	}
	return state.Project{
		ID:          d.ID.String(),
		Name:        d.Name,
		Description: d.Description,
		ProfileID:   d.ProfileID.String(),
		Status:      state.ProjectStatusActive,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

// CreateProjectInput holds the fields accepted by the project service
type CreateProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	UserID      string `json:"user_id"`
	ProfileID   string `json:"profile_id,omitempty"`
}

// UpdateProjectInput holds the mutable project fields
type UpdateProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ProfileID   string `json:"profile_id,omitempty"`
}

// ListByUser fetches all projects belonging to a user, preserving upstream
// order
func (c *ProjectsClient) ListByUser(ctx context.Context, userID string) ([]state.Project, error) {
	raw, err := c.doRequest(ctx, http.MethodGet, "/projects/user/"+url.PathEscape(userID), nil)
	if err != nil {
		return nil, err
	}
	return c.decodeProjects(raw)
}

// Search queries projects by free-text match on the upstream service
func (c *ProjectsClient) Search(ctx context.Context, userID, query string) ([]state.Project, error) {
	q := url.Values{}
	q.Set("user_id", userID)
	q.Set("query", query)

	raw, err := c.doRequest(ctx, http.MethodGet, "/projects/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return c.decodeProjects(raw)
}

// Create creates a project on the upstream service and returns the stored
// representation
func (c *ProjectsClient) Create(ctx context.Context, input CreateProjectInput) (state.Project, error) {
	raw, err := c.doRequest(ctx, http.MethodPost, "/projects", input)
	if err != nil {
		return state.Project{}, err
	}
	return c.decodeProject(raw)
}

// Update replaces a project's mutable fields on the upstream service
func (c *ProjectsClient) Update(ctx context.Context, projectID, userID string, input UpdateProjectInput) (state.Project, error) {
	path := "/projects/" + url.PathEscape(projectID) + "/user/" + url.PathEscape(userID)
	raw, err := c.doRequest(ctx, http.MethodPut, path, input)
	if err != nil {
		return state.Project{}, err
	}
	return c.decodeProject(raw)
}

// Delete removes a project on the upstream service
func (c *ProjectsClient) Delete(ctx context.Context, projectID, userID string) error {
	path := "/projects/" + url.PathEscape(projectID) + "/user/" + url.PathEscape(userID)
	_, err := c.doRequest(ctx, http.MethodDelete, path, nil)
	return err
}

func (c *ProjectsClient) decodeProjects(raw []byte) ([]state.Project, error) {
	data, err := decodeEnvelope(raw)
	if err != nil {
		return nil, err
	}

	var dtos []projectDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	projects := make([]state.Project, 0, len(dtos))
	for _, d := range dtos {
		projects = append(projects, d.toState())
	}
	return projects, nil
}

func (c *ProjectsClient) decodeProject(raw []byte) (state.Project, error) {
	data, err := decodeEnvelope(raw)
	if err != nil {
		return state.Project{}, err
	}

	var dto projectDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return state.Project{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return dto.toState(), nil
}
