package handler

import (
	"github.com/copystudio/backend/internal/application/syncer"
	"github.com/copystudio/backend/internal/infrastructure/remote"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProjectsHandler proxies project mutations to the projects service and
// triggers a workspace refresh once the upstream write lands
type ProjectsHandler struct {
	BaseHandler
	projects *remote.ProjectsClient
	sync     *syncer.Service
	logger   *zap.Logger
}

// NewProjectsHandler creates a new ProjectsHandler
func NewProjectsHandler(projects *remote.ProjectsClient, sync *syncer.Service, logger *zap.Logger) *ProjectsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectsHandler{projects: projects, sync: sync, logger: logger}
}

// RegisterRoutes registers the project routes
func (h *ProjectsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	projects := rg.Group("/projects")
	{
		projects.POST("", h.Create)
		projects.PUT("/:id", h.Update)
		projects.DELETE("/:id", h.Delete)
		projects.GET("/search", h.Search)
	}
}

// CreateProjectRequest carries the fields for a new project
type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
	ProfileID   string `json:"profile_id"`
}

// UpdateProjectRequest carries the mutable project fields
type UpdateProjectRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
	ProfileID   string `json:"profile_id"`
}

// Create creates a project upstream and refreshes the workspace mirror
func (h *ProjectsHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateProjectRequest
	if !h.bindJSON(c, &req) {
		return
	}

	project, err := h.projects.Create(c.Request.Context(), remote.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		UserID:      userID,
		ProfileID:   req.ProfileID,
	})
	if err != nil {
		h.HandleUpstreamError(c, err, "Project not found")
		return
	}

	h.refreshAfterWrite(c, userID)
	h.Created(c, project)
}

// Update updates a project upstream and refreshes the workspace mirror
func (h *ProjectsHandler) Update(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req UpdateProjectRequest
	if !h.bindJSON(c, &req) {
		return
	}

	project, err := h.projects.Update(c.Request.Context(), c.Param("id"), userID, remote.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		ProfileID:   req.ProfileID,
	})
	if err != nil {
		h.HandleUpstreamError(c, err, "Project not found")
		return
	}

	h.refreshAfterWrite(c, userID)
	h.Success(c, project)
}

// Delete removes a project upstream and refreshes the workspace mirror
func (h *ProjectsHandler) Delete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.projects.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.HandleUpstreamError(c, err, "Project not found")
		return
	}

	h.refreshAfterWrite(c, userID)
	h.NoContent(c)
}

// Search queries the projects service directly, bypassing the mirror
func (h *ProjectsHandler) Search(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	query := c.Query("q")
	if query == "" {
		h.BadRequest(c, "Query parameter 'q' is required")
		return
	}

	results, err := h.projects.Search(c.Request.Context(), userID, query)
	if err != nil {
		h.HandleUpstreamError(c, err, "Project not found")
		return
	}

	h.SuccessWithMeta(c, results, len(results))
}

// refreshAfterWrite triggers a mirror refresh. Failures are logged, not
// surfaced; the upstream write already succeeded.
func (h *ProjectsHandler) refreshAfterWrite(c *gin.Context, userID string) {
	if err := h.sync.Refresh(c.Request.Context(), userID); err != nil {
		h.logger.Warn("post-write refresh failed",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}
