package handler

import (
	"github.com/copystudio/backend/internal/application/social"
	domainsocial "github.com/copystudio/backend/internal/domain/social"
	"github.com/copystudio/backend/internal/infrastructure/remote"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ScheduleHandler proxies post scheduling to the schedule service. Creating
// a post requires an active connection to the target platform.
type ScheduleHandler struct {
	BaseHandler
	schedule    *remote.ScheduleClient
	connections *social.ConnectionService
	logger      *zap.Logger
}

// NewScheduleHandler creates a new ScheduleHandler
func NewScheduleHandler(schedule *remote.ScheduleClient, connections *social.ConnectionService, logger *zap.Logger) *ScheduleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleHandler{schedule: schedule, connections: connections, logger: logger}
}

// RegisterRoutes registers the schedule routes
func (h *ScheduleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	schedule := rg.Group("/schedule")
	{
		schedule.GET("", h.List)
		schedule.POST("", h.Create)
		schedule.DELETE("/:id", h.Cancel)
	}
}

// SchedulePostRequest carries the fields for a new scheduled post
type SchedulePostRequest struct {
	ProjectID   string `json:"project_id" binding:"required"`
	Platform    string `json:"platform" binding:"required"`
	Body        string `json:"body" binding:"required"`
	ScheduledAt string `json:"scheduled_at" binding:"required"`
}

// List returns the caller's scheduled posts
func (h *ScheduleHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	posts, err := h.schedule.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleUpstreamError(c, err, "Scheduled post not found")
		return
	}

	h.SuccessWithMeta(c, posts, len(posts))
}

// Create schedules a post after checking the platform connection
func (h *ScheduleHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req SchedulePostRequest
	if !h.bindJSON(c, &req) {
		return
	}

	platform, err := domainsocial.ParsePlatform(req.Platform)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.connections.AuthorizeShare(c.Request.Context(), userID, platform); err != nil {
		h.HandleError(c, err)
		return
	}

	post, err := h.schedule.Create(c.Request.Context(), remote.SchedulePostInput{
		ProjectID:   req.ProjectID,
		Platform:    string(platform),
		Body:        req.Body,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		h.HandleUpstreamError(c, err, "Project not found")
		return
	}

	h.Created(c, post)
}

// Cancel removes a scheduled post
func (h *ScheduleHandler) Cancel(c *gin.Context) {
	if err := h.schedule.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleUpstreamError(c, err, "Scheduled post not found")
		return
	}
	h.NoContent(c)
}
