package handler

import (
	"github.com/copystudio/backend/internal/infrastructure/remote"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContentHandler proxies content piece operations to the content service
type ContentHandler struct {
	BaseHandler
	content *remote.ContentClient
	logger  *zap.Logger
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(content *remote.ContentClient, logger *zap.Logger) *ContentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentHandler{content: content, logger: logger}
}

// RegisterRoutes registers the content routes
func (h *ContentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	content := rg.Group("/content")
	{
		content.GET("/project/:projectId", h.ListByProject)
		content.POST("", h.Create)
		content.PUT("/:id", h.Update)
		content.DELETE("/:id", h.Delete)
	}
}

// CreateContentRequest carries the fields for a new content piece
type CreateContentRequest struct {
	ProjectID string `json:"project_id" binding:"required"`
	Title     string `json:"title" binding:"required,max=300"`
	Body      string `json:"body" binding:"required"`
	Channel   string `json:"channel"`
}

// UpdateContentRequest carries the mutable content fields
type UpdateContentRequest struct {
	Title   string `json:"title" binding:"required,max=300"`
	Body    string `json:"body" binding:"required"`
	Channel string `json:"channel"`
}

// ListByProject returns all content pieces for a project
func (h *ContentHandler) ListByProject(c *gin.Context) {
	pieces, err := h.content.ListByProject(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		h.HandleUpstreamError(c, err, "Project not found")
		return
	}
	h.SuccessWithMeta(c, pieces, len(pieces))
}

// Create creates a content piece upstream
func (h *ContentHandler) Create(c *gin.Context) {
	var req CreateContentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	piece, err := h.content.Create(c.Request.Context(), remote.CreateContentInput{
		ProjectID: req.ProjectID,
		Title:     req.Title,
		Body:      req.Body,
		Channel:   req.Channel,
	})
	if err != nil {
		h.HandleUpstreamError(c, err, "Project not found")
		return
	}

	h.Created(c, piece)
}

// Update updates a content piece upstream
func (h *ContentHandler) Update(c *gin.Context) {
	var req UpdateContentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	piece, err := h.content.Update(c.Request.Context(), c.Param("id"), remote.UpdateContentInput{
		Title:   req.Title,
		Body:    req.Body,
		Channel: req.Channel,
	})
	if err != nil {
		h.HandleUpstreamError(c, err, "Content not found")
		return
	}

	h.Success(c, piece)
}

// Delete removes a content piece upstream
func (h *ContentHandler) Delete(c *gin.Context) {
	if err := h.content.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleUpstreamError(c, err, "Content not found")
		return
	}
	h.NoContent(c)
}
