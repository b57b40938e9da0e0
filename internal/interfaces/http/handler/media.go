package handler

import (
	"net/http"

	"github.com/copystudio/backend/internal/infrastructure/remote"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MediaHandler proxies generated image listings and proposal document
// rendering to their upstream services
type MediaHandler struct {
	BaseHandler
	images    *remote.ImageClient
	proposals *remote.ProposalClient
	logger    *zap.Logger
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(images *remote.ImageClient, proposals *remote.ProposalClient, logger *zap.Logger) *MediaHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaHandler{images: images, proposals: proposals, logger: logger}
}

// RegisterRoutes registers the media routes
func (h *MediaHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/images", h.ListImages)
	rg.POST("/proposals", h.GenerateProposal)
}

// GenerateProposalRequest identifies the project to render
type GenerateProposalRequest struct {
	ProjectID string `json:"project_id" binding:"required"`
}

// ListImages returns the caller's generated images
func (h *MediaHandler) ListImages(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	images, err := h.images.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleUpstreamError(c, err, "Image not found")
		return
	}

	h.SuccessWithMeta(c, images, len(images))
}

// GenerateProposal renders a proposal document for a project and streams
// the binary back with the upstream media type
func (h *MediaHandler) GenerateProposal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req GenerateProposalRequest
	if !h.bindJSON(c, &req) {
		return
	}

	doc, err := h.proposals.Generate(c.Request.Context(), remote.GenerateProposalInput{
		ProjectID: req.ProjectID,
		UserID:    userID,
	})
	if err != nil {
		h.HandleUpstreamError(c, err, "Project not found")
		return
	}

	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}
