package handler

import (
	"github.com/copystudio/backend/internal/application/social"
	domainsocial "github.com/copystudio/backend/internal/domain/social"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IntegrationsHandler exposes the social platform connection endpoints
type IntegrationsHandler struct {
	BaseHandler
	connections *social.ConnectionService
	logger      *zap.Logger
}

// NewIntegrationsHandler creates a new IntegrationsHandler
func NewIntegrationsHandler(connections *social.ConnectionService, logger *zap.Logger) *IntegrationsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntegrationsHandler{connections: connections, logger: logger}
}

// RegisterRoutes registers the integration routes
func (h *IntegrationsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	integrations := rg.Group("/integrations")
	{
		integrations.GET("", h.List)
		integrations.POST("/:platform/connect", h.Connect)
		integrations.POST("/:platform/disconnect", h.Disconnect)
		integrations.POST("/share", h.Share)
	}
}

// ShareRequest identifies the platform a piece of content is shared to
type ShareRequest struct {
	Platform string `json:"platform" binding:"required"`
	Content  string `json:"content" binding:"required"`
}

// ShareResponse reports the outcome of a share
type ShareResponse struct {
	Platform domainsocial.Platform `json:"platform"`
	Shared   bool                  `json:"shared"`
	Message  string                `json:"message"`
}

// List returns the caller's connection status for every platform
func (h *IntegrationsHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	statuses, err := h.connections.Statuses(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, statuses)
}

// Connect marks a platform as connected for the caller
func (h *IntegrationsHandler) Connect(c *gin.Context) {
	h.setConnection(c, true)
}

// Disconnect marks a platform as disconnected for the caller
func (h *IntegrationsHandler) Disconnect(c *gin.Context) {
	h.setConnection(c, false)
}

func (h *IntegrationsHandler) setConnection(c *gin.Context, connect bool) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	platform, err := domainsocial.ParsePlatform(c.Param("platform"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var status social.ConnectionStatus
	if connect {
		status, err = h.connections.Connect(c.Request.Context(), userID, platform)
	} else {
		status, err = h.connections.Disconnect(c.Request.Context(), userID, platform)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, status)
}

// Share publishes content to a connected platform. The publish itself is
// simulated; the endpoint exists to enforce the connection gate.
func (h *IntegrationsHandler) Share(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req ShareRequest
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

	h.logger.Info("content shared",
		zap.String("user_id", userID),
		zap.String("platform", string(platform)))

	h.Success(c, ShareResponse{
		Platform: platform,
		Shared:   true,
		Message:  "Shared to " + platform.DisplayName(),
	})
}
