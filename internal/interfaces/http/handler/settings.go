package handler

import (
	"github.com/copystudio/backend/internal/application/preference"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SettingsHandler exposes the workspace preference endpoints
type SettingsHandler struct {
	BaseHandler
	preferences *preference.Service
	logger      *zap.Logger
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(preferences *preference.Service, logger *zap.Logger) *SettingsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsHandler{preferences: preferences, logger: logger}
}

// RegisterRoutes registers the settings routes
func (h *SettingsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	settings := rg.Group("/settings")
	{
		settings.GET("/model", h.GetModel)
		settings.PUT("/model", h.SetModel)
	}
}

// ModelResponse reports the selected AI model
type ModelResponse struct {
	Model string `json:"model"`
}

// SetModelRequest carries the model to select
type SetModelRequest struct {
	Model string `json:"model" binding:"required,max=100"`
}

// GetModel returns the caller's selected AI model
func (h *SettingsHandler) GetModel(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	model, err := h.preferences.SelectedModel(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ModelResponse{Model: model})
}

// SetModel stores the caller's selected AI model
func (h *SettingsHandler) SetModel(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req SetModelRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.preferences.SetSelectedModel(c.Request.Context(), userID, req.Model); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ModelResponse{Model: req.Model})
}
