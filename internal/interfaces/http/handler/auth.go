package handler

import (
	"github.com/copystudio/backend/internal/application/identity"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler exposes the session lifecycle endpoints
type AuthHandler struct {
	BaseHandler
	sessions *identity.SessionService
	logger   *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(sessions *identity.SessionService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{sessions: sessions, logger: logger}
}

// RegisterRoutes registers the auth routes
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/session", h.CreateSession)
		auth.POST("/refresh", h.RefreshSession)
		auth.POST("/logout", h.Logout)
	}
}

// CreateSessionRequest carries the provider assertion for sign-in
type CreateSessionRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

// RefreshSessionRequest carries the refresh token to rotate
type RefreshSessionRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CreateSession exchanges a Google ID token for a gateway session
func (h *AuthHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.sessions.Login(c.Request.Context(), identity.LoginInput{Assertion: req.IDToken})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// RefreshSession rotates a refresh token into a new session pair
func (h *AuthHandler) RefreshSession(c *gin.Context) {
	var req RefreshSessionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.sessions.Refresh(c.Request.Context(), identity.RefreshInput{RefreshToken: req.RefreshToken})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Logout terminates the caller's session and revokes outstanding tokens
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.sessions.Logout(c.Request.Context(), identity.LogoutInput{UserID: userID}); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
