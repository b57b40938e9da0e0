package handler

import (
	"net/http"

	"github.com/copystudio/backend/internal/application/syncer"
	"github.com/copystudio/backend/internal/domain/state"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WorkspaceHandler serves read access to the mirrored workspace state
type WorkspaceHandler struct {
	BaseHandler
	store  *state.Store
	sync   *syncer.Service
	logger *zap.Logger
}

// NewWorkspaceHandler creates a new WorkspaceHandler
func NewWorkspaceHandler(store *state.Store, sync *syncer.Service, logger *zap.Logger) *WorkspaceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkspaceHandler{store: store, sync: sync, logger: logger}
}

// RegisterRoutes registers the workspace routes
func (h *WorkspaceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	ws := rg.Group("/workspace")
	{
		ws.GET("/state", h.GetState)
		ws.GET("/profiles", h.GetProfiles)
		ws.PUT("/profiles/current", h.SelectProfile)
		ws.GET("/projects", h.GetProjects)
		ws.PUT("/projects/current", h.SelectProject)
		ws.POST("/refresh", h.Refresh)
	}
}

// UserSliceResponse is the user slice as exposed to clients
type UserSliceResponse struct {
	User    *state.User `json:"user"`
	Loading bool        `json:"loading"`
	Error   string      `json:"error,omitempty"`
	Version uint64      `json:"version"`
}

// ProfilesSliceResponse is the profiles slice as exposed to clients
type ProfilesSliceResponse struct {
	Items   []state.Profile `json:"items"`
	Current *state.Profile  `json:"current,omitempty"`
	Loading bool            `json:"loading"`
	Error   string          `json:"error,omitempty"`
	Version uint64          `json:"version"`
}

// ProjectsSliceResponse is the projects slice as exposed to clients
type ProjectsSliceResponse struct {
	Items   []state.Project `json:"items"`
	Current *state.Project  `json:"current,omitempty"`
	Loading bool            `json:"loading"`
	Error   string          `json:"error,omitempty"`
	Version uint64          `json:"version"`
}

// WorkspaceStateResponse is the full workspace snapshot
type WorkspaceStateResponse struct {
	User     UserSliceResponse     `json:"user"`
	Profiles ProfilesSliceResponse `json:"profiles"`
	Projects ProjectsSliceResponse `json:"projects"`
}

func toUserSliceResponse(v state.UserView) UserSliceResponse {
	return UserSliceResponse{User: v.User, Loading: v.Loading, Error: v.Err, Version: v.Version}
}

func toProfilesSliceResponse(v state.ProfilesView) ProfilesSliceResponse {
	items := v.Items
	if items == nil {
		items = []state.Profile{}
	}
	return ProfilesSliceResponse{Items: items, Current: v.Current, Loading: v.Loading, Error: v.Err, Version: v.Version}
}

func toProjectsSliceResponse(v state.ProjectsView) ProjectsSliceResponse {
	items := v.Items
	if items == nil {
		items = []state.Project{}
	}
	return ProjectsSliceResponse{Items: items, Current: v.Current, Loading: v.Loading, Error: v.Err, Version: v.Version}
}

// GetState returns the full workspace snapshot in one response. The three
// slices are read independently, so a mutation between reads can surface in
// one slice and not another; each carries its own version for that reason.
func (h *WorkspaceHandler) GetState(c *gin.Context) {
	resp := WorkspaceStateResponse{
		User:     toUserSliceResponse(h.store.UserSnapshot()),
		Profiles: toProfilesSliceResponse(h.store.ProfilesSnapshot()),
		Projects: toProjectsSliceResponse(h.store.ProjectsSnapshot()),
	}
	h.Success(c, resp)
}

// GetProfiles returns the profiles slice
func (h *WorkspaceHandler) GetProfiles(c *gin.Context) {
	resp := toProfilesSliceResponse(h.store.ProfilesSnapshot())
	h.Success(c, resp)
}

// GetProjects returns the projects slice, optionally filtered by status
// and profile. Filters apply to the items only; current and version always
// describe the unfiltered slice.
func (h *WorkspaceHandler) GetProjects(c *gin.Context) {
	resp := toProjectsSliceResponse(h.store.ProjectsSnapshot())

	if raw := c.Query("status"); raw != "" {
		status := state.ProjectStatus(raw)
		if !status.Valid() {
			h.BadRequest(c, "Unknown project status: "+raw)
			return
		}
		resp.Items = h.store.ProjectsByStatus(status)
	}
	if profileID := c.Query("profile_id"); profileID != "" {
		filtered := make([]state.Project, 0, len(resp.Items))
		for _, p := range resp.Items {
			if p.ProfileID == profileID {
				filtered = append(filtered, p)
			}
		}
		resp.Items = filtered
	}
	if resp.Items == nil {
		resp.Items = []state.Project{}
	}

	h.Success(c, resp)
}

// SelectCurrentRequest identifies the item being selected
type SelectCurrentRequest struct {
	ID string `json:"id" binding:"required"`
}

// SelectProfile marks a profile as the current selection
func (h *WorkspaceHandler) SelectProfile(c *gin.Context) {
	var req SelectCurrentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if _, ok := h.store.ProfileByID(req.ID); !ok {
		h.NotFound(c, "Profile not found")
		return
	}
	h.store.SetCurrentProfile(req.ID)
	h.Success(c, toProfilesSliceResponse(h.store.ProfilesSnapshot()))
}

// SelectProject marks a project as the current selection
func (h *WorkspaceHandler) SelectProject(c *gin.Context) {
	var req SelectCurrentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if _, ok := h.store.ProjectByID(req.ID); !ok {
		h.NotFound(c, "Project not found")
		return
	}
	h.store.SetCurrentProject(req.ID)
	h.Success(c, toProjectsSliceResponse(h.store.ProjectsSnapshot()))
}

// Refresh forces a refetch of the caller's workspace and notifies peers
func (h *WorkspaceHandler) Refresh(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.sync.Refresh(c.Request.Context(), userID); err != nil {
		h.logger.Warn("workspace refresh failed", zap.String("user_id", userID), zap.Error(err))
		h.HandleError(c, err)
		return
	}

	c.Status(http.StatusAccepted)
}
