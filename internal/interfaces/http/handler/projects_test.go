package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/copystudio/backend/internal/domain/state"
	"github.com/copystudio/backend/internal/infrastructure/remote"
	"github.com/copystudio/backend/internal/interfaces/http/dto"
)

func newProjectsRouter(upstream string, userID string) (*gin.Engine, *state.Store) {
	store := state.NewStore()
	client := remote.NewProjectsClient(upstream, time.Second, zap.NewNop())
	r := gin.New()
	r.Use(asUser(userID))
	h := NewProjectsHandler(client, newTestSyncer(store), zap.NewNop())
	h.RegisterRoutes(r.Group("/api/v1"))
	return r, store
}

func TestProjectsHandler_Create(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/projects", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","data":{"id":7,"name":"Launch","description":"d","created_at":"2024-01-01"}}`))
	}))
	defer upstream.Close()

	r, _ := newProjectsRouter(upstream.URL, "u1")

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/projects",
		`{"name":"Launch","description":"d"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "7", data["id"])
	assert.Equal(t, "Launch", data["name"])
}

func TestProjectsHandler_CreateRequiresName(t *testing.T) {
	r, _ := newProjectsRouter("http://127.0.0.1:0", "u1")

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/projects", `{"description":"d"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
}

func TestProjectsHandler_UpstreamFailureIsBadGateway(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status":"error","error":"database down"}`))
	}))
	defer upstream.Close()

	r, _ := newProjectsRouter(upstream.URL, "u1")

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/projects", `{"name":"Launch"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, dto.ErrCodeUpstreamFailed, resp.Error.Code)
}

func TestProjectsHandler_DeleteNotFound(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer upstream.Close()

	r, _ := newProjectsRouter(upstream.URL, "u1")

	w, resp := doJSON(t, r, http.MethodDelete, "/api/v1/projects/9", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
}

func TestProjectsHandler_Search(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/projects/search", r.URL.Path)
		require.Equal(t, "launch", r.URL.Query().Get("query"))
		require.Equal(t, "u1", r.URL.Query().Get("user_id"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","data":[{"id":1,"name":"Launch","created_at":"2024-01-01"}]}`))
	}))
	defer upstream.Close()

	r, _ := newProjectsRouter(upstream.URL, "u1")

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/projects/search?q=launch", "")

	assert.Equal(t, http.StatusOK, w.Code)
	items := resp.Data.([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "Launch", items[0].(map[string]interface{})["name"])
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 1, resp.Meta.Total)
}

func TestProjectsHandler_SearchRequiresQuery(t *testing.T) {
	r, _ := newProjectsRouter("http://127.0.0.1:0", "u1")

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/projects/search", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
}

func TestProjectsHandler_RequiresUser(t *testing.T) {
	r, _ := newProjectsRouter("http://127.0.0.1:0", "")

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/projects", `{"name":"Launch"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
}
