package handler

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copystudio/backend/internal/domain/state"
)

func newStreamServer(t *testing.T, h *WorkspaceStreamHandler) *httptest.Server {
	t.Helper()
	r := gin.New()
	r.Use(asUser("u1"))
	h.RegisterRoutes(r.Group("/api/v1"))
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func TestWorkspaceStreamHandler_DeliversChanges(t *testing.T) {
	store := state.NewStore()
	h := NewWorkspaceStreamHandler(store, WithStreamHeartbeat(time.Hour))
	defer h.Stop()
	server := newStreamServer(t, h)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/workspace/stream", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	var sawConnected, sawChange bool
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: connected") {
			sawConnected = true
			// The subscription is registered before the connected event,
			// so this mutation is guaranteed to be delivered.
			store.ReplaceProfiles([]state.Profile{{ID: "p1", Name: "Default"}})
		}
		if strings.HasPrefix(line, "data: ") && strings.Contains(line, `"slice":"profiles"`) {
			sawChange = true
			cancel()
			break
		}
	}

	assert.True(t, sawConnected)
	assert.True(t, sawChange)
}

func TestWorkspaceStreamHandler_MaxClients(t *testing.T) {
	store := state.NewStore()
	h := NewWorkspaceStreamHandler(store, WithStreamMaxClients(1))
	defer h.Stop()
	server := newStreamServer(t, h)

	h.clients.Store("occupied", &SSEClient{ID: "occupied", Done: make(chan struct{})})

	resp, err := http.Get(server.URL + "/api/v1/workspace/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestWorkspaceStreamHandler_ClientCount(t *testing.T) {
	h := NewWorkspaceStreamHandler(state.NewStore())
	defer h.Stop()

	assert.Equal(t, 0, h.GetClientCount())
	h.clients.Store("a", &SSEClient{ID: "a", Done: make(chan struct{})})
	assert.Equal(t, 1, h.GetClientCount())
}
