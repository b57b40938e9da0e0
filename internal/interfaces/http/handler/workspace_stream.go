package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/copystudio/backend/internal/domain/state"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SSEClient represents a connected SSE client. Each connection reads store
// changes through its own subscription; the client record exists for
// connection counting and shutdown signalling.
type SSEClient struct {
	ID     string
	UserID string
	Done   chan struct{}
}

// SSEMessage represents a message to be sent to SSE clients
type SSEMessage struct {
	Event string `json:"event"`
	Data  string `json:"data"`
	ID    string `json:"id,omitempty"`
}

// WorkspaceStreamHandler handles SSE connections for workspace change
// notifications. Events carry only the slice name and version; clients
// refetch the slice they care about.
type WorkspaceStreamHandler struct {
	BaseHandler
	store      *state.Store
	logger     *zap.Logger
	clients    sync.Map // map[string]*SSEClient
	ctx        context.Context
	cancel     context.CancelFunc
	heartbeat  time.Duration
	maxClients int
}

// WorkspaceStreamOption is a functional option for configuring the handler
type WorkspaceStreamOption func(*WorkspaceStreamHandler)

// WithStreamLogger sets the logger for the handler
func WithStreamLogger(logger *zap.Logger) WorkspaceStreamOption {
	return func(h *WorkspaceStreamHandler) {
		h.logger = logger
	}
}

// WithStreamHeartbeat sets the heartbeat interval
func WithStreamHeartbeat(interval time.Duration) WorkspaceStreamOption {
	return func(h *WorkspaceStreamHandler) {
		h.heartbeat = interval
	}
}

// WithStreamMaxClients sets the maximum number of concurrent SSE clients
func WithStreamMaxClients(max int) WorkspaceStreamOption {
	return func(h *WorkspaceStreamHandler) {
		h.maxClients = max
	}
}

// NewWorkspaceStreamHandler creates a new SSE handler for workspace changes
func NewWorkspaceStreamHandler(store *state.Store, opts ...WorkspaceStreamOption) *WorkspaceStreamHandler {
	ctx, cancel := context.WithCancel(context.Background())
	h := &WorkspaceStreamHandler{
		store:      store,
		logger:     zap.NewNop(),
		ctx:        ctx,
		cancel:     cancel,
		heartbeat:  30 * time.Second,
		maxClients: 10000,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// RegisterRoutes registers the stream route
func (h *WorkspaceStreamHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/workspace/stream", h.Stream)
}

// Stop disconnects all clients and stops the handler
func (h *WorkspaceStreamHandler) Stop() {
	h.cancel()

	h.clients.Range(func(key, value any) bool {
		if client, ok := value.(*SSEClient); ok {
			close(client.Done)
		}
		return true
	})

	h.logger.Info("Workspace stream handler stopped")
}

// GetClientCount returns the number of connected SSE clients
func (h *WorkspaceStreamHandler) GetClientCount() int {
	count := 0
	h.clients.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// Stream establishes a Server-Sent Events connection delivering workspace
// change notifications
func (h *WorkspaceStreamHandler) Stream(c *gin.Context) {
	if h.maxClients > 0 && h.GetClientCount() >= h.maxClients {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MAX_CONNECTIONS_REACHED",
				"message": "Maximum number of SSE connections reached",
			},
		})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	userID, _ := getUserID(c)

	client := &SSEClient{
		ID:     uuid.New().String(),
		UserID: userID,
		Done:   make(chan struct{}),
	}

	h.clients.Store(client.ID, client)
	changes, unsubscribe := h.store.Subscribe()
	defer func() {
		unsubscribe()
		h.clients.Delete(client.ID)
	}()

	h.logger.Info("SSE client connected",
		zap.String("client_id", client.ID),
		zap.String("user_id", userID))

	h.sendEvent(c.Writer, SSEMessage{
		Event: "connected",
		Data:  fmt.Sprintf(`{"client_id":"%s","timestamp":%d}`, client.ID, time.Now().Unix()),
	})
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	reqCtx := c.Request.Context()

	for {
		select {
		case <-reqCtx.Done():
			h.logger.Info("SSE client disconnected",
				zap.String("client_id", client.ID))
			return
		case <-client.Done:
			h.logger.Info("SSE client disconnected (done signal)",
				zap.String("client_id", client.ID))
			return
		case <-h.ctx.Done():
			h.logger.Info("SSE handler stopped, disconnecting client",
				zap.String("client_id", client.ID))
			return
		case <-heartbeat.C:
			h.sendEvent(c.Writer, SSEMessage{
				Event: "heartbeat",
				Data:  fmt.Sprintf(`{"timestamp":%d}`, time.Now().Unix()),
			})
			c.Writer.Flush()
		case change, ok := <-changes:
			if !ok {
				return
			}
			msg, err := changeToMessage(change)
			if err != nil {
				h.logger.Error("Failed to encode SSE event", zap.Error(err))
				continue
			}
			h.sendEvent(c.Writer, msg)
			c.Writer.Flush()
		}
	}
}

// changeToMessage encodes a store change as an SSE message
func changeToMessage(change state.Change) (SSEMessage, error) {
	data, err := json.Marshal(change)
	if err != nil {
		return SSEMessage{}, err
	}
	return SSEMessage{
		Event: "state_changed",
		Data:  string(data),
		ID:    fmt.Sprintf("%s-%d", change.Slice, change.Version),
	}, nil
}

// sendEvent writes an SSE event to the response writer
func (h *WorkspaceStreamHandler) sendEvent(w io.Writer, msg SSEMessage) {
	if msg.Event != "" {
		fmt.Fprintf(w, "event: %s\n", msg.Event)
	}
	if msg.ID != "" {
		fmt.Fprintf(w, "id: %s\n", msg.ID)
	}
	fmt.Fprintf(w, "data: %s\n\n", msg.Data)
}
