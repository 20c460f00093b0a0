// Package sse streams live pipeline events to connected dashboards with
// Server-Sent Events.
package sse

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"revenue_automation_backend/platform/events"
	"revenue_automation_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const clientBuffer = 32

// client represents a connected SSE client
type client struct {
	workspaceID string
	events      chan events.Event
}

// Service fans events out to the clients watching each workspace.
type Service struct {
	mu      sync.RWMutex
	clients map[string][]*client // workspaceID -> clients
	log     *logger.Logger
}

// New creates a new SSE service
func New(log *logger.Logger) *Service {
	return &Service{
		clients: make(map[string][]*client),
		log:     log,
	}
}

func (s *Service) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.workspaceID] = append(s.clients[c.workspaceID], c)
}

func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients := s.clients[c.workspaceID]
	for i, cl := range clients {
		if cl == c {
			s.clients[c.workspaceID] = append(clients[:i], clients[i+1:]...)
			close(c.events)
			break
		}
	}
	if len(s.clients[c.workspaceID]) == 0 {
		delete(s.clients, c.workspaceID)
	}
}

// Handle implements events.Handler: every event read from the broadcast
// channel goes to the clients of its workspace. Slow clients drop events.
func (s *Service) Handle(_ context.Context, event events.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.clients[event.WorkspaceID] {
		select {
		case c.events <- event:
		default:
			s.log.Warn("sse buffer full, dropping event", "workspace_id", event.WorkspaceID, "type", event.Type)
		}
	}
}

// ClientCount returns the number of connected clients for a workspace.
func (s *Service) ClientCount(workspaceID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients[workspaceID])
}

// Handler returns a Gin handler streaming events of the workspace named by
// the :id path parameter.
func (s *Service) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		workspaceID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workspace id"})
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := &client{
			workspaceID: workspaceID.String(),
			events:      make(chan events.Event, clientBuffer),
		}
		s.addClient(cl)
		defer s.removeClient(cl)

		c.SSEvent("connected", gin.H{"workspaceId": cl.workspaceID})
		c.Writer.Flush()
		s.log.Debug("sse client connected", "workspace_id", cl.workspaceID)

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				s.log.Debug("sse client disconnected", "workspace_id", cl.workspaceID)
				return
			case event, ok := <-cl.events:
				if !ok {
					return
				}
				data, _ := json.Marshal(event)
				c.SSEvent(event.Type, string(data))
				c.Writer.Flush()
			}
		}
	}
}

// Close disconnects every client.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, clients := range s.clients {
		for _, c := range clients {
			close(c.events)
		}
	}
	s.clients = make(map[string][]*client)
}
