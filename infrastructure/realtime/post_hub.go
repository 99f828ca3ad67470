package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"social-relay/domain/model"
	"social-relay/domain/repository"

	"github.com/gin-gonic/gin"
)

const sessionIDKey = "session_id"

// PostHub fans post events out to SSE subscribers of the session that published them.
type PostHub struct {
	mu       sync.RWMutex
	sessions map[string]map[chan model.PostEvent]struct{}
}

var _ repository.IPostEvents = (*PostHub)(nil)

func NewPostHub() *PostHub {
	return &PostHub{sessions: make(map[string]map[chan model.PostEvent]struct{})}
}

// Serve streams events for the session set by the session middleware.
func (h *PostHub) Serve(c *gin.Context) {
	sessionID := c.GetString(sessionIDKey)
	if sessionID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	ch, unsubscribe := h.Subscribe(sessionID)
	defer unsubscribe()

	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			c.SSEvent(evt.Type, string(data))
			c.Writer.Flush()
		}
	}
}

// Subscribe registers a buffered channel for a session. The returned func must be called once.
func (h *PostHub) Subscribe(sessionID string) (<-chan model.PostEvent, func()) {
	ch := make(chan model.PostEvent, 8)
	h.mu.Lock()
	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[chan model.PostEvent]struct{})
	}
	h.sessions[sessionID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.remove(sessionID, ch) })
	}
}

func (h *PostHub) remove(sessionID string, ch chan model.PostEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.sessions[sessionID]
	if subs == nil {
		return
	}
	delete(subs, ch)
	close(ch)
	if len(subs) == 0 {
		delete(h.sessions, sessionID)
	}
}

// Publish never blocks: slow subscribers drop events.
func (h *PostHub) Publish(_ context.Context, evt model.PostEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.sessions[evt.SessionID] {
		select {
		case ch <- evt:
		default:
		}
	}
	return nil
}

// Subscribers reports the open stream count for a session.
func (h *PostHub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}
