package server

import (
	"io"
	"time"

	"github.com/MarcoPoloResearchLab/collectibles/internal/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type eventPayload struct {
	Version      uint64              `json:"version"`
	Source       string              `json:"source"`
	Timestamp    time.Time           `json:"timestamp"`
	Notification *store.Notification `json:"notification,omitempty"`
}

// handleEvents streams state-change and notification events. The first event announces the
// current version so a client can fetch the dashboard without racing the stream.
func (h *httpHandler) handleEvents(c *gin.Context) {
	ctx := c.Request.Context()
	stream, cleanup := h.realtime.Subscribe(ctx)
	defer cleanup()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent(RealtimeEventStateChanged, eventPayload{
		Version:   h.store.Snapshot().Version,
		Source:    realtimeSource,
		Timestamp: time.Now().UTC(),
	})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	h.logger.Debug("event stream opened", zap.String("remote_addr", c.ClientIP()))
	c.Stream(func(_ io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case message := <-stream:
			timestamp := message.Timestamp
			if timestamp.IsZero() {
				timestamp = time.Now().UTC()
			}
			c.SSEvent(message.EventType, eventPayload{
				Version:      message.Version,
				Source:       realtimeSource,
				Timestamp:    timestamp,
				Notification: message.Notification,
			})
			return true
		case tick := <-ticker.C:
			c.SSEvent(realtimeEventHeartbeat, eventPayload{
				Source:    realtimeSource,
				Timestamp: tick.UTC(),
			})
			return true
		}
	})
	h.logger.Debug("event stream closed", zap.String("remote_addr", c.ClientIP()))
}
