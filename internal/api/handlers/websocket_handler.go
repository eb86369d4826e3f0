package handlers

import (
	"context"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/afs-framework/backend/internal/assessment"
	"github.com/afs-framework/backend/internal/metrics"
	"github.com/afs-framework/backend/internal/progress"
	"github.com/afs-framework/backend/pkg/logger"
)

const pingInterval = 30 * time.Second

type WebSocketHandler struct {
	service *assessment.Service
	hub     *progress.Hub
}

func NewWebSocketHandler(service *assessment.Service, hub *progress.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		service: service,
		hub:     hub,
	}
}

// HandleProgress streams completion snapshots for one assessment: the
// current snapshot on connect, then an update after every saved
// response until the client disconnects.
func (h *WebSocketHandler) HandleProgress(c *websocket.Conn) {
	assessmentID := c.Params("id")

	defer c.Close()

	snap, err := h.service.Progress(context.Background(), assessmentID)
	if err != nil {
		h.sendError(c, "Assessment not found")
		return
	}

	updates, cancel := h.hub.Subscribe(assessmentID)
	defer cancel()

	metrics.ProgressStreams.Inc()
	defer metrics.ProgressStreams.Dec()

	logger.Info("Progress stream opened", zap.String("assessment_id", assessmentID))
	defer logger.Info("Progress stream closed", zap.String("assessment_id", assessmentID))

	if err := c.WriteJSON(progressMessage(*snap)); err != nil {
		logger.Error("Failed to send initial snapshot", zap.Error(err))
		return
	}

	// Drain client frames so closes are noticed promptly.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := c.WriteJSON(progressMessage(update)); err != nil {
				logger.Error("Failed to send progress update", zap.Error(err))
				return
			}
		case <-pingTicker.C:
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func progressMessage(snap progress.Snapshot) map[string]interface{} {
	return map[string]interface{}{
		"type": "progress",
		"data": snap,
	}
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	msg := map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	}

	c.WriteJSON(msg)
}
