package handlers

import (
	"net/http"
	"strconv"

	"safar/services/events"
	"safar/services/realtime"

	"github.com/gin-gonic/gin"
)

// RealtimeHandler exposes the backend event-stream connection to operators.
type RealtimeHandler struct {
	Client *realtime.Client
	Hub    *events.Hub
}

func NewRealtimeHandler(client *realtime.Client, hub *events.Hub) *RealtimeHandler {
	return &RealtimeHandler{Client: client, Hub: hub}
}

// StateHandler reports the current connection state.
func (h *RealtimeHandler) StateHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.Client.State().String()})
}

// RecentEventsHandler returns the most recently received stream events.
func (h *RealtimeHandler) RecentEventsHandler(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, gin.H{"events": h.Hub.Recent(limit)})
}
