package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fpl-optimizer/internal/services"
)

type HealthHandler struct {
	snapshots *services.SnapshotService
	hub       *services.Hub
}

func NewHealthHandler(snapshots *services.SnapshotService, hub *services.Hub) *HealthHandler {
	return &HealthHandler{snapshots: snapshots, hub: hub}
}

// Health reports liveness plus the age of the stored snapshot.
func (h *HealthHandler) Health(c *gin.Context) {
	resp := gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	}
	if h.hub != nil {
		resp["ws_clients"] = h.hub.ClientCount()
	}
	if sync, err := h.snapshots.LastSync(); err == nil && sync != nil {
		resp["last_sync"] = sync.CreatedAt
		resp["players"] = sync.Players
	}
	c.JSON(http.StatusOK, resp)
}
