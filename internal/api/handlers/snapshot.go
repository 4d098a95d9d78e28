package handlers

import (
	"github.com/gin-gonic/gin"

	"fpl-optimizer/internal/services"
	"fpl-optimizer/pkg/utils"
)

type SnapshotHandler struct {
	snapshots *services.SnapshotService
}

func NewSnapshotHandler(snapshots *services.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{snapshots: snapshots}
}

// Refresh forces an immediate upstream sync.
func (h *SnapshotHandler) Refresh(c *gin.Context) {
	if err := h.snapshots.Refresh(c.Request.Context()); err != nil {
		utils.SendError(c, 502, utils.NewAppError(utils.ErrCodeUpstream, "snapshot refresh failed", err.Error()))
		return
	}
	sync, _ := h.snapshots.LastSync()
	utils.SendSuccess(c, sync)
}

// Status reports the most recent sync record.
func (h *SnapshotHandler) Status(c *gin.Context) {
	sync, err := h.snapshots.LastSync()
	if err != nil {
		utils.SendInternalError(c, "failed to read sync status")
		return
	}
	if sync == nil {
		utils.SendNotFound(c, "no snapshot has been synced")
		return
	}
	utils.SendSuccess(c, sync)
}
