package handlers

import (
	"github.com/gin-gonic/gin"

	"fpl-optimizer/internal/fpl"
	"fpl-optimizer/internal/services"
	"fpl-optimizer/pkg/utils"
)

type ChipHandler struct {
	planner *services.PlannerService
}

func NewChipHandler(planner *services.PlannerService) *ChipHandler {
	return &ChipHandler{planner: planner}
}

// Recommend ranks chip timings over a window. Held chips default to all
// four; an owned squad sharpens the bench boost and wildcard calls.
func (h *ChipHandler) Recommend(c *gin.Context) {
	var req struct {
		First     int        `json:"first"`
		Weeks     int        `json:"weeks"`
		Available []string   `json:"available"`
		Squad     *fpl.Squad `json:"squad"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	available := make([]fpl.Chip, 0, 4)
	if len(req.Available) == 0 {
		available = append(available, fpl.ChipWildcard, fpl.ChipBenchBoost, fpl.ChipTripleCaptain, fpl.ChipFreeHit)
	} else {
		for _, name := range req.Available {
			chip, err := fpl.ParseChip(name)
			if err != nil {
				utils.SendValidationError(c, "Unknown chip", name)
				return
			}
			available = append(available, chip)
		}
	}

	window, err := h.planner.Window(c.Request.Context(), req.First, req.Weeks)
	if err != nil {
		utils.SendError(c, 502, utils.NewAppError(utils.ErrCodeUpstream, "failed to resolve gameweek", err.Error()))
		return
	}

	recs, err := h.planner.RecommendChips(c.Request.Context(), window, req.Squad, available)
	if err != nil {
		utils.SendInternalError(c, err.Error())
		return
	}
	utils.SendSuccess(c, recs)
}
