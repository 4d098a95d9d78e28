package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"fpl-optimizer/internal/fpl"
	"fpl-optimizer/internal/services"
	"fpl-optimizer/pkg/utils"
)

type DifficultyHandler struct {
	planner *services.PlannerService
}

func NewDifficultyHandler(planner *services.PlannerService) *DifficultyHandler {
	return &DifficultyHandler{planner: planner}
}

// windowFromQuery resolves ?first= and ?weeks= against the upcoming
// gameweek. A zero first means "start now".
func windowFromQuery(c *gin.Context, planner *services.PlannerService) (fpl.GameweekWindow, bool) {
	first, err := strconv.Atoi(c.DefaultQuery("first", "0"))
	if err != nil || first < 0 {
		utils.SendValidationError(c, "Invalid first gameweek", c.Query("first"))
		return fpl.GameweekWindow{}, false
	}
	weeks, err := strconv.Atoi(c.DefaultQuery("weeks", "0"))
	if err != nil || weeks < 0 {
		utils.SendValidationError(c, "Invalid week count", c.Query("weeks"))
		return fpl.GameweekWindow{}, false
	}

	window, err := planner.Window(c.Request.Context(), first, weeks)
	if err != nil {
		utils.SendError(c, 502, utils.NewAppError(utils.ErrCodeUpstream, "failed to resolve gameweek", err.Error()))
		return fpl.GameweekWindow{}, false
	}
	return window, true
}

// GetDifficulty returns per-team difficulty profiles and the blank/double
// calendar for a window.
func (h *DifficultyHandler) GetDifficulty(c *gin.Context) {
	window, ok := windowFromQuery(c, h.planner)
	if !ok {
		return
	}

	report, err := h.planner.Difficulty(c.Request.Context(), window)
	if err != nil {
		utils.SendInternalError(c, err.Error())
		return
	}
	utils.SendSuccess(c, report)
}

// GetRankings returns the window-level team ordering, easiest run first.
func (h *DifficultyHandler) GetRankings(c *gin.Context) {
	window, ok := windowFromQuery(c, h.planner)
	if !ok {
		return
	}

	report, err := h.planner.Difficulty(c.Request.Context(), window)
	if err != nil {
		utils.SendInternalError(c, err.Error())
		return
	}
	utils.SendSuccess(c, gin.H{
		"window":   report.Window,
		"rankings": report.Rank(),
	})
}
