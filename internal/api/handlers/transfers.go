package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fpl-optimizer/internal/fpl"
	"fpl-optimizer/internal/models"
	"fpl-optimizer/internal/services"
	"fpl-optimizer/pkg/database"
	"fpl-optimizer/pkg/utils"
)

type TransferHandler struct {
	db      *database.DB
	planner *services.PlannerService
}

func NewTransferHandler(db *database.DB, planner *services.PlannerService) *TransferHandler {
	return &TransferHandler{db: db, planner: planner}
}

type transferRequest struct {
	Squad         *fpl.Squad `json:"squad"`
	SquadID       string     `json:"squad_id"`
	First         int        `json:"first"`
	Weeks         int        `json:"weeks"`
	Bank          int        `json:"bank"`
	FreeTransfers int        `json:"free_transfers"`
}

// freeTransfers falls back to the configured allowance when the request
// leaves it unset.
func (h *TransferHandler) freeTransfers(req transferRequest) int {
	if req.FreeTransfers > 0 {
		return req.FreeTransfers
	}
	return h.planner.DefaultFreeTransfers()
}

// resolveSquad accepts either an inline squad or a saved squad reference.
func (h *TransferHandler) resolveSquad(c *gin.Context, inline *fpl.Squad, savedID string) (*fpl.Squad, bool) {
	if inline != nil && len(inline.Players()) > 0 {
		return inline, true
	}
	if savedID == "" {
		utils.SendValidationError(c, "A squad or squad_id is required", "")
		return nil, false
	}

	row, err := models.GetSquad(h.db, savedID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.SendNotFound(c, "squad not found")
			return nil, false
		}
		utils.SendInternalError(c, "failed to load squad")
		return nil, false
	}
	squad, err := row.Decode()
	if err != nil {
		utils.SendInternalError(c, "stored squad is unreadable")
		return nil, false
	}
	return squad, true
}

// Plan proposes transfers for the most urgent members of a squad.
func (h *TransferHandler) Plan(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	squad, ok := h.resolveSquad(c, req.Squad, req.SquadID)
	if !ok {
		return
	}

	window, err := h.planner.Window(c.Request.Context(), req.First, req.Weeks)
	if err != nil {
		utils.SendError(c, 502, utils.NewAppError(utils.ErrCodeUpstream, "failed to resolve gameweek", err.Error()))
		return
	}

	plan, err := h.planner.PlanTransfers(c.Request.Context(), squad, window, req.Bank, h.freeTransfers(req))
	if err != nil {
		utils.SendInternalError(c, err.Error())
		return
	}
	utils.SendSuccess(c, plan)
}

// PlanTowards proposes the moves converging on a saved target squad.
func (h *TransferHandler) PlanTowards(c *gin.Context) {
	var req struct {
		transferRequest
		TargetID string `json:"target_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	squad, ok := h.resolveSquad(c, req.Squad, req.SquadID)
	if !ok {
		return
	}
	target, ok := h.resolveSquad(c, nil, req.TargetID)
	if !ok {
		return
	}

	window, err := h.planner.Window(c.Request.Context(), req.First, req.Weeks)
	if err != nil {
		utils.SendError(c, 502, utils.NewAppError(utils.ErrCodeUpstream, "failed to resolve gameweek", err.Error()))
		return
	}

	plan, err := h.planner.PlanTowardsTarget(c.Request.Context(), squad, target, window, req.Bank, h.freeTransfers(req.transferRequest))
	if err != nil {
		utils.SendInternalError(c, err.Error())
		return
	}
	utils.SendSuccess(c, plan)
}

// Evaluate prices a single out-for-in move.
func (h *TransferHandler) Evaluate(c *gin.Context) {
	var req struct {
		transferRequest
		Out fpl.Player `json:"out" binding:"required"`
		In  fpl.Player `json:"in" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	squad, ok := h.resolveSquad(c, req.Squad, req.SquadID)
	if !ok {
		return
	}

	window, err := h.planner.Window(c.Request.Context(), req.First, req.Weeks)
	if err != nil {
		utils.SendError(c, 502, utils.NewAppError(utils.ErrCodeUpstream, "failed to resolve gameweek", err.Error()))
		return
	}

	plan, err := h.planner.EvaluateSwap(c.Request.Context(), squad, req.Out, req.In, window, req.Bank, h.freeTransfers(req.transferRequest))
	if err != nil {
		utils.SendValidationError(c, "Swap cannot be evaluated", err.Error())
		return
	}
	utils.SendSuccess(c, plan)
}
