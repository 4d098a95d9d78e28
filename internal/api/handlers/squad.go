package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fpl-optimizer/internal/models"
	"fpl-optimizer/internal/optimizer"
	"fpl-optimizer/internal/services"
	"fpl-optimizer/pkg/database"
	"fpl-optimizer/pkg/utils"
)

type SquadHandler struct {
	db      *database.DB
	planner *services.PlannerService
}

func NewSquadHandler(db *database.DB, planner *services.PlannerService) *SquadHandler {
	return &SquadHandler{db: db, planner: planner}
}

// sendSolveError maps solver failures onto API error codes. Infeasible and
// degenerate inputs are client-visible outcomes, not server faults.
func sendSolveError(c *gin.Context, err error) {
	var infeasible *optimizer.InfeasibleError
	if errors.As(err, &infeasible) {
		utils.SendUnprocessable(c, utils.ErrCodeInfeasible, infeasible.Constraint, infeasible.Detail)
		return
	}
	var degenerate *optimizer.DegenerateInputError
	if errors.As(err, &degenerate) {
		utils.SendUnprocessable(c, utils.ErrCodeDegenerate, degenerate.Reason)
		return
	}
	utils.SendInternalError(c, err.Error())
}

// Optimize solves for the best squad over the requested window.
func (h *SquadHandler) Optimize(c *gin.Context) {
	var req struct {
		First       int     `json:"first"`
		Weeks       int     `json:"weeks"`
		BudgetCap   int     `json:"budget_cap"`
		MaxPerTeam  int     `json:"max_per_team"`
		BudgetSlack float64 `json:"budget_slack"`
		Save        bool    `json:"save"`
		Name        string  `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	window, err := h.planner.Window(c.Request.Context(), req.First, req.Weeks)
	if err != nil {
		utils.SendError(c, 502, utils.NewAppError(utils.ErrCodeUpstream, "failed to resolve gameweek", err.Error()))
		return
	}

	rules := h.planner.Rules()
	if req.BudgetCap > 0 {
		rules.BudgetCap = req.BudgetCap
	}
	if req.MaxPerTeam > 0 {
		rules.MaxPerTeam = req.MaxPerTeam
	}
	if req.BudgetSlack > 0 {
		rules.BudgetSlack = req.BudgetSlack
	}

	result, err := h.planner.BuildSquad(c.Request.Context(), window, rules)
	if err != nil {
		sendSolveError(c, err)
		return
	}

	if req.Save {
		saved, err := models.SaveSquad(h.db, req.Name, &result.Squad, result.WeightedPoints, result.ProvenOptimal, window)
		if err != nil {
			utils.SendInternalError(c, "failed to save squad")
			return
		}
		utils.SendSuccess(c, gin.H{"result": result, "saved_id": saved.ID})
		return
	}
	utils.SendSuccess(c, result)
}

// ListSquads returns saved squads, newest first.
func (h *SquadHandler) ListSquads(c *gin.Context) {
	rows, err := models.ListSquads(h.db, 50)
	if err != nil {
		utils.SendInternalError(c, "failed to list squads")
		return
	}
	utils.SendSuccess(c, rows)
}

// GetSquad returns one saved squad by ID.
func (h *SquadHandler) GetSquad(c *gin.Context) {
	row, err := models.GetSquad(h.db, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.SendNotFound(c, "squad not found")
			return
		}
		utils.SendInternalError(c, "failed to load squad")
		return
	}
	utils.SendSuccess(c, row)
}

// DeleteSquad removes a saved squad.
func (h *SquadHandler) DeleteSquad(c *gin.Context) {
	found, err := models.DeleteSquad(h.db, c.Param("id"))
	if err != nil {
		utils.SendInternalError(c, "failed to delete squad")
		return
	}
	if !found {
		utils.SendNotFound(c, "squad not found")
		return
	}
	utils.SendSuccess(c, gin.H{"deleted": true})
}
