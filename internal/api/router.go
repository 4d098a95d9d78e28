package api

import (
	"github.com/gin-gonic/gin"

	"fpl-optimizer/internal/api/handlers"
	"fpl-optimizer/internal/api/middleware"
	"fpl-optimizer/internal/services"
	"fpl-optimizer/pkg/config"
	"fpl-optimizer/pkg/database"
)

// SetupRoutes configures all API routes on the given router group.
func SetupRoutes(group *gin.RouterGroup, db *database.DB, planner *services.PlannerService, snapshots *services.SnapshotService, hub *services.Hub, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(cfg)
	healthHandler := handlers.NewHealthHandler(snapshots, hub)
	difficultyHandler := handlers.NewDifficultyHandler(planner)
	squadHandler := handlers.NewSquadHandler(db, planner)
	transferHandler := handlers.NewTransferHandler(db, planner)
	chipHandler := handlers.NewChipHandler(planner)
	snapshotHandler := handlers.NewSnapshotHandler(snapshots)

	// Public routes
	group.POST("/auth/login", authHandler.Login)
	group.GET("/health", healthHandler.Health)

	// Read-only fixture analysis
	group.GET("/difficulty", difficultyHandler.GetDifficulty)
	group.GET("/difficulty/rankings", difficultyHandler.GetRankings)

	// Authenticated planning routes
	auth := group.Group("")
	auth.Use(middleware.AuthRequired(cfg.JWTSecret))
	{
		auth.POST("/squads/optimize", squadHandler.Optimize)
		auth.GET("/squads", squadHandler.ListSquads)
		auth.GET("/squads/:id", squadHandler.GetSquad)
		auth.DELETE("/squads/:id", squadHandler.DeleteSquad)

		auth.POST("/transfers/plan", transferHandler.Plan)
		auth.POST("/transfers/plan-towards", transferHandler.PlanTowards)
		auth.POST("/transfers/evaluate", transferHandler.Evaluate)

		auth.POST("/chips/recommend", chipHandler.Recommend)

		auth.POST("/snapshot/refresh", snapshotHandler.Refresh)
		auth.GET("/snapshot/status", snapshotHandler.Status)
	}
}
