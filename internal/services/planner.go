package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"fpl-optimizer/internal/chips"
	"fpl-optimizer/internal/fixtures"
	"fpl-optimizer/internal/fpl"
	"fpl-optimizer/internal/optimizer"
	"fpl-optimizer/internal/transfers"
	"fpl-optimizer/pkg/config"
)

// SnapshotSource serves the player pool the planner computes over.
type SnapshotSource interface {
	Current(ctx context.Context) (fpl.Snapshot, error)
	CurrentWeek(ctx context.Context) (int, error)
}

// PlannerService runs the planning pipeline over the current snapshot:
// fixture difficulty, squad solves, transfer plans, and chip timing. Derived
// results are cached per window; the snapshot refresh invalidates them.
type PlannerService struct {
	snapshots SnapshotSource
	cache     *CacheService
	hub       *Hub
	logger    *logrus.Logger

	rules         optimizer.Rules
	transferCfg   transfers.Config
	chipCfg       chips.Config
	fixtureCfg    fixtures.Config
	horizonWeeks  int
	freeTransfers int
	cacheTTL      time.Duration
}

func NewPlannerService(snapshots SnapshotSource, cache *CacheService, hub *Hub, logger *logrus.Logger, cfg *config.Config) *PlannerService {
	rules := optimizer.DefaultRules()
	if cfg.BudgetCap > 0 {
		rules.BudgetCap = cfg.BudgetCap
	}
	if cfg.BudgetSlack > 0 {
		rules.BudgetSlack = cfg.BudgetSlack
	}
	if cfg.MaxPerTeam > 0 {
		rules.MaxPerTeam = cfg.MaxPerTeam
	}
	if cfg.SolverTimeout > 0 {
		rules.TimeBudget = time.Duration(cfg.SolverTimeout) * time.Second
	}
	if cfg.SolverMaxNodes > 0 {
		rules.MaxNodes = cfg.SolverMaxNodes
	}

	transferCfg := transfers.DefaultConfig()
	if cfg.MaxTransfers > 0 {
		transferCfg.MaxTransfers = cfg.MaxTransfers
	}
	if cfg.HitCost > 0 {
		transferCfg.HitCost = cfg.HitCost
	}
	if cfg.HighUrgency > 0 {
		transferCfg.HighUrgency = cfg.HighUrgency
	}
	if cfg.MediumUrgency > 0 {
		transferCfg.MediumUrgency = cfg.MediumUrgency
	}
	if cfg.CandidatesPerSlot > 0 {
		transferCfg.CandidatesPerSlot = cfg.CandidatesPerSlot
	}
	transferCfg.MaxPerTeam = rules.MaxPerTeam

	fixtureCfg := fixtures.DefaultConfig()
	if cfg.AwayPenalty > 0 {
		fixtureCfg.AwayPenalty = cfg.AwayPenalty
	}

	horizon := cfg.HorizonWeeks
	if horizon <= 0 {
		horizon = 5
	}
	freeTransfers := cfg.FreeTransfers
	if freeTransfers <= 0 {
		freeTransfers = 1
	}

	return &PlannerService{
		snapshots:     snapshots,
		cache:         cache,
		hub:           hub,
		logger:        logger,
		rules:         rules,
		transferCfg:   transferCfg,
		chipCfg:       chips.DefaultConfig(),
		fixtureCfg:    fixtureCfg,
		horizonWeeks:  horizon,
		freeTransfers: freeTransfers,
		cacheTTL:      15 * time.Minute,
	}
}

// Rules exposes the active squad rules for request-level overrides.
func (s *PlannerService) Rules() optimizer.Rules {
	return s.rules
}

// TransferConfig exposes the active transfer policy.
func (s *PlannerService) TransferConfig() transfers.Config {
	return s.transferCfg
}

// DefaultFreeTransfers is the configured free-transfer allowance assumed
// when a request does not state one.
func (s *PlannerService) DefaultFreeTransfers() int {
	return s.freeTransfers
}

// Window resolves the planning window starting at the given week; zero means
// the upcoming gameweek.
func (s *PlannerService) Window(ctx context.Context, first, length int) (fpl.GameweekWindow, error) {
	if length <= 0 {
		length = s.horizonWeeks
	}
	if first <= 0 {
		week, err := s.snapshots.CurrentWeek(ctx)
		if err != nil {
			return fpl.GameweekWindow{}, fmt.Errorf("resolve current week: %w", err)
		}
		first = week
	}
	return fpl.GameweekWindow{First: first, Length: length}, nil
}

// Difficulty builds (or serves from cache) the fixture difficulty report
// for a window.
func (s *PlannerService) Difficulty(ctx context.Context, window fpl.GameweekWindow) (*fixtures.Report, error) {
	key := DifficultyCacheKey(window.First, window.Length)
	var cached fixtures.Report
	if err := s.cache.Get(ctx, key, &cached); err == nil && len(cached.Profiles) > 0 {
		return &cached, nil
	}

	snap, err := s.snapshots.Current(ctx)
	if err != nil {
		return nil, err
	}

	report, err := fixtures.Analyze(snap.Fixtures, snap.Teams, window, s.fixtureCfg)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, report, s.cacheTTL); err != nil {
		s.logger.Warnf("Failed to cache difficulty report: %v", err)
	}
	return report, nil
}

// BuildSquad solves for the best squad over the window under the given
// rules and announces the result to hub subscribers. Solves are cached per
// window and rule set; a cache hit skips the solver and the broadcast.
func (s *PlannerService) BuildSquad(ctx context.Context, window fpl.GameweekWindow, rules optimizer.Rules) (*optimizer.Result, error) {
	key := SquadCacheKey(window.First, window.Length, rules)
	var cached optimizer.Result
	if err := s.cache.Get(ctx, key, &cached); err == nil && len(cached.Squad.Starting) > 0 {
		return &cached, nil
	}

	snap, err := s.snapshots.Current(ctx)
	if err != nil {
		return nil, err
	}
	report, err := s.Difficulty(ctx, window)
	if err != nil {
		return nil, err
	}

	result, err := optimizer.Optimize(ctx, snap.Players, report, rules)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
		s.logger.Warnf("Failed to cache squad solve: %v", err)
	}

	s.logger.WithFields(logrus.Fields{
		"weighted_points": result.WeightedPoints,
		"total_price":     result.TotalPrice,
		"proven_optimal":  result.ProvenOptimal,
		"nodes":           result.NodesSearched,
		"elapsed":         result.Elapsed.String(),
	}).Info("Squad solve completed")

	if s.hub != nil {
		s.hub.Broadcast("squad_solved", map[string]interface{}{
			"window":          window,
			"weighted_points": result.WeightedPoints,
			"proven_optimal":  result.ProvenOptimal,
		})
	}
	return result, nil
}

// PlanTransfers proposes moves for the given squad with the current pool.
func (s *PlannerService) PlanTransfers(ctx context.Context, squad *fpl.Squad, window fpl.GameweekWindow, bank, freeTransfers int) (*transfers.Plan, error) {
	snap, err := s.snapshots.Current(ctx)
	if err != nil {
		return nil, err
	}
	report, err := s.Difficulty(ctx, window)
	if err != nil {
		return nil, err
	}
	return transfers.Propose(squad, snap.Players, report, bank, freeTransfers, s.transferCfg)
}

// PlanTowardsTarget proposes the moves converging on a target squad.
func (s *PlannerService) PlanTowardsTarget(ctx context.Context, current, target *fpl.Squad, window fpl.GameweekWindow, bank, freeTransfers int) (*transfers.Plan, error) {
	snap, err := s.snapshots.Current(ctx)
	if err != nil {
		return nil, err
	}
	report, err := s.Difficulty(ctx, window)
	if err != nil {
		return nil, err
	}
	return transfers.ProposeTowards(current, target, snap.Players, report, bank, freeTransfers, s.transferCfg)
}

// EvaluateSwap prices a single requested move.
func (s *PlannerService) EvaluateSwap(ctx context.Context, squad *fpl.Squad, out, in fpl.Player, window fpl.GameweekWindow, bank, freeTransfers int) (*transfers.Plan, error) {
	report, err := s.Difficulty(ctx, window)
	if err != nil {
		return nil, err
	}
	return transfers.EvaluateSwap(squad, out, in, report, bank, freeTransfers, s.transferCfg)
}

// RecommendChips ranks chip timings over the window, optionally sharpened
// by an owned squad. Squadless answers are cached per window and held chip
// set; squad-specific answers are always computed fresh.
func (s *PlannerService) RecommendChips(ctx context.Context, window fpl.GameweekWindow, owned *fpl.Squad, available []fpl.Chip) ([]fpl.ChipRecommendation, error) {
	if owned == nil {
		key := ChipsCacheKey(window.First, window.Length, available)
		var cached []fpl.ChipRecommendation
		if err := s.cache.Get(ctx, key, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
		report, snap, err := s.reportAndSnapshot(ctx, window)
		if err != nil {
			return nil, err
		}
		recs, err := chips.Recommend(report, nil, snap.Players, available, s.chipCfg)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, recs, s.cacheTTL); err != nil {
			s.logger.Warnf("Failed to cache chip recommendations: %v", err)
		}
		return recs, nil
	}

	report, snap, err := s.reportAndSnapshot(ctx, window)
	if err != nil {
		return nil, err
	}
	return chips.Recommend(report, owned, snap.Players, available, s.chipCfg)
}

func (s *PlannerService) reportAndSnapshot(ctx context.Context, window fpl.GameweekWindow) (*fixtures.Report, fpl.Snapshot, error) {
	snap, err := s.snapshots.Current(ctx)
	if err != nil {
		return nil, fpl.Snapshot{}, err
	}
	report, err := s.Difficulty(ctx, window)
	if err != nil {
		return nil, fpl.Snapshot{}, err
	}
	return report, snap, nil
}
