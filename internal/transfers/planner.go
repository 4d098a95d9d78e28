package transfers

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"fpl-optimizer/internal/fixtures"
	"fpl-optimizer/internal/fpl"
)

// Config holds the urgency weighting and thresholds. These are policy
// knobs loaded from configuration; only their qualitative behavior is
// relied on (harder schedules and worse trends raise urgency).
type Config struct {
	// MaxTransfers caps how many swaps one plan proposes.
	MaxTransfers int `json:"max_transfers"`
	// CandidatesPerSlot is how many ranked replacements each flagged
	// player gets.
	CandidatesPerSlot int `json:"candidates_per_slot"`
	// HitCost is the point penalty per transfer beyond the free allowance.
	HitCost int `json:"hit_cost"`
	// HighUrgency and MediumUrgency bucket the urgency score into tiers;
	// below MediumUrgency no action is suggested.
	HighUrgency   float64 `json:"high_urgency"`
	MediumUrgency float64 `json:"medium_urgency"`
	// AvailabilityWeight, TrendWeight and FixtureWeight blend the three
	// urgency signals; they should sum to 1.
	AvailabilityWeight float64 `json:"availability_weight"`
	TrendWeight        float64 `json:"trend_weight"`
	FixtureWeight      float64 `json:"fixture_weight"`
	// BaselineWindow is how many recent gameweeks form the rolling
	// baseline the latest return is compared against.
	BaselineWindow int `json:"baseline_window"`
	// MaxPerTeam mirrors the squad rule so proposals never violate it.
	MaxPerTeam int `json:"max_per_team"`
}

func DefaultConfig() Config {
	return Config{
		MaxTransfers:       3,
		CandidatesPerSlot:  3,
		HitCost:            4,
		HighUrgency:        0.5,
		MediumUrgency:      0.3,
		AvailabilityWeight: 0.5,
		TrendWeight:        0.25,
		FixtureWeight:      0.25,
		BaselineWindow:     5,
		MaxPerTeam:         3,
	}
}

// Reason codes attached to suggestions and unresolved slots.
const (
	ReasonUnavailable     = "unavailable"
	ReasonDoubtful        = "doubtful"
	ReasonFormDrop        = "form-drop"
	ReasonHardSchedule    = "hard-schedule"
	ReasonNoAffordable    = "no-affordable-replacement"
	ReasonRequestedSwap   = "requested-swap"
	ReasonTargetSquadDiff = "target-squad-diff"
)

// Candidate is one ranked replacement option.
type Candidate struct {
	Player fpl.Player `json:"player"`
	// Gain is the fixture-weighted projected-points improvement over the
	// outgoing player.
	Gain float64 `json:"gain"`
	// ValueDensity is gain per price tenth spent, the ranking key.
	ValueDensity float64 `json:"value_density"`
}

// Suggestion flags one squad member with its urgency and replacement
// options, ranked best first.
type Suggestion struct {
	Out        fpl.Player   `json:"out"`
	Urgency    float64      `json:"urgency"`
	Tier       fpl.Priority `json:"tier"`
	Reasons    []string     `json:"reasons"`
	Candidates []Candidate  `json:"candidates"`
}

// UnresolvedSlot records a flagged player for whom no legal, affordable
// replacement exists.
type UnresolvedSlot struct {
	PlayerID int    `json:"player_id"`
	Reason   string `json:"reason"`
}

// Plan is the full answer: the chosen moves in application order, the
// advisory numbers the caller needs to judge a hit, and anything that could
// not be resolved. The planner never decides whether a hit is worth taking.
type Plan struct {
	Moves         []fpl.Transfer   `json:"moves"`
	Suggestions   []Suggestion     `json:"suggestions"`
	Unresolved    []UnresolvedSlot `json:"unresolved,omitempty"`
	FreeTransfers int              `json:"free_transfers"`
	HitCost       int              `json:"hit_cost"`
	ExpectedGain  float64          `json:"expected_gain"`
	BankAfter     int              `json:"bank_after"`
}

// Propose flags the most urgent members of the current squad and proposes
// replacements. bank is the spare budget in tenths; freeTransfers is this
// week's free allowance.
func Propose(current *fpl.Squad, pool []fpl.Player, report *fixtures.Report, bank, freeTransfers int, cfg Config) (*Plan, error) {
	if current == nil || len(current.Players()) == 0 {
		return nil, fmt.Errorf("transfers: no current squad")
	}
	if cfg.MaxTransfers <= 0 {
		cfg = DefaultConfig()
	}

	flagged := urgencies(current, report, cfg)
	return buildPlan(current, pool, report, flagged, bank, freeTransfers, cfg)
}

// ProposeTowards diffs the current squad against a target squad (typically
// the optimizer's ideal) and proposes the moves closing the gap, most
// valuable first.
func ProposeTowards(current, target *fpl.Squad, pool []fpl.Player, report *fixtures.Report, bank, freeTransfers int, cfg Config) (*Plan, error) {
	if current == nil || target == nil {
		return nil, fmt.Errorf("transfers: both squads are required")
	}
	if cfg.MaxTransfers <= 0 {
		cfg = DefaultConfig()
	}

	var flagged []Suggestion
	for _, p := range current.Players() {
		if !target.Contains(p.ID) {
			flagged = append(flagged, Suggestion{
				Out:     p,
				Urgency: 1.0,
				Tier:    fpl.PriorityHigh,
				Reasons: []string{ReasonTargetSquadDiff},
			})
		}
	}
	// Restrict the candidate pool to target members not yet owned so the
	// plan converges on the target rather than inventing a third squad.
	var targetPool []fpl.Player
	for _, p := range target.Players() {
		if !current.Contains(p.ID) {
			targetPool = append(targetPool, p)
		}
	}
	return buildPlan(current, targetPool, report, flagged, bank, freeTransfers, cfg)
}

// EvaluateSwap scores a single requested out-for-in move without urgency
// gating, surfacing the same gain and hit numbers a full plan would.
func EvaluateSwap(current *fpl.Squad, out, in fpl.Player, report *fixtures.Report, bank, freeTransfers int, cfg Config) (*Plan, error) {
	if current == nil || !current.Contains(out.ID) {
		return nil, fmt.Errorf("transfers: player %d is not in the current squad", out.ID)
	}
	if current.Contains(in.ID) {
		return nil, fmt.Errorf("transfers: player %d is already owned", in.ID)
	}
	if in.Role != out.Role {
		return nil, fmt.Errorf("transfers: replacement must share role %s", out.Role)
	}
	if cfg.MaxTransfers <= 0 {
		cfg = DefaultConfig()
	}

	flagged := []Suggestion{{
		Out:     out,
		Urgency: 1.0,
		Tier:    fpl.PriorityHigh,
		Reasons: []string{ReasonRequestedSwap},
	}}
	return buildPlan(current, []fpl.Player{in}, report, flagged, bank, freeTransfers, cfg)
}

func buildPlan(current *fpl.Squad, pool []fpl.Player, report *fixtures.Report, flagged []Suggestion, bank, freeTransfers int, cfg Config) (*Plan, error) {
	plan := &Plan{FreeTransfers: freeTransfers, BankAfter: bank}

	sort.SliceStable(flagged, func(i, j int) bool {
		if flagged[i].Urgency != flagged[j].Urgency {
			return flagged[i].Urgency > flagged[j].Urgency
		}
		return flagged[i].Out.ID < flagged[j].Out.ID
	})
	if len(flagged) > cfg.MaxTransfers {
		flagged = flagged[:cfg.MaxTransfers]
	}

	teamCounts := current.TeamCounts()
	owned := make(map[int]bool)
	for _, p := range current.Players() {
		owned[p.ID] = true
	}

	for _, suggestion := range flagged {
		candidates := rankCandidates(suggestion.Out, pool, report, owned, teamCounts, cfg)

		// Budget feasibility runs against the evolving bank: each move
		// frees the outgoing price and spends the incoming one.
		chosen := -1
		for i, cand := range candidates {
			if cand.Player.Price <= plan.BankAfter+suggestion.Out.Price {
				chosen = i
				break
			}
		}
		suggestion.Candidates = candidates
		plan.Suggestions = append(plan.Suggestions, suggestion)

		if chosen < 0 {
			plan.Unresolved = append(plan.Unresolved, UnresolvedSlot{
				PlayerID: suggestion.Out.ID,
				Reason:   ReasonNoAffordable,
			})
			continue
		}

		in := candidates[chosen]
		plan.Moves = append(plan.Moves, fpl.Transfer{
			Out:  suggestion.Out,
			In:   in.Player,
			Gain: in.Gain,
		})
		plan.ExpectedGain += in.Gain
		plan.BankAfter += suggestion.Out.Price - in.Player.Price
		teamCounts[suggestion.Out.TeamID]--
		teamCounts[in.Player.TeamID]++
		owned[in.Player.ID] = true
		delete(owned, suggestion.Out.ID)
	}

	if excess := len(plan.Moves) - freeTransfers; excess > 0 {
		plan.HitCost = excess * cfg.HitCost
	}
	return plan, nil
}

// rankCandidates returns up to CandidatesPerSlot same-role replacements
// ordered by weighted-gain per price tenth, excluding owned players and
// moves that would break the per-team cap.
func rankCandidates(out fpl.Player, pool []fpl.Player, report *fixtures.Report, owned map[int]bool, teamCounts map[int]int, cfg Config) []Candidate {
	outScore := weighted(out, report)
	var candidates []Candidate
	for _, p := range pool {
		if p.Role != out.Role || owned[p.ID] || p.Availability == fpl.Unavailable {
			continue
		}
		count := teamCounts[p.TeamID]
		if p.TeamID == out.TeamID {
			count--
		}
		if count >= cfg.MaxPerTeam {
			continue
		}
		gain := weighted(p, report) - outScore
		candidates = append(candidates, Candidate{
			Player:       p,
			Gain:         gain,
			ValueDensity: gain / float64(p.Price),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].ValueDensity != candidates[j].ValueDensity {
			return candidates[i].ValueDensity > candidates[j].ValueDensity
		}
		if candidates[i].Gain != candidates[j].Gain {
			return candidates[i].Gain > candidates[j].Gain
		}
		return candidates[i].Player.ID < candidates[j].Player.ID
	})
	if len(candidates) > cfg.CandidatesPerSlot {
		candidates = candidates[:cfg.CandidatesPerSlot]
	}
	return candidates
}

// urgencies scores every squad member and keeps those at or above the
// medium threshold.
func urgencies(current *fpl.Squad, report *fixtures.Report, cfg Config) []Suggestion {
	var flagged []Suggestion
	for _, p := range current.Players() {
		score, reasons := urgencyScore(p, report, cfg)
		if score < cfg.MediumUrgency {
			continue
		}
		tier := fpl.PriorityMedium
		if score >= cfg.HighUrgency {
			tier = fpl.PriorityHigh
		}
		flagged = append(flagged, Suggestion{
			Out:     p,
			Urgency: score,
			Tier:    tier,
			Reasons: reasons,
		})
	}
	return flagged
}

// urgencyScore blends availability, form trend against the rolling
// baseline, and remaining-schedule difficulty into [0, 1].
func urgencyScore(p fpl.Player, report *fixtures.Report, cfg Config) (float64, []string) {
	var reasons []string

	availability := 0.0
	switch p.Availability {
	case fpl.Unavailable:
		availability = 1.0
		reasons = append(reasons, ReasonUnavailable)
	case fpl.Doubtful:
		availability = 0.6
		reasons = append(reasons, ReasonDoubtful)
	}

	trend := trendDrop(p.History, cfg.BaselineWindow)
	if trend > 0 {
		reasons = append(reasons, ReasonFormDrop)
	}

	hardness := 0.0
	if report != nil {
		if w := report.Weight(p.TeamID); w < 1.0 {
			hardness = 1.0 - w
			if hardness > 1.0 {
				hardness = 1.0
			}
			reasons = append(reasons, ReasonHardSchedule)
		}
	}

	score := cfg.AvailabilityWeight*availability + cfg.TrendWeight*trend + cfg.FixtureWeight*hardness
	return score, reasons
}

// trendDrop measures how far the latest return sits below the rolling
// baseline, normalized to [0, 1]. Too little history means no signal.
func trendDrop(history []float64, window int) float64 {
	if window <= 0 || len(history) < 2 {
		return 0
	}
	start := len(history) - window
	if start < 0 {
		start = 0
	}
	recent := history[start:]
	if len(recent) < 2 {
		return 0
	}
	baseline := stat.Mean(recent[:len(recent)-1], nil)
	latest := recent[len(recent)-1]
	if baseline <= 0 || latest >= baseline {
		return 0
	}
	drop := (baseline - latest) / baseline
	if drop > 1 {
		drop = 1
	}
	return drop
}

func weighted(p fpl.Player, report *fixtures.Report) float64 {
	if report == nil {
		return p.Projected
	}
	return p.Projected * report.Weight(p.TeamID)
}
