package optimizer

import (
	"fmt"
	"time"

	"fpl-optimizer/internal/fpl"
)

// Band is an inclusive min/max count for a role within the starting eleven.
type Band struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Rules holds every hard constraint and solver knob. All of it is policy:
// callers load it from configuration rather than relying on the defaults.
type Rules struct {
	// BudgetCap is the total price ceiling across all 15 players, in tenths.
	BudgetCap int `json:"budget_cap"`
	// BudgetSlack is the fraction of the cap the squad may leave unspent
	// before the solver starts trading points for spend.
	BudgetSlack float64 `json:"budget_slack"`
	// MaxPerTeam caps how many squad members may share a club.
	MaxPerTeam int `json:"max_per_team"`
	// Quotas is the exact 15-man position split.
	Quotas map[fpl.Role]int `json:"quotas"`
	// Bands constrains the starting eleven per role; the outfield band
	// minima and maxima must bracket 10.
	Bands map[fpl.Role]Band `json:"bands"`
	// MaxCandidatesPerRole trims each role's candidate list before the
	// exact search; the cheapest few players per role are always retained
	// so bench enablers survive the trim.
	MaxCandidatesPerRole int `json:"max_candidates_per_role"`
	// MaxNodes bounds the search deterministically; TimeBudget bounds it
	// in wall time. Exhausting either returns the best squad found so
	// far, marked not proven optimal.
	MaxNodes   int64         `json:"max_nodes"`
	TimeBudget time.Duration `json:"time_budget"`
}

// DefaultRules returns the standard FPL ruleset: £100.0m cap, 1% slack,
// 3 per club, 2-5-5-3 squad, 1 GK / 3-5 DEF / 2-5 MID / 1-3 FWD eleven.
func DefaultRules() Rules {
	return Rules{
		BudgetCap:   1000,
		BudgetSlack: 0.01,
		MaxPerTeam:  3,
		Quotas: map[fpl.Role]int{
			fpl.RoleKeeper:     2,
			fpl.RoleDefender:   5,
			fpl.RoleMidfielder: 5,
			fpl.RoleForward:    3,
		},
		Bands: map[fpl.Role]Band{
			fpl.RoleKeeper:     {Min: 1, Max: 1},
			fpl.RoleDefender:   {Min: 3, Max: 5},
			fpl.RoleMidfielder: {Min: 2, Max: 5},
			fpl.RoleForward:    {Min: 1, Max: 3},
		},
		MaxCandidatesPerRole: 24,
		MaxNodes:             4_000_000,
		TimeBudget:           10 * time.Second,
	}
}

// BudgetFloor is the minimum acceptable spend: cap minus the slack
// allowance.
func (r Rules) BudgetFloor() int {
	return r.BudgetCap - int(float64(r.BudgetCap)*r.BudgetSlack)
}

// SquadSize is the total player count implied by the quotas.
func (r Rules) SquadSize() int {
	n := 0
	for _, q := range r.Quotas {
		n += q
	}
	return n
}

// Constraint codes carried by InfeasibleError so callers know what to relax.
const (
	ConstraintRoleQuota = "role-quota"
	ConstraintBudget    = "budget"
	ConstraintTeamCap   = "team-cap"
	ConstraintFormation = "formation"
)

// InfeasibleError reports that no squad satisfies the hard constraints.
// The optimizer never returns a partial squad alongside it.
type InfeasibleError struct {
	Constraint string
	Detail     string
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("no feasible squad: %s (%s)", e.Constraint, e.Detail)
}

// DegenerateInputError reports input too thin to optimize over. It is
// distinct from infeasibility because the remedy is more data, not a
// relaxed budget.
type DegenerateInputError struct {
	Reason string
}

func (e *DegenerateInputError) Error() string {
	return "degenerate input: " + e.Reason
}

// Result is the optimizer's full answer. ProvenOptimal is false when the
// node or time budget expired before the search space was exhausted; the
// squad is still the best feasible one found.
type Result struct {
	Squad          fpl.Squad     `json:"squad"`
	WeightedPoints float64       `json:"weighted_points"`
	RawPoints      float64       `json:"raw_points"`
	TotalPrice     int           `json:"total_price"`
	BudgetFloor    int           `json:"budget_floor"`
	ProvenOptimal  bool          `json:"proven_optimal"`
	NodesSearched  int64         `json:"nodes_searched"`
	Elapsed        time.Duration `json:"elapsed"`
}
