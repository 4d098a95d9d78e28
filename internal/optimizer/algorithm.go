package optimizer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fpl-optimizer/internal/fixtures"
	"fpl-optimizer/internal/fpl"
)

// Optimize selects the best feasible 15-player squad from the pool.
//
// The solve runs in two phases. Phase 1 picks the starting eleven for each
// legal formation, maximizing fixture-weighted projected points under a
// provisional budget that reserves the minimum viable bench spend. Phase 2
// fills the four bench slots as cheaply as the remaining quotas, the
// per-team cap, and the overall budget allow; if the combined squad then
// leaves more than the slack allowance unspent, starters are upgraded until
// the floor is met or no upgrade exists.
//
// Unavailable players are dropped from consideration up front. The search
// is exact up to the candidate trim and the node/time budget; exhausting
// the budget returns the best squad found with ProvenOptimal false.
func Optimize(ctx context.Context, pool []fpl.Player, report *fixtures.Report, rules Rules) (*Result, error) {
	start := time.Now()

	if len(pool) == 0 {
		return nil, &DegenerateInputError{Reason: "empty player pool"}
	}
	if rules.MaxNodes <= 0 {
		rules.MaxNodes = DefaultRules().MaxNodes
	}

	weight := func(teamID int) float64 { return 1.0 }
	if report != nil {
		weight = report.Weight
	}

	byRole := make(map[fpl.Role][]candidate)
	for _, p := range pool {
		if p.Availability == fpl.Unavailable {
			continue
		}
		byRole[p.Role] = append(byRole[p.Role], candidate{
			player: p,
			score:  p.Projected * weight(p.TeamID),
		})
	}
	if len(byRole) == 0 {
		return nil, &DegenerateInputError{Reason: "no available players in pool"}
	}

	for role, quota := range rules.Quotas {
		if len(byRole[role]) < quota {
			return nil, &InfeasibleError{
				Constraint: ConstraintRoleQuota,
				Detail:     fmt.Sprintf("need %d %s, pool has %d", quota, role, len(byRole[role])),
			}
		}
	}

	for role := range byRole {
		sortByScore(byRole[role])
	}
	cheapByRole := make(map[fpl.Role][]candidate, len(byRole))
	for role, cands := range byRole {
		cheap := append([]candidate(nil), cands...)
		sortByPrice(cheap)
		cheapByRole[role] = cheap
	}

	trimmed := make(map[fpl.Role][]candidate, len(byRole))
	for role, cands := range byRole {
		trimmed[role] = trimCandidates(cands, cheapByRole[role], rules.MaxCandidatesPerRole)
	}

	deadline := time.Time{}
	if rules.TimeBudget > 0 {
		deadline = start.Add(rules.TimeBudget)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok && (deadline.IsZero() || ctxDeadline.Before(deadline)) {
		deadline = ctxDeadline
	}

	run := &solverRun{
		rules:    rules,
		byRole:   byRole,
		cheap:    cheapByRole,
		trimmed:  trimmed,
		deadline: deadline,
	}

	best, proven, err := run.solve(ctx)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	squad := assembleSquad(best)
	return &Result{
		Squad:          squad,
		WeightedPoints: best.starters.score,
		RawPoints:      best.starters.raw,
		TotalPrice:     squad.TotalPrice(),
		BudgetFloor:    rules.BudgetFloor(),
		ProvenOptimal:  proven,
		NodesSearched:  run.nodes,
		Elapsed:        time.Since(start),
	}, nil
}

type assembled struct {
	starters *solution
	bench    []candidate
}

type solverRun struct {
	rules    Rules
	byRole   map[fpl.Role][]candidate
	cheap    map[fpl.Role][]candidate
	trimmed  map[fpl.Role][]candidate
	deadline time.Time
	nodes    int64
}

func (r *solverRun) solve(ctx context.Context) (*assembled, bool, error) {
	forms := legalFormations(r.rules.Bands)
	if len(forms) == 0 {
		return nil, false, &InfeasibleError{
			Constraint: ConstraintFormation,
			Detail:     "formation bands admit no legal starting eleven",
		}
	}

	// Phase 2's minimum spend can exceed the reserve estimate when the
	// cheapest players end up as starters or run into the team cap, so the
	// two phases iterate with a growing reserve until the squad fits.
	reserve := -1
	proven := true
	for attempt := 0; attempt < 3; attempt++ {
		best, stopped, err := r.phaseOne(ctx, forms, reserve)
		if err != nil {
			return nil, false, err
		}
		if stopped {
			proven = false
		}

		bench, benchCost, err := r.phaseTwo(best)
		if err != nil {
			return nil, false, err
		}
		if best.price+benchCost <= r.rules.BudgetCap {
			out := &assembled{starters: best, bench: bench}
			r.raiseSpend(out)
			return out, proven, nil
		}
		reserve = benchCost
	}
	return nil, false, &InfeasibleError{
		Constraint: ConstraintBudget,
		Detail:     "cannot fit a legal bench under the cap",
	}
}

// phaseOne searches every legal formation for the best starting eleven.
// reserve overrides the per-formation bench estimate when non-negative.
func (r *solverRun) phaseOne(ctx context.Context, forms []fpl.Formation, reserve int) (*solution, bool, error) {
	var best *solution
	stopped := false
	budgetBound := false

	for _, form := range forms {
		benchReserve := reserve
		if benchReserve < 0 {
			benchReserve = r.minBenchCost(form)
		}
		budget := r.rules.BudgetCap - benchReserve

		slots := []roleSlot{
			newRoleSlot(fpl.RoleKeeper, 1, r.trimmed[fpl.RoleKeeper]),
			newRoleSlot(fpl.RoleDefender, form.Defenders, r.trimmed[fpl.RoleDefender]),
			newRoleSlot(fpl.RoleMidfielder, form.Midfielders, r.trimmed[fpl.RoleMidfielder]),
			newRoleSlot(fpl.RoleForward, form.Forwards, r.trimmed[fpl.RoleForward]),
		}

		minCost := 0
		for _, sl := range slots {
			minCost += cheapestSum(sl.cands, sl.need)
		}
		if minCost > budget {
			budgetBound = true
			continue
		}

		s := newSearcher(ctx, slots, form, budget, r.rules.MaxPerTeam, r.deadline, r.rules.MaxNodes, &r.nodes, best)
		sol, hit := s.run()
		if hit {
			stopped = true
		}
		if sol != nil && better(sol, best) {
			best = sol
		}
	}

	if best == nil {
		if budgetBound {
			return nil, false, &InfeasibleError{
				Constraint: ConstraintBudget,
				Detail:     "cheapest legal eleven exceeds the provisional budget",
			}
		}
		return nil, false, &InfeasibleError{
			Constraint: ConstraintTeamCap,
			Detail:     "per-team cap leaves no legal starting eleven",
		}
	}
	return best, stopped, nil
}

// phaseTwo fills the bench with the cheapest players satisfying the
// remaining quotas and the per-team cap. Cost is a secondary objective
// only; quotas and the cap are never violated for it.
func (r *solverRun) phaseTwo(starters *solution) ([]candidate, int, error) {
	inSquad := make(map[int]bool, len(starters.players))
	teamCount := make(map[int]int)
	for _, c := range starters.players {
		inSquad[c.player.ID] = true
		teamCount[c.player.TeamID]++
	}

	needs := r.benchNeeds(starters.formation)
	var bench []candidate
	cost := 0
	for _, role := range fpl.Roles {
		needed := needs[role]
		for _, c := range r.cheap[role] {
			if needed == 0 {
				break
			}
			if inSquad[c.player.ID] || teamCount[c.player.TeamID] >= r.rules.MaxPerTeam {
				continue
			}
			bench = append(bench, c)
			inSquad[c.player.ID] = true
			teamCount[c.player.TeamID]++
			cost += c.player.Price
			needed--
		}
		if needed > 0 {
			return nil, 0, &InfeasibleError{
				Constraint: ConstraintTeamCap,
				Detail:     fmt.Sprintf("cannot fill bench %s slots under the per-team cap", role),
			}
		}
	}
	return bench, cost, nil
}

// benchNeeds is the quota remainder once a formation's starters are set.
func (r *solverRun) benchNeeds(form fpl.Formation) map[fpl.Role]int {
	return map[fpl.Role]int{
		fpl.RoleKeeper:     r.rules.Quotas[fpl.RoleKeeper] - 1,
		fpl.RoleDefender:   r.rules.Quotas[fpl.RoleDefender] - form.Defenders,
		fpl.RoleMidfielder: r.rules.Quotas[fpl.RoleMidfielder] - form.Midfielders,
		fpl.RoleForward:    r.rules.Quotas[fpl.RoleForward] - form.Forwards,
	}
}

func (r *solverRun) minBenchCost(form fpl.Formation) int {
	total := 0
	for role, need := range r.benchNeeds(form) {
		total += cheapestSum(r.cheap[role], need)
	}
	return total
}

// raiseSpend upgrades squad members in place until total price reaches the
// budget floor or no price-increasing swap remains. Starters are upgraded
// first so surplus budget concentrates on the eleven; swaps never break the
// quota, team-cap, or budget invariants.
func (r *solverRun) raiseSpend(out *assembled) {
	floor := r.rules.BudgetFloor()
	total := out.starters.price
	for _, c := range out.bench {
		total += c.player.Price
	}

	for iter := 0; iter < 50 && total < floor; iter++ {
		if !r.applyBestUpgrade(out, &total) {
			return
		}
	}
}

type upgrade struct {
	onBench bool
	index   int
	in      candidate
	gain    float64
	reaches bool
	delta   int
}

func (r *solverRun) applyBestUpgrade(out *assembled, total *int) bool {
	floor := r.rules.BudgetFloor()
	inSquad := make(map[int]bool)
	teamCount := make(map[int]int)
	for _, c := range out.starters.players {
		inSquad[c.player.ID] = true
		teamCount[c.player.TeamID]++
	}
	for _, c := range out.bench {
		inSquad[c.player.ID] = true
		teamCount[c.player.TeamID]++
	}

	var best *upgrade
	consider := func(onBench bool, idx int, cur candidate) {
		for _, cand := range r.byRole[cur.player.Role] {
			if cand.player.Price <= cur.player.Price || inSquad[cand.player.ID] {
				continue
			}
			newTotal := *total - cur.player.Price + cand.player.Price
			if newTotal > r.rules.BudgetCap {
				continue
			}
			count := teamCount[cand.player.TeamID]
			if cand.player.TeamID == cur.player.TeamID {
				count--
			}
			if count >= r.rules.MaxPerTeam {
				continue
			}
			gain := cand.score - cur.score
			if onBench {
				// Bench upgrades never improve the objective; they exist
				// only to satisfy the floor when no starter swap can.
				gain = 0
			}
			u := upgrade{
				onBench: onBench,
				index:   idx,
				in:      cand,
				gain:    gain,
				reaches: newTotal >= floor,
				delta:   newTotal - *total,
			}
			if best == nil || betterUpgrade(u, *best) {
				best = &u
			}
		}
	}

	for i, cur := range out.starters.players {
		consider(false, i, cur)
	}
	if best == nil || best.gain < 0 {
		// Only dip into the bench when every starter swap loses points.
		for i, cur := range out.bench {
			consider(true, i, cur)
		}
	}
	if best == nil {
		return false
	}

	if best.onBench {
		old := out.bench[best.index]
		out.bench[best.index] = best.in
		*total += best.in.player.Price - old.player.Price
	} else {
		old := out.starters.players[best.index]
		out.starters.players[best.index] = best.in
		out.starters.score += best.in.score - old.score
		out.starters.raw += best.in.player.Projected - old.player.Projected
		out.starters.price += best.in.player.Price - old.player.Price
		*total += best.in.player.Price - old.player.Price
	}
	return true
}

func betterUpgrade(a, b upgrade) bool {
	if a.reaches != b.reaches {
		return a.reaches
	}
	if a.gain != b.gain {
		return a.gain > b.gain
	}
	if a.delta != b.delta {
		if a.onBench {
			return a.delta < b.delta
		}
		return a.delta > b.delta
	}
	return a.in.player.ID < b.in.player.ID
}

// assembleSquad orders the eleven keeper-defenders-midfielders-forwards by
// score and the bench keeper-first then by substitution priority.
func assembleSquad(out *assembled) fpl.Squad {
	starters := append([]candidate(nil), out.starters.players...)
	sort.Slice(starters, func(i, j int) bool {
		if starters[i].player.Role != starters[j].player.Role {
			return starters[i].player.Role < starters[j].player.Role
		}
		if starters[i].score != starters[j].score {
			return starters[i].score > starters[j].score
		}
		return starters[i].player.ID < starters[j].player.ID
	})

	bench := append([]candidate(nil), out.bench...)
	sort.Slice(bench, func(i, j int) bool {
		iGK := bench[i].player.Role == fpl.RoleKeeper
		jGK := bench[j].player.Role == fpl.RoleKeeper
		if iGK != jGK {
			return iGK
		}
		if bench[i].score != bench[j].score {
			return bench[i].score > bench[j].score
		}
		return bench[i].player.ID < bench[j].player.ID
	})

	squad := fpl.Squad{Formation: out.starters.formation}
	for _, c := range starters {
		squad.Starting = append(squad.Starting, c.player)
	}
	for _, c := range bench {
		squad.Bench = append(squad.Bench, c.player)
	}
	return squad
}

// trimCandidates keeps the strongest scorers plus the cheapest few so bench
// enablers survive the trim, preserving score-descending order.
func trimCandidates(byScore, byPrice []candidate, limit int) []candidate {
	if limit <= 0 || len(byScore) <= limit {
		return byScore
	}
	kept := make(map[int]bool, limit+3)
	out := make([]candidate, 0, limit+3)
	for _, c := range byScore[:limit] {
		kept[c.player.ID] = true
		out = append(out, c)
	}
	added := 0
	for _, c := range byPrice {
		if added == 3 {
			break
		}
		if !kept[c.player.ID] {
			kept[c.player.ID] = true
			out = append(out, c)
			added++
		}
	}
	sortByScore(out)
	return out
}

func sortByScore(cands []candidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].player.ID < cands[j].player.ID
	})
}

func sortByPrice(cands []candidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].player.Price != cands[j].player.Price {
			return cands[i].player.Price < cands[j].player.Price
		}
		return cands[i].player.ID < cands[j].player.ID
	})
}
