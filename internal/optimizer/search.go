package optimizer

import (
	"context"
	"sort"
	"time"

	"fpl-optimizer/internal/fpl"
)

// candidate pairs a player with its fixture-weighted objective score.
type candidate struct {
	player fpl.Player
	score  float64
}

// solution is a complete starter set for one formation.
type solution struct {
	players   []candidate
	formation fpl.Formation
	score     float64
	raw       float64
	price     int
}

func newSolution(players []candidate, formation fpl.Formation) *solution {
	sol := &solution{
		players:   append([]candidate(nil), players...),
		formation: formation,
	}
	for _, c := range sol.players {
		sol.score += c.score
		sol.raw += c.player.Projected
		sol.price += c.player.Price
	}
	return sol
}

func (s *solution) sortedIDs() []int {
	ids := make([]int, len(s.players))
	for i, c := range s.players {
		ids[i] = c.player.ID
	}
	sort.Ints(ids)
	return ids
}

const scoreEpsilon = 1e-9

// better implements the deterministic tie-break order: higher weighted
// score, then lower total price, then higher raw projected points, then the
// squad that comes first by ascending player identifiers.
func better(a, b *solution) bool {
	if b == nil {
		return true
	}
	if a.score > b.score+scoreEpsilon {
		return true
	}
	if a.score < b.score-scoreEpsilon {
		return false
	}
	if a.price != b.price {
		return a.price < b.price
	}
	if a.raw != b.raw {
		return a.raw > b.raw
	}
	aIDs, bIDs := a.sortedIDs(), b.sortedIDs()
	for i := range aIDs {
		if aIDs[i] != bIDs[i] {
			return aIDs[i] < bIDs[i]
		}
	}
	return false
}

// roleSlot is one role's share of the starter search.
type roleSlot struct {
	role  fpl.Role
	need  int
	cands []candidate
	// scorePrefix[i] is the sum of the i highest scores; cands are sorted
	// score-descending so any k picked from cands[i:] score at most
	// scorePrefix[i+k]-scorePrefix[i].
	scorePrefix []float64
	minPrice    int
}

func newRoleSlot(role fpl.Role, need int, cands []candidate) roleSlot {
	slot := roleSlot{role: role, need: need, cands: cands}
	slot.scorePrefix = make([]float64, len(cands)+1)
	slot.minPrice = int(^uint(0) >> 1)
	for i, c := range cands {
		slot.scorePrefix[i+1] = slot.scorePrefix[i] + c.score
		if c.player.Price < slot.minPrice {
			slot.minPrice = c.player.Price
		}
	}
	return slot
}

// searcher runs a depth-first branch-and-bound over one formation's starter
// slots. It prunes on the budget (cheapest possible completion) and on an
// optimistic score bound, and stops early when the shared node or time
// budget runs out, keeping the best solution found so far.
type searcher struct {
	ctx        context.Context
	slots      []roleSlot
	formation  fpl.Formation
	budget     int
	maxPerTeam int
	deadline   time.Time
	maxNodes   int64
	nodes      *int64

	teamCount   map[int]int
	chosen      []candidate
	chosenPrice int
	chosenScore float64

	best    *solution
	stopped bool

	suffixBound    []float64
	suffixMinPrice []int
}

func newSearcher(ctx context.Context, slots []roleSlot, formation fpl.Formation, budget, maxPerTeam int, deadline time.Time, maxNodes int64, nodes *int64, incumbent *solution) *searcher {
	s := &searcher{
		ctx:        ctx,
		slots:      slots,
		formation:  formation,
		budget:     budget,
		maxPerTeam: maxPerTeam,
		deadline:   deadline,
		maxNodes:   maxNodes,
		nodes:      nodes,
		teamCount:  make(map[int]int),
		best:       incumbent,
	}
	s.suffixBound = make([]float64, len(slots)+1)
	s.suffixMinPrice = make([]int, len(slots)+1)
	for i := len(slots) - 1; i >= 0; i-- {
		s.suffixBound[i] = s.suffixBound[i+1] + slots[i].scorePrefix[slots[i].need]
		s.suffixMinPrice[i] = s.suffixMinPrice[i+1] + cheapestSum(slots[i].cands, slots[i].need)
	}
	return s
}

func cheapestSum(cands []candidate, k int) int {
	if k == 0 {
		return 0
	}
	prices := make([]int, len(cands))
	for i, c := range cands {
		prices[i] = c.player.Price
	}
	sort.Ints(prices)
	if k > len(prices) {
		k = len(prices)
	}
	sum := 0
	for _, p := range prices[:k] {
		sum += p
	}
	return sum
}

// run explores the formation and returns the best solution seen (which may
// be the incumbent it started from).
func (s *searcher) run() (*solution, bool) {
	s.step(0, 0, s.slots[0].need)
	return s.best, s.stopped
}

func (s *searcher) step(slot, from, remaining int) {
	if s.stopped {
		return
	}
	*s.nodes++
	if *s.nodes >= s.maxNodes {
		s.stopped = true
		return
	}
	if *s.nodes&0x3ff == 0 {
		if s.ctx.Err() != nil || (!s.deadline.IsZero() && time.Now().After(s.deadline)) {
			s.stopped = true
			return
		}
	}

	if remaining == 0 {
		if slot+1 == len(s.slots) {
			sol := newSolution(s.chosen, s.formation)
			if better(sol, s.best) {
				s.best = sol
			}
			return
		}
		s.step(slot+1, 0, s.slots[slot+1].need)
		return
	}

	sl := &s.slots[slot]
	for i := from; i+remaining <= len(sl.cands); i++ {
		c := sl.cands[i]

		// Optimistic bound is non-increasing in i, so once it drops below
		// the incumbent nothing later in this slot can help.
		bound := s.chosenScore + c.score +
			(sl.scorePrefix[min(i+remaining, len(sl.cands))] - sl.scorePrefix[i+1]) +
			s.suffixBound[slot+1]
		if s.best != nil && bound < s.best.score-scoreEpsilon {
			return
		}

		if s.teamCount[c.player.TeamID] >= s.maxPerTeam {
			continue
		}
		price := s.chosenPrice + c.player.Price
		minRest := (remaining-1)*sl.minPrice + s.suffixMinPrice[slot+1]
		if price+minRest > s.budget {
			continue
		}

		s.chosen = append(s.chosen, c)
		s.chosenPrice = price
		s.chosenScore += c.score
		s.teamCount[c.player.TeamID]++

		s.step(slot, i+1, remaining-1)

		s.teamCount[c.player.TeamID]--
		s.chosenScore -= c.score
		s.chosenPrice -= c.player.Price
		s.chosen = s.chosen[:len(s.chosen)-1]

		if s.stopped {
			return
		}
	}
}

// legalFormations enumerates the outfield splits allowed by the bands.
func legalFormations(bands map[fpl.Role]Band) []fpl.Formation {
	var out []fpl.Formation
	def, mid, fwd := bands[fpl.RoleDefender], bands[fpl.RoleMidfielder], bands[fpl.RoleForward]
	for d := def.Min; d <= def.Max; d++ {
		for m := mid.Min; m <= mid.Max; m++ {
			f := 10 - d - m
			if f >= fwd.Min && f <= fwd.Max {
				out = append(out, fpl.Formation{Defenders: d, Midfielders: m, Forwards: f})
			}
		}
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
