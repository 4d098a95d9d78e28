package chips

import (
	"fmt"
	"sort"

	"fpl-optimizer/internal/fixtures"
	"fpl-optimizer/internal/fpl"
)

// Config tunes the timing heuristics. HardStretchLength and
// HardStretchDifficulty define the "tough run" wildcard trigger: a window
// that long with every week at or above that difficulty.
type Config struct {
	HardStretchLength     int     `json:"hard_stretch_length"`
	HardStretchDifficulty float64 `json:"hard_stretch_difficulty"`
	// BenchFloor is the bench-boost quality gate: a bench projecting at
	// least this many fixture-weighted points earns the high-priority call.
	BenchFloor float64 `json:"bench_floor"`
}

func DefaultConfig() Config {
	return Config{
		HardStretchLength:     3,
		HardStretchDifficulty: 4.0,
		BenchFloor:            12.0,
	}
}

// Reason codes carried on recommendations.
const (
	ReasonPrecedesDouble   = "precedes-double-gameweek"
	ReasonFollowsBlank     = "follows-blank-gameweek"
	ReasonDoubleGameweek   = "double-gameweek"
	ReasonBlankGameweek    = "blank-gameweek"
	ReasonHardStretch      = "hard-stretch-ahead"
	ReasonEasiestFixture   = "easiest-fixture"
	ReasonEasiestRemaining = "easiest-remaining-week"
	ReasonStrongBench      = "strong-bench"
)

// Recommend proposes timings for every held chip. Each heuristic emits one
// recommendation per qualifying anomaly week rather than a single winner;
// the caller decides which week to commit to. owned sharpens the bench
// boost, free hit, and wildcard calls; pool (or the owned squad) supplies
// the captaincy target for triple captain. A chip with no qualifying week
// still gets a low-priority fallback, never silence.
func Recommend(report *fixtures.Report, owned *fpl.Squad, pool []fpl.Player, available []fpl.Chip, cfg Config) ([]fpl.ChipRecommendation, error) {
	if report == nil {
		return nil, fmt.Errorf("chips: fixture report is required")
	}
	if cfg.HardStretchLength <= 0 {
		cfg = DefaultConfig()
	}

	var recs []fpl.ChipRecommendation
	for _, chip := range available {
		var chipRecs []fpl.ChipRecommendation
		switch chip {
		case fpl.ChipWildcard:
			chipRecs = wildcard(report, owned, cfg)
		case fpl.ChipBenchBoost:
			chipRecs = benchBoost(report, owned, cfg)
		case fpl.ChipTripleCaptain:
			chipRecs = tripleCaptain(report, star(report, owned, pool))
		case fpl.ChipFreeHit:
			chipRecs = freeHit(report, owned)
		default:
			return nil, fmt.Errorf("chips: unknown chip %q", chip)
		}
		if len(chipRecs) == 0 {
			chipRecs = []fpl.ChipRecommendation{fallback(report, chip)}
		}
		recs = append(recs, chipRecs...)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Priority != recs[j].Priority {
			return recs[i].Priority > recs[j].Priority
		}
		if recs[i].Benefit != recs[j].Benefit {
			return recs[i].Benefit > recs[j].Benefit
		}
		if recs[i].Week != recs[j].Week {
			return recs[i].Week < recs[j].Week
		}
		return recs[i].Chip < recs[j].Chip
	})
	return recs, nil
}

// wildcard wants a rebuild right before each double week so the new squad
// rides it, or right after a blank has gutted the old one. A sustained hard
// stretch for the owned squad also justifies the reset.
func wildcard(report *fixtures.Report, owned *fpl.Squad, cfg Config) []fpl.ChipRecommendation {
	var recs []fpl.ChipRecommendation

	for _, w := range report.Window.Weeks() {
		if teams := len(report.Calendar.Doubles[w]); teams > 0 && w > report.Window.First {
			recs = append(recs, fpl.ChipRecommendation{
				Chip:     fpl.ChipWildcard,
				Week:     w - 1,
				Priority: fpl.PriorityHigh,
				Reason:   ReasonPrecedesDouble,
				Benefit:  float64(teams),
				Detail:   fmt.Sprintf("restructure before %d teams play twice in week %d", teams, w),
			})
		}
		if teams := len(report.Calendar.Blanks[w]); teams > 0 && w < report.Window.Last() {
			recs = append(recs, fpl.ChipRecommendation{
				Chip:     fpl.ChipWildcard,
				Week:     w + 1,
				Priority: fpl.PriorityMedium,
				Reason:   ReasonFollowsBlank,
				Benefit:  float64(teams),
				Detail:   fmt.Sprintf("rebuild after %d teams blank in week %d", teams, w),
			})
		}
	}

	if week, difficulty := hardStretch(report, squadTeams(owned), cfg); week > 0 {
		recs = append(recs, fpl.ChipRecommendation{
			Chip:     fpl.ChipWildcard,
			Week:     week,
			Priority: fpl.PriorityMedium,
			Reason:   ReasonHardStretch,
			Benefit:  difficulty,
			Detail:   fmt.Sprintf("reshape ahead of a difficult run from week %d", week),
		})
	}
	return recs
}

// benchBoost targets every double week, upgraded to high priority when the
// owned bench already projects well.
func benchBoost(report *fixtures.Report, owned *fpl.Squad, cfg Config) []fpl.ChipRecommendation {
	var recs []fpl.ChipRecommendation
	for _, w := range report.Window.Weeks() {
		teams := len(report.Calendar.Doubles[w])
		if teams == 0 {
			continue
		}
		rec := fpl.ChipRecommendation{
			Chip:     fpl.ChipBenchBoost,
			Week:     w,
			Priority: fpl.PriorityMedium,
			Reason:   ReasonDoubleGameweek,
			Benefit:  float64(teams),
			Detail:   fmt.Sprintf("all fifteen score while %d teams play twice", teams),
		}
		if owned != nil {
			bench := benchProjection(owned, report)
			rec.Benefit = bench
			if bench >= cfg.BenchFloor {
				rec.Priority = fpl.PriorityHigh
				rec.Reason = ReasonStrongBench
			}
		}
		recs = append(recs, rec)
	}
	return recs
}

// tripleCaptain seats the chip on the best-projected player's weeks: every
// double week their team plays twice, then their single easiest fixture.
// Double weeks not involving the target still get flagged, since the
// captain can be bought in. Without any player context only the calendar
// speaks.
func tripleCaptain(report *fixtures.Report, target *fpl.Player) []fpl.ChipRecommendation {
	var recs []fpl.ChipRecommendation

	for _, w := range report.Window.Weeks() {
		doubles := report.Calendar.Doubles[w]
		if len(doubles) == 0 {
			continue
		}
		if target != nil && containsTeam(doubles, target.TeamID) {
			mult := report.Profiles[target.TeamID].Weeks[w].Multiplicity
			recs = append(recs, fpl.ChipRecommendation{
				Chip:     fpl.ChipTripleCaptain,
				Week:     w,
				Priority: fpl.PriorityVeryHigh,
				Reason:   ReasonDoubleGameweek,
				Benefit:  target.Projected * float64(mult),
				Detail:   fmt.Sprintf("%s can return %d times in week %d", target.Name, mult, w),
			})
			continue
		}
		priority := fpl.PriorityVeryHigh
		if target != nil {
			priority = fpl.PriorityHigh
		}
		recs = append(recs, fpl.ChipRecommendation{
			Chip:     fpl.ChipTripleCaptain,
			Week:     w,
			Priority: priority,
			Reason:   ReasonDoubleGameweek,
			Benefit:  float64(len(doubles)),
			Detail:   fmt.Sprintf("captain can return twice; %d teams double in week %d", len(doubles), w),
		})
	}

	if target != nil {
		if week, difficulty := easiestFixtureWeek(report, target.TeamID); week > 0 && !recommendedWeek(recs, week) {
			recs = append(recs, fpl.ChipRecommendation{
				Chip:     fpl.ChipTripleCaptain,
				Week:     week,
				Priority: fpl.PriorityMedium,
				Reason:   ReasonEasiestFixture,
				Benefit:  target.Projected * tierWeight(report, difficulty),
				Detail:   fmt.Sprintf("%s's softest fixture of the window", target.Name),
			})
		}
	}
	return recs
}

// freeHit papers over blank weeks. With an owned squad only blanks that hit
// its teams count; without one the league-wide calendar decides. A double
// week serves as the one-week-punt fallback when no blanks exist.
func freeHit(report *fixtures.Report, owned *fpl.Squad) []fpl.ChipRecommendation {
	ownedTeams := squadTeams(owned)

	var recs []fpl.ChipRecommendation
	for _, w := range report.Window.Weeks() {
		blanks := report.Calendar.Blanks[w]
		affected := len(blanks)
		if len(ownedTeams) > 0 {
			affected = 0
			for _, teamID := range blanks {
				if ownedTeams[teamID] {
					affected++
				}
			}
		}
		if affected == 0 {
			continue
		}
		recs = append(recs, fpl.ChipRecommendation{
			Chip:     fpl.ChipFreeHit,
			Week:     w,
			Priority: fpl.PriorityVeryHigh,
			Reason:   ReasonBlankGameweek,
			Benefit:  float64(affected),
			Detail:   fmt.Sprintf("field a full team while %d teams blank in week %d", affected, w),
		})
	}
	if len(recs) > 0 {
		return recs
	}

	for _, w := range report.Window.Weeks() {
		if teams := len(report.Calendar.Doubles[w]); teams > 0 {
			recs = append(recs, fpl.ChipRecommendation{
				Chip:     fpl.ChipFreeHit,
				Week:     w,
				Priority: fpl.PriorityMedium,
				Reason:   ReasonDoubleGameweek,
				Benefit:  float64(teams),
				Detail:   fmt.Sprintf("one-week squad of doublers, reverts after week %d", w),
			})
			break
		}
	}
	return recs
}

// fallback is the never-empty guarantee: the softest remaining week at low
// priority.
func fallback(report *fixtures.Report, chip fpl.Chip) fpl.ChipRecommendation {
	return fpl.ChipRecommendation{
		Chip:     chip,
		Week:     easiestWeek(report),
		Priority: fpl.PriorityLow,
		Reason:   ReasonEasiestRemaining,
		Detail:   "no standout week; hold or use on the softest remaining schedule",
	}
}

// star picks the best captaincy target by fixture-weighted projection,
// preferring the owned squad over the open pool. Ties go to the lower ID.
func star(report *fixtures.Report, owned *fpl.Squad, pool []fpl.Player) *fpl.Player {
	candidates := pool
	if owned != nil && len(owned.Players()) > 0 {
		candidates = owned.Players()
	}

	var best *fpl.Player
	bestScore := 0.0
	for i := range candidates {
		p := &candidates[i]
		if p.Availability == fpl.Unavailable {
			continue
		}
		score := p.Projected * report.Weight(p.TeamID)
		if best == nil || score > bestScore || (score == bestScore && p.ID < best.ID) {
			best, bestScore = p, score
		}
	}
	return best
}

func containsTeam(teams []int, teamID int) bool {
	for _, id := range teams {
		if id == teamID {
			return true
		}
	}
	return false
}

func recommendedWeek(recs []fpl.ChipRecommendation, week int) bool {
	for _, r := range recs {
		if r.Week == week {
			return true
		}
	}
	return false
}

// easiestFixtureWeek is the week where the team's schedule is softest, 0
// when it blanks the whole window. Earlier weeks win ties.
func easiestFixtureWeek(report *fixtures.Report, teamID int) (week int, difficulty float64) {
	profile, ok := report.Profiles[teamID]
	if !ok {
		return 0, 0
	}
	for _, w := range report.Window.Weeks() {
		wd := profile.Weeks[w]
		if wd.Multiplicity == 0 {
			continue
		}
		if week == 0 || wd.Difficulty < difficulty {
			week, difficulty = w, wd.Difficulty
		}
	}
	return week, difficulty
}

// tierWeight maps a difficulty onto the shared step curve, so an easy
// fixture scales the captaincy benefit up the same way it scales
// projections.
func tierWeight(report *fixtures.Report, difficulty float64) float64 {
	if w, ok := report.Config.Weights[fixtures.Tier(difficulty)]; ok {
		return w
	}
	return 1.0
}

// hardStretch finds the first run of HardStretchLength consecutive weeks
// whose average difficulty stays at or above the threshold, returning its
// start week and average difficulty. When a squad's team set is given the
// average covers only those teams; relative difficulty washes out across
// the whole league, so the league-wide average almost never qualifies.
func hardStretch(report *fixtures.Report, teams map[int]bool, cfg Config) (int, float64) {
	weeks := report.Window.Weeks()
	if len(weeks) < cfg.HardStretchLength {
		return 0, 0
	}
	diffs := make([]float64, len(weeks))
	for i, w := range weeks {
		diffs[i] = weekDifficultyFor(report, w, teams)
	}
	run, sum := 0, 0.0
	for i := range diffs {
		if diffs[i] < cfg.HardStretchDifficulty {
			run, sum = 0, 0
			continue
		}
		run++
		sum += diffs[i]
		if run == cfg.HardStretchLength {
			return weeks[i-run+1], sum / float64(run)
		}
	}
	return 0, 0
}

// weekDifficulty averages per-fixture difficulty across every team with a
// fixture that week. A week with no fixtures at all reads as neutral.
func weekDifficulty(report *fixtures.Report, week int) float64 {
	return weekDifficultyFor(report, week, nil)
}

// weekDifficultyFor restricts the average to the given team set; a nil or
// empty set covers every profiled team.
func weekDifficultyFor(report *fixtures.Report, week int, teams map[int]bool) float64 {
	sum, n := 0.0, 0
	for teamID, profile := range report.Profiles {
		if len(teams) > 0 && !teams[teamID] {
			continue
		}
		wd, ok := profile.Weeks[week]
		if !ok || wd.Multiplicity == 0 {
			continue
		}
		sum += wd.Difficulty
		n++
	}
	if n == 0 {
		return 3.0
	}
	return sum / float64(n)
}

// squadTeams is the distinct team set of a squad, nil for no squad.
func squadTeams(squad *fpl.Squad) map[int]bool {
	if squad == nil {
		return nil
	}
	teams := make(map[int]bool)
	for _, p := range squad.Players() {
		teams[p.TeamID] = true
	}
	return teams
}

// easiestWeek is the low-priority fallback target: the remaining week with
// the lowest average difficulty, earliest on ties.
func easiestWeek(report *fixtures.Report) int {
	best, bestDiff := report.Window.First, weekDifficulty(report, report.Window.First)
	for _, w := range report.Window.Weeks() {
		if d := weekDifficulty(report, w); d < bestDiff {
			best, bestDiff = w, d
		}
	}
	return best
}

// benchProjection sums the fixture-weighted projections of the bench.
func benchProjection(squad *fpl.Squad, report *fixtures.Report) float64 {
	total := 0.0
	for _, p := range squad.Bench {
		total += p.Projected * report.Weight(p.TeamID)
	}
	return total
}
