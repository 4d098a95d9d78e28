package fixtures

import (
	"fmt"
	"math"
	"sort"

	"fpl-optimizer/internal/fpl"
)

// Config holds the difficulty policy. The weight curve and home advantage
// are tuned constants, kept configurable rather than load-bearing.
type Config struct {
	// Weights maps a difficulty tier (1 = very easy .. 5 = very hard) to
	// the multiplier applied to projections. Must be monotonically
	// decreasing so hard fixtures are penalized more sharply.
	Weights map[int]float64 `json:"weights"`
	// AwayPenalty is added to a fixture's difficulty when played away.
	AwayPenalty float64 `json:"away_penalty"`
}

// DefaultConfig reproduces the curve the projection tooling was tuned
// against: very easy fixtures double effective output, very hard fixtures
// cut it to 40%.
func DefaultConfig() Config {
	return Config{
		Weights: map[int]float64{
			1: 2.0,
			2: 1.5,
			3: 1.0,
			4: 0.7,
			5: 0.4,
		},
		AwayPenalty: 0.5,
	}
}

// WeekDifficulty describes one team's schedule in one gameweek.
// Multiplicity 0 is a blank: Difficulty is meaningless and the week offers
// no scoring opportunity. Multiplicity >= 2 is a double and Difficulty is
// the average over the fixtures, since the team plays all of them.
type WeekDifficulty struct {
	Multiplicity int     `json:"multiplicity"`
	Difficulty   float64 `json:"difficulty,omitempty"`
}

// TeamProfile aggregates one team's schedule over the window.
type TeamProfile struct {
	TeamID int `json:"team_id"`
	// Weeks has an entry for every week in the window, including blanks.
	Weeks map[int]WeekDifficulty `json:"weeks"`
	// FixtureCount is the total number of fixtures in the window.
	FixtureCount int `json:"fixture_count"`
	// AvgDifficulty is the mean per-fixture difficulty; 3.0 (neutral) when
	// the team has no fixtures at all.
	AvgDifficulty float64 `json:"avg_difficulty"`
}

// Calendar is the schedule-anomaly index shared by the optimizer and the
// chip analyzer: week -> teams with no fixture, week -> teams with two or
// more.
type Calendar struct {
	Blanks  map[int][]int `json:"blanks"`
	Doubles map[int][]int `json:"doubles"`
}

// Report is the full output of Analyze. It is plain data and survives a
// JSON round trip through the cache intact.
type Report struct {
	Window   fpl.GameweekWindow  `json:"window"`
	Profiles map[int]TeamProfile `json:"profiles"`
	Calendar Calendar            `json:"calendar"`
	Config   Config              `json:"config"`
}

// TeamRanking is one row of the window-level attractiveness ordering.
type TeamRanking struct {
	TeamID        int     `json:"team_id"`
	AvgDifficulty float64 `json:"avg_difficulty"`
	FixtureCount  int     `json:"fixture_count"`
}

// Analyze builds the per-team difficulty profiles and the anomaly calendar
// for the window. A team missing from the fixture list is reported as a
// blank in every week, never as an error.
func Analyze(fixtureList []fpl.Fixture, teams []fpl.Team, window fpl.GameweekWindow, cfg Config) (*Report, error) {
	if window.Length <= 0 {
		return nil, fmt.Errorf("fixtures: zero-length window")
	}
	if len(teams) == 0 {
		return nil, fmt.Errorf("fixtures: no teams in snapshot")
	}
	if len(cfg.Weights) == 0 {
		cfg = DefaultConfig()
	}

	strength := make(map[int]int, len(teams))
	minStrength, maxStrength := math.MaxInt, math.MinInt
	for _, t := range teams {
		strength[t.ID] = t.Strength
		if t.Strength < minStrength {
			minStrength = t.Strength
		}
		if t.Strength > maxStrength {
			maxStrength = t.Strength
		}
	}

	report := &Report{
		Window:   window,
		Profiles: make(map[int]TeamProfile, len(teams)),
		Calendar: Calendar{
			Blanks:  make(map[int][]int),
			Doubles: make(map[int][]int),
		},
		Config: cfg,
	}

	type weekAccum struct {
		count int
		sum   float64
	}
	perTeam := make(map[int]map[int]*weekAccum, len(teams))
	for _, t := range teams {
		perTeam[t.ID] = make(map[int]*weekAccum, window.Length)
	}

	for _, f := range fixtureList {
		if !window.Contains(f.Week) {
			continue
		}
		weeks, ok := perTeam[f.TeamID]
		if !ok {
			continue
		}
		acc := weeks[f.Week]
		if acc == nil {
			acc = &weekAccum{}
			weeks[f.Week] = acc
		}
		acc.count++
		acc.sum += fixtureDifficulty(strength[f.OpponentID], minStrength, maxStrength, f.Home, cfg)
	}

	for _, t := range teams {
		profile := TeamProfile{
			TeamID: t.ID,
			Weeks:  make(map[int]WeekDifficulty, window.Length),
		}
		totalSum := 0.0
		for _, gw := range window.Weeks() {
			acc := perTeam[t.ID][gw]
			if acc == nil {
				profile.Weeks[gw] = WeekDifficulty{Multiplicity: 0}
				report.Calendar.Blanks[gw] = append(report.Calendar.Blanks[gw], t.ID)
				continue
			}
			profile.Weeks[gw] = WeekDifficulty{
				Multiplicity: acc.count,
				Difficulty:   acc.sum / float64(acc.count),
			}
			profile.FixtureCount += acc.count
			totalSum += acc.sum
			if acc.count >= 2 {
				report.Calendar.Doubles[gw] = append(report.Calendar.Doubles[gw], t.ID)
			}
		}
		if profile.FixtureCount > 0 {
			profile.AvgDifficulty = totalSum / float64(profile.FixtureCount)
		} else {
			profile.AvgDifficulty = 3.0
		}
		report.Profiles[t.ID] = profile
	}

	for gw := range report.Calendar.Blanks {
		sort.Ints(report.Calendar.Blanks[gw])
	}
	for gw := range report.Calendar.Doubles {
		sort.Ints(report.Calendar.Doubles[gw])
	}

	return report, nil
}

// fixtureDifficulty maps the opponent's strength rating into the 1..5
// ordinal scale, monotonically, with an away adjustment. When all teams
// share one rating everything is neutral.
func fixtureDifficulty(oppStrength, minStrength, maxStrength int, home bool, cfg Config) float64 {
	difficulty := 3.0
	if maxStrength > minStrength {
		span := float64(maxStrength - minStrength)
		difficulty = 1.0 + 4.0*float64(oppStrength-minStrength)/span
	}
	if !home {
		difficulty += cfg.AwayPenalty
	}
	return clamp(difficulty, 1.0, 5.0)
}

// Tier rounds a difficulty score to its ordinal tier.
func Tier(difficulty float64) int {
	return int(clamp(math.Round(difficulty), 1, 5))
}

// Weight returns the projection multiplier for a team over the window: the
// step-curve weight of its average difficulty tier, scaled by fixture
// density so a blank-heavy schedule contributes proportionally less and a
// double-heavy one proportionally more. Unknown teams are neutral.
func (r *Report) Weight(teamID int) float64 {
	profile, ok := r.Profiles[teamID]
	if !ok {
		return 1.0
	}
	if profile.FixtureCount == 0 {
		return 0.0
	}
	weight, ok := r.Config.Weights[Tier(profile.AvgDifficulty)]
	if !ok {
		weight = 1.0
	}
	return weight * float64(profile.FixtureCount) / float64(r.Window.Length)
}

// Rank orders teams as transfer targets: easiest average schedule first,
// ties broken by total fixture count descending, then team ID.
func (r *Report) Rank() []TeamRanking {
	rankings := make([]TeamRanking, 0, len(r.Profiles))
	for _, p := range r.Profiles {
		rankings = append(rankings, TeamRanking{
			TeamID:        p.TeamID,
			AvgDifficulty: p.AvgDifficulty,
			FixtureCount:  p.FixtureCount,
		})
	}
	sort.Slice(rankings, func(i, j int) bool {
		if rankings[i].AvgDifficulty != rankings[j].AvgDifficulty {
			return rankings[i].AvgDifficulty < rankings[j].AvgDifficulty
		}
		if rankings[i].FixtureCount != rankings[j].FixtureCount {
			return rankings[i].FixtureCount > rankings[j].FixtureCount
		}
		return rankings[i].TeamID < rankings[j].TeamID
	})
	return rankings
}

// BlankedTeams returns the set of teams with no fixture in the given week.
func (r *Report) BlankedTeams(week int) []int {
	return r.Calendar.Blanks[week]
}

// DoubledTeams returns the set of teams with two or more fixtures in the
// given week.
func (r *Report) DoubledTeams(week int) []int {
	return r.Calendar.Doubles[week]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
