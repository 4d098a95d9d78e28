package chips

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpl-optimizer/internal/fixtures"
	"fpl-optimizer/internal/fpl"
)

var allChips = []fpl.Chip{fpl.ChipWildcard, fpl.ChipBenchBoost, fpl.ChipTripleCaptain, fpl.ChipFreeHit}

func analyze(t *testing.T, fixtureList []fpl.Fixture, teams []fpl.Team, window fpl.GameweekWindow) *fixtures.Report {
	t.Helper()
	report, err := fixtures.Analyze(fixtureList, teams, window, fixtures.DefaultConfig())
	require.NoError(t, err)
	return report
}

func flatTeams(n int) []fpl.Team {
	teams := make([]fpl.Team, n)
	for i := range teams {
		teams[i] = fpl.Team{ID: i + 1, Strength: 3}
	}
	return teams
}

// calendarWith returns four teams playing weekly over a 6-week window
// starting at week 10, with optional extra fixtures (doubles) and removals
// (blanks) applied per team and week.
func calendarWith(t *testing.T, doubles, blanks map[int][]int) *fixtures.Report {
	window := fpl.GameweekWindow{First: 10, Length: 6}
	teams := flatTeams(4)

	skip := make(map[[2]int]bool)
	for teamID, weeks := range blanks {
		for _, w := range weeks {
			skip[[2]int{teamID, w}] = true
		}
	}

	var fixtureList []fpl.Fixture
	for _, gw := range window.Weeks() {
		for _, team := range teams {
			if skip[[2]int{team.ID, gw}] {
				continue
			}
			opp := team.ID%4 + 1
			fixtureList = append(fixtureList, fpl.Fixture{TeamID: team.ID, OpponentID: opp, Week: gw, Home: true})
		}
	}
	for teamID, weeks := range doubles {
		for _, w := range weeks {
			fixtureList = append(fixtureList, fpl.Fixture{TeamID: teamID, OpponentID: teamID%4 + 1, Week: w, Home: false})
		}
	}
	return analyze(t, fixtureList, teams, window)
}

// byChip keeps the top-ranked recommendation per chip.
func byChip(recs []fpl.ChipRecommendation) map[fpl.Chip]fpl.ChipRecommendation {
	out := make(map[fpl.Chip]fpl.ChipRecommendation, len(recs))
	for _, r := range recs {
		if _, ok := out[r.Chip]; !ok {
			out[r.Chip] = r
		}
	}
	return out
}

func chipRecs(recs []fpl.ChipRecommendation, chip fpl.Chip) []fpl.ChipRecommendation {
	var out []fpl.ChipRecommendation
	for _, r := range recs {
		if r.Chip == chip {
			out = append(out, r)
		}
	}
	return out
}

func TestRecommendDoubleGameweekTargets(t *testing.T) {
	report := calendarWith(t, map[int][]int{1: {13}, 2: {13}}, nil)

	recs, err := Recommend(report, nil, nil, allChips, DefaultConfig())
	require.NoError(t, err)
	got := byChip(recs)

	tc := got[fpl.ChipTripleCaptain]
	assert.Equal(t, 13, tc.Week)
	assert.Equal(t, fpl.PriorityVeryHigh, tc.Priority)
	assert.Equal(t, ReasonDoubleGameweek, tc.Reason)

	bb := got[fpl.ChipBenchBoost]
	assert.Equal(t, 13, bb.Week)
	assert.Equal(t, fpl.PriorityMedium, bb.Priority)

	wc := got[fpl.ChipWildcard]
	assert.Equal(t, 12, wc.Week, "wildcard lands the week before the double")
	assert.Equal(t, fpl.PriorityHigh, wc.Priority)
	assert.Equal(t, ReasonPrecedesDouble, wc.Reason)
}

func TestRecommendBlankGameweekTargets(t *testing.T) {
	report := calendarWith(t, nil, map[int][]int{1: {12}, 2: {12}, 3: {12}})

	recs, err := Recommend(report, nil, nil, allChips, DefaultConfig())
	require.NoError(t, err)
	got := byChip(recs)

	fh := got[fpl.ChipFreeHit]
	assert.Equal(t, 12, fh.Week)
	assert.Equal(t, fpl.PriorityVeryHigh, fh.Priority)
	assert.Equal(t, ReasonBlankGameweek, fh.Reason)
	assert.Equal(t, 3.0, fh.Benefit, "three teams blank")

	wc := got[fpl.ChipWildcard]
	assert.Equal(t, 13, wc.Week, "wildcard rebuilds right after the blank")
	assert.Equal(t, fpl.PriorityMedium, wc.Priority)
	assert.Equal(t, ReasonFollowsBlank, wc.Reason)
}

func TestRecommendOneRecommendationPerDoubleWeek(t *testing.T) {
	report := calendarWith(t, map[int][]int{1: {12, 14}, 2: {12}}, nil)

	recs, err := Recommend(report, nil, nil, allChips, DefaultConfig())
	require.NoError(t, err)

	bb := chipRecs(recs, fpl.ChipBenchBoost)
	require.Len(t, bb, 2, "one bench boost call per double week")
	weeks := []int{bb[0].Week, bb[1].Week}
	assert.ElementsMatch(t, []int{12, 14}, weeks)

	wc := chipRecs(recs, fpl.ChipWildcard)
	require.Len(t, wc, 2)
	assert.ElementsMatch(t, []int{11, 13}, []int{wc[0].Week, wc[1].Week})

	// The bigger double (two teams in week 12) outranks the single-team
	// one within the chip.
	assert.Equal(t, 12, bb[0].Week)
	assert.Greater(t, bb[0].Benefit, bb[1].Benefit)
}

func TestRecommendTripleCaptainTargetsBestPlayer(t *testing.T) {
	report := calendarWith(t, map[int][]int{1: {13}}, nil)

	pool := []fpl.Player{
		{ID: 7, Name: "Talisman", TeamID: 1, Projected: 9.0},
		{ID: 8, Name: "Squad Man", TeamID: 2, Projected: 4.0},
	}

	recs, err := Recommend(report, nil, pool, []fpl.Chip{fpl.ChipTripleCaptain}, DefaultConfig())
	require.NoError(t, err)
	require.NotEmpty(t, recs)

	top := recs[0]
	assert.Equal(t, 13, top.Week, "seated on the best player's double week")
	assert.Equal(t, fpl.PriorityVeryHigh, top.Priority)
	assert.Equal(t, ReasonDoubleGameweek, top.Reason)
	assert.Equal(t, 18.0, top.Benefit, "projection times the double multiplicity")
}

func TestRecommendTripleCaptainEasiestFixtureFallback(t *testing.T) {
	// No doubles anywhere; the chip should still find the target's softest
	// single fixture. Team 2 faces the strong side every week except week 3,
	// where it gets the weak one.
	teams := []fpl.Team{{ID: 1, Strength: 5}, {ID: 2, Strength: 3}, {ID: 3, Strength: 1}}
	window := fpl.GameweekWindow{First: 1, Length: 4}
	var fixtureList []fpl.Fixture
	for gw := 1; gw <= 4; gw++ {
		opp := 1
		if gw == 3 {
			opp = 3
		}
		fixtureList = append(fixtureList, fpl.Fixture{TeamID: 2, OpponentID: opp, Week: gw, Home: true})
		fixtureList = append(fixtureList, fpl.Fixture{TeamID: opp, OpponentID: 2, Week: gw, Home: false})
	}
	report := analyze(t, fixtureList, teams, window)

	pool := []fpl.Player{{ID: 1, Name: "Talisman", TeamID: 2, Projected: 8.0}}
	recs, err := Recommend(report, nil, pool, []fpl.Chip{fpl.ChipTripleCaptain}, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 3, recs[0].Week)
	assert.Equal(t, ReasonEasiestFixture, recs[0].Reason)
	assert.Equal(t, fpl.PriorityMedium, recs[0].Priority)
	assert.Greater(t, recs[0].Benefit, 0.0)
}

func TestRecommendFreeHitScopedToOwnedSquad(t *testing.T) {
	report := calendarWith(t, nil, map[int][]int{3: {12}, 4: {12}})

	// Nobody owned is affected by the blank, so no free-hit call for it.
	unaffected := &fpl.Squad{Starting: []fpl.Player{{ID: 1, TeamID: 1}, {ID: 2, TeamID: 2}}}
	recs, err := Recommend(report, unaffected, nil, []fpl.Chip{fpl.ChipFreeHit}, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, ReasonEasiestRemaining, recs[0].Reason)
	assert.Equal(t, fpl.PriorityLow, recs[0].Priority)

	// One owned team blanks: the call comes back, sized to the exposure.
	exposed := &fpl.Squad{Starting: []fpl.Player{{ID: 1, TeamID: 1}, {ID: 3, TeamID: 3}}}
	recs, err = Recommend(report, exposed, nil, []fpl.Chip{fpl.ChipFreeHit}, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 12, recs[0].Week)
	assert.Equal(t, ReasonBlankGameweek, recs[0].Reason)
	assert.Equal(t, 1.0, recs[0].Benefit)
}

func TestRecommendBenefitRanksWithinPriority(t *testing.T) {
	report := calendarWith(t, nil, map[int][]int{1: {11, 13}, 2: {11}, 3: {11}})

	recs, err := Recommend(report, nil, nil, []fpl.Chip{fpl.ChipFreeHit}, DefaultConfig())
	require.NoError(t, err)

	fh := chipRecs(recs, fpl.ChipFreeHit)
	require.Len(t, fh, 2)
	assert.Equal(t, 11, fh[0].Week, "three-team blank ranks above the one-team blank")
	assert.Equal(t, 3.0, fh[0].Benefit)
	assert.Equal(t, 13, fh[1].Week)
	assert.Equal(t, 1.0, fh[1].Benefit)
}

func TestRecommendNeverEmptyOnFlatCalendar(t *testing.T) {
	report := calendarWith(t, nil, nil)

	recs, err := Recommend(report, nil, nil, allChips, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, recs, 4)

	for _, rec := range recs {
		assert.Equal(t, fpl.PriorityLow, rec.Priority, "%s has no standout week", rec.Chip)
		assert.Equal(t, ReasonEasiestRemaining, rec.Reason)
		assert.True(t, report.Window.Contains(rec.Week))
	}
}

func TestRecommendOnlyHeldChips(t *testing.T) {
	report := calendarWith(t, nil, nil)

	recs, err := Recommend(report, nil, nil, []fpl.Chip{fpl.ChipFreeHit}, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, fpl.ChipFreeHit, recs[0].Chip)

	_, err = Recommend(report, nil, nil, []fpl.Chip{fpl.Chip(42)}, DefaultConfig())
	assert.Error(t, err)
}

func TestRecommendStrongBenchUpgradesBoost(t *testing.T) {
	report := calendarWith(t, map[int][]int{1: {13}, 2: {13}}, nil)

	squad := &fpl.Squad{
		Bench: []fpl.Player{
			{ID: 1, TeamID: 1, Projected: 5.0},
			{ID: 2, TeamID: 2, Projected: 5.0},
			{ID: 3, TeamID: 3, Projected: 4.0},
			{ID: 4, TeamID: 4, Projected: 4.0},
		},
	}

	recs, err := Recommend(report, squad, nil, []fpl.Chip{fpl.ChipBenchBoost}, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, fpl.PriorityHigh, recs[0].Priority)
	assert.Equal(t, ReasonStrongBench, recs[0].Reason)
}

func TestRecommendRankedByPriority(t *testing.T) {
	report := calendarWith(t, map[int][]int{1: {13}, 2: {13}}, map[int][]int{1: {11}, 2: {11}})

	recs, err := Recommend(report, nil, nil, allChips, DefaultConfig())
	require.NoError(t, err)
	require.NotEmpty(t, recs)

	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].Priority, recs[i].Priority, "ranked best first")
	}
}

func TestRecommendRequiresReport(t *testing.T) {
	_, err := Recommend(nil, nil, nil, allChips, DefaultConfig())
	assert.Error(t, err)
}

func TestHardStretchWildcard(t *testing.T) {
	// Two teams: one strong, one weak. The weak team faces the strong one
	// away every week, a sustained hard run with no blanks or doubles.
	teams := []fpl.Team{{ID: 1, Strength: 5}, {ID: 2, Strength: 1}}
	window := fpl.GameweekWindow{First: 1, Length: 4}
	var fixtureList []fpl.Fixture
	for gw := 1; gw <= 4; gw++ {
		fixtureList = append(fixtureList, fpl.Fixture{TeamID: 2, OpponentID: 1, Week: gw, Home: false})
		fixtureList = append(fixtureList, fpl.Fixture{TeamID: 1, OpponentID: 2, Week: gw, Home: true})
	}
	report := analyze(t, fixtureList, teams, window)

	// Every owned player sits on the weak side, so the squad's average
	// difficulty pins at the hard end all window.
	squad := &fpl.Squad{Starting: []fpl.Player{{ID: 1, TeamID: 2}, {ID: 2, TeamID: 2}}}

	recs, err := Recommend(report, squad, nil, []fpl.Chip{fpl.ChipWildcard}, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, ReasonHardStretch, recs[0].Reason)
	assert.Equal(t, 1, recs[0].Week)
	assert.Equal(t, fpl.PriorityMedium, recs[0].Priority)
}
