package fixtures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpl-optimizer/internal/fpl"
)

func testTeams() []fpl.Team {
	return []fpl.Team{
		{ID: 1, Name: "Arsenal", ShortName: "ARS", Strength: 5},
		{ID: 2, Name: "Brentford", ShortName: "BRE", Strength: 3},
		{ID: 3, Name: "Luton", ShortName: "LUT", Strength: 2},
	}
}

func TestAnalyzeProfilesBlanksAndDoubles(t *testing.T) {
	window := fpl.GameweekWindow{First: 10, Length: 4}
	fixtureList := []fpl.Fixture{
		{TeamID: 2, OpponentID: 3, Week: 10, Home: true},
		{TeamID: 2, OpponentID: 1, Week: 11, Home: false},
		// week 12 is a blank for team 2
		{TeamID: 2, OpponentID: 1, Week: 13, Home: true},
		{TeamID: 2, OpponentID: 3, Week: 13, Home: false},

		{TeamID: 1, OpponentID: 2, Week: 10, Home: false},
		{TeamID: 1, OpponentID: 3, Week: 11, Home: true},
		{TeamID: 1, OpponentID: 2, Week: 12, Home: true},
		{TeamID: 1, OpponentID: 3, Week: 13, Home: false},
	}

	report, err := Analyze(fixtureList, testTeams(), window, DefaultConfig())
	require.NoError(t, err)

	profile := report.Profiles[2]
	assert.Equal(t, 4, profile.FixtureCount)
	assert.Len(t, profile.Weeks, 4, "every window week gets an entry")

	// Strengths span 2..5 so vs Luton (2) home is the easiest possible
	// fixture and vs Arsenal (5) away clamps at the hard end.
	assert.InDelta(t, 1.0, profile.Weeks[10].Difficulty, 1e-9)
	assert.InDelta(t, 5.0, profile.Weeks[11].Difficulty, 1e-9)

	// Blank week has multiplicity zero and no difficulty.
	assert.Equal(t, 0, profile.Weeks[12].Multiplicity)
	assert.Contains(t, report.BlankedTeams(12), 2)

	// Double week averages its two fixtures: vs Arsenal home (5.0) and vs
	// Luton away (1.5).
	double := profile.Weeks[13]
	assert.Equal(t, 2, double.Multiplicity)
	assert.InDelta(t, 3.25, double.Difficulty, 1e-9)
	assert.Equal(t, []int{2}, report.DoubledTeams(13))

	// Team 3 never appears in the fixture list and blanks every week.
	idle := report.Profiles[3]
	assert.Equal(t, 0, idle.FixtureCount)
	assert.InDelta(t, 3.0, idle.AvgDifficulty, 1e-9)
	for _, gw := range window.Weeks() {
		assert.Contains(t, report.BlankedTeams(gw), 3)
	}
}

func TestAnalyzeNeutralWhenStrengthsEqual(t *testing.T) {
	teams := []fpl.Team{
		{ID: 1, Strength: 4},
		{ID: 2, Strength: 4},
	}
	window := fpl.GameweekWindow{First: 1, Length: 1}
	fixtureList := []fpl.Fixture{
		{TeamID: 1, OpponentID: 2, Week: 1, Home: true},
		{TeamID: 2, OpponentID: 1, Week: 1, Home: false},
	}

	report, err := Analyze(fixtureList, teams, window, DefaultConfig())
	require.NoError(t, err)

	assert.InDelta(t, 3.0, report.Profiles[1].Weeks[1].Difficulty, 1e-9)
	assert.InDelta(t, 3.5, report.Profiles[2].Weeks[1].Difficulty, 1e-9, "away penalty still applies")
}

func TestAnalyzeIgnoresFixturesOutsideWindow(t *testing.T) {
	window := fpl.GameweekWindow{First: 5, Length: 2}
	fixtureList := []fpl.Fixture{
		{TeamID: 1, OpponentID: 2, Week: 4, Home: true},
		{TeamID: 1, OpponentID: 2, Week: 5, Home: true},
		{TeamID: 1, OpponentID: 3, Week: 7, Home: true},
	}

	report, err := Analyze(fixtureList, testTeams(), window, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Profiles[1].FixtureCount)
}

func TestAnalyzeInputErrors(t *testing.T) {
	_, err := Analyze(nil, testTeams(), fpl.GameweekWindow{First: 1, Length: 0}, DefaultConfig())
	assert.Error(t, err)

	_, err = Analyze(nil, nil, fpl.GameweekWindow{First: 1, Length: 3}, DefaultConfig())
	assert.Error(t, err)
}

func TestWeightScalesWithFixtureDensity(t *testing.T) {
	teams := []fpl.Team{
		{ID: 1, Strength: 2},
		{ID: 2, Strength: 2},
		{ID: 3, Strength: 2},
	}
	window := fpl.GameweekWindow{First: 1, Length: 2}
	fixtureList := []fpl.Fixture{
		// Team 1 plays twice across the window, team 2 once, team 3 never.
		{TeamID: 1, OpponentID: 2, Week: 1, Home: true},
		{TeamID: 1, OpponentID: 3, Week: 2, Home: true},
		{TeamID: 2, OpponentID: 1, Week: 1, Home: false},
	}

	report, err := Analyze(fixtureList, teams, window, DefaultConfig())
	require.NoError(t, err)

	// Equal strengths make every fixture neutral at home, so team 1 takes
	// the tier-3 weight at full density.
	assert.InDelta(t, 1.0, report.Weight(1), 1e-9)
	assert.Less(t, report.Weight(2), report.Weight(1), "half the fixtures, half the weight")
	assert.Zero(t, report.Weight(3), "no fixtures means no scoring opportunity")
	assert.InDelta(t, 1.0, report.Weight(99), 1e-9, "unknown teams are neutral")
}

func TestTierRoundsAndClamps(t *testing.T) {
	assert.Equal(t, 1, Tier(0.2))
	assert.Equal(t, 2, Tier(2.4))
	assert.Equal(t, 3, Tier(2.6))
	assert.Equal(t, 5, Tier(5.5))
}

func TestRankOrdering(t *testing.T) {
	window := fpl.GameweekWindow{First: 1, Length: 2}
	fixtureList := []fpl.Fixture{
		// Team 3 has the easiest run (two home games against the weakest
		// side), team 2 one easy game, team 1 two hard ones.
		{TeamID: 3, OpponentID: 3, Week: 1, Home: true},
		{TeamID: 3, OpponentID: 3, Week: 2, Home: true},
		{TeamID: 2, OpponentID: 3, Week: 1, Home: true},
		{TeamID: 1, OpponentID: 1, Week: 1, Home: false},
		{TeamID: 1, OpponentID: 1, Week: 2, Home: false},
	}

	report, err := Analyze(fixtureList, testTeams(), window, DefaultConfig())
	require.NoError(t, err)

	rankings := report.Rank()
	require.Len(t, rankings, 3)
	assert.Equal(t, 3, rankings[0].TeamID, "easiest schedule first")
	assert.Equal(t, 2, rankings[1].TeamID)
	assert.Equal(t, 1, rankings[2].TeamID, "hardest schedule last")
}
