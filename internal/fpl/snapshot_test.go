package fpl

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDropsBrokenEntities(t *testing.T) {
	raw := Snapshot{
		Teams: []Team{{ID: 1, Name: "Arsenal"}, {ID: 2, Name: "Brentford"}},
		Players: []Player{
			{ID: 1, TeamID: 1, Role: RoleForward, Price: 90, Projected: 6.0},
			{ID: 2, TeamID: 1, Role: Role(9), Price: 50, Projected: 4.0},
			{ID: 3, TeamID: 1, Role: RoleDefender, Price: 0, Projected: 4.0},
			{ID: 4, TeamID: 1, Role: RoleMidfielder, Price: 70, Projected: math.NaN()},
			{ID: 5, TeamID: 99, Role: RoleMidfielder, Price: 70, Projected: 5.0},
		},
		Fixtures: []Fixture{
			{TeamID: 1, OpponentID: 2, Week: 3, Home: true},
			{TeamID: 1, OpponentID: 2, Week: 0, Home: true},
			{TeamID: 1, OpponentID: 99, Week: 3, Home: false},
		},
	}

	clean, report := Validate(raw)

	require.Len(t, clean.Players, 1)
	assert.Equal(t, 1, clean.Players[0].ID)
	require.Len(t, clean.Fixtures, 1)
	assert.Equal(t, 3, clean.Fixtures[0].Week)

	assert.Equal(t, 4, report.Players)
	assert.Equal(t, 2, report.Fixtures)
	assert.Equal(t, 1, report.Reasons[ExcludeInvalidRole])
	assert.Equal(t, 1, report.Reasons[ExcludeMissingPrice])
	assert.Equal(t, 1, report.Reasons[ExcludeMissingProjection])
	assert.Equal(t, 2, report.Reasons[ExcludeUnknownTeam])
	assert.Equal(t, 1, report.Reasons[ExcludeInvalidWeek])
}

func TestValidateCleanSnapshotPassesThrough(t *testing.T) {
	raw := Snapshot{
		Teams:   []Team{{ID: 1}},
		Players: []Player{{ID: 1, TeamID: 1, Role: RoleKeeper, Price: 40, Projected: 3.0}},
	}

	clean, report := Validate(raw)
	assert.Equal(t, raw.Players, clean.Players)
	assert.Zero(t, report.Players)
	assert.Zero(t, report.Fixtures)
	assert.Nil(t, report.Reasons)
}

func TestParseRole(t *testing.T) {
	for _, role := range Roles {
		parsed, err := ParseRole(role.String())
		require.NoError(t, err)
		assert.Equal(t, role, parsed)
	}
	_, err := ParseRole("winger")
	assert.Error(t, err)
}

func TestParseAvailability(t *testing.T) {
	assert.Equal(t, Fit, ParseAvailability("a"))
	assert.Equal(t, Fit, ParseAvailability(""))
	assert.Equal(t, Doubtful, ParseAvailability("d"))
	assert.Equal(t, Unavailable, ParseAvailability("i"))
	assert.Equal(t, Unavailable, ParseAvailability("s"))
}

func TestParseChip(t *testing.T) {
	for _, name := range []string{"wildcard", "bench_boost", "triple_captain", "free_hit"} {
		chip, err := ParseChip(name)
		require.NoError(t, err)
		assert.Equal(t, name, chip.String())
	}
	_, err := ParseChip("mystery")
	assert.Error(t, err)
}

func TestGameweekWindow(t *testing.T) {
	w := GameweekWindow{First: 10, Length: 4}
	assert.Equal(t, 13, w.Last())
	assert.True(t, w.Contains(10))
	assert.True(t, w.Contains(13))
	assert.False(t, w.Contains(14))
	assert.Equal(t, []int{10, 11, 12, 13}, w.Weeks())
}

func TestSquadAccounting(t *testing.T) {
	squad := Squad{
		Starting: []Player{
			{ID: 1, TeamID: 1, Role: RoleKeeper, Price: 45},
			{ID: 2, TeamID: 1, Role: RoleDefender, Price: 55},
		},
		Bench: []Player{
			{ID: 3, TeamID: 2, Role: RoleDefender, Price: 40},
		},
	}

	assert.Equal(t, 140, squad.TotalPrice())
	assert.True(t, squad.Contains(3))
	assert.False(t, squad.Contains(4))
	assert.Equal(t, map[int]int{1: 2, 2: 1}, squad.TeamCounts())
	assert.Equal(t, map[Role]int{RoleKeeper: 1, RoleDefender: 2}, squad.RoleCounts())
}
