package transfers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpl-optimizer/internal/fpl"
)

func testSquad() *fpl.Squad {
	return &fpl.Squad{
		Starting: []fpl.Player{
			{ID: 1, Role: fpl.RoleKeeper, TeamID: 1, Price: 45, Projected: 4.0},
			{ID: 2, Role: fpl.RoleDefender, TeamID: 2, Price: 55, Projected: 4.5},
			{ID: 3, Role: fpl.RoleDefender, TeamID: 3, Price: 60, Projected: 5.0},
			{ID: 4, Role: fpl.RoleDefender, TeamID: 4, Price: 50, Projected: 4.2},
			{ID: 5, Role: fpl.RoleDefender, TeamID: 5, Price: 52, Projected: 4.1},
			{ID: 6, Role: fpl.RoleMidfielder, TeamID: 6, Price: 80, Projected: 6.5},
			{ID: 7, Role: fpl.RoleMidfielder, TeamID: 7, Price: 85, Projected: 7.0},
			{ID: 8, Role: fpl.RoleMidfielder, TeamID: 8, Price: 90, Projected: 7.5},
			{ID: 9, Role: fpl.RoleMidfielder, TeamID: 9, Price: 75, Projected: 6.0},
			{ID: 10, Role: fpl.RoleForward, TeamID: 10, Price: 110, Projected: 8.0},
			{ID: 11, Role: fpl.RoleForward, TeamID: 11, Price: 95, Projected: 7.2},
		},
		Bench: []fpl.Player{
			{ID: 12, Role: fpl.RoleKeeper, TeamID: 12, Price: 40, Projected: 3.5},
			{ID: 13, Role: fpl.RoleDefender, TeamID: 13, Price: 42, Projected: 3.8},
			{ID: 14, Role: fpl.RoleMidfielder, TeamID: 14, Price: 48, Projected: 4.0},
			{ID: 15, Role: fpl.RoleForward, TeamID: 15, Price: 50, Projected: 4.5},
		},
		Formation: fpl.Formation{Defenders: 4, Midfielders: 4, Forwards: 2},
	}
}

func TestProposeReplacesUnavailablePlayer(t *testing.T) {
	squad := testSquad()
	squad.Starting[9].Availability = fpl.Unavailable // forward, ID 10

	pool := []fpl.Player{
		{ID: 100, Role: fpl.RoleForward, TeamID: 16, Price: 105, Projected: 8.5},
		{ID: 101, Role: fpl.RoleForward, TeamID: 17, Price: 120, Projected: 8.2},
		{ID: 102, Role: fpl.RoleMidfielder, TeamID: 18, Price: 100, Projected: 9.0},
	}

	plan, err := Propose(squad, pool, nil, 20, 1, DefaultConfig())
	require.NoError(t, err)

	require.Len(t, plan.Moves, 1)
	assert.Equal(t, 10, plan.Moves[0].Out.ID)
	assert.Equal(t, 100, plan.Moves[0].In.ID, "same role, affordable, best value")
	assert.Zero(t, plan.HitCost, "one move inside the free allowance")
	assert.Equal(t, 20+110-105, plan.BankAfter)

	require.Len(t, plan.Suggestions, 1)
	assert.Equal(t, fpl.PriorityHigh, plan.Suggestions[0].Tier)
	assert.Contains(t, plan.Suggestions[0].Reasons, ReasonUnavailable)
}

func TestProposeChargesHitsBeyondFreeTransfers(t *testing.T) {
	squad := testSquad()
	squad.Starting[9].Availability = fpl.Unavailable // ID 10
	squad.Starting[10].Availability = fpl.Unavailable // ID 11

	pool := []fpl.Player{
		{ID: 100, Role: fpl.RoleForward, TeamID: 16, Price: 100, Projected: 8.0},
		{ID: 101, Role: fpl.RoleForward, TeamID: 17, Price: 90, Projected: 7.5},
	}

	cfg := DefaultConfig()
	plan, err := Propose(squad, pool, nil, 50, 1, cfg)
	require.NoError(t, err)

	require.Len(t, plan.Moves, 2)
	assert.Equal(t, cfg.HitCost, plan.HitCost, "second move costs a hit")
	assert.Positive(t, plan.FreeTransfers)
}

func TestProposeReportsUnaffordableSlot(t *testing.T) {
	squad := testSquad()
	squad.Bench[0].Availability = fpl.Unavailable // keeper, ID 12, price 40

	pool := []fpl.Player{
		{ID: 100, Role: fpl.RoleKeeper, TeamID: 16, Price: 60, Projected: 5.0},
	}

	plan, err := Propose(squad, pool, nil, 5, 1, DefaultConfig())
	require.NoError(t, err)

	assert.Empty(t, plan.Moves)
	require.Len(t, plan.Unresolved, 1)
	assert.Equal(t, 12, plan.Unresolved[0].PlayerID)
	assert.Equal(t, ReasonNoAffordable, plan.Unresolved[0].Reason)
	// The unaffordable option is still surfaced for the caller.
	require.Len(t, plan.Suggestions, 1)
	require.NotEmpty(t, plan.Suggestions[0].Candidates)
}

func TestProposeRespectsTeamCap(t *testing.T) {
	squad := testSquad()
	// Three squad members already on team 2.
	squad.Starting[2].TeamID = 2
	squad.Starting[3].TeamID = 2
	squad.Starting[9].Availability = fpl.Unavailable // ID 10

	pool := []fpl.Player{
		{ID: 100, Role: fpl.RoleForward, TeamID: 2, Price: 100, Projected: 9.9},
		{ID: 101, Role: fpl.RoleForward, TeamID: 16, Price: 100, Projected: 7.0},
	}

	plan, err := Propose(squad, pool, nil, 50, 1, DefaultConfig())
	require.NoError(t, err)

	require.Len(t, plan.Moves, 1)
	assert.Equal(t, 101, plan.Moves[0].In.ID, "the stronger option would breach the team cap")
}

func TestProposeFlagsFormDrop(t *testing.T) {
	squad := testSquad()
	// Six strong weeks then a collapse.
	squad.Starting[7].History = []float64{8, 9, 8, 9, 8, 0}

	cfg := DefaultConfig()
	cfg.MediumUrgency = 0.1

	plan, err := Propose(squad, nil, nil, 0, 1, cfg)
	require.NoError(t, err)

	require.NotEmpty(t, plan.Suggestions)
	assert.Equal(t, 8, plan.Suggestions[0].Out.ID)
	assert.Contains(t, plan.Suggestions[0].Reasons, ReasonFormDrop)
}

func TestProposeCapsMovesAndOrdersByUrgency(t *testing.T) {
	squad := testSquad()
	for i := 0; i < 4; i++ {
		squad.Starting[i].Availability = fpl.Unavailable
	}

	cfg := DefaultConfig()
	cfg.MaxTransfers = 2

	plan, err := Propose(squad, nil, nil, 0, 1, cfg)
	require.NoError(t, err)

	require.Len(t, plan.Suggestions, 2)
	// Equal urgency falls back to player ID order.
	assert.Equal(t, 1, plan.Suggestions[0].Out.ID)
	assert.Equal(t, 2, plan.Suggestions[1].Out.ID)
}

func TestProposeTowardsConvergesOnTarget(t *testing.T) {
	current := testSquad()
	target := testSquad()
	target.Starting[10] = fpl.Player{ID: 200, Role: fpl.RoleForward, TeamID: 16, Price: 98, Projected: 9.0}

	plan, err := ProposeTowards(current, target, nil, nil, 10, 1, DefaultConfig())
	require.NoError(t, err)

	require.Len(t, plan.Moves, 1)
	assert.Equal(t, 11, plan.Moves[0].Out.ID)
	assert.Equal(t, 200, plan.Moves[0].In.ID)
	assert.Contains(t, plan.Suggestions[0].Reasons, ReasonTargetSquadDiff)
}

func TestEvaluateSwap(t *testing.T) {
	squad := testSquad()
	in := fpl.Player{ID: 300, Role: fpl.RoleMidfielder, TeamID: 16, Price: 95, Projected: 8.0}

	plan, err := EvaluateSwap(squad, squad.Starting[8], in, nil, 30, 1, DefaultConfig())
	require.NoError(t, err)

	require.Len(t, plan.Moves, 1)
	assert.InDelta(t, 2.0, plan.Moves[0].Gain, 1e-9)
	assert.Equal(t, 30+75-95, plan.BankAfter)

	// Role mismatch and unowned outgoing player are rejected outright.
	_, err = EvaluateSwap(squad, squad.Starting[0], in, nil, 30, 1, DefaultConfig())
	assert.Error(t, err)
	_, err = EvaluateSwap(squad, fpl.Player{ID: 999, Role: fpl.RoleMidfielder}, in, nil, 30, 1, DefaultConfig())
	assert.Error(t, err)
}

func TestTrendDrop(t *testing.T) {
	assert.Zero(t, trendDrop(nil, 5))
	assert.Zero(t, trendDrop([]float64{5}, 5))
	assert.Zero(t, trendDrop([]float64{5, 6}, 5), "improving form is no signal")
	assert.InDelta(t, 0.5, trendDrop([]float64{4, 4, 4, 2}, 4), 1e-9)
	assert.InDelta(t, 1.0, trendDrop([]float64{4, 4, 0}, 3), 1e-9)
}
