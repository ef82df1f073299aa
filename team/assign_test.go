package team

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"

	"github.com/arena-labs/bedwars-engine/types"
)

func rng(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func players(n int) []types.PlayerID {
	out := make([]types.PlayerID, n)
	for i := range out {
		out[i] = types.PlayerID(fmt.Sprintf("player-%d", i))
	}
	return out
}

func TestEveryPlayerAssignedWithinCapacity(t *testing.T) {
	teams := []types.TeamName{"red", "blue", "green", "yellow"}
	for seed := int64(0); seed < 20; seed++ {
		got := Assign(players(8), teams, 2, nil, rng(seed))
		assert.Equal(t, 8, len(got), "seed %d: every player must be placed", seed)

		counts := map[types.TeamName]int{}
		for _, team := range got {
			counts[team]++
		}
		for team, n := range counts {
			assert.Check(t, n <= 2, "seed %d: team %s over capacity (%d)", seed, team, n)
		}
	}
}

func TestRoundRobinBalances(t *testing.T) {
	teams := []types.TeamName{"red", "blue"}
	got := Assign(players(6), teams, 4, nil, rng(1))

	counts := map[types.TeamName]int{}
	for _, team := range got {
		counts[team]++
	}
	assert.Equal(t, 3, counts["red"])
	assert.Equal(t, 3, counts["blue"])
}

func TestValidPreferencesAreKept(t *testing.T) {
	teams := []types.TeamName{"red", "blue"}
	ps := players(4)
	prefs := map[types.PlayerID]types.TeamName{
		ps[0]: "blue",
		ps[1]: "blue",
	}
	got := Assign(ps, teams, 2, prefs, rng(7))
	want := Assignment{
		ps[0]: "blue",
		ps[1]: "blue",
		ps[2]: "red",
		ps[3]: "red",
	}
	assert.Assert(t, cmp.Diff(want, got) == "", cmp.Diff(want, got))
}

func TestPreferenceForFullTeamFallsBack(t *testing.T) {
	teams := []types.TeamName{"red", "blue"}
	ps := players(3)
	prefs := map[types.PlayerID]types.TeamName{
		ps[0]: "blue",
		ps[1]: "blue",
		ps[2]: "blue",
	}
	got := Assign(ps, teams, 2, prefs, rng(3))
	counts := map[types.TeamName]int{}
	for _, team := range got {
		counts[team]++
	}
	assert.Equal(t, 2, counts["blue"], "blue takes its capacity of preferring players")
	assert.Equal(t, 1, counts["red"], "overflow lands on the other team")
}

func TestPreferenceForUnknownTeamIgnored(t *testing.T) {
	teams := []types.TeamName{"red", "blue"}
	ps := players(2)
	prefs := map[types.PlayerID]types.TeamName{ps[0]: "purple"}
	got := Assign(ps, teams, 1, prefs, rng(5))
	assert.Equal(t, 2, len(got))
	assert.Check(t, got[ps[0]] == "red" || got[ps[0]] == "blue")
}

func TestOverfullLobbyLeavesRemainderUnassigned(t *testing.T) {
	teams := []types.TeamName{"red", "blue"}
	got := Assign(players(5), teams, 2, nil, rng(11))
	assert.Equal(t, 4, len(got), "only capacity x teams players can be placed")
}

func TestNoTeamsOrZeroCapacity(t *testing.T) {
	assert.Equal(t, 0, len(Assign(players(3), nil, 2, nil, rng(1))))
	assert.Equal(t, 0, len(Assign(players(3), []types.TeamName{"red"}, 0, nil, rng(1))))
}
