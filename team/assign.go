// Package team holds the pure team-balancing algorithm used at match start.
package team

import (
	"math/rand"
	"time"

	"github.com/arena-labs/bedwars-engine/types"
)

// Assignment maps each assigned player to their team. Players missing from
// the map could not be placed, which only happens when every team is full.
type Assignment map[types.PlayerID]types.TeamName

// Assign distributes players across teams. Team order is shuffled for
// fairness. Players holding a valid preference for a non-full team keep it;
// everyone else is placed round-robin, probing past full teams. rng may be
// nil, in which case a time-seeded source is used.
func Assign(
	players []types.PlayerID,
	teams []types.TeamName,
	capacity int,
	prefs map[types.PlayerID]types.TeamName,
	rng *rand.Rand,
) Assignment {
	out := Assignment{}
	if len(teams) == 0 || capacity <= 0 {
		return out
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	order := make([]types.TeamName, len(teams))
	copy(order, teams)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	valid := map[types.TeamName]bool{}
	for _, t := range order {
		valid[t] = true
	}
	counts := map[types.TeamName]int{}

	// First pass: honor valid preferences while the team has room.
	var unassigned []types.PlayerID
	for _, p := range players {
		want, ok := prefs[p]
		if ok && valid[want] && counts[want] < capacity {
			out[p] = want
			counts[want]++
			continue
		}
		unassigned = append(unassigned, p)
	}

	// Second pass: round-robin, skipping full teams.
	cursor := 0
	for _, p := range unassigned {
		placed := false
		for probe := 0; probe < len(order); probe++ {
			t := order[(cursor+probe)%len(order)]
			if counts[t] >= capacity {
				continue
			}
			out[p] = t
			counts[t]++
			cursor = (cursor + probe + 1) % len(order)
			placed = true
			break
		}
		if !placed {
			// Every team is simultaneously full. The arena capacity
			// invariant makes this unreachable for a legal lobby.
			break
		}
	}
	return out
}
