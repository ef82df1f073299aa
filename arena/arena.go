package arena

import (
	"github.com/arena-labs/bedwars-engine/types"
)

// Team is a team definition inside an arena: a name, a display color, a
// spawn point and a bed location.
type Team struct {
	Name  types.TeamName
	Color string
	Spawn types.Location
	Bed   types.Location
}

// GeneratorSlot is a fixed point that produces resource units during a
// match. Owner is empty for shared mid-map slots.
type GeneratorSlot struct {
	ID       string
	Tier     types.GeneratorTier
	Owner    types.TeamName
	Location types.Location
}

// Arena is a static, reusable map configuration. A match borrows a
// reference for its lifetime and must never mutate it.
type Arena struct {
	Name           string
	World          string
	Teams          []Team
	Lobby          types.Location
	SpectatorSpawn types.Location
	Slots          []GeneratorSlot
	MinPlayers     int
	MaxPlayers     int
	TeamCapacity   int
}

// Team looks up a team definition by name.
func (a *Arena) Team(name types.TeamName) (Team, bool) {
	for _, t := range a.Teams {
		if t.Name == name {
			return t, true
		}
	}
	return Team{}, false
}

// TeamNames returns the team names in definition order.
func (a *Arena) TeamNames() []types.TeamName {
	names := make([]types.TeamName, 0, len(a.Teams))
	for _, t := range a.Teams {
		names = append(names, t.Name)
	}
	return names
}
