package arena

import (
	"sync"

	"github.com/rotisserie/eris"

	"github.com/arena-labs/bedwars-engine/types"
)

var (
	ErrArenaExists   = eris.New("arena already exists")
	ErrDuplicateTeam = eris.New("team already exists")
)

// Catalog is the read-only arena store the engine draws from. It is owned
// by the host environment; how arenas are persisted is not the engine's
// concern.
type Catalog interface {
	Get(name string) (*Arena, bool)
	Names() []string
	// IsConfigured reports whether an arena is complete enough to host a
	// match: every team has a spawn and a bed, lobby and spectator spawns
	// are set, every basic generator tier is present, and the teams can
	// absorb a full lobby.
	IsConfigured(a *Arena) bool
}

// MemoryCatalog is a Catalog backed by an in-process map.
type MemoryCatalog struct {
	mu     sync.RWMutex
	arenas map[string]*Arena
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{arenas: map[string]*Arena{}}
}

// Add registers an arena. It fails if the name is taken or the arena
// declares the same team twice.
func (c *MemoryCatalog) Add(a *Arena) error {
	seen := map[types.TeamName]struct{}{}
	for _, t := range a.Teams {
		if _, dup := seen[t.Name]; dup {
			return eris.Wrap(ErrDuplicateTeam, string(t.Name))
		}
		seen[t.Name] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.arenas[a.Name]; ok {
		return eris.Wrap(ErrArenaExists, a.Name)
	}
	c.arenas[a.Name] = a
	return nil
}

func (c *MemoryCatalog) Get(name string) (*Arena, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.arenas[name]
	return a, ok
}

func (c *MemoryCatalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.arenas))
	for name := range c.arenas {
		names = append(names, name)
	}
	return names
}

func (c *MemoryCatalog) IsConfigured(a *Arena) bool {
	if a == nil || a.World == "" {
		return false
	}
	if len(a.Teams) < 2 {
		return false
	}
	for _, t := range a.Teams {
		if t.Spawn == (types.Location{}) || t.Bed == (types.Location{}) {
			return false
		}
	}
	if a.Lobby == (types.Location{}) || a.SpectatorSpawn == (types.Location{}) {
		return false
	}
	if a.MinPlayers < 2 || a.MaxPlayers < a.MinPlayers {
		return false
	}
	// Capacity invariant: the teams must be able to absorb a full lobby,
	// otherwise the assigner could leave players without a team.
	if a.TeamCapacity*len(a.Teams) < a.MaxPlayers {
		return false
	}

	haveTier := map[types.GeneratorTier]bool{}
	for _, slot := range a.Slots {
		if slot.Tier == types.TierTeam {
			// A team generator covers both of its merged outputs.
			haveTier[types.TierIron] = true
			haveTier[types.TierGold] = true
			continue
		}
		haveTier[slot.Tier] = true
	}
	// Diamond is optional.
	return haveTier[types.TierIron] && haveTier[types.TierGold] && haveTier[types.TierEmerald]
}
