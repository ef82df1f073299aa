// Package registry coordinates every live match on the engine: at most one
// match per arena and at most one match per player.
package registry

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/arena-labs/bedwars-engine/arena"
	"github.com/arena-labs/bedwars-engine/events"
	"github.com/arena-labs/bedwars-engine/gamestage"
	"github.com/arena-labs/bedwars-engine/match"
	"github.com/arena-labs/bedwars-engine/scheduler"
	"github.com/arena-labs/bedwars-engine/statsd"
	"github.com/arena-labs/bedwars-engine/types"
	"github.com/arena-labs/bedwars-engine/upgrade"
)

var (
	ErrArenaNotFound      = eris.New("arena not found")
	ErrArenaNotConfigured = eris.New("arena not configured")
	ErrArenaBusy          = eris.New("arena already has a live match")
	ErrPlayerBusy         = eris.New("player already in a match")
	ErrNoJoinableMatch    = eris.New("no joinable match available")
)

// Deps are the collaborators handed to every match the registry creates.
type Deps struct {
	Catalog   arena.Catalog
	Scheduler scheduler.Scheduler
	World     types.WorldMutator
	Session   types.PlayerSession
	Upgrades  upgrade.Factory
	Hub       *events.Hub
	Logger    *zerolog.Logger
	Rand      *rand.Rand
}

// Registry owns the arena-to-match and player-to-match bindings. All access
// goes through its methods; both maps share one mutex so composite updates
// are atomic.
type Registry struct {
	deps Deps
	cfg  match.Config

	mu       sync.Mutex
	byArena  map[string]*match.Match
	byPlayer map[types.PlayerID]*match.Match
	rng      *rand.Rand
}

func New(deps Deps, cfg match.Config) *Registry {
	if deps.Logger == nil {
		deps.Logger = &zlog.Logger
	}
	if deps.Upgrades == nil {
		deps.Upgrades = upgrade.MemoryFactory()
	}
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Registry{
		deps:     deps,
		cfg:      cfg,
		byArena:  map[string]*match.Match{},
		byPlayer: map[types.PlayerID]*match.Match{},
		rng:      rng,
	}
}

// StartMatch creates a match on the named arena. It fails when the arena
// is unknown, incompletely configured, or already hosting a match.
func (r *Registry) StartMatch(arenaName string) (*match.Match, error) {
	a, ok := r.deps.Catalog.Get(arenaName)
	if !ok {
		return nil, eris.Wrap(ErrArenaNotFound, arenaName)
	}
	if !r.deps.Catalog.IsConfigured(a) {
		return nil, eris.Wrap(ErrArenaNotConfigured, arenaName)
	}

	r.mu.Lock()
	if _, busy := r.byArena[arenaName]; busy {
		r.mu.Unlock()
		return nil, eris.Wrap(ErrArenaBusy, arenaName)
	}
	m := r.newMatch(a)
	r.byArena[arenaName] = m
	live := len(r.byArena)
	r.mu.Unlock()

	statsd.EmitGauge("matches.live", float64(live), nil)
	r.deps.Logger.Info().Str("arena", arenaName).Str("match", m.ID()).Msg("match registered")
	return m, nil
}

func (r *Registry) newMatch(a *arena.Arena) *match.Match {
	// The upgrade store is namespaced per match instance so two games on
	// the same arena, back to back, never see each other's levels.
	storeKey := a.Name + "-" + uuid.NewString()[:8]
	return match.New(a, match.Deps{
		Scheduler: r.deps.Scheduler,
		World:     r.deps.World,
		Session:   r.deps.Session,
		Upgrades:  r.deps.Upgrades(storeKey),
		Hub:       r.deps.Hub,
		Logger:    r.deps.Logger,
		OnRelease: r.release,
	}, r.cfg)
}

// EndMatch force-ends a match, tearing it down immediately. The bindings
// are released through the match's own teardown path.
func (r *Registry) EndMatch(m *match.Match) {
	m.Terminate()
}

// release frees the bindings of a torn-down match. Invoked by the match
// itself, exactly once, after cleanup.
func (r *Registry) release(m *match.Match) {
	r.mu.Lock()
	if current, ok := r.byArena[m.Arena().Name]; ok && current == m {
		delete(r.byArena, m.Arena().Name)
	}
	for id, bound := range r.byPlayer {
		if bound == m {
			delete(r.byPlayer, id)
		}
	}
	live := len(r.byArena)
	r.mu.Unlock()

	statsd.EmitGauge("matches.live", float64(live), nil)
	r.deps.Logger.Info().Str("match", m.ID()).Msg("match bindings released")
}

// AddPlayerToMatch binds a player to a match and admits them. A player can
// be in at most one match.
func (r *Registry) AddPlayerToMatch(id types.PlayerID, m *match.Match) error {
	r.mu.Lock()
	if _, bound := r.byPlayer[id]; bound {
		r.mu.Unlock()
		return eris.Wrap(ErrPlayerBusy, string(id))
	}
	// Reserve the binding before delegating so a concurrent join of the
	// same player cannot slip in while the match admits this one.
	r.byPlayer[id] = m
	r.mu.Unlock()

	if err := m.AddPlayer(id); err != nil {
		r.mu.Lock()
		delete(r.byPlayer, id)
		r.mu.Unlock()
		return err
	}
	return nil
}

// RemovePlayerFromMatch unbinds a player and removes them from their match.
// Unknown players are a no-op.
func (r *Registry) RemovePlayerFromMatch(id types.PlayerID) {
	r.mu.Lock()
	m, ok := r.byPlayer[id]
	delete(r.byPlayer, id)
	r.mu.Unlock()

	if ok {
		m.RemovePlayer(id)
	}
}

// MatchOf returns the match a player is currently bound to.
func (r *Registry) MatchOf(id types.PlayerID) (*match.Match, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byPlayer[id]
	return m, ok
}

// MatchOn returns the live match on an arena, if any.
func (r *Registry) MatchOn(arenaName string) (*match.Match, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byArena[arenaName]
	return m, ok
}

// Matches returns a snapshot of every live match.
func (r *Registry) Matches() []*match.Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*match.Match, 0, len(r.byArena))
	for _, m := range r.byArena {
		out = append(out, m)
	}
	return out
}

// FindOrCreateJoinable picks a random waiting match with free capacity, or
// starts a fresh match on a random configured idle arena.
func (r *Registry) FindOrCreateJoinable() (*match.Match, error) {
	r.mu.Lock()
	var waiting []*match.Match
	for _, m := range r.byArena {
		if m.State() == gamestage.Waiting && m.PlayerCount() < m.Arena().MaxPlayers {
			waiting = append(waiting, m)
		}
	}
	var pick *match.Match
	if len(waiting) > 0 {
		pick = waiting[r.rng.Intn(len(waiting))]
	}
	r.mu.Unlock()
	if pick != nil {
		return pick, nil
	}

	names := r.deps.Catalog.Names()
	r.mu.Lock()
	r.rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })
	r.mu.Unlock()

	for _, name := range names {
		m, err := r.StartMatch(name)
		if err == nil {
			return m, nil
		}
		if !eris.Is(err, ErrArenaBusy) && !eris.Is(err, ErrArenaNotConfigured) {
			return nil, err
		}
	}
	return nil, ErrNoJoinableMatch
}

// Shutdown force-ends every live match. Used when the engine is going
// down.
func (r *Registry) Shutdown() {
	for _, m := range r.Matches() {
		r.EndMatch(m)
	}
}
