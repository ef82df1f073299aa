// Package match implements the lifecycle of one game instance on an arena:
// the Waiting/Starting/Running/Ending state machine, player and team
// bookkeeping, scoring, and the resource generators feeding the economy.
package match

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/arena-labs/bedwars-engine/arena"
	"github.com/arena-labs/bedwars-engine/events"
	"github.com/arena-labs/bedwars-engine/gamestage"
	"github.com/arena-labs/bedwars-engine/log"
	"github.com/arena-labs/bedwars-engine/scheduler"
	"github.com/arena-labs/bedwars-engine/types"
	"github.com/arena-labs/bedwars-engine/upgrade"
)

var (
	ErrMatchStarted  = eris.New("match already started")
	ErrMatchFull     = eris.New("match full")
	ErrUnknownTeam   = eris.New("unknown team")
	ErrNotInMatch    = eris.New("player not in match")
	ErrWrongGameMode = eris.New("ability classes require ability mode")
)

// Config carries the tunables of a single match. All durations are whole
// seconds because every timer in the engine ticks at one-second resolution.
type Config struct {
	LobbyCountdownSeconds int
	MatchDurationSeconds  int
	RespawnDelaySeconds   int
	TeardownDelaySeconds  int
	HealIntervalSeconds   int
	ResourceExpirySeconds int
	// BaseIntervalSeconds maps a generator tier to its unmodified
	// production interval. TierTeam slots use the TierIron base.
	BaseIntervalSeconds map[types.GeneratorTier]int
	// MaxPlayerScale caps the player-count speedup bucket.
	MaxPlayerScale int
}

func DefaultConfig() Config {
	return Config{
		LobbyCountdownSeconds: 30,
		MatchDurationSeconds:  3600,
		RespawnDelaySeconds:   5,
		TeardownDelaySeconds:  10,
		HealIntervalSeconds:   10,
		ResourceExpirySeconds: 45,
		BaseIntervalSeconds: map[types.GeneratorTier]int{
			types.TierIron:    2,
			types.TierGold:    8,
			types.TierEmerald: 60,
			types.TierDiamond: 30,
		},
		MaxPlayerScale: 3,
	}
}

// Deps are the collaborators a match needs. Scheduler, World and Session
// are required; the rest default sensibly.
type Deps struct {
	Scheduler scheduler.Scheduler
	World     types.WorldMutator
	Session   types.PlayerSession
	Upgrades  upgrade.Store
	Hub       *events.Hub
	Logger    *zerolog.Logger
	Rand      *rand.Rand
	// OnRelease is invoked exactly once, after teardown has cleaned the
	// arena, so the registry can free its bindings.
	OnRelease func(*Match)
}

// Match is one running game on an arena. The arena reference is borrowed
// and read-only; the registry guarantees at most one live match per arena.
type Match struct {
	id    string
	arena *arena.Arena
	stage *gamestage.Manager

	sched     scheduler.Scheduler
	world     types.WorldMutator
	session   types.PlayerSession
	upgrades  upgrade.Store
	hub       *events.Hub
	logger    *zerolog.Logger
	onRelease func(*Match)

	rngMu sync.Mutex
	rng   *rand.Rand

	cfg Config

	mu         sync.RWMutex
	players    map[types.PlayerID]struct{}
	spectators map[types.PlayerID]struct{}
	teamOf     map[types.PlayerID]types.TeamName
	members    map[types.TeamName]map[types.PlayerID]struct{}
	bedIntact  map[types.TeamName]bool
	prefs      map[types.PlayerID]types.TeamName
	kills      map[types.PlayerID]int
	deaths     map[types.PlayerID]int
	bedBreaks  map[types.PlayerID]int
	abilities  map[types.PlayerID]types.AbilityClass
	mode       types.GameMode
	// formed flips once team rosters and match timers exist; end-of-game
	// checks are meaningless before that.
	formed bool

	countdown int
	timeLeft  int

	generators      []*ResourceGenerator
	countdownHandle scheduler.Handle
	timerHandle     scheduler.Handle
	healHandle      scheduler.Handle
	teardownHandle  scheduler.Handle
	respawnHandles  map[types.PlayerID]scheduler.Handle

	torndown sync.Once
}

// New creates a match in the Waiting stage. The arena must already have
// passed the catalog's configuration check.
func New(a *arena.Arena, deps Deps, cfg Config) *Match {
	id := fmt.Sprintf("%s@%d-%s", a.Name, time.Now().Unix(), uuid.NewString()[:8])

	logger := deps.Logger
	if logger == nil {
		logger = &zlog.Logger
	}
	logger = log.CreateMatchLogger(logger, id)

	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	store := deps.Upgrades
	if store == nil {
		store = upgrade.NewMemoryStore()
	}

	m := &Match{
		id:    id,
		arena: a,
		stage: gamestage.NewManager(),

		sched:     deps.Scheduler,
		world:     deps.World,
		session:   deps.Session,
		upgrades:  store,
		hub:       deps.Hub,
		logger:    logger,
		onRelease: deps.OnRelease,
		rng:       rng,
		cfg:       cfg,

		players:        map[types.PlayerID]struct{}{},
		spectators:     map[types.PlayerID]struct{}{},
		teamOf:         map[types.PlayerID]types.TeamName{},
		members:        map[types.TeamName]map[types.PlayerID]struct{}{},
		bedIntact:      map[types.TeamName]bool{},
		prefs:          map[types.PlayerID]types.TeamName{},
		kills:          map[types.PlayerID]int{},
		deaths:         map[types.PlayerID]int{},
		bedBreaks:      map[types.PlayerID]int{},
		abilities:      map[types.PlayerID]types.AbilityClass{},
		mode:           types.ModeNormal,
		respawnHandles: map[types.PlayerID]scheduler.Handle{},
	}
	m.logger.Info().Str("arena", a.Name).Msg("match created")
	return m
}

func (m *Match) ID() string          { return m.id }
func (m *Match) Arena() *arena.Arena { return m.arena }

func (m *Match) State() gamestage.Stage { return m.stage.Current() }

// NotifyOnState returns a channel closed once the match reaches the stage.
func (m *Match) NotifyOnState(stage gamestage.Stage) <-chan struct{} {
	return m.stage.NotifyOnStage(stage)
}

// AddPlayer admits a player to the lobby. It fails once the match is past
// Starting or when the arena is at capacity. Reaching the configured
// minimum while Waiting starts the countdown.
func (m *Match) AddPlayer(id types.PlayerID) error {
	stage := m.stage.Current()
	if stage != gamestage.Waiting && stage != gamestage.Starting {
		return ErrMatchStarted
	}

	m.mu.Lock()
	if len(m.players) >= m.arena.MaxPlayers {
		m.mu.Unlock()
		return ErrMatchFull
	}
	m.players[id] = struct{}{}
	// The stage can move between the gate above and the insert. Re-check
	// under the lock so a latecomer cannot slip past team formation and
	// ride a running match without a roster spot.
	if stage := m.stage.Current(); stage != gamestage.Waiting && stage != gamestage.Starting {
		delete(m.players, id)
		m.mu.Unlock()
		return ErrMatchStarted
	}
	count := len(m.players)
	m.mu.Unlock()

	m.resetPresentation(id)
	m.world.Teleport(id, m.arena.Lobby)
	m.Broadcast(fmt.Sprintf("%s joined the game (%d/%d)", id, count, m.arena.MaxPlayers))
	m.publish(events.KindPlayerJoined, map[string]any{"player": id, "count": count})
	m.logger.Info().Str("player", string(id)).Int("count", count).Msg("player joined")

	if m.stage.Current() == gamestage.Waiting && count >= m.arena.MinPlayers {
		m.StartCountdown()
	}
	return nil
}

// RemovePlayer drops a participant. Spectators are silently removed.
// Leaving may cancel the countdown (below minimum while Starting) or end
// the game (last member of a team while Running).
func (m *Match) RemovePlayer(id types.PlayerID) {
	m.mu.Lock()
	if _, ok := m.spectators[id]; ok {
		delete(m.spectators, id)
		m.mu.Unlock()
		return
	}
	if _, ok := m.players[id]; !ok {
		m.mu.Unlock()
		return
	}
	delete(m.players, id)
	m.detachTeamLocked(id)
	delete(m.prefs, id)
	if h, ok := m.respawnHandles[id]; ok {
		delete(m.respawnHandles, id)
		defer h.Cancel()
	}
	count := len(m.players)
	m.mu.Unlock()

	m.Broadcast(fmt.Sprintf("%s left the game (%d/%d)", id, count, m.arena.MaxPlayers))
	m.publish(events.KindPlayerLeft, map[string]any{"player": id, "count": count})
	m.resetPresentation(id)
	m.logger.Info().Str("player", string(id)).Int("count", count).Msg("player left")

	switch m.stage.Current() {
	case gamestage.Running:
		m.CheckGameEnd()
	case gamestage.Starting:
		if count < m.arena.MinPlayers {
			m.CancelCountdown()
		}
	}
}

// SelectTeam records a lobby team preference honored by the assigner at
// match start while the chosen team has room.
func (m *Match) SelectTeam(id types.PlayerID, team types.TeamName) error {
	if _, ok := m.arena.Team(team); !ok {
		return eris.Wrap(ErrUnknownTeam, string(team))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[id]; !ok {
		return ErrNotInMatch
	}
	m.prefs[id] = team
	return nil
}

// SetGameMode switches the ruleset. Only allowed before the match starts.
func (m *Match) SetGameMode(mode types.GameMode) error {
	stage := m.stage.Current()
	if stage != gamestage.Waiting && stage != gamestage.Starting {
		return ErrMatchStarted
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = mode
	return nil
}

func (m *Match) Mode() types.GameMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

// SetAbilityClass records a player's chosen special power. Only meaningful
// in ability mode.
func (m *Match) SetAbilityClass(id types.PlayerID, class types.AbilityClass) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode != types.ModeAbility {
		return ErrWrongGameMode
	}
	if _, ok := m.players[id]; !ok {
		return ErrNotInMatch
	}
	m.abilities[id] = class
	return nil
}

func (m *Match) AbilityClass(id types.PlayerID) (types.AbilityClass, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	class, ok := m.abilities[id]
	return class, ok
}

// Broadcast sends a chat line to every participant, spectators included.
func (m *Match) Broadcast(text string) {
	for _, id := range m.Participants() {
		m.session.SendMessage(id, text)
	}
}

// Players returns the active (non-spectating) participants, sorted.
func (m *Match) Players() []types.PlayerID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedIDs(m.players)
}

// Spectators returns the eliminated observers, sorted.
func (m *Match) Spectators() []types.PlayerID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedIDs(m.spectators)
}

// Participants returns players and spectators together, sorted.
func (m *Match) Participants() []types.PlayerID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make(map[types.PlayerID]struct{}, len(m.players)+len(m.spectators))
	for id := range m.players {
		all[id] = struct{}{}
	}
	for id := range m.spectators {
		all[id] = struct{}{}
	}
	return sortedIDs(all)
}

func (m *Match) PlayerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players)
}

// TeamOf returns the team a player was assigned to, if any.
func (m *Match) TeamOf(id types.PlayerID) (types.TeamName, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	team, ok := m.teamOf[id]
	return team, ok
}

// MembersOf returns a team's current members, sorted.
func (m *Match) MembersOf(team types.TeamName) []types.PlayerID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedIDs(m.members[team])
}

// TeamNames returns the arena's team names.
func (m *Match) TeamNames() []types.TeamName {
	return m.arena.TeamNames()
}

// BedIntact reports whether a team can still respawn.
func (m *Match) BedIntact(team types.TeamName) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bedIntact[team]
}

// Countdown returns the seconds until match start. Only meaningful in
// Starting.
func (m *Match) Countdown() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countdown
}

// TimeRemaining returns the seconds until the match ends in a draw. Only
// meaningful in Running.
func (m *Match) TimeRemaining() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.timeLeft
}

// Scores returns a player's kill, death and bed-break counters.
func (m *Match) Scores(id types.PlayerID) (kills, deaths, bedBreaks int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.kills[id], m.deaths[id], m.bedBreaks[id]
}

// Upgrades exposes the match's team-upgrade store so the shop surface can
// record purchases.
func (m *Match) Upgrades() upgrade.Store { return m.upgrades }

// detachTeamLocked removes a player from the team maps, keeping both sides
// of the mapping consistent. Callers hold m.mu.
func (m *Match) detachTeamLocked(id types.PlayerID) {
	team, ok := m.teamOf[id]
	if !ok {
		return
	}
	delete(m.teamOf, id)
	if members, ok := m.members[team]; ok {
		delete(members, id)
	}
}

// resetPresentation returns a player to a clean lobby state.
func (m *Match) resetPresentation(id types.PlayerID) {
	if !m.session.IsOnline(id) {
		return
	}
	m.session.ClearInventory(id)
	m.session.SetViewMode(id, types.ViewActive)
}

func (m *Match) publish(kind string, payload any) {
	if m.hub == nil {
		return
	}
	if err := m.hub.Publish(events.Event{Match: m.id, Arena: m.arena.Name, Kind: kind, Payload: payload}); err != nil {
		m.logger.Warn().Err(err).Str("kind", kind).Msg("failed to publish event")
	}
}

func (m *Match) randFloat64() float64 {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return m.rng.Float64()
}

func sortedIDs(set map[types.PlayerID]struct{}) []types.PlayerID {
	out := make([]types.PlayerID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
