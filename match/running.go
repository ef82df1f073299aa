package match

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/arena-labs/bedwars-engine/events"
	"github.com/arena-labs/bedwars-engine/gamestage"
	"github.com/arena-labs/bedwars-engine/log"
	"github.com/arena-labs/bedwars-engine/statsd"
	"github.com/arena-labs/bedwars-engine/team"
	"github.com/arena-labs/bedwars-engine/types"
)

// starterKit is the gear every player spawns with.
var starterKit = []types.ItemStack{
	{Kind: "wooden_sword", Count: 1},
	{Kind: "leather_armor", Count: 1},
}

func abilityKit(class types.AbilityClass) []types.ItemStack {
	return []types.ItemStack{{Kind: "ability_" + string(class), Count: 1}}
}

// StartMatch moves the match from Starting to Running: it prepares the
// arena, forms teams, equips players, spins up the generators and starts
// the match clock. A no-op unless the match is Starting; the compare and
// swap guarantees exactly one caller performs the transition, so a forced
// admin start cannot race the countdown reaching zero. End-of-game checks
// stay dormant until the rosters and timers are fully in place, so a
// player leaving mid-setup cannot end the match against empty rosters.
func (m *Match) StartMatch() {
	if !m.stage.CompareAndSwap(gamestage.Starting, gamestage.Running) {
		return
	}
	start := time.Now()

	m.mu.Lock()
	countdownHandle := m.countdownHandle
	m.countdownHandle = nil
	m.mu.Unlock()
	if countdownHandle != nil {
		countdownHandle.Cancel()
	}

	// Arena preparation.
	m.world.ClearStrayEffects(m.arena.World)
	m.world.RemoveTransientEntities(m.arena.World)
	m.world.SetAmbientRegeneration(m.arena.World, false)
	for _, t := range m.arena.Teams {
		if err := m.world.PlaceBed(m.arena.World, t.Name, t.Bed); err != nil {
			m.logger.Warn().Err(err).Str("team", string(t.Name)).Msg("failed to place bed")
		}
	}

	// Team formation.
	m.mu.Lock()
	players := sortedIDs(m.players)
	prefs := make(map[types.PlayerID]types.TeamName, len(m.prefs))
	for id, want := range m.prefs {
		prefs[id] = want
	}
	m.mu.Unlock()

	m.rngMu.Lock()
	assignment := team.Assign(players, m.arena.TeamNames(), m.arena.TeamCapacity, prefs, m.rng)
	m.rngMu.Unlock()

	m.mu.Lock()
	for _, t := range m.arena.Teams {
		m.members[t.Name] = map[types.PlayerID]struct{}{}
		m.bedIntact[t.Name] = true
	}
	for id, teamName := range assignment {
		// Whoever left while the arena was being prepared stays off
		// the rosters.
		if _, ok := m.players[id]; !ok {
			continue
		}
		m.teamOf[id] = teamName
		m.members[teamName][id] = struct{}{}
	}
	m.timeLeft = m.cfg.MatchDurationSeconds
	mode := m.mode
	m.mu.Unlock()

	// A fresh match always starts with a clean upgrade slate.
	m.upgrades.ResetAll()

	// Spawn and equip.
	for _, id := range players {
		teamName, ok := m.TeamOf(id)
		if !ok {
			continue
		}
		t, ok := m.arena.Team(teamName)
		if !ok {
			continue
		}
		m.world.Teleport(id, t.Spawn)
		m.session.ClearInventory(id)
		m.session.GrantItems(id, starterKit)
		if mode == types.ModeAbility {
			if class, ok := m.AbilityClass(id); ok {
				m.session.GrantItems(id, abilityKit(class))
			}
		}
	}

	// Economy.
	generators := make([]*ResourceGenerator, 0, len(m.arena.Slots))
	for _, slot := range m.arena.Slots {
		gen := m.startGenerator(slot)
		if gen != nil {
			generators = append(generators, gen)
		}
	}

	m.mu.Lock()
	m.generators = generators
	m.timerHandle = m.sched.ScheduleRepeating(time.Second, m.matchTick)
	m.healHandle = m.sched.ScheduleRepeating(time.Duration(m.cfg.HealIntervalSeconds)*time.Second, m.healTick)
	m.formed = true
	m.mu.Unlock()

	// A forced end may have raced the setup; its cancel pass ran before
	// the timers above existed.
	if m.stage.Current() != gamestage.Running {
		m.cancelTimers()
		return
	}

	m.Broadcast("The match has started. Protect your bed!")
	log.Teams(m.logger, m, zerolog.DebugLevel)
	m.publish(events.KindMatchStarted, map[string]any{"teams": assignment})
	statsd.EmitCount("matches.started", 1, []string{"arena:" + m.arena.Name})
	statsd.EmitTickStat(start, "match_start")
	m.logger.Info().Int("players", len(players)).Int("generators", len(generators)).Msg("match started")

	// Settle any departures that landed while the rosters were forming.
	m.CheckGameEnd()
}

// matchTick runs once per second while Running. Reaching zero ends the
// match in a draw.
func (m *Match) matchTick() {
	if m.stage.Current() != gamestage.Running {
		return
	}
	start := time.Now()

	m.mu.Lock()
	m.timeLeft--
	remaining := m.timeLeft
	m.mu.Unlock()

	if remaining <= 0 {
		m.EndGame(nil)
		return
	}
	if remaining%60 == 0 {
		m.Broadcast(fmt.Sprintf("%d minutes remaining", remaining/60))
	}
	statsd.EmitTickStat(start, "match")
}

// healTick slowly regenerates every active player.
func (m *Match) healTick() {
	if m.stage.Current() != gamestage.Running {
		return
	}
	for _, id := range m.Players() {
		if m.session.IsOnline(id) {
			m.session.Heal(id, 1)
		}
	}
}

// scheduleRespawn queues a player's return to their team spawn.
func (m *Match) scheduleRespawn(id types.PlayerID) {
	handle := m.sched.Schedule(time.Duration(m.cfg.RespawnDelaySeconds)*time.Second, func() {
		m.respawn(id)
	})
	m.mu.Lock()
	if old, ok := m.respawnHandles[id]; ok {
		defer old.Cancel()
	}
	m.respawnHandles[id] = handle
	m.mu.Unlock()
}

func (m *Match) respawn(id types.PlayerID) {
	if m.stage.Current() != gamestage.Running {
		return
	}
	m.mu.Lock()
	delete(m.respawnHandles, id)
	if _, ok := m.players[id]; !ok {
		m.mu.Unlock()
		return
	}
	teamName, ok := m.teamOf[id]
	m.mu.Unlock()
	if !ok {
		return
	}
	t, ok := m.arena.Team(teamName)
	if !ok {
		return
	}

	m.world.Teleport(id, t.Spawn)
	m.session.RestoreKit(id)
	// Dying costs one tool tier; everything else comes back.
	m.session.DowngradeTools(id)
	m.session.ApplyUpgradeEffects(id, teamName)
	m.logger.Debug().Str("player", string(id)).Str("team", string(teamName)).Msg("player respawned")
}
