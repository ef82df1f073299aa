package match

import (
	"fmt"

	"github.com/arena-labs/bedwars-engine/events"
	"github.com/arena-labs/bedwars-engine/gamestage"
	"github.com/arena-labs/bedwars-engine/statsd"
	"github.com/arena-labs/bedwars-engine/types"
)

// HandlePlayerElimination processes a death. killer may be empty when the
// victim died without an attacker (fall, void). With an intact bed the
// victim respawns after the configured delay; without one they become a
// spectator and the end condition is re-evaluated. The victim's resource
// holdings move to a valid killer, otherwise they are discarded - never
// dropped into the world.
func (m *Match) HandlePlayerElimination(victim, killer types.PlayerID) {
	if m.stage.Current() != gamestage.Running {
		return
	}

	m.mu.Lock()
	if _, ok := m.players[victim]; !ok {
		m.mu.Unlock()
		return
	}
	m.deaths[victim]++
	_, killerInMatch := m.players[killer]
	validKiller := killer != "" && killer != victim && killerInMatch
	if validKiller {
		m.kills[killer]++
	}
	victimTeam := m.teamOf[victim]
	bedGone := !m.bedIntact[victimTeam]
	m.mu.Unlock()

	loot := m.session.DrainResources(victim)
	if validKiller && len(loot) > 0 {
		m.session.GrantItems(killer, loot)
	}

	m.publish(events.KindElimination, map[string]any{
		"victim": victim,
		"killer": killer,
		"final":  bedGone,
	})

	if bedGone {
		m.Broadcast(fmt.Sprintf("%s was eliminated", victim))
		m.makeSpectator(victim)
		m.CheckGameEnd()
		return
	}
	if validKiller {
		m.Broadcast(fmt.Sprintf("%s was killed by %s", victim, killer))
	} else {
		m.Broadcast(fmt.Sprintf("%s died", victim))
	}
	m.scheduleRespawn(victim)
}

// HandleBedBreak destroys a team's bed. Ignored when the bed is already
// gone; the flag never reverts for the rest of the match.
func (m *Match) HandleBedBreak(teamName types.TeamName, breaker types.PlayerID) {
	if m.stage.Current() != gamestage.Running {
		return
	}

	m.mu.Lock()
	if !m.bedIntact[teamName] {
		m.mu.Unlock()
		return
	}
	m.bedIntact[teamName] = false
	if _, ok := m.players[breaker]; ok {
		m.bedBreaks[breaker]++
	}
	affected := sortedIDs(m.members[teamName])
	m.mu.Unlock()

	m.Broadcast(fmt.Sprintf("%s's bed was destroyed by %s!", teamName, breaker))
	for _, id := range affected {
		m.session.SendMessage(id, "Your bed is gone! You will no longer respawn.")
	}
	m.publish(events.KindBedBroken, map[string]any{"team": teamName, "breaker": breaker})
	statsd.EmitCount("beds.broken", 1, []string{"arena:" + m.arena.Name})
	m.logger.Info().Str("team", string(teamName)).Str("breaker", string(breaker)).Msg("bed destroyed")
}

// CheckGameEnd ends the game once at most one team still has members.
// A no-op unless Running with formed rosters; before team formation
// finishes there is nothing to judge.
func (m *Match) CheckGameEnd() {
	if m.stage.Current() != gamestage.Running {
		return
	}

	m.mu.RLock()
	if !m.formed {
		m.mu.RUnlock()
		return
	}
	var alive []types.TeamName
	for teamName, members := range m.members {
		if len(members) > 0 {
			alive = append(alive, teamName)
		}
	}
	m.mu.RUnlock()

	switch len(alive) {
	case 0:
		m.EndGame(nil)
	case 1:
		winner := alive[0]
		m.EndGame(&winner)
	}
}

// makeSpectator moves a player out of the active game into observer view.
func (m *Match) makeSpectator(id types.PlayerID) {
	m.mu.Lock()
	if _, ok := m.players[id]; !ok {
		m.mu.Unlock()
		return
	}
	delete(m.players, id)
	m.detachTeamLocked(id)
	m.spectators[id] = struct{}{}
	m.mu.Unlock()

	if m.session.IsOnline(id) {
		m.session.SetViewMode(id, types.ViewSpectator)
		m.world.Teleport(id, m.arena.SpectatorSpawn)
	}
}
