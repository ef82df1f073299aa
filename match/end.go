package match

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/arena-labs/bedwars-engine/events"
	"github.com/arena-labs/bedwars-engine/gamestage"
	"github.com/arena-labs/bedwars-engine/scheduler"
	"github.com/arena-labs/bedwars-engine/statsd"
	"github.com/arena-labs/bedwars-engine/types"
)

// EndGame finishes the match with the given winner, or a draw when winner
// is nil. Idempotent: once the match is Ending further calls are no-ops,
// so exactly one teardown sequence and one winner announcement happen.
func (m *Match) EndGame(winner *types.TeamName) {
	if m.stage.Swap(gamestage.Ending) == gamestage.Ending {
		return
	}

	m.cancelTimers()

	if winner != nil {
		m.Broadcast(fmt.Sprintf("Team %s wins!", *winner))
	} else {
		m.Broadcast("The match ended in a draw")
	}
	m.Broadcast(m.statsSummary())

	for _, id := range m.Players() {
		if m.session.IsOnline(id) {
			m.session.SetViewMode(id, types.ViewSpectator)
		}
	}

	var payload map[string]any
	if winner != nil {
		payload = map[string]any{"winner": *winner}
	}
	m.publish(events.KindMatchEnded, payload)
	statsd.EmitCount("matches.ended", 1, []string{"arena:" + m.arena.Name})

	m.mu.Lock()
	m.teardownHandle = m.sched.Schedule(time.Duration(m.cfg.TeardownDelaySeconds)*time.Second, m.teardown)
	m.mu.Unlock()

	event := m.logger.Info()
	if winner != nil {
		event = event.Str("winner", string(*winner))
	}
	event.Msg("match ended")
}

// Terminate force-ends the match and runs teardown immediately instead of
// after the post-game delay. Used by the registry for forced shutdown.
func (m *Match) Terminate() {
	m.EndGame(nil)
	m.mu.Lock()
	handle := m.teardownHandle
	m.teardownHandle = nil
	m.mu.Unlock()
	if handle != nil {
		handle.Cancel()
	}
	m.teardown()
}

// cancelTimers cancels every outstanding timer exactly once: countdown,
// match clock, heal tick, pending respawns and all generators. After it
// returns no further tick will mutate the match.
func (m *Match) cancelTimers() {
	m.mu.Lock()
	handles := make([]scheduler.Handle, 0, 3+len(m.respawnHandles))
	for _, h := range []scheduler.Handle{m.countdownHandle, m.timerHandle, m.healHandle} {
		if h != nil {
			handles = append(handles, h)
		}
	}
	m.countdownHandle, m.timerHandle, m.healHandle = nil, nil, nil
	for id, h := range m.respawnHandles {
		handles = append(handles, h)
		delete(m.respawnHandles, id)
	}
	generators := m.generators
	m.generators = nil
	m.mu.Unlock()

	for _, h := range handles {
		h.Cancel()
	}
	for _, gen := range generators {
		gen.stop()
	}
}

// teardown runs once: it thanks the participants, cleans the arena and
// hands the match back to the registry.
func (m *Match) teardown() {
	m.torndown.Do(func() {
		// The aggregate stats already went out with the winner
		// announcement; the parting line is all that's left here.
		for _, id := range m.Participants() {
			if m.session.IsOnline(id) {
				m.session.SendMessage(id, "Thanks for playing!")
			}
		}
		m.Cleanup()
		if m.onRelease != nil {
			m.onRelease(m)
		}
		m.logger.Info().Msg("match released")
	})
}

// Cleanup restores the arena for the next match and empties every mutable
// collection. Safe to call after EndGame on any path.
func (m *Match) Cleanup() {
	m.world.RevertPlacedBlocks(m.arena.World)
	m.world.ClearStrayEffects(m.arena.World)
	m.world.RemoveTransientEntities(m.arena.World)
	m.world.SetAmbientRegeneration(m.arena.World, true)

	participants := m.Participants()

	m.mu.Lock()
	m.players = map[types.PlayerID]struct{}{}
	m.spectators = map[types.PlayerID]struct{}{}
	m.teamOf = map[types.PlayerID]types.TeamName{}
	m.members = map[types.TeamName]map[types.PlayerID]struct{}{}
	m.bedIntact = map[types.TeamName]bool{}
	m.prefs = map[types.PlayerID]types.TeamName{}
	m.kills = map[types.PlayerID]int{}
	m.deaths = map[types.PlayerID]int{}
	m.bedBreaks = map[types.PlayerID]int{}
	m.abilities = map[types.PlayerID]types.AbilityClass{}
	m.countdown = 0
	m.timeLeft = 0
	m.formed = false
	m.mu.Unlock()

	for _, id := range participants {
		if m.session.IsOnline(id) {
			m.session.ClearInventory(id)
			m.session.SetViewMode(id, types.ViewActive)
			m.world.Teleport(id, m.arena.Lobby)
		}
	}

	m.upgrades.ResetAll()
	// Beds go back up so the arena is ready for the next match.
	for _, t := range m.arena.Teams {
		if err := m.world.PlaceBed(m.arena.World, t.Name, t.Bed); err != nil {
			m.logger.Warn().Err(err).Str("team", string(t.Name)).Msg("failed to re-place bed")
		}
	}
	m.logger.Info().Msg("arena cleaned")
}

// statsSummary renders the end-of-match scoreboard as a single chat line
// per category.
func (m *Match) statsSummary() string {
	m.mu.RLock()
	type row struct {
		id                       types.PlayerID
		kills, deaths, bedBreaks int
	}
	seen := map[types.PlayerID]struct{}{}
	for id := range m.kills {
		seen[id] = struct{}{}
	}
	for id := range m.deaths {
		seen[id] = struct{}{}
	}
	for id := range m.bedBreaks {
		seen[id] = struct{}{}
	}
	rows := make([]row, 0, len(seen))
	for id := range seen {
		rows = append(rows, row{id, m.kills[id], m.deaths[id], m.bedBreaks[id]})
	}
	m.mu.RUnlock()

	if len(rows) == 0 {
		return "No stats recorded"
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].kills != rows[j].kills {
			return rows[i].kills > rows[j].kills
		}
		return rows[i].id < rows[j].id
	})

	var b strings.Builder
	b.WriteString("Match stats:")
	for _, r := range rows {
		fmt.Fprintf(&b, " %s %dK/%dD/%dB", r.id, r.kills, r.deaths, r.bedBreaks)
	}
	return b.String()
}
