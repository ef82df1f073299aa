package match

import (
	"fmt"
	"time"

	"github.com/arena-labs/bedwars-engine/events"
	"github.com/arena-labs/bedwars-engine/gamestage"
)

// StartCountdown begins the lobby countdown. A no-op unless the match is
// Waiting; concurrent triggers resolve to a single transition.
func (m *Match) StartCountdown() {
	if !m.stage.CompareAndSwap(gamestage.Waiting, gamestage.Starting) {
		return
	}
	m.mu.Lock()
	m.countdown = m.cfg.LobbyCountdownSeconds
	m.countdownHandle = m.sched.ScheduleRepeating(time.Second, m.countdownTick)
	m.mu.Unlock()

	m.logger.Info().Int("seconds", m.cfg.LobbyCountdownSeconds).Msg("countdown started")
	m.publish(events.KindCountdown, map[string]any{"seconds": m.cfg.LobbyCountdownSeconds})
}

// CancelCountdown aborts the countdown and returns the lobby to Waiting.
// A no-op unless the match is Starting.
func (m *Match) CancelCountdown() {
	if !m.stage.CompareAndSwap(gamestage.Starting, gamestage.Waiting) {
		return
	}
	m.mu.Lock()
	handle := m.countdownHandle
	m.countdownHandle = nil
	m.countdown = 0
	m.mu.Unlock()
	if handle != nil {
		handle.Cancel()
	}

	m.Broadcast("Countdown cancelled, waiting for more players")
	m.publish(events.KindCountdownAbort, nil)
	m.logger.Info().Msg("countdown cancelled")
}

func (m *Match) countdownTick() {
	if m.stage.Current() != gamestage.Starting {
		return
	}
	m.mu.Lock()
	remaining := m.countdown
	if remaining <= 0 {
		handle := m.countdownHandle
		m.countdownHandle = nil
		m.mu.Unlock()
		if handle != nil {
			handle.Cancel()
		}
		m.StartMatch()
		return
	}
	m.countdown = remaining - 1
	m.mu.Unlock()

	if remaining <= 5 || remaining%10 == 0 {
		m.Broadcast(fmt.Sprintf("Match starts in %d seconds", remaining))
	}
}
