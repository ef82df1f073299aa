package match

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/arena-labs/bedwars-engine/arena"
	"github.com/arena-labs/bedwars-engine/gamestage"
	"github.com/arena-labs/bedwars-engine/log"
	"github.com/arena-labs/bedwars-engine/scheduler"
	"github.com/arena-labs/bedwars-engine/statsd"
	"github.com/arena-labs/bedwars-engine/types"
)

// ResourceGenerator produces resource units at one generator slot while
// its match is Running. The production interval shrinks with the team's
// forge level and with lobby size, never below one second.
type ResourceGenerator struct {
	slot   arena.GeneratorSlot
	match  *Match
	logger *zerolog.Logger

	mu        sync.Mutex
	remaining int
	handle    scheduler.Handle
	expiries  map[types.UnitID]scheduler.Handle
}

// startGenerator spins up one generator. A slot whose location has no
// resolvable world is skipped with a warning; the rest of the match is
// unaffected.
func (m *Match) startGenerator(slot arena.GeneratorSlot) *ResourceGenerator {
	if slot.Location.World == "" {
		m.logger.Warn().Str("slot", slot.ID).Msg("generator slot has no world; skipping")
		return nil
	}
	gen := &ResourceGenerator{
		slot:     slot,
		match:    m,
		logger:   log.CreateGeneratorLogger(m.logger, slot.ID),
		expiries: map[types.UnitID]scheduler.Handle{},
	}
	gen.remaining = gen.Interval()
	gen.handle = m.sched.ScheduleRepeating(time.Second, gen.tick)
	gen.logger.Debug().Str("tier", string(slot.Tier)).Int("interval", gen.remaining).Msg("generator started")
	return gen
}

// Interval computes the current production interval in seconds:
// base(tier) minus the forge level, minus the player-count speedup,
// floored at one second. Shared mid-map slots have no owning team and take
// no forge bonus.
func (g *ResourceGenerator) Interval() int {
	tier := g.slot.Tier
	if tier == types.TierTeam {
		// The merged team generator runs on the fastest base.
		tier = types.TierIron
	}
	interval := g.match.cfg.BaseIntervalSeconds[tier]

	if g.slot.Owner != "" {
		interval -= g.match.upgrades.Level(g.slot.Owner, types.UpgradeForge)
	}
	interval -= playerScale(g.match.PlayerCount(), g.match.cfg.MaxPlayerScale) - 1

	if interval < 1 {
		interval = 1
	}
	return interval
}

// playerScale buckets the lobby size into a speedup factor: 1 for duels,
// growing with lobby size up to the configured cap. The generator interval
// shrinks by scale-1 seconds.
func playerScale(players, maxScale int) int {
	var scale int
	switch {
	case players <= 2:
		scale = 1
	case players <= 8:
		scale = 2
	default:
		scale = 3
	}
	if maxScale > 0 && scale > maxScale {
		scale = maxScale
	}
	return scale
}

// tick runs once per second while the owning match is Running.
func (g *ResourceGenerator) tick() {
	if g.match.stage.Current() != gamestage.Running {
		return
	}

	g.mu.Lock()
	g.remaining--
	if g.remaining > 0 {
		remaining := g.remaining
		g.mu.Unlock()
		g.match.world.UpdateGeneratorDisplay(g.slot.ID, remaining)
		return
	}
	g.mu.Unlock()

	g.emit()

	interval := g.Interval()
	g.mu.Lock()
	g.remaining = interval
	g.mu.Unlock()
	g.match.world.UpdateGeneratorDisplay(g.slot.ID, interval)
}

// emit produces one unit. Team generators always yield their base resource
// and may co-emit gold: guaranteed from forge level 2, a 25% roll below.
func (g *ResourceGenerator) emit() {
	g.spawnUnit(g.slot.Tier.Resource())
	if g.slot.Tier != types.TierTeam {
		return
	}
	level := 0
	if g.slot.Owner != "" {
		level = g.match.upgrades.Level(g.slot.Owner, types.UpgradeForge)
	}
	if level >= 2 || g.match.randFloat64() < 0.25 {
		g.spawnUnit(types.ResourceGold)
	}
}

func (g *ResourceGenerator) spawnUnit(kind types.ResourceKind) {
	unitID, err := g.match.world.SpawnResourceUnit(g.slot.Location, kind)
	if err != nil {
		g.logger.Warn().Err(err).Str("kind", string(kind)).Msg("failed to spawn resource unit")
		return
	}
	statsd.EmitCount("resources.emitted", 1, []string{"kind:" + string(kind)})

	// Unclaimed units despawn after a while so arenas don't silt up.
	expiry := time.Duration(g.match.cfg.ResourceExpirySeconds) * time.Second
	g.mu.Lock()
	g.expiries[unitID] = g.match.sched.Schedule(expiry, func() {
		g.mu.Lock()
		delete(g.expiries, unitID)
		g.mu.Unlock()
		g.match.world.RemoveResourceUnit(unitID)
	})
	g.mu.Unlock()
}

// stop halts production and removes the slot's visuals. Pending expiry
// tasks are cancelled; cleanup sweeps any units still on the ground.
func (g *ResourceGenerator) stop() {
	g.mu.Lock()
	handle := g.handle
	g.handle = nil
	expiries := g.expiries
	g.expiries = map[types.UnitID]scheduler.Handle{}
	g.mu.Unlock()

	if handle != nil {
		handle.Cancel()
	}
	for _, h := range expiries {
		h.Cancel()
	}
	g.match.world.ClearGeneratorDisplay(g.slot.ID)
	g.logger.Debug().Msg("generator stopped")
}

// Slot returns the generator's static slot definition.
func (g *ResourceGenerator) Slot() arena.GeneratorSlot { return g.slot }
