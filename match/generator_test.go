package match

import (
	"errors"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/arena-labs/bedwars-engine/types"
)

func generatorConfig() Config {
	cfg := testConfig()
	cfg.BaseIntervalSeconds[types.TierIron] = 5
	return cfg
}

// redGen finds the running generator on red's base slot.
func redGen(t *testing.T, f *fixture) *ResourceGenerator {
	t.Helper()
	f.m.mu.RLock()
	defer f.m.mu.RUnlock()
	for _, gen := range f.m.generators {
		if gen.Slot().Owner == "red" {
			return gen
		}
	}
	t.Fatal("no generator on red's slot")
	return nil
}

func unitsAt(f *fixture, x float64, kind types.ResourceKind) int {
	n := 0
	for _, u := range f.world.SpawnedUnits {
		if u.Loc.X == x && u.Kind == kind {
			n++
		}
	}
	return n
}

func TestIntervalShrinksWithForgeAndLobbySize(t *testing.T) {
	f := newFixture(t, generatorConfig())
	f.run(t, 4) // lobby of four: one second of player speedup
	gen := redGen(t, f)

	assert.Equal(t, 4, gen.Interval())

	f.m.Upgrades().SetLevel("red", types.UpgradeForge, 2)
	assert.Equal(t, 2, gen.Interval())

	// The floor is one second no matter how deep the upgrades go.
	f.m.Upgrades().SetLevel("red", types.UpgradeForge, 10)
	assert.Equal(t, 1, gen.Interval())
}

func TestSharedSlotsTakeNoForgeBonus(t *testing.T) {
	f := newFixture(t, generatorConfig())
	f.run(t, 4)
	f.m.Upgrades().SetLevel("red", types.UpgradeForge, 2)

	f.m.mu.RLock()
	generators := append([]*ResourceGenerator(nil), f.m.generators...)
	f.m.mu.RUnlock()
	for _, gen := range generators {
		if gen.Slot().Tier == types.TierEmerald {
			assert.Equal(t, 59, gen.Interval())
		}
	}
}

func TestPlayerScaleBuckets(t *testing.T) {
	assert.Equal(t, 1, playerScale(2, 3))
	assert.Equal(t, 2, playerScale(3, 3))
	assert.Equal(t, 2, playerScale(8, 3))
	assert.Equal(t, 3, playerScale(9, 3))
	// The configured cap wins over the bucket.
	assert.Equal(t, 2, playerScale(9, 2))
}

func TestEmissionCadenceFollowsInterval(t *testing.T) {
	f := newFixture(t, generatorConfig())
	f.run(t, 4)
	// Forge two: guaranteed gold alongside every iron, interval two.
	f.m.Upgrades().SetLevel("red", types.UpgradeForge, 2)

	// The first cycle still runs on the pre-upgrade interval of four
	// seconds; the recomputed two-second interval applies from then on.
	f.sched.Advance(8 * time.Second)

	assert.Equal(t, 3, unitsAt(f, -52, types.ResourceIron))
	assert.Equal(t, 3, unitsAt(f, -52, types.ResourceGold))
}

func TestGeneratorDisplayCountsDown(t *testing.T) {
	f := newFixture(t, generatorConfig())
	f.run(t, 4)
	gen := redGen(t, f)

	f.sched.Advance(time.Second)
	assert.Equal(t, 3, f.world.Displays[gen.Slot().ID])
	f.sched.Advance(time.Second)
	assert.Equal(t, 2, f.world.Displays[gen.Slot().ID])
}

func TestUnclaimedUnitsExpire(t *testing.T) {
	f := newFixture(t, generatorConfig())
	f.run(t, 4)

	// First team emission lands at four seconds; expiry four seconds later.
	f.sched.Advance(9 * time.Second)
	assert.Assert(t, len(f.world.RemovedUnits) >= 1)
	assert.Equal(t, f.world.SpawnedUnits[0].ID, f.world.RemovedUnits[0])
}

func TestSpawnFailureDoesNotStopProduction(t *testing.T) {
	f := newFixture(t, generatorConfig())
	f.run(t, 4)
	f.world.FailSpawns(errors.New("chunk not loaded"))

	f.sched.Advance(10 * time.Second)
	assert.Equal(t, 0, len(f.world.SpawnedUnits))

	// Once the world recovers the generator picks right back up.
	f.world.FailSpawns(nil)
	f.sched.Advance(4 * time.Second)
	assert.Assert(t, len(f.world.SpawnedUnits) > 0)
}

func TestStopClearsDisplays(t *testing.T) {
	f := newFixture(t, generatorConfig())
	f.run(t, 4)
	gen := redGen(t, f)

	f.m.Terminate()
	cleared := false
	for _, id := range f.world.ClearedDisplays {
		if id == gen.Slot().ID {
			cleared = true
		}
	}
	assert.Assert(t, cleared)

	spawned := len(f.world.SpawnedUnits)
	f.sched.Advance(time.Minute)
	assert.Equal(t, spawned, len(f.world.SpawnedUnits))
}
