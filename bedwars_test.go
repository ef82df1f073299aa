package bedwars

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"gotest.tools/v3/assert"

	"github.com/arena-labs/bedwars-engine/arena"
	"github.com/arena-labs/bedwars-engine/events"
	"github.com/arena-labs/bedwars-engine/gamestage"
	"github.com/arena-labs/bedwars-engine/scheduler"
	"github.com/arena-labs/bedwars-engine/testutils"
	"github.com/arena-labs/bedwars-engine/types"
)

func newTestEngine(t *testing.T) (*Engine, *scheduler.Manual) {
	t.Helper()
	t.Setenv("BEDWARS_LOBBY_COUNTDOWN_SECONDS", "3")
	t.Setenv("BEDWARS_TEARDOWN_DELAY_SECONDS", "1")

	catalog := arena.NewMemoryCatalog()
	assert.NilError(t, catalog.Add(testutils.TestArena("castle").Build()))

	sched := scheduler.NewManual()
	engine, err := NewEngine(catalog, testutils.NewFakeWorld(), testutils.NewFakeSession(),
		WithScheduler(sched))
	assert.NilError(t, err)
	t.Cleanup(engine.Shutdown)
	return engine, sched
}

func TestEngineRunsAMatchEndToEnd(t *testing.T) {
	engine, sched := newTestEngine(t)
	reg := engine.Registry()

	stream := engine.Events().Subscribe("observer", 64)

	m, err := reg.FindOrCreateJoinable()
	assert.NilError(t, err)
	running := m.NotifyOnState(gamestage.Running)
	assert.NilError(t, reg.AddPlayerToMatch("alice", m))
	assert.NilError(t, reg.AddPlayerToMatch("bob", m))
	assert.Equal(t, gamestage.Starting, m.State())

	// Ride the countdown into the match itself.
	sched.Advance(4 * time.Second)
	assert.Equal(t, gamestage.Running, m.State())
	select {
	case <-running:
	default:
		t.Fatal("running notification never fired")
	}

	var kinds []string
	deadline := time.After(2 * time.Second)
	for len(kinds) < 3 {
		select {
		case raw := <-stream:
			var ev events.Event
			assert.NilError(t, json.Unmarshal(raw, &ev))
			kinds = append(kinds, ev.Kind)
		case <-deadline:
			t.Fatalf("timed out waiting for events, got %v", kinds)
		}
	}
	assert.Equal(t, events.KindPlayerJoined, kinds[0])
	assert.Equal(t, events.KindPlayerJoined, kinds[1])
	assert.Equal(t, events.KindCountdown, kinds[2])
}

func TestEngineShutdownReleasesMatches(t *testing.T) {
	engine, _ := newTestEngine(t)
	reg := engine.Registry()

	m, err := reg.StartMatch("castle")
	assert.NilError(t, err)
	assert.NilError(t, reg.AddPlayerToMatch("alice", m))

	engine.Shutdown()
	assert.Equal(t, 0, len(reg.Matches()))
	_, bound := reg.MatchOf("alice")
	assert.Assert(t, !bound)
}

func TestEngineHonorsRedisFreeDefault(t *testing.T) {
	engine, _ := newTestEngine(t)

	// Without a Redis address the upgrade store is purely in memory.
	m, err := engine.Registry().StartMatch("castle")
	assert.NilError(t, err)
	m.Upgrades().SetLevel("red", types.UpgradeForge, 2)
	assert.Equal(t, 2, m.Upgrades().Level("red", types.UpgradeForge))
}
