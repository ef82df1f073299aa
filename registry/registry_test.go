package registry

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/arena-labs/bedwars-engine/arena"
	"github.com/arena-labs/bedwars-engine/gamestage"
	"github.com/arena-labs/bedwars-engine/match"
	"github.com/arena-labs/bedwars-engine/scheduler"
	"github.com/arena-labs/bedwars-engine/testutils"
	"github.com/arena-labs/bedwars-engine/types"
	"github.com/arena-labs/bedwars-engine/upgrade"
)

func testConfig() match.Config {
	cfg := match.DefaultConfig()
	cfg.LobbyCountdownSeconds = 3
	cfg.TeardownDelaySeconds = 1
	return cfg
}

func newRegistry(t *testing.T, arenas ...*arena.Arena) (*Registry, *scheduler.Manual) {
	t.Helper()
	catalog := arena.NewMemoryCatalog()
	for _, a := range arenas {
		assert.NilError(t, catalog.Add(a))
	}
	sched := scheduler.NewManual()
	r := New(Deps{
		Catalog:   catalog,
		Scheduler: sched,
		World:     testutils.NewFakeWorld(),
		Session:   testutils.NewFakeSession(),
		Upgrades:  upgrade.MemoryFactory(),
		Rand:      rand.New(rand.NewSource(11)),
	}, testConfig())
	return r, sched
}

func TestStartMatchBindsArena(t *testing.T) {
	r, _ := newRegistry(t, testutils.TestArena("castle").Build())

	m, err := r.StartMatch("castle")
	assert.NilError(t, err)
	assert.Equal(t, gamestage.Waiting, m.State())

	got, ok := r.MatchOn("castle")
	assert.Assert(t, ok)
	assert.Equal(t, m, got)
}

func TestStartMatchRejectsUnknownAndBusyArenas(t *testing.T) {
	r, _ := newRegistry(t, testutils.TestArena("castle").Build())

	_, err := r.StartMatch("atlantis")
	assert.ErrorIs(t, err, ErrArenaNotFound)

	_, err = r.StartMatch("castle")
	assert.NilError(t, err)
	_, err = r.StartMatch("castle")
	assert.ErrorIs(t, err, ErrArenaBusy)
}

func TestStartMatchRejectsIncompleteArena(t *testing.T) {
	broken := testutils.TestArena("halfbuilt").Build()
	broken.Teams = broken.Teams[:1]
	r, _ := newRegistry(t, broken)

	_, err := r.StartMatch("halfbuilt")
	assert.ErrorIs(t, err, ErrArenaNotConfigured)
}

func TestPlayerBoundToAtMostOneMatch(t *testing.T) {
	r, _ := newRegistry(t,
		testutils.TestArena("castle").Build(),
		testutils.TestArena("ruins").Build(),
	)
	m1, err := r.StartMatch("castle")
	assert.NilError(t, err)
	m2, err := r.StartMatch("ruins")
	assert.NilError(t, err)

	assert.NilError(t, r.AddPlayerToMatch("alice", m1))
	assert.ErrorIs(t, r.AddPlayerToMatch("alice", m2), ErrPlayerBusy)

	got, ok := r.MatchOf("alice")
	assert.Assert(t, ok)
	assert.Equal(t, m1, got)
}

func TestFailedJoinRollsBackBinding(t *testing.T) {
	r, _ := newRegistry(t, testutils.TestArena("castle").MaxPlayers(2).Build())
	m, err := r.StartMatch("castle")
	assert.NilError(t, err)

	assert.NilError(t, r.AddPlayerToMatch("p1", m))
	assert.NilError(t, r.AddPlayerToMatch("p2", m))
	assert.ErrorIs(t, r.AddPlayerToMatch("p3", m), match.ErrMatchFull)

	_, ok := r.MatchOf("p3")
	assert.Assert(t, !ok)
}

func TestRemovePlayerUnbinds(t *testing.T) {
	r, _ := newRegistry(t, testutils.TestArena("castle").Build())
	m, err := r.StartMatch("castle")
	assert.NilError(t, err)
	assert.NilError(t, r.AddPlayerToMatch("alice", m))

	r.RemovePlayerFromMatch("alice")
	_, ok := r.MatchOf("alice")
	assert.Assert(t, !ok)
	assert.Equal(t, 0, m.PlayerCount())

	// Removing an unknown player is a no-op.
	r.RemovePlayerFromMatch("bob")
}

func TestTeardownReleasesBindings(t *testing.T) {
	r, sched := newRegistry(t, testutils.TestArena("castle").Build())
	m, err := r.StartMatch("castle")
	assert.NilError(t, err)
	assert.NilError(t, r.AddPlayerToMatch("alice", m))
	assert.NilError(t, r.AddPlayerToMatch("bob", m))
	m.StartMatch()

	m.EndGame(nil)
	sched.Advance(2 * time.Second)

	_, ok := r.MatchOn("castle")
	assert.Assert(t, !ok)
	_, ok = r.MatchOf("alice")
	assert.Assert(t, !ok)

	// The arena is free again for the next game.
	_, err = r.StartMatch("castle")
	assert.NilError(t, err)
}

func TestFindOrCreateJoinablePrefersWaitingMatch(t *testing.T) {
	r, _ := newRegistry(t,
		testutils.TestArena("castle").Build(),
		testutils.TestArena("ruins").Build(),
	)
	m, err := r.StartMatch("castle")
	assert.NilError(t, err)

	got, err := r.FindOrCreateJoinable()
	assert.NilError(t, err)
	assert.Equal(t, m, got)
}

func TestFindOrCreateJoinableStartsFreshMatch(t *testing.T) {
	r, _ := newRegistry(t, testutils.TestArena("castle").Build())

	m, err := r.FindOrCreateJoinable()
	assert.NilError(t, err)
	assert.Equal(t, "castle", m.Arena().Name)

	// Fill the only match: nothing joinable remains.
	for i := 0; i < m.Arena().MaxPlayers; i++ {
		assert.NilError(t, r.AddPlayerToMatch(types.PlayerID(fmt.Sprintf("p%d", i)), m))
	}
	_, err = r.FindOrCreateJoinable()
	assert.ErrorIs(t, err, ErrNoJoinableMatch)
}

func TestShutdownTerminatesEverything(t *testing.T) {
	r, _ := newRegistry(t,
		testutils.TestArena("castle").Build(),
		testutils.TestArena("ruins").Build(),
	)
	_, err := r.StartMatch("castle")
	assert.NilError(t, err)
	_, err = r.StartMatch("ruins")
	assert.NilError(t, err)

	r.Shutdown()
	assert.Equal(t, 0, len(r.Matches()))
}
