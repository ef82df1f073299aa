// Package testutils holds in-memory fakes for the host surfaces so the
// engine can be exercised without a game server behind it.
package testutils

import (
	"fmt"
	"sync"

	"github.com/arena-labs/bedwars-engine/arena"
	"github.com/arena-labs/bedwars-engine/types"
)

var (
	_ types.WorldMutator  = (*FakeWorld)(nil)
	_ types.PlayerSession = (*FakeSession)(nil)
)

// FakeWorld records every world mutation. Safe for concurrent use.
type FakeWorld struct {
	mu sync.Mutex

	Beds            map[types.TeamName]types.Location
	Teleports       map[types.PlayerID][]types.Location
	SpawnedUnits    []SpawnedUnit
	RemovedUnits    []types.UnitID
	Displays        map[string]int
	ClearedDisplays []string
	EffectClears    int
	EntityClears    int
	BlockReverts    int
	Regeneration    map[string]bool

	// BedHook, when set, runs after each bed placement, outside the
	// fake's lock. Tests use it to interleave roster changes with the
	// arena preparation phase of a match start.
	BedHook func(team types.TeamName)

	nextUnit int
	spawnErr error
}

type SpawnedUnit struct {
	ID   types.UnitID
	Kind types.ResourceKind
	Loc  types.Location
}

func NewFakeWorld() *FakeWorld {
	return &FakeWorld{
		Beds:         map[types.TeamName]types.Location{},
		Teleports:    map[types.PlayerID][]types.Location{},
		Displays:     map[string]int{},
		Regeneration: map[string]bool{},
	}
}

// FailSpawns makes every subsequent SpawnResourceUnit return err.
func (w *FakeWorld) FailSpawns(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.spawnErr = err
}

func (w *FakeWorld) PlaceBed(world string, team types.TeamName, loc types.Location) error {
	w.mu.Lock()
	w.Beds[team] = loc
	hook := w.BedHook
	w.mu.Unlock()
	if hook != nil {
		hook(team)
	}
	return nil
}

func (w *FakeWorld) ClearStrayEffects(world string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.EffectClears++
}

func (w *FakeWorld) RemoveTransientEntities(world string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.EntityClears++
}

func (w *FakeWorld) SpawnResourceUnit(loc types.Location, kind types.ResourceKind) (types.UnitID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.spawnErr != nil {
		return "", w.spawnErr
	}
	w.nextUnit++
	id := types.UnitID(fmt.Sprintf("unit-%d", w.nextUnit))
	w.SpawnedUnits = append(w.SpawnedUnits, SpawnedUnit{ID: id, Kind: kind, Loc: loc})
	return id, nil
}

func (w *FakeWorld) RemoveResourceUnit(id types.UnitID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.RemovedUnits = append(w.RemovedUnits, id)
}

func (w *FakeWorld) Teleport(player types.PlayerID, loc types.Location) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Teleports[player] = append(w.Teleports[player], loc)
}

func (w *FakeWorld) SetAmbientRegeneration(world string, enabled bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Regeneration[world] = enabled
}

func (w *FakeWorld) UpdateGeneratorDisplay(slotID string, secondsLeft int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Displays[slotID] = secondsLeft
}

func (w *FakeWorld) ClearGeneratorDisplay(slotID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.Displays, slotID)
	w.ClearedDisplays = append(w.ClearedDisplays, slotID)
}

func (w *FakeWorld) RevertPlacedBlocks(world string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.BlockReverts++
}

// Spawned returns how many units of the given kind have been spawned.
func (w *FakeWorld) Spawned(kind types.ResourceKind) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, u := range w.SpawnedUnits {
		if u.Kind == kind {
			n++
		}
	}
	return n
}

// LastTeleport returns the most recent teleport destination for a player.
func (w *FakeWorld) LastTeleport(player types.PlayerID) (types.Location, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	locs := w.Teleports[player]
	if len(locs) == 0 {
		return types.Location{}, false
	}
	return locs[len(locs)-1], true
}

// FakeSession records every per-player interaction. Players are online by
// default; use SetOffline to simulate disconnects.
type FakeSession struct {
	mu sync.Mutex

	Messages    map[types.PlayerID][]string
	Items       map[types.PlayerID][]types.ItemStack
	ViewModes   map[types.PlayerID]types.ViewMode
	Heals       map[types.PlayerID]int
	Downgrades  map[types.PlayerID]int
	KitRestores map[types.PlayerID]int
	Inventories map[types.PlayerID][]types.ItemStack

	offline map[types.PlayerID]bool
}

func NewFakeSession() *FakeSession {
	return &FakeSession{
		Messages:    map[types.PlayerID][]string{},
		Items:       map[types.PlayerID][]types.ItemStack{},
		ViewModes:   map[types.PlayerID]types.ViewMode{},
		Heals:       map[types.PlayerID]int{},
		Downgrades:  map[types.PlayerID]int{},
		KitRestores: map[types.PlayerID]int{},
		Inventories: map[types.PlayerID][]types.ItemStack{},
		offline:     map[types.PlayerID]bool{},
	}
}

func (s *FakeSession) SetOffline(id types.PlayerID, off bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline[id] = off
}

// Hold sets the countable resources the player is carrying, returned by the
// next DrainResources call.
func (s *FakeSession) Hold(id types.PlayerID, items ...types.ItemStack) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Inventories[id] = items
}

func (s *FakeSession) SendMessage(id types.PlayerID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages[id] = append(s.Messages[id], text)
}

func (s *FakeSession) GrantItems(id types.PlayerID, items []types.ItemStack) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Items[id] = append(s.Items[id], items...)
}

func (s *FakeSession) ClearInventory(id types.PlayerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Items[id] = nil
	s.Inventories[id] = nil
}

func (s *FakeSession) SetViewMode(id types.PlayerID, mode types.ViewMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ViewModes[id] = mode
}

func (s *FakeSession) IsOnline(id types.PlayerID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.offline[id]
}

func (s *FakeSession) Heal(id types.PlayerID, amount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Heals[id] += amount
}

func (s *FakeSession) DrainResources(id types.PlayerID) []types.ItemStack {
	s.mu.Lock()
	defer s.mu.Unlock()
	held := s.Inventories[id]
	s.Inventories[id] = nil
	return held
}

func (s *FakeSession) DowngradeTools(id types.PlayerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Downgrades[id]++
}

func (s *FakeSession) ApplyUpgradeEffects(id types.PlayerID, team types.TeamName) {}

func (s *FakeSession) RestoreKit(id types.PlayerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.KitRestores[id]++
}

// MessagesFor returns a copy of the messages sent to a player.
func (s *FakeSession) MessagesFor(id types.PlayerID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.Messages[id]))
	copy(out, s.Messages[id])
	return out
}

// ItemsFor returns a copy of the items granted to a player.
func (s *FakeSession) ItemsFor(id types.PlayerID) []types.ItemStack {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.ItemStack, len(s.Items[id]))
	copy(out, s.Items[id])
	return out
}

// ViewModeOf returns the player's current view mode, defaulting to active.
func (s *FakeSession) ViewModeOf(id types.PlayerID) types.ViewMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mode, ok := s.ViewModes[id]; ok {
		return mode
	}
	return types.ViewActive
}

// TestArena builds a fully configured two-team arena suitable for most
// tests: capacity four per team, minimum two players, an iron and a gold
// slot per base plus a shared emerald slot.
func TestArena(name string) *FakeArenaBuilder {
	return &FakeArenaBuilder{name: name, teamCapacity: 4, minPlayers: 2, maxPlayers: 8}
}

// FakeArenaBuilder assembles arena fixtures without repeating location
// boilerplate in every test.
type FakeArenaBuilder struct {
	name         string
	teamCapacity int
	minPlayers   int
	maxPlayers   int
}

func (b *FakeArenaBuilder) MinPlayers(n int) *FakeArenaBuilder { b.minPlayers = n; return b }
func (b *FakeArenaBuilder) MaxPlayers(n int) *FakeArenaBuilder { b.maxPlayers = n; return b }
func (b *FakeArenaBuilder) TeamCapacity(n int) *FakeArenaBuilder {
	b.teamCapacity = n
	return b
}

func (b *FakeArenaBuilder) Build() *arena.Arena {
	at := func(x float64) types.Location {
		return types.Location{World: b.name, X: x, Y: 64, Z: 0}
	}
	return &arena.Arena{
		Name:  b.name,
		World: b.name,
		Teams: []arena.Team{
			{Name: "red", Color: "red", Spawn: at(-50), Bed: at(-55)},
			{Name: "blue", Color: "blue", Spawn: at(50), Bed: at(55)},
		},
		Lobby:          types.Location{World: "lobby", Y: 100},
		SpectatorSpawn: types.Location{World: b.name, Y: 120},
		Slots: []arena.GeneratorSlot{
			{ID: b.name + "-red-base", Tier: types.TierTeam, Owner: "red", Location: at(-52)},
			{ID: b.name + "-blue-base", Tier: types.TierTeam, Owner: "blue", Location: at(52)},
			{ID: b.name + "-mid-emerald", Tier: types.TierEmerald, Location: at(0)},
			{ID: b.name + "-mid-diamond", Tier: types.TierDiamond, Location: at(10)},
		},
		MinPlayers:   b.minPlayers,
		MaxPlayers:   b.maxPlayers,
		TeamCapacity: b.teamCapacity,
	}
}
