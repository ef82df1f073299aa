// Package upgrade tracks purchased team-wide upgrade levels for one match.
// Purchases come from outside the engine (the shop surface); the match only
// reads levels and wipes them at match start and teardown.
package upgrade

import (
	"sync"

	"github.com/arena-labs/bedwars-engine/types"
)

// Store is a per-match, per-team, per-upgrade level store. Level 0 means
// the upgrade has not been purchased.
type Store interface {
	Level(team types.TeamName, kind types.UpgradeKind) int
	SetLevel(team types.TeamName, kind types.UpgradeKind, level int)
	ResetAll()
}

// Factory builds the Store a new match will use, keyed by match identity.
type Factory func(matchID string) Store

// MemoryFactory returns a Factory producing in-process stores. This is the
// default for single-instance deployments.
func MemoryFactory() Factory {
	return func(string) Store { return NewMemoryStore() }
}

// MemoryStore is a mutex-guarded in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	levels map[types.TeamName]map[types.UpgradeKind]int
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{levels: map[types.TeamName]map[types.UpgradeKind]int{}}
}

func (s *MemoryStore) Level(team types.TeamName, kind types.UpgradeKind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.levels[team][kind]
}

func (s *MemoryStore) SetLevel(team types.TeamName, kind types.UpgradeKind, level int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byKind, ok := s.levels[team]
	if !ok {
		byKind = map[types.UpgradeKind]int{}
		s.levels[team] = byKind
	}
	byKind[kind] = level
}

func (s *MemoryStore) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels = map[types.TeamName]map[types.UpgradeKind]int{}
}
