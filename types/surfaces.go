package types

// WorldMutator is the host surface through which the engine touches the
// game world. Implementations are expected to tolerate calls for worlds or
// entities that no longer exist.
type WorldMutator interface {
	// PlaceBed places (or re-places) a team's bed block at the given location.
	PlaceBed(world string, team TeamName, loc Location) error
	// ClearStrayEffects removes lingering visual effects from the world.
	ClearStrayEffects(world string)
	// RemoveTransientEntities removes leftover dropped items and other
	// short-lived entities from prior matches.
	RemoveTransientEntities(world string)
	// SpawnResourceUnit drops one resource unit at the location and returns
	// a handle for later removal.
	SpawnResourceUnit(loc Location, kind ResourceKind) (UnitID, error)
	// RemoveResourceUnit despawns a resource unit. A no-op if the unit was
	// already claimed or removed.
	RemoveResourceUnit(id UnitID)
	Teleport(player PlayerID, loc Location)
	SetAmbientRegeneration(world string, enabled bool)
	// UpdateGeneratorDisplay refreshes the visual countdown above a
	// generator slot.
	UpdateGeneratorDisplay(slotID string, secondsLeft int)
	// ClearGeneratorDisplay removes a slot's visual countdown.
	ClearGeneratorDisplay(slotID string)
	// RevertPlacedBlocks restores every block the current match placed.
	RevertPlacedBlocks(world string)
}

// PlayerSession is the host surface for talking to individual players.
type PlayerSession interface {
	SendMessage(id PlayerID, text string)
	GrantItems(id PlayerID, items []ItemStack)
	ClearInventory(id PlayerID)
	SetViewMode(id PlayerID, mode ViewMode)
	IsOnline(id PlayerID) bool
	// Heal restores the given amount of health, clamped to the player's
	// maximum by the host.
	Heal(id PlayerID, amount int)
	// DrainResources removes and returns the player's countable resource
	// holdings (generator currency), leaving the rest of the inventory.
	DrainResources(id PlayerID) []ItemStack
	// DowngradeTools steps every tiered tool down one tier
	// (diamond -> iron -> stone -> wood, wood is the floor).
	DowngradeTools(id PlayerID)
	// ApplyUpgradeEffects re-applies the team's purchased upgrade effects.
	ApplyUpgradeEffects(id PlayerID, team TeamName)
	// RestoreKit re-grants previously acquired permanent equipment.
	RestoreKit(id PlayerID)
}
