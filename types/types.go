package types

// PlayerID identifies a connected player. The host environment assigns it
// and guarantees uniqueness across sessions.
type PlayerID string

// TeamName identifies a team within an arena.
type TeamName string

// UnitID identifies a spawned in-world resource unit.
type UnitID string

// ViewMode is the presentation mode of a participant.
type ViewMode string

const (
	ViewActive    ViewMode = "active"
	ViewSpectator ViewMode = "spectator"
)

// GameMode selects the ruleset a match runs under.
type GameMode string

const (
	ModeNormal  GameMode = "normal"
	ModeAbility GameMode = "ability" // each player gets one selectable special power
)

// AbilityClass names a player's selected special power. Only meaningful in
// ModeAbility; the effects themselves live in the host environment.
type AbilityClass string

// ResourceKind is a currency produced by generators.
type ResourceKind string

const (
	ResourceIron    ResourceKind = "iron"
	ResourceGold    ResourceKind = "gold"
	ResourceEmerald ResourceKind = "emerald"
	ResourceDiamond ResourceKind = "diamond"
)

// GeneratorTier determines a generator's base production interval and output.
type GeneratorTier string

const (
	TierIron    GeneratorTier = "iron"
	TierGold    GeneratorTier = "gold"
	TierEmerald GeneratorTier = "emerald"
	TierDiamond GeneratorTier = "diamond"
	// TierTeam is the merged team generator: it runs on the iron base
	// interval and can co-emit gold.
	TierTeam GeneratorTier = "team"
)

// Resource returns the primary resource a tier produces.
func (t GeneratorTier) Resource() ResourceKind {
	switch t {
	case TierGold:
		return ResourceGold
	case TierEmerald:
		return ResourceEmerald
	case TierDiamond:
		return ResourceDiamond
	default:
		return ResourceIron
	}
}

// UpgradeKind is a purchasable team-wide leveled modifier.
type UpgradeKind string

const (
	UpgradeForge      UpgradeKind = "forge" // production speed
	UpgradeSharpness  UpgradeKind = "sharpness"
	UpgradeProtection UpgradeKind = "protection"
	UpgradeHaste      UpgradeKind = "haste"
	UpgradeHealPool   UpgradeKind = "heal_pool"
	UpgradeTrap       UpgradeKind = "trap"
)

// Location is a point in a named world.
type Location struct {
	World string  `json:"world"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Yaw   float32 `json:"yaw"`
	Pitch float32 `json:"pitch"`
}

// ItemStack is an opaque quantity of a host-defined item. The engine never
// inspects Kind beyond passing it back to the host.
type ItemStack struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}
