package board

import (
	"github.com/thraizz/gridduel-server/internal/game/card"
	"github.com/thraizz/gridduel-server/internal/game/effects"
	"github.com/thraizz/gridduel-server/internal/game/power"
)

// Status of a tile.
type Status string

const (
	StatusNormal  Status = "normal"
	StatusBlocked Status = "blocked"
	StatusCursed  Status = "cursed"
	StatusBoosted Status = "boosted"
	StatusRemoved Status = "removed"
)

// Terrain tag of a tile.
type Terrain string

const (
	TerrainNone  Terrain = "none"
	TerrainOcean Terrain = "ocean"
	TerrainLava  Terrain = "lava"
)

// EffectPrefix names the temporary effects a tile hands to the card on it.
const EffectPrefix = "tile:"

// TileEffect is the active status/terrain of one tile. A zero
// TurnsRemaining never expires.
type TileEffect struct {
	Status         Status       `json:"status"`
	Terrain        Terrain      `json:"terrain"`
	TurnsRemaining int          `json:"turnsRemaining"`
	Power          power.Vector `json:"powerDelta"`
	AppliesTo      string       `json:"appliesTo,omitempty"`
	ScopePlayerID  string       `json:"scopePlayerId,omitempty"`
	Source         string       `json:"source,omitempty"`
}

// Permanent reports whether the effect never counts down.
func (e TileEffect) Permanent() bool {
	return e.TurnsRemaining <= 0
}

// DisablesPlacement reports whether cards may not be placed on the tile.
func (e TileEffect) DisablesPlacement() bool {
	return e.Status == StatusBlocked || e.Status == StatusRemoved
}

// AppliesToOwner reports whether the power delta hits cards of owner.
func (e TileEffect) AppliesToOwner(owner string) bool {
	return e.AppliesTo == "" || e.AppliesTo == owner
}

// CardEffect converts the tile's power delta into the temporary effect that
// a card entering the tile receives. The card keeps it for as long as the
// tile effect has left, with the same scope.
func (e TileEffect) CardEffect(owner string) (effects.Effect, bool) {
	if e.Power.IsZero() || !e.AppliesToOwner(owner) {
		return effects.Effect{}, false
	}
	name := EffectPrefix + string(e.Status)
	if e.Permanent() {
		return effects.Permanent(name, e.Power, e.Source), true
	}
	return effects.ForTurns(name, e.Power, e.TurnsRemaining, e.ScopePlayerID, e.Source), true
}

// Tile is one cell of the board.
type Tile struct {
	Card    *card.Instance `json:"card"`
	Enabled bool           `json:"enabled"`
	Effect  *TileEffect    `json:"effect,omitempty"`
}

// Empty reports whether no card occupies the tile.
func (t *Tile) Empty() bool {
	return t.Card == nil
}

// Placeable reports whether a card may be placed on the tile.
func (t *Tile) Placeable() bool {
	return t.Empty() && t.Enabled
}

// Terrain returns the tile's terrain tag.
func (t *Tile) Terrain() Terrain {
	if t.Effect == nil || t.Effect.Terrain == "" {
		return TerrainNone
	}
	return t.Effect.Terrain
}

// Status returns the tile's status.
func (t *Tile) Status() Status {
	if t.Effect == nil {
		return StatusNormal
	}
	return t.Effect.Status
}

func (t Tile) clone() Tile {
	out := Tile{Enabled: t.Enabled, Card: t.Card.Clone()}
	if t.Effect != nil {
		effect := *t.Effect
		out.Effect = &effect
	}
	return out
}
