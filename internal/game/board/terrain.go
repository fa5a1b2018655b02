package board

import "fmt"

// SetTileEffect replaces the active effect of the tile at p. Effects never
// stack on one tile: the last write wins.
func (b *Board) SetTileEffect(p Position, effect TileEffect) error {
	tile := b.Tile(p)
	if tile == nil {
		return fmt.Errorf("position %s out of bounds", p)
	}
	if effect.Terrain == "" {
		effect.Terrain = TerrainNone
	}
	if effect.Status == "" {
		effect.Status = StatusNormal
	}
	tile.Effect = &effect
	tile.Enabled = !effect.DisablesPlacement()
	return nil
}

// ClearTileEffect reverts the tile at p to Normal, untagged and enabled.
func (b *Board) ClearTileEffect(p Position) {
	tile := b.Tile(p)
	if tile == nil {
		return
	}
	tile.Effect = nil
	tile.Enabled = true
}

// Tick counts down every tile effect scoped to playerID (or unscoped) and
// clears those that reach zero. Permanent effects are left alone. The
// cleared positions are returned in row-major order.
func (b *Board) Tick(playerID string) []Position {
	var expired []Position
	b.Each(func(p Position, t *Tile) bool {
		e := t.Effect
		if e == nil || e.Permanent() {
			return true
		}
		if e.ScopePlayerID != "" && e.ScopePlayerID != playerID {
			return true
		}
		e.TurnsRemaining--
		if e.TurnsRemaining <= 0 {
			t.Effect = nil
			t.Enabled = true
			expired = append(expired, p)
		}
		return true
	})
	return expired
}
