package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thraizz/gridduel-server/internal/game/power"
)

func TestSetTileEffectLastWriteWins(t *testing.T) {
	b := New(4)
	p := Position{1, 2}

	require.NoError(t, b.SetTileEffect(p, TileEffect{Status: StatusCursed, TurnsRemaining: 3, Power: power.Uniform(-2)}))
	require.NoError(t, b.SetTileEffect(p, TileEffect{Status: StatusNormal, Terrain: TerrainOcean, TurnsRemaining: 2}))

	tile := b.Tile(p)
	assert.Equal(t, TerrainOcean, tile.Terrain())
	assert.Equal(t, StatusNormal, tile.Status())
	assert.True(t, tile.Effect.Power.IsZero())
	assert.True(t, tile.Enabled)

	assert.Error(t, b.SetTileEffect(Position{9, 9}, TileEffect{}))
}

func TestTickCountsDownScopedEffects(t *testing.T) {
	b := New(4)
	cursed := Position{0, 0}
	blocked := Position{1, 0}
	removed := Position{2, 0}

	require.NoError(t, b.SetTileEffect(cursed, TileEffect{Status: StatusCursed, TurnsRemaining: 3, Power: power.Uniform(-2), AppliesTo: "bob", ScopePlayerID: "alice"}))
	require.NoError(t, b.SetTileEffect(blocked, TileEffect{Status: StatusBlocked, Terrain: TerrainLava, TurnsRemaining: 1, ScopePlayerID: "bob"}))
	require.NoError(t, b.SetTileEffect(removed, TileEffect{Status: StatusRemoved}))
	assert.False(t, b.Tile(blocked).Enabled)
	assert.False(t, b.Tile(removed).Enabled)

	assert.Empty(t, b.Tick("alice"))
	assert.Equal(t, 2, b.Tile(cursed).Effect.TurnsRemaining)
	assert.Equal(t, 1, b.Tile(blocked).Effect.TurnsRemaining)

	assert.Equal(t, []Position{blocked}, b.Tick("bob"))
	assert.True(t, b.Tile(blocked).Enabled)
	assert.Equal(t, TerrainNone, b.Tile(blocked).Terrain())

	b.Tick("alice")
	assert.Equal(t, []Position{cursed}, b.Tick("alice"))
	assert.Nil(t, b.Tile(cursed).Effect)

	// removed tiles are permanent
	assert.False(t, b.Tile(removed).Enabled)
	assert.Equal(t, StatusRemoved, b.Tile(removed).Status())
}

func TestCardEffectHonoursAppliesTo(t *testing.T) {
	curse := TileEffect{Status: StatusCursed, TurnsRemaining: 3, Power: power.Uniform(-2), AppliesTo: "bob", ScopePlayerID: "alice", Source: "c1"}

	_, ok := curse.CardEffect("alice")
	assert.False(t, ok)

	effect, ok := curse.CardEffect("bob")
	require.True(t, ok)
	assert.Equal(t, "tile:cursed", effect.Name)
	assert.Equal(t, 3, effect.TurnsRemaining)
	assert.Equal(t, "alice", effect.ScopePlayerID)
	assert.Equal(t, power.Uniform(-2), effect.Power)

	ocean := TileEffect{Status: StatusNormal, Terrain: TerrainOcean, TurnsRemaining: 2}
	_, ok = ocean.CardEffect("bob")
	assert.False(t, ok, "terrain without power delta hands nothing to the card")
}
