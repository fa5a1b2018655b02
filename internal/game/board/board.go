// Package board models the square grid the duel is played on.
//
// Every scan over the board is row-major: y ascending, then x ascending.
// Trigger enumeration relies on this order, so it is part of the contract.
package board

import (
	"fmt"

	"github.com/thraizz/gridduel-server/internal/game/card"
	"github.com/thraizz/gridduel-server/internal/game/power"
)

// DefaultSize is the board size used by the product.
const DefaultSize = 4

// Position addresses a tile; Y is the row, and Y-1 is the row above.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Step returns the position one tile towards side.
func (p Position) Step(side power.Side) Position {
	switch side {
	case power.SideTop:
		return Position{X: p.X, Y: p.Y - 1}
	case power.SideRight:
		return Position{X: p.X + 1, Y: p.Y}
	case power.SideBottom:
		return Position{X: p.X, Y: p.Y + 1}
	default:
		return Position{X: p.X - 1, Y: p.Y}
	}
}

// Neighbor is an in-bounds orthogonal neighbour and the side it lies on.
type Neighbor struct {
	Side     power.Side
	Position Position
}

// Occupant is a card together with where it stands.
type Occupant struct {
	Position Position
	Card     *card.Instance
}

// Board is a Size×Size grid stored as Tiles[y][x].
type Board struct {
	Size  int      `json:"size"`
	Tiles [][]Tile `json:"tiles"`
}

// New creates an empty board with every tile enabled.
func New(size int) *Board {
	if size <= 0 {
		size = DefaultSize
	}
	tiles := make([][]Tile, size)
	for y := range tiles {
		tiles[y] = make([]Tile, size)
		for x := range tiles[y] {
			tiles[y][x] = Tile{Enabled: true}
		}
	}
	return &Board{Size: size, Tiles: tiles}
}

// InBounds reports whether p lies on the board.
func (b *Board) InBounds(p Position) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < b.Size && p.Y < b.Size
}

// Tile returns the tile at p, or nil when p is off the board.
func (b *Board) Tile(p Position) *Tile {
	if !b.InBounds(p) {
		return nil
	}
	return &b.Tiles[p.Y][p.X]
}

// CardAt returns the card at p, if any.
func (b *Board) CardAt(p Position) *card.Instance {
	if tile := b.Tile(p); tile != nil {
		return tile.Card
	}
	return nil
}

// Place puts c on the tile at p.
func (b *Board) Place(p Position, c *card.Instance) error {
	tile := b.Tile(p)
	if tile == nil {
		return fmt.Errorf("position %s out of bounds", p)
	}
	if !tile.Empty() {
		return fmt.Errorf("position %s occupied by %s", p, tile.Card.InstanceID)
	}
	tile.Card = c
	return nil
}

// Remove takes the card off the tile at p and returns it.
func (b *Board) Remove(p Position) *card.Instance {
	tile := b.Tile(p)
	if tile == nil {
		return nil
	}
	c := tile.Card
	tile.Card = nil
	return c
}

// Find locates a card by instance id.
func (b *Board) Find(instanceID string) (Position, bool) {
	for _, occ := range b.Cards() {
		if occ.Card.InstanceID == instanceID {
			return occ.Position, true
		}
	}
	return Position{}, false
}

// Adjacent returns the orthogonal neighbours of p clipped at the edges, in
// the order Top, Right, Bottom, Left. There is no wraparound.
func (b *Board) Adjacent(p Position) []Neighbor {
	out := make([]Neighbor, 0, 4)
	for _, side := range power.Sides {
		next := p.Step(side)
		if b.InBounds(next) {
			out = append(out, Neighbor{Side: side, Position: next})
		}
	}
	return out
}

// AdjacentPositions is Adjacent without the side information.
func (b *Board) AdjacentPositions(p Position) []Position {
	neighbors := b.Adjacent(p)
	out := make([]Position, len(neighbors))
	for i, n := range neighbors {
		out[i] = n.Position
	}
	return out
}

// CardsInRow scans the full row of p. When excludeOwner is set only cards
// NOT owned by that player are returned.
func (b *Board) CardsInRow(p Position, excludeOwner string) []Occupant {
	var out []Occupant
	for x := 0; x < b.Size; x++ {
		out = appendOccupant(out, b, Position{X: x, Y: p.Y}, excludeOwner)
	}
	return out
}

// CardsInColumn scans the full column of p, filtered like CardsInRow.
func (b *Board) CardsInColumn(p Position, excludeOwner string) []Occupant {
	var out []Occupant
	for y := 0; y < b.Size; y++ {
		out = appendOccupant(out, b, Position{X: p.X, Y: y}, excludeOwner)
	}
	return out
}

func appendOccupant(out []Occupant, b *Board, p Position, excludeOwner string) []Occupant {
	c := b.CardAt(p)
	if c == nil || (excludeOwner != "" && c.Owner == excludeOwner) {
		return out
	}
	return append(out, Occupant{Position: p, Card: c})
}

// IsEdge reports whether p touches the border.
func (b *Board) IsEdge(p Position) bool {
	return b.InBounds(p) && (p.X == 0 || p.Y == 0 || p.X == b.Size-1 || p.Y == b.Size-1)
}

// IsCorner reports whether p is one of the four corners.
func (b *Board) IsCorner(p Position) bool {
	return b.InBounds(p) && (p.X == 0 || p.X == b.Size-1) && (p.Y == 0 || p.Y == b.Size-1)
}

// Each visits every tile in row-major order until fn returns false.
func (b *Board) Each(fn func(Position, *Tile) bool) {
	for y := 0; y < b.Size; y++ {
		for x := 0; x < b.Size; x++ {
			if !fn(Position{X: x, Y: y}, &b.Tiles[y][x]) {
				return
			}
		}
	}
}

// Cards lists every placed card in row-major order.
func (b *Board) Cards() []Occupant {
	var out []Occupant
	b.Each(func(p Position, t *Tile) bool {
		if t.Card != nil {
			out = append(out, Occupant{Position: p, Card: t.Card})
		}
		return true
	})
	return out
}

// PlaceableTiles lists empty, enabled tiles in row-major order.
func (b *Board) PlaceableTiles() []Position {
	var out []Position
	b.Each(func(p Position, t *Tile) bool {
		if t.Placeable() {
			out = append(out, p)
		}
		return true
	})
	return out
}

// Full reports whether no tile accepts a card any more.
func (b *Board) Full() bool {
	full := true
	b.Each(func(_ Position, t *Tile) bool {
		if t.Placeable() {
			full = false
			return false
		}
		return true
	})
	return full
}

// CountOwned counts the tiles whose card is owned by owner.
func (b *Board) CountOwned(owner string) int {
	n := 0
	for _, occ := range b.Cards() {
		if occ.Card.Owner == owner {
			n++
		}
	}
	return n
}

// PowerOwned sums the ratings of the owner's board cards.
func (b *Board) PowerOwned(owner string) int {
	total := 0
	for _, occ := range b.Cards() {
		if occ.Card.Owner == owner {
			total += occ.Card.Rating()
		}
	}
	return total
}

// Clone returns a deep copy including the cards.
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	out := &Board{Size: b.Size, Tiles: make([][]Tile, len(b.Tiles))}
	for y, row := range b.Tiles {
		out.Tiles[y] = make([]Tile, len(row))
		for x, tile := range row {
			out.Tiles[y][x] = tile.clone()
		}
	}
	return out
}
