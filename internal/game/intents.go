package game

import (
	"fmt"
	"strconv"

	"github.com/thraizz/gridduel-server/internal/game/board"
	"github.com/thraizz/gridduel-server/internal/game/card"
	"github.com/thraizz/gridduel-server/internal/game/effects"
	"github.com/thraizz/gridduel-server/internal/game/power"
	"github.com/thraizz/gridduel-server/internal/game/rules"
)

// Intent is a state change requested by an ability. Handlers return intents;
// only the engine applies them. Intents that refer to a card that has since
// left the relevant zone are dropped.
type Intent interface {
	apply(r *resolution, src source) *rules.Rejection
}

// Buff adds a power delta to a card. Turns > 0 makes it temporary; the
// effect then counts down at the end of Scope's turns (the target's owner
// when empty). Same-named effects coalesce unless Stack is set.
type Buff struct {
	Target string
	Delta  power.Vector
	Turns  int
	Name   string
	Stack  bool
	Scope  string
}

func (b Buff) apply(r *resolution, src source) *rules.Rejection {
	c, zone, pos := r.state.Locate(b.Target)
	if c == nil || (zone != ZoneBoard && zone != ZoneHand) || b.Delta.IsZero() {
		return nil
	}
	name := b.Name
	if name == "" {
		name = fmt.Sprintf("%s:%s", src.ability, src.id())
	}
	var effect effects.Effect
	if b.Turns > 0 {
		scope := b.Scope
		if scope == "" {
			scope = c.Owner
		}
		effect = effects.ForTurns(name, b.Delta, b.Turns, scope, src.id())
	} else {
		effect = effects.Permanent(name, b.Delta, src.id())
	}

	var delta power.Vector
	if b.Stack {
		delta = c.StackEffect(effect)
	} else {
		delta = c.ApplyEffect(effect)
	}
	r.emitPowerChange(c, pos, delta, src, name)
	return nil
}

// SetTile replaces the effect of a tile. Scope and Source default to the
// acting card's owner and id.
type SetTile struct {
	Position board.Position
	Effect   board.TileEffect
}

func (s SetTile) apply(r *resolution, src source) *rules.Rejection {
	if !r.state.Board.InBounds(s.Position) {
		return nil
	}
	effect := s.Effect
	if effect.ScopePlayerID == "" {
		effect.ScopePlayerID = src.owner()
	}
	if effect.Source == "" {
		effect.Source = src.id()
	}
	if err := r.state.Board.SetTileEffect(s.Position, effect); err != nil {
		return rules.NewRejection(rules.CodeInvariantViolation, err.Error())
	}
	r.emitTile(s.Position, src)
	if occupant := r.state.Board.CardAt(s.Position); occupant != nil {
		r.retile(occupant, s.Position, src)
	}
	return nil
}

// ClearTile reverts a tile to normal.
type ClearTile struct {
	Position board.Position
}

func (c ClearTile) apply(r *resolution, src source) *rules.Rejection {
	tile := r.state.Board.Tile(c.Position)
	if tile == nil || tile.Effect == nil {
		return nil
	}
	r.state.Board.ClearTileEffect(c.Position)
	r.emitTile(c.Position, src)
	if occupant := tile.Card; occupant != nil {
		r.retile(occupant, c.Position, src)
	}
	return nil
}

// Flip captures a board card for the acting card's owner. Ability flips
// bypass combat resolvers but never touch locked cards.
type Flip struct {
	Target string
}

func (f Flip) apply(r *resolution, src source) *rules.Rejection {
	c, zone, pos := r.state.Locate(f.Target)
	if c == nil || zone != ZoneBoard || c.Locked() || src.card == nil || c.Owner == src.owner() {
		return nil
	}
	return r.flip(c, *pos, src.card, src.ability)
}

// ChangeOwner hands a board card to another player without it counting as
// a flip. No flip moments fire.
type ChangeOwner struct {
	Target   string
	NewOwner string
}

func (o ChangeOwner) apply(r *resolution, src source) *rules.Rejection {
	c, zone, pos := r.state.Locate(o.Target)
	if c == nil || zone != ZoneBoard || c.Owner == o.NewOwner || r.state.Player(o.NewOwner) == nil {
		return nil
	}
	prev := c.Owner
	c.Owner = o.NewOwner

	ev := rules.NewEvent(rules.EventCardOwnerChanged, c.InstanceID, o.NewOwner).At(*pos)
	ev.SourceCardID = src.id()
	ev.Ability = src.ability
	ev.FromOwner = prev
	ev.ToOwner = o.NewOwner
	ev.Animation = rules.AnimationFlip
	r.emit(ev)
	return nil
}

// Draw moves cards from a player's deck into their hand.
type Draw struct {
	PlayerID string
	Count    int
}

func (d Draw) apply(r *resolution, src source) *rules.Rejection {
	player := d.PlayerID
	if player == "" {
		player = src.owner()
	}
	r.draw(player, max(d.Count, 1), src)
	return nil
}

// Discard sends a card from the board or a hand to its original owner's
// discard pile.
type Discard struct {
	Target string
}

func (d Discard) apply(r *resolution, src source) *rules.Rejection {
	c, zone, pos := r.state.Locate(d.Target)
	if c == nil {
		return nil
	}
	var evType rules.EventType
	switch zone {
	case ZoneBoard:
		r.state.Board.Remove(*pos)
		evType = rules.EventCardRemovedFromBoard
	case ZoneHand:
		holder := r.holder(c.InstanceID)
		holder.Hand, _ = removeID(holder.Hand, c.InstanceID)
		evType = rules.EventCardRemovedFromHand
	default:
		return nil
	}
	c.RemoveEffects(board.EffectPrefix)
	prev := c.Owner
	c.Owner = c.OriginalOwner
	r.state.Cards[c.InstanceID] = c
	owner := r.state.Player(c.OriginalOwner)
	owner.Discard = append(owner.Discard, c.InstanceID)

	ev := rules.NewEvent(evType, c.InstanceID, c.OriginalOwner)
	ev.Position = pos
	ev.SourceCardID = src.id()
	ev.Ability = src.ability
	ev.FromOwner = prev
	ev.ToOwner = c.OriginalOwner
	ev.Animation = rules.AnimationRemove
	r.emit(ev.WithMeta("to", string(ZoneDiscard)))
	return nil
}

// ReturnToHand lifts a board card into a player's hand, the original owner's
// when PlayerID is empty.
type ReturnToHand struct {
	Target   string
	PlayerID string
}

func (h ReturnToHand) apply(r *resolution, src source) *rules.Rejection {
	c, zone, pos := r.state.Locate(h.Target)
	if c == nil || zone != ZoneBoard {
		return nil
	}
	to := h.PlayerID
	if to == "" {
		to = c.OriginalOwner
	}
	player := r.state.Player(to)
	if player == nil {
		return nil
	}
	r.state.Board.Remove(*pos)
	c.RemoveEffects(board.EffectPrefix)
	prev := c.Owner
	c.Owner = to
	r.state.Cards[c.InstanceID] = c
	player.Hand = append(player.Hand, c.InstanceID)

	ev := rules.NewEvent(rules.EventCardReturnedToHand, c.InstanceID, to).At(*pos)
	ev.SourceCardID = src.id()
	ev.Ability = src.ability
	ev.FromOwner = prev
	ev.ToOwner = to
	ev.Animation = rules.AnimationRemove
	r.emit(ev)
	return nil
}

// Lock makes a board card immune to flips for a number of its owner's
// turns.
type Lock struct {
	Target string
	Turns  int
}

func (l Lock) apply(r *resolution, src source) *rules.Rejection {
	c, zone, pos := r.state.Locate(l.Target)
	if c == nil || zone != ZoneBoard || l.Turns <= 0 {
		return nil
	}
	c.LockedTurns = max(c.LockedTurns, l.Turns)

	ev := rules.NewEvent(rules.EventCardLocked, c.InstanceID, c.Owner).At(*pos)
	ev.SourceCardID = src.id()
	ev.Ability = src.ability
	ev.Animation = rules.AnimationLock
	r.emit(ev.WithMeta("turns", strconv.Itoa(c.LockedTurns)))
	return nil
}

// Move relocates a board card to a free, enabled tile.
type Move struct {
	Target string
	To     board.Position
}

func (m Move) apply(r *resolution, src source) *rules.Rejection {
	c, zone, pos := r.state.Locate(m.Target)
	if c == nil || zone != ZoneBoard {
		return nil
	}
	dest := r.state.Board.Tile(m.To)
	if dest == nil || !dest.Placeable() {
		return nil
	}
	from := *pos
	r.state.Board.Remove(from)
	if err := r.state.Board.Place(m.To, c); err != nil {
		return rules.NewRejection(rules.CodeInvariantViolation, err.Error())
	}

	to := m.To
	ev := rules.NewEvent(rules.EventCardMoved, c.InstanceID, c.Owner).At(to)
	ev.SourceCardID = src.id()
	ev.Ability = src.ability
	ev.From = &from
	ev.To = &to
	ev.Animation = rules.AnimationMove
	r.emit(ev)

	r.retile(c, m.To, src)
	return nil
}

// holder returns the player holding instanceID in hand.
func (r *resolution) holder(instanceID string) *Player {
	for _, player := range r.state.Players() {
		if player.InHand(instanceID) {
			return player
		}
	}
	return nil
}

// retile drops the card's tile effects and takes a fresh snapshot of the
// tile it stands on.
func (r *resolution) retile(c *card.Instance, pos board.Position, src source) {
	delta := c.RemoveEffects(board.EffectPrefix)
	if tile := r.state.Board.Tile(pos); tile != nil && tile.Effect != nil {
		if effect, ok := tile.Effect.CardEffect(c.Owner); ok {
			delta = delta.Add(c.ApplyEffect(effect))
		}
	}
	r.emitPowerChange(c, &pos, delta, src, board.EffectPrefix)
}

func (r *resolution) emitPowerChange(c *card.Instance, pos *board.Position, delta power.Vector, src source, effect string) {
	if delta.IsZero() {
		return
	}
	ev := rules.NewEvent(rules.EventCardPowerChanged, c.InstanceID, c.Owner).WithDelta(delta)
	ev.Position = pos
	ev.SourceCardID = src.id()
	ev.Ability = src.ability
	ev.Animation = rules.AnimationBuff
	if delta.Total() < 0 {
		ev.Animation = rules.AnimationDebuff
	}
	r.emit(ev.WithMeta("effect", effect))
}

func (r *resolution) emitTile(pos board.Position, src source) {
	ev := rules.NewEvent(rules.EventTileStateChanged, "", src.owner()).At(pos)
	ev.SourceCardID = src.id()
	ev.Ability = src.ability
	ev.Animation = rules.AnimationTile
	if tile := r.state.Board.Tile(pos); tile != nil && tile.Effect != nil {
		effect := *tile.Effect
		ev.Tile = &effect
	}
	r.emit(ev)
}

// draw moves up to n cards from the top of the player's deck into the hand.
func (r *resolution) draw(playerID string, n int, src source) int {
	player := r.state.Player(playerID)
	if player == nil {
		return 0
	}
	drawn := 0
	for ; drawn < n && len(player.Deck) > 0; drawn++ {
		id := player.Deck[0]
		player.Deck = player.Deck[1:]
		player.Hand = append(player.Hand, id)

		ev := rules.NewEvent(rules.EventCardDrawn, id, playerID)
		ev.SourceCardID = src.id()
		ev.Ability = src.ability
		ev.Animation = rules.AnimationDraw
		r.emit(ev)
	}
	return drawn
}
