package game

import (
	"math/rand"
	"slices"

	"github.com/thraizz/gridduel-server/internal/game/board"
	"github.com/thraizz/gridduel-server/internal/game/card"
	"github.com/thraizz/gridduel-server/internal/game/power"
	"github.com/thraizz/gridduel-server/internal/game/rules"
)

// Handler computes the intents of a triggered ability. Handlers read the
// context and never mutate the state they are given.
type Handler func(ctx *TriggerContext) []Intent

// Resolver decides whether a defender that lost the power comparison is
// actually defeated.
type Resolver func(ctx *CombatContext) CombatOutcome

// Ability is one entry of the ability catalog.
type Ability struct {
	ID          card.AbilityID
	Name        string
	Description string
	Triggers    []rules.Moment
	Handler     Handler
	Resolver    Resolver
}

// FiresOn reports whether the ability has a handler for moment m.
func (a *Ability) FiresOn(m rules.Moment) bool {
	return a != nil && a.Handler != nil && slices.Contains(a.Triggers, m)
}

// AbilityProvider resolves ability ids to their definitions.
type AbilityProvider interface {
	Ability(id card.AbilityID) (*Ability, bool)
}

// MomentIndex is implemented by providers that can list the abilities
// reacting to a moment. The engine skips moments nothing listens to.
type MomentIndex interface {
	On(m rules.Moment) []*Ability
}

// TriggerContext is everything a handler may look at.
type TriggerContext struct {
	State    *GameState
	Card     *card.Instance
	Position *board.Position
	Moment   rules.Moment
	Params   card.AbilityParams

	// Origin is the card whose action caused a reactive moment. It is nil
	// for every other moment.
	Origin         *card.Instance
	OriginPosition *board.Position

	// Set for flip moments.
	FlippedCard   *card.Instance
	FlippedBy     *card.Instance
	PreviousOwner string

	// CombatFlips lists the cards the subject flipped in combat during this
	// action. Set for AfterCombat.
	CombatFlips []string

	Rand *rand.Rand
}

// Owner is the current owner of the subject card.
func (ctx *TriggerContext) Owner() string {
	return ctx.Card.Owner
}

// Opponent is the player facing the subject card's owner.
func (ctx *TriggerContext) Opponent() string {
	if p := ctx.State.Opponent(ctx.Card.Owner); p != nil {
		return p.UserID
	}
	return ""
}

// OnBoard reports whether the subject card is on the board.
func (ctx *TriggerContext) OnBoard() bool {
	return ctx.Position != nil
}

// Neighbors returns the occupied neighbours of the subject, in side order.
func (ctx *TriggerContext) Neighbors() []board.Occupant {
	if ctx.Position == nil {
		return nil
	}
	var out []board.Occupant
	for _, n := range ctx.State.Board.Adjacent(*ctx.Position) {
		if c := ctx.State.Board.CardAt(n.Position); c != nil {
			out = append(out, board.Occupant{Position: n.Position, Card: c})
		}
	}
	return out
}

// EnemyNeighbors returns the neighbours owned by someone else.
func (ctx *TriggerContext) EnemyNeighbors() []board.Occupant {
	return slices.DeleteFunc(ctx.Neighbors(), func(o board.Occupant) bool {
		return o.Card.Owner == ctx.Card.Owner
	})
}

// AllyNeighbors returns the neighbours owned by the subject's owner.
func (ctx *TriggerContext) AllyNeighbors() []board.Occupant {
	return slices.DeleteFunc(ctx.Neighbors(), func(o board.Occupant) bool {
		return o.Card.Owner != ctx.Card.Owner
	})
}

// EmptyNeighbors returns the free, enabled neighbouring tiles.
func (ctx *TriggerContext) EmptyNeighbors() []board.Position {
	if ctx.Position == nil {
		return nil
	}
	var out []board.Position
	for _, p := range ctx.State.Board.AdjacentPositions(*ctx.Position) {
		if ctx.State.Board.Tile(p).Placeable() {
			out = append(out, p)
		}
	}
	return out
}

// CombatContext describes a defender about to be defeated.
type CombatContext struct {
	State            *GameState
	Attacker         *card.Instance
	AttackerPosition board.Position
	Defender         *card.Instance
	DefenderPosition board.Position
	Side             power.Side
	AttackPower      int
	DefensePower     int
	Params           card.AbilityParams
	Rand             *rand.Rand
}

// CombatOutcome is a resolver's verdict.
type CombatOutcome struct {
	PreventDefeat bool
	Intents       []Intent
}

// Defeat lets the default outcome stand.
func Defeat() CombatOutcome {
	return CombatOutcome{}
}

// Prevent keeps the defender and applies intents instead.
func Prevent(intents ...Intent) CombatOutcome {
	return CombatOutcome{PreventDefeat: true, Intents: intents}
}
