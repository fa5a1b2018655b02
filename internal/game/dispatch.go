package game

import (
	"math/rand"
	"strconv"

	"go.uber.org/zap"

	"github.com/thraizz/gridduel-server/internal/game/board"
	"github.com/thraizz/gridduel-server/internal/game/card"
	"github.com/thraizz/gridduel-server/internal/game/rules"
)

// resolution carries the per-action working set: the cloned state, the
// event log and the cascade counter.
type resolution struct {
	engine  *Engine
	state   *GameState
	log     *rules.Log
	cascade *rules.Cascade
	rng     *rand.Rand
	turns   *rules.TurnManager

	// flips records, per attacker, the cards it flipped in combat.
	flips map[string][]string
}

func (r *resolution) emit(event rules.Event) rules.Event {
	return r.log.Append(event)
}

// trigger describes one moment to dispatch.
type trigger struct {
	moment rules.Moment
	cause  string

	// subject of self moments
	card *card.Instance
	// player whose turn boundary it is
	player string

	origin    *card.Instance
	originPos *board.Position

	flippedCard   *card.Instance
	flippedBy     *card.Instance
	previousOwner string
}

// source is the card whose ability produced a batch of intents.
type source struct {
	card    *card.Instance
	ability card.AbilityID
	cause   string
}

func (s source) id() string {
	if s.card == nil {
		return ""
	}
	return s.card.InstanceID
}

func (s source) owner() string {
	if s.card == nil {
		return ""
	}
	return s.card.Owner
}

// dispatch fires moment t for every card the enumeration order selects.
func (r *resolution) dispatch(t trigger) *rules.Rejection {
	// self moments always run so a card's own ability id is always checked
	if !t.moment.IsSelf() && !r.engine.listens(t.moment) {
		return nil
	}
	for _, id := range r.candidates(t) {
		if rej := r.fire(id, t); rej != nil {
			return rej
		}
	}
	return nil
}

// candidates snapshots the ids a moment applies to, in dispatch order.
func (r *resolution) candidates(t trigger) []string {
	var ids []string
	boardWhere := func(keep func(*card.Instance) bool) {
		for _, occ := range r.state.Board.Cards() {
			if keep(occ.Card) {
				ids = append(ids, occ.Card.InstanceID)
			}
		}
	}
	originID := ""
	if t.origin != nil {
		originID = t.origin.InstanceID
	}

	switch {
	case t.moment.IsSelf():
		if t.card != nil {
			ids = append(ids, t.card.InstanceID)
		}
	case t.moment == rules.MomentOnTurnStart || t.moment == rules.MomentOnTurnEnd:
		boardWhere(func(c *card.Instance) bool { return c.Owner == t.player })
	case t.moment == rules.MomentAnyOnPlace:
		boardWhere(func(c *card.Instance) bool { return c.InstanceID != originID })
	case t.moment == rules.MomentAnyOnFlip:
		flipper := ""
		if t.flippedBy != nil {
			flipper = t.flippedBy.InstanceID
		}
		boardWhere(func(c *card.Instance) bool { return c.InstanceID != originID && c.InstanceID != flipper })
	case t.moment == rules.MomentBoardOnPlace:
		boardWhere(func(c *card.Instance) bool { return c.InstanceID != originID && c.Owner == t.origin.Owner })
	case t.moment.IsHand():
		for _, player := range r.state.Players() {
			ids = append(ids, player.Hand...)
		}
	}
	return ids
}

// fire runs the ability of one card for t, if it has one for that moment.
func (r *resolution) fire(id string, t trigger) *rules.Rejection {
	c, zone, pos := r.state.Locate(id)
	if c == nil {
		return nil
	}
	switch {
	case t.moment.IsHand():
		if zone != ZoneHand {
			return nil
		}
	case t.moment == rules.MomentOnTurnStart || t.moment == rules.MomentOnTurnEnd:
		if zone != ZoneBoard || c.Owner != t.player {
			return nil
		}
	case !t.moment.IsSelf():
		if zone != ZoneBoard {
			return nil
		}
	}

	abilityID := c.AbilityID()
	if abilityID == "" {
		return nil
	}
	ability, ok := r.engine.ability(abilityID)
	if !ok {
		return rules.Rejectf(rules.CodeUnknownAbility, "card %s references unknown ability %q", id, abilityID).
			WithDetail("instance_id", id).
			WithDetail("ability", string(abilityID))
	}
	if !ability.FiresOn(t.moment) {
		return nil
	}
	if !r.cascade.Fire(rules.FireKey{Moment: t.moment, CardID: id, Cause: t.cause}) {
		return nil
	}

	if rej := r.cascade.Enter(); rej != nil {
		return rej
	}
	defer r.cascade.Leave()
	if limit := r.engine.rules.MaxEventsPerAction; limit > 0 && r.log.Len() > limit {
		return rules.NewRejection(rules.CodeCascadeOverflow, "too many events in one action").
			WithDetail("events", strconv.Itoa(r.log.Len()))
	}

	ctx := &TriggerContext{
		State:          r.state,
		Card:           c,
		Position:       pos,
		Moment:         t.moment,
		Params:         c.Params(),
		FlippedCard:    t.flippedCard,
		FlippedBy:      t.flippedBy,
		PreviousOwner:  t.previousOwner,
		Rand:           r.rng,
	}
	if t.moment.IsReactive() {
		ctx.Origin = t.origin
		ctx.OriginPosition = t.originPos
	}
	if t.moment == rules.MomentAfterCombat {
		ctx.CombatFlips = r.flips[id]
	}

	intents := ability.Handler(ctx)
	if len(intents) == 0 {
		return nil
	}

	ev := rules.NewEvent(rules.EventAbilityTriggered, id, c.Owner).WithMeta("moment", string(t.moment))
	ev.Ability = abilityID
	ev.Animation = rules.AnimationAbility
	ev.Position = pos
	ev = r.emit(ev)

	if logger := r.engine.logger; logger != nil {
		logger.Debug("ability triggered",
			zap.String("game_id", r.state.ID),
			zap.String("card_id", id),
			zap.String("ability", string(abilityID)),
			zap.String("moment", string(t.moment)),
			zap.String("phase", rules.PhaseOf(t.moment).String()),
			zap.Int("depth", r.cascade.Depth()),
			zap.Int("intents", len(intents)),
		)
	}

	return r.applyAll(source{card: c, ability: abilityID, cause: ev.ID}, intents)
}

// applyAll applies intents in order, charging each to the cascade budget.
func (r *resolution) applyAll(src source, intents []Intent) *rules.Rejection {
	if rej := r.cascade.Spend(len(intents)); rej != nil {
		return rej
	}
	for _, intent := range intents {
		if intent == nil {
			continue
		}
		if rej := intent.apply(r, src); rej != nil {
			return rej
		}
	}
	return nil
}
