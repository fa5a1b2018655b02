package game

import (
	"strconv"

	"github.com/thraizz/gridduel-server/internal/game/board"
	"github.com/thraizz/gridduel-server/internal/game/card"
	"github.com/thraizz/gridduel-server/internal/game/rules"
)

// combat resolves the placed card against its neighbours in side order.
// The attacker must out-power the defender's opposite side strictly; ties
// and locked defenders never flip.
func (r *resolution) combat(attacker *card.Instance, at board.Position) *rules.Rejection {
	for _, n := range r.state.Board.Adjacent(at) {
		if r.state.Board.CardAt(at) != attacker {
			// the attacker left its tile during a cascade
			return nil
		}
		defender := r.state.Board.CardAt(n.Position)
		if defender == nil || defender.Owner == attacker.Owner || defender.Locked() {
			continue
		}
		attack := attacker.Effective().Get(n.Side)
		defense := defender.Effective().Get(n.Side.Opposite())
		if attack <= defense {
			continue
		}

		prevented, rej := r.consultResolver(attacker, at, defender, n, attack, defense)
		if rej != nil {
			return rej
		}
		if prevented {
			continue
		}
		if rej := r.flip(defender, n.Position, attacker, ""); rej != nil {
			return rej
		}
		if defender.Owner == attacker.Owner {
			r.flips[attacker.InstanceID] = append(r.flips[attacker.InstanceID], defender.InstanceID)
		}
	}
	return nil
}

// consultResolver asks the defender's ability whether it survives.
func (r *resolution) consultResolver(attacker *card.Instance, at board.Position, defender *card.Instance, n board.Neighbor, attack, defense int) (bool, *rules.Rejection) {
	abilityID := defender.AbilityID()
	if abilityID == "" {
		return false, nil
	}
	ability, ok := r.engine.ability(abilityID)
	if !ok {
		return false, rules.Rejectf(rules.CodeUnknownAbility, "card %s references unknown ability %q", defender.InstanceID, abilityID).
			WithDetail("instance_id", defender.InstanceID).
			WithDetail("ability", string(abilityID))
	}
	if ability.Resolver == nil {
		return false, nil
	}

	outcome := ability.Resolver(&CombatContext{
		State:            r.state,
		Attacker:         attacker,
		AttackerPosition: at,
		Defender:         defender,
		DefenderPosition: n.Position,
		Side:             n.Side,
		AttackPower:      attack,
		DefensePower:     defense,
		Params:           defender.Params(),
		Rand:             r.rng,
	})
	if !outcome.PreventDefeat {
		return false, nil
	}

	ev := rules.NewEvent(rules.EventDefeatPrevented, defender.InstanceID, defender.Owner).At(n.Position)
	ev.SourceCardID = attacker.InstanceID
	ev.Ability = abilityID
	ev.Animation = rules.AnimationShield
	ev = r.emit(ev.
		WithMeta("side", n.Side.String()).
		WithMeta("attack", strconv.Itoa(attack)).
		WithMeta("defense", strconv.Itoa(defense)))

	if rej := r.cascade.Enter(); rej != nil {
		return true, rej
	}
	defer r.cascade.Leave()
	return true, r.applyAll(source{card: defender, ability: abilityID, cause: ev.ID}, outcome.Intents)
}

// flip changes the owner of target to by's owner and fires OnFlip,
// OnFlipped and AnyOnFlip. The defeat is recorded on by only if target still
// belongs to by's owner once those triggers settle.
func (r *resolution) flip(target *card.Instance, at board.Position, by *card.Instance, ability card.AbilityID) *rules.Rejection {
	prev := target.Owner
	target.Owner = by.Owner

	ev := rules.NewEvent(rules.EventCardFlipped, target.InstanceID, by.Owner).At(at)
	ev.SourceCardID = by.InstanceID
	ev.Ability = ability
	ev.FromOwner = prev
	ev.ToOwner = by.Owner
	ev.Animation = rules.AnimationFlip
	ev = r.emit(ev)

	if rej := r.cascade.Enter(); rej != nil {
		return rej
	}
	defer r.cascade.Leave()

	base := trigger{cause: ev.ID, flippedCard: target, flippedBy: by, previousOwner: prev}

	onFlip := base
	onFlip.moment = rules.MomentOnFlip
	onFlip.card = by
	if rej := r.dispatch(onFlip); rej != nil {
		return rej
	}

	onFlipped := base
	onFlipped.moment = rules.MomentOnFlipped
	onFlipped.card = target
	if rej := r.dispatch(onFlipped); rej != nil {
		return rej
	}

	anyOnFlip := base
	anyOnFlip.moment = rules.MomentAnyOnFlip
	anyOnFlip.origin = target
	anyOnFlip.originPos = &at
	if rej := r.dispatch(anyOnFlip); rej != nil {
		return rej
	}

	if target.Owner == by.Owner {
		by.Defeats = append(by.Defeats, target.InstanceID)
	}
	return nil
}
