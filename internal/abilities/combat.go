package abilities

import (
	"github.com/thraizz/gridduel-server/internal/game"
	"github.com/thraizz/gridduel-server/internal/game/card"
	"github.com/thraizz/gridduel-server/internal/game/power"
	"github.com/thraizz/gridduel-server/internal/game/rules"
)

// Ability ids of the flip reactions and combat resolvers.
const (
	IDSoulLock     card.AbilityID = "soul_lock"
	IDTitanShell   card.AbilityID = "titan_shell"
	IDOceansShield card.AbilityID = "oceans_shield"
	IDLastStand    card.AbilityID = "last_stand"
	IDBerserker    card.AbilityID = "berserker"
	IDVengeance    card.AbilityID = "vengeance"
	IDHomecoming   card.AbilityID = "homecoming"
	IDThunderEcho  card.AbilityID = "thunder_echo"
	IDWarding      card.AbilityID = "warding"
)

// DefaultTitanSlayer is the base card that can defeat a Titan Shell when
// the card does not name another.
const DefaultTitanSlayer = "thor"

// SoulLock reverts a capture of its card and locks it in place.
func SoulLock() *game.Ability {
	return &game.Ability{
		ID:          IDSoulLock,
		Name:        "Soul Lock",
		Description: "When flipped, returns to its previous controller and cannot be flipped for 2 turns.",
		Triggers:    []rules.Moment{rules.MomentOnFlipped},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			if ctx.PreviousOwner == "" {
				return nil
			}
			return []game.Intent{
				game.ChangeOwner{Target: ctx.Card.InstanceID, NewOwner: ctx.PreviousOwner},
				game.Lock{Target: ctx.Card.InstanceID, Turns: ctx.Params.DurationOr(2)},
			}
		},
	}
}

// TitanShell can only be defeated by one specific base card.
func TitanShell() *game.Ability {
	return &game.Ability{
		ID:          IDTitanShell,
		Name:        "Titan Shell",
		Description: "Can only be defeated by Thor.",
		Resolver: func(ctx *game.CombatContext) game.CombatOutcome {
			slayer := ctx.Params.CardRef
			if slayer == "" {
				slayer = DefaultTitanSlayer
			}
			if ctx.Attacker.BaseCardID == slayer {
				return game.Defeat()
			}
			return game.Prevent()
		},
	}
}

// OceansShield holds unless the attacker is stronger overall.
func OceansShield() *game.Ability {
	return &game.Ability{
		ID:          IDOceansShield,
		Name:        "Ocean's Shield",
		Description: "Cannot be defeated unless the attacker's total power exceeds this card's.",
		Resolver: func(ctx *game.CombatContext) game.CombatOutcome {
			if ctx.Attacker.Effective().Total() > ctx.Defender.Effective().Total() {
				return game.Defeat()
			}
			return game.Prevent()
		},
	}
}

// LastStand trades power for survival once.
func LastStand() *game.Ability {
	return &game.Ability{
		ID:          IDLastStand,
		Name:        "Last Stand",
		Description: "The first time this card would be defeated, it loses 1 on every side instead.",
		Resolver: func(ctx *game.CombatContext) game.CombatOutcome {
			if _, used := ctx.Defender.Effects.Find(string(IDLastStand)); used {
				return game.Defeat()
			}
			return game.Prevent(game.Buff{
				Target: ctx.Defender.InstanceID,
				Delta:  power.Uniform(-ctx.Params.AmountOr(1)),
				Name:   string(IDLastStand),
			})
		},
	}
}

// Berserker grows every time it captures.
func Berserker() *game.Ability {
	return &game.Ability{
		ID:          IDBerserker,
		Name:        "Berserker",
		Description: "Gains +1 on every side each time it flips a card.",
		Triggers:    []rules.Moment{rules.MomentOnFlip},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			return []game.Intent{selfBuff(ctx, string(IDBerserker), ctx.Params.AmountOr(1))}
		},
	}
}

// Vengeance weakens the card that captured it.
func Vengeance() *game.Ability {
	return &game.Ability{
		ID:          IDVengeance,
		Name:        "Vengeance",
		Description: "When flipped, the card that flipped it loses 1 on every side for 2 turns.",
		Triggers:    []rules.Moment{rules.MomentOnFlipped},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			if ctx.FlippedBy == nil {
				return nil
			}
			return []game.Intent{game.Buff{
				Target: ctx.FlippedBy.InstanceID,
				Delta:  power.Uniform(-ctx.Params.AmountOr(1)),
				Turns:  ctx.Params.DurationOr(2),
			}}
		},
	}
}

// Homecoming escapes to its original owner's hand when captured.
func Homecoming() *game.Ability {
	return &game.Ability{
		ID:          IDHomecoming,
		Name:        "Homecoming",
		Description: "When flipped, returns to its original owner's hand.",
		Triggers:    []rules.Moment{rules.MomentOnFlipped},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			return []game.Intent{game.ReturnToHand{Target: ctx.Card.InstanceID}}
		},
	}
}

// ThunderEcho grows by the number of cards it captured in combat.
func ThunderEcho() *game.Ability {
	return &game.Ability{
		ID:          IDThunderEcho,
		Name:        "Thunder Echo",
		Description: "After combat, gains +1 on every side for each card it flipped.",
		Triggers:    []rules.Moment{rules.MomentAfterCombat},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			if len(ctx.CombatFlips) == 0 {
				return nil
			}
			return []game.Intent{selfBuff(ctx, string(IDThunderEcho), len(ctx.CombatFlips)*ctx.Params.AmountOr(1))}
		},
	}
}

// Warding shields the allies around it before it fights.
func Warding() *game.Ability {
	return &game.Ability{
		ID:          IDWarding,
		Name:        "Warding",
		Description: "Before combat, adjacent allied cards cannot be flipped until the end of your next turn.",
		Triggers:    []rules.Moment{rules.MomentBeforeCombat},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			var intents []game.Intent
			for _, occ := range ctx.AllyNeighbors() {
				intents = append(intents, game.Lock{Target: occ.Card.InstanceID, Turns: ctx.Params.DurationOr(2)})
			}
			return intents
		},
	}
}
