package abilities

import (
	"github.com/thraizz/gridduel-server/internal/game"
	"github.com/thraizz/gridduel-server/internal/game/board"
	"github.com/thraizz/gridduel-server/internal/game/card"
	"github.com/thraizz/gridduel-server/internal/game/power"
	"github.com/thraizz/gridduel-server/internal/game/rules"
)

// Ability ids of the reactive and turn-boundary abilities.
const (
	IDWatchfulSentinel card.AbilityID = "watchful_sentinel"
	IDRallyingBanner   card.AbilityID = "rallying_banner"
	IDHiddenReserve    card.AbilityID = "hidden_reserve"
	IDGrudge           card.AbilityID = "grudge"
	IDTideCaller       card.AbilityID = "tide_caller"
	IDFrostAura        card.AbilityID = "frost_aura"
)

// WatchfulSentinel grows when an enemy lands next to it.
func WatchfulSentinel() *game.Ability {
	return &game.Ability{
		ID:          IDWatchfulSentinel,
		Name:        "Watchful Sentinel",
		Description: "Gains +1 on every side whenever an enemy card is placed next to it.",
		Triggers:    []rules.Moment{rules.MomentAnyOnPlace},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			if ctx.Origin == nil || ctx.OriginPosition == nil || !ctx.OnBoard() {
				return nil
			}
			if ctx.Origin.Owner == ctx.Owner() || !adjacent(*ctx.Position, *ctx.OriginPosition) {
				return nil
			}
			return []game.Intent{selfBuff(ctx, string(IDWatchfulSentinel), ctx.Params.AmountOr(1))}
		},
	}
}

// RallyingBanner strengthens allied cards placed after it.
func RallyingBanner() *game.Ability {
	return &game.Ability{
		ID:          IDRallyingBanner,
		Name:        "Rallying Banner",
		Description: "Each card you place afterwards gains +1 on every side.",
		Triggers:    []rules.Moment{rules.MomentBoardOnPlace},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			if ctx.Origin == nil {
				return nil
			}
			return []game.Intent{game.Buff{Target: ctx.Origin.InstanceID, Delta: power.Uniform(ctx.Params.AmountOr(1))}}
		},
	}
}

// HiddenReserve grows in hand while its owner plays other cards.
func HiddenReserve() *game.Ability {
	return &game.Ability{
		ID:          IDHiddenReserve,
		Name:        "Hidden Reserve",
		Description: "While in your hand, gains +1 on every side each time you place a card.",
		Triggers:    []rules.Moment{rules.MomentHandOnPlace},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			if ctx.Origin == nil || ctx.Origin.Owner != ctx.Owner() {
				return nil
			}
			return []game.Intent{selfBuff(ctx, string(IDHiddenReserve), ctx.Params.AmountOr(1))}
		},
	}
}

// Grudge grows in hand at every round end, up to a cap.
func Grudge() *game.Ability {
	return &game.Ability{
		ID:          IDGrudge,
		Name:        "Grudge",
		Description: "While in your hand, gains +1 on every side at the end of each round, up to 3 times.",
		Triggers:    []rules.Moment{rules.MomentHandOnRoundEnd},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			if ctx.Card.Effects.Count(string(IDGrudge)) >= ctx.Params.AmountOr(3) {
				return nil
			}
			return []game.Intent{selfBuff(ctx, string(IDGrudge), 1)}
		},
	}
}

// TideCaller empowers its owner's cards standing on ocean for the turn.
func TideCaller() *game.Ability {
	return &game.Ability{
		ID:          IDTideCaller,
		Name:        "Tide Caller",
		Description: "At the start of your turn, your cards on ocean tiles gain +1 on every side until the turn ends.",
		Triggers:    []rules.Moment{rules.MomentOnTurnStart},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			var intents []game.Intent
			for _, occ := range owned(ctx.State.Board.Cards(), ctx.Owner()) {
				if ctx.State.Board.Tile(occ.Position).Terrain() != board.TerrainOcean {
					continue
				}
				intents = append(intents, game.Buff{
					Target: occ.Card.InstanceID,
					Delta:  power.Uniform(ctx.Params.AmountOr(1)),
					Turns:  1,
				})
			}
			return intents
		},
	}
}

// FrostAura chills the enemies around it at the end of its owner's turn.
func FrostAura() *game.Ability {
	return &game.Ability{
		ID:          IDFrostAura,
		Name:        "Frost Aura",
		Description: "At the end of your turn, adjacent enemy cards lose 1 on every side during their next turn.",
		Triggers:    []rules.Moment{rules.MomentOnTurnEnd},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			var intents []game.Intent
			for _, occ := range ctx.EnemyNeighbors() {
				intents = append(intents, game.Buff{
					Target: occ.Card.InstanceID,
					Delta:  power.Uniform(-ctx.Params.AmountOr(1)),
					Turns:  ctx.Params.DurationOr(1),
				})
			}
			return intents
		},
	}
}
