package abilities

import (
	"slices"

	"github.com/thraizz/gridduel-server/internal/game"
	"github.com/thraizz/gridduel-server/internal/game/board"
	"github.com/thraizz/gridduel-server/internal/game/card"
	"github.com/thraizz/gridduel-server/internal/game/power"
	"github.com/thraizz/gridduel-server/internal/game/rules"
)

// Ability ids of the placement abilities.
const (
	IDForesight        card.AbilityID = "foresight"
	IDStormBreaker     card.AbilityID = "storm_breaker"
	IDTidalSweep       card.AbilityID = "tidal_sweep"
	IDTrickstersGambit card.AbilityID = "tricksters_gambit"
	IDBloodFeud        card.AbilityID = "blood_feud"
	IDRavenScout       card.AbilityID = "raven_scout"
	IDCurseWeaver      card.AbilityID = "curse_weaver"
	IDSanctuary        card.AbilityID = "sanctuary"
	IDLavaBurst        card.AbilityID = "lava_burst"
	IDGaleStep         card.AbilityID = "gale_step"
	IDBanish           card.AbilityID = "banish"
)

// Foresight raises every board card of the owner, itself included.
func Foresight() *game.Ability {
	return &game.Ability{
		ID:          IDForesight,
		Name:        "Foresight",
		Description: "When placed, every card you control on the board gains +1 on all sides.",
		Triggers:    []rules.Moment{rules.MomentOnPlace},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			amount := ctx.Params.AmountOr(1)
			var intents []game.Intent
			for _, occ := range ctx.State.Board.Cards() {
				if occ.Card.Owner != ctx.Owner() {
					continue
				}
				intents = append(intents, game.Buff{Target: occ.Card.InstanceID, Delta: power.Uniform(amount)})
			}
			return intents
		},
	}
}

// StormBreaker flips the weakest enemy in its row.
func StormBreaker() *game.Ability {
	return &game.Ability{
		ID:          IDStormBreaker,
		Name:        "Storm Breaker",
		Description: "When placed, flips the weakest enemy card in the same row.",
		Triggers:    []rules.Moment{rules.MomentOnPlace},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			if !ctx.OnBoard() {
				return nil
			}
			target, ok := weakest(unlocked(ctx.State.Board.CardsInRow(*ctx.Position, ctx.Owner())))
			if !ok {
				return nil
			}
			return []game.Intent{game.Flip{Target: target.Card.InstanceID}}
		},
	}
}

// TidalSweep floods the free tiles around it and flips enemies standing on
// ocean in its column.
func TidalSweep() *game.Ability {
	return &game.Ability{
		ID:          IDTidalSweep,
		Name:        "Tidal Sweep",
		Description: "When placed, floods adjacent empty tiles and flips enemy cards on ocean tiles in the same column.",
		Triggers:    []rules.Moment{rules.MomentOnPlace},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			if !ctx.OnBoard() {
				return nil
			}
			var intents []game.Intent
			for _, p := range ctx.EmptyNeighbors() {
				intents = append(intents, game.SetTile{Position: p, Effect: board.TileEffect{
					Terrain:        board.TerrainOcean,
					TurnsRemaining: ctx.Params.DurationOr(2),
				}})
			}
			for _, occ := range unlocked(ctx.State.Board.CardsInColumn(*ctx.Position, ctx.Owner())) {
				if ctx.State.Board.Tile(occ.Position).Terrain() == board.TerrainOcean {
					intents = append(intents, game.Flip{Target: occ.Card.InstanceID})
				}
			}
			return intents
		},
	}
}

// TrickstersGambit swaps the owners of a random enemy card and a random
// other card of the mover. Ownership changes are not flips.
func TrickstersGambit() *game.Ability {
	return &game.Ability{
		ID:          IDTrickstersGambit,
		Name:        "Trickster's Gambit",
		Description: "When placed, a random enemy card and another random card of yours swap sides.",
		Triggers:    []rules.Moment{rules.MomentOnPlace},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			opponent := ctx.Opponent()
			var mine, theirs []board.Occupant
			for _, occ := range ctx.State.Board.Cards() {
				switch {
				case occ.Card == ctx.Card:
				case occ.Card.Owner == ctx.Owner():
					mine = append(mine, occ)
				case occ.Card.Owner == opponent:
					theirs = append(theirs, occ)
				}
			}
			enemy, ok := pick(ctx.Rand, theirs)
			if !ok {
				return nil
			}
			ally, ok := pick(ctx.Rand, mine)
			if !ok {
				return nil
			}
			return []game.Intent{
				game.ChangeOwner{Target: enemy.Card.InstanceID, NewOwner: ctx.Owner()},
				game.ChangeOwner{Target: ally.Card.InstanceID, NewOwner: opponent},
			}
		},
	}
}

// BloodFeud flips neighbours that have defeated one of the mover's cards.
func BloodFeud() *game.Ability {
	return &game.Ability{
		ID:          IDBloodFeud,
		Name:        "Blood Feud",
		Description: "When placed, flips adjacent enemies that have defeated one of your cards.",
		Triggers:    []rules.Moment{rules.MomentOnPlace},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			var intents []game.Intent
			for _, occ := range unlocked(ctx.EnemyNeighbors()) {
				if slices.ContainsFunc(occ.Card.Defeats, func(id string) bool {
					victim := ctx.State.Card(id)
					return victim != nil && victim.OriginalOwner == ctx.Owner()
				}) {
					intents = append(intents, game.Flip{Target: occ.Card.InstanceID})
				}
			}
			return intents
		},
	}
}

// RavenScout draws for its owner.
func RavenScout() *game.Ability {
	return &game.Ability{
		ID:          IDRavenScout,
		Name:        "Raven Scout",
		Description: "When placed, draw a card.",
		Triggers:    []rules.Moment{rules.MomentOnPlace},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			return []game.Intent{game.Draw{PlayerID: ctx.Owner(), Count: ctx.Params.AmountOr(1)}}
		},
	}
}

// CurseWeaver curses the free tiles around it against the opponent.
func CurseWeaver() *game.Ability {
	return &game.Ability{
		ID:          IDCurseWeaver,
		Name:        "Curse Weaver",
		Description: "When placed, curses adjacent empty tiles: enemy cards placed there lose 2 on every side.",
		Triggers:    []rules.Moment{rules.MomentOnPlace},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			return neighbourTiles(ctx, board.TileEffect{
				Status:         board.StatusCursed,
				Power:          power.Uniform(-ctx.Params.AmountOr(2)),
				TurnsRemaining: ctx.Params.DurationOr(3),
				AppliesTo:      ctx.Opponent(),
			})
		},
	}
}

// Sanctuary blesses the free tiles around it for its owner.
func Sanctuary() *game.Ability {
	return &game.Ability{
		ID:          IDSanctuary,
		Name:        "Sanctuary",
		Description: "When placed, adjacent empty tiles grant +1 on every side to your cards placed there.",
		Triggers:    []rules.Moment{rules.MomentOnPlace},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			return neighbourTiles(ctx, board.TileEffect{
				Status:         board.StatusBoosted,
				Power:          power.Uniform(ctx.Params.AmountOr(1)),
				TurnsRemaining: ctx.Params.DurationOr(2),
				AppliesTo:      ctx.Owner(),
			})
		},
	}
}

func neighbourTiles(ctx *game.TriggerContext, effect board.TileEffect) []game.Intent {
	var intents []game.Intent
	for _, p := range ctx.EmptyNeighbors() {
		intents = append(intents, game.SetTile{Position: p, Effect: effect})
	}
	return intents
}

// LavaBurst blocks a random free tile with lava.
func LavaBurst() *game.Ability {
	return &game.Ability{
		ID:          IDLavaBurst,
		Name:        "Lava Burst",
		Description: "When placed, a random empty tile turns to lava and cannot be played on for 2 turns.",
		Triggers:    []rules.Moment{rules.MomentOnPlace},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			p, ok := pick(ctx.Rand, ctx.State.Board.PlaceableTiles())
			if !ok {
				return nil
			}
			return []game.Intent{game.SetTile{Position: p, Effect: board.TileEffect{
				Status:         board.StatusBlocked,
				Terrain:        board.TerrainLava,
				TurnsRemaining: ctx.Params.DurationOr(2),
			}}}
		},
	}
}

// GaleStep pushes the first enemy neighbour that has room one tile away.
func GaleStep() *game.Ability {
	return &game.Ability{
		ID:          IDGaleStep,
		Name:        "Gale Step",
		Description: "When placed, pushes an adjacent enemy card one tile away if that tile is free.",
		Triggers:    []rules.Moment{rules.MomentOnPlace},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			if !ctx.OnBoard() {
				return nil
			}
			b := ctx.State.Board
			for _, n := range b.Adjacent(*ctx.Position) {
				enemy := b.CardAt(n.Position)
				if enemy == nil || enemy.Owner == ctx.Owner() || enemy.Locked() {
					continue
				}
				dest := n.Position.Step(n.Side)
				if tile := b.Tile(dest); tile != nil && tile.Placeable() {
					return []game.Intent{game.Move{Target: enemy.InstanceID, To: dest}}
				}
			}
			return nil
		},
	}
}

// Banish discards the weakest enemy neighbour.
func Banish() *game.Ability {
	return &game.Ability{
		ID:          IDBanish,
		Name:        "Banish",
		Description: "When placed, sends the weakest adjacent enemy card to its owner's discard pile.",
		Triggers:    []rules.Moment{rules.MomentOnPlace},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			target, ok := weakest(ctx.EnemyNeighbors())
			if !ok {
				return nil
			}
			return []game.Intent{game.Discard{Target: target.Card.InstanceID}}
		},
	}
}
