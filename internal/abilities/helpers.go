package abilities

import (
	"math/rand"

	"github.com/thraizz/gridduel-server/internal/game"
	"github.com/thraizz/gridduel-server/internal/game/board"
	"github.com/thraizz/gridduel-server/internal/game/power"
)

// weakest returns the occupant with the lowest floored total, the first in
// scan order on ties.
func weakest(occupants []board.Occupant) (board.Occupant, bool) {
	if len(occupants) == 0 {
		return board.Occupant{}, false
	}
	best := occupants[0]
	for _, o := range occupants[1:] {
		if o.Card.Effective().Total() < best.Card.Effective().Total() {
			best = o
		}
	}
	return best, true
}

func unlocked(occupants []board.Occupant) []board.Occupant {
	out := make([]board.Occupant, 0, len(occupants))
	for _, o := range occupants {
		if !o.Card.Locked() {
			out = append(out, o)
		}
	}
	return out
}

func owned(occupants []board.Occupant, owner string) []board.Occupant {
	out := make([]board.Occupant, 0, len(occupants))
	for _, o := range occupants {
		if o.Card.Owner == owner {
			out = append(out, o)
		}
	}
	return out
}

func pick[T any](rng *rand.Rand, items []T) (T, bool) {
	var zero T
	if len(items) == 0 || rng == nil {
		return zero, false
	}
	return items[rng.Intn(len(items))], true
}

func adjacent(a, b board.Position) bool {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx+dy*dy == 1
}

// selfBuff grows the subject card by n on every side. Named buffs stack.
func selfBuff(ctx *game.TriggerContext, name string, n int) game.Intent {
	return game.Buff{
		Target: ctx.Card.InstanceID,
		Delta:  power.Uniform(n),
		Name:   name,
		Stack:  true,
	}
}
