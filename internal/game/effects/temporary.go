package effects

import (
	"slices"
	"strings"

	"github.com/thraizz/gridduel-server/internal/game/power"
)

// Effect is a named power delta attached to a card instance.
type Effect struct {
	Name           string       `json:"name"`
	Power          power.Vector `json:"power"`
	Duration       Duration     `json:"duration"`
	TurnsRemaining int          `json:"turnsRemaining"`
	ScopePlayerID  string       `json:"scopePlayerId,omitempty"`
	Source         string       `json:"source,omitempty"`
}

// ForTurns builds a turn-limited effect.
func ForTurns(name string, delta power.Vector, turns int, scopePlayerID, source string) Effect {
	return Effect{
		Name:           name,
		Power:          delta,
		Duration:       DurationTurns,
		TurnsRemaining: turns,
		ScopePlayerID:  scopePlayerID,
		Source:         source,
	}
}

// Permanent builds an effect that never expires on its own.
func Permanent(name string, delta power.Vector, source string) Effect {
	return Effect{
		Name:     name,
		Power:    delta,
		Duration: DurationPermanent,
		Source:   source,
	}
}

// Stack is the ordered list of temporary effects on one card.
type Stack []Effect

// CreateOrUpdate replaces the first effect with the same name, or appends
// the effect when none exists. Same-name effects coalesce.
func (s *Stack) CreateOrUpdate(effect Effect) {
	for i := range *s {
		if (*s)[i].Name == effect.Name {
			(*s)[i] = effect
			return
		}
	}
	*s = append(*s, effect)
}

// Push appends the effect without coalescing, for buffs that stack
// independently.
func (s *Stack) Push(effect Effect) {
	*s = append(*s, effect)
}

// Find returns the first effect with the given name.
func (s Stack) Find(name string) (Effect, bool) {
	for _, effect := range s {
		if effect.Name == name {
			return effect, true
		}
	}
	return Effect{}, false
}

// Count returns how many effects carry the given name.
func (s Stack) Count(name string) int {
	n := 0
	for _, effect := range s {
		if effect.Name == name {
			n++
		}
	}
	return n
}

// Remove deletes every effect with the given name.
func (s *Stack) Remove(name string) []Effect {
	return s.removeWhere(func(e Effect) bool { return e.Name == name })
}

// RemovePrefix deletes every effect whose name starts with prefix.
func (s *Stack) RemovePrefix(prefix string) []Effect {
	return s.removeWhere(func(e Effect) bool { return strings.HasPrefix(e.Name, prefix) })
}

// Sum adds up the power of every effect.
func (s Stack) Sum() power.Vector {
	var total power.Vector
	for _, effect := range s {
		total = total.Add(effect.Power)
	}
	return total
}

// Clone returns a copy of the stack.
func (s Stack) Clone() Stack {
	return slices.Clone(s)
}

func (s *Stack) removeWhere(match func(Effect) bool) []Effect {
	if s == nil || len(*s) == 0 {
		return nil
	}
	var (
		kept    = (*s)[:0]
		removed []Effect
	)
	for _, effect := range *s {
		if match(effect) {
			removed = append(removed, effect)
			continue
		}
		kept = append(kept, effect)
	}
	*s = kept
	return removed
}
