package effects

// Duration represents how long a temporary effect lasts.
type Duration string

const (
	// DurationTurns - effect counts down once per turn boundary of its scope player
	DurationTurns Duration = "TURNS"

	// DurationPermanent - effect lasts until explicitly removed
	DurationPermanent Duration = "PERMANENT"
)

// Tick decrements every turn-limited effect scoped to playerID and removes
// the ones that reach zero. Effects without a scope tick on every boundary.
// The expired effects are returned in stack order.
func (s *Stack) Tick(playerID string) []Effect {
	if s == nil || len(*s) == 0 {
		return nil
	}

	var (
		kept    = (*s)[:0]
		expired []Effect
	)
	for _, effect := range *s {
		if effect.Duration == DurationTurns && effect.inScope(playerID) {
			effect.TurnsRemaining--
			if effect.TurnsRemaining <= 0 {
				expired = append(expired, effect)
				continue
			}
		}
		kept = append(kept, effect)
	}
	*s = kept
	return expired
}

func (e Effect) inScope(playerID string) bool {
	return e.ScopePlayerID == "" || e.ScopePlayerID == playerID
}
