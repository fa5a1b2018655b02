package rules

import "fmt"

// Moment names the point in the action flow at which an ability fires.
type Moment string

const (
	MomentOnPlace        Moment = "OnPlace"
	MomentOnFlip         Moment = "OnFlip"
	MomentOnFlipped      Moment = "OnFlipped"
	MomentOnTurnStart    Moment = "OnTurnStart"
	MomentOnTurnEnd      Moment = "OnTurnEnd"
	MomentBeforeCombat   Moment = "BeforeCombat"
	MomentAfterCombat    Moment = "AfterCombat"
	MomentAnyOnPlace     Moment = "AnyOnPlace"
	MomentBoardOnPlace   Moment = "BoardOnPlace"
	MomentHandOnPlace    Moment = "HandOnPlace"
	MomentAnyOnFlip      Moment = "AnyOnFlip"
	MomentHandOnRoundEnd Moment = "HandOnRoundEnd"
)

// Moments lists every moment in declaration order.
var Moments = []Moment{
	MomentOnPlace,
	MomentOnFlip,
	MomentOnFlipped,
	MomentOnTurnStart,
	MomentOnTurnEnd,
	MomentBeforeCombat,
	MomentAfterCombat,
	MomentAnyOnPlace,
	MomentBoardOnPlace,
	MomentHandOnPlace,
	MomentAnyOnFlip,
	MomentHandOnRoundEnd,
}

// Valid reports whether m is a known moment.
func (m Moment) Valid() bool {
	for _, known := range Moments {
		if known == m {
			return true
		}
	}
	return false
}

// IsSelf reports whether the moment fires only for its subject card.
func (m Moment) IsSelf() bool {
	switch m {
	case MomentOnPlace, MomentOnFlip, MomentOnFlipped, MomentBeforeCombat, MomentAfterCombat:
		return true
	default:
		return false
	}
}

// IsReactive reports whether the moment fires for cards other than the one
// that caused it. Reactive contexts carry the origin card.
func (m Moment) IsReactive() bool {
	switch m {
	case MomentAnyOnPlace, MomentBoardOnPlace, MomentHandOnPlace, MomentAnyOnFlip:
		return true
	default:
		return false
	}
}

// IsHand reports whether the moment fires for cards held in hand.
func (m Moment) IsHand() bool {
	return m == MomentHandOnPlace || m == MomentHandOnRoundEnd
}

// FireKey identifies one firing of an ability within an action.
type FireKey struct {
	Moment Moment
	CardID string
	Cause  string
}

func (k FireKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Moment, k.CardID, k.Cause)
}

// Cascade bounds the trigger chain of one action. Depth counts nested
// dispatches, Applied counts resolved intents, and every fire key is
// accepted once.
type Cascade struct {
	MaxDepth   int
	MaxApplied int

	depth   int
	applied int
	fired   map[FireKey]struct{}
}

// NewCascade creates a cascade counter with the given limits.
func NewCascade(maxDepth, maxApplied int) *Cascade {
	return &Cascade{
		MaxDepth:   maxDepth,
		MaxApplied: maxApplied,
		fired:      make(map[FireKey]struct{}),
	}
}

// Enter opens one nested dispatch level.
func (c *Cascade) Enter() *Rejection {
	c.depth++
	if c.MaxDepth > 0 && c.depth > c.MaxDepth {
		return NewRejection(CodeCascadeOverflow, "trigger chain too deep").
			WithDetail("depth", fmt.Sprintf("%d", c.depth)).
			WithDetail("max_depth", fmt.Sprintf("%d", c.MaxDepth))
	}
	return nil
}

// Leave closes the innermost dispatch level.
func (c *Cascade) Leave() {
	if c.depth > 0 {
		c.depth--
	}
}

// Spend records n applied intents.
func (c *Cascade) Spend(n int) *Rejection {
	c.applied += n
	if c.MaxApplied > 0 && c.applied > c.MaxApplied {
		return NewRejection(CodeCascadeOverflow, "too many effects in one action").
			WithDetail("applied", fmt.Sprintf("%d", c.applied)).
			WithDetail("max_applied", fmt.Sprintf("%d", c.MaxApplied))
	}
	return nil
}

// Fire marks the key as fired and reports whether it had not fired yet.
func (c *Cascade) Fire(key FireKey) bool {
	if _, seen := c.fired[key]; seen {
		return false
	}
	c.fired[key] = struct{}{}
	return true
}

// Depth returns the current nesting level.
func (c *Cascade) Depth() int {
	return c.depth
}

// Applied returns the number of intents spent so far.
func (c *Cascade) Applied() int {
	return c.applied
}
