package rules

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a game.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
)

var statusTransitions = map[Status][]Status{
	StatusPending: {StatusActive, StatusAborted},
	StatusActive:  {StatusCompleted, StatusAborted},
}

// CanTransition reports whether the lifecycle allows moving from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the game is over and immutable.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAborted
}

// Phase is the stage of a turn the engine is resolving.
type Phase int

const (
	PhaseTurnStart Phase = iota
	PhasePlacement
	PhaseCombat
	PhaseReactive
	PhaseTurnEnd
)

var phaseNames = map[Phase]string{
	PhaseTurnStart: "TURN_START",
	PhasePlacement: "PLACEMENT",
	PhaseCombat:    "COMBAT",
	PhaseReactive:  "REACTIVE",
	PhaseTurnEnd:   "TURN_END",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// PhaseOf returns the phase a moment belongs to.
func PhaseOf(m Moment) Phase {
	switch m {
	case MomentOnTurnStart:
		return PhaseTurnStart
	case MomentOnPlace:
		return PhasePlacement
	case MomentBeforeCombat, MomentAfterCombat, MomentOnFlip, MomentOnFlipped, MomentAnyOnFlip:
		return PhaseCombat
	case MomentAnyOnPlace, MomentBoardOnPlace, MomentHandOnPlace:
		return PhaseReactive
	default:
		return PhaseTurnEnd
	}
}

// TurnManager alternates turns between two players. Player one opens every
// round; a round ends once player two has finished a turn.
type TurnManager struct {
	first  string
	second string
}

// NewTurnManager creates a turn manager for the given seating order.
func NewTurnManager(first, second string) *TurnManager {
	return &TurnManager{
		first:  strings.TrimSpace(first),
		second: strings.TrimSpace(second),
	}
}

// Players returns both players in seating order.
func (tm *TurnManager) Players() [2]string {
	return [2]string{tm.first, tm.second}
}

// Next returns the player whose turn follows current's.
func (tm *TurnManager) Next(current string) string {
	if current == tm.first {
		return tm.second
	}
	return tm.first
}

// Opponent is an alias of Next for readability at call sites about scoring.
func (tm *TurnManager) Opponent(playerID string) string {
	return tm.Next(playerID)
}

// EndsRound reports whether the turn of current closes a round.
func (tm *TurnManager) EndsRound(current string) bool {
	return current == tm.second
}

// Round converts a 1-based turn number into a 1-based round number.
func Round(turnNumber int) int {
	if turnNumber < 1 {
		return 0
	}
	return (turnNumber + 1) / 2
}
