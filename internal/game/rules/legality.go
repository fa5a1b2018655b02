package rules

import (
	"fmt"
	"maps"

	"google.golang.org/grpc/codes"

	"github.com/thraizz/gridduel-server/internal/game/board"
)

// Code is a machine-readable rejection code.
type Code string

const (
	// Validation
	CodeInvalidAction       Code = "INVALID_ACTION"
	CodeGameNotActive       Code = "GAME_NOT_ACTIVE"
	CodeNotYourTurn         Code = "NOT_YOUR_TURN"
	CodeUnknownPlayer       Code = "UNKNOWN_PLAYER"
	CodeCardNotInHand       Code = "CARD_NOT_IN_HAND"
	CodePositionOutOfBounds Code = "POSITION_OUT_OF_BOUNDS"
	CodeTileOccupied        Code = "TILE_OCCUPIED"
	CodeTileDisabled        Code = "TILE_DISABLED"

	// Invariant
	CodeInvariantViolation Code = "INVARIANT_VIOLATION"
	CodeUnknownAbility     Code = "UNKNOWN_ABILITY"

	// Cascade
	CodeCascadeOverflow Code = "CASCADE_OVERFLOW"
)

// Class groups rejection codes by what went wrong.
type Class string

const (
	ClassValidation Class = "validation"
	ClassInvariant  Class = "invariant"
	ClassCascade    Class = "cascade"
)

// Class returns the class a code belongs to.
func (c Code) Class() Class {
	switch c {
	case CodeInvariantViolation, CodeUnknownAbility:
		return ClassInvariant
	case CodeCascadeOverflow:
		return ClassCascade
	default:
		return ClassValidation
	}
}

// GRPCCode maps rejection codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - malformed action
	case CodeInvalidAction:
		return codes.InvalidArgument

	// OutOfRange - position outside the board
	case CodePositionOutOfBounds:
		return codes.OutOfRange

	// FailedPrecondition - state doesn't allow the action
	case CodeGameNotActive,
		CodeNotYourTurn,
		CodeCardNotInHand,
		CodeTileOccupied,
		CodeTileDisabled:
		return codes.FailedPrecondition

	// PermissionDenied - actor is not seated in the game
	case CodeUnknownPlayer:
		return codes.PermissionDenied

	// ResourceExhausted - trigger chain exceeded its bound
	case CodeCascadeOverflow:
		return codes.ResourceExhausted

	default:
		return codes.Internal
	}
}

// Rejection explains why an action was refused. The state it was applied to
// is left untouched.
type Rejection struct {
	Code    Code              `json:"code"`
	Class   Class             `json:"class"`
	Reason  string            `json:"reason"`
	Details map[string]string `json:"details,omitempty"`
}

// NewRejection creates a rejection for code.
func NewRejection(code Code, reason string) *Rejection {
	return &Rejection{Code: code, Class: code.Class(), Reason: reason}
}

// Rejectf creates a rejection with a formatted reason.
func Rejectf(code Code, format string, args ...any) *Rejection {
	return NewRejection(code, fmt.Sprintf(format, args...))
}

// WithDetail returns a copy of the rejection with one more detail.
func (r *Rejection) WithDetail(key, value string) *Rejection {
	out := *r
	out.Details = maps.Clone(r.Details)
	if out.Details == nil {
		out.Details = make(map[string]string)
	}
	out.Details[key] = value
	return &out
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Code, r.Reason)
}

// GameStateAccessor provides access to game state needed for legality checks.
type GameStateAccessor interface {
	// GameStatus returns the lifecycle status
	GameStatus() Status
	// CurrentPlayer returns the player whose turn it is
	CurrentPlayer() string
	// HasPlayer reports whether playerID is seated in the game
	HasPlayer(playerID string) bool
	// InHand reports whether instanceID is in playerID's hand
	InHand(playerID, instanceID string) bool
	// GameBoard returns the board
	GameBoard() *board.Board
}

// LegalityChecker validates actions before they touch the state.
type LegalityChecker struct {
	gameState GameStateAccessor
}

// NewLegalityChecker creates a new legality checker.
func NewLegalityChecker(gameState GameStateAccessor) *LegalityChecker {
	return &LegalityChecker{gameState: gameState}
}

// CheckActor validates that playerID may act now.
func (lc *LegalityChecker) CheckActor(playerID string) *Rejection {
	if lc == nil || lc.gameState == nil {
		return NewRejection(CodeInvariantViolation, "legality checker not initialized")
	}
	if status := lc.gameState.GameStatus(); status != StatusActive {
		return Rejectf(CodeGameNotActive, "game is %s", status).WithDetail("status", string(status))
	}
	if !lc.gameState.HasPlayer(playerID) {
		return NewRejection(CodeUnknownPlayer, "player is not part of this game").WithDetail("player_id", playerID)
	}
	if current := lc.gameState.CurrentPlayer(); current != playerID {
		return NewRejection(CodeNotYourTurn, "it is not this player's turn").
			WithDetail("player_id", playerID).
			WithDetail("current_player_id", current)
	}
	return nil
}

// CheckPlacement validates placing instanceID at pos for playerID.
func (lc *LegalityChecker) CheckPlacement(playerID, instanceID string, pos board.Position) *Rejection {
	if r := lc.CheckActor(playerID); r != nil {
		return r
	}
	if instanceID == "" {
		return NewRejection(CodeInvalidAction, "missing card instance id")
	}
	if !lc.gameState.InHand(playerID, instanceID) {
		return NewRejection(CodeCardNotInHand, "card is not in the player's hand").WithDetail("instance_id", instanceID)
	}
	b := lc.gameState.GameBoard()
	tile := b.Tile(pos)
	if tile == nil {
		return Rejectf(CodePositionOutOfBounds, "position %s is outside the %dx%d board", pos, b.Size, b.Size)
	}
	if !tile.Empty() {
		return Rejectf(CodeTileOccupied, "position %s is occupied", pos).WithDetail("occupant", tile.Card.InstanceID)
	}
	if !tile.Enabled {
		return Rejectf(CodeTileDisabled, "position %s is disabled", pos).WithDetail("status", string(tile.Status()))
	}
	return nil
}
