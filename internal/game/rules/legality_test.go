package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"github.com/thraizz/gridduel-server/internal/game/board"
	"github.com/thraizz/gridduel-server/internal/game/card"
)

type mockGameState struct {
	status  Status
	current string
	hands   map[string][]string
	board   *board.Board
}

func (m *mockGameState) GameStatus() Status { return m.status }
func (m *mockGameState) CurrentPlayer() string { return m.current }
func (m *mockGameState) GameBoard() *board.Board { return m.board }

func (m *mockGameState) HasPlayer(playerID string) bool {
	_, ok := m.hands[playerID]
	return ok
}

func (m *mockGameState) InHand(playerID, instanceID string) bool {
	for _, id := range m.hands[playerID] {
		if id == instanceID {
			return true
		}
	}
	return false
}

func newMockGameState() *mockGameState {
	return &mockGameState{
		status:  StatusActive,
		current: "alice",
		hands: map[string][]string{
			"alice": {"a1", "a2"},
			"bob":   {"b1"},
		},
		board: board.New(3),
	}
}

func TestCheckPlacement(t *testing.T) {
	state := newMockGameState()
	require.NoError(t, state.board.Place(board.Position{X: 1, Y: 1}, &card.Instance{InstanceID: "b0", Owner: "bob"}))
	require.NoError(t, state.board.SetTileEffect(board.Position{X: 2, Y: 2}, board.TileEffect{Status: board.StatusBlocked, TurnsRemaining: 2}))
	checker := NewLegalityChecker(state)

	cases := []struct {
		name     string
		player   string
		instance string
		pos      board.Position
		code     Code
	}{
		{"legal", "alice", "a1", board.Position{X: 0, Y: 0}, ""},
		{"unknown player", "mallory", "a1", board.Position{X: 0, Y: 0}, CodeUnknownPlayer},
		{"wrong turn", "bob", "b1", board.Position{X: 0, Y: 0}, CodeNotYourTurn},
		{"missing id", "alice", "", board.Position{X: 0, Y: 0}, CodeInvalidAction},
		{"not in hand", "alice", "b1", board.Position{X: 0, Y: 0}, CodeCardNotInHand},
		{"out of bounds", "alice", "a1", board.Position{X: 3, Y: 0}, CodePositionOutOfBounds},
		{"occupied", "alice", "a1", board.Position{X: 1, Y: 1}, CodeTileOccupied},
		{"disabled", "alice", "a1", board.Position{X: 2, Y: 2}, CodeTileDisabled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := checker.CheckPlacement(tc.player, tc.instance, tc.pos)
			if tc.code == "" {
				assert.Nil(t, r)
				return
			}
			require.NotNil(t, r)
			assert.Equal(t, tc.code, r.Code)
			assert.Equal(t, ClassValidation, r.Class)
		})
	}
}

func TestCheckActorRequiresActiveGame(t *testing.T) {
	state := newMockGameState()
	state.status = StatusCompleted

	r := NewLegalityChecker(state).CheckActor("alice")
	require.NotNil(t, r)
	assert.Equal(t, CodeGameNotActive, r.Code)
	assert.Equal(t, "completed", r.Details["status"])

	var nilChecker *LegalityChecker
	assert.Equal(t, CodeInvariantViolation, nilChecker.CheckActor("alice").Code)
}

func TestRejectionClassesAndGRPCCodes(t *testing.T) {
	assert.Equal(t, ClassInvariant, CodeUnknownAbility.Class())
	assert.Equal(t, ClassCascade, CodeCascadeOverflow.Class())
	assert.Equal(t, ClassValidation, CodeTileOccupied.Class())

	assert.Equal(t, codes.FailedPrecondition, CodeNotYourTurn.GRPCCode())
	assert.Equal(t, codes.OutOfRange, CodePositionOutOfBounds.GRPCCode())
	assert.Equal(t, codes.PermissionDenied, CodeUnknownPlayer.GRPCCode())
	assert.Equal(t, codes.ResourceExhausted, CodeCascadeOverflow.GRPCCode())
	assert.Equal(t, codes.Internal, CodeInvariantViolation.GRPCCode())
}

func TestRejectionWithDetailCopies(t *testing.T) {
	base := NewRejection(CodeTileDisabled, "blocked")
	withPos := base.WithDetail("x", "1")

	assert.Nil(t, base.Details)
	assert.Equal(t, "1", withPos.Details["x"])
	assert.EqualError(t, withPos, "TILE_DISABLED: blocked")
}
