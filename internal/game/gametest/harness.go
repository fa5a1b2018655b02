// Package gametest builds game states by hand and drives them through the
// engine, for tests of the engine and of abilities.
package gametest

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/thraizz/gridduel-server/internal/game"
	"github.com/thraizz/gridduel-server/internal/game/board"
	"github.com/thraizz/gridduel-server/internal/game/card"
	"github.com/thraizz/gridduel-server/internal/game/power"
	"github.com/thraizz/gridduel-server/internal/game/rules"
)

// The two seats of every harness game. Alice moves first.
const (
	Alice = "alice"
	Bob   = "bob"
)

// Epoch is the fixed clock every harness engine uses.
var Epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// CardSpec defines the properties of a test card. Zero fields get defaults.
type CardSpec struct {
	ID      string
	Base    string
	Name    string
	Power   power.Vector
	Ability card.AbilityID
	Params  card.AbilityParams
	Tags    []string
}

// Harness holds an engine and the state it is driving.
type Harness struct {
	t      testing.TB
	Engine *game.Engine
	State  *game.GameState
	seq    int
}

// New creates an active 4x4 game between Alice and Bob with empty hands.
func New(t testing.TB, abilities game.AbilityProvider, opts ...game.Option) *Harness {
	t.Helper()
	opts = append([]game.Option{game.WithClock(func() time.Time { return Epoch })}, opts...)
	engine := game.NewEngine(zaptest.NewLogger(t), abilities, opts...)

	return &Harness{
		t:      t,
		Engine: engine,
		State: &game.GameState{
			ID:              "test-game",
			Mode:            game.ModePvP,
			Board:           board.New(engine.Rules().BoardSize),
			Player1:         &game.Player{UserID: Alice, Hand: []string{}, Deck: []string{}, Discard: []string{}},
			Player2:         &game.Player{UserID: Bob, Hand: []string{}, Deck: []string{}, Discard: []string{}},
			CurrentPlayerID: Alice,
			TurnNumber:      1,
			Status:          rules.StatusActive,
			Cards:           make(map[string]*card.Instance),
			Seed:            1,
		},
	}
}

// Card creates an instance owned by owner without putting it anywhere.
func (h *Harness) Card(owner string, spec CardSpec) *card.Instance {
	h.seq++
	if spec.ID == "" {
		spec.ID = fmt.Sprintf("card-%d", h.seq)
	}
	if spec.Base == "" {
		spec.Base = spec.ID
	}
	if spec.Name == "" {
		spec.Name = spec.Base
	}
	def := card.Definition{
		ID:        spec.Base,
		Name:      spec.Name,
		BasePower: spec.Power,
		Rarity:    card.RarityCommon,
		Tags:      spec.Tags,
	}
	if spec.Ability != "" {
		def.Ability = &card.AbilityRef{ID: spec.Ability, Params: spec.Params}
	}
	return def.Instantiate(spec.ID, owner, 1, power.Vector{})
}

// OnBoard puts a new card straight onto the board, bypassing the engine.
func (h *Harness) OnBoard(owner string, pos board.Position, spec CardSpec) *card.Instance {
	h.t.Helper()
	c := h.Card(owner, spec)
	require.NoError(h.t, h.State.Board.Place(pos, c))
	h.recount()
	return c
}

// InHand adds a new card to the owner's hand.
func (h *Harness) InHand(owner string, spec CardSpec) *card.Instance {
	c := h.Card(owner, spec)
	h.State.Cards[c.InstanceID] = c
	player := h.State.Player(owner)
	player.Hand = append(player.Hand, c.InstanceID)
	return c
}

// InDeck adds a new card to the bottom of the owner's deck.
func (h *Harness) InDeck(owner string, spec CardSpec) *card.Instance {
	c := h.Card(owner, spec)
	h.State.Cards[c.InstanceID] = c
	player := h.State.Player(owner)
	player.Deck = append(player.Deck, c.InstanceID)
	return c
}

// Fill gives the owner n plain 1/1/1/1 cards in hand so that an empty hand
// does not end the game early.
func (h *Harness) Fill(owner string, n int) {
	for range n {
		h.InHand(owner, CardSpec{Power: power.Uniform(1)})
	}
}

// Apply runs an action and keeps the resulting state.
func (h *Harness) Apply(action game.Action) game.Result {
	result := h.Engine.ApplyAction(h.State, action)
	h.State = result.State
	return result
}

// Place plays a card from hand and fails the test when it is rejected.
func (h *Harness) Place(player, instanceID string, pos board.Position) game.Result {
	h.t.Helper()
	result := h.Apply(game.PlaceCard(player, instanceID, pos))
	require.Nil(h.t, result.Rejection, "placing %s at %s", instanceID, pos)
	return result
}

// EndTurn passes the turn and fails the test when it is rejected.
func (h *Harness) EndTurn(player string) game.Result {
	h.t.Helper()
	result := h.Apply(game.EndTurn(player))
	require.Nil(h.t, result.Rejection, "ending turn of %s", player)
	return result
}

// Get returns a card in any zone and fails the test when it is unknown.
func (h *Harness) Get(instanceID string) *card.Instance {
	h.t.Helper()
	c := h.State.Card(instanceID)
	require.NotNil(h.t, c, "card %s", instanceID)
	return c
}

// Owner returns the current owner of a card.
func (h *Harness) Owner(instanceID string) string {
	h.t.Helper()
	return h.Get(instanceID).Owner
}

// Power returns the current, unfloored power of a card.
func (h *Harness) Power(instanceID string) power.Vector {
	h.t.Helper()
	return h.Get(instanceID).CurrentPower
}

// Zone returns where a card currently is.
func (h *Harness) Zone(instanceID string) game.Zone {
	_, zone, _ := h.State.Locate(instanceID)
	return zone
}

// RequireIntegrity fails the test when a card is in two zones or has stale
// power.
func (h *Harness) RequireIntegrity() {
	h.t.Helper()
	require.NoError(h.t, h.State.CheckIntegrity())
}

func (h *Harness) recount() {
	for _, player := range h.State.Players() {
		player.Score = h.State.Board.CountOwned(player.UserID)
	}
}

// OfType filters events by type, keeping their order.
func OfType(events []rules.Event, t rules.EventType) []rules.Event {
	var out []rules.Event
	for _, ev := range events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// Types lists the event types in order.
func Types(events []rules.Event) []rules.EventType {
	out := make([]rules.EventType, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}

// At builds a board position.
func At(x, y int) board.Position {
	return board.Position{X: x, Y: y}
}
