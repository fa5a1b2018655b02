package game_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thraizz/gridduel-server/internal/abilities"
	"github.com/thraizz/gridduel-server/internal/game"
	"github.com/thraizz/gridduel-server/internal/game/board"
	"github.com/thraizz/gridduel-server/internal/game/card"
	"github.com/thraizz/gridduel-server/internal/game/effects"
	gt "github.com/thraizz/gridduel-server/internal/game/gametest"
	"github.com/thraizz/gridduel-server/internal/game/power"
	"github.com/thraizz/gridduel-server/internal/game/rules"
)

// newRegistry returns the built-in catalog plus any test abilities.
func newRegistry(t *testing.T, extra ...*game.Ability) *abilities.Registry {
	t.Helper()
	reg := abilities.NewDefaultRegistry()
	for _, a := range extra {
		require.NoError(t, reg.Register(a))
	}
	return reg
}

func newHarness(t *testing.T, extra ...*game.Ability) *gt.Harness {
	t.Helper()
	return gt.New(t, newRegistry(t, extra...))
}

func TestSimpleFlip(t *testing.T) {
	h := newHarness(t)
	h.OnBoard(gt.Bob, gt.At(1, 0), gt.CardSpec{ID: "defender", Power: power.Uniform(1)})
	h.InHand(gt.Alice, gt.CardSpec{ID: "attacker", Power: power.Uniform(5)})
	h.Fill(gt.Alice, 1)
	h.Fill(gt.Bob, 1)

	result := h.Place(gt.Alice, "attacker", gt.At(1, 1))

	flips := gt.OfType(result.Events, rules.EventCardFlipped)
	require.Len(t, flips, 1)
	assert.Equal(t, "defender", flips[0].CardID)
	assert.Equal(t, "attacker", flips[0].SourceCardID)
	assert.Equal(t, gt.Bob, flips[0].FromOwner)
	assert.Equal(t, gt.Alice, flips[0].ToOwner)
	assert.Equal(t, gt.At(1, 0), *flips[0].Position)

	assert.Equal(t, gt.Alice, h.Owner("defender"))
	assert.Equal(t, []string{"defender"}, h.Get("attacker").Defeats)
	assert.Equal(t, 2, h.State.Player1.Score)
	assert.Equal(t, 0, h.State.Player2.Score)
	assert.Equal(t, gt.Bob, h.State.CurrentPlayerID)
	assert.Equal(t, 2, h.State.TurnNumber)
	h.RequireIntegrity()
}

func TestEventOrderOfAPlacement(t *testing.T) {
	h := newHarness(t)
	h.OnBoard(gt.Bob, gt.At(1, 0), gt.CardSpec{ID: "defender", Power: power.Uniform(1)})
	h.InHand(gt.Alice, gt.CardSpec{ID: "attacker", Power: power.Uniform(5)})
	h.Fill(gt.Alice, 1)
	h.Fill(gt.Bob, 1)

	result := h.Place(gt.Alice, "attacker", gt.At(1, 1))

	assert.Equal(t, []rules.EventType{
		rules.EventCardPlaced,
		rules.EventCardFlipped,
		rules.EventScoreChanged,
		rules.EventScoreChanged,
		rules.EventTurnEnd,
		rules.EventTurnStart,
	}, gt.Types(result.Events))

	for i, ev := range result.Events {
		assert.Equal(t, i+1, ev.Sequence)
		assert.NotEmpty(t, ev.ID)
		assert.Equal(t, gt.Epoch, ev.Timestamp)
	}

	// sequence numbers continue across actions
	next := h.EndTurn(gt.Bob)
	require.NotEmpty(t, next.Events)
	assert.Equal(t, len(result.Events)+1, next.Events[0].Sequence)
}

func TestTieNeverFlips(t *testing.T) {
	h := newHarness(t)
	h.OnBoard(gt.Bob, gt.At(1, 0), gt.CardSpec{ID: "defender", Power: power.Uniform(5)})
	h.InHand(gt.Alice, gt.CardSpec{ID: "attacker", Power: power.Uniform(5)})
	h.Fill(gt.Alice, 1)
	h.Fill(gt.Bob, 1)

	result := h.Place(gt.Alice, "attacker", gt.At(1, 1))

	assert.Empty(t, gt.OfType(result.Events, rules.EventCardFlipped))
	assert.Equal(t, gt.Bob, h.Owner("defender"))
}

func TestCombatComparesFlooredPower(t *testing.T) {
	h := newHarness(t)
	defender := h.OnBoard(gt.Bob, gt.At(1, 0), gt.CardSpec{ID: "defender", Power: power.Uniform(1)})
	defender.ApplyEffect(effects.Permanent("curse", power.Uniform(-4), ""))
	require.Equal(t, -3, defender.CurrentPower.Bottom)

	h.InHand(gt.Alice, gt.CardSpec{ID: "attacker", Power: power.Vector{}})
	h.Fill(gt.Alice, 1)
	h.Fill(gt.Bob, 1)

	result := h.Place(gt.Alice, "attacker", gt.At(1, 1))

	// 0 against a floored 0 is a tie
	assert.Empty(t, gt.OfType(result.Events, rules.EventCardFlipped))
	assert.Equal(t, gt.Bob, h.Owner("defender"))
}

func TestCombatUsesFacingSides(t *testing.T) {
	h := newHarness(t)
	// left neighbour faces the attacker with its right side
	h.OnBoard(gt.Bob, gt.At(0, 1), gt.CardSpec{ID: "strong-right", Power: power.Vector{Top: 1, Right: 9, Bottom: 1, Left: 1}})
	// right neighbour faces it with its left side
	h.OnBoard(gt.Bob, gt.At(2, 1), gt.CardSpec{ID: "weak-left", Power: power.Vector{Top: 9, Right: 9, Bottom: 9, Left: 2}})
	h.InHand(gt.Alice, gt.CardSpec{ID: "attacker", Power: power.Vector{Top: 0, Right: 3, Bottom: 0, Left: 3}})
	h.Fill(gt.Alice, 1)
	h.Fill(gt.Bob, 1)

	result := h.Place(gt.Alice, "attacker", gt.At(1, 1))

	flips := gt.OfType(result.Events, rules.EventCardFlipped)
	require.Len(t, flips, 1)
	assert.Equal(t, "weak-left", flips[0].CardID)
	assert.Equal(t, gt.Bob, h.Owner("strong-right"))
}

func TestCombatVisitsNeighboursInSideOrder(t *testing.T) {
	h := newHarness(t)
	h.OnBoard(gt.Bob, gt.At(0, 1), gt.CardSpec{ID: "left", Power: power.Uniform(1)})
	h.OnBoard(gt.Bob, gt.At(1, 2), gt.CardSpec{ID: "bottom", Power: power.Uniform(1)})
	h.OnBoard(gt.Bob, gt.At(2, 1), gt.CardSpec{ID: "right", Power: power.Uniform(1)})
	h.OnBoard(gt.Bob, gt.At(1, 0), gt.CardSpec{ID: "top", Power: power.Uniform(1)})
	h.InHand(gt.Alice, gt.CardSpec{ID: "attacker", Power: power.Uniform(5)})
	h.Fill(gt.Alice, 1)
	h.Fill(gt.Bob, 1)

	result := h.Place(gt.Alice, "attacker", gt.At(1, 1))

	var order []string
	for _, ev := range gt.OfType(result.Events, rules.EventCardFlipped) {
		order = append(order, ev.CardID)
	}
	assert.Equal(t, []string{"top", "right", "bottom", "left"}, order)
	assert.Equal(t, 5, h.State.Player1.Score)
}

func TestLockedCardsAreNeverFlipped(t *testing.T) {
	h := newHarness(t)
	defender := h.OnBoard(gt.Bob, gt.At(1, 0), gt.CardSpec{ID: "defender", Power: power.Uniform(1)})
	defender.LockedTurns = 2
	h.InHand(gt.Alice, gt.CardSpec{ID: "attacker", Power: power.Uniform(9)})
	h.InHand(gt.Alice, gt.CardSpec{ID: "breaker", Power: power.Uniform(1), Ability: abilities.IDStormBreaker})
	h.Fill(gt.Bob, 2)

	result := h.Place(gt.Alice, "attacker", gt.At(1, 1))
	assert.Empty(t, gt.OfType(result.Events, rules.EventCardFlipped))
	assert.Equal(t, gt.Bob, h.Owner("defender"))

	// locks count down at the end of the owner's turns
	h.EndTurn(gt.Bob)
	assert.Equal(t, 1, h.Get("defender").LockedTurns)

	// ability flips respect locks too
	result = h.Place(gt.Alice, "breaker", gt.At(3, 0))
	assert.Empty(t, gt.OfType(result.Events, rules.EventCardFlipped))
	assert.Equal(t, gt.Bob, h.Owner("defender"))

	result = h.EndTurn(gt.Bob)
	assert.False(t, h.Get("defender").Locked())
	unlocked := gt.OfType(result.Events, rules.EventCardLocked)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "0", unlocked[0].Metadata["turns"])
}

func TestRejectedActionsLeaveStateUntouched(t *testing.T) {
	h := newHarness(t)
	h.OnBoard(gt.Bob, gt.At(0, 0), gt.CardSpec{ID: "occupant", Power: power.Uniform(1)})
	h.InHand(gt.Alice, gt.CardSpec{ID: "mine", Power: power.Uniform(5)})
	h.InHand(gt.Bob, gt.CardSpec{ID: "theirs", Power: power.Uniform(5)})
	require.NoError(t, h.State.Board.SetTileEffect(gt.At(3, 3), board.TileEffect{Status: board.StatusBlocked, TurnsRemaining: 2}))

	tests := []struct {
		name   string
		action game.Action
		code   rules.Code
	}{
		{"not your turn", game.PlaceCard(gt.Bob, "theirs", gt.At(2, 2)), rules.CodeNotYourTurn},
		{"unknown player", game.PlaceCard("mallory", "mine", gt.At(2, 2)), rules.CodeUnknownPlayer},
		{"card not in hand", game.PlaceCard(gt.Alice, "theirs", gt.At(2, 2)), rules.CodeCardNotInHand},
		{"missing card", game.PlaceCard(gt.Alice, "", gt.At(2, 2)), rules.CodeInvalidAction},
		{"out of bounds", game.PlaceCard(gt.Alice, "mine", gt.At(4, 0)), rules.CodePositionOutOfBounds},
		{"occupied", game.PlaceCard(gt.Alice, "mine", gt.At(0, 0)), rules.CodeTileOccupied},
		{"disabled", game.PlaceCard(gt.Alice, "mine", gt.At(3, 3)), rules.CodeTileDisabled},
		{"end turn out of turn", game.EndTurn(gt.Bob), rules.CodeNotYourTurn},
		{"unknown action", game.Action{Type: "dance", PlayerID: gt.Alice}, rules.CodeInvalidAction},
		{"restart", game.Action{Type: game.ActionStart}, rules.CodeGameNotActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := h.State.Clone()
			checksum, err := h.State.Checksum()
			require.NoError(t, err)

			result := h.Engine.ApplyAction(h.State, tt.action)

			require.NotNil(t, result.Rejection)
			assert.Equal(t, tt.code, result.Rejection.Code)
			assert.Equal(t, rules.ClassValidation, result.Rejection.Class)
			assert.Same(t, h.State, result.State)
			assert.Empty(t, result.Events)
			assert.Equal(t, before, h.State)

			after, err := h.State.Checksum()
			require.NoError(t, err)
			assert.Equal(t, checksum, after)
		})
	}
}

func TestActionsOnFinishedGameAreRejected(t *testing.T) {
	h := newHarness(t)
	h.InHand(gt.Alice, gt.CardSpec{ID: "mine", Power: power.Uniform(1)})

	result := h.Apply(game.Surrender(gt.Bob))
	require.Nil(t, result.Rejection)

	result = h.Apply(game.PlaceCard(gt.Alice, "mine", gt.At(0, 0)))
	require.NotNil(t, result.Rejection)
	assert.Equal(t, rules.CodeGameNotActive, result.Rejection.Code)

	result = h.Apply(game.Surrender(gt.Alice))
	require.NotNil(t, result.Rejection)
	assert.Equal(t, rules.CodeGameNotActive, result.Rejection.Code)
}

func TestSurrender(t *testing.T) {
	h := newHarness(t)
	h.Fill(gt.Alice, 1)

	result := h.Apply(game.Surrender(gt.Bob))
	require.Nil(t, result.Rejection)

	assert.Equal(t, rules.StatusAborted, h.State.Status)
	require.NotNil(t, h.State.Winner)
	assert.Equal(t, gt.Alice, *h.State.Winner)

	over := gt.OfType(result.Events, rules.EventGameOver)
	require.Len(t, over, 1)
	assert.Equal(t, "surrender", over[0].Metadata["reason"])
	assert.Equal(t, gt.Alice, over[0].PlayerID)

	result = h.Engine.ApplyAction(h.State, game.Surrender("mallory"))
	require.NotNil(t, result.Rejection)
}

func TestSameInputSameOutcome(t *testing.T) {
	build := func() *gt.Harness {
		h := newHarness(t)
		h.OnBoard(gt.Bob, gt.At(0, 0), gt.CardSpec{ID: "b1", Power: power.Uniform(1)})
		h.OnBoard(gt.Bob, gt.At(3, 3), gt.CardSpec{ID: "b2", Power: power.Uniform(1)})
		h.OnBoard(gt.Alice, gt.At(3, 0), gt.CardSpec{ID: "a1", Power: power.Uniform(1)})
		h.OnBoard(gt.Alice, gt.At(0, 3), gt.CardSpec{ID: "a2", Power: power.Uniform(1)})
		h.InHand(gt.Alice, gt.CardSpec{ID: "gambit", Power: power.Uniform(1), Ability: abilities.IDTrickstersGambit})
		h.InHand(gt.Alice, gt.CardSpec{ID: "lava", Power: power.Uniform(1), Ability: abilities.IDLavaBurst})
		h.Fill(gt.Bob, 3)
		return h
	}
	play := func(h *gt.Harness) ([]rules.Event, string) {
		var events []rules.Event
		events = append(events, h.Place(gt.Alice, "gambit", gt.At(1, 2)).Events...)
		events = append(events, h.EndTurn(gt.Bob).Events...)
		events = append(events, h.Place(gt.Alice, "lava", gt.At(2, 1)).Events...)
		checksum, err := h.State.Checksum()
		require.NoError(t, err)
		return events, checksum
	}

	first, firstSum := play(build())
	second, secondSum := play(build())

	assert.Equal(t, first, second)
	assert.Equal(t, firstSum, secondSum)
	assert.Len(t, gt.OfType(first, rules.EventCardOwnerChanged), 2)
	assert.Len(t, gt.OfType(first, rules.EventTileStateChanged), 1)

	// applying one action twice to the same state gives the same result
	h := build()
	a := h.Engine.ApplyAction(h.State, game.PlaceCard(gt.Alice, "lava", gt.At(1, 1)))
	b := h.Engine.ApplyAction(h.State, game.PlaceCard(gt.Alice, "lava", gt.At(1, 1)))
	require.Nil(t, a.Rejection)
	assert.Equal(t, a.Events, b.Events)
	assert.Equal(t, a.State, b.State)
}

func TestCardsAreConserved(t *testing.T) {
	h := newHarness(t)
	h.OnBoard(gt.Bob, gt.At(1, 0), gt.CardSpec{ID: "weak", Power: power.Uniform(1), Ability: abilities.IDHomecoming})
	h.OnBoard(gt.Bob, gt.At(0, 1), gt.CardSpec{ID: "victim", Power: power.Uniform(1)})
	h.InHand(gt.Alice, gt.CardSpec{ID: "attacker", Power: power.Uniform(5)})
	h.InHand(gt.Alice, gt.CardSpec{ID: "banisher", Power: power.Uniform(0), Ability: abilities.IDBanish})
	h.InHand(gt.Alice, gt.CardSpec{ID: "scout", Power: power.Uniform(0), Ability: abilities.IDRavenScout})
	h.InDeck(gt.Alice, gt.CardSpec{ID: "drawn", Power: power.Uniform(1)})
	h.InDeck(gt.Alice, gt.CardSpec{ID: "drawn-2", Power: power.Uniform(1)})
	h.Fill(gt.Bob, 3)
	ids := h.State.InstanceIDs()

	h.Place(gt.Alice, "attacker", gt.At(2, 0))
	h.RequireIntegrity()
	assert.Equal(t, game.ZoneHand, h.Zone("weak"))
	h.EndTurn(gt.Bob)
	h.Place(gt.Alice, "banisher", gt.At(0, 2))
	h.RequireIntegrity()
	h.EndTurn(gt.Bob)
	h.Place(gt.Alice, "scout", gt.At(3, 3))
	h.RequireIntegrity()

	assert.Equal(t, ids, h.State.InstanceIDs())
	assert.Equal(t, game.ZoneDiscard, h.Zone("victim"))
	assert.Contains(t, h.State.Player2.Discard, "victim")
	assert.Equal(t, game.ZoneHand, h.Zone("drawn"))
	assert.Equal(t, game.ZoneHand, h.Zone("drawn-2"))
}

func TestPowerStaysDerived(t *testing.T) {
	h := newHarness(t)
	h.OnBoard(gt.Bob, gt.At(1, 0), gt.CardSpec{ID: "avenger", Power: power.Uniform(1), Ability: abilities.IDVengeance})
	h.OnBoard(gt.Alice, gt.At(0, 0), gt.CardSpec{ID: "ally", Power: power.Uniform(1)})
	h.InHand(gt.Alice, gt.CardSpec{ID: "berserker", Power: power.Uniform(4), Ability: abilities.IDBerserker})
	h.InHand(gt.Alice, gt.CardSpec{ID: "seer", Power: power.Uniform(1), Ability: abilities.IDForesight})
	h.Fill(gt.Bob, 3)

	h.Place(gt.Alice, "berserker", gt.At(1, 1))
	h.RequireIntegrity()
	// +1 for the capture, -1 from vengeance until Alice's next turn ends
	assert.Equal(t, power.Uniform(4), h.Power("berserker"))

	h.EndTurn(gt.Bob)
	h.Place(gt.Alice, "seer", gt.At(3, 3))
	h.RequireIntegrity()
	// vengeance expired at the end of this turn, foresight is permanent
	assert.Equal(t, power.Uniform(6), h.Power("berserker"))
	assert.Equal(t, power.Uniform(2), h.Power("ally"))
}

func TestScoreChangedEvents(t *testing.T) {
	h := newHarness(t)
	h.OnBoard(gt.Bob, gt.At(1, 0), gt.CardSpec{ID: "defender", Power: power.Uniform(1)})
	h.InHand(gt.Alice, gt.CardSpec{ID: "attacker", Power: power.Uniform(5)})
	h.Fill(gt.Alice, 1)
	h.Fill(gt.Bob, 1)

	result := h.Place(gt.Alice, "attacker", gt.At(1, 1))

	scores := gt.OfType(result.Events, rules.EventScoreChanged)
	require.Len(t, scores, 2)
	assert.Equal(t, gt.Alice, scores[0].PlayerID)
	assert.Equal(t, "2", scores[0].Metadata["score"])
	assert.Equal(t, "2", scores[0].Metadata["delta"])
	assert.Equal(t, gt.Bob, scores[1].PlayerID)
	assert.Equal(t, "0", scores[1].Metadata["score"])
	assert.Equal(t, "-1", scores[1].Metadata["delta"])
}

func TestUnknownAbilityAbortsTheAction(t *testing.T) {
	h := newHarness(t)
	h.InHand(gt.Alice, gt.CardSpec{ID: "mystery", Power: power.Uniform(1), Ability: card.AbilityID("does_not_exist")})
	h.Fill(gt.Bob, 1)
	before := h.State

	result := h.Apply(game.PlaceCard(gt.Alice, "mystery", gt.At(0, 0)))

	require.NotNil(t, result.Rejection)
	assert.Equal(t, rules.CodeUnknownAbility, result.Rejection.Code)
	assert.Equal(t, rules.ClassInvariant, result.Rejection.Class)
	assert.Same(t, before, result.State)
	assert.Nil(t, h.State.Board.CardAt(gt.At(0, 0)))
	assert.True(t, h.State.Player1.InHand("mystery"))
}

func TestPanickingAbilityBecomesInvariantViolation(t *testing.T) {
	faulty := &game.Ability{
		ID:       "faulty",
		Name:     "Faulty",
		Triggers: []rules.Moment{rules.MomentOnPlace},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			var missing *card.Instance
			return []game.Intent{game.Flip{Target: missing.InstanceID}}
		},
	}
	h := newHarness(t, faulty)
	h.InHand(gt.Alice, gt.CardSpec{ID: "bad", Power: power.Uniform(1), Ability: "faulty"})
	h.Fill(gt.Bob, 1)
	before := h.State

	result := h.Apply(game.PlaceCard(gt.Alice, "bad", gt.At(0, 0)))

	require.NotNil(t, result.Rejection)
	assert.Equal(t, rules.CodeInvariantViolation, result.Rejection.Code)
	assert.Contains(t, result.Rejection.Details, "panic")
	assert.Same(t, before, result.State)
	assert.True(t, h.State.Player1.InHand("bad"))
}

func TestEventBusReceivesAcceptedEvents(t *testing.T) {
	bus := rules.NewEventBus()
	var received []rules.Event
	bus.Subscribe(func(gameID string, ev rules.Event) {
		assert.Equal(t, "test-game", gameID)
		received = append(received, ev)
	})
	var flips int
	bus.SubscribeTyped(rules.EventCardFlipped, func(string, rules.Event) { flips++ })

	h := gt.New(t, newRegistry(t), game.WithEventBus(bus))
	h.OnBoard(gt.Bob, gt.At(1, 0), gt.CardSpec{ID: "defender", Power: power.Uniform(1)})
	h.InHand(gt.Alice, gt.CardSpec{ID: "attacker", Power: power.Uniform(5)})
	h.Fill(gt.Alice, 1)
	h.Fill(gt.Bob, 1)

	// rejected actions publish nothing
	h.Apply(game.EndTurn(gt.Bob))
	assert.Empty(t, received)

	result := h.Place(gt.Alice, "attacker", gt.At(1, 1))
	assert.Equal(t, result.Events, received)
	assert.Equal(t, 1, flips)
}

func TestCustomRules(t *testing.T) {
	h := gt.New(t, newRegistry(t), game.WithRules(game.Rules{BoardSize: 3, HandSize: 2, DrawPerTurn: 2}))
	assert.Equal(t, 3, h.State.Board.Size)
	assert.Equal(t, 2, h.Engine.Rules().HandSize)
	assert.Equal(t, game.DefaultRules().MaxCascadeDepth, h.Engine.Rules().MaxCascadeDepth)

	h.InHand(gt.Alice, gt.CardSpec{ID: "a", Power: power.Uniform(1)})
	h.Fill(gt.Alice, 1)
	h.Fill(gt.Bob, 1)
	for range 4 {
		h.InDeck(gt.Bob, gt.CardSpec{Power: power.Uniform(1)})
	}

	result := h.Place(gt.Alice, "a", gt.At(2, 2))
	// Bob holds one card and may hold two, so only one is drawn
	assert.Len(t, gt.OfType(result.Events, rules.EventCardDrawn), 1)
	assert.Len(t, h.State.Player2.Hand, 2)

	result = h.Apply(game.PlaceCard(gt.Bob, h.State.Player2.Hand[0], gt.At(3, 0)))
	require.NotNil(t, result.Rejection)
	assert.Equal(t, rules.CodePositionOutOfBounds, result.Rejection.Code)
}

func TestOriginOnlyReachesReactiveMoments(t *testing.T) {
	origins := map[rules.Moment][]string{}
	witness := &game.Ability{
		ID:       "witness",
		Name:     "Witness",
		Triggers: []rules.Moment{rules.MomentOnPlace, rules.MomentAnyOnPlace},
		Handler: func(ctx *game.TriggerContext) []game.Intent {
			id := ""
			if ctx.Origin != nil {
				id = ctx.Origin.InstanceID
			}
			origins[ctx.Moment] = append(origins[ctx.Moment], id)
			return nil
		},
	}
	h := newHarness(t, witness)
	h.InHand(gt.Alice, gt.CardSpec{ID: "eye", Power: power.Uniform(1), Ability: "witness"})
	h.Fill(gt.Alice, 1)
	h.InHand(gt.Bob, gt.CardSpec{ID: "walker", Power: power.Uniform(1)})
	h.Fill(gt.Bob, 1)

	h.Place(gt.Alice, "eye", gt.At(0, 0))
	h.Place(gt.Bob, "walker", gt.At(3, 3))

	assert.Equal(t, []string{""}, origins[rules.MomentOnPlace])
	assert.Equal(t, []string{"walker"}, origins[rules.MomentAnyOnPlace])
}
