package game

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"

	"github.com/google/uuid"

	"github.com/thraizz/gridduel-server/internal/game/board"
	"github.com/thraizz/gridduel-server/internal/game/card"
	"github.com/thraizz/gridduel-server/internal/game/power"
	"github.com/thraizz/gridduel-server/internal/game/rules"
)

// ErrUnknownCard is returned when a deck references a card the catalog does
// not contain.
var ErrUnknownCard = errors.New("unknown card")

// ErrInvalidGameID is returned for game ids that are not safe to use as a
// file or key name.
var ErrInvalidGameID = errors.New("invalid game id")

var gameIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateGameID accepts uuids and ids made of letters, digits, '_' and '-'.
func ValidateGameID(id string) error {
	if !gameIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidGameID, id)
	}
	return nil
}

// CardLookup resolves base card ids to their definitions.
type CardLookup interface {
	Lookup(baseCardID string) (card.Definition, bool)
}

// DeckEntry is one owned card a player brings into the match.
type DeckEntry struct {
	BaseCardID   string       `json:"baseCardId"`
	Level        int          `json:"level"`
	Enhancements power.Vector `json:"powerEnhancements"`
}

// Seat is a player and their deck.
type Seat struct {
	UserID string      `json:"userId"`
	Deck   []DeckEntry `json:"deck"`
}

// Setup describes a match to create.
type Setup struct {
	ID      string `json:"id"`
	Mode    Mode   `json:"mode"`
	Seed    int64  `json:"seed"`
	Player1 Seat   `json:"player1"`
	Player2 Seat   `json:"player2"`
}

// NewGame hydrates both decks, shuffles them with the match seed and deals
// the opening hands. The game starts Pending; Engine.Start activates it.
func (e *Engine) NewGame(setup Setup, cards CardLookup) (*GameState, error) {
	if setup.Player1.UserID == "" || setup.Player2.UserID == "" {
		return nil, errors.New("both players are required")
	}
	if setup.Player1.UserID == setup.Player2.UserID {
		return nil, fmt.Errorf("player %s cannot play against themselves", setup.Player1.UserID)
	}
	if setup.ID != "" {
		if err := ValidateGameID(setup.ID); err != nil {
			return nil, err
		}
	}
	if setup.Mode == "" {
		setup.Mode = ModePvP
	}

	rng := rand.New(rand.NewSource(streamSeed(setup.Seed, -1, 2)))
	state := &GameState{
		ID:              setup.ID,
		Mode:            setup.Mode,
		Board:           board.New(e.rules.BoardSize),
		CurrentPlayerID: setup.Player1.UserID,
		TurnNumber:      1,
		Status:          rules.StatusPending,
		Cards:           make(map[string]*card.Instance),
		Seed:            setup.Seed,
	}
	if state.ID == "" {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return nil, fmt.Errorf("generate game id: %w", err)
		}
		state.ID = id.String()
	}

	for i, seat := range []Seat{setup.Player1, setup.Player2} {
		player := &Player{UserID: seat.UserID}
		for _, entry := range seat.Deck {
			def, ok := cards.Lookup(entry.BaseCardID)
			if !ok {
				return nil, fmt.Errorf("deck of %s: %w: %s", seat.UserID, ErrUnknownCard, entry.BaseCardID)
			}
			id, err := uuid.NewRandomFromReader(rng)
			if err != nil {
				return nil, fmt.Errorf("generate instance id: %w", err)
			}
			c := def.Instantiate(id.String(), seat.UserID, entry.Level, entry.Enhancements)
			state.Cards[c.InstanceID] = c
			player.Deck = append(player.Deck, c.InstanceID)
		}
		rng.Shuffle(len(player.Deck), func(a, b int) {
			player.Deck[a], player.Deck[b] = player.Deck[b], player.Deck[a]
		})
		deal := min(e.rules.HandSize, len(player.Deck))
		player.Hand = append(player.Hand, player.Deck[:deal]...)
		player.Deck = append([]string(nil), player.Deck[deal:]...)

		if i == 0 {
			state.Player1 = player
		} else {
			state.Player2 = player
		}
	}
	return state, nil
}
