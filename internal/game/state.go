package game

import (
	"fmt"
	"maps"
	"slices"

	"github.com/thraizz/gridduel-server/internal/game/board"
	"github.com/thraizz/gridduel-server/internal/game/card"
	"github.com/thraizz/gridduel-server/internal/game/rules"
)

// Mode is the kind of match being played.
type Mode string

const (
	ModeSolo  Mode = "solo"
	ModePvP   Mode = "pvp"
	ModeTower Mode = "tower"
	ModeStory Mode = "story"
)

// Zone is where a card instance currently lives.
type Zone string

const (
	ZoneNone    Zone = ""
	ZoneHand    Zone = "hand"
	ZoneDeck    Zone = "deck"
	ZoneDiscard Zone = "discard"
	ZoneBoard   Zone = "board"
)

// Player is one side of the duel. Hand, Deck and Discard hold instance ids
// whose cards live in GameState.Cards.
type Player struct {
	UserID  string   `json:"userId"`
	Hand    []string `json:"hand"`
	Deck    []string `json:"deck"`
	Discard []string `json:"discardPile"`
	Score   int      `json:"score"`
}

func (p *Player) clone() *Player {
	if p == nil {
		return nil
	}
	return &Player{
		UserID:  p.UserID,
		Hand:    slices.Clone(p.Hand),
		Deck:    slices.Clone(p.Deck),
		Discard: slices.Clone(p.Discard),
		Score:   p.Score,
	}
}

// InHand reports whether instanceID is in the player's hand.
func (p *Player) InHand(instanceID string) bool {
	return slices.Contains(p.Hand, instanceID)
}

func removeID(ids []string, id string) ([]string, bool) {
	i := slices.Index(ids, id)
	if i < 0 {
		return ids, false
	}
	return slices.Delete(ids, i, i+1), true
}

// GameState is the complete, serialisable state of one match. Cards on the
// board live in their tile; every other instance lives in Cards.
type GameState struct {
	ID              string                    `json:"id"`
	Mode            Mode                      `json:"mode"`
	Board           *board.Board              `json:"board"`
	Player1         *Player                   `json:"player1"`
	Player2         *Player                   `json:"player2"`
	CurrentPlayerID string                    `json:"currentPlayerId"`
	TurnNumber      int                       `json:"turnNumber"`
	Status          rules.Status              `json:"status"`
	Winner          *string                   `json:"winner"`
	Cards           map[string]*card.Instance `json:"hydratedCardCache"`
	Seed            int64                     `json:"seed"`
	ActionCount     int                       `json:"actionCount"`
	EventCount      int                       `json:"eventCount"`
}

// Clone returns a deep copy of the state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	out.Board = s.Board.Clone()
	out.Player1 = s.Player1.clone()
	out.Player2 = s.Player2.clone()
	if s.Winner != nil {
		winner := *s.Winner
		out.Winner = &winner
	}
	out.Cards = make(map[string]*card.Instance, len(s.Cards))
	for id, c := range s.Cards {
		out.Cards[id] = c.Clone()
	}
	return &out
}

// Player returns the player with the given user id.
func (s *GameState) Player(userID string) *Player {
	switch {
	case s.Player1 != nil && s.Player1.UserID == userID:
		return s.Player1
	case s.Player2 != nil && s.Player2.UserID == userID:
		return s.Player2
	default:
		return nil
	}
}

// Opponent returns the other player.
func (s *GameState) Opponent(userID string) *Player {
	switch userID {
	case s.Player1.UserID:
		return s.Player2
	case s.Player2.UserID:
		return s.Player1
	default:
		return nil
	}
}

// Players returns both players in seating order.
func (s *GameState) Players() []*Player {
	return []*Player{s.Player1, s.Player2}
}

func (s *GameState) turns() *rules.TurnManager {
	return rules.NewTurnManager(s.Player1.UserID, s.Player2.UserID)
}

// Locate finds a card instance wherever it is.
func (s *GameState) Locate(instanceID string) (*card.Instance, Zone, *board.Position) {
	if p, ok := s.Board.Find(instanceID); ok {
		return s.Board.CardAt(p), ZoneBoard, &p
	}
	c, ok := s.Cards[instanceID]
	if !ok {
		return nil, ZoneNone, nil
	}
	for _, player := range s.Players() {
		switch {
		case slices.Contains(player.Hand, instanceID):
			return c, ZoneHand, nil
		case slices.Contains(player.Deck, instanceID):
			return c, ZoneDeck, nil
		case slices.Contains(player.Discard, instanceID):
			return c, ZoneDiscard, nil
		}
	}
	return c, ZoneNone, nil
}

// Card returns a card instance in any zone.
func (s *GameState) Card(instanceID string) *card.Instance {
	c, _, _ := s.Locate(instanceID)
	return c
}

// HandCards returns the instances in the player's hand, in hand order.
func (s *GameState) HandCards(userID string) []*card.Instance {
	player := s.Player(userID)
	if player == nil {
		return nil
	}
	out := make([]*card.Instance, 0, len(player.Hand))
	for _, id := range player.Hand {
		if c, ok := s.Cards[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// InstanceIDs lists every card id the state knows about, sorted.
func (s *GameState) InstanceIDs() []string {
	ids := slices.Collect(maps.Keys(s.Cards))
	for _, occ := range s.Board.Cards() {
		ids = append(ids, occ.Card.InstanceID)
	}
	slices.Sort(ids)
	return ids
}

// CheckIntegrity verifies that every instance lives in exactly one zone and
// that derived power is current.
func (s *GameState) CheckIntegrity() error {
	seen := make(map[string]Zone)
	mark := func(id string, zone Zone) error {
		if prev, dup := seen[id]; dup {
			return fmt.Errorf("card %s is in both %s and %s", id, prev, zone)
		}
		seen[id] = zone
		return nil
	}
	for _, occ := range s.Board.Cards() {
		if err := mark(occ.Card.InstanceID, ZoneBoard); err != nil {
			return err
		}
		if _, cached := s.Cards[occ.Card.InstanceID]; cached {
			return fmt.Errorf("board card %s is also in the card cache", occ.Card.InstanceID)
		}
	}
	for _, player := range s.Players() {
		for zone, ids := range map[Zone][]string{ZoneHand: player.Hand, ZoneDeck: player.Deck, ZoneDiscard: player.Discard} {
			for _, id := range ids {
				if _, ok := s.Cards[id]; !ok {
					return fmt.Errorf("card %s in %s of %s has no instance", id, zone, player.UserID)
				}
				if err := mark(id, zone); err != nil {
					return err
				}
			}
		}
	}
	for id, c := range s.Cards {
		if _, ok := seen[id]; !ok {
			return fmt.Errorf("card %s is in no zone", id)
		}
		if err := checkPower(c); err != nil {
			return err
		}
	}
	for _, occ := range s.Board.Cards() {
		if err := checkPower(occ.Card); err != nil {
			return err
		}
	}
	return nil
}

func checkPower(c *card.Instance) error {
	want := c.BasePower.Add(c.Enhancements).Add(c.Effects.Sum())
	if want != c.CurrentPower {
		return fmt.Errorf("card %s has stale power %s, expected %s", c.InstanceID, c.CurrentPower, want)
	}
	return nil
}

// stateView adapts GameState to the legality checker.
type stateView struct {
	s *GameState
}

func (v stateView) GameStatus() rules.Status { return v.s.Status }
func (v stateView) CurrentPlayer() string { return v.s.CurrentPlayerID }
func (v stateView) GameBoard() *board.Board { return v.s.Board }

func (v stateView) HasPlayer(playerID string) bool {
	return playerID != "" && v.s.Player(playerID) != nil
}

func (v stateView) InHand(playerID, instanceID string) bool {
	player := v.s.Player(playerID)
	return player != nil && player.InHand(instanceID)
}
