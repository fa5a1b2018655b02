package server

import (
	"encoding/json"

	"github.com/thraizz/gridduel-server/internal/game"
	"github.com/thraizz/gridduel-server/internal/game/rules"
)

// Inbound message types.
const (
	TypeCreate = "create"
	TypeJoin   = "join"
	TypeAction = "action"
	TypeState  = "state"
)

// Outbound message types.
const (
	TypeJoined    = "joined"
	TypeEvent     = "event"
	TypeRejection = "rejection"
	TypeGameOver  = "game_over"
	TypeError     = "error"
)

// WSMessage is the envelope for every message in both directions.
type WSMessage struct {
	Type     string          `json:"type"`
	GameID   string          `json:"game_id,omitempty"`
	PlayerID string          `json:"player_id,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// RejectionData tells the sender why an action was refused. Status is the
// matching gRPC status code name, e.g. "FailedPrecondition".
type RejectionData struct {
	Code    rules.Code        `json:"code"`
	Class   rules.Class       `json:"class"`
	Reason  string            `json:"reason"`
	Details map[string]string `json:"details,omitempty"`
	Status  string            `json:"status"`
	Action  game.ActionType   `json:"action,omitempty"`
}

// GameOverData announces the end of a game.
type GameOverData struct {
	Status rules.Status   `json:"status"`
	Reason string         `json:"reason"`
	Winner *string        `json:"winner"`
	Scores map[string]int `json:"scores"`
	Power  map[string]int `json:"power"`
}

type ErrorData struct {
	Message string `json:"message"`
}

func rejectionData(action game.ActionType, rej *rules.Rejection) RejectionData {
	return RejectionData{
		Code:    rej.Code,
		Class:   rej.Class,
		Reason:  rej.Reason,
		Details: rej.Details,
		Status:  rej.Code.GRPCCode().String(),
		Action:  action,
	}
}

func encode(msgType, gameID, playerID string, data any) ([]byte, error) {
	msg := WSMessage{Type: msgType, GameID: gameID, PlayerID: playerID}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return json.Marshal(msg)
}
