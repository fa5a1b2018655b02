package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/thraizz/gridduel-server/internal/game"
	"github.com/thraizz/gridduel-server/internal/game/rules"
)

// GameRepository stores finished games.
type GameRepository struct {
	db *DB
}

func NewGameRepository(db *DB) *GameRepository {
	return &GameRepository{db: db}
}

// GameSummary is the indexed part of a stored game.
type GameSummary struct {
	ID           string
	Mode         game.Mode
	Status       rules.Status
	Player1ID    string
	Player2ID    string
	Player1Score int
	Player2Score int
	WinnerID     *string
	TurnNumber   int
	Checksum     string
	FinishedAt   time.Time
}

// SaveGame writes the final state and its event log. Saving the same game
// twice overwrites the earlier row.
func (r *GameRepository) SaveGame(ctx context.Context, state *game.GameState, events []rules.Event) error {
	if state == nil {
		return errors.New("save game: nil state")
	}
	stateJSON, err := game.Marshal(state)
	if err != nil {
		return fmt.Errorf("save game %s: %w", state.ID, err)
	}
	if events == nil {
		events = []rules.Event{}
	}
	eventsJSON, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("save game %s events: %w", state.ID, err)
	}
	checksum, err := state.Checksum()
	if err != nil {
		return fmt.Errorf("save game %s: %w", state.ID, err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO games (id, mode, status, player1_id, player2_id, player1_score, player2_score,
			winner_id, turn_number, checksum, game_state, game_events, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			player1_score = EXCLUDED.player1_score,
			player2_score = EXCLUDED.player2_score,
			winner_id = EXCLUDED.winner_id,
			turn_number = EXCLUDED.turn_number,
			checksum = EXCLUDED.checksum,
			game_state = EXCLUDED.game_state,
			game_events = EXCLUDED.game_events,
			finished_at = now()`,
		state.ID, string(state.Mode), string(state.Status),
		state.Player1.UserID, state.Player2.UserID, state.Player1.Score, state.Player2.Score,
		state.Winner, state.TurnNumber, checksum, stateJSON, eventsJSON,
	)
	if err != nil {
		return fmt.Errorf("save game %s: %w", state.ID, err)
	}
	if r.db.logger != nil {
		r.db.logger.Debug("game saved",
			zap.String("game_id", state.ID),
			zap.String("status", string(state.Status)),
			zap.Int("events", len(events)),
		)
	}
	return nil
}

// LoadGame returns the stored final state of a game.
func (r *GameRepository) LoadGame(ctx context.Context, id string) (*game.GameState, error) {
	var data []byte
	err := r.db.QueryRow(ctx, "SELECT game_state FROM games WHERE id = $1", id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}
	return game.Unmarshal(data)
}

// LoadEvents returns the stored event log of a game.
func (r *GameRepository) LoadEvents(ctx context.Context, id string) ([]rules.Event, error) {
	var data []byte
	err := r.db.QueryRow(ctx, "SELECT game_events FROM games WHERE id = $1", id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load events %s: %w", id, err)
	}
	var events []rules.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("decode events %s: %w", id, err)
	}
	return events, nil
}

// ListByPlayer returns the most recent games a player took part in.
func (r *GameRepository) ListByPlayer(ctx context.Context, userID string, limit int) ([]GameSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, mode, status, player1_id, player2_id, player1_score, player2_score,
			winner_id, turn_number, checksum, finished_at
		FROM games
		WHERE player1_id = $1 OR player2_id = $1
		ORDER BY finished_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list games for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []GameSummary
	for rows.Next() {
		var g GameSummary
		var mode, status string
		if err := rows.Scan(&g.ID, &mode, &status, &g.Player1ID, &g.Player2ID, &g.Player1Score, &g.Player2Score,
			&g.WinnerID, &g.TurnNumber, &g.Checksum, &g.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		g.Mode = game.Mode(mode)
		g.Status = rules.Status(status)
		out = append(out, g)
	}
	return out, rows.Err()
}
