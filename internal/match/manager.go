package match

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/thraizz/gridduel-server/internal/game"
	"github.com/thraizz/gridduel-server/internal/game/rules"
)

var (
	// ErrGameNotFound is returned for ids the manager does not host.
	ErrGameNotFound = errors.New("game not found")
	// ErrGameFinished is returned for actions sent to a completed or aborted game.
	ErrGameFinished = errors.New("game finished")
	// ErrGameExists is returned when a setup reuses a hosted game id.
	ErrGameExists = errors.New("game already exists")
)

// Store persists finished games. repository.GameRepository satisfies it.
type Store interface {
	SaveGame(ctx context.Context, state *game.GameState, events []rules.Event) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore hands every finished game to s once.
func WithStore(s Store) Option {
	return func(m *Manager) { m.store = s }
}

// WithRecorder records every action of every hosted game.
func WithRecorder(r *game.ReplayRecorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithClock overrides the clock used for match timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager hosts live matches.
type Manager struct {
	engine   *game.Engine
	cards    game.CardLookup
	store    Store
	recorder *game.ReplayRecorder
	logger   *zap.Logger
	now      func() time.Time

	matches map[string]*Match
	mu      sync.RWMutex
}

// NewManager creates a manager that builds games from cards and resolves
// actions with engine.
func NewManager(engine *game.Engine, cards game.CardLookup, logger *zap.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		engine:  engine,
		cards:   cards,
		logger:  logger,
		now:     time.Now,
		matches: make(map[string]*Match),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateMatch deals a new pending game.
func (m *Manager) CreateMatch(setup game.Setup) (*Match, error) {
	state, err := m.engine.NewGame(setup, m.cards)
	if err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.matches[state.ID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrGameExists, state.ID)
	}
	match := &Match{ID: state.ID, CreateTime: m.now(), state: state}
	m.matches[state.ID] = match

	if m.recorder != nil {
		m.recorder.StartRecording(state)
	}
	m.logger.Info("match created",
		zap.String("game_id", state.ID),
		zap.String("mode", string(state.Mode)),
		zap.String("player1", state.Player1.UserID),
		zap.String("player2", state.Player2.UserID),
		zap.Int64("seed", state.Seed),
	)
	return match, nil
}

// GetMatch returns a hosted match.
func (m *Manager) GetMatch(gameID string) (*Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	match, ok := m.matches[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return match, nil
}

// Start activates a pending match.
func (m *Manager) Start(ctx context.Context, gameID string) (game.Result, error) {
	return m.Apply(ctx, gameID, game.Action{Type: game.ActionStart})
}

// Disconnect resolves a dropped player as a surrender.
func (m *Manager) Disconnect(ctx context.Context, gameID, playerID string) (game.Result, error) {
	return m.Apply(ctx, gameID, game.Surrender(playerID))
}

// Apply resolves one action against the match. A rejected action leaves the
// match untouched and comes back in Result.Rejection with a nil error; the
// error is reserved for the manager's own failures.
func (m *Manager) Apply(ctx context.Context, gameID string, action game.Action) (game.Result, error) {
	match, err := m.GetMatch(gameID)
	if err != nil {
		return game.Result{}, err
	}

	match.mu.Lock()
	defer match.mu.Unlock()

	if match.state.Status.Terminal() {
		return game.Result{State: match.state}, fmt.Errorf("%w: %s", ErrGameFinished, gameID)
	}

	result := m.engine.ApplyAction(match.state, action)
	if m.recorder != nil {
		m.recorder.Record(gameID, action, result)
	}
	if result.Rejection != nil {
		return result, nil
	}

	match.state = result.State
	match.events = append(match.events, result.Events...)

	if match.state.Status.Terminal() {
		m.finish(ctx, match)
	}
	return result, nil
}

// finish runs with match.mu held.
func (m *Manager) finish(ctx context.Context, match *Match) {
	end := m.now()
	match.EndTime = &end

	fields := []zap.Field{
		zap.String("game_id", match.ID),
		zap.String("status", string(match.state.Status)),
		zap.Int("player1_score", match.state.Player1.Score),
		zap.Int("player2_score", match.state.Player2.Score),
	}
	if match.state.Winner != nil {
		fields = append(fields, zap.String("winner", *match.state.Winner))
	}
	m.logger.Info("match finished", fields...)

	if m.recorder != nil {
		if err := m.recorder.SaveReplay(match.ID); err != nil {
			m.logger.Error("failed to save replay", zap.String("game_id", match.ID), zap.Error(err))
		}
	}
	if m.store != nil && !match.stored {
		match.stored = true
		if err := m.store.SaveGame(ctx, match.state.Clone(), match.events); err != nil {
			m.logger.Error("failed to store finished match", zap.String("game_id", match.ID), zap.Error(err))
		}
	}
}

// RemoveMatch stops hosting a match.
func (m *Manager) RemoveMatch(gameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.matches, gameID)
	if m.recorder != nil {
		m.recorder.ClearReplay(gameID)
	}
	m.logger.Info("match removed", zap.String("game_id", gameID))
}

// GetAllMatches returns every hosted match.
func (m *Manager) GetAllMatches() []*Match {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matches := make([]*Match, 0, len(m.matches))
	for _, match := range m.matches {
		matches = append(matches, match)
	}
	return matches
}

// ActiveCount returns the number of hosted matches that have not finished.
func (m *Manager) ActiveCount() int {
	count := 0
	for _, match := range m.GetAllMatches() {
		if !match.Finished() {
			count++
		}
	}
	return count
}

// PruneFinished drops finished matches that ended before cutoff and returns
// how many were removed.
func (m *Manager) PruneFinished(cutoff time.Time) int {
	var stale []string
	for _, match := range m.GetAllMatches() {
		snap := match.Snapshot()
		if snap.EndTime != nil && snap.EndTime.Before(cutoff) {
			stale = append(stale, snap.ID)
		}
	}
	for _, id := range stale {
		m.RemoveMatch(id)
	}
	return len(stale)
}

// RunJanitor prunes matches that finished more than retain ago, every
// interval, until ctx is cancelled.
func (m *Manager) RunJanitor(ctx context.Context, interval, retain time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.PruneFinished(m.now().Add(-retain)); n > 0 {
				m.logger.Debug("pruned finished matches", zap.Int("count", n))
			}
		}
	}
}
