// Package match hosts live games: one mutex per game serializes its actions
// while different games run in parallel.
package match

import (
	"slices"
	"sync"
	"time"

	"github.com/thraizz/gridduel-server/internal/game"
	"github.com/thraizz/gridduel-server/internal/game/rules"
)

// Match is one hosted game.
type Match struct {
	ID         string
	CreateTime time.Time
	EndTime    *time.Time

	mu     sync.Mutex
	state  *game.GameState
	events []rules.Event
	stored bool
}

// Snapshot is a consistent copy of a match for readers outside the lock.
type Snapshot struct {
	ID         string
	State      *game.GameState
	EventCount int
	CreateTime time.Time
	EndTime    *time.Time
	Stored     bool
}

// Snapshot returns a deep copy of the current state.
func (m *Match) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		ID:         m.ID,
		State:      m.state.Clone(),
		EventCount: len(m.events),
		CreateTime: m.CreateTime,
		EndTime:    cloneTime(m.EndTime),
		Stored:     m.stored,
	}
}

// State returns a deep copy of the current game state.
func (m *Match) State() *game.GameState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Events returns the accepted events from index since onwards.
func (m *Match) Events(since int) []rules.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if since < 0 {
		since = 0
	}
	if since >= len(m.events) {
		return nil
	}
	return slices.Clone(m.events[since:])
}

// HasPlayer reports whether userID is seated in the match.
func (m *Match) HasPlayer(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Player(userID) != nil
}

// Finished reports whether the game reached a terminal status.
func (m *Match) Finished() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Status.Terminal()
}

func cloneTime(src *time.Time) *time.Time {
	if src == nil {
		return nil
	}
	cp := *src
	return &cp
}
