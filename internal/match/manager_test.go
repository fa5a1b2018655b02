package match_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/thraizz/gridduel-server/internal/abilities"
	"github.com/thraizz/gridduel-server/internal/catalog"
	"github.com/thraizz/gridduel-server/internal/game"
	"github.com/thraizz/gridduel-server/internal/game/card"
	"github.com/thraizz/gridduel-server/internal/game/power"
	"github.com/thraizz/gridduel-server/internal/game/rules"
	"github.com/thraizz/gridduel-server/internal/match"
)

const (
	alice = "alice"
	bob   = "bob"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type savedGame struct {
	state  *game.GameState
	events []rules.Event
}

type fakeStore struct {
	mu    sync.Mutex
	saved []savedGame
	err   error
}

func (s *fakeStore) SaveGame(_ context.Context, state *game.GameState, events []rules.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, savedGame{state: state, events: events})
	return s.err
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func testCards(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(
		card.Definition{ID: "odin", Name: "Odin", BasePower: power.Vector{Top: 5, Right: 3, Bottom: 4, Left: 2},
			Ability: &card.AbilityRef{ID: abilities.IDForesight}},
		card.Definition{ID: "wolf", Name: "Wolf", BasePower: power.Uniform(2)},
		card.Definition{ID: "raven", Name: "Raven", BasePower: power.Uniform(1)},
	)
	require.NoError(t, err)
	return cat
}

func entries(ids ...string) []game.DeckEntry {
	out := make([]game.DeckEntry, len(ids))
	for i, id := range ids {
		out[i] = game.DeckEntry{BaseCardID: id, Level: 1}
	}
	return out
}

func setup(id string) game.Setup {
	return game.Setup{
		ID:      id,
		Seed:    17,
		Player1: game.Seat{UserID: alice, Deck: entries("odin", "wolf", "wolf", "raven", "raven", "wolf", "raven", "wolf", "wolf", "raven")},
		Player2: game.Seat{UserID: bob, Deck: entries("wolf", "wolf", "raven", "raven", "odin", "wolf", "raven", "wolf", "wolf", "raven")},
	}
}

func newManager(t *testing.T, opts ...match.Option) *match.Manager {
	logger := zaptest.NewLogger(t)
	engine := game.NewEngine(logger, abilities.NewDefaultRegistry(), game.WithClock(func() time.Time { return epoch }))
	opts = append([]match.Option{match.WithClock(func() time.Time { return epoch })}, opts...)
	return match.NewManager(engine, testCards(t), logger, opts...)
}

// playOut places the first card of the mover's hand on the first free tile
// until the game ends.
func playOut(t *testing.T, m *match.Manager, id string) {
	t.Helper()
	ctx := context.Background()
	mt, err := m.GetMatch(id)
	require.NoError(t, err)
	for turn := 0; !mt.Finished(); turn++ {
		require.Less(t, turn, 40)
		state := mt.State()
		mover := state.Player(state.CurrentPlayerID)
		result, err := m.Apply(ctx, id, game.PlaceCard(mover.UserID, mover.Hand[0], state.Board.PlaceableTiles()[0]))
		require.NoError(t, err)
		require.Nil(t, result.Rejection)
	}
}

func TestMatchLifecycle(t *testing.T) {
	store := &fakeStore{}
	m := newManager(t, match.WithStore(store))
	ctx := context.Background()

	mt, err := m.CreateMatch(setup("m1"))
	require.NoError(t, err)
	assert.Equal(t, "m1", mt.ID)
	assert.True(t, mt.HasPlayer(alice))
	assert.False(t, mt.HasPlayer("mallory"))
	assert.Equal(t, rules.StatusPending, mt.State().Status)
	assert.Equal(t, 1, m.ActiveCount())

	result, err := m.Start(ctx, "m1")
	require.NoError(t, err)
	require.Nil(t, result.Rejection)
	assert.Len(t, mt.Events(0), 1)

	playOut(t, m, "m1")

	snap := mt.Snapshot()
	assert.Equal(t, rules.StatusCompleted, snap.State.Status)
	require.NotNil(t, snap.EndTime)
	assert.True(t, snap.Stored)
	assert.Equal(t, 0, m.ActiveCount())

	require.Equal(t, 1, store.count())
	assert.Equal(t, snap.State, store.saved[0].state)
	assert.Len(t, store.saved[0].events, snap.EventCount)

	_, err = m.Apply(ctx, "m1", game.EndTurn(alice))
	assert.ErrorIs(t, err, match.ErrGameFinished)
	assert.Equal(t, 1, store.count())
}

func TestRejectedActionLeavesMatchUntouched(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()
	mt, err := m.CreateMatch(setup("m1"))
	require.NoError(t, err)
	_, err = m.Start(ctx, "m1")
	require.NoError(t, err)
	before := mt.Snapshot()

	result, err := m.Apply(ctx, "m1", game.EndTurn(bob))
	require.NoError(t, err)
	require.NotNil(t, result.Rejection)
	assert.Equal(t, rules.CodeNotYourTurn, result.Rejection.Code)

	after := mt.Snapshot()
	assert.Equal(t, before.State, after.State)
	assert.Equal(t, before.EventCount, after.EventCount)
	assert.Empty(t, mt.Events(after.EventCount))
}

func TestManagerErrors(t *testing.T) {
	m := newManager(t)

	_, err := m.Apply(context.Background(), "nope", game.EndTurn(alice))
	assert.ErrorIs(t, err, match.ErrGameNotFound)
	_, err = m.GetMatch("nope")
	assert.ErrorIs(t, err, match.ErrGameNotFound)

	_, err = m.CreateMatch(setup("m1"))
	require.NoError(t, err)
	_, err = m.CreateMatch(setup("m1"))
	assert.ErrorIs(t, err, match.ErrGameExists)

	bad := setup("m2")
	bad.Player2.Deck = entries("fenrir")
	_, err = m.CreateMatch(bad)
	assert.ErrorIs(t, err, catalog.ErrUnknownCard)
	assert.Len(t, m.GetAllMatches(), 1)

	_, err = m.CreateMatch(setup("../escaped"))
	assert.ErrorIs(t, err, game.ErrInvalidGameID)
	assert.Len(t, m.GetAllMatches(), 1)
}

func TestDisconnectAbortsTheMatch(t *testing.T) {
	store := &fakeStore{err: errors.New("database down")}
	m := newManager(t, match.WithStore(store))
	ctx := context.Background()
	mt, err := m.CreateMatch(setup("m1"))
	require.NoError(t, err)
	_, err = m.Start(ctx, "m1")
	require.NoError(t, err)

	// a failing store is logged, not surfaced to the player
	result, err := m.Disconnect(ctx, "m1", alice)
	require.NoError(t, err)
	require.Nil(t, result.Rejection)

	state := mt.State()
	assert.Equal(t, rules.StatusAborted, state.Status)
	require.NotNil(t, state.Winner)
	assert.Equal(t, bob, *state.Winner)
	assert.Equal(t, 1, store.count())
}

func TestActionsOnOneMatchAreSerialized(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()
	for _, id := range []string{"m1", "m2"} {
		_, err := m.CreateMatch(setup(id))
		require.NoError(t, err)
		_, err = m.Start(ctx, id)
		require.NoError(t, err)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted = map[string]int{}
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := []string{"m1", "m2"}[i%2]
			player := []string{alice, bob}[(i/2)%2]
			for range 10 {
				result, err := m.Apply(ctx, id, game.EndTurn(player))
				if err != nil {
					t.Error(err)
					return
				}
				if result.Rejection == nil {
					mu.Lock()
					accepted[id]++
					mu.Unlock()
				}
			}
		}(i)
	}
	wg.Wait()

	for _, id := range []string{"m1", "m2"} {
		mt, err := m.GetMatch(id)
		require.NoError(t, err)
		state := mt.State()
		require.NoError(t, state.CheckIntegrity())
		assert.Equal(t, accepted[id]+1, state.ActionCount, id)
		assert.Equal(t, rules.StatusActive, state.Status)
	}
}

func TestRecorderKeepsReplays(t *testing.T) {
	dir := t.TempDir()
	logger := zaptest.NewLogger(t)
	recorder := game.NewReplayRecorder(logger, dir)
	engine := game.NewEngine(logger, abilities.NewDefaultRegistry(), game.WithClock(func() time.Time { return epoch }))
	m := match.NewManager(engine, testCards(t), logger, match.WithRecorder(recorder))

	_, err := m.CreateMatch(setup("m1"))
	require.NoError(t, err)
	assert.True(t, recorder.IsRecording("m1"))
	_, err = m.Start(context.Background(), "m1")
	require.NoError(t, err)
	playOut(t, m, "m1")

	assert.False(t, recorder.IsRecording("m1"))
	replay, err := recorder.LoadReplay("m1")
	require.NoError(t, err)
	require.NoError(t, replay.Verify(engine))

	final, err := replay.StateAt(engine, replay.Size())
	require.NoError(t, err)
	mt, err := m.GetMatch("m1")
	require.NoError(t, err)
	want, err := mt.State().Checksum()
	require.NoError(t, err)
	got, err := final.Checksum()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPruneFinished(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	for _, id := range []string{"done", "live"} {
		_, err := m.CreateMatch(setup(id))
		require.NoError(t, err)
		_, err = m.Start(ctx, id)
		require.NoError(t, err)
	}
	_, err := m.Apply(ctx, "done", game.Surrender(bob))
	require.NoError(t, err)

	assert.Zero(t, m.PruneFinished(epoch))
	assert.Equal(t, 1, m.PruneFinished(epoch.Add(time.Minute)))

	_, err = m.GetMatch("done")
	assert.ErrorIs(t, err, match.ErrGameNotFound)
	_, err = m.GetMatch("live")
	assert.NoError(t, err)
}
