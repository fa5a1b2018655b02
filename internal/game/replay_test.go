package game_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/thraizz/gridduel-server/internal/game"
	gt "github.com/thraizz/gridduel-server/internal/game/gametest"
	"github.com/thraizz/gridduel-server/internal/game/rules"
)

// playRecorded starts a seeded match and plays n placements into a replay.
func playRecorded(t *testing.T, engine *game.Engine, n int) (*game.Replay, []*game.GameState) {
	t.Helper()
	state, err := engine.NewGame(testSetup(5), testCatalog())
	require.NoError(t, err)

	replay := game.NewReplay(state)
	states := []*game.GameState{state}
	apply := func(action game.Action) {
		result := engine.ApplyAction(state, action)
		require.NoError(t, replay.Record(action, result))
		state = result.State
		states = append(states, state)
	}

	apply(game.Action{Type: game.ActionStart})
	for i := 0; i < n && state.Status == rules.StatusActive; i++ {
		mover := state.Player(state.CurrentPlayerID)
		apply(game.PlaceCard(mover.UserID, mover.Hand[0], state.Board.PlaceableTiles()[0]))
	}
	return replay, states
}

func TestReplayVerifies(t *testing.T) {
	engine := newEngine(t)
	replay, states := playRecorded(t, engine, 6)

	assert.Equal(t, 7, replay.Size())
	assert.Equal(t, "match-1", replay.GameID)
	assert.False(t, replay.RecordedAt.IsZero())
	require.NoError(t, replay.Verify(engine))

	for n, want := range states {
		got, err := replay.StateAt(engine, n)
		require.NoError(t, err)
		wantSum, err := want.Checksum()
		require.NoError(t, err)
		gotSum, err := got.Checksum()
		require.NoError(t, err)
		assert.Equal(t, wantSum, gotSum, "step %d", n)
	}

	_, err := replay.StateAt(engine, 8)
	assert.Error(t, err)
}

func TestReplayRecordsRejections(t *testing.T) {
	engine := newEngine(t)
	replay, states := playRecorded(t, engine, 1)
	last := states[len(states)-1]

	action := game.EndTurn("mallory")
	require.NoError(t, replay.Record(action, engine.ApplyAction(last, action)))

	steps := replay.Steps
	require.Len(t, steps, 3)
	assert.Equal(t, string(rules.CodeUnknownPlayer), steps[2].Rejection)
	assert.Equal(t, steps[1].Checksum, steps[2].Checksum)
	assert.Zero(t, steps[2].Events)
	require.NoError(t, replay.Verify(engine))
}

func TestReplayDetectsTampering(t *testing.T) {
	engine := newEngine(t)
	replay, _ := playRecorded(t, engine, 3)

	replay.Steps[2].Checksum = "v1:0000"
	err := replay.Verify(engine)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 2")
}

func TestReplayPlayback(t *testing.T) {
	engine := newEngine(t)
	replay, _ := playRecorded(t, engine, 2)

	_, ok := replay.Previous()
	assert.False(t, ok)

	step, ok := replay.Next()
	require.True(t, ok)
	assert.Equal(t, game.ActionStart, step.Action.Type)
	step, ok = replay.Next()
	require.True(t, ok)
	assert.Equal(t, game.ActionPlaceCard, step.Action.Type)

	step, ok = replay.Previous()
	require.True(t, ok)
	assert.Equal(t, game.ActionPlaceCard, step.Action.Type)

	replay.Start()
	step, ok = replay.Next()
	require.True(t, ok)
	assert.Equal(t, game.ActionStart, step.Action.Type)
}

func TestReplayFileRoundtrip(t *testing.T) {
	engine := newEngine(t)
	replay, _ := playRecorded(t, engine, 4)
	dir := t.TempDir()

	require.NoError(t, replay.SaveToFile(dir))
	loaded, err := game.LoadReplayFromFile(dir, replay.GameID)
	require.NoError(t, err)

	assert.Equal(t, replay.Size(), loaded.Size())
	assert.True(t, replay.RecordedAt.Equal(loaded.RecordedAt))
	assert.Equal(t, replay.Steps, loaded.Steps)
	require.NoError(t, loaded.Verify(engine))

	_, err = game.LoadReplayFromFile(dir, "missing")
	assert.Error(t, err)
}

func TestReplayRecorder(t *testing.T) {
	engine := newEngine(t)
	dir := t.TempDir()
	recorder := game.NewReplayRecorder(zaptest.NewLogger(t), dir)

	state, err := engine.NewGame(testSetup(11), testCatalog())
	require.NoError(t, err)
	recorder.StartRecording(state)
	assert.True(t, recorder.IsRecording(state.ID))

	start := game.Action{Type: game.ActionStart}
	result := engine.ApplyAction(state, start)
	recorder.Record(state.ID, start, result)
	// unknown games are ignored
	recorder.Record("other", start, result)

	replay, ok := recorder.GetReplay(state.ID)
	require.True(t, ok)
	assert.Equal(t, 1, replay.Size())

	require.NoError(t, recorder.SaveReplay(state.ID))
	assert.False(t, recorder.IsRecording(state.ID))
	assert.Error(t, recorder.SaveReplay(state.ID))

	loaded, err := recorder.LoadReplay(state.ID)
	require.NoError(t, err)
	require.NoError(t, loaded.Verify(engine))

	recorder.StartRecording(state)
	recorder.ClearReplay(state.ID)
	assert.False(t, recorder.IsRecording(state.ID))
}

func TestRecorderWithoutDirectoryKeepsNothing(t *testing.T) {
	recorder := game.NewReplayRecorder(nil, "")
	h := gt.New(t, nil)

	recorder.StartRecording(h.State)
	require.NoError(t, recorder.SaveReplay(h.State.ID))
	assert.False(t, recorder.IsRecording(h.State.ID))
}

func TestReplayFilesStayInsideTheDirectory(t *testing.T) {
	engine := newEngine(t)
	replay, _ := playRecorded(t, engine, 1)
	root := t.TempDir()
	dir := filepath.Join(root, "replays")

	replay.GameID = "../escaped"
	err := replay.SaveToFile(dir)
	require.ErrorIs(t, err, game.ErrInvalidGameID)
	assert.NoFileExists(t, filepath.Join(root, "escaped.replay"))

	_, err = game.LoadReplayFromFile(dir, "../escaped")
	assert.ErrorIs(t, err, game.ErrInvalidGameID)
}
