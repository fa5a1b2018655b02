package game

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

const replayVersion = 1

// ReplayStep is one recorded action and what it produced.
type ReplayStep struct {
	Action    Action `json:"action"`
	Events    int    `json:"events"`
	Checksum  string `json:"checksum"`
	Rejection string `json:"rejection,omitempty"`
}

// Replay records the initial state of a game and every action applied to
// it. Because the engine is deterministic, the steps are enough to rebuild
// every intermediate state.
type Replay struct {
	GameID       string       `json:"gameId"`
	Version      int          `json:"version"`
	RecordedAt   time.Time    `json:"recordedAt"`
	Initial      *GameState   `json:"initial"`
	Steps        []ReplayStep `json:"steps"`
	CurrentIndex int          `json:"-"`
	mu           sync.RWMutex
}

// NewReplay creates a replay starting from initial.
func NewReplay(initial *GameState) *Replay {
	return &Replay{
		GameID:     initial.ID,
		Version:    replayVersion,
		RecordedAt: time.Now().UTC(),
		Initial:    initial.Clone(),
		Steps:      make([]ReplayStep, 0),
	}
}

// Record appends an applied action. Rejected actions are recorded too; they
// leave the checksum unchanged.
func (r *Replay) Record(action Action, result Result) error {
	checksum, err := result.State.Checksum()
	if err != nil {
		return err
	}
	step := ReplayStep{Action: action, Events: len(result.Events), Checksum: checksum}
	if result.Rejection != nil {
		step.Rejection = string(result.Rejection.Code)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.Steps = append(r.Steps, step)
	return nil
}

// Size returns the number of recorded steps.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Steps)
}

// Start resets playback to the initial state.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CurrentIndex = 0
}

// Next returns the next step, or false at the end.
func (r *Replay) Next() (ReplayStep, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CurrentIndex >= len(r.Steps) {
		return ReplayStep{}, false
	}
	step := r.Steps[r.CurrentIndex]
	r.CurrentIndex++
	return step, true
}

// Previous steps back once, or returns false at the start.
func (r *Replay) Previous() (ReplayStep, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CurrentIndex == 0 {
		return ReplayStep{}, false
	}
	r.CurrentIndex--
	return r.Steps[r.CurrentIndex], true
}

// StateAt rebuilds the state after the first n steps.
func (r *Replay) StateAt(engine *Engine, n int) (*GameState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n < 0 || n > len(r.Steps) {
		return nil, fmt.Errorf("step %d out of range [0,%d]", n, len(r.Steps))
	}
	state := r.Initial.Clone()
	for _, step := range r.Steps[:n] {
		state = engine.ApplyAction(state, step.Action).State
	}
	return state, nil
}

// Verify re-runs every step and compares checksums and event counts.
func (r *Replay) Verify(engine *Engine) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state := r.Initial.Clone()
	for i, step := range r.Steps {
		result := engine.ApplyAction(state, step.Action)
		checksum, err := result.State.Checksum()
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		if checksum != step.Checksum {
			return fmt.Errorf("step %d (%s): checksum %s, recorded %s", i, step.Action.Type, checksum, step.Checksum)
		}
		if len(result.Events) != step.Events {
			return fmt.Errorf("step %d (%s): %d events, recorded %d", i, step.Action.Type, len(result.Events), step.Events)
		}
		state = result.State
	}
	return nil
}

// SaveToFile writes the replay as gzipped JSON to <directory>/<game id>.replay.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	path, err := replayPath(directory, r.GameID)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	if err := json.NewEncoder(gz).Encode(r); err != nil {
		gz.Close()
		return fmt.Errorf("failed to encode replay: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to flush replay: %w", err)
	}
	return nil
}

// LoadReplayFromFile reads a replay written by SaveToFile.
func LoadReplayFromFile(directory, gameID string) (*Replay, error) {
	path, err := replayPath(directory, gameID)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var replay Replay
	if err := json.NewDecoder(gz).Decode(&replay); err != nil {
		return nil, fmt.Errorf("failed to decode replay: %w", err)
	}
	if replay.Version != replayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", replay.Version)
	}
	if replay.Initial == nil {
		return nil, fmt.Errorf("replay %s has no initial state", gameID)
	}
	return &replay, nil
}

func replayPath(directory, gameID string) (string, error) {
	if err := ValidateGameID(gameID); err != nil {
		return "", fmt.Errorf("replay path: %w", err)
	}
	return filepath.Join(directory, gameID+".replay"), nil
}

// ReplayRecorder keeps one replay per running game.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replays map[string]*Replay
	saveDir string
}

// NewReplayRecorder creates a recorder that saves into saveDir.
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		saveDir: saveDir,
	}
}

// StartRecording begins recording a game from its current state.
func (rr *ReplayRecorder) StartRecording(initial *GameState) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.replays[initial.ID] = NewReplay(initial)

	if rr.logger != nil {
		rr.logger.Info("started replay recording", zap.String("game_id", initial.ID))
	}
}

// Record appends an action to the game's replay, if it is being recorded.
func (rr *ReplayRecorder) Record(gameID string, action Action, result Result) {
	rr.mu.RLock()
	replay := rr.replays[gameID]
	rr.mu.RUnlock()
	if replay == nil {
		return
	}
	if err := replay.Record(action, result); err != nil && rr.logger != nil {
		rr.logger.Warn("failed to record replay step",
			zap.String("game_id", gameID),
			zap.Error(err),
		)
	}
}

// GetReplay returns the replay for a game.
func (rr *ReplayRecorder) GetReplay(gameID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	replay, exists := rr.replays[gameID]
	return replay, exists
}

// IsRecording reports whether a game is being recorded.
func (rr *ReplayRecorder) IsRecording(gameID string) bool {
	_, ok := rr.GetReplay(gameID)
	return ok
}

// SaveReplay writes a replay to disk and drops it from memory.
func (rr *ReplayRecorder) SaveReplay(gameID string) error {
	rr.mu.Lock()
	replay, exists := rr.replays[gameID]
	if !exists {
		rr.mu.Unlock()
		return fmt.Errorf("no replay found for game %s", gameID)
	}
	delete(rr.replays, gameID)
	rr.mu.Unlock()

	if rr.saveDir == "" {
		return nil
	}
	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}

	if rr.logger != nil {
		rr.logger.Info("saved replay to disk",
			zap.String("game_id", gameID),
			zap.Int("steps", replay.Size()),
			zap.String("directory", rr.saveDir),
		)
	}
	return nil
}

// LoadReplay loads a saved replay from disk.
func (rr *ReplayRecorder) LoadReplay(gameID string) (*Replay, error) {
	return LoadReplayFromFile(rr.saveDir, gameID)
}

// ClearReplay drops a replay without saving it.
func (rr *ReplayRecorder) ClearReplay(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	delete(rr.replays, gameID)
}
