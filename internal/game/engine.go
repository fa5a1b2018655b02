package game

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thraizz/gridduel-server/internal/game/board"
	"github.com/thraizz/gridduel-server/internal/game/card"
	"github.com/thraizz/gridduel-server/internal/game/rules"
)

// Rules are the tunable limits of a match.
type Rules struct {
	BoardSize          int `mapstructure:"board_size" json:"boardSize"`
	HandSize           int `mapstructure:"hand_size" json:"handSize"`
	DrawPerTurn        int `mapstructure:"draw_per_turn" json:"drawPerTurn"`
	MaxCascadeDepth    int `mapstructure:"max_cascade_depth" json:"maxCascadeDepth"`
	MaxEventsPerAction int `mapstructure:"max_events_per_action" json:"maxEventsPerAction"`
}

// DefaultRules returns the product defaults.
func DefaultRules() Rules {
	return Rules{
		BoardSize:          board.DefaultSize,
		HandSize:           5,
		DrawPerTurn:        1,
		MaxCascadeDepth:    16,
		MaxEventsPerAction: 256,
	}
}

func (r Rules) withDefaults() Rules {
	def := DefaultRules()
	if r.BoardSize <= 0 {
		r.BoardSize = def.BoardSize
	}
	if r.HandSize <= 0 {
		r.HandSize = def.HandSize
	}
	if r.DrawPerTurn < 0 {
		r.DrawPerTurn = def.DrawPerTurn
	}
	if r.MaxCascadeDepth <= 0 {
		r.MaxCascadeDepth = def.MaxCascadeDepth
	}
	if r.MaxEventsPerAction <= 0 {
		r.MaxEventsPerAction = def.MaxEventsPerAction
	}
	return r
}

// ActionType identifies a player action.
type ActionType string

const (
	ActionStart     ActionType = "start_game"
	ActionPlaceCard ActionType = "place_card"
	ActionEndTurn   ActionType = "end_turn"
	ActionSurrender ActionType = "surrender"
)

// Action is a request to change the game state.
type Action struct {
	Type       ActionType     `json:"type"`
	PlayerID   string         `json:"playerId,omitempty"`
	InstanceID string         `json:"instanceId,omitempty"`
	Position   board.Position `json:"position"`
}

// PlaceCard builds a placement action.
func PlaceCard(playerID, instanceID string, pos board.Position) Action {
	return Action{Type: ActionPlaceCard, PlayerID: playerID, InstanceID: instanceID, Position: pos}
}

// EndTurn builds an action that passes the turn without placing.
func EndTurn(playerID string) Action {
	return Action{Type: ActionEndTurn, PlayerID: playerID}
}

// Surrender builds a surrender action.
func Surrender(playerID string) Action {
	return Action{Type: ActionSurrender, PlayerID: playerID}
}

// Result is the outcome of one action. On rejection State is the unchanged
// input state and Events is empty.
type Result struct {
	State     *GameState
	Events    []rules.Event
	Rejection *rules.Rejection
}

// Rejected reports whether the action was refused.
func (r Result) Rejected() bool {
	return r.Rejection != nil
}

// Option configures an Engine.
type Option func(*Engine)

// WithRules overrides the default match limits.
func WithRules(cfg Rules) Option {
	return func(e *Engine) {
		e.rules = cfg.withDefaults()
	}
}

// WithClock sets the time source for event timestamps.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithEventBus publishes the events of every accepted action.
func WithEventBus(bus *rules.EventBus) Option {
	return func(e *Engine) {
		e.bus = bus
	}
}

// Engine applies actions to game states. It holds no per-game state and is
// safe for concurrent use on different games.
type Engine struct {
	logger    *zap.Logger
	abilities AbilityProvider
	rules     Rules
	clock     func() time.Time
	bus       *rules.EventBus
}

// NewEngine creates an engine backed by the given ability catalog.
func NewEngine(logger *zap.Logger, abilities AbilityProvider, opts ...Option) *Engine {
	e := &Engine{
		logger:    logger,
		abilities: abilities,
		rules:     DefaultRules(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the engine's match limits.
func (e *Engine) Rules() Rules {
	return e.rules
}

// Start moves a pending game to active and opens the first turn.
func (e *Engine) Start(state *GameState) Result {
	return e.ApplyAction(state, Action{Type: ActionStart})
}

// ApplyAction validates and resolves one action. The input state is never
// modified; the action works on a clone that replaces it only when the whole
// cascade resolved without rejection.
func (e *Engine) ApplyAction(state *GameState, action Action) (result Result) {
	if state == nil || state.Board == nil || state.Player1 == nil || state.Player2 == nil {
		return Result{State: state, Rejection: rules.NewRejection(rules.CodeInvariantViolation, "incomplete game state")}
	}

	work := state.Clone()
	r := e.newResolution(work)

	defer func() {
		if p := recover(); p != nil {
			rej := rules.Rejectf(rules.CodeInvariantViolation, "panic while resolving %s", action.Type).
				WithDetail("panic", fmt.Sprint(p))
			result = e.reject(state, action, rej)
		}
	}()

	var rej *rules.Rejection
	switch action.Type {
	case ActionStart:
		rej = r.start()
	case ActionPlaceCard:
		rej = r.placeCard(action)
	case ActionEndTurn:
		rej = r.endTurnAction(action)
	case ActionSurrender:
		rej = r.surrender(action)
	default:
		rej = rules.Rejectf(rules.CodeInvalidAction, "unknown action type %q", action.Type)
	}
	if rej == nil {
		rej = checkCardEvents(r.log.Events())
	}
	if rej != nil {
		return e.reject(state, action, rej)
	}

	events := r.log.Events()
	work.ActionCount++
	work.EventCount += len(events)

	if e.logger != nil {
		e.logger.Debug("action applied",
			zap.String("game_id", work.ID),
			zap.String("action", string(action.Type)),
			zap.String("player_id", action.PlayerID),
			zap.Int("events", len(events)),
			zap.Int("turn", work.TurnNumber),
		)
	}
	if e.bus != nil {
		e.bus.PublishBatch(work.ID, events)
	}
	return Result{State: work, Events: events}
}

func (e *Engine) reject(state *GameState, action Action, rej *rules.Rejection) Result {
	if e.logger != nil {
		fields := []zap.Field{
			zap.String("game_id", state.ID),
			zap.String("action", string(action.Type)),
			zap.String("player_id", action.PlayerID),
			zap.String("code", string(rej.Code)),
			zap.String("reason", rej.Reason),
		}
		if rej.Class == rules.ClassValidation {
			e.logger.Warn("action rejected", fields...)
		} else {
			e.logger.Error("action aborted", append(fields, zap.Any("details", rej.Details))...)
		}
	}
	return Result{State: state, Rejection: rej}
}

func (e *Engine) newResolution(state *GameState) *resolution {
	source := &actionSource{
		rng:   rand.New(rand.NewSource(streamSeed(state.Seed, state.ActionCount, 0))),
		clock: e.clock,
	}
	return &resolution{
		engine:  e,
		state:   state,
		log:     rules.NewLog(source, state.EventCount),
		cascade: rules.NewCascade(e.rules.MaxCascadeDepth, e.rules.MaxEventsPerAction),
		rng:     rand.New(rand.NewSource(streamSeed(state.Seed, state.ActionCount, 1))),
		turns:   state.turns(),
		flips:   make(map[string][]string),
	}
}

// streamSeed derives an independent seed per action and stream.
func streamSeed(seed int64, action int, stream uint64) int64 {
	x := uint64(seed) ^ (uint64(action+1) * 0x9E3779B97F4A7C15) ^ ((stream + 1) * 0xBF58476D1CE4E5B9)
	x ^= x >> 31
	x *= 0x94D049BB133111EB
	x ^= x >> 29
	return int64(x)
}

type actionSource struct {
	rng   *rand.Rand
	clock func() time.Time
}

func (s *actionSource) NextID() string {
	id, err := uuid.NewRandomFromReader(s.rng)
	if err != nil {
		return uuid.Nil.String()
	}
	return id.String()
}

func (s *actionSource) Now() time.Time {
	return s.clock().UTC()
}

// listens reports whether any ability may fire on m.
func (e *Engine) listens(m rules.Moment) bool {
	if index, ok := e.abilities.(MomentIndex); ok {
		return len(index.On(m)) > 0
	}
	return true
}

// checkCardEvents rejects a log holding card events that name no card.
func checkCardEvents(events []rules.Event) *rules.Rejection {
	for _, ev := range events {
		if ev.Type.IsCardEvent() && ev.CardID == "" {
			return rules.Rejectf(rules.CodeInvariantViolation, "%s event without a card", ev.Type).
				WithDetail("sequence", strconv.Itoa(ev.Sequence))
		}
	}
	return nil
}

func (e *Engine) ability(id card.AbilityID) (*Ability, bool) {
	if e.abilities == nil {
		return nil, false
	}
	return e.abilities.Ability(id)
}
