package rules

import (
	"slices"
	"sync"
	"time"

	"github.com/thraizz/gridduel-server/internal/game/board"
	"github.com/thraizz/gridduel-server/internal/game/card"
	"github.com/thraizz/gridduel-server/internal/game/power"
)

// EventType indicates the category of a game event.
type EventType string

const (
	// Card events
	EventCardPlaced           EventType = "CARD_PLACED"
	EventCardFlipped          EventType = "CARD_FLIPPED"
	EventCardOwnerChanged     EventType = "CARD_OWNER_CHANGED"
	EventCardPowerChanged     EventType = "CARD_POWER_CHANGED"
	EventCardDrawn            EventType = "CARD_DRAWN"
	EventCardRemovedFromBoard EventType = "CARD_REMOVED_FROM_BOARD"
	EventCardRemovedFromHand  EventType = "CARD_REMOVED_FROM_HAND"
	EventCardReturnedToHand   EventType = "CARD_RETURNED_TO_HAND"
	EventCardMoved            EventType = "CARD_MOVED"
	EventCardLocked           EventType = "CARD_LOCKED"

	// Board events
	EventTileStateChanged EventType = "TILE_STATE_CHANGED"

	// Ability events
	EventAbilityTriggered EventType = "ABILITY_TRIGGERED"
	EventDefeatPrevented  EventType = "DEFEAT_PREVENTED"

	// Turn/Game events
	EventTurnStart    EventType = "TURN_START"
	EventTurnEnd      EventType = "TURN_END"
	EventScoreChanged EventType = "SCORE_CHANGED"
	EventGameOver     EventType = "GAME_OVER"
	EventError        EventType = "ERROR"
)

// GameOver metadata keys for per-player values are prefixed so a user id can
// never collide with status, reason or result.
const (
	MetaScorePrefix = "score:"
	MetaPowerPrefix = "power:"
)

// ScoreKey is the GameOver metadata key holding userID's final score.
func ScoreKey(userID string) string { return MetaScorePrefix + userID }

// PowerKey is the GameOver metadata key holding userID's final board power.
func PowerKey(userID string) string { return MetaPowerPrefix + userID }

// IsCardEvent reports whether the event is about a single card instance.
func (et EventType) IsCardEvent() bool {
	switch et {
	case EventCardPlaced, EventCardFlipped, EventCardOwnerChanged, EventCardPowerChanged,
		EventCardDrawn, EventCardRemovedFromBoard, EventCardRemovedFromHand,
		EventCardReturnedToHand, EventCardMoved, EventCardLocked:
		return true
	default:
		return false
	}
}

// Animation is the presentation hint a client uses to render an event.
type Animation string

const (
	AnimationNone    Animation = ""
	AnimationPlace   Animation = "place"
	AnimationFlip    Animation = "flip"
	AnimationBuff    Animation = "buff"
	AnimationDebuff  Animation = "debuff"
	AnimationDraw    Animation = "draw"
	AnimationRemove  Animation = "remove"
	AnimationMove    Animation = "move"
	AnimationLock    Animation = "lock"
	AnimationTile    Animation = "tile"
	AnimationAbility Animation = "ability"
	AnimationShield  Animation = "shield"
)

// Event is one entry of the ordered log an action produces.
type Event struct {
	ID           string            `json:"id"`
	Sequence     int               `json:"sequence"`
	Type         EventType         `json:"type"`
	Timestamp    time.Time         `json:"timestamp"`
	Position     *board.Position   `json:"position,omitempty"`
	Animation    Animation         `json:"animation,omitempty"`
	CardID       string            `json:"cardId,omitempty"`
	SourceCardID string            `json:"sourceCardId,omitempty"`
	PlayerID     string            `json:"playerId,omitempty"`
	Ability      card.AbilityID    `json:"ability,omitempty"`
	PowerDelta   *power.Vector     `json:"powerDelta,omitempty"`
	FromOwner    string            `json:"fromOwner,omitempty"`
	ToOwner      string            `json:"toOwner,omitempty"`
	From         *board.Position   `json:"from,omitempty"`
	To           *board.Position   `json:"to,omitempty"`
	Tile         *board.TileEffect `json:"tile,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// NewEvent creates an event with the common fields populated. ID, Sequence
// and Timestamp are assigned when the event is appended to a Log.
func NewEvent(eventType EventType, cardID, playerID string) Event {
	return Event{
		Type:     eventType,
		CardID:   cardID,
		PlayerID: playerID,
	}
}

// At sets the board position of the event.
func (e Event) At(p board.Position) Event {
	e.Position = &p
	return e
}

// WithDelta attaches a power delta.
func (e Event) WithDelta(delta power.Vector) Event {
	e.PowerDelta = &delta
	return e
}

// WithMeta sets one metadata entry.
func (e Event) WithMeta(key, value string) Event {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// IDSource produces event identifiers and timestamps. The engine backs it
// with the seeded per-action stream so replays yield the same ids.
type IDSource interface {
	NextID() string
	Now() time.Time
}

// Log is an append-only, ordered event list.
type Log struct {
	source IDSource
	events []Event
	base   int
}

// NewLog creates a log whose sequence numbers continue after base.
func NewLog(source IDSource, base int) *Log {
	return &Log{source: source, base: base}
}

// Append stamps the event and adds it to the log.
func (l *Log) Append(event Event) Event {
	event.Sequence = l.base + len(l.events) + 1
	if l.source != nil {
		event.ID = l.source.NextID()
		event.Timestamp = l.source.Now()
	}
	l.events = append(l.events, event)
	return event
}

// Len returns the number of appended events.
func (l *Log) Len() int {
	return len(l.events)
}

// Since returns a copy of the events appended after the first n.
func (l *Log) Since(n int) []Event {
	if n >= len(l.events) {
		return nil
	}
	return slices.Clone(l.events[n:])
}

// Events returns a copy of every event in order.
func (l *Log) Events() []Event {
	return slices.Clone(l.events)
}

// Listener defines a callback that reacts to incoming events.
type Listener func(gameID string, event Event)

type subscription struct {
	handle    int
	eventType EventType
	callback  Listener
}

// EventBus fans committed events out to subscribers. Listeners are called
// synchronously in subscription order.
type EventBus struct {
	mu         sync.RWMutex
	subs       []subscription
	nextHandle int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	return bus.SubscribeTyped("", listener)
}

// SubscribeTyped registers a listener for one event type. An empty type
// matches every event.
func (bus *EventBus) SubscribeTyped(eventType EventType, listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.subs = append(bus.subs, subscription{handle: handle, eventType: eventType, callback: listener})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.subs = slices.DeleteFunc(bus.subs, func(s subscription) bool { return s.handle == handle })
}

// Publish delivers the event to all matching listeners.
func (bus *EventBus) Publish(gameID string, event Event) {
	bus.mu.RLock()
	subs := slices.Clone(bus.subs)
	bus.mu.RUnlock()

	for _, sub := range subs {
		if sub.eventType == "" || sub.eventType == event.Type {
			sub.callback(gameID, event)
		}
	}
}

// PublishBatch publishes the events of one action in order.
func (bus *EventBus) PublishBatch(gameID string, events []Event) {
	for _, event := range events {
		bus.Publish(gameID, event)
	}
}
