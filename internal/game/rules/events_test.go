package rules

import (
	"fmt"
	"testing"
	"time"

	"github.com/thraizz/gridduel-server/internal/game/board"
	"github.com/thraizz/gridduel-server/internal/game/power"
)

type counterSource struct {
	n   int
	now time.Time
}

func (s *counterSource) NextID() string {
	s.n++
	return fmt.Sprintf("evt-%d", s.n)
}

func (s *counterSource) Now() time.Time {
	return s.now
}

func TestLogAssignsSequenceAndIDs(t *testing.T) {
	source := &counterSource{now: time.Unix(1700000000, 0).UTC()}
	log := NewLog(source, 10)

	first := log.Append(NewEvent(EventCardPlaced, "c1", "alice").At(board.Position{X: 1, Y: 2}))
	second := log.Append(NewEvent(EventCardPowerChanged, "c1", "alice").WithDelta(power.Uniform(1)))

	if first.Sequence != 11 || second.Sequence != 12 {
		t.Fatalf("expected sequences 11 and 12, got %d and %d", first.Sequence, second.Sequence)
	}
	if first.ID != "evt-1" || second.ID != "evt-2" {
		t.Fatalf("unexpected ids %q %q", first.ID, second.ID)
	}
	if !first.Timestamp.Equal(source.now) {
		t.Fatalf("expected timestamp from source, got %v", first.Timestamp)
	}
	if first.Position == nil || *first.Position != (board.Position{X: 1, Y: 2}) {
		t.Fatalf("expected position (1,2), got %v", first.Position)
	}
	if log.Len() != 2 {
		t.Fatalf("expected 2 events, got %d", log.Len())
	}

	tail := log.Since(1)
	if len(tail) != 1 || tail[0].Type != EventCardPowerChanged {
		t.Fatalf("unexpected tail %+v", tail)
	}
	if log.Since(5) != nil {
		t.Fatalf("expected nil tail past the end")
	}
}

func TestLogEventsIsACopy(t *testing.T) {
	log := NewLog(nil, 0)
	log.Append(NewEvent(EventTurnStart, "", "alice"))

	events := log.Events()
	events[0].PlayerID = "mallory"

	if log.Events()[0].PlayerID != "alice" {
		t.Fatalf("log was mutated through the returned slice")
	}
}

func TestWithMetaDoesNotShareMaps(t *testing.T) {
	base := NewEvent(EventGameOver, "", "")
	a := base.WithMeta("reason", "board_full")
	if base.Metadata != nil {
		t.Fatalf("expected original event metadata to stay nil")
	}
	if a.Metadata["reason"] != "board_full" {
		t.Fatalf("expected metadata to be set")
	}
}

func TestEventBusOrderAndFiltering(t *testing.T) {
	bus := NewEventBus()

	var got []string
	bus.Subscribe(func(gameID string, e Event) {
		got = append(got, "all:"+string(e.Type))
	})
	handle := bus.SubscribeTyped(EventCardFlipped, func(gameID string, e Event) {
		got = append(got, "flip:"+gameID)
	})
	if bus.Subscribe(nil) != -1 {
		t.Fatalf("expected nil listener to be refused")
	}

	bus.PublishBatch("g1", []Event{
		NewEvent(EventCardPlaced, "c1", "alice"),
		NewEvent(EventCardFlipped, "c2", "alice"),
	})
	bus.Unsubscribe(handle)
	bus.Publish("g1", NewEvent(EventCardFlipped, "c3", "alice"))

	want := []string{"all:CARD_PLACED", "all:CARD_FLIPPED", "flip:g1", "all:CARD_FLIPPED"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestIsCardEvent(t *testing.T) {
	if !EventCardLocked.IsCardEvent() {
		t.Fatalf("expected CARD_LOCKED to be a card event")
	}
	if EventTileStateChanged.IsCardEvent() || EventGameOver.IsCardEvent() {
		t.Fatalf("board and game events are not card events")
	}
}
