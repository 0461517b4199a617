package scan

import "testing"

// TestEventBusSince verifies incremental event reads by sequence.
func TestEventBusSince(t *testing.T) {
	bus := NewEventBus(3)
	bus.Publish(Event{Type: EventTypeStatus, Message: "1"})
	bus.Publish(Event{Type: EventTypeNotice, Message: "2"})
	bus.Publish(Event{Type: EventTypeResult, Message: "3"})

	events := bus.Since(1)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Seq != 2 || events[1].Seq != 3 {
		t.Fatalf("unexpected seqs: %+v", events)
	}
}

// TestEventBusCapsHistory verifies buffer limit trimming behavior.
func TestEventBusCapsHistory(t *testing.T) {
	bus := NewEventBus(2)
	bus.Publish(Event{Message: "1"})
	bus.Publish(Event{Message: "2"})
	bus.Publish(Event{Message: "3"})

	events := bus.Since(0)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Message != "2" || events[1].Message != "3" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

// TestEventBusLast finds the newest event of a type.
func TestEventBusLast(t *testing.T) {
	bus := NewEventBus(10)
	if _, ok := bus.Last(EventTypeNotice); ok {
		t.Fatal("empty bus should have no notice")
	}
	bus.Publish(Event{Type: EventTypeNotice, Message: "first"})
	bus.Publish(Event{Type: EventTypeStatus, Message: "status"})
	bus.Publish(Event{Type: EventTypeNotice, Message: "second"})

	got, ok := bus.Last(EventTypeNotice)
	if !ok || got.Message != "second" {
		t.Fatalf("last notice = %+v, %v", got, ok)
	}
}

// TestEventBusSinceAfterTrim resumes a poll whose cursor fell out of history.
func TestEventBusSinceAfterTrim(t *testing.T) {
	bus := NewEventBus(2)
	for i := 0; i < 5; i++ {
		bus.Publish(Event{Type: EventTypeStatus})
	}

	events := bus.Since(1)
	if len(events) != 2 || events[0].Seq != 4 || events[1].Seq != 5 {
		t.Fatalf("unexpected events: %+v", events)
	}
	if got := bus.Since(5); got != nil {
		t.Fatalf("caught-up poll = %+v, want nil", got)
	}

	events[0].Message = "mutated"
	if bus.Since(3)[0].Message == "mutated" {
		t.Fatal("Since must return a copy")
	}
}
