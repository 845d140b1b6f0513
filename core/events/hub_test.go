package events

import "testing"

type testEvent string

func (e testEvent) EventType() string { return string(e) }

type sinkRecorder struct {
	types []string
}

func (s *sinkRecorder) Emit(evt Event) { s.types = append(s.types, evt.EventType()) }

func TestHubDeliversToSubscribersAndSink(t *testing.T) {
	hub := NewHub()
	sink := &sinkRecorder{}
	hub.SetSink(sink)

	updates, cancel := hub.Subscribe(4)
	defer cancel()

	hub.Emit(testEvent("a"))
	hub.Emit(testEvent("b"))

	for _, want := range []string{"a", "b"} {
		select {
		case evt := <-updates:
			if evt.EventType() != want {
				t.Fatalf("expected %q, got %q", want, evt.EventType())
			}
		default:
			t.Fatalf("expected buffered %q event", want)
		}
	}
	if len(sink.types) != 2 || sink.types[0] != "a" || sink.types[1] != "b" {
		t.Fatalf("sink received %v", sink.types)
	}
}

func TestHubSkipsSlowSubscribers(t *testing.T) {
	hub := NewHub()
	updates, cancel := hub.Subscribe(1)
	defer cancel()

	hub.Emit(testEvent("first"))
	hub.Emit(testEvent("dropped"))

	evt := <-updates
	if evt.EventType() != "first" {
		t.Fatalf("expected first event, got %q", evt.EventType())
	}
	select {
	case extra := <-updates:
		t.Fatalf("overflow event must be dropped, got %q", extra.EventType())
	default:
	}
}

func TestHubCancelIsIdempotent(t *testing.T) {
	hub := NewHub()
	updates, cancel := hub.Subscribe(1)
	cancel()
	cancel()

	// Emitting after cancel must not panic on the closed channel.
	hub.Emit(testEvent("late"))
	if _, ok := <-updates; ok {
		t.Fatal("channel must be closed after cancel")
	}
}
