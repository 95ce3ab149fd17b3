package collab

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// drain empties a session's send buffer into decoded envelopes
func drain(t *testing.T, s *Session) []map[string]any {
	t.Helper()
	var events []map[string]any
	for {
		select {
		case msg := <-s.send:
			var decoded map[string]any
			if err := json.Unmarshal(msg, &decoded); err != nil {
				t.Fatalf("undecodable event: %v", err)
			}
			events = append(events, decoded)
		default:
			return events
		}
	}
}

func TestJoin_NotifiesOthersNotSender(t *testing.T) {
	hub := testHub()
	alice := hub.Register("alice")
	bob := hub.Register("bob")

	hub.Dispatch(alice, &Envelope{Event: EventJoin, DocumentID: "doc-1"})
	hub.Dispatch(bob, &Envelope{Event: EventJoin, DocumentID: "doc-1"})

	if events := drain(t, bob); len(events) != 0 {
		t.Errorf("joining session received its own join: %v", events)
	}

	aliceEvents := drain(t, alice)
	if len(aliceEvents) != 1 {
		t.Fatalf("expected 1 event for alice, got %d", len(aliceEvents))
	}
	if aliceEvents[0]["event"] != "user_joined" || aliceEvents[0]["user_id"] != "bob" {
		t.Errorf("unexpected event: %v", aliceEvents[0])
	}
	if aliceEvents[0]["timestamp"] == nil {
		t.Error("event missing timestamp")
	}
}

func TestJoin_Idempotent(t *testing.T) {
	hub := testHub()
	alice := hub.Register("alice")
	bob := hub.Register("bob")

	hub.Dispatch(alice, &Envelope{Event: EventJoin, DocumentID: "doc-1"})
	hub.Dispatch(bob, &Envelope{Event: EventJoin, DocumentID: "doc-1"})
	drain(t, alice)

	// Re-join must not re-notify
	hub.Dispatch(bob, &Envelope{Event: EventJoin, DocumentID: "doc-1"})
	if events := drain(t, alice); len(events) != 0 {
		t.Errorf("re-join notified members again: %v", events)
	}
	if hub.RoomSize("doc-1") != 2 {
		t.Errorf("room size = %d, want 2", hub.RoomSize("doc-1"))
	}
}

func TestJoin_UnrelatedRoomUnaffected(t *testing.T) {
	hub := testHub()
	alice := hub.Register("alice")
	carol := hub.Register("carol")

	hub.Dispatch(alice, &Envelope{Event: EventJoin, DocumentID: "doc-1"})
	hub.Dispatch(carol, &Envelope{Event: EventJoin, DocumentID: "doc-2"})

	if events := drain(t, alice); len(events) != 0 {
		t.Errorf("join in another room leaked: %v", events)
	}
}

func TestLeave_NotifiesRemaining(t *testing.T) {
	hub := testHub()
	alice := hub.Register("alice")
	bob := hub.Register("bob")

	hub.Dispatch(alice, &Envelope{Event: EventJoin, DocumentID: "doc-1"})
	hub.Dispatch(bob, &Envelope{Event: EventJoin, DocumentID: "doc-1"})
	drain(t, alice)

	hub.Dispatch(bob, &Envelope{Event: EventLeave, DocumentID: "doc-1"})

	events := drain(t, alice)
	if len(events) != 1 || events[0]["event"] != "user_left" || events[0]["user_id"] != "bob" {
		t.Errorf("unexpected events: %v", events)
	}
	if hub.RoomSize("doc-1") != 1 {
		t.Errorf("room size = %d, want 1", hub.RoomSize("doc-1"))
	}
}

func TestCursorMove_RelayedToOthersOnly(t *testing.T) {
	hub := testHub()
	alice := hub.Register("alice")
	bob := hub.Register("bob")

	hub.Dispatch(alice, &Envelope{Event: EventJoin, DocumentID: "doc-1"})
	hub.Dispatch(bob, &Envelope{Event: EventJoin, DocumentID: "doc-1"})
	drain(t, alice)

	hub.Dispatch(bob, &Envelope{
		Event:      EventCursorMove,
		DocumentID: "doc-1",
		Position:   json.RawMessage(`{"node_id":"n1","offset":12}`),
	})

	events := drain(t, alice)
	if len(events) != 1 || events[0]["event"] != "cursor_update" {
		t.Fatalf("unexpected events: %v", events)
	}
	position, ok := events[0]["position"].(map[string]any)
	if !ok || position["offset"] != float64(12) {
		t.Errorf("position not relayed verbatim: %v", events[0]["position"])
	}
	if len(drain(t, bob)) != 0 {
		t.Error("sender received its own cursor update")
	}
}

func TestTyping_DroppedWhenNodeMissing(t *testing.T) {
	hub := testHub()
	alice := hub.Register("alice")
	bob := hub.Register("bob")

	hub.Dispatch(alice, &Envelope{Event: EventJoin, DocumentID: "doc-1"})
	hub.Dispatch(bob, &Envelope{Event: EventJoin, DocumentID: "doc-1"})
	drain(t, alice)

	hub.Dispatch(bob, &Envelope{Event: EventTyping, DocumentID: "doc-1"})
	if events := drain(t, alice); len(events) != 0 {
		t.Errorf("typing without node_id relayed: %v", events)
	}

	hub.Dispatch(bob, &Envelope{Event: EventTyping, DocumentID: "doc-1", NodeID: "n1"})
	events := drain(t, alice)
	if len(events) != 1 || events[0]["event"] != "user_typing" || events[0]["node_id"] != "n1" {
		t.Errorf("unexpected events: %v", events)
	}
}

func TestDispatch_MissingDocumentDropped(t *testing.T) {
	hub := testHub()
	alice := hub.Register("alice")
	hub.Dispatch(alice, &Envelope{Event: EventJoin})
	if hub.RoomSize("") != 0 {
		t.Error("join without document_id created a room")
	}
}

func TestBroadcast_IncludesAllMembers(t *testing.T) {
	hub := testHub()
	alice := hub.Register("alice")
	bob := hub.Register("bob")

	hub.Dispatch(alice, &Envelope{Event: EventJoin, DocumentID: "doc-1"})
	hub.Dispatch(bob, &Envelope{Event: EventJoin, DocumentID: "doc-1"})
	drain(t, alice)

	hub.Broadcast("doc-1", EventContentUpdated, map[string]any{
		"document_id": "doc-1",
		"node_id":     "n1",
		"user_id":     "bob",
		"content":     "<p>new</p>",
		"timestamp":   "2026-01-01T00:00:00Z",
	})

	for name, s := range map[string]*Session{"alice": alice, "bob": bob} {
		events := drain(t, s)
		if len(events) != 1 {
			t.Fatalf("%s: expected 1 event, got %d", name, len(events))
		}
		if events[0]["event"] != "content_updated" || events[0]["node_id"] != "n1" {
			t.Errorf("%s: unexpected event %v", name, events[0])
		}
	}
}

func TestDisconnect_ImplicitLeaveOfAllRooms(t *testing.T) {
	hub := testHub()
	alice := hub.Register("alice")
	bob := hub.Register("bob")

	hub.Dispatch(alice, &Envelope{Event: EventJoin, DocumentID: "doc-1"})
	hub.Dispatch(alice, &Envelope{Event: EventJoin, DocumentID: "doc-2"})
	hub.Dispatch(bob, &Envelope{Event: EventJoin, DocumentID: "doc-1"})
	drain(t, alice)
	drain(t, bob)

	hub.Disconnect(alice)

	events := drain(t, bob)
	if len(events) != 1 || events[0]["event"] != "user_left" || events[0]["user_id"] != "alice" {
		t.Errorf("unexpected events after disconnect: %v", events)
	}
	if hub.RoomSize("doc-1") != 1 {
		t.Errorf("doc-1 room size = %d, want 1", hub.RoomSize("doc-1"))
	}
	if hub.RoomSize("doc-2") != 0 {
		t.Errorf("doc-2 room size = %d, want 0", hub.RoomSize("doc-2"))
	}

	// Disconnect is idempotent
	hub.Disconnect(alice)
}

func TestDeliver_FullBufferDropsEvent(t *testing.T) {
	hub := testHub()
	alice := hub.Register("alice")
	bob := hub.Register("bob")

	hub.Dispatch(alice, &Envelope{Event: EventJoin, DocumentID: "doc-1"})
	hub.Dispatch(bob, &Envelope{Event: EventJoin, DocumentID: "doc-1"})
	drain(t, alice)

	// Overfill alice's buffer; excess events must be dropped, not block
	for i := 0; i < sendBufferSize+10; i++ {
		hub.Dispatch(bob, &Envelope{Event: EventTyping, DocumentID: "doc-1", NodeID: "n1"})
	}

	if got := len(drain(t, alice)); got != sendBufferSize {
		t.Errorf("delivered %d events, want buffer size %d", got, sendBufferSize)
	}
}
