package collab

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// sendBufferSize bounds each session's outbound queue. A session whose
// buffer is full misses the event; there is no backpressure or replay.
const sendBufferSize = 64

// Session is one authenticated realtime connection. The websocket client
// owns the read and write pumps; the hub only ever touches the send
// channel and the joined-room set.
type Session struct {
	UserID string

	hub    *Hub
	send   chan []byte
	rooms  map[string]bool
	closed bool
}

// Hub keeps the in-memory room registry: document id to the set of
// sessions currently joined. Rooms are not a source of truth; the registry
// is rebuilt from scratch on restart.
type Hub struct {
	mu     sync.Mutex
	rooms  map[string]map[*Session]bool
	logger *slog.Logger
}

// NewHub creates an empty room registry
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Session]bool),
		logger: logger,
	}
}

// Register creates a session for an authenticated connection. The session
// belongs to no room until it sends a join event.
func (h *Hub) Register(userID string) *Session {
	return &Session{
		UserID: userID,
		hub:    h,
		send:   make(chan []byte, sendBufferSize),
		rooms:  make(map[string]bool),
	}
}

// Dispatch routes one inbound event from a session. Malformed events
// (missing required fields) are dropped silently; they never terminate
// the connection.
func (h *Hub) Dispatch(s *Session, env *Envelope) {
	if env.DocumentID == "" {
		h.logger.Debug("event dropped: missing document_id", "event", env.Event, "user_id", s.UserID)
		return
	}

	switch env.Event {
	case EventJoin:
		h.join(s, env.DocumentID)
	case EventLeave:
		h.leave(s, env.DocumentID)
	case EventCursorMove:
		h.relayToOthers(s, env.DocumentID, &Envelope{
			Event:      EventCursorUpdate,
			DocumentID: env.DocumentID,
			UserID:     s.UserID,
			Position:   env.Position,
			Timestamp:  stamp(),
		})
	case EventTyping:
		if env.NodeID == "" {
			h.logger.Debug("typing dropped: missing node_id", "user_id", s.UserID)
			return
		}
		h.relayToOthers(s, env.DocumentID, &Envelope{
			Event:      EventUserTyping,
			DocumentID: env.DocumentID,
			NodeID:     env.NodeID,
			UserID:     s.UserID,
			Timestamp:  stamp(),
		})
	default:
		h.logger.Debug("unknown event dropped", "event", env.Event, "user_id", s.UserID)
	}
}

// join adds the session to the document's room and tells the other members.
// Re-join while already joined is idempotent and notifies nobody twice.
func (h *Hub) join(s *Session, documentID string) {
	h.mu.Lock()
	room, ok := h.rooms[documentID]
	if !ok {
		room = make(map[*Session]bool)
		h.rooms[documentID] = room
	}
	already := room[s]
	room[s] = true
	s.rooms[documentID] = true
	h.mu.Unlock()

	if already {
		return
	}

	h.relayToOthers(s, documentID, &Envelope{
		Event:      EventUserJoined,
		DocumentID: documentID,
		UserID:     s.UserID,
		Timestamp:  stamp(),
	})
}

// leave removes the session from the room and tells the remaining members.
// The room itself is dropped when its last member leaves.
func (h *Hub) leave(s *Session, documentID string) {
	h.mu.Lock()
	room, ok := h.rooms[documentID]
	if !ok || !room[s] {
		h.mu.Unlock()
		return
	}
	delete(room, s)
	delete(s.rooms, documentID)
	if len(room) == 0 {
		delete(h.rooms, documentID)
	}
	h.mu.Unlock()

	h.relayToOthers(s, documentID, &Envelope{
		Event:      EventUserLeft,
		DocumentID: documentID,
		UserID:     s.UserID,
		Timestamp:  stamp(),
	})
}

// Disconnect treats a closed connection as an implicit leave of every
// joined room, then closes the session's send channel.
func (h *Hub) Disconnect(s *Session) {
	h.mu.Lock()
	if s.closed {
		h.mu.Unlock()
		return
	}
	s.closed = true
	joined := make([]string, 0, len(s.rooms))
	for documentID := range s.rooms {
		joined = append(joined, documentID)
	}
	h.mu.Unlock()

	for _, documentID := range joined {
		h.leave(s, documentID)
	}

	h.mu.Lock()
	close(s.send)
	h.mu.Unlock()
}

// Broadcast fans an event out to every member of the document's room,
// sender included. It implements the Broadcaster capability used by the
// content service for content_updated.
func (h *Hub) Broadcast(documentID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("broadcast payload marshal failed", "event", event, "error", err)
		return
	}

	// The content service payload is already a complete object; wrap it
	// with the event name at the top level.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		h.logger.Error("broadcast payload not an object", "event", event, "error", err)
		return
	}
	fields["event"], _ = json.Marshal(event)
	message, err := json.Marshal(fields)
	if err != nil {
		h.logger.Error("broadcast message marshal failed", "event", event, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for member := range h.rooms[documentID] {
		h.deliver(member, message)
	}
}

// relayToOthers sends the envelope to every room member except the sender
func (h *Hub) relayToOthers(sender *Session, documentID string, env *Envelope) {
	message, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("event marshal failed", "event", env.Event, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for member := range h.rooms[documentID] {
		if member == sender {
			continue
		}
		h.deliver(member, message)
	}
}

// deliver is best-effort: a full send buffer drops the event. Callers hold
// the hub mutex, which also guards against sends on a closed channel.
func (h *Hub) deliver(s *Session, message []byte) {
	if s.closed {
		return
	}
	select {
	case s.send <- message:
	default:
		h.logger.Debug("event dropped: send buffer full", "user_id", s.UserID)
	}
}

// RoomSize reports the current member count of a document's room
func (h *Hub) RoomSize(documentID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[documentID])
}
