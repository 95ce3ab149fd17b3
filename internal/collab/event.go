package collab

import (
	"encoding/json"
	"time"
)

// Inbound event names
const (
	EventJoin       = "join"
	EventLeave      = "leave"
	EventCursorMove = "cursor_move"
	EventTyping     = "typing"
)

// Outbound event names
const (
	EventUserJoined     = "user_joined"
	EventUserLeft       = "user_left"
	EventCursorUpdate   = "cursor_update"
	EventUserTyping     = "user_typing"
	EventContentUpdated = "content_updated"
)

// Envelope is the wire shape of every websocket message, inbound and
// outbound. Position is relayed verbatim; the server never interprets it.
type Envelope struct {
	Event      string          `json:"event"`
	DocumentID string          `json:"document_id,omitempty"`
	NodeID     string          `json:"node_id,omitempty"`
	UserID     string          `json:"user_id,omitempty"`
	Position   json.RawMessage `json:"position,omitempty"`
	Content    json.RawMessage `json:"content,omitempty"`
	Timestamp  string          `json:"timestamp,omitempty"`
}

// stamp returns the event timestamp format used on every outbound payload
func stamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
