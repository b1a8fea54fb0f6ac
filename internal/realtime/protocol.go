package realtime

import (
	"time"

	"github.com/binhbb2204/GameShelf/internal/events"
)

type MessageType string

const (
	MessageTypeWelcome MessageType = "welcome"
	MessageTypeEvent   MessageType = "event"
	MessageTypeSystem  MessageType = "system"
	MessageTypePong    MessageType = "pong"
	MessageTypeError   MessageType = "error"
)

// ClientMessage is what a connected client may send. Only "ping" and
// "status" are understood; the socket is otherwise push-only.
type ClientMessage struct {
	Type    string `json:"type"`
	Command string `json:"command,omitempty"`
}

type ServerMessage struct {
	ID        string                 `json:"id"`
	Type      MessageType            `json:"type"`
	Content   string                 `json:"content,omitempty"`
	Event     *events.Event          `json:"event,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}
