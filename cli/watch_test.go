package cli

import (
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binhbb2204/GameShelf/internal/events"
	"github.com/binhbb2204/GameShelf/internal/realtime"
)

func TestWebsocketURL(t *testing.T) {
	tests := []struct {
		server string
		want   string
	}{
		{"http://localhost:8080", "ws://localhost:8080/api/ws?token=a+b"},
		{"https://games.example.com", "wss://games.example.com/api/ws?token=a+b"},
		{"http://localhost:8080/", "ws://localhost:8080/api/ws?token=a+b"},
	}
	for _, tt := range tests {
		got, err := websocketURL(tt.server, "a b")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestFormatServerMessage(t *testing.T) {
	color.NoColor = true
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)

	add := events.NewEvent(events.EventLibraryAdd, "u1", map[string]interface{}{
		"game_id": float64(4200), "name": "Portal 2", "status": "playing",
	})
	got := formatServerMessage(realtime.ServerMessage{Type: realtime.MessageTypeEvent, Event: &add, Timestamp: ts})
	assert.Equal(t, "[10:00:00] + added Portal 2 (playing)", got)

	remove := events.NewEvent(events.EventLibraryRemove, "u1", map[string]interface{}{"game_id": float64(4200)})
	got = formatServerMessage(realtime.ServerMessage{Type: realtime.MessageTypeEvent, Event: &remove, Timestamp: ts})
	assert.Equal(t, "[10:00:00] - removed game 4200", got)

	change := events.NewEvent(events.EventStatusChange, "u1", map[string]interface{}{
		"game_id": float64(4200), "from": "playing", "to": "completed",
	})
	got = formatServerMessage(realtime.ServerMessage{Type: realtime.MessageTypeEvent, Event: &change, Timestamp: ts})
	assert.Equal(t, "[10:00:00] ~ game 4200: playing -> completed", got)

	got = formatServerMessage(realtime.ServerMessage{Type: realtime.MessageTypeWelcome, Content: "Connected as alice", Timestamp: ts})
	assert.Equal(t, "[10:00:00] Connected as alice", got)

	got = formatServerMessage(realtime.ServerMessage{Type: realtime.MessageTypeError, Content: "unknown command", Timestamp: ts})
	assert.Equal(t, "[10:00:00] error: unknown command", got)
}
