package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/binhbb2204/GameShelf/internal/events"
	"github.com/binhbb2204/GameShelf/pkg/logger"
	"github.com/binhbb2204/GameShelf/pkg/metrics"
	"github.com/binhbb2204/GameShelf/pkg/utils"
)

const sendBufferSize = 256

// Hub tracks live connections per user. One user may hold several
// connections at once (browser tabs, CLI watchers).
type Hub struct {
	logger     *logger.Logger
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		logger:     log,
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations until ctx is cancelled, then closes every
// connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case <-ctx.Done():
			h.closeAll()
			h.logger.Info("realtime_hub_stopped")
			return
		}
	}
}

// Register hands a client to the hub. It reports false once the hub stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	metrics.IncrementConnectionCount()
	h.logger.Info("ws_client_connected", "user_id", c.UserID, "username", c.Username)
}

// remove closes the client's send channel. It is the only place that does,
// and it is a no-op for clients already removed.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.UserID]
	if ok {
		if _, ok = set[c]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(h.clients, c.UserID)
			}
			close(c.send)
		}
	}
	h.mu.Unlock()

	if ok {
		metrics.DecrementConnectionCount()
		h.logger.Info("ws_client_disconnected", "user_id", c.UserID,
			"duration", time.Since(c.connectedAt).String())
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, set := range h.clients {
		for c := range set {
			close(c.send)
			metrics.DecrementConnectionCount()
		}
		delete(h.clients, userID)
	}
}

// BroadcastToUser pushes an event to all of the user's connections. Clients
// whose buffers are full are dropped.
func (h *Hub) BroadcastToUser(userID string, event events.Event) {
	id, _ := utils.GenerateID(8)
	data, err := json.Marshal(ServerMessage{
		ID:        id,
		Type:      MessageTypeEvent,
		Event:     &event,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		h.logger.Error("ws_event_marshal_failed", "error", err.Error(), "event_type", event.Type)
		return
	}

	slow := h.send(userID, data)
	for _, c := range slow {
		h.logger.Warn("ws_send_channel_full", "user_id", userID)
		h.remove(c)
	}
}

// Attach subscribes the hub to bus. Router handlers only run for users with
// a live connection, and account_deleted closes those connections once the
// event itself has been pushed.
func (h *Hub) Attach(bus *events.Bus) {
	bus.AddBroadcaster(h)
	bus.Router().AddFilter(h.isOnline)
	bus.Router().RegisterHandler(events.EventAccountDeleted, h.closeDeletedAccount)
}

func (h *Hub) isOnline(event events.Event) bool {
	return h.ConnectionCount(event.UserID) > 0
}

func (h *Hub) closeDeletedAccount(event events.Event) error {
	n := h.ConnectionCount(event.UserID)
	h.DisconnectUser(event.UserID)
	h.logger.Info("ws_account_deleted_disconnect", "user_id", event.UserID, "connections", n)
	return nil
}

// send writes data to each of the user's buffers under the read lock, so no
// buffer can be closed mid-send. It returns the clients that were full.
func (h *Hub) send(userID string, data []byte) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var slow []*Client
	for c := range h.clients[userID] {
		select {
		case c.send <- data:
			metrics.IncrementBroadcasts()
		default:
			metrics.IncrementBroadcastFails()
			slow = append(slow, c)
		}
	}
	return slow
}

func (h *Hub) DisconnectUser(userID string) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.remove(c)
	}
}

func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) ActiveUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	users := make([]string, 0, len(h.clients))
	for id := range h.clients {
		users = append(users, id)
	}
	return users
}
