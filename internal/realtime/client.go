package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/binhbb2204/GameShelf/pkg/utils"
	"github.com/gorilla/websocket"
)

const (
	pingPeriod     = 30 * time.Second
	pongWait       = 60 * time.Second
	writeWait      = 10 * time.Second
	maxMessageSize = 4096

	rateLimit  = 20
	rateWindow = 10 * time.Second
)

type Client struct {
	UserID      string
	Username    string
	conn        *websocket.Conn
	send        chan []byte
	hub         *Hub
	connectedAt time.Time

	mu         sync.Mutex
	rateTokens int
	rateLast   time.Time
}

func newClient(hub *Hub, conn *websocket.Conn, userID, username string) *Client {
	now := time.Now()
	return &Client{
		UserID:      userID,
		Username:    username,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		hub:         hub,
		connectedAt: now,
		rateTokens:  rateLimit,
		rateLast:    now,
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("ws_read_error", "user_id", c.UserID, "error", err.Error())
			}
			return
		}

		if !c.consumeRateToken() {
			c.reply(ServerMessage{Type: MessageTypeError, Content: "rate limit exceeded",
				Metadata: map[string]interface{}{"limit": rateLimit}})
			continue
		}
		c.handleMessage(data)
	}
}

func (c *Client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.reply(ServerMessage{Type: MessageTypeError, Content: "invalid message"})
		return
	}

	switch msg.Type {
	case "ping":
		c.reply(ServerMessage{Type: MessageTypePong})
	case "status":
		c.reply(ServerMessage{
			Type:    MessageTypeSystem,
			Content: "connected",
			Metadata: map[string]interface{}{
				"user":        c.Username,
				"connections": c.hub.ConnectionCount(c.UserID),
			},
		})
	default:
		c.reply(ServerMessage{Type: MessageTypeError, Content: "unknown message type"})
	}
}

// reply queues a message for this client only. A full buffer drops it.
func (c *Client) reply(msg ServerMessage) {
	msg.ID, _ = utils.GenerateID(8)
	msg.Timestamp = time.Now().UTC()
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c.UserID][c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) consumeRateToken() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if now.Sub(c.rateLast) >= rateWindow {
		c.rateTokens = rateLimit
		c.rateLast = now
	}
	if c.rateTokens <= 0 {
		return false
	}
	c.rateTokens--
	return true
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
