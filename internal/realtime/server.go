package realtime

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/binhbb2204/GameShelf/internal/auth"
	"github.com/binhbb2204/GameShelf/pkg/logger"
	"github.com/binhbb2204/GameShelf/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Server struct {
	hub       *Hub
	jwtSecret string
	revoker   auth.Revoker
	logger    *logger.Logger
	upgrader  websocket.Upgrader
}

// NewServer builds the websocket endpoint. allowedOrigin restricts browser
// origins; empty accepts any origin.
func NewServer(hub *Hub, jwtSecret string, revoker auth.Revoker, allowedOrigin string, log *logger.Logger) *Server {
	return &Server{
		hub:       hub,
		jwtSecret: jwtSecret,
		revoker:   revoker,
		logger:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || origin == "" || strings.EqualFold(origin, allowedOrigin)
			},
		},
	}
}

// HandleWebSocket authenticates with ?token= (browsers cannot set headers on
// upgrade requests) or a bearer header, then upgrades.
func (s *Server) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if h := c.GetHeader("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
			token = strings.TrimSpace(h[7:])
		}
	}
	if token == "" {
		utils.RespondError(c, http.StatusUnauthorized, "Token required")
		return
	}

	claims, err := utils.ValidateJWT(token, s.jwtSecret)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, "Invalid token")
		return
	}
	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			utils.RespondInternalError(c, s.logger, "token_revocation_check_failed", err)
			return
		}
		if revoked {
			utils.RespondError(c, http.StatusUnauthorized, "Token revoked")
			return
		}
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("ws_upgrade_failed", "error", err.Error(), "user_id", claims.UserID)
		return
	}

	client := newClient(s.hub, conn, claims.UserID, claims.Username)
	id, _ := utils.GenerateID(8)
	if welcome, err := json.Marshal(ServerMessage{
		ID:        id,
		Type:      MessageTypeWelcome,
		Content:   "connected as " + claims.Username,
		Timestamp: time.Now().UTC(),
	}); err == nil {
		client.send <- welcome
	}

	if !s.hub.Register(client) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
