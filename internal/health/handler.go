package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by the storage backends and the redis client wrapper.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type Handler struct {
	service    string
	store      Pinger
	cache      Pinger
	startedAt  time.Time
	activeUser func() int
}

func NewHandler(service string, store Pinger) *Handler {
	return &Handler{service: service, store: store, startedAt: time.Now()}
}

// WithCache adds an optional dependency. A failing cache degrades the
// readiness report but does not make the server unready.
func (h *Handler) WithCache(cache Pinger) *Handler {
	h.cache = cache
	return h
}

// WithConnections reports the number of users with a live websocket.
func (h *Handler) WithConnections(count func() int) *Handler {
	h.activeUser = count
	return h
}

func (h *Handler) Health(c *gin.Context) {
	body := gin.H{
		"status":  "ok",
		"service": h.service,
		"uptime":  time.Since(h.startedAt).Round(time.Second).String(),
	}
	if h.activeUser != nil {
		body["realtime_users"] = h.activeUser()
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (h *Handler) Readyz(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "reason": "database_not_initialized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "reason": "database_ping_failed"})
		return
	}

	body := gin.H{"status": "ready"}
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			body["cache"] = "unavailable"
		} else {
			body["cache"] = "ok"
		}
	}
	c.JSON(http.StatusOK, body)
}
