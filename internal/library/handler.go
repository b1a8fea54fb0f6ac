package library

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/binhbb2204/GameShelf/internal/games"
	"github.com/binhbb2204/GameShelf/internal/storage"
	"github.com/binhbb2204/GameShelf/pkg/logger"
	"github.com/binhbb2204/GameShelf/pkg/models"
	"github.com/binhbb2204/GameShelf/pkg/utils"
	"github.com/gin-gonic/gin"
)

// Handler exposes a user's library under /api/games. Every route expects
// AuthMiddleware to have set user_id.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

// GetLibrary handles GET /api/games/library?status=&sort_by=&order=
func (h *Handler) GetLibrary(c *gin.Context) {
	var req models.ListLibraryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.RespondValidationError(c, err)
		return
	}
	opts, err := ParseListOptions(req.Status, req.SortBy, req.Order)
	if err != nil {
		h.respondError(c, err)
		return
	}

	entries, stats, err := h.service.List(c.Request.Context(), c.GetString("user_id"), opts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.LibraryResponse{Games: entries, Count: len(entries), Stats: stats})
}

func (h *Handler) GetEntry(c *gin.Context) {
	gameID, ok := parseGameID(c)
	if !ok {
		return
	}
	entry, err := h.service.Get(c.Request.Context(), c.GetString("user_id"), gameID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) AddEntry(c *gin.Context) {
	var req models.AddEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err)
		return
	}

	entry, stats, err := h.service.Add(c.Request.Context(), c.GetString("user_id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.EntryResponse{
		Message: "Game added to library",
		Entry:   *entry,
		Stats:   stats,
	})
}

func (h *Handler) UpdateEntry(c *gin.Context) {
	gameID, ok := parseGameID(c)
	if !ok {
		return
	}
	var req models.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err)
		return
	}
	if req.Status == nil && req.UserRating == nil && req.Notes == nil {
		utils.RespondError(c, http.StatusBadRequest, "At least one of status, user_rating or notes is required")
		return
	}

	entry, stats, err := h.service.Update(c.Request.Context(), c.GetString("user_id"), gameID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.EntryResponse{
		Message: "Library entry updated",
		Entry:   *entry,
		Stats:   stats,
	})
}

func (h *Handler) RemoveEntry(c *gin.Context) {
	gameID, ok := parseGameID(c)
	if !ok {
		return
	}
	stats, err := h.service.Remove(c.Request.Context(), c.GetString("user_id"), gameID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Game removed from library",
		"stats":   stats,
	})
}

// GetStats handles GET /api/games/stats
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func parseGameID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("gameId"), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondError(c, http.StatusBadRequest, "Invalid game ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrDuplicateEntry):
		utils.RespondError(c, http.StatusConflict, "Game already in library")
	case errors.Is(err, ErrEntryNotFound):
		utils.RespondError(c, http.StatusNotFound, "Game not found in library")
	case errors.Is(err, storage.ErrNotFound):
		utils.RespondError(c, http.StatusNotFound, "User not found")
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidRating), errors.Is(err, ErrNotesTooLong),
		errors.Is(err, ErrInvalidSortKey), errors.Is(err, ErrInvalidOrder), errors.Is(err, ErrInvalidGameID),
		errors.Is(err, ErrMissingGameName):
		utils.RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, games.ErrNotConfigured), errors.Is(err, games.ErrCircuitOpen),
		errors.Is(err, games.ErrGameNotFound), errors.Is(err, games.ErrUpstream):
		games.RespondCatalogError(c, h.logger, err)
	default:
		utils.RespondInternalError(c, h.logger, "library_request_failed", err)
	}
}
