package games

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/binhbb2204/GameShelf/pkg/logger"
	"github.com/binhbb2204/GameShelf/pkg/models"
	"github.com/binhbb2204/GameShelf/pkg/utils"
	"github.com/gin-gonic/gin"
)

// Handler proxies catalog search and details to an ExternalSource.
type Handler struct {
	source ExternalSource
	logger *logger.Logger
}

// NewHandler creates a catalog handler. A nil source answers 503.
func NewHandler(source ExternalSource, log *logger.Logger) *Handler {
	return &Handler{source: source, logger: log}
}

// SearchGames handles GET /api/games/search?search=&page_size=
func (h *Handler) SearchGames(c *gin.Context) {
	var req models.GameSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.RespondValidationError(c, err)
		return
	}
	if h.source == nil {
		RespondCatalogError(c, h.logger, ErrNotConfigured)
		return
	}

	results, err := h.source.Search(c.Request.Context(), req.Search, req.PageSize)
	if err != nil {
		RespondCatalogError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, models.GameSearchResponse{Results: results, Count: len(results)})
}

// GetGameDetails handles GET /api/games/details/:id
func (h *Handler) GetGameDetails(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondError(c, http.StatusBadRequest, "Invalid game ID")
		return
	}
	if h.source == nil {
		RespondCatalogError(c, h.logger, ErrNotConfigured)
		return
	}

	game, err := h.source.GetGameByID(c.Request.Context(), id)
	if err != nil {
		RespondCatalogError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

// RespondCatalogError maps catalog failures onto HTTP statuses.
func RespondCatalogError(c *gin.Context, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, ErrNotConfigured):
		utils.RespondError(c, http.StatusServiceUnavailable, "Catalog not configured")
	case errors.Is(err, ErrCircuitOpen):
		utils.RespondError(c, http.StatusServiceUnavailable, "Catalog temporarily unavailable")
	case errors.Is(err, ErrGameNotFound):
		utils.RespondError(c, http.StatusNotFound, "Game not found in catalog")
	case errors.Is(err, ErrUpstream):
		log.Warn("catalog_upstream_error", "error", err.Error(), "path", c.FullPath())
		utils.RespondError(c, http.StatusBadGateway, "Catalog request failed")
	default:
		utils.RespondInternalError(c, log, "catalog_request_failed", err)
	}
}
