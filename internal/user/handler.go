package user

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/binhbb2204/GameShelf/internal/auth"
	"github.com/binhbb2204/GameShelf/internal/events"
	"github.com/binhbb2204/GameShelf/internal/storage"
	"github.com/binhbb2204/GameShelf/pkg/logger"
	"github.com/binhbb2204/GameShelf/pkg/models"
	"github.com/binhbb2204/GameShelf/pkg/utils"
	"github.com/gin-gonic/gin"
)

const defaultSearchLimit = 20

// Handler serves account and profile endpoints.
type Handler struct {
	store     storage.Store
	revoker   auth.Revoker
	publisher events.Publisher
	logger    *logger.Logger
}

func NewHandler(store storage.Store, revoker auth.Revoker, publisher events.Publisher, log *logger.Logger) *Handler {
	return &Handler{store: store, revoker: revoker, publisher: publisher, logger: log}
}

// GetProfile returns the caller's account with stats. The library itself is
// served by the library endpoints.
func (h *Handler) GetProfile(c *gin.Context) {
	user, ok := h.loadCurrentUser(c)
	if !ok {
		return
	}
	user.Library = nil
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err)
		return
	}
	if req.Bio == nil && req.FavoriteGenres == nil {
		utils.RespondError(c, http.StatusBadRequest, "At least one of bio or favorite_genres is required")
		return
	}

	user, ok := h.loadCurrentUser(c)
	if !ok {
		return
	}

	profile := user.Profile
	if req.Bio != nil {
		profile.Bio = strings.TrimSpace(*req.Bio)
	}
	if req.FavoriteGenres != nil {
		profile.FavoriteGenres = normalizeGenres(req.FavoriteGenres)
	}

	if err := h.store.UpdateProfile(c.Request.Context(), user.ID, profile); err != nil {
		h.respondStoreError(c, "profile_update_failed", err)
		return
	}

	h.logger.Info("profile_updated", "user_id", user.ID)
	user.Profile = profile
	user.Library = nil
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": user})
}

// DeleteAccount removes the caller and their library after the password is
// confirmed. The presented token is revoked as well.
func (h *Handler) DeleteAccount(c *gin.Context) {
	var req models.DeleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err)
		return
	}

	user, ok := h.loadCurrentUser(c)
	if !ok {
		return
	}
	if err := utils.CheckPassword(user.PasswordHash, req.Password); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := h.store.DeleteUser(c.Request.Context(), user.ID); err != nil {
		h.respondStoreError(c, "account_delete_failed", err)
		return
	}

	if claims, ok := auth.ClaimsFrom(c); ok && h.revoker != nil {
		expiresAt := time.Now().Add(utils.TokenTTL)
		if claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
		if err := h.revoker.Revoke(c.Request.Context(), claims.ID, expiresAt); err != nil {
			h.logger.Warn("token_revoke_failed", "user_id", user.ID, "error", err.Error())
		}
	}
	if h.publisher != nil {
		h.publisher.Publish(events.NewEvent(events.EventAccountDeleted, user.ID, map[string]interface{}{
			"username": user.Username,
		}))
	}

	h.logger.Info("account_deleted", "user_id", user.ID, "username", user.Username)
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}

func (h *Handler) SearchUsers(c *gin.Context) {
	var req models.UserSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.RespondValidationError(c, err)
		return
	}
	limit := req.Limit
	if limit == 0 {
		limit = defaultSearchLimit
	}

	users, err := h.store.SearchUsers(c.Request.Context(), strings.TrimSpace(req.Query), limit)
	if err != nil {
		utils.RespondInternalError(c, h.logger, "user_search_failed", err)
		return
	}

	results := make([]models.PublicProfile, 0, len(users))
	for i := range users {
		results = append(results, users[i].Public())
	}
	c.JSON(http.StatusOK, gin.H{"users": results, "count": len(results)})
}

func (h *Handler) GetPublicProfile(c *gin.Context) {
	user, err := h.store.GetUserByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.respondStoreError(c, "public_profile_lookup_failed", err)
		return
	}
	c.JSON(http.StatusOK, user.Public())
}

func (h *Handler) loadCurrentUser(c *gin.Context) (*models.User, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		utils.RespondError(c, http.StatusUnauthorized, "User not authenticated")
		return nil, false
	}
	user, err := h.store.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		h.respondStoreError(c, "user_lookup_failed", err)
		return nil, false
	}
	return user, true
}

func (h *Handler) respondStoreError(c *gin.Context, event string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		utils.RespondError(c, http.StatusNotFound, "User not found")
		return
	}
	utils.RespondInternalError(c, h.logger, event, err)
}

// normalizeGenres trims entries and drops blanks and case-insensitive repeats.
func normalizeGenres(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, g := range in {
		g = strings.TrimSpace(g)
		key := strings.ToLower(g)
		if g == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, g)
	}
	return out
}
