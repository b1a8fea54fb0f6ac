package auth

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/binhbb2204/GameShelf/internal/storage"
	"github.com/binhbb2204/GameShelf/pkg/logger"
	"github.com/binhbb2204/GameShelf/pkg/models"
	"github.com/binhbb2204/GameShelf/pkg/utils"
	"github.com/gin-gonic/gin"
)

var (
	errWeakPassword    = errors.New("password too weak: must be at least 8 characters with mixed case and numbers")
	errInvalidUsername = errors.New("username may only contain letters, numbers and underscores")
	errUsernameLength  = errors.New("username must be between 3 and 30 characters")
)

type Handler struct {
	store     storage.Store
	jwtSecret string
	revoker   Revoker
	logger    *logger.Logger
}

func NewHandler(store storage.Store, jwtSecret string, revoker Revoker, log *logger.Logger) *Handler {
	if revoker == nil {
		revoker = NewMemoryRevoker()
	}
	return &Handler{store: store, jwtSecret: jwtSecret, revoker: revoker, logger: log}
}

// Revoker is shared with AuthMiddleware so logged-out tokens are rejected.
func (h *Handler) Revoker() Revoker {
	return h.revoker
}

func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateUsername(req.Username); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid email format")
		return
	}
	if err := validatePasswordStrength(req.Password); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.RespondInternalError(c, h.logger, "password_hash_failed", err)
		return
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           utils.NewUUID(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Profile:      models.Profile{FavoriteGenres: []string{}, JoinDate: now},
		Library:      []models.GameEntry{},
		CreatedAt:    now,
	}
	if err := h.store.CreateUser(c.Request.Context(), user); err != nil {
		switch {
		case errors.Is(err, storage.ErrUsernameTaken):
			utils.RespondError(c, http.StatusConflict, "Username already exists")
		case errors.Is(err, storage.ErrEmailTaken):
			utils.RespondError(c, http.StatusConflict, "Email already exists")
		default:
			utils.RespondInternalError(c, h.logger, "user_create_failed", err)
		}
		return
	}

	h.logger.Info("user_registered", "user_id", user.ID, "username", user.Username)
	h.respondWithToken(c, http.StatusCreated, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err)
		return
	}
	if req.Username == "" && req.Email == "" {
		utils.RespondError(c, http.StatusBadRequest, "Username or email is required")
		return
	}

	var (
		user *models.User
		err  error
	)
	if req.Username != "" {
		user, err = h.store.GetUserByUsername(c.Request.Context(), strings.TrimSpace(req.Username))
	} else {
		user, err = h.store.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			utils.RespondError(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		utils.RespondInternalError(c, h.logger, "login_lookup_failed", err)
		return
	}

	if err := utils.CheckPassword(user.PasswordHash, req.Password); err != nil {
		h.logger.Warn("login_failed", "user_id", user.ID)
		utils.RespondError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	h.logger.Info("user_logged_in", "user_id", user.ID)
	h.respondWithToken(c, http.StatusOK, user)
}

// Logout revokes the presented token for the rest of its lifetime.
func (h *Handler) Logout(c *gin.Context) {
	claims, ok := ClaimsFrom(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	expiresAt := time.Now().Add(utils.TokenTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := h.revoker.Revoke(c.Request.Context(), claims.ID, expiresAt); err != nil {
		utils.RespondInternalError(c, h.logger, "token_revoke_failed", err)
		return
	}

	h.logger.Info("user_logged_out", "user_id", claims.UserID)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err)
		return
	}
	if err := validatePasswordStrength(req.NewPassword); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.store.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			utils.RespondError(c, http.StatusNotFound, "Account not found")
			return
		}
		utils.RespondInternalError(c, h.logger, "change_password_lookup_failed", err)
		return
	}
	if err := utils.CheckPassword(user.PasswordHash, req.CurrentPassword); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	newHash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		utils.RespondInternalError(c, h.logger, "password_hash_failed", err)
		return
	}
	if err := h.store.UpdatePassword(c.Request.Context(), userID, newHash); err != nil {
		utils.RespondInternalError(c, h.logger, "password_update_failed", err)
		return
	}

	h.logger.Info("password_changed", "user_id", userID)
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

func (h *Handler) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, err := utils.GenerateJWT(user.ID, user.Username, h.jwtSecret)
	if err != nil {
		utils.RespondInternalError(c, h.logger, "token_generate_failed", err)
		return
	}
	c.JSON(status, models.AuthResponse{
		Token:     token,
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		ExpiresAt: time.Now().Add(utils.TokenTTL).UTC(),
		CreatedAt: user.CreatedAt,
	})
}

func validateUsername(name string) error {
	if len(name) < 3 || len(name) > 30 {
		return errUsernameLength
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return errInvalidUsername
		}
	}
	return nil
}

func validatePasswordStrength(pw string) error {
	if len(pw) < 8 {
		return errWeakPassword
	}
	var lower, upper, digit bool
	for _, r := range pw {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	if !(lower && upper && digit) {
		return errWeakPassword
	}
	return nil
}
