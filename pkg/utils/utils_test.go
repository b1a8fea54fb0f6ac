package utils_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/binhbb2204/GameShelf/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateID(t *testing.T) {
	id, err := utils.GenerateID(16)
	require.NoError(t, err)
	assert.Len(t, id, 32)

	other, err := utils.GenerateID(16)
	require.NoError(t, err)
	assert.NotEqual(t, id, other)

	_, err = utils.GenerateID(0)
	assert.Error(t, err)
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := utils.HashPassword("Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", hash)
	assert.NoError(t, utils.CheckPassword(hash, "Secret123"))
	assert.Error(t, utils.CheckPassword(hash, "secret123"))
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := utils.GenerateJWT("user-1", "alice", "test-secret")
	require.NoError(t, err)

	claims, err := utils.ValidateJWT(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.NotEmpty(t, claims.ID)

	_, err = utils.ValidateJWT(token, "other-secret")
	assert.ErrorIs(t, err, utils.ErrInvalidToken)

	_, err = utils.ValidateJWT("not-a-token", "test-secret")
	assert.ErrorIs(t, err, utils.ErrInvalidToken)
}

func TestJWTExpired(t *testing.T) {
	orig := utils.TokenTTL
	utils.TokenTTL = -time.Minute
	defer func() { utils.TokenTTL = orig }()

	token, err := utils.GenerateJWT("user-1", "alice", "test-secret")
	require.NoError(t, err)

	_, err = utils.ValidateJWT(token, "test-secret")
	assert.ErrorIs(t, err, utils.ErrExpiredToken)
}

type bindTarget struct {
	Name   string `json:"name" binding:"required,min=3"`
	Rating *int   `json:"rating" binding:"omitempty,min=1,max=10"`
	Status string `json:"status" binding:"omitempty,oneof=playing completed"`
}

func bindMessage(t *testing.T, body string) (int, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/", func(c *gin.Context) {
		var req bindTarget
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondValidationError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	return rec.Code, rec.Body.String()
}

func TestValidationMessageUsesFirstFailure(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{}`, `{"error":"name is required"}`},
		{`{"name":"ab"}`, `{"error":"name must be at least 3 characters"}`},
		{`{"name":"abc","rating":11}`, `{"error":"rating must be at most 10"}`},
		{`{"name":"abc","status":"idle"}`, `{"error":"status must be one of: playing, completed"}`},
		{`{"name":`, `{"error":"Malformed JSON body"}`},
		{``, `{"error":"Request body is required"}`},
		{`{"name":"abc","rating":"high"}`, `{"error":"rating must be of type int"}`},
	}
	for _, tc := range cases {
		code, body := bindMessage(t, tc.body)
		assert.Equal(t, http.StatusBadRequest, code, tc.body)
		assert.JSONEq(t, tc.want, body, tc.body)
	}

	code, _ := bindMessage(t, `{"name":"abc","rating":7,"status":"playing"}`)
	assert.Equal(t, http.StatusNoContent, code)
}
