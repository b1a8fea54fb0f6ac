package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClientSendsTokenAndDecodes(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":2}`))
	}))
	defer srv.Close()

	client := newAPIClient(srv.URL, "tok")
	var out struct {
		Count int `json:"count"`
	}
	err := client.get(context.Background(), "/api/games/library", url.Values{"status": {"playing"}}, &out)
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "status=playing", gotQuery)
	assert.Equal(t, 2, out.Count)
}

func TestAPIClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/conflict":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"Username already exists"}`))
		case "/readyz":
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"not_ready","reason":"database_ping_failed"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	client := newAPIClient(srv.URL, "")

	err := client.post(context.Background(), "/conflict", map[string]string{"username": "alice"}, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, statusOf(err))
	assert.Equal(t, "Username already exists", err.Error())

	err = client.get(context.Background(), "/readyz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(err))
	assert.Equal(t, "database_ping_failed", err.Error())

	err = client.get(context.Background(), "/other", nil, nil)
	assert.Equal(t, "server returned status 502", err.Error())
}

func TestAPIClientSendsJSONBody(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := newAPIClient(srv.URL, "").put(context.Background(), "/x", map[string]int{"user_rating": 8}, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(8), body["user_rating"])
}

func TestConnectionErrorIsNotAPIError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	err := newAPIClient(addr, "").get(context.Background(), "/health", nil, nil)
	require.Error(t, err)
	assert.Zero(t, statusOf(err))
	assert.True(t, strings.HasPrefix(err.Error(), "server connection error"))
}

func TestReadLineSharesReader(t *testing.T) {
	r := strings.NewReader("first\r\nsecond\nlast")

	for _, want := range []string{"first", "second", "last"} {
		got, err := readLine(r)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := readLine(r)
	assert.Error(t, err)
}
