package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/binhbb2204/GameShelf/internal/storage/sqlite"
)

func serve(h gin.HandlerFunc, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET(path, h)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
	return resp
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestHealthz_AlwaysReturnsOK(t *testing.T) {
	resp := serve(NewHandler("api", nil).Healthz, "/healthz")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if body := resp.Body.String(); body != `{"status":"alive"}` {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestReadyz_HealthySystem(t *testing.T) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "health.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	resp := serve(NewHandler("api", store).Readyz, "/readyz")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if status := decode(t, resp)["status"]; status != "ready" {
		t.Fatalf("expected ready, got %v", status)
	}
}

func TestReadyz_ClosedDatabase(t *testing.T) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "health.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	store.Close()

	resp := serve(NewHandler("api", store).Readyz, "/readyz")
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	if reason := decode(t, resp)["reason"]; reason != "database_ping_failed" {
		t.Fatalf("unexpected reason: %v", reason)
	}
}

func TestReadyz_NoStore(t *testing.T) {
	resp := serve(NewHandler("api", nil).Readyz, "/readyz")
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestReadyz_CacheDownIsDegradedNotUnready(t *testing.T) {
	ok := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	resp := serve(NewHandler("api", ok).WithCache(down).Readyz, "/readyz")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if cache := decode(t, resp)["cache"]; cache != "unavailable" {
		t.Fatalf("expected cache unavailable, got %v", cache)
	}
}

func TestHealth_ReportsConnections(t *testing.T) {
	h := NewHandler("gameshelf-api", nil).WithConnections(func() int { return 3 })
	body := decode(t, serve(h.Health, "/health"))
	if body["service"] != "gameshelf-api" {
		t.Fatalf("unexpected service: %v", body["service"])
	}
	if body["realtime_users"] != 3.0 {
		t.Fatalf("expected 3 realtime users, got %v", body["realtime_users"])
	}
}
