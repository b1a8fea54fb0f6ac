package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/binhbb2204/GameShelf/cli/config"
)

const requestTimeout = 15 * time.Second

var (
	errNotLoggedIn    = errors.New("not logged in (run: gameshelf auth login)")
	errNotInitialized = errors.New("configuration not initialized (run: gameshelf init)")
)

// apiError is a non-2xx response from the server.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return e.Message
}

func statusOf(err error) int {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// clientFromConfig builds a client from the saved config. With requireAuth the
// saved token must be present.
func clientFromConfig(requireAuth bool) (*apiClient, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrNotInitialized) {
			return nil, nil, errNotInitialized
		}
		return nil, nil, err
	}
	if requireAuth && cfg.User.Token == "" {
		return nil, nil, errNotLoggedIn
	}
	return newAPIClient(cfg.ServerURL(), cfg.User.Token), cfg, nil
}

func (c *apiClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *apiClient) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *apiClient) put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *apiClient) delete(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodDelete, path, body, out)
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		cliLog.Error("api_request_failed", "method", method, "path", path, "error", err.Error())
		return fmt.Errorf("server connection error: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	cliLog.Info("api_request", "method", method, "path", path, "status", res.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var errRes struct {
			Error  string `json:"error"`
			Reason string `json:"reason"`
		}
		_ = json.Unmarshal(data, &errRes)
		msg := errRes.Error
		if msg == "" {
			msg = errRes.Reason
		}
		if res.StatusCode >= 500 {
			cliLog.Error("api_server_error", "path", path, "status", res.StatusCode, "error", msg)
		}
		return &apiError{Status: res.StatusCode, Message: msg}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}
