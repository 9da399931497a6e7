// Package board is a terminal dashboard for the cafe floor. It polls the API, keeps local
// optimistic edits until the server confirms them, and recomputes timers every second.
package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yeremiapane/snooker-cafe/models"
	"github.com/yeremiapane/snooker-cafe/services"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// Client talks JSON to the cafe backend.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) ActiveTables(ctx context.Context) ([]services.SessionView, error) {
	var views []services.SessionView
	err := c.do(ctx, http.MethodGet, "/activetables", nil, &views)
	return views, err
}

func (c *Client) Tables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	err := c.do(ctx, http.MethodGet, "/tables", nil, &tables)
	return tables, err
}

// Patch sends a field-level update for one running session.
func (c *Client) Patch(ctx context.Context, sessionID uint, req services.PatchRequest) (*models.ActiveSession, error) {
	var session models.ActiveSession
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/activetables/%d", sessionID), req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// do sends one request and unwraps the {status,message,data} envelope into out.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env struct {
		Status  bool            `json:"status"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
