package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wisp-cms/wisp/internal/app/domain/setting"
	"github.com/wisp-cms/wisp/internal/app/services/labs"
	"github.com/wisp-cms/wisp/internal/app/services/settings"
)

// Client is a typed HTTP client for the wisp API, used by scenario tests.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// WaitHealthy polls the health endpoint until it answers 200 or the timeout
// elapses.
func (c *Client) WaitHealthy(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := c.Get(ctx, "/healthz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return fmt.Errorf("server not healthy after %s", timeout)
}

// Login authenticates against the admin API and keeps the session token for
// subsequent requests.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/wisp/api/admin/session", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return err
	}
	c.token = out.Token
	return nil
}

// Settings fetches every setting through the admin API.
func (c *Client) Settings(ctx context.Context) ([]setting.Setting, error) {
	var out struct {
		Settings []setting.Setting `json:"settings"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/wisp/api/admin/settings", nil, &out); err != nil {
		return nil, err
	}
	return out.Settings, nil
}

// UpdateSettings applies updates through the admin API.
func (c *Client) UpdateSettings(ctx context.Context, updates ...settings.Update) error {
	payload := map[string]interface{}{"settings": updates}
	return c.doJSON(ctx, http.MethodPut, "/wisp/api/admin/settings", payload, nil)
}

// SetLabsFlag toggles one experimental flag through the admin API, keeping
// the other stored flags as they are.
func (c *Client) SetLabsFlag(ctx context.Context, key string, enabled bool) error {
	stored, err := c.labsSetting(ctx)
	if err != nil {
		return err
	}

	flags := map[string]bool{}
	if stored != "" {
		if err := json.Unmarshal([]byte(stored), &flags); err != nil {
			return fmt.Errorf("failed to parse stored labs value: %w", err)
		}
	}
	flags[key] = enabled

	value, err := json.Marshal(flags)
	if err != nil {
		return err
	}
	return c.UpdateSettings(ctx, settings.Update{Key: setting.KeyLabs, Value: string(value)})
}

func (c *Client) labsSetting(ctx context.Context) (string, error) {
	all, err := c.Settings(ctx)
	if err != nil {
		return "", err
	}
	for _, st := range all {
		if st.Key == setting.KeyLabs {
			return st.Value, nil
		}
	}
	return "", nil
}

// LabsResponse is the admin labs endpoint payload.
type LabsResponse struct {
	Labs  map[string]bool `json:"labs"`
	Flags []labs.Flag     `json:"flags"`
}

// Labs fetches the resolved flag snapshot and per-flag metadata.
func (c *Client) Labs(ctx context.Context) (LabsResponse, error) {
	var out LabsResponse
	err := c.doJSON(ctx, http.MethodGet, "/wisp/api/admin/labs", nil, &out)
	return out, err
}

// Get issues a GET request with the session token when one is held. The
// caller owns the response body.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.http.Do(req)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dst interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}
	if dst == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// apiError turns the server's error envelope into a plain error.
func apiError(resp *http.Response) error {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error == "" {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return fmt.Errorf("%s (status %d)", envelope.Error, resp.StatusCode)
}
