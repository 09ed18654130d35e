package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseBytes = 1 << 20 // 1 MiB

// responsePrefix guards JSON responses against script inclusion.
const responsePrefix = "for (;;);"

// APIError is an error payload returned by the platform.
type APIError struct {
	Code        int    `json:"error"`
	Summary     string `json:"errorSummary"`
	Description string `json:"errorDescription"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("messenger: api error %d: %s: %s", e.Code, e.Summary, e.Description)
}

// Client is an HTTP Transport that posts forms to a base URL with a fixed
// set of session headers. It does not log in or refresh sessions.
type Client struct {
	baseURL string
	headers http.Header
	http    *http.Client
}

var _ Transport = (*Client)(nil)

// NewClient creates a Client. headers are sent with every request, typically
// the session cookie of an already authenticated user.
func NewClient(baseURL string, headers map[string]string, timeout time.Duration) *Client {
	h := make(http.Header, len(headers))
	for k, v := range headers {
		h.Set(k, v)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: h,
		http:    &http.Client{Timeout: timeout},
	}
}

// Post implements Transport.
func (c *Client) Post(ctx context.Context, path string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("messenger: create request %s: %w", path, err)
	}
	for k, v := range c.headers {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("messenger: post %s: %w", path, err)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	if err != nil {
		return fmt.Errorf("messenger: read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("messenger: post %s: unexpected status %d", path, resp.StatusCode)
	}
	return checkResponse(body)
}

// checkResponse reports an APIError embedded in a successful HTTP response.
// Empty and non-JSON bodies are accepted.
func checkResponse(body []byte) error {
	body = bytes.TrimPrefix(bytes.TrimSpace(body), []byte(responsePrefix))
	if len(body) == 0 || body[0] != '{' {
		return nil
	}
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return nil
	}
	if apiErr.Code != 0 {
		return &apiErr
	}
	return nil
}
