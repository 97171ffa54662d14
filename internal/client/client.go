// Package client provides a REST client for the TerraTrac server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUnauthorized is returned when the server rejects the auth token.
var ErrUnauthorized = errors.New("not authenticated: run 'terratrac auth login'")

// StatusError is a non-2xx response from a read endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:197] + "..."
	}
	return fmt.Sprintf("server error: %d %s - %s", e.StatusCode, http.StatusText(e.StatusCode), body)
}

// TokenSource supplies the tokens attached to each request.
type TokenSource interface {
	AuthToken() string
	CSRFToken() string
}

// Client is a REST client for the TerraTrac server.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// New creates a new REST client.
// If baseURL is empty, uses TERRATRAC_SERVER_URL env var or defaults to localhost:8000.
// A zero timeout falls back to TERRATRAC_CLIENT_TIMEOUT or 10m, which leaves
// room for the server-side risk analysis that runs during an upload.
func New(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("TERRATRAC_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	if timeout <= 0 {
		timeout = 10 * time.Minute
		if t := os.Getenv("TERRATRAC_CLIENT_TIMEOUT"); t != "" {
			if d, err := time.ParseDuration(t); err == nil {
				timeout = d
			}
		}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the server root, without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Response is a raw server reply. The caller classifies it.
type Response struct {
	StatusCode int
	Body       []byte

	header http.Header
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// request describes one call. csrf marks state-changing calls.
type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	length      int64
	contentType string
	csrf        bool
}

// do sends a request and reads the whole reply. Only transport failures
// return an error; every status code comes back as a Response.
func (c *Client) do(ctx context.Context, r request) (*Response, error) {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if r.length > 0 {
		req.ContentLength = r.length
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())

	if c.tokens != nil {
		if token := c.tokens.AuthToken(); token != "" {
			req.Header.Set("Authorization", "Token "+token)
		}
		if r.csrf {
			if csrf := c.tokens.CSRFToken(); csrf != "" {
				req.Header.Set("X-CSRFToken", csrf)
			}
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: body, header: resp.Header}, nil
}

// getJSON fetches path and decodes a 2xx JSON body into result.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, result any) error {
	resp, err := c.do(ctx, request{method: http.MethodGet, path: path, query: query})
	if err != nil {
		return err
	}
	return decodeResponse(resp, result)
}

// postJSON sends payload as JSON with the CSRF header and decodes the reply.
func (c *Client) postJSON(ctx context.Context, path string, payload, result any) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	resp, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		body:        bytes.NewReader(reqBody),
		contentType: "application/json",
		csrf:        true,
	})
	if err != nil {
		return err
	}
	return decodeResponse(resp, result)
}

func decodeResponse(resp *Response, result any) error {
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if !resp.OK() {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	if result != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
