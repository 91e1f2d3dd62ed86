package gamehub

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

	"github.com/gamehub/gamehub/internal/config"
	"github.com/gamehub/gamehub/internal/version"
)

var (
	// ErrUnauthorized is returned when the backend rejects or redirects a request because the session is missing or expired.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoSession is returned when a login succeeded but the backend did not issue a session cookie.
	ErrNoSession = errors.New("backend did not issue a session cookie")
)

// APIError is returned for every non-2xx response of the backend.
type APIError struct {
	StatusCode int
	// Message is taken from the backend error body if it has one.
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Message)
}

// Is lets callers match API errors against ErrUnauthorized and ErrNotFound.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized ||
			e.StatusCode == http.StatusForbidden ||
			(e.StatusCode >= 300 && e.StatusCode < 400)
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// errorBody is the error document returned by the backend.
type errorBody struct {
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
	StatusCode int    `json:"statusCode"`
}

// Client represents a GameHub backend API client.
// A Client without a session only reaches public endpoints, use WithSession to act on behalf of a user.
type Client struct {
	baseURL       string
	sessionCookie string
	session       string
	httpClient    *http.Client
}

// New creates a new GameHub API client.
func New(cfg *config.BackendConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:       cfg.URL,
		sessionCookie: cfg.SessionCookie,
		httpClient: &http.Client{
			Timeout: timeout,
			// the backend answers unauthenticated requests with a redirect to its login page
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// WithSession returns a copy of the client that authenticates with the given backend session.
func (c *Client) WithSession(session string) *Client {
	cp := *c
	cp.session = session
	return &cp
}

// Session returns the backend session the client authenticates with.
func (c *Client) Session() string {
	return c.session
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, query url.Values, body any) (*http.Request, error) {
	reqURL := c.baseURL + endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("error marshaling request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "GameHub-Web/"+version.Version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: c.sessionCookie, Value: c.session})
	}
	return req, nil
}

// do sends the request and turns every non-2xx answer into an *APIError.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error performing request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close() //nolint:errcheck
		bodyBytes, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(bodyBytes)}
		var eb errorBody
		if json.Unmarshal(bodyBytes, &eb) == nil && eb.Message != "" {
			apiErr.Message = eb.Message
		}
		return nil, apiErr
	}

	return resp, nil
}

// doRequest performs an HTTP request to the GameHub API.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, query url.Values, body any) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, endpoint, query, body)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// getJSON performs a GET request and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, out any, what string) error {
	return c.sendJSON(ctx, http.MethodGet, endpoint, query, nil, out, what)
}

// sendJSON performs a request and decodes the response into out if out is not nil.
func (c *Client) sendJSON(ctx context.Context, method, endpoint string, query url.Values, body, out any, what string) error {
	resp, err := c.doRequest(ctx, method, endpoint, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding %s response: %w", what, err)
	}
	return nil
}
