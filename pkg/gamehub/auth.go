package gamehub

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// CurrentUser returns the user the client's session belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	if c.session == "" {
		return nil, ErrUnauthorized
	}
	var user User
	if err := c.getJSON(ctx, "/api/auth/me", nil, &user, "current user"); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, ErrUnauthorized
	}
	return &user, nil
}

// Login authenticates with username and password and returns the backend session issued for it.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/login", nil, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(username, password)

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck

	for _, cookie := range resp.Cookies() {
		if cookie.Name == c.sessionCookie && cookie.Value != "" {
			return cookie.Value, nil
		}
	}
	return "", ErrNoSession
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, creds Credentials) (*User, error) {
	var user User
	if err := c.sendJSON(ctx, http.MethodPost, "/api/auth/register", nil, creds, &user, "register"); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout invalidates the client's session on the backend.
func (c *Client) Logout(ctx context.Context) error {
	if c.session == "" {
		return nil
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/logout", nil, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error performing request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	// the backend redirects to its start page after logging out
	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return nil
}

// GitHubLoginURL returns the backend URL that starts the GitHub authorization flow.
func GitHubLoginURL(baseURL, path string) string {
	if path == "" {
		path = "/oauth2/authorization/github"
	}
	return strings.TrimSuffix(baseURL, "/") + path
}
