package gamehub

import (
	"context"
	"net/http"
	"net/url"
)

// ListUsers returns all accounts. Requires the admin role.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.getJSON(ctx, "/api/users", nil, &users, "users"); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser returns a single account.
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	if err := c.getJSON(ctx, "/api/users/"+url.PathEscape(id), nil, &user, "user"); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes an account. Requires the admin role.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(id), nil, nil, nil, "delete user")
}

// AddGameToLibrary adds the game to the user's library.
func (c *Client) AddGameToLibrary(ctx context.Context, userID string, game LibraryGame) error {
	return c.sendJSON(ctx, http.MethodPut, "/api/users/addGame", nil, libraryAction{UserID: userID, Game: game}, nil, "add game")
}

// RemoveGameFromLibrary removes the game from the user's library.
func (c *Client) RemoveGameFromLibrary(ctx context.Context, userID string, game LibraryGame) error {
	return c.sendJSON(ctx, http.MethodPut, "/api/users/deleteGame", nil, libraryAction{UserID: userID, Game: game}, nil, "remove game")
}
