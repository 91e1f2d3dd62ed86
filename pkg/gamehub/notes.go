package gamehub

import (
	"context"
	"net/http"
	"net/url"
)

// ListNotes returns the notes of all users.
func (c *Client) ListNotes(ctx context.Context) ([]Note, error) {
	var notes []Note
	if err := c.getJSON(ctx, "/api/notes", nil, &notes, "notes"); err != nil {
		return nil, err
	}
	return notes, nil
}

// GetNote returns a single note.
func (c *Client) GetNote(ctx context.Context, id string) (*Note, error) {
	var note Note
	if err := c.getJSON(ctx, "/api/notes/"+url.PathEscape(id), nil, &note, "note"); err != nil {
		return nil, err
	}
	return &note, nil
}

// NotesByUser returns the notes written by the given user.
func (c *Client) NotesByUser(ctx context.Context, userID string) ([]Note, error) {
	var notes []Note
	if err := c.getJSON(ctx, "/api/notes/user/"+url.PathEscape(userID), nil, &notes, "user notes"); err != nil {
		return nil, err
	}
	return notes, nil
}

func (c *Client) CreateNote(ctx context.Context, in NoteInput) (*Note, error) {
	var note Note
	if err := c.sendJSON(ctx, http.MethodPost, "/api/notes", nil, in, &note, "create note"); err != nil {
		return nil, err
	}
	return &note, nil
}

func (c *Client) UpdateNote(ctx context.Context, id string, in NoteInput) (*Note, error) {
	var note Note
	if err := c.sendJSON(ctx, http.MethodPut, "/api/notes/"+url.PathEscape(id), nil, in, &note, "update note"); err != nil {
		return nil, err
	}
	return &note, nil
}

func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/api/notes/"+url.PathEscape(id), nil, nil, nil, "delete note")
}
