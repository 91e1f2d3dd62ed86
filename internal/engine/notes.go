package engine

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gamehub/gamehub/pkg/gamehub"
	"github.com/samber/lo"
)

// NoteForm is a note as submitted by the user.
type NoteForm struct {
	Title    string `form:"title" validate:"required,max=200"`
	Content  string `form:"content" validate:"required,max=10000"`
	Category string `form:"category" validate:"oneof=Note Goal"`
}

func (e *Engine) normalizeNote(form *NoteForm) error {
	form.Title = strings.TrimSpace(form.Title)
	form.Content = strings.TrimSpace(form.Content)
	form.Category = strings.TrimSpace(form.Category)
	if form.Category == "" {
		form.Category = gamehub.CategoryNote
	}
	return e.validateStruct(form)
}

// GameNotes returns the notes of the user for a game.
// The backend has no filtered endpoint, every note is fetched and filtered here.
func (e *Engine) GameNotes(ctx context.Context, session, userID, gameID string) ([]gamehub.Note, error) {
	notes, err := e.client(session).ListNotes(ctx)
	if err != nil {
		log.Error("failed to fetch notes", "error", err)
		return nil, err
	}
	return lo.Filter(notes, func(n gamehub.Note, _ int) bool {
		return n.UserID == userID && n.GameID == gameID
	}), nil
}

// UserNotes returns every note written by the user.
func (e *Engine) UserNotes(ctx context.Context, session, userID string) ([]gamehub.Note, error) {
	notes, err := e.client(session).NotesByUser(ctx, userID)
	if err != nil {
		log.Error("failed to fetch user notes", "user", userID, "error", err)
		return nil, err
	}
	return notes, nil
}

// CreateNote adds a note of the user to a game.
func (e *Engine) CreateNote(ctx context.Context, session, userID string, game gamehub.LibraryGame, form NoteForm) (*gamehub.Note, error) {
	if err := e.normalizeNote(&form); err != nil {
		return nil, err
	}
	note, err := e.client(session).CreateNote(ctx, gamehub.NoteInput{
		UserID:    userID,
		GameID:    game.ID,
		GameTitle: game.Title,
		Title:     form.Title,
		Content:   form.Content,
		Category:  form.Category,
	})
	if err != nil {
		log.Error("failed to create note", "user", userID, "game", game.ID, "error", err)
		return nil, err
	}
	return note, nil
}

// ownNote fetches a note and makes sure it belongs to the user.
func (e *Engine) ownNote(ctx context.Context, session, userID, noteID string) (*gamehub.Note, error) {
	note, err := e.client(session).GetNote(ctx, noteID)
	if err != nil {
		log.Error("failed to fetch note", "note", noteID, "error", err)
		return nil, err
	}
	if note.UserID != userID {
		log.Warn("refusing to modify note of another user", "note", noteID, "user", userID, "owner", note.UserID)
		return nil, ErrNotOwner
	}
	return note, nil
}

// UpdateNote replaces title, content and category of a note of the user.
func (e *Engine) UpdateNote(ctx context.Context, session, userID, noteID string, form NoteForm) (*gamehub.Note, error) {
	if err := e.normalizeNote(&form); err != nil {
		return nil, err
	}
	note, err := e.ownNote(ctx, session, userID, noteID)
	if err != nil {
		return nil, err
	}
	updated, err := e.client(session).UpdateNote(ctx, noteID, gamehub.NoteInput{
		UserID:    note.UserID,
		GameID:    note.GameID,
		GameTitle: note.GameTitle,
		Title:     form.Title,
		Content:   form.Content,
		Category:  form.Category,
	})
	if err != nil {
		log.Error("failed to update note", "note", noteID, "error", err)
		return nil, err
	}
	return updated, nil
}

// DeleteNote deletes a note of the user and returns it.
func (e *Engine) DeleteNote(ctx context.Context, session, userID, noteID string) (*gamehub.Note, error) {
	note, err := e.ownNote(ctx, session, userID, noteID)
	if err != nil {
		return nil, err
	}
	if err := e.client(session).DeleteNote(ctx, noteID); err != nil {
		log.Error("failed to delete note", "note", noteID, "error", err)
		return nil, err
	}
	return note, nil
}
