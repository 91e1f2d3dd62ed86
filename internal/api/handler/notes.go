package handler

import (
	"errors"

	"github.com/gamehub/gamehub/internal/api/auth"
	"github.com/gamehub/gamehub/internal/engine"
	"github.com/gamehub/gamehub/internal/notify"
	"github.com/gamehub/gamehub/web/templates/components"
	"github.com/gamehub/gamehub/web/templates/pages"
	"github.com/gin-gonic/gin"
)

// noteFailed reports a failed note action, validation problems are shown as they are.
func (h *Handler) noteFailed(c *gin.Context, err error, message, target string) {
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		h.notify(c, notify.Error(verr.Error()), target)
		return
	}
	h.fail(c, err, message, target)
}

// CreateNote adds a note of the logged in user to a game.
func (h *Handler) CreateNote(c *gin.Context) {
	ctx := c.Request.Context()
	account := h.account(c)
	gameID := c.Param("id")
	target := redirectTarget(c, components.GamePath(gameID)+"?tab="+pages.TabNotes)

	var form engine.NoteForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, err, "Failed to add note.", target)
		return
	}

	game, err := h.gameEntry(ctx, c, account, gameID)
	if err != nil {
		h.fail(c, err, "Failed to add note.", target)
		return
	}

	if _, err := h.engine.CreateNote(ctx, auth.BackendSession(c), account.ID, game, form); err != nil {
		h.noteFailed(c, err, "Failed to add note.", target)
		return
	}
	h.notify(c, notify.Success("Note added successfully!"), target)
}

// UpdateNote changes a note of the logged in user.
func (h *Handler) UpdateNote(c *gin.Context) {
	account := h.account(c)
	target := redirectTarget(c, components.UserPath(account.ID))

	var form engine.NoteForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, err, "Failed to update note.", target)
		return
	}

	if _, err := h.engine.UpdateNote(c.Request.Context(), auth.BackendSession(c), account.ID, c.Param("id"), form); err != nil {
		h.noteFailed(c, err, "Failed to update note.", target)
		return
	}
	h.notify(c, notify.Success("Note updated successfully!"), target)
}

// DeleteNote deletes a note of the logged in user.
func (h *Handler) DeleteNote(c *gin.Context) {
	account := h.account(c)
	target := redirectTarget(c, components.UserPath(account.ID))

	if _, err := h.engine.DeleteNote(c.Request.Context(), auth.BackendSession(c), account.ID, c.Param("id")); err != nil {
		h.fail(c, err, "Failed to delete note.", target)
		return
	}
	h.notify(c, notify.Success("Note deleted successfully!"), target)
}
