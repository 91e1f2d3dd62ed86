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

func (h *Handler) reviewFailed(c *gin.Context, err error, target string) {
	var verr *engine.ValidationError
	switch {
	case errors.Is(err, engine.ErrReviewExists), errors.Is(err, engine.ErrRatingRequired):
		h.notify(c, notify.Error(err.Error()), target)
	case errors.As(err, &verr):
		h.notify(c, notify.Error(verr.Error()), target)
	default:
		h.fail(c, err, "Failed to submit review.", target)
	}
}

// SubmitReview adds the review of the logged in user to a game.
func (h *Handler) SubmitReview(c *gin.Context) {
	ctx := c.Request.Context()
	account := h.account(c)
	gameID := c.Param("id")
	target := redirectTarget(c, components.GamePath(gameID)+"?tab="+pages.TabReviews)

	var form engine.ReviewForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, err, "Failed to submit review.", target)
		return
	}

	game, err := h.gameEntry(ctx, c, account, gameID)
	if err != nil {
		h.fail(c, err, "Failed to submit review.", target)
		return
	}

	if _, err := h.engine.SubmitReview(ctx, auth.BackendSession(c), account, game, form); err != nil {
		h.reviewFailed(c, err, target)
		return
	}
	h.notify(c, notify.Success("Review added successfully!"), target)
}

// UpdateReview changes the review of the logged in user.
func (h *Handler) UpdateReview(c *gin.Context) {
	account := h.account(c)
	target := redirectTarget(c, components.UserPath(account.ID))

	var form engine.ReviewForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, err, "Failed to submit review.", target)
		return
	}

	if _, err := h.engine.UpdateReview(c.Request.Context(), auth.BackendSession(c), account, c.Param("id"), form); err != nil {
		h.reviewFailed(c, err, target)
		return
	}
	h.notify(c, notify.Success("Review updated successfully!"), target)
}

// DeleteReview deletes the review of the logged in user.
func (h *Handler) DeleteReview(c *gin.Context) {
	account := h.account(c)
	target := redirectTarget(c, components.UserPath(account.ID))

	if _, err := h.engine.DeleteReview(c.Request.Context(), auth.BackendSession(c), account, c.Param("id")); err != nil {
		h.fail(c, err, "Failed to delete review.", target)
		return
	}
	h.notify(c, notify.Success("Review deleted successfully!"), target)
}
