package handler

import (
	"errors"
	"net/http"

	"github.com/gamehub/gamehub/internal/api/auth"
	"github.com/gamehub/gamehub/internal/api/models"
	"github.com/gamehub/gamehub/internal/notify"
	"github.com/gamehub/gamehub/pkg/gamehub"
	"github.com/gamehub/gamehub/web/templates/pages"
	"github.com/gin-gonic/gin"
)

// Profile renders an account with its library, notes and reviews.
// Notes or reviews that fail to load are left out with a toast, the rest of the page still renders.
func (h *Handler) Profile(c *gin.Context) {
	account := h.account(c)
	clientID := auth.ClientID(c)

	profile, err := h.engine.Profile(c.Request.Context(), auth.BackendSession(c), c.Param("id"))
	if err != nil {
		if h.sessionExpired(c, err) {
			return
		}
		status := http.StatusBadGateway
		if errors.Is(err, gamehub.ErrNotFound) {
			status = http.StatusNotFound
		}
		h.hub.Queue(clientID, notify.Error("Failed to fetch User"))
		h.renderError(c, status, "The user could not be loaded.")
		return
	}

	for _, warning := range profile.Warnings {
		h.hub.Queue(clientID, notify.Error(warning))
	}

	isSelf := profile.User.ID == account.ID
	owner := profile.User
	if isSelf {
		owner = account
	}

	h.render(c, http.StatusOK, pages.Profile(h.page(c), pages.ProfileView{
		User:    models.ToUser(profile.User, h.config.Gravatar),
		Cards:   models.LibraryCards(owner, h.maxChips()),
		Notes:   profile.Notes,
		Reviews: profile.Reviews,
		IsSelf:  isSelf,
	}))
}
