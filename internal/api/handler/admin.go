package handler

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gamehub/gamehub/internal/api/auth"
	"github.com/gamehub/gamehub/internal/engine"
	"github.com/gamehub/gamehub/internal/notify"
	"github.com/gamehub/gamehub/pkg/gamehub"
	"github.com/gamehub/gamehub/web/templates/pages"
	"github.com/gin-gonic/gin"
)

// AdminHandler serves the user administration.
type AdminHandler struct {
	*Handler
}

func NewAdmin(h *Handler) *AdminHandler {
	return &AdminHandler{Handler: h}
}

// Users lists the accounts matching the search.
func (h *AdminHandler) Users(c *gin.Context) {
	search := c.Query("search")

	users, err := h.engine.ListUsers(c.Request.Context(), auth.BackendSession(c), h.account(c), search)
	if err != nil {
		if errors.Is(err, engine.ErrForbidden) {
			c.Redirect(http.StatusFound, "/games")
			return
		}
		if h.sessionExpired(c, err) {
			return
		}
		h.hub.Queue(auth.ClientID(c), notify.Error("Failed to fetch users"))
		users = []gamehub.User{}
	}

	h.render(c, http.StatusOK, pages.Admin(h.page(c), pages.AdminView{
		Users:  users,
		Search: search,
	}))
}

// DeleteUser deletes an account. Admins cannot delete themselves.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	account := h.account(c)
	userID := c.Param("id")
	target := redirectTarget(c, "/admin")

	if userID == account.ID {
		log.Warn("refusing to delete own account", "user", userID)
		h.notify(c, notify.Error("Failed to delete user"), target)
		return
	}

	if err := h.engine.DeleteUser(c.Request.Context(), auth.BackendSession(c), account, userID); err != nil {
		h.fail(c, err, "Failed to delete user", target)
		return
	}
	h.notify(c, notify.Success("User deleted successfully"), target)
}
