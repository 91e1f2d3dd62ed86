package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gamehub/gamehub/internal/api/auth"
	"github.com/gamehub/gamehub/internal/api/models"
	"github.com/gamehub/gamehub/internal/engine"
	"github.com/gamehub/gamehub/internal/notify"
	"github.com/gamehub/gamehub/pkg/gamehub"
	"github.com/gamehub/gamehub/web/templates/pages"
	"github.com/gin-gonic/gin"
)

func parseTab(tab string) string {
	switch tab {
	case pages.TabNotes, pages.TabReviews:
		return tab
	default:
		return pages.TabAbout
	}
}

// GameDetail renders the detail page of a game with the selected tab.
func (h *Handler) GameDetail(c *gin.Context) {
	ctx := c.Request.Context()
	account := h.account(c)
	session := auth.BackendSession(c)
	clientID := auth.ClientID(c)

	info, err := h.engine.GameDetail(ctx, session, c.Param("id"))
	if err != nil {
		if h.sessionExpired(c, err) {
			return
		}
		status := http.StatusBadGateway
		if errors.Is(err, gamehub.ErrNotFound) {
			status = http.StatusNotFound
		}
		h.hub.Queue(clientID, notify.Error("Failed to fetch game details."))
		h.renderError(c, status, "The game could not be loaded.")
		return
	}

	entry, ok := engine.FindLibraryGame(account, info.GameID())
	if !ok {
		entry = info.LibraryEntry()
	}
	view := pages.GameView{
		Game: info,
		Card: models.ToGameCard(entry.AsGame(), account, 0),
		Tab:  parseTab(c.Query("tab")),
	}

	switch view.Tab {
	case pages.TabNotes:
		notes, err := h.engine.GameNotes(ctx, session, account.ID, info.GameID())
		if err != nil {
			if h.sessionExpired(c, err) {
				return
			}
			h.hub.Queue(clientID, notify.Error("Failed to fetch notes."))
		}
		view.Notes = notes
	case pages.TabReviews:
		reviews, err := h.engine.GameReviews(ctx, session, info.GameID(), account.ID)
		if err != nil {
			if h.sessionExpired(c, err) {
				return
			}
			h.hub.Queue(clientID, notify.Error("Failed to fetch reviews."))
		}
		view.Reviews = reviews
	}

	h.render(c, http.StatusOK, pages.Game(h.page(c), view))
}

// gameEntry returns the summary notes and reviews are attached to.
func (h *Handler) gameEntry(ctx context.Context, c *gin.Context, account *gamehub.User, gameID string) (gamehub.LibraryGame, error) {
	if game, ok := engine.FindLibraryGame(account, gameID); ok {
		return game, nil
	}
	info, err := h.engine.GameDetail(ctx, auth.BackendSession(c), gameID)
	if err != nil {
		return gamehub.LibraryGame{}, err
	}
	return info.LibraryEntry(), nil
}
