package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gamehub/gamehub/internal/api/auth"
	"github.com/gamehub/gamehub/internal/api/models"
	"github.com/gamehub/gamehub/internal/engine"
	"github.com/gamehub/gamehub/internal/notify"
	"github.com/gamehub/gamehub/pkg/gamehub"
	"github.com/gamehub/gamehub/web/templates/pages"
	"github.com/gin-gonic/gin"
)

// Gallery renders a page of the catalog with the search, title and platform filters applied.
func (h *Handler) Gallery(c *gin.Context) {
	ctx := c.Request.Context()
	account := h.account(c)

	q := engine.CatalogQuery{
		Page:     parsePage(c.Query("page")),
		Search:   c.Query("search"),
		Title:    c.Query("title"),
		Platform: c.Query("platform"),
	}
	_, hasSearch := c.GetQuery("search")
	_, hasTitle := c.GetQuery("title")
	_, hasPlatform := c.GetQuery("platform")
	h.engine.RememberFilters(ctx, account.ID, &q, hasSearch || hasTitle || hasPlatform)

	result, err := h.engine.Catalog(ctx, auth.BackendSession(c), q)
	if err != nil {
		if h.sessionExpired(c, err) {
			return
		}
		h.hub.Queue(auth.ClientID(c), notify.Error("Something went wrong!"))
		h.render(c, http.StatusOK, pages.Gallery(h.page(c), pages.GalleryView{Query: q}))
		return
	}

	h.render(c, http.StatusOK, pages.Gallery(h.page(c), pages.GalleryView{
		Query:        result.Query,
		Cards:        models.ToGameCards(result.Games, account, h.maxChips()),
		Platforms:    result.AllPlatforms,
		FetchedCount: result.FetchedCount,
		Total:        result.Total,
		HasPrevious:  result.HasPrevious,
		HasNext:      result.HasNext,
	}))
}

// MyLibrary renders the library of the logged in user.
func (h *Handler) MyLibrary(c *gin.Context) {
	h.render(c, http.StatusOK, pages.Library(h.page(c), models.LibraryCards(h.account(c), h.maxChips())))
}

// libraryForm carries the game summary of a library button.
type libraryForm struct {
	Title      string   `form:"title" json:"title"`
	CoverImage string   `form:"cover_image" json:"coverImage"`
	Platforms  []string `form:"platforms" json:"platforms"`
}

// libraryGame resolves the library entry of a game. The user's own entry wins over
// the submitted summary, the game detail is fetched when neither is available.
func (h *Handler) libraryGame(ctx context.Context, c *gin.Context, account *gamehub.User, gameID string) (gamehub.LibraryGame, error) {
	if game, ok := engine.FindLibraryGame(account, gameID); ok {
		return game, nil
	}

	var form libraryForm
	if err := c.ShouldBind(&form); err != nil {
		log.Debug("ignoring library form", "game", gameID, "error", err)
	}
	if form.Title != "" {
		return gamehub.LibraryGame{
			ID:         gameID,
			Title:      form.Title,
			Platforms:  form.Platforms,
			CoverImage: form.CoverImage,
		}, nil
	}

	info, err := h.engine.GameDetail(ctx, auth.BackendSession(c), gameID)
	if err != nil {
		return gamehub.LibraryGame{}, err
	}
	return info.LibraryEntry(), nil
}

type libraryMutation func(ctx context.Context, session, userID string, game gamehub.LibraryGame) (*gamehub.User, error)

func (h *Handler) mutateLibrary(c *gin.Context, add bool) (gamehub.LibraryGame, *gamehub.User, error) {
	ctx := c.Request.Context()
	account := h.account(c)

	game, err := h.libraryGame(ctx, c, account, c.Param("id"))
	if err != nil {
		return game, nil, err
	}

	mutate := libraryMutation(h.engine.RemoveFromLibrary)
	if add {
		mutate = h.engine.AddToLibrary
	}
	updated, err := mutate(ctx, auth.BackendSession(c), account.ID, game)
	return game, updated, err
}

func libraryMessage(game gamehub.LibraryGame, add bool) string {
	if add {
		return fmt.Sprintf("Added %s to library!", game.Title)
	}
	return fmt.Sprintf("Removed %s from library!", game.Title)
}

func (h *Handler) libraryAction(c *gin.Context, add bool) {
	target := redirectTarget(c, "/games")
	game, _, err := h.mutateLibrary(c, add)
	if err != nil {
		h.fail(c, err, "Something went wrong!", target)
		return
	}
	h.notify(c, notify.Success(libraryMessage(game, add)), target)
}

// AddToLibrary adds a game to the library from a form and redirects back.
func (h *Handler) AddToLibrary(c *gin.Context) {
	h.libraryAction(c, true)
}

// RemoveFromLibrary removes a game from the library from a form and redirects back.
func (h *Handler) RemoveFromLibrary(c *gin.Context) {
	h.libraryAction(c, false)
}

func (h *Handler) libraryAPI(c *gin.Context, add bool) {
	clientID := auth.ClientID(c)
	game, updated, err := h.mutateLibrary(c, add)
	if err != nil {
		if h.sessionExpired(c, err) {
			return
		}
		h.hub.Publish(clientID, notify.Error("Something went wrong!"))
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   "Something went wrong!",
		})
		return
	}

	message := libraryMessage(game, add)
	h.hub.Publish(clientID, notify.Success(message))
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   message,
		"inLibrary": updated.HasGame(game.ID),
	})
}

// APIAddToLibrary adds a game to the library and answers with JSON.
func (h *Handler) APIAddToLibrary(c *gin.Context) {
	h.libraryAPI(c, true)
}

// APIRemoveFromLibrary removes a game from the library and answers with JSON.
func (h *Handler) APIRemoveFromLibrary(c *gin.Context) {
	h.libraryAPI(c, false)
}
