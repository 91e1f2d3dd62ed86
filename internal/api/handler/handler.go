package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/gamehub/gamehub/internal/api/auth"
	"github.com/gamehub/gamehub/internal/api/models"
	"github.com/gamehub/gamehub/internal/config"
	"github.com/gamehub/gamehub/internal/engine"
	"github.com/gamehub/gamehub/internal/notify"
	"github.com/gamehub/gamehub/pkg/gamehub"
	"github.com/gamehub/gamehub/web/templates/components"
	"github.com/gamehub/gamehub/web/templates/pages"
	"github.com/gin-gonic/gin"
)

// Handler serves the pages and the JSON endpoints of the web client.
type Handler struct {
	engine *engine.Engine
	config *config.Config
	hub    *notify.Hub
	auth   *auth.MultiProvider
}

func New(eng *engine.Engine, cfg *config.Config, hub *notify.Hub, authProvider *auth.MultiProvider) *Handler {
	return &Handler{
		engine: eng,
		config: cfg,
		hub:    hub,
		auth:   authProvider,
	}
}

// page collects what the layout needs and drains the toasts queued for the browser.
func (h *Handler) page(c *gin.Context) components.Page {
	p := components.Page{
		Toasts:       h.hub.Drain(auth.ClientID(c)),
		FormLogin:    h.auth.HasForm(),
		Registration: h.auth.HasForm() && h.config.RegistrationEnabled(),
	}
	if h.auth.HasGitHub() {
		p.GitHubLogin = "/oauth/github"
	}
	if v, ok := c.Get(auth.ContextUser); ok {
		p.User, _ = v.(*models.User)
	}
	return p
}

func (h *Handler) render(c *gin.Context, status int, page templ.Component) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := page.Render(c.Request.Context(), c.Writer); err != nil {
		log.Error("Failed to render page", "path", c.Request.URL.Path, "error", err)
	}
}

func (h *Handler) renderError(c *gin.Context, status int, message string) {
	h.render(c, status, pages.Error(h.page(c), status, message))
}

func (h *Handler) account(c *gin.Context) *gamehub.User {
	return c.MustGet(auth.ContextAccount).(*gamehub.User)
}

func (h *Handler) maxChips() int {
	if h.config.Catalog == nil {
		return 0
	}
	return h.config.Catalog.MaxPlatformChips
}

// notify queues a toast and sends the browser to target.
func (h *Handler) notify(c *gin.Context, toast notify.Toast, target string) {
	h.hub.Queue(auth.ClientID(c), toast)
	c.Redirect(http.StatusFound, target)
}

// fail reports a failed form action. An expired backend session logs the browser out instead.
func (h *Handler) fail(c *gin.Context, err error, message, target string) {
	if h.sessionExpired(c, err) {
		return
	}
	h.notify(c, notify.Error(message), target)
}

// sessionExpired clears the login and redirects to the login page when err says the backend session is gone.
func (h *Handler) sessionExpired(c *gin.Context, err error) bool {
	if !errors.Is(err, gamehub.ErrUnauthorized) {
		return false
	}
	if err := auth.ClearBackendSession(c); err != nil {
		log.Error("Failed to clear session", "error", err)
	}
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
		return true
	}
	c.Redirect(http.StatusFound, "/login")
	return true
}

// redirectTarget returns the local page the form asked to return to.
func redirectTarget(c *gin.Context, fallback string) string {
	target := c.PostForm("redirect")
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	return target
}

func parseUintParam(param string) (uint64, error) {
	return strconv.ParseUint(param, 10, 0)
}

// parsePage reads a page number, anything invalid or below one is the first page.
func parsePage(raw string) int {
	p, err := parseUintParam(raw)
	if err != nil {
		return 1
	}
	page, err := safecast.ToInt(p)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Landing renders the start page.
func (h *Handler) Landing(c *gin.Context) {
	h.render(c, http.StatusOK, pages.Landing(h.page(c)))
}

// Login renders the login page, logged in users go straight to the catalog.
func (h *Handler) Login(c *gin.Context) {
	if _, ok := c.Get(auth.ContextUser); ok {
		c.Redirect(http.StatusFound, "/games")
		return
	}
	h.render(c, http.StatusOK, pages.Login(h.page(c)))
}

// Register renders the registration form.
func (h *Handler) Register(c *gin.Context) {
	if !h.auth.HasForm() || !h.config.RegistrationEnabled() {
		h.renderError(c, http.StatusNotFound, "Registration is disabled.")
		return
	}
	if _, ok := c.Get(auth.ContextUser); ok {
		c.Redirect(http.StatusFound, "/games")
		return
	}
	h.render(c, http.StatusOK, pages.Register(h.page(c)))
}

// NotFound renders the error page for unknown routes.
func (h *Handler) NotFound(c *gin.Context) {
	h.renderError(c, http.StatusNotFound, "This page does not exist.")
}

// ImageCache serves cached images or downloads them if not cached.
func (h *Handler) ImageCache(c *gin.Context) {
	imageURL := c.Query("url")
	if imageURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url parameter is required"})
		return
	}

	// errors are answered by ServeImage
	_ = h.engine.GetImageCache().ServeImage(imageURL, c.Writer, c.Request)
}

// Me returns the current user's information.
func (h *Handler) Me(c *gin.Context) {
	user := c.MustGet(auth.ContextUser).(*models.User)
	account := h.account(c)

	c.JSON(http.StatusOK, gin.H{
		"id":        user.ID,
		"username":  user.Username,
		"avatarUrl": user.AvatarURL,
		"isAdmin":   user.IsAdmin,
		"library":   account.GameLibrary,
	})
}
