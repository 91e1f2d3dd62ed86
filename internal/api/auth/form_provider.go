package auth

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gamehub/gamehub/internal/config"
	"github.com/gamehub/gamehub/internal/engine"
	"github.com/gamehub/gamehub/internal/notify"
	"github.com/gamehub/gamehub/pkg/gamehub"
	"github.com/gin-gonic/gin"
)

// FormProvider logs users in with username and password against the backend.
type FormProvider struct {
	engine *engine.Engine
	hub    *notify.Hub
	cfg    *config.FormAuthConfig
}

func NewFormProvider(e *engine.Engine, hub *notify.Hub, cfg *config.FormAuthConfig) *FormProvider {
	return &FormProvider{
		engine: e,
		hub:    hub,
		cfg:    cfg,
	}
}

func (p *FormProvider) Login(c *gin.Context) {
	var form engine.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		p.fail(c, "/login", "Something went wrong!")
		return
	}

	backendSession, err := p.engine.Login(c.Request.Context(), form)
	if err != nil {
		var verr *engine.ValidationError
		switch {
		case errors.As(err, &verr):
			p.fail(c, "/login", verr.Error())
		case errors.Is(err, gamehub.ErrUnauthorized):
			p.fail(c, "/login", "Invalid username or password")
		default:
			p.fail(c, "/login", "Something went wrong!")
		}
		return
	}

	if err := StoreBackendSession(c, backendSession, form.Username); err != nil {
		log.Error("Failed to save session", "error", err)
		p.fail(c, "/login", "Something went wrong!")
		return
	}

	c.Redirect(http.StatusFound, "/games")
}

// Register creates the account and logs it in right away.
func (p *FormProvider) Register(c *gin.Context) {
	var form engine.RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		p.fail(c, "/register", "Something went wrong!")
		return
	}

	if _, err := p.engine.Register(c.Request.Context(), form); err != nil {
		var verr *engine.ValidationError
		switch {
		case errors.Is(err, engine.ErrPasswordMismatch):
			p.fail(c, "/register", err.Error())
		case errors.As(err, &verr):
			p.fail(c, "/register", verr.Error())
		default:
			p.fail(c, "/register", "Something went wrong!")
		}
		return
	}

	backendSession, err := p.engine.Login(c.Request.Context(), engine.LoginForm{
		Username: form.Username,
		Password: form.Password,
	})
	if err != nil {
		// the account exists, the user can still log in manually
		log.Warn("login after registration failed", "username", form.Username, "error", err)
		c.Redirect(http.StatusFound, "/login")
		return
	}
	if err := StoreBackendSession(c, backendSession, form.Username); err != nil {
		log.Error("Failed to save session", "error", err)
		c.Redirect(http.StatusFound, "/login")
		return
	}

	c.Redirect(http.StatusFound, "/games")
}

func (p *FormProvider) fail(c *gin.Context, redirect, message string) {
	p.hub.Queue(ClientID(c), notify.Error(message))
	c.Redirect(http.StatusFound, redirect)
}
