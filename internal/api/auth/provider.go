package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gamehub/gamehub/internal/api/models"
	"github.com/gamehub/gamehub/internal/config"
	"github.com/gamehub/gamehub/internal/engine"
	"github.com/gamehub/gamehub/internal/notify"
	"github.com/gamehub/gamehub/pkg/gamehub"
	"github.com/gin-gonic/gin"
)

// AuthProvider defines the interface for authentication providers.
type AuthProvider interface {
	// Login handles the login process for the provider
	Login(c *gin.Context)

	// Callback handles the authentication callback (if applicable)
	Callback(c *gin.Context)

	// RequireAuth returns middleware that requires authentication
	RequireAuth() gin.HandlerFunc

	// RequireAdmin returns middleware that requires admin privileges
	RequireAdmin() gin.HandlerFunc

	// GetAuthConfig returns the authentication configuration for templates
	GetAuthConfig() *config.AuthConfig
}

// MultiProvider wraps the form and GitHub providers.
// Both end up with a backend session stored in the browser session, every request is authenticated with it.
type MultiProvider struct {
	formProvider   *FormProvider
	githubProvider *GitHubProvider

	engine      *engine.Engine
	hub         *notify.Hub
	cfg         *config.Config
	gravatarCfg *config.GravatarConfig
}

var _ AuthProvider = (*MultiProvider)(nil)

// NewProvider creates a multi-provider for the enabled login methods.
func NewProvider(cfg *config.Config, e *engine.Engine, hub *notify.Hub) (*MultiProvider, error) {
	if cfg == nil || cfg.Auth == nil {
		return nil, fmt.Errorf("auth config is required")
	}

	mp := &MultiProvider{
		engine:      e,
		hub:         hub,
		cfg:         cfg,
		gravatarCfg: cfg.Gravatar,
	}

	if cfg.Auth.Form != nil && cfg.Auth.Form.Enabled {
		mp.formProvider = NewFormProvider(e, hub, cfg.Auth.Form)
	}

	if cfg.Auth.GitHub != nil && cfg.Auth.GitHub.Enabled {
		githubProvider, err := NewGitHubProvider(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create GitHub provider: %w", err)
		}
		mp.githubProvider = githubProvider
	}

	// At least one provider must be enabled
	if mp.formProvider == nil && mp.githubProvider == nil {
		return nil, fmt.Errorf("no authentication provider is enabled")
	}

	return mp, nil
}

// Login handles login for the appropriate provider.
func (mp *MultiProvider) Login(c *gin.Context) {
	// a POST is a form login, everything else starts the GitHub flow
	if c.Request.Method == http.MethodPost && mp.formProvider != nil {
		mp.formProvider.Login(c)
		return
	}

	if c.Request.Method == http.MethodGet && mp.githubProvider != nil {
		mp.githubProvider.Login(c)
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": "No authentication method available"})
}

// Register creates an account through the form provider.
func (mp *MultiProvider) Register(c *gin.Context) {
	if mp.formProvider == nil || !mp.cfg.RegistrationEnabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Registration is disabled"})
		return
	}
	mp.formProvider.Register(c)
}

// Callback proxies the OAuth endpoints of the backend.
func (mp *MultiProvider) Callback(c *gin.Context) {
	if mp.githubProvider != nil {
		mp.githubProvider.Callback(c)
		return
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "OAuth callback not supported"})
}

// Logout ends the backend session and forgets it.
func (mp *MultiProvider) Logout(c *gin.Context) {
	if backendSession := BackendSession(c); backendSession != "" {
		mp.engine.Logout(c.Request.Context(), backendSession)
	}
	if mp.githubProvider != nil {
		mp.githubProvider.expireBackendCookie(c)
	}
	if err := ClearBackendSession(c); err != nil {
		if err := c.AbortWithError(http.StatusInternalServerError, err); err != nil {
			log.Error("Failed to abort with error", "error", err)
		}
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// currentSession returns the backend session of the request.
// A backend cookie set through the OAuth proxy is adopted into the browser session.
func (mp *MultiProvider) currentSession(c *gin.Context) string {
	if s := BackendSession(c); s != "" {
		return s
	}
	if mp.githubProvider != nil {
		return mp.githubProvider.adoptBackendCookie(c)
	}
	return ""
}

// forget drops an expired backend session.
func (mp *MultiProvider) forget(c *gin.Context) {
	if mp.githubProvider != nil {
		mp.githubProvider.expireBackendCookie(c)
	}
	if err := ClearBackendSession(c); err != nil {
		log.Error("Failed to clear session", "error", err)
	}
}

func (mp *MultiProvider) setUser(c *gin.Context, backendSession string, account *gamehub.User) {
	c.Set(ContextBackendSession, backendSession)
	c.Set(ContextAccount, account)
	c.Set(ContextUser, models.ToUser(account, mp.gravatarCfg))
}

// RequireAuth returns middleware that loads the logged in account from the backend.
func (mp *MultiProvider) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		backendSession := mp.currentSession(c)
		if backendSession == "" {
			mp.unauthorized(c)
			return
		}

		account, err := mp.engine.LoadUser(c.Request.Context(), backendSession)
		if err != nil {
			if errors.Is(err, gamehub.ErrUnauthorized) {
				mp.forget(c)
				mp.unauthorized(c)
				return
			}
			if isAPIRequest(c) {
				c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"success": false, "error": "Failed to fetch User"})
				return
			}
			mp.hub.Queue(ClientID(c), notify.Error("Failed to fetch User"))
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}

		mp.setUser(c, backendSession, account)
		c.Next()
	}
}

// OptionalAuth returns middleware that loads the account if the browser is logged in, and carries on otherwise.
func (mp *MultiProvider) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		backendSession := mp.currentSession(c)
		if backendSession != "" {
			account, err := mp.engine.LoadUser(c.Request.Context(), backendSession)
			switch {
			case err == nil:
				mp.setUser(c, backendSession, account)
			case errors.Is(err, gamehub.ErrUnauthorized):
				mp.forget(c)
			}
		}
		c.Next()
	}
}

// RequireAdmin returns middleware that checks for admin privileges.
func (mp *MultiProvider) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := c.MustGet(ContextUser).(*models.User)
		if !ok || !user.IsAdmin {
			if isAPIRequest(c) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
			c.Redirect(http.StatusFound, "/games")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetAuthConfig returns the authentication configuration for templates.
func (mp *MultiProvider) GetAuthConfig() *config.AuthConfig {
	return mp.cfg.Auth
}

// HasForm reports whether the login form is enabled.
func (mp *MultiProvider) HasForm() bool {
	return mp.formProvider != nil
}

// HasGitHub reports whether the GitHub login is enabled.
func (mp *MultiProvider) HasGitHub() bool {
	return mp.githubProvider != nil
}

func (mp *MultiProvider) unauthorized(c *gin.Context) {
	if isAPIRequest(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
		return
	}
	c.Redirect(http.StatusFound, "/login")
	c.Abort()
}

func isAPIRequest(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/")
}
