package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gamehub/gamehub/internal/api/models"
	"github.com/gamehub/gamehub/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func testConfig() *config.Config {
	return &config.Config{
		Backend: &config.BackendConfig{
			URL:           "http://backend.test",
			SessionCookie: "JSESSIONID",
		},
		Auth: &config.AuthConfig{
			Form:   &config.FormAuthConfig{Enabled: true, AllowRegistration: true},
			GitHub: &config.GitHubAuthConfig{Enabled: true, AuthorizationPath: "/oauth2/authorization/github", Proxy: true},
		},
	}
}

type ProviderTestSuite struct {
	suite.Suite
	router *gin.Engine
}

func (s *ProviderTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	store := cookie.NewStore([]byte("test-secret-test-secret"))
	s.router.Use(sessions.Sessions("gamehub_session", store))
	s.router.Use(ClientIDMiddleware())
}

func (s *ProviderTestSuite) TestNewProvider_NilConfig() {
	provider, err := NewProvider(nil, nil, nil)
	s.Nil(provider)
	s.Require().Error(err)
	s.Contains(err.Error(), "auth config is required")
}

func (s *ProviderTestSuite) TestNewProvider_NoProvidersEnabled() {
	cfg := testConfig()
	cfg.Auth.Form.Enabled = false
	cfg.Auth.GitHub.Enabled = false

	provider, err := NewProvider(cfg, nil, nil)
	s.Nil(provider)
	s.Require().Error(err)
	s.Contains(err.Error(), "no authentication provider is enabled")
}

func (s *ProviderTestSuite) TestNewProvider_OnlyFormEnabled() {
	cfg := testConfig()
	cfg.Auth.GitHub.Enabled = false

	provider, err := NewProvider(cfg, nil, nil)
	s.Require().NoError(err)
	s.True(provider.HasForm())
	s.False(provider.HasGitHub())
}

func (s *ProviderTestSuite) TestNewProvider_InvalidBackendURL() {
	cfg := testConfig()
	cfg.Backend.URL = "backend without scheme"

	provider, err := NewProvider(cfg, nil, nil)
	s.Nil(provider)
	s.Require().Error(err)
	s.Contains(err.Error(), "failed to create GitHub provider")
}

func (s *ProviderTestSuite) TestGitHubLoginRedirect() {
	provider, err := NewProvider(testConfig(), nil, nil)
	s.Require().NoError(err)
	s.router.GET("/oauth/github", provider.Login)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/oauth/github", nil))

	s.Equal(http.StatusFound, w.Code)
	s.Equal("/oauth2/authorization/github", w.Header().Get("Location"))
}

func (s *ProviderTestSuite) TestCallback_ProxyDisabled() {
	cfg := testConfig()
	cfg.Auth.GitHub.Proxy = false
	provider, err := NewProvider(cfg, nil, nil)
	s.Require().NoError(err)
	s.router.Any("/oauth2/*path", provider.Callback)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/oauth2/authorization/github", nil))

	s.Equal(http.StatusNotFound, w.Code)
}

func (s *ProviderTestSuite) TestRegister_Disabled() {
	cfg := testConfig()
	cfg.Auth.Form.AllowRegistration = false
	provider, err := NewProvider(cfg, nil, nil)
	s.Require().NoError(err)
	s.router.POST("/register", provider.Register)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/register", nil))

	s.Equal(http.StatusNotFound, w.Code)
}

func (s *ProviderTestSuite) TestRequireAdmin() {
	provider, err := NewProvider(testConfig(), nil, nil)
	s.Require().NoError(err)

	asUser := func(admin bool) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Set(ContextUser, &models.User{ID: "u1", Username: "alice", IsAdmin: admin})
		}
	}
	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }

	s.router.GET("/admin", asUser(false), provider.RequireAdmin(), ok)
	s.router.GET("/api/admin", asUser(false), provider.RequireAdmin(), ok)
	s.router.GET("/admin/ok", asUser(true), provider.RequireAdmin(), ok)

	tests := []struct {
		path     string
		code     int
		location string
	}{
		{"/admin", http.StatusFound, "/games"},
		{"/api/admin", http.StatusForbidden, ""},
		{"/admin/ok", http.StatusOK, ""},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		s.Equal(tt.code, w.Code, tt.path)
		s.Equal(tt.location, w.Header().Get("Location"), tt.path)
	}
}

func (s *ProviderTestSuite) TestClearBackendSessionKeepsClientID() {
	s.router.GET("/store", func(c *gin.Context) {
		s.Require().NoError(StoreBackendSession(c, "backend-123", "alice"))
		c.String(http.StatusOK, ClientID(c))
	})
	s.router.GET("/read", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"client": ClientID(c), "backend": BackendSession(c)})
	})
	s.router.GET("/clear", func(c *gin.Context) {
		s.Require().NoError(ClearBackendSession(c))
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/store", nil))
	s.Require().Equal(http.StatusOK, w.Code)
	clientID := w.Body.String()
	s.NotEmpty(clientID)
	sessionCookie := lastSessionCookie(w)
	s.Require().NotNil(sessionCookie)

	read := func() string {
		req := httptest.NewRequest(http.MethodGet, "/read", nil)
		req.AddCookie(sessionCookie)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w.Body.String()
	}
	s.JSONEq(`{"client":"`+clientID+`","backend":"backend-123"}`, read())

	req := httptest.NewRequest(http.MethodGet, "/clear", nil)
	req.AddCookie(sessionCookie)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusNoContent, w.Code)
	sessionCookie = lastSessionCookie(w)
	s.Require().NotNil(sessionCookie)

	s.JSONEq(`{"client":"`+clientID+`","backend":""}`, read())
}

// lastSessionCookie returns the session cookie of the last save, every save sets it again.
func lastSessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	var last *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "gamehub_session" {
			last = ck
		}
	}
	return last
}

func TestProviderTestSuite(t *testing.T) {
	suite.Run(t, new(ProviderTestSuite))
}

func TestRewriteCookies(t *testing.T) {
	cfg := testConfig()
	cfg.SecureCookies = true
	p, err := NewGitHubProvider(cfg)
	require.NoError(t, err)

	resp := &http.Response{Header: http.Header{}}
	resp.Header.Add("Set-Cookie", "JSESSIONID=abc; Domain=backend.test; Path=/; HttpOnly")
	resp.Header.Add("Set-Cookie", "XSRF-TOKEN=xyz; Domain=backend.test; Path=/")

	require.NoError(t, p.rewriteCookies(resp))

	cookies := resp.Cookies()
	require.Len(t, cookies, 2)
	for _, ck := range cookies {
		assert.Empty(t, ck.Domain, ck.Name)
		assert.True(t, ck.Secure, ck.Name)
	}
	assert.Equal(t, "abc", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}
