package auth

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/gamehub/gamehub/internal/config"
	"github.com/gin-gonic/gin"
)

// GitHubProvider sends users to the GitHub login of the backend.
// The backend owns the OAuth flow, its endpoints are proxied so the backend
// session cookie is issued for this origin.
type GitHubProvider struct {
	cfg   *config.Config
	proxy *httputil.ReverseProxy
}

func NewGitHubProvider(cfg *config.Config) (*GitHubProvider, error) {
	target, err := url.Parse(cfg.Backend.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", cfg.Backend.URL)
	}

	p := &GitHubProvider{cfg: cfg}
	p.proxy = &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(target)
			r.SetXForwarded()
			// the backend builds its redirect URI from the host it was called with
			r.Out.Host = r.In.Host
		},
		ModifyResponse: p.rewriteCookies,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Error("OAuth proxy request failed", "path", r.URL.Path, "error", err)
			w.WriteHeader(http.StatusBadGateway)
		},
	}
	return p, nil
}

func (p *GitHubProvider) Login(c *gin.Context) {
	c.Redirect(http.StatusFound, p.cfg.GitHubLoginURL())
}

func (p *GitHubProvider) Callback(c *gin.Context) {
	if !p.cfg.Auth.GitHub.Proxy {
		c.JSON(http.StatusNotFound, gin.H{"error": "OAuth proxy disabled"})
		return
	}
	p.proxy.ServeHTTP(c.Writer, c.Request)
}

// rewriteCookies drops the domain of backend cookies so the browser keeps them for this origin.
func (p *GitHubProvider) rewriteCookies(resp *http.Response) error {
	values := resp.Header.Values("Set-Cookie")
	if len(values) == 0 {
		return nil
	}
	resp.Header.Del("Set-Cookie")
	for _, v := range values {
		cookie, err := http.ParseSetCookie(v)
		if err != nil {
			log.Warn("dropping malformed backend cookie", "error", err)
			continue
		}
		cookie.Domain = ""
		cookie.Secure = p.cfg.SecureCookies
		resp.Header.Add("Set-Cookie", cookie.String())
	}
	return nil
}

// adoptBackendCookie moves a backend session cookie received through the proxy into the browser session.
func (p *GitHubProvider) adoptBackendCookie(c *gin.Context) string {
	cookie, err := c.Request.Cookie(p.cfg.Backend.SessionCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}
	if err := StoreBackendSession(c, cookie.Value, ""); err != nil {
		log.Error("Failed to save session", "error", err)
		return ""
	}
	return cookie.Value
}

func (p *GitHubProvider) expireBackendCookie(c *gin.Context) {
	if _, err := c.Request.Cookie(p.cfg.Backend.SessionCookie); err != nil {
		return
	}
	c.SetCookie(p.cfg.Backend.SessionCookie, "", -1, "/", "", p.cfg.SecureCookies, true)
}
