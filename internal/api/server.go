package api

import (
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gamehub/gamehub/internal/api/auth"
	"github.com/gamehub/gamehub/internal/api/handler"
	"github.com/gamehub/gamehub/internal/config"
	"github.com/gamehub/gamehub/internal/engine"
	"github.com/gamehub/gamehub/internal/notify"
	"github.com/gamehub/gamehub/internal/static"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "gamehub_session"

type Server struct {
	cfg          *config.Config
	ginEngine    *gin.Engine
	engine       *engine.Engine
	hub          *notify.Hub
	authProvider *auth.MultiProvider
}

// New creates the web server and registers its routes.
func New(cfg *config.Config, e *engine.Engine, hub *notify.Hub, debug bool) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	authProvider, err := auth.NewProvider(cfg, e, hub)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth provider: %w", err)
	}

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	ginEngine := gin.New()
	ginEngine.Use(gin.Recovery())
	if debug {
		ginEngine.Use(gin.Logger())
	}

	s := &Server{
		cfg:          cfg,
		ginEngine:    ginEngine,
		engine:       e,
		hub:          hub,
		authProvider: authProvider,
	}
	if err := s.setupRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setupSession() {
	store := cookie.NewStore([]byte(s.cfg.SessionKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	s.ginEngine.Use(sessions.Sessions(sessionName, store))
}

func (s *Server) setupRoutes() error {
	// the event stream has to be flushed as it is written
	s.ginEngine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/events"})))
	s.setupSession()
	s.ginEngine.Use(auth.ClientIDMiddleware())

	staticFS, err := fs.Sub(static.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("failed to load static files: %w", err)
	}
	s.ginEngine.StaticFS("/static", http.FS(staticFS))

	h := handler.New(s.engine, s.cfg, s.hub, s.authProvider)
	s.ginEngine.NoRoute(s.authProvider.OptionalAuth(), h.NotFound)

	public := s.ginEngine.Group("/")
	public.Use(s.authProvider.OptionalAuth())
	public.GET("/", h.Landing)
	public.GET("/login", h.Login)
	public.POST("/login", s.authProvider.Login)
	public.GET("/register", h.Register)
	public.POST("/register", s.authProvider.Register)

	s.ginEngine.GET("/oauth/github", s.authProvider.Login)
	// the backend runs the OAuth flow, its endpoints are proxied so its session cookie lands on this origin
	s.ginEngine.Any("/oauth2/*path", s.authProvider.Callback)
	s.ginEngine.Any("/login/oauth2/*path", s.authProvider.Callback)

	protected := s.ginEngine.Group("/")
	protected.Use(s.authProvider.RequireAuth())

	protected.GET("/games", h.Gallery)
	protected.GET("/games/:id", h.GameDetail)
	protected.POST("/games/:id/library", h.AddToLibrary)
	protected.POST("/games/:id/library/delete", h.RemoveFromLibrary)
	protected.POST("/games/:id/notes", h.CreateNote)
	protected.POST("/games/:id/reviews", h.SubmitReview)
	protected.POST("/notes/:id", h.UpdateNote)
	protected.POST("/notes/:id/delete", h.DeleteNote)
	protected.POST("/reviews/:id", h.UpdateReview)
	protected.POST("/reviews/:id/delete", h.DeleteReview)
	protected.GET("/my-library", h.MyLibrary)
	protected.GET("/user/:id", h.Profile)
	protected.GET("/logout", s.authProvider.Logout)

	// API routes
	api := protected.Group("/api")
	api.GET("/events", h.Events)
	api.GET("/me", h.Me)
	api.POST("/games/:id/library", h.APIAddToLibrary)
	api.DELETE("/games/:id/library", h.APIRemoveFromLibrary)

	// Image cache route
	api.GET("/images/cache", h.ImageCache)

	s.setupAdminRoutes(h)
	return nil
}

func (s *Server) setupAdminRoutes(h *handler.Handler) {
	adminHandler := handler.NewAdmin(h)

	adminGroup := s.ginEngine.Group("/admin")
	adminGroup.Use(s.authProvider.RequireAuth(), s.authProvider.RequireAdmin())
	adminGroup.GET("", adminHandler.Users)
	adminGroup.POST("/users/:id/delete", adminHandler.DeleteUser)
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

func (s *Server) Run() error {
	return s.ginEngine.Run(s.cfg.Listen)
}
