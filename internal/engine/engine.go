package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gamehub/gamehub/internal/cache"
	"github.com/gamehub/gamehub/internal/config"
	"github.com/gamehub/gamehub/internal/database"
	"github.com/gamehub/gamehub/internal/notify"
	"github.com/gamehub/gamehub/internal/scheduler"
	"github.com/gamehub/gamehub/pkg/gamehub"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	// ErrReviewExists is returned when a user tries to review a game twice.
	ErrReviewExists = errors.New("You have already submitted a review for this game.") //nolint:staticcheck
	// ErrRatingRequired is returned when a review is submitted without a rating.
	ErrRatingRequired = errors.New("Please select a rating.") //nolint:staticcheck
	// ErrPasswordMismatch is returned when the password confirmation differs.
	ErrPasswordMismatch = errors.New("Passwords do not match") //nolint:staticcheck
	// ErrNotOwner is returned when a user modifies a note or review of somebody else.
	ErrNotOwner = errors.New("not the owner of this resource")
	// ErrForbidden is returned when a non-admin calls an admin operation.
	ErrForbidden = errors.New("admin role required")
)

// Engine implements the GameHub operations on top of the backend API.
// Every operation acts on behalf of the backend session passed to it.
type Engine struct {
	cfg       *config.Config
	db        database.DB
	backend   *gamehub.Client
	scheduler *scheduler.Scheduler

	imageCache *cache.ImageCache
	cache      *cache.EngineCache
	// hub gets its stale toasts expired by the cache cleanup job, nil if toasts are not relayed.
	hub *notify.Hub

	sanitizer *bluemonday.Policy
	validate  *validator.Validate

	now func() time.Time
}

// New creates a new Engine instance.
func New(cfg *config.Config, db database.DB) (*Engine, error) {
	sched, err := scheduler.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	engineCache, err := cache.NewEngineCache(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine cache: %w", err)
	}

	e := &Engine{
		cfg:        cfg,
		db:         db,
		backend:    gamehub.New(cfg.Backend),
		scheduler:  sched,
		imageCache: cache.NewImageCache(cfg.Cache.ImageDir, cfg.Cache.ImageHosts),
		cache:      engineCache,
		sanitizer:  bluemonday.UGCPolicy(),
		validate:   newValidator(),
		now:        time.Now,
	}

	if err := e.setupJobs(); err != nil {
		return nil, fmt.Errorf("failed to setup jobs: %w", err)
	}

	return e, nil
}

// client returns the backend client acting for the given session.
func (e *Engine) client(session string) *gamehub.Client {
	return e.backend.WithSession(session)
}

// SetHub lets the cache cleanup job expire toasts nobody picked up.
func (e *Engine) SetHub(hub *notify.Hub) {
	e.hub = hub
}

// GetImageCache returns the image cache instance for API access.
func (e *Engine) GetImageCache() *cache.ImageCache {
	return e.imageCache
}

// GetEngineCache returns the engine cache instance.
func (e *Engine) GetEngineCache() *cache.EngineCache {
	return e.cache
}

// GetScheduler returns the scheduler instance.
func (e *Engine) GetScheduler() *scheduler.Scheduler {
	return e.scheduler
}

// Config returns the configuration the engine was created with.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// LoadUser returns the account the session belongs to.
// A missing, expired or rejected session yields gamehub.ErrUnauthorized.
func (e *Engine) LoadUser(ctx context.Context, session string) (*gamehub.User, error) {
	if session == "" {
		return nil, gamehub.ErrUnauthorized
	}
	user, err := e.client(session).CurrentUser(ctx)
	if err != nil {
		if !errors.Is(err, gamehub.ErrUnauthorized) {
			log.Error("failed to load user", "error", err)
		}
		return nil, err
	}
	return user, nil
}
