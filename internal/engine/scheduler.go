package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
)

const (
	defaultCacheCleanupSchedule = "0 * * * *"
	defaultImageCleanupSchedule = "0 3 * * *"
	defaultPendingToastTTL      = time.Hour
)

// Run starts the background jobs and blocks until the context is done.
func (e *Engine) Run(ctx context.Context) error {
	e.scheduler.Start()
	<-ctx.Done()
	return nil
}

// Close stops the engine and cleans up resources.
func (e *Engine) Close() error {
	return e.scheduler.Stop()
}

func (e *Engine) setupJobs() error {
	cacheSchedule, imageSchedule := defaultCacheCleanupSchedule, defaultImageCleanupSchedule
	if e.cfg.Jobs != nil {
		cacheSchedule, imageSchedule = e.cfg.Jobs.CacheCleanupSchedule, e.cfg.Jobs.ImageCleanupSchedule
	}

	if err := e.scheduler.AddSingletonJob(
		"cache_cleanup",
		"Cache Cleanup",
		"Removes expired catalog pages, game details and toasts nobody picked up",
		cacheSchedule,
		gocron.CronJob(cacheSchedule, false),
		e.runCacheCleanup,
		false,
	); err != nil {
		return fmt.Errorf("failed to add cache cleanup job: %w", err)
	}

	if err := e.scheduler.AddSingletonJob(
		"image_cleanup",
		"Image Cleanup",
		"Removes cover images that were not refreshed for a while",
		imageSchedule,
		gocron.CronJob(imageSchedule, false),
		e.runImageCleanup,
		true,
	); err != nil {
		return fmt.Errorf("failed to add image cleanup job: %w", err)
	}

	log.Info("Scheduled jobs configured successfully")
	return nil
}

func (e *Engine) runCacheCleanup(context.Context) error {
	removed := e.cache.DeleteExpired()
	log.Debug("removed expired cache entries", "count", removed)

	if e.hub != nil {
		ttl := defaultPendingToastTTL
		if e.cfg.Notify != nil && e.cfg.Notify.PendingTTL > 0 {
			ttl = e.cfg.Notify.PendingTTL
		}
		if dropped := e.hub.Expire(ttl); dropped > 0 {
			log.Debug("expired pending toasts", "clients", dropped)
		}
	}
	return nil
}

func (e *Engine) runImageCleanup(context.Context) error {
	if e.cfg.Cache.ImageMaxAge <= 0 {
		return nil
	}
	removed, err := e.imageCache.CleanupOldImages(e.cfg.Cache.ImageMaxAge)
	if err != nil {
		return fmt.Errorf("failed to clean up cached images: %w", err)
	}
	log.Info("cleaned up cached images", "removed", removed)
	return nil
}
