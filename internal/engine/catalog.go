package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gamehub/gamehub/internal/database"
	"github.com/gamehub/gamehub/internal/filter"
	platformfilter "github.com/gamehub/gamehub/internal/filter/platform_filter"
	titlefilter "github.com/gamehub/gamehub/internal/filter/title_filter"
	"github.com/gamehub/gamehub/pkg/gamehub"
)

// CatalogQuery selects a page of the catalog and the filters applied to it.
type CatalogQuery struct {
	// Page starts at 1.
	Page int
	// Search is sent to the backend and changes which games are paginated.
	Search string
	// Title and Platform only narrow down the fetched page.
	Title    string
	Platform string
}

// CatalogPage is a filtered page of the catalog.
type CatalogPage struct {
	Query CatalogQuery
	Games []gamehub.Game
	// AllPlatforms lists the platforms of the unfiltered page for the platform selector.
	AllPlatforms []string
	// FetchedCount is the number of games on the page before filtering.
	FetchedCount int
	Page         int
	PageSize     int
	Total        int
	HasPrevious  bool
	HasNext      bool
}

func catalogCacheKey(page int, search string) string {
	return fmt.Sprintf("%d|%s", page, strings.ToLower(strings.TrimSpace(search)))
}

// Catalog fetches a page of the catalog and filters it by title and platform.
// Filters never look beyond the fetched page.
func (e *Engine) Catalog(ctx context.Context, session string, q CatalogQuery) (*CatalogPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	q.Search = strings.TrimSpace(q.Search)

	list, err := e.fetchCatalogPage(ctx, session, q.Page, q.Search)
	if err != nil {
		return nil, err
	}

	games, err := filter.New(
		titlefilter.New(q.Title),
		platformfilter.New(q.Platform),
	).ApplyAll(ctx, list.Games)
	if err != nil {
		return nil, err
	}

	pageSize := e.cfg.Catalog.PageSize
	page := &CatalogPage{
		Query:        q,
		Games:        games,
		AllPlatforms: platformfilter.Platforms(list.Games),
		FetchedCount: len(list.Games),
		Page:         q.Page,
		PageSize:     pageSize,
		Total:        list.Count,
		HasPrevious:  q.Page > 1,
	}
	if list.Count > 0 {
		page.HasNext = int64(q.Page)*int64(pageSize) < int64(list.Count)
	} else {
		page.HasNext = list.Next != ""
	}
	return page, nil
}

func (e *Engine) fetchCatalogPage(ctx context.Context, session string, page int, search string) (*gamehub.GameList, error) {
	key := catalogCacheKey(page, search)
	if cached, err := e.cache.CatalogCache.Get(ctx, key); err == nil {
		log.Debug("catalog page served from cache", "page", page, "search", search)
		return &cached, nil
	}

	list, err := e.client(session).FetchGames(ctx, page, search)
	if err != nil {
		log.Error("failed to fetch games", "page", page, "search", search, "error", err)
		return nil, err
	}

	if err := e.cache.CatalogCache.Set(ctx, key, *list); err != nil {
		log.Warn("failed to cache catalog page", "error", err)
	}
	return list, nil
}

// RememberFilters keeps the gallery search and filters of a user between visits.
// When the request carries any of them they are saved, otherwise the saved ones are restored into q.
func (e *Engine) RememberFilters(ctx context.Context, userID string, q *CatalogQuery, provided bool) {
	if e.db == nil || userID == "" {
		return
	}

	if provided {
		prefs := &database.Preferences{
			UserID:         userID,
			LastSearch:     q.Search,
			TitleFilter:    q.Title,
			PlatformFilter: q.Platform,
		}
		if err := e.db.SavePreferences(ctx, prefs); err != nil {
			log.Warn("failed to save gallery filters", "user", userID, "error", err)
		}
		return
	}

	prefs, err := e.db.GetPreferences(ctx, userID)
	if err != nil {
		log.Warn("failed to restore gallery filters", "user", userID, "error", err)
		return
	}
	q.Search = prefs.LastSearch
	q.Title = prefs.TitleFilter
	q.Platform = prefs.PlatformFilter
}
