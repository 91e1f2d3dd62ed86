package engine

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gamehub/gamehub/pkg/gamehub"
)

// GameInfo is the detail of a game prepared for display.
type GameInfo struct {
	gamehub.GameDetail
	// SafeDescription is the description with everything but basic markup removed.
	SafeDescription string
	PlatformNames   []string
	DeveloperNames  string
	PublisherNames  string
	GenreNames      string
}

// GameDetail returns the detail of a game. Details are cached by id.
func (e *Engine) GameDetail(ctx context.Context, session, id string) (*GameInfo, error) {
	id = strings.TrimSpace(id)

	detail, err := e.cache.DetailCache.Get(ctx, id)
	if err != nil {
		fetched, err := e.client(session).FetchGameDetail(ctx, id)
		if err != nil {
			log.Error("failed to fetch game detail", "id", id, "error", err)
			return nil, err
		}
		detail = *fetched
		if err := e.cache.DetailCache.Set(ctx, id, detail); err != nil {
			log.Warn("failed to cache game detail", "id", id, "error", err)
		}
	}

	return &GameInfo{
		GameDetail:      detail,
		SafeDescription: e.sanitizer.Sanitize(detail.Description),
		PlatformNames:   detail.PlatformNames(),
		DeveloperNames:  gamehub.JoinNames(detail.Developers),
		PublisherNames:  gamehub.JoinNames(detail.Publishers),
		GenreNames:      gamehub.JoinNames(detail.Genres),
	}, nil
}

// LibraryEntry returns the summary stored in a library when the game is added from its detail page.
func (g *GameInfo) LibraryEntry() gamehub.LibraryGame {
	return gamehub.LibraryGame{
		ID:         g.GameID(),
		Title:      g.Name,
		Platforms:  g.PlatformNames,
		CoverImage: g.BackgroundImage,
	}
}
