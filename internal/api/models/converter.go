package models

import (
	"github.com/gamehub/gamehub/internal/cache"
	"github.com/gamehub/gamehub/internal/config"
	"github.com/gamehub/gamehub/internal/gravatar"
	"github.com/gamehub/gamehub/pkg/gamehub"
	"github.com/samber/lo"
)

// ToUser converts a backend account into the page view of the logged in user.
func ToUser(u *gamehub.User, cfg *config.GravatarConfig) *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:        u.ID,
		Username:  u.Username,
		GitHubID:  u.GitHubID,
		AvatarURL: gravatar.AvatarURL(u.AvatarURL, u.Username, cfg),
		IsAdmin:   u.IsAdmin(),
	}
}

// ToGameCard converts a catalog game into a card. Membership is checked against the user's library by id.
func ToGameCard(g gamehub.Game, user *gamehub.User, maxChips int) GameCard {
	chips := g.Platforms
	more := 0
	if maxChips > 0 && len(chips) > maxChips {
		more = len(chips) - maxChips
		chips = chips[:maxChips]
	}
	return GameCard{
		ID:            g.ID,
		Title:         g.Title,
		CoverURL:      cache.ProxyURL(g.CoverImage),
		Platforms:     chips,
		MorePlatforms: more,
		InLibrary:     user.HasGame(g.ID),
		Game:          g.LibraryEntry(),
	}
}

// ToGameCards converts a page of catalog games into cards.
func ToGameCards(games []gamehub.Game, user *gamehub.User, maxChips int) []GameCard {
	return lo.Map(games, func(g gamehub.Game, _ int) GameCard {
		return ToGameCard(g, user, maxChips)
	})
}

// LibraryCards returns the cards of every game in the user's library.
func LibraryCards(user *gamehub.User, maxChips int) []GameCard {
	if user == nil {
		return []GameCard{}
	}
	return lo.Map(user.GameLibrary, func(g gamehub.LibraryGame, _ int) GameCard {
		return ToGameCard(g.AsGame(), user, maxChips)
	})
}
