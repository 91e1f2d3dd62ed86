package models

import (
	"fmt"

	"github.com/gamehub/gamehub/pkg/gamehub"
)

// User is the logged in account as seen by the pages.
type User struct {
	ID        string
	Username  string
	GitHubID  string
	AvatarURL string // backend avatar or generated Gravatar, empty if neither is available
	IsAdmin   bool
}

// GameCard is a game as rendered in the gallery, the library and the profile.
type GameCard struct {
	ID    string
	Title string
	// CoverURL points at the local image cache.
	CoverURL string
	// Platforms holds at most the configured number of platform chips.
	Platforms []string
	// MorePlatforms is the number of platforms that did not get a chip.
	MorePlatforms int
	InLibrary     bool

	// Game is sent back to the backend on library mutations.
	Game gamehub.LibraryGame
}

// MoreLabel returns the "+N more" label, empty if every platform has a chip.
func (c GameCard) MoreLabel() string {
	if c.MorePlatforms <= 0 {
		return ""
	}
	return fmt.Sprintf("+%d more", c.MorePlatforms)
}
