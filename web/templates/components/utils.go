package components

import (
	"fmt"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gamehub/gamehub/internal/api/models"
	"github.com/mergestat/timediff"
)

// FormatRelativeTime formats a time.Time as a relative time string like "3 days ago"
func FormatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return timediff.TimeDiff(t)
}

// FormatCount formats a count with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatRating formats a rating with one decimal.
func FormatRating(r float64) string {
	return fmt.Sprintf("%.1f", r)
}

// GamePath returns the detail page of a game.
func GamePath(id string) string {
	return "/games/" + url.PathEscape(id)
}

// UserPath returns the profile page of a user.
func UserPath(id string) string {
	return "/user/" + url.PathEscape(id)
}

// LibraryAction returns the route adding a game to the library, or removing it if it is already there.
func LibraryAction(card models.GameCard) string {
	if card.InLibrary {
		return GamePath(card.ID) + "/library/delete"
	}
	return GamePath(card.ID) + "/library"
}
