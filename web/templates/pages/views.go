package pages

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/gamehub/gamehub/internal/api/models"
	"github.com/gamehub/gamehub/internal/engine"
	"github.com/gamehub/gamehub/pkg/gamehub"
	"github.com/gamehub/gamehub/web/templates/components"
)

// GalleryView is a filtered page of the catalog.
type GalleryView struct {
	Query engine.CatalogQuery
	Cards []models.GameCard
	// Platforms are offered in the platform filter.
	Platforms    []string
	FetchedCount int
	Total        int
	HasPrevious  bool
	HasNext      bool
}

// URL returns the gallery URL of another page with the same search and filters.
func (v GalleryView) URL(page int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if v.Query.Search != "" {
		q.Set("search", v.Query.Search)
	}
	if v.Query.Title != "" {
		q.Set("title", v.Query.Title)
	}
	if v.Query.Platform != "" {
		q.Set("platform", v.Query.Platform)
	}
	return "/games?" + q.Encode()
}

func (v GalleryView) summary() string {
	return fmt.Sprintf("Page %d · showing %d of %d games on this page · %s games in total",
		v.Query.Page, len(v.Cards), v.FetchedCount, components.FormatCount(v.Total))
}

// Tabs of the game page.
const (
	TabAbout   = "about"
	TabNotes   = "notes"
	TabReviews = "reviews"
)

type gameTab struct {
	ID    string
	Label string
}

var gameTabs = []gameTab{
	{TabAbout, "About"},
	{TabNotes, "Notes"},
	{TabReviews, "Reviews"},
}

type gameFact struct {
	Label string
	Value string
}

var noteCategories = []string{gamehub.CategoryNote, gamehub.CategoryGoal}

// GameView is the detail page of a game.
type GameView struct {
	Game *engine.GameInfo
	// Card carries library membership and the library entry of the game.
	Card models.GameCard
	Tab  string
	// Notes of the logged in user, only loaded on the notes tab.
	Notes []gamehub.Note
	// Reviews are only loaded on the reviews tab.
	Reviews *engine.ReviewSummary
}

// TabURL returns the URL of a tab of the game page.
func (v GameView) TabURL(tab string) string {
	return components.GamePath(v.Game.GameID()) + "?tab=" + url.QueryEscape(tab)
}

// facts lists the known credits of the game.
func (v GameView) facts() []gameFact {
	var facts []gameFact
	for _, fact := range []gameFact{
		{"Developers", v.Game.DeveloperNames},
		{"Publishers", v.Game.PublisherNames},
		{"Genres", v.Game.GenreNames},
	} {
		if fact.Value != "" {
			facts = append(facts, fact)
		}
	}
	return facts
}

func (v GameView) reviews() *engine.ReviewSummary {
	if v.Reviews == nil {
		return &engine.ReviewSummary{}
	}
	return v.Reviews
}

func reviewCount(n int) string {
	if n == 1 {
		return "(1 review)"
	}
	return fmt.Sprintf("(%d reviews)", n)
}

func noteAction(n gamehub.Note) string {
	return "/notes/" + url.PathEscape(n.ID)
}

func reviewAction(r gamehub.Review) string {
	return "/reviews/" + url.PathEscape(r.ID)
}

func ownReview(p components.Page, r gamehub.Review) bool {
	return p.User != nil && r.UserID == p.User.ID
}

// ProfileView is the profile page of an account.
type ProfileView struct {
	User    *models.User
	Cards   []models.GameCard
	Notes   []gamehub.Note
	Reviews []gamehub.Review
	// IsSelf is set when the logged in user looks at their own profile.
	IsSelf bool
}

func (v ProfileView) heading(section string) string {
	if v.IsSelf {
		return "Your " + section
	}
	return v.User.Username + "'s " + section
}

// AdminView is the user administration page.
type AdminView struct {
	Users  []gamehub.User
	Search string
}

func (v AdminView) redirect() string {
	if v.Search == "" {
		return "/admin"
	}
	return "/admin?search=" + url.QueryEscape(v.Search)
}

func deleteUserAction(u gamehub.User) string {
	return "/admin/users/" + url.PathEscape(u.ID) + "/delete"
}
