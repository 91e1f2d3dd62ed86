package pages

import (
	"bytes"
	"context"
	"testing"

	"github.com/a-h/templ"
	"github.com/gamehub/gamehub/internal/api/models"
	"github.com/gamehub/gamehub/internal/engine"
	"github.com/gamehub/gamehub/internal/notify"
	"github.com/gamehub/gamehub/pkg/gamehub"
	"github.com/gamehub/gamehub/web/templates/components"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

var alice = &models.User{ID: "u1", Username: "alice", AvatarURL: "https://avatars.test/alice.png"}

func TestHeader(t *testing.T) {
	tests := []struct {
		name     string
		page     components.Page
		contains []string
		missing  []string
	}{
		{
			name:     "logged out",
			page:     components.Page{GitHubLogin: "/oauth/github", FormLogin: true},
			contains: []string{"GitHub Login", "Normal Login", `href="/oauth/github"`},
			missing:  []string{"My Library", "Logout"},
		},
		{
			name:     "logged in",
			page:     components.Page{User: alice, GitHubLogin: "/oauth/github", FormLogin: true},
			contains: []string{`href="/games"`, "My Library", "Logout", `href="/user/u1"`, "alice.png", `data-events="/api/events"`},
			missing:  []string{"GitHub Login", "Normal Login", `href="/admin"`},
		},
		{
			name:     "admin",
			page:     components.Page{User: &models.User{ID: "u0", Username: "root", IsAdmin: true}},
			contains: []string{`href="/admin"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := render(t, Landing(tt.page))
			for _, s := range tt.contains {
				assert.Contains(t, html, s)
			}
			for _, s := range tt.missing {
				assert.NotContains(t, html, s)
			}
		})
	}
}

func TestToastsAreEscaped(t *testing.T) {
	html := render(t, Landing(components.Page{
		Toasts: []notify.Toast{notify.Error("<b>Failed</b> to fetch games")},
	}))
	assert.Contains(t, html, "toast-error")
	assert.Contains(t, html, "&lt;b&gt;Failed&lt;/b&gt;")
}

func TestGallery(t *testing.T) {
	cards := []models.GameCard{
		{ID: "1", Title: "Portal", Platforms: []string{"PC", "Xbox", "PS3", "Linux", "macOS"}, MorePlatforms: 2},
		{ID: "2", Title: "Celeste", InLibrary: true},
	}
	view := GalleryView{
		Query:        engine.CatalogQuery{Page: 2, Search: "p&q", Platform: "PC"},
		Cards:        cards,
		Platforms:    []string{"PC", "Switch"},
		FetchedCount: 20,
		Total:        1234,
		HasPrevious:  true,
		HasNext:      true,
	}

	html := render(t, Gallery(components.Page{User: alice}, view))
	assert.Contains(t, html, "+2 more")
	assert.Contains(t, html, "Add to Library")
	assert.Contains(t, html, "Delete from Library")
	assert.Contains(t, html, `action="/games/2/library/delete"`)
	assert.Contains(t, html, "1,234 games in total")
	assert.Contains(t, html, `<option value="PC" selected>`)
	assert.Contains(t, html, "Previous</a>")
	assert.Contains(t, html, "Next</a>")
	assert.Equal(t, "/games?page=3&platform=PC&search=p%26q", view.URL(3))
}

func TestGallery_Empty(t *testing.T) {
	html := render(t, Gallery(components.Page{User: alice}, GalleryView{Query: engine.CatalogQuery{Page: 1}}))
	assert.Contains(t, html, "No games found.")
	assert.Contains(t, html, `<span class="button disabled">Previous</span>`)
	assert.Contains(t, html, `<span class="button disabled">Next</span>`)
}

func gameView(tab string) GameView {
	return GameView{
		Game: &engine.GameInfo{
			GameDetail:      gamehub.GameDetail{ID: 42, Name: "Hades", Released: "2020-09-17"},
			SafeDescription: "<p>Escape the <em>underworld</em>.</p>",
			PlatformNames:   []string{"PC", "Switch"},
			DeveloperNames:  "Supergiant Games",
		},
		Card: models.GameCard{ID: "42", Title: "Hades"},
		Tab:  tab,
	}
}

func TestGame_About(t *testing.T) {
	html := render(t, Game(components.Page{User: alice}, gameView(TabAbout)))
	assert.Contains(t, html, "<p>Escape the <em>underworld</em>.</p>")
	assert.Contains(t, html, "Supergiant Games")
	assert.NotContains(t, html, "Publishers")
	assert.Contains(t, html, `href="/games/42?tab=about" class="active"`)
}

func TestGame_Notes(t *testing.T) {
	view := gameView(TabNotes)
	view.Notes = []gamehub.Note{{ID: "n1", UserID: "u1", GameID: "42", Title: "Boons", Content: "Take <Zeus>", Category: gamehub.CategoryGoal}}

	html := render(t, Game(components.Page{User: alice}, view))
	assert.Contains(t, html, `action="/games/42/notes"`)
	assert.Contains(t, html, "chip-goal")
	assert.Contains(t, html, "Take &lt;Zeus&gt;")
	assert.Contains(t, html, `action="/notes/n1/delete"`)
	assert.Contains(t, html, `data-confirm="Delete this note?"`)
}

func TestGame_Reviews(t *testing.T) {
	view := gameView(TabReviews)
	own := gamehub.Review{ID: "r1", UserID: "u1", Username: "alice", Rating: 4.5, Content: "Great"}
	view.Reviews = &engine.ReviewSummary{
		Reviews: []gamehub.Review{own, {ID: "r2", UserID: "u2", Username: "bob", Rating: 3}},
		Average: 3.75,
		Own:     &own,
	}

	html := render(t, Game(components.Page{User: alice}, view))
	assert.Contains(t, html, "3.8 out of 5")
	assert.NotContains(t, html, "Write a review")
	assert.Contains(t, html, `action="/reviews/r1/delete"`)
	assert.NotContains(t, html, `action="/reviews/r2/delete"`)
	assert.Contains(t, html, `<option value="4.5" selected>`)
}

func TestGame_NoReviews(t *testing.T) {
	html := render(t, Game(components.Page{User: alice}, gameView(TabReviews)))
	assert.Contains(t, html, "No reviews yet.")
	assert.Contains(t, html, "Write a review")
	assert.Contains(t, html, `action="/games/42/reviews"`)
}

func TestProfile(t *testing.T) {
	view := ProfileView{
		User:    alice,
		Notes:   []gamehub.Note{{ID: "n1", GameID: "42", GameTitle: "Hades", Title: "Boons", Category: gamehub.CategoryNote}},
		Reviews: []gamehub.Review{},
		IsSelf:  true,
	}
	html := render(t, Profile(components.Page{User: alice}, view))
	assert.Contains(t, html, "Your Notes")
	assert.Contains(t, html, "Your Reviews")
	assert.Contains(t, html, "Hades")
	assert.Contains(t, html, "No reviews yet.")

	view.IsSelf = false
	html = render(t, Profile(components.Page{User: &models.User{ID: "u2", Username: "bob"}}, view))
	assert.Contains(t, html, "alice&#39;s Notes")
	assert.NotContains(t, html, `action="/notes/n1/delete"`)
}

func TestAdmin(t *testing.T) {
	admin := &models.User{ID: "u0", Username: "root", IsAdmin: true}
	view := AdminView{
		Users: []gamehub.User{
			{ID: "u0", Username: "root", Role: gamehub.RoleAdmin},
			{ID: "u1", Username: "alice", GitHubID: "1234", Role: "USER"},
		},
		Search: "a",
	}
	html := render(t, Admin(components.Page{User: admin}, view))
	assert.Contains(t, html, "<th>GitHub id</th>")
	assert.Contains(t, html, "1234")
	assert.Contains(t, html, `action="/admin/users/u1/delete"`)
	assert.NotContains(t, html, `action="/admin/users/u0/delete"`)
	assert.Contains(t, html, `name="redirect" value="/admin?search=a"`)
}
