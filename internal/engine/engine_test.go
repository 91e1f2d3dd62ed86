package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gamehub/gamehub/internal/config"
	"github.com/gamehub/gamehub/internal/database"
	"github.com/gamehub/gamehub/internal/database/mock"
	"github.com/gamehub/gamehub/internal/notify"
	"github.com/gamehub/gamehub/pkg/gamehub"
	"github.com/gamehub/gamehub/pkg/gamehub/gamehubtest"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var (
	alice = gamehub.User{ID: "u1", Username: "alice", Role: "USER"}
	bob   = gamehub.User{ID: "u2", Username: "bob", Role: "USER"}
	admin = gamehub.User{ID: "u0", Username: "root", Role: gamehub.RoleAdmin}

	zelda = gamehub.LibraryGame{ID: "3498", Title: "The Legend of Zelda", Platforms: []string{"Switch"}}
)

func createTestEngine(t *testing.T, backendURL string, db database.DB) *Engine {
	t.Helper()
	cfg := &config.Config{
		SessionKey: "0123456789abcdef",
		Backend: &config.BackendConfig{
			URL:           backendURL,
			SessionCookie: gamehubtest.SessionCookie,
			Timeout:       5 * time.Second,
		},
		Catalog: &config.CatalogConfig{PageSize: 20, MaxPlatformChips: 5},
		Cache: &config.CacheConfig{
			Type:        config.CacheTypeMemory,
			CatalogTTL:  time.Minute,
			DetailTTL:   time.Minute,
			ImageDir:    t.TempDir(),
			ImageMaxAge: time.Hour,
		},
		Database: &config.DatabaseConfig{Path: "unused.db"},
	}

	e, err := New(cfg, db)
	require.NoError(t, err)
	e.now = func() time.Time { return time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { _ = e.Close() })
	return e
}

type EngineTestSuite struct {
	suite.Suite

	backend *gamehubtest.Server
	db      *mock.MockDB
	engine  *Engine

	aliceSession string
	bobSession   string
	adminSession string
}

func (s *EngineTestSuite) SetupTest() {
	s.backend = gamehubtest.NewServer(s.T())
	s.db = mock.NewMockDB()
	s.engine = createTestEngine(s.T(), s.backend.URL, s.db)

	s.aliceSession = s.backend.AddUser(alice, "secret")
	s.bobSession = s.backend.AddUser(bob, "hunter2")
	s.adminSession = s.backend.AddUser(admin, "toor")

	for i := 1; i <= 25; i++ {
		platforms := []string{"PC"}
		if i%2 == 0 {
			platforms = append(platforms, "PlayStation 5")
		}
		s.backend.AddGames(gamehub.Game{
			ID:        fmt.Sprintf("%d", i),
			Title:     fmt.Sprintf("Game %02d", i),
			Platforms: platforms,
		})
	}
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (s *EngineTestSuite) ctx() context.Context {
	return context.Background()
}

func (s *EngineTestSuite) TestJobsRegistered() {
	cacheJob, ok := s.engine.GetScheduler().GetJob("cache_cleanup")
	s.Require().True(ok)
	s.Equal("Cache Cleanup", cacheJob.Name)

	imageJob, ok := s.engine.GetScheduler().GetJob("image_cleanup")
	s.Require().True(ok)
	s.Equal(defaultImageCleanupSchedule, imageJob.Schedule)
}

func (s *EngineTestSuite) TestLoadUser() {
	user, err := s.engine.LoadUser(s.ctx(), s.aliceSession)
	s.Require().NoError(err)
	s.Equal("alice", user.Username)

	_, err = s.engine.LoadUser(s.ctx(), "")
	s.ErrorIs(err, gamehub.ErrUnauthorized)

	_, err = s.engine.LoadUser(s.ctx(), "expired")
	s.ErrorIs(err, gamehub.ErrUnauthorized)
}

func (s *EngineTestSuite) TestCatalog_Pagination() {
	page, err := s.engine.Catalog(s.ctx(), s.aliceSession, CatalogQuery{Page: 1})
	s.Require().NoError(err)
	s.Len(page.Games, 20)
	s.Equal(20, page.FetchedCount)
	s.Equal(25, page.Total)
	s.False(page.HasPrevious)
	s.True(page.HasNext)
	s.Equal([]string{"PC", "PlayStation 5"}, page.AllPlatforms)

	page, err = s.engine.Catalog(s.ctx(), s.aliceSession, CatalogQuery{Page: 2})
	s.Require().NoError(err)
	s.Len(page.Games, 5)
	s.True(page.HasPrevious)
	s.False(page.HasNext)
}

func (s *EngineTestSuite) TestCatalog_PageBelowOne() {
	page, err := s.engine.Catalog(s.ctx(), s.aliceSession, CatalogQuery{Page: -3})
	s.Require().NoError(err)
	s.Equal(1, page.Page)
	s.Equal(1, page.Query.Page)
}

func (s *EngineTestSuite) TestCatalog_FiltersOnlyFetchedPage() {
	page, err := s.engine.Catalog(s.ctx(), s.aliceSession, CatalogQuery{Page: 1, Title: "game 2", Platform: "PlayStation 5"})
	s.Require().NoError(err)

	// "Game 21" to "Game 25" live on page two and stay out of reach
	titles := make([]string, 0, len(page.Games))
	for _, g := range page.Games {
		titles = append(titles, g.Title)
	}
	s.Equal([]string{"Game 20"}, titles)
	s.Equal(20, page.FetchedCount)
	s.True(page.HasNext)
}

func (s *EngineTestSuite) TestCatalog_SearchGoesToBackend() {
	page, err := s.engine.Catalog(s.ctx(), s.aliceSession, CatalogQuery{Page: 1, Search: "  game 2 "})
	s.Require().NoError(err)
	s.Equal("game 2", page.Query.Search)
	s.Equal(6, page.Total)
	s.Len(page.Games, 6)
	s.False(page.HasNext)
}

func (s *EngineTestSuite) TestCatalog_Cached() {
	_, err := s.engine.Catalog(s.ctx(), s.aliceSession, CatalogQuery{Page: 1})
	s.Require().NoError(err)
	_, err = s.engine.Catalog(s.ctx(), s.aliceSession, CatalogQuery{Page: 1, Title: "01"})
	s.Require().NoError(err)

	s.Equal(1, s.backend.Calls(http.MethodGet, "/api/games/fetch"))
}

func (s *EngineTestSuite) TestCatalog_NextLinkWithoutCount() {
	err := s.engine.GetEngineCache().CatalogCache.Set(s.ctx(), catalogCacheKey(7, ""), gamehub.GameList{
		Next:  "http://backend/api/games?page=8",
		Games: []gamehub.Game{{ID: "1", Title: "Solo"}},
	})
	s.Require().NoError(err)

	page, err := s.engine.Catalog(s.ctx(), s.aliceSession, CatalogQuery{Page: 7})
	s.Require().NoError(err)
	s.True(page.HasNext)
	s.Equal(0, s.backend.Calls(http.MethodGet, "/api/games/fetch"))
}

func (s *EngineTestSuite) TestCatalog_BackendError() {
	s.backend.Fail(http.MethodGet, "/api/games/fetch", http.StatusInternalServerError)

	_, err := s.engine.Catalog(s.ctx(), s.aliceSession, CatalogQuery{Page: 1})
	s.Require().Error(err)
	var apiErr *gamehub.APIError
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(http.StatusInternalServerError, apiErr.StatusCode)
}

func (s *EngineTestSuite) TestRememberFilters() {
	q := CatalogQuery{Search: "zelda", Title: "link", Platform: "Switch"}
	s.engine.RememberFilters(s.ctx(), alice.ID, &q, true)

	restored := CatalogQuery{Page: 2}
	s.engine.RememberFilters(s.ctx(), alice.ID, &restored, false)
	s.Equal("zelda", restored.Search)
	s.Equal("link", restored.Title)
	s.Equal("Switch", restored.Platform)
	s.Equal(2, restored.Page)

	cleared := CatalogQuery{Search: "mario"}
	s.engine.RememberFilters(s.ctx(), alice.ID, &cleared, true)
	restored = CatalogQuery{}
	s.engine.RememberFilters(s.ctx(), alice.ID, &restored, false)
	s.Equal("mario", restored.Search)
	s.Empty(restored.Title)
	s.Empty(restored.Platform)

	other := CatalogQuery{}
	s.engine.RememberFilters(s.ctx(), bob.ID, &other, false)
	s.Empty(other.Title)
}

func (s *EngineTestSuite) TestRememberFilters_DatabaseErrorIgnored() {
	s.db.GetPreferencesError = errors.New("disk on fire")

	q := CatalogQuery{Title: "kept"}
	s.engine.RememberFilters(s.ctx(), alice.ID, &q, false)
	s.Equal("kept", q.Title)
}

func (s *EngineTestSuite) TestGameDetail() {
	s.backend.AddDetail(gamehub.GameDetail{
		ID:          3498,
		Name:        "The Legend of Zelda",
		Description: `<p>Explore <b>Hyrule</b>.</p><script>alert("x")</script>`,
		Platforms: []gamehub.PlatformRef{
			{Platform: gamehub.NamedRef{Name: "Switch"}},
			{Platform: gamehub.NamedRef{Name: "Wii U"}},
		},
		Developers: []gamehub.NamedRef{{Name: "Nintendo EPD"}},
		Publishers: []gamehub.NamedRef{{Name: "Nintendo"}},
		Genres:     []gamehub.NamedRef{{Name: "Action"}, {Name: "Adventure"}},
	})

	info, err := s.engine.GameDetail(s.ctx(), s.aliceSession, "3498")
	s.Require().NoError(err)
	s.Contains(info.SafeDescription, "<b>Hyrule</b>")
	s.NotContains(info.SafeDescription, "<script>")
	s.Equal([]string{"Switch", "Wii U"}, info.PlatformNames)
	s.Equal("Nintendo EPD", info.DeveloperNames)
	s.Equal("Action, Adventure", info.GenreNames)

	entry := info.LibraryEntry()
	s.Equal("3498", entry.ID)
	s.Equal("The Legend of Zelda", entry.Title)

	_, err = s.engine.GameDetail(s.ctx(), s.aliceSession, "3498")
	s.Require().NoError(err)
	s.Equal(1, s.backend.Calls(http.MethodGet, "/api/games/fetch/3498"))
}

func (s *EngineTestSuite) TestGameDetail_NotFound() {
	_, err := s.engine.GameDetail(s.ctx(), s.aliceSession, "404")
	s.ErrorIs(err, gamehub.ErrNotFound)
}

func (s *EngineTestSuite) TestLibrary() {
	user, err := s.engine.AddToLibrary(s.ctx(), s.aliceSession, alice.ID, zelda)
	s.Require().NoError(err)
	s.True(user.HasGame(zelda.ID))

	found, ok := FindLibraryGame(user, zelda.ID)
	s.True(ok)
	s.Equal(zelda.Title, found.Title)

	user, err = s.engine.RemoveFromLibrary(s.ctx(), s.aliceSession, alice.ID, zelda)
	s.Require().NoError(err)
	s.False(user.HasGame(zelda.ID))

	_, ok = FindLibraryGame(nil, zelda.ID)
	s.False(ok)
}

func (s *EngineTestSuite) TestLibrary_RefetchesAfterFailure() {
	s.backend.Fail(http.MethodPut, "/api/users/addGame", http.StatusInternalServerError)

	user, err := s.engine.AddToLibrary(s.ctx(), s.aliceSession, alice.ID, zelda)
	s.Require().Error(err)
	s.Require().NotNil(user)
	s.False(user.HasGame(zelda.ID))
	s.Equal(1, s.backend.Calls(http.MethodGet, "/api/auth/me"))
}

func (s *EngineTestSuite) TestNotes() {
	note, err := s.engine.CreateNote(s.ctx(), s.aliceSession, alice.ID, zelda, NoteForm{
		Title:   "  Shrines ",
		Content: "Find all 120",
	})
	s.Require().NoError(err)
	s.Equal("Shrines", note.Title)
	s.Equal(gamehub.CategoryNote, note.Category)
	s.Equal(zelda.Title, note.GameTitle)

	s.backend.AddNote(gamehub.Note{ID: "other", UserID: bob.ID, GameID: zelda.ID, Title: "Bob's", Content: "x", Category: gamehub.CategoryGoal})
	s.backend.AddNote(gamehub.Note{ID: "elsewhere", UserID: alice.ID, GameID: "1", Title: "Other game", Content: "x", Category: gamehub.CategoryNote})

	notes, err := s.engine.GameNotes(s.ctx(), s.aliceSession, alice.ID, zelda.ID)
	s.Require().NoError(err)
	s.Require().Len(notes, 1)
	s.Equal(note.ID, notes[0].ID)

	mine, err := s.engine.UserNotes(s.ctx(), s.aliceSession, alice.ID)
	s.Require().NoError(err)
	s.Len(mine, 2)

	updated, err := s.engine.UpdateNote(s.ctx(), s.aliceSession, alice.ID, note.ID, NoteForm{
		Title: "Shrines", Content: "Found 60", Category: gamehub.CategoryGoal,
	})
	s.Require().NoError(err)
	s.Equal("Found 60", updated.Content)
	s.Equal(gamehub.CategoryGoal, updated.Category)

	deleted, err := s.engine.DeleteNote(s.ctx(), s.aliceSession, alice.ID, note.ID)
	s.Require().NoError(err)
	s.Equal("Shrines", deleted.Title)
	s.Len(s.backend.Notes(), 2)
}

func (s *EngineTestSuite) TestNotes_Ownership() {
	s.backend.AddNote(gamehub.Note{ID: "n-bob", UserID: bob.ID, GameID: zelda.ID, Title: "Bob's", Content: "x", Category: gamehub.CategoryNote})

	_, err := s.engine.UpdateNote(s.ctx(), s.aliceSession, alice.ID, "n-bob", NoteForm{Title: "mine", Content: "now"})
	s.ErrorIs(err, ErrNotOwner)

	_, err = s.engine.DeleteNote(s.ctx(), s.aliceSession, alice.ID, "n-bob")
	s.ErrorIs(err, ErrNotOwner)
	s.Len(s.backend.Notes(), 1)

	_, err = s.engine.DeleteNote(s.ctx(), s.aliceSession, alice.ID, "missing")
	s.ErrorIs(err, gamehub.ErrNotFound)
}

func (s *EngineTestSuite) TestNotes_Validation() {
	tests := []struct {
		name  string
		form  NoteForm
		field string
	}{
		{name: "missing title", form: NoteForm{Content: "x"}, field: "Title"},
		{name: "blank content", form: NoteForm{Title: "x", Content: "   "}, field: "Content"},
		{name: "unknown category", form: NoteForm{Title: "x", Content: "y", Category: "Wish"}, field: "Category"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.engine.CreateNote(s.ctx(), s.aliceSession, alice.ID, zelda, tt.form)
			var verr *ValidationError
			s.Require().True(errors.As(err, &verr))
			s.Contains(verr.Fields, tt.field)
		})
	}
	s.Empty(s.backend.Notes())
}

func (s *EngineTestSuite) TestReviews() {
	user, err := s.engine.LoadUser(s.ctx(), s.aliceSession)
	s.Require().NoError(err)

	review, err := s.engine.SubmitReview(s.ctx(), s.aliceSession, user, zelda, ReviewForm{Rating: 4.5, Content: " Great "})
	s.Require().NoError(err)
	s.Equal("2025-03-14", review.Date)
	s.Equal("Great", review.Content)
	s.Equal("alice", review.Username)

	_, err = s.engine.SubmitReview(s.ctx(), s.aliceSession, user, zelda, ReviewForm{Rating: 3})
	s.ErrorIs(err, ErrReviewExists)

	s.backend.AddReview(gamehub.Review{ID: "r-bob", UserID: bob.ID, GameID: zelda.ID, Username: "bob", Rating: 2.5})
	s.backend.AddReview(gamehub.Review{ID: "r-else", UserID: bob.ID, GameID: "1", Username: "bob", Rating: 1})

	summary, err := s.engine.GameReviews(s.ctx(), s.aliceSession, zelda.ID, alice.ID)
	s.Require().NoError(err)
	s.Len(summary.Reviews, 2)
	s.InDelta(3.5, summary.Average, 0.0001)
	s.Equal("3.5 out of 5", summary.AverageLabel())
	s.Require().NotNil(summary.Own)
	s.Equal(review.ID, summary.Own.ID)

	updated, err := s.engine.UpdateReview(s.ctx(), s.aliceSession, user, review.ID, ReviewForm{Rating: 5, Content: "Masterpiece"})
	s.Require().NoError(err)
	s.InDelta(5.0, updated.Rating, 0.0001)

	_, err = s.engine.DeleteReview(s.ctx(), s.aliceSession, user, "r-bob")
	s.ErrorIs(err, ErrNotOwner)

	deleted, err := s.engine.DeleteReview(s.ctx(), s.aliceSession, user, review.ID)
	s.Require().NoError(err)
	s.Equal(review.ID, deleted.ID)
	s.Len(s.backend.Reviews(), 2)

	mine, err := s.engine.UserReviews(s.ctx(), s.bobSession, bob.ID)
	s.Require().NoError(err)
	s.Len(mine, 2)
}

func (s *EngineTestSuite) TestReviews_NoReviews() {
	summary, err := s.engine.GameReviews(s.ctx(), s.aliceSession, zelda.ID, alice.ID)
	s.Require().NoError(err)
	s.Empty(summary.Reviews)
	s.Zero(summary.Average)
	s.Nil(summary.Own)
}

func (s *EngineTestSuite) TestReviews_Rating() {
	user := &alice

	_, err := s.engine.SubmitReview(s.ctx(), s.aliceSession, user, zelda, ReviewForm{Content: "no stars"})
	s.ErrorIs(err, ErrRatingRequired)

	for _, rating := range []float64{4.3, 5.5, 0.25} {
		_, err = s.engine.SubmitReview(s.ctx(), s.aliceSession, user, zelda, ReviewForm{Rating: rating})
		var verr *ValidationError
		s.True(errors.As(err, &verr), "rating %v", rating)
	}
	s.Empty(s.backend.Reviews())
}

func (s *EngineTestSuite) TestProfile() {
	s.backend.AddNote(gamehub.Note{ID: "n1", UserID: bob.ID, GameID: zelda.ID, Title: "t", Content: "c", Category: gamehub.CategoryNote})
	s.backend.AddReview(gamehub.Review{ID: "r1", UserID: bob.ID, GameID: zelda.ID, Rating: 4})

	profile, err := s.engine.Profile(s.ctx(), s.aliceSession, bob.ID)
	s.Require().NoError(err)
	s.Equal("bob", profile.User.Username)
	s.Len(profile.Notes, 1)
	s.Len(profile.Reviews, 1)
	s.Empty(profile.Warnings)
}

func (s *EngineTestSuite) TestProfile_PartialFailure() {
	s.backend.Fail(http.MethodGet, "/api/notes/user/"+bob.ID, http.StatusInternalServerError)
	s.backend.Fail(http.MethodGet, "/api/reviews/user/"+bob.ID, http.StatusInternalServerError)

	profile, err := s.engine.Profile(s.ctx(), s.aliceSession, bob.ID)
	s.Require().NoError(err)
	s.Equal("bob", profile.User.Username)
	s.Empty(profile.Notes)
	s.Empty(profile.Reviews)
	s.Equal([]string{"Failed to fetch Notes", "Failed to fetch Reviews"}, profile.Warnings)
}

func (s *EngineTestSuite) TestProfile_UnknownUser() {
	_, err := s.engine.Profile(s.ctx(), s.aliceSession, "nobody")
	s.ErrorIs(err, gamehub.ErrNotFound)
}

func (s *EngineTestSuite) TestListUsers() {
	_, err := s.engine.ListUsers(s.ctx(), s.aliceSession, &alice, "")
	s.ErrorIs(err, ErrForbidden)

	users, err := s.engine.ListUsers(s.ctx(), s.adminSession, &admin, "")
	s.Require().NoError(err)
	s.Len(users, 3)

	users, err = s.engine.ListUsers(s.ctx(), s.adminSession, &admin, " ALI ")
	s.Require().NoError(err)
	s.Require().Len(users, 1)
	s.Equal("alice", users[0].Username)
}

func (s *EngineTestSuite) TestDeleteUser() {
	s.Require().NoError(s.db.SavePreferences(s.ctx(), &database.Preferences{UserID: bob.ID, TitleFilter: "x"}))

	err := s.engine.DeleteUser(s.ctx(), s.bobSession, &bob, alice.ID)
	s.ErrorIs(err, ErrForbidden)

	s.Require().NoError(s.engine.DeleteUser(s.ctx(), s.adminSession, &admin, bob.ID))
	_, ok := s.backend.User(bob.ID)
	s.False(ok)

	prefs, err := s.db.GetPreferences(s.ctx(), bob.ID)
	s.Require().NoError(err)
	s.Empty(prefs.TitleFilter)
}

func (s *EngineTestSuite) TestLogin() {
	session, err := s.engine.Login(s.ctx(), LoginForm{Username: " alice ", Password: "secret"})
	s.Require().NoError(err)
	s.NotEmpty(session)

	user, err := s.engine.LoadUser(s.ctx(), session)
	s.Require().NoError(err)
	s.Equal(alice.ID, user.ID)

	_, err = s.engine.Login(s.ctx(), LoginForm{Username: "alice", Password: "wrong"})
	s.ErrorIs(err, gamehub.ErrUnauthorized)

	_, err = s.engine.Login(s.ctx(), LoginForm{Username: "alice"})
	var verr *ValidationError
	s.True(errors.As(err, &verr))
}

func (s *EngineTestSuite) TestRegister() {
	_, err := s.engine.Register(s.ctx(), RegisterForm{Username: "carol", Password: "a", ConfirmPassword: "b"})
	s.ErrorIs(err, ErrPasswordMismatch)

	// the mismatch is reported before missing fields
	_, err = s.engine.Register(s.ctx(), RegisterForm{Password: "a"})
	s.ErrorIs(err, ErrPasswordMismatch)

	user, err := s.engine.Register(s.ctx(), RegisterForm{Username: "carol", Password: "pw", ConfirmPassword: "pw"})
	s.Require().NoError(err)
	s.Equal("carol", user.Username)

	_, err = s.engine.Register(s.ctx(), RegisterForm{Username: "carol", Password: "pw", ConfirmPassword: "pw"})
	var apiErr *gamehub.APIError
	s.Require().True(errors.As(err, &apiErr))
	s.Equal("Username already exists", apiErr.Message)
}

func (s *EngineTestSuite) TestLogout() {
	s.engine.Logout(s.ctx(), s.aliceSession)

	_, err := s.engine.LoadUser(s.ctx(), s.aliceSession)
	s.ErrorIs(err, gamehub.ErrUnauthorized)
}

func (s *EngineTestSuite) TestCleanupJobs() {
	s.Require().NoError(s.engine.runCacheCleanup(s.ctx()))
	s.Require().NoError(s.engine.runImageCleanup(s.ctx()))
}

func (s *EngineTestSuite) TestCacheCleanupExpiresPendingToasts() {
	hub := notify.NewHub(5)
	s.engine.SetHub(hub)

	stale := notify.Error("Failed to fetch games.")
	stale.CreatedAt = time.Now().Add(-2 * defaultPendingToastTTL)
	hub.Queue("gone", stale)
	hub.Queue("active", notify.Success("Note added successfully!"))

	s.Require().NoError(s.engine.runCacheCleanup(s.ctx()))
	s.Equal(1, hub.PendingClients())
	s.Empty(hub.Drain("gone"))
	s.Len(hub.Drain("active"), 1)
}
