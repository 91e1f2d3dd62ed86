package api

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gamehub/gamehub/internal/config"
	"github.com/gamehub/gamehub/internal/database/mock"
	"github.com/gamehub/gamehub/internal/engine"
	"github.com/gamehub/gamehub/internal/notify"
	"github.com/gamehub/gamehub/pkg/gamehub"
	"github.com/gamehub/gamehub/pkg/gamehub/gamehubtest"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var (
	alice = gamehub.User{ID: "u1", Username: "alice", Role: "USER"}
	bob   = gamehub.User{ID: "u2", Username: "bob", Role: "USER"}
	admin = gamehub.User{ID: "u0", Username: "root", Role: gamehub.RoleAdmin}
)

func testConfig(t *testing.T, backendURL string) *config.Config {
	t.Helper()
	return &config.Config{
		Listen:        "127.0.0.1:0",
		SessionKey:    "0123456789abcdef0123456789abcdef",
		SessionMaxAge: 3600,
		Backend: &config.BackendConfig{
			URL:           backendURL,
			PublicURL:     backendURL,
			SessionCookie: gamehubtest.SessionCookie,
			Timeout:       5 * time.Second,
		},
		Catalog: &config.CatalogConfig{PageSize: 20, MaxPlatformChips: 5},
		Auth: &config.AuthConfig{
			Form: &config.FormAuthConfig{Enabled: true, AllowRegistration: true},
			GitHub: &config.GitHubAuthConfig{
				Enabled:           true,
				AuthorizationPath: "/oauth2/authorization/github",
				Proxy:             true,
			},
		},
		Cache: &config.CacheConfig{
			Type:        config.CacheTypeMemory,
			CatalogTTL:  time.Minute,
			DetailTTL:   time.Minute,
			ImageDir:    t.TempDir(),
			ImageMaxAge: time.Hour,
			ImageHosts:  []string{"media.rawg.io"},
		},
		Database: &config.DatabaseConfig{Path: "unused.db"},
		Notify:   &config.NotifyConfig{MaxPending: 20},
	}
}

type response struct {
	Code   int
	Header http.Header
	Body   string
}

// browser keeps the cookies of one browser and never follows redirects.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, base string) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{
		t:    t,
		base: base,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) do(method, path string, body io.Reader, contentType string) response {
	b.t.Helper()
	req, err := http.NewRequest(method, b.base+path, body)
	require.NoError(b.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return response{Code: resp.StatusCode, Header: resp.Header, Body: string(data)}
}

func (b *browser) get(path string) response {
	b.t.Helper()
	return b.do(http.MethodGet, path, nil, "")
}

func (b *browser) post(path string, form url.Values) response {
	b.t.Helper()
	return b.do(http.MethodPost, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

func (b *browser) login(username, password string) {
	b.t.Helper()
	resp := b.post("/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(b.t, http.StatusFound, resp.Code)
	require.Equal(b.t, "/games", resp.Header.Get("Location"))
}

type ServerTestSuite struct {
	suite.Suite

	backend *gamehubtest.Server
	db      *mock.MockDB
	hub     *notify.Hub
	web     *httptest.Server
}

func (s *ServerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.backend = gamehubtest.NewServer(s.T())
	s.backend.AddUser(alice, "secret")
	s.backend.AddUser(bob, "hunter2")
	s.backend.AddUser(admin, "toor")
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
	s.backend.AddDetail(gamehub.GameDetail{
		ID:          7,
		Name:        "Game 07",
		Description: `<p>A <strong>great</strong> game.</p><script>alert("x")</script>`,
		Platforms:   []gamehub.PlatformRef{{Platform: gamehub.NamedRef{Name: "PC"}}},
		Developers:  []gamehub.NamedRef{{Name: "Studio Seven"}},
	})

	cfg := testConfig(s.T(), s.backend.URL)
	s.db = mock.NewMockDB()
	e, err := engine.New(cfg, s.db)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = e.Close() })

	s.hub = notify.NewHub(cfg.Notify.MaxPending)
	server, err := New(cfg, e, s.hub, false)
	s.Require().NoError(err)
	gin.SetMode(gin.TestMode)

	s.web = httptest.NewServer(server.Handler())
	s.T().Cleanup(s.web.Close)
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) browser() *browser {
	return newBrowser(s.T(), s.web.URL)
}

func (s *ServerTestSuite) TestLanding_LoggedOut() {
	resp := s.browser().get("/")
	s.Equal(http.StatusOK, resp.Code)
	s.Contains(resp.Header.Get("Content-Type"), "text/html")
	s.Contains(resp.Body, "GitHub Login")
	s.Contains(resp.Body, "Normal Login")
	s.Contains(resp.Body, `href="/register"`)
}

func (s *ServerTestSuite) TestStaticAndNotFound() {
	b := s.browser()
	s.Equal(http.StatusOK, b.get("/static/style.css").Code)
	s.Equal(http.StatusOK, b.get("/static/app.js").Code)

	resp := b.get("/does-not-exist")
	s.Equal(http.StatusNotFound, resp.Code)
	s.Contains(resp.Body, "This page does not exist.")
}

func (s *ServerTestSuite) TestProtectedRoutesRequireLogin() {
	b := s.browser()

	resp := b.get("/games")
	s.Equal(http.StatusFound, resp.Code)
	s.Equal("/login", resp.Header.Get("Location"))

	resp = b.get("/api/me")
	s.Equal(http.StatusUnauthorized, resp.Code)
	s.Contains(resp.Body, `"success":false`)
}

func (s *ServerTestSuite) TestLogin_InvalidCredentials() {
	b := s.browser()

	resp := b.post("/login", url.Values{"username": {"alice"}, "password": {"wrong"}})
	s.Equal(http.StatusFound, resp.Code)
	s.Equal("/login", resp.Header.Get("Location"))

	resp = b.get("/login")
	s.Equal(http.StatusOK, resp.Code)
	s.Contains(resp.Body, "Invalid username or password")

	// toasts are shown once
	s.NotContains(b.get("/login").Body, "Invalid username or password")
}

func (s *ServerTestSuite) TestLogin_RedirectsWhenLoggedIn() {
	b := s.browser()
	b.login("alice", "secret")

	resp := b.get("/login")
	s.Equal(http.StatusFound, resp.Code)
	s.Equal("/games", resp.Header.Get("Location"))

	resp = b.get("/api/me")
	s.Equal(http.StatusOK, resp.Code)
	s.Contains(resp.Body, `"username":"alice"`)
	s.Contains(resp.Body, `"isAdmin":false`)
}

func (s *ServerTestSuite) TestGallery() {
	b := s.browser()
	b.login("alice", "secret")

	resp := b.get("/games")
	s.Equal(http.StatusOK, resp.Code)
	s.Contains(resp.Body, ">Game 01</a>")
	s.Contains(resp.Body, ">Game 20</a>")
	s.NotContains(resp.Body, ">Game 21</a>")
	s.Contains(resp.Body, "Next</a>")
	s.Contains(resp.Body, `<span class="button disabled">Previous</span>`)

	resp = b.get("/games?page=2")
	s.Contains(resp.Body, ">Game 21</a>")
	s.Contains(resp.Body, "Previous</a>")
	s.Contains(resp.Body, `<span class="button disabled">Next</span>`)
}

func (s *ServerTestSuite) TestGallery_InvalidPage() {
	b := s.browser()
	b.login("alice", "secret")

	for _, page := range []string{"0", "-3", "abc", "99999999999999999999"} {
		resp := b.get("/games?page=" + page)
		s.Equal(http.StatusOK, resp.Code, page)
		s.Contains(resp.Body, ">Game 01</a>", page)
	}
}

func (s *ServerTestSuite) TestGallery_FiltersAreRemembered() {
	b := s.browser()
	b.login("alice", "secret")

	resp := b.get("/games?page=1&title=game+01&platform=PC")
	s.Contains(resp.Body, ">Game 01</a>")
	s.NotContains(resp.Body, ">Game 02</a>")

	prefs, err := s.db.GetPreferences(context.Background(), alice.ID)
	s.Require().NoError(err)
	s.Equal("game 01", prefs.TitleFilter)
	s.Equal("PC", prefs.PlatformFilter)

	resp = b.get("/games")
	s.Contains(resp.Body, `value="game 01"`)
	s.NotContains(resp.Body, ">Game 02</a>")

	// the reset link clears the filters
	resp = b.get("/games?page=1&title=&platform=")
	s.Contains(resp.Body, ">Game 02</a>")
}

func (s *ServerTestSuite) TestGallery_SearchIsRemembered() {
	b := s.browser()
	b.login("alice", "secret")

	resp := b.get("/games?search=game+03")
	s.Contains(resp.Body, ">Game 03</a>")
	s.NotContains(resp.Body, ">Game 01</a>")

	prefs, err := s.db.GetPreferences(context.Background(), alice.ID)
	s.Require().NoError(err)
	s.Equal("game 03", prefs.LastSearch)

	resp = b.get("/games")
	s.Contains(resp.Body, `value="game 03"`)
	s.Contains(resp.Body, ">Game 03</a>")
	s.NotContains(resp.Body, ">Game 01</a>")
}

func (s *ServerTestSuite) TestGallery_BackendError() {
	b := s.browser()
	b.login("alice", "secret")
	s.backend.Fail(http.MethodGet, "/api/games/fetch", http.StatusInternalServerError)

	resp := b.get("/games")
	s.Equal(http.StatusOK, resp.Code)
	s.Contains(resp.Body, "Something went wrong!")
	s.Contains(resp.Body, "No games found.")
}

func (s *ServerTestSuite) TestLibrary_Form() {
	b := s.browser()
	b.login("alice", "secret")

	resp := b.post("/games/3/library", url.Values{
		"title":       {"Game 03"},
		"cover_image": {"https://img.test/3.jpg"},
		"platforms":   {"PC"},
		"redirect":    {"/games?page=1"},
	})
	s.Equal(http.StatusFound, resp.Code)
	s.Equal("/games?page=1", resp.Header.Get("Location"))

	user, ok := s.backend.User(alice.ID)
	s.Require().True(ok)
	s.Require().Len(user.GameLibrary, 1)
	s.Equal("Game 03", user.GameLibrary[0].Title)

	resp = b.get("/games?page=1")
	s.Contains(resp.Body, "Added Game 03 to library!")
	s.Contains(resp.Body, `action="/games/3/library/delete"`)

	resp = b.get("/my-library")
	s.Contains(resp.Body, ">Game 03</a>")

	resp = b.post("/games/3/library/delete", url.Values{"redirect": {"//evil.test"}})
	s.Equal(http.StatusFound, resp.Code)
	s.Equal("/games", resp.Header.Get("Location"))
	s.Contains(b.get("/my-library").Body, "Removed Game 03 from library!")

	user, _ = s.backend.User(alice.ID)
	s.Empty(user.GameLibrary)
}

func (s *ServerTestSuite) TestLibrary_FormFailure() {
	b := s.browser()
	b.login("alice", "secret")
	s.backend.Fail(http.MethodPut, "/api/users/addGame", http.StatusInternalServerError)

	resp := b.post("/games/3/library", url.Values{"title": {"Game 03"}})
	s.Equal(http.StatusFound, resp.Code)
	s.Contains(b.get("/games").Body, "Something went wrong!")
}

func (s *ServerTestSuite) TestLibrary_API() {
	b := s.browser()
	b.login("alice", "secret")

	resp := b.post("/api/games/5/library", url.Values{"title": {"Game 05"}, "platforms": {"PC"}})
	s.Equal(http.StatusOK, resp.Code)
	s.Contains(resp.Body, `"success":true`)
	s.Contains(resp.Body, `"inLibrary":true`)

	resp = b.do(http.MethodDelete, "/api/games/5/library", nil, "")
	s.Equal(http.StatusOK, resp.Code)
	s.Contains(resp.Body, `"inLibrary":false`)

	// without a live subscriber the toasts wait for the next page
	page := b.get("/my-library").Body
	s.Contains(page, "Added Game 05 to library!")
	s.Contains(page, "Removed Game 05 from library!")
}

func (s *ServerTestSuite) TestLibrary_APIFromDetail() {
	b := s.browser()
	b.login("alice", "secret")

	// no summary submitted, the detail is used
	resp := b.post("/api/games/7/library", url.Values{})
	s.Equal(http.StatusOK, resp.Code)

	user, _ := s.backend.User(alice.ID)
	s.Require().Len(user.GameLibrary, 1)
	s.Equal("Game 07", user.GameLibrary[0].Title)
	s.Equal([]string{"PC"}, user.GameLibrary[0].Platforms)
}

func (s *ServerTestSuite) TestGameDetail() {
	b := s.browser()
	b.login("alice", "secret")

	resp := b.get("/games/7")
	s.Equal(http.StatusOK, resp.Code)
	s.Contains(resp.Body, "<strong>great</strong>")
	s.NotContains(resp.Body, "<script>alert")
	s.Contains(resp.Body, "Studio Seven")
	s.Contains(resp.Body, "Add to Library")

	resp = b.get("/games/404")
	s.Equal(http.StatusNotFound, resp.Code)
	s.Contains(resp.Body, "Failed to fetch game details.")
}

func (s *ServerTestSuite) TestNotes() {
	b := s.browser()
	b.login("alice", "secret")

	resp := b.post("/games/7/notes", url.Values{
		"title":    {"Secret room"},
		"content":  {"Behind the waterfall"},
		"category": {"Goal"},
	})
	s.Equal(http.StatusFound, resp.Code)
	s.Equal("/games/7?tab=notes", resp.Header.Get("Location"))

	page := b.get("/games/7?tab=notes").Body
	s.Contains(page, "Note added successfully!")
	s.Contains(page, "Secret room")
	s.Contains(page, "chip-goal")

	notes := s.backend.Notes()
	s.Require().Len(notes, 1)
	s.Equal("Game 07", notes[0].GameTitle)
	noteID := notes[0].ID

	resp = b.post("/notes/"+noteID, url.Values{
		"title":    {"Secret room"},
		"content":  {"Behind the second waterfall"},
		"category": {"Note"},
		"redirect": {"/games/7?tab=notes"},
	})
	s.Equal("/games/7?tab=notes", resp.Header.Get("Location"))
	page = b.get("/games/7?tab=notes").Body
	s.Contains(page, "Note updated successfully!")
	s.Contains(page, "Behind the second waterfall")

	resp = b.post("/notes/"+noteID+"/delete", url.Values{})
	s.Equal("/user/u1", resp.Header.Get("Location"))
	s.Contains(b.get("/user/u1").Body, "Note deleted successfully!")
	s.Empty(s.backend.Notes())
}

func (s *ServerTestSuite) TestNotes_Validation() {
	b := s.browser()
	b.login("alice", "secret")

	b.post("/games/7/notes", url.Values{"title": {"  "}, "content": {"text"}})
	s.Contains(b.get("/games/7?tab=notes").Body, "Title is required")
	s.Empty(s.backend.Notes())
}

func (s *ServerTestSuite) TestNotes_OtherUsersNote() {
	s.backend.AddNote(gamehub.Note{ID: "n-bob", UserID: bob.ID, GameID: "7", Title: "Bob's", Content: "mine", Category: "Note"})

	b := s.browser()
	b.login("alice", "secret")

	b.post("/notes/n-bob/delete", url.Values{})
	s.Contains(b.get("/user/u1").Body, "Failed to delete note.")
	s.Len(s.backend.Notes(), 1)
}

func (s *ServerTestSuite) TestNotes_FetchError() {
	b := s.browser()
	b.login("alice", "secret")
	s.backend.Fail(http.MethodGet, "/api/notes", http.StatusInternalServerError)

	resp := b.get("/games/7?tab=notes")
	s.Equal(http.StatusOK, resp.Code)
	s.Contains(resp.Body, "Failed to fetch notes.")
}

func (s *ServerTestSuite) TestReviews() {
	b := s.browser()
	b.login("alice", "secret")

	resp := b.post("/games/7/reviews", url.Values{"rating": {"4.5"}, "content": {"Loved it"}})
	s.Equal(http.StatusFound, resp.Code)
	s.Equal("/games/7?tab=reviews", resp.Header.Get("Location"))

	page := b.get("/games/7?tab=reviews").Body
	s.Contains(page, "Review added successfully!")
	s.Contains(page, "4.5 out of 5")
	s.NotContains(page, "Write a review")

	b.post("/games/7/reviews", url.Values{"rating": {"3"}})
	s.Contains(b.get("/games/7?tab=reviews").Body, "You have already submitted a review for this game.")

	reviews := s.backend.Reviews()
	s.Require().Len(reviews, 1)
	s.Len(reviews[0].Date, len(gamehub.ReviewDateLayout))
	reviewID := reviews[0].ID

	b.post("/reviews/"+reviewID, url.Values{"rating": {"2"}, "content": {"Changed my mind"}})
	s.Contains(b.get("/user/u1").Body, "Review updated successfully!")

	b.post("/reviews/"+reviewID+"/delete", url.Values{"redirect": {"/games/7?tab=reviews"}})
	page = b.get("/games/7?tab=reviews").Body
	s.Contains(page, "Review deleted successfully!")
	s.Contains(page, "No reviews yet.")
}

func (s *ServerTestSuite) TestReviews_RatingRequired() {
	b := s.browser()
	b.login("alice", "secret")

	b.post("/games/7/reviews", url.Values{"rating": {""}, "content": {"No stars"}})
	s.Contains(b.get("/games/7?tab=reviews").Body, "Please select a rating.")
	s.Empty(s.backend.Reviews())
}

func (s *ServerTestSuite) TestReviews_FetchError() {
	b := s.browser()
	b.login("alice", "secret")
	s.backend.Fail(http.MethodGet, "/api/reviews", http.StatusInternalServerError)

	resp := b.get("/games/7?tab=reviews")
	s.Equal(http.StatusOK, resp.Code)
	s.Contains(resp.Body, "Failed to fetch reviews.")
}

func (s *ServerTestSuite) TestProfile() {
	s.backend.AddNote(gamehub.Note{ID: "n1", UserID: bob.ID, GameID: "7", GameTitle: "Game 07", Title: "Bob's note", Content: "text", Category: "Note"})

	b := s.browser()
	b.login("alice", "secret")

	page := b.get("/user/u1").Body
	s.Contains(page, "Your Library")
	s.Contains(page, "Your Notes")

	page = b.get("/user/u2").Body
	s.Contains(page, "bob&#39;s Notes")
	s.Contains(page, "Bob&#39;s note")
	s.NotContains(page, `action="/notes/n1/delete"`)
}

func (s *ServerTestSuite) TestProfile_PartialFailure() {
	b := s.browser()
	b.login("alice", "secret")
	s.backend.Fail(http.MethodGet, "/api/reviews/user/u1", http.StatusInternalServerError)

	resp := b.get("/user/u1")
	s.Equal(http.StatusOK, resp.Code)
	s.Contains(resp.Body, "Failed to fetch Reviews")
	s.Contains(resp.Body, "Your Notes")
}

func (s *ServerTestSuite) TestProfile_UnknownUser() {
	b := s.browser()
	b.login("alice", "secret")

	resp := b.get("/user/nobody")
	s.Equal(http.StatusNotFound, resp.Code)
	s.Contains(resp.Body, "Failed to fetch User")
}

func (s *ServerTestSuite) TestAdmin_Forbidden() {
	b := s.browser()
	b.login("alice", "secret")

	resp := b.get("/admin")
	s.Equal(http.StatusFound, resp.Code)
	s.Equal("/games", resp.Header.Get("Location"))

	resp = b.post("/admin/users/u2/delete", url.Values{})
	s.Equal(http.StatusFound, resp.Code)
	_, ok := s.backend.User(bob.ID)
	s.True(ok)
}

func (s *ServerTestSuite) TestAdmin() {
	b := s.browser()
	b.login("root", "toor")

	page := b.get("/admin").Body
	s.Contains(page, ">alice</a>")
	s.Contains(page, ">bob</a>")
	s.Contains(page, `action="/admin/users/u2/delete"`)
	s.NotContains(page, `action="/admin/users/u0/delete"`)

	page = b.get("/admin?search=BO").Body
	s.Contains(page, ">bob</a>")
	s.NotContains(page, ">alice</a>")

	resp := b.post("/admin/users/u2/delete", url.Values{"redirect": {"/admin?search=BO"}})
	s.Equal("/admin?search=BO", resp.Header.Get("Location"))
	s.Contains(b.get("/admin").Body, "User deleted successfully")
	_, ok := s.backend.User(bob.ID)
	s.False(ok)

	b.post("/admin/users/u0/delete", url.Values{})
	s.Contains(b.get("/admin").Body, "Failed to delete user")
	_, ok = s.backend.User(admin.ID)
	s.True(ok)
}

func (s *ServerTestSuite) TestAdmin_FetchError() {
	b := s.browser()
	b.login("root", "toor")
	s.backend.Fail(http.MethodGet, "/api/users", http.StatusInternalServerError)

	resp := b.get("/admin")
	s.Equal(http.StatusOK, resp.Code)
	s.Contains(resp.Body, "Failed to fetch users")
}

func (s *ServerTestSuite) TestRegister() {
	b := s.browser()

	resp := b.post("/register", url.Values{"username": {"carol"}, "password": {"pw"}, "confirm_password": {"other"}})
	s.Equal(http.StatusFound, resp.Code)
	s.Equal("/register", resp.Header.Get("Location"))
	s.Contains(b.get("/register").Body, "Passwords do not match")

	resp = b.post("/register", url.Values{"username": {"carol"}, "password": {"pw"}, "confirm_password": {"pw"}})
	s.Equal(http.StatusFound, resp.Code)
	s.Equal("/games", resp.Header.Get("Location"))
	s.Contains(b.get("/api/me").Body, `"username":"carol"`)
}

func (s *ServerTestSuite) TestLogout() {
	b := s.browser()
	b.login("alice", "secret")

	resp := b.get("/logout")
	s.Equal(http.StatusFound, resp.Code)
	s.Equal("/", resp.Header.Get("Location"))
	s.Equal(1, s.backend.Calls(http.MethodGet, "/logout"))

	resp = b.get("/games")
	s.Equal(http.StatusFound, resp.Code)
	s.Equal("/login", resp.Header.Get("Location"))
}

func (s *ServerTestSuite) TestExpiredBackendSession() {
	b := s.browser()
	b.login("alice", "secret")
	s.backend.Fail(http.MethodGet, "/api/auth/me", http.StatusUnauthorized)

	resp := b.get("/games")
	s.Equal(http.StatusFound, resp.Code)
	s.Equal("/login", resp.Header.Get("Location"))
}

func (s *ServerTestSuite) TestGitHubLogin() {
	b := s.browser()

	resp := b.get("/oauth/github")
	s.Equal(http.StatusFound, resp.Code)
	s.Equal("/oauth2/authorization/github", resp.Header.Get("Location"))

	// the authorization endpoint is forwarded to the backend
	b.get("/oauth2/authorization/github")
	s.Equal(1, s.backend.Calls(http.MethodGet, "/oauth2/authorization/github"))
}

func (s *ServerTestSuite) TestAdoptsBackendCookie() {
	session := s.backend.AddUser(gamehub.User{ID: "u9", Username: "octocat", GitHubID: "583231"}, "")

	req, err := http.NewRequest(http.MethodGet, s.web.URL+"/games", nil)
	s.Require().NoError(err)
	req.AddCookie(&http.Cookie{Name: gamehubtest.SessionCookie, Value: session})

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close() //nolint:errcheck

	s.Equal(http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Contains(string(body), "octocat")
}

func (s *ServerTestSuite) TestImageCache_RequiresURL() {
	b := s.browser()
	b.login("alice", "secret")

	resp := b.get("/api/images/cache")
	s.Equal(http.StatusBadRequest, resp.Code)
}

func (s *ServerTestSuite) TestImageCache_RejectsInternalHosts() {
	b := s.browser()
	b.login("alice", "secret")

	resp := b.get("/api/images/cache?url=" + url.QueryEscape(s.backend.URL+"/api/users"))
	s.Equal(http.StatusBadRequest, resp.Code)
}

func (s *ServerTestSuite) TestEvents() {
	b := s.browser()
	b.login("alice", "secret")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.web.URL+"/api/events", nil)
	s.Require().NoError(err)
	resp, err := b.client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close() //nolint:errcheck
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Contains(resp.Header.Get("Content-Type"), "text/event-stream")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	waitFor := func(substr string) {
		for {
			select {
			case line, ok := <-lines:
				s.Require().True(ok, "stream closed before %q", substr)
				if strings.Contains(line, substr) {
					return
				}
			case <-ctx.Done():
				s.FailNow("timed out waiting for " + substr)
			}
		}
	}

	waitFor("event:ready")

	apiResp := b.post("/api/games/5/library", url.Values{"title": {"Game 05"}})
	s.Equal(http.StatusOK, apiResp.Code)

	waitFor("event:toast")
	waitFor("Added Game 05 to library!")

	// delivered live, nothing is left for the next page
	s.NotContains(b.get("/my-library").Body, "Added Game 05 to library!")
}
